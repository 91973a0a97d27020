package upload

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var stemSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

const maxStemLength = 50

// SecureName generates a collision-resistant, traversal-safe storage name:
// <unixMillis>_<32 hex chars>_<sanitizedStem><canonical ext>. The random
// component is 16 bytes from crypto/rand, never derivable from client
// input. The stem keeps a recognizable fragment of the original name for
// audits; everything outside [A-Za-z0-9_-] becomes '_'.
func SecureName(originalName, mimeType string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate storage name: %w", err)
	}

	stem := strings.TrimSuffix(path.Base(originalName), path.Ext(originalName))
	stem = stemSanitizer.ReplaceAllString(stem, "_")
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}

	return fmt.Sprintf("%d_%s_%s%s",
		time.Now().UnixMilli(),
		hex.EncodeToString(buf),
		stem,
		CanonicalExtension(mimeType),
	), nil
}
