package upload

import (
	"path"
	"strings"
)

// Violation identifies one failed upload rule.
type Violation string

const (
	ViolationUnsupportedType   Violation = "unsupported_type"
	ViolationExtensionMismatch Violation = "extension_mismatch"
	ViolationTooLarge          Violation = "too_large"
	ViolationDoubleExtension   Violation = "double_extension"
	ViolationNullByte          Violation = "null_byte"
)

// MaxFileSize is the upload ceiling (10 MiB).
const MaxFileSize = 10 << 20

// allowedTypes whitelists declared MIME types and the extensions each may
// carry. The first extension of each list is the canonical one used for
// generated storage names.
var allowedTypes = map[string][]string{
	// Images
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},

	// Audio (language recordings)
	"audio/mpeg": {".mp3"},
	"audio/wav":  {".wav"},
	"audio/ogg":  {".ogg"},

	// Documents
	"application/pdf": {".pdf"},
	"text/plain":      {".txt"},

	// Video
	"video/mp4":  {".mp4"},
	"video/webm": {".webm"},
}

// Result is the outcome of validating one upload descriptor.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// Validate classifies an upload descriptor against the fixed rule set.
// Every rule is evaluated; violations accumulate rather than short-circuit.
// Pure: no file-system access, no state.
func Validate(mimeType, originalName string, byteSize int64) Result {
	var violations []Violation

	allowedExts, supported := allowedTypes[mimeType]
	if !supported {
		violations = append(violations, ViolationUnsupportedType)
	}

	ext := strings.ToLower(path.Ext(originalName))
	if !containsString(allowedExts, ext) {
		// Also fires for unsupported types: there is no valid extension
		// list to match against.
		violations = append(violations, ViolationExtensionMismatch)
	}

	if byteSize > MaxFileSize {
		violations = append(violations, ViolationTooLarge)
	}

	stem := strings.TrimSuffix(path.Base(originalName), path.Ext(originalName))
	if strings.Contains(stem, ".") {
		violations = append(violations, ViolationDoubleExtension)
	}

	if strings.ContainsRune(originalName, 0) {
		violations = append(violations, ViolationNullByte)
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}

// CanonicalExtension returns the storage extension for a whitelisted MIME
// type, or "" when the type is not allowed.
func CanonicalExtension(mimeType string) string {
	if exts, ok := allowedTypes[mimeType]; ok {
		return exts[0]
	}
	return ""
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
