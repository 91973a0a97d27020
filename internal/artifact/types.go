package artifact

import (
	"errors"
	"time"

	"seedvault.org/internal/auth"
)

// Metadata describes one stored artifact. Records are created exactly once
// at successful upload and never mutated afterwards.
type Metadata struct {
	ID                  string     `json:"id"`
	StoredName          string     `json:"stored_name"`
	OriginalName        string     `json:"original_name"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	OriginTribe         string     `json:"origin_tribe,omitempty"`
	MimeType            string     `json:"mime_type"`
	ByteSize            int64      `json:"byte_size"`
	AccessScope         auth.Scope `json:"access_scope"`
	UploadedBy          string     `json:"uploaded_by"`
	UploadedByRole      auth.Role  `json:"uploaded_by_role"`
	UploadedAt          time.Time  `json:"uploaded_at"`
	StoragePath         string     `json:"storage_path"`
	AuthenticityChecked bool       `json:"authenticity_checked"`
}

var (
	ErrNotFound    = errors.New("artifact: not found")
	ErrDuplicateID = errors.New("artifact: duplicate id")
	ErrInvalid     = errors.New("artifact: invalid record")
)

// validate rejects records that cannot be stored. The record scope must be
// concrete; the "all" wildcard only exists inside permission sets.
func validate(m Metadata) error {
	if m.ID == "" || m.StoredName == "" {
		return ErrInvalid
	}
	if !auth.ValidRecordScope(m.AccessScope) {
		return ErrInvalid
	}
	return nil
}
