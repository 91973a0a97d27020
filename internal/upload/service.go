package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"seedvault.org/internal/artifact"
	"seedvault.org/internal/auth"
	"seedvault.org/internal/authenticity"
	"seedvault.org/internal/ids"
	"seedvault.org/internal/obs"
	"seedvault.org/internal/stream"
)

var (
	ErrPermissionDenied = errors.New("upload: permission denied")
	ErrInvalidScope     = errors.New("upload: invalid access scope")
)

// ValidationError reports every violated rule, not just the first.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = string(v)
	}
	return "upload: validation failed: " + strings.Join(parts, ", ")
}

// AuthenticityError rejects content the gate flagged as generated.
type AuthenticityError struct {
	Reason     string
	Assessment authenticity.Assessment
}

func (e *AuthenticityError) Error() string {
	return "upload: " + e.Reason
}

// Thresholds below which text is too short to be worth assessing.
const (
	minDescriptionLength = 50
	minContentLength     = 100
)

// analyzableContent caps how much of a stored text file is read back for
// the authenticity pass.
const analyzableContent = 100 << 10

// Request is one submitted artifact.
type Request struct {
	Username     string
	Role         auth.Role
	OriginalName string
	MimeType     string
	ByteSize     int64
	Content      io.Reader
	Title        string
	Description  string
	OriginTribe  string
	AccessScope  auth.Scope
}

// Service orchestrates an upload: permission gate, validation, file write,
// authenticity gate, metadata append. Each step is a hard gate; later steps
// never run when an earlier one fails, and any already-written file is
// removed before a failure returns.
type Service struct {
	eval   *auth.Evaluator
	store  artifact.Store
	gate   *authenticity.Gate // nil disables the gate
	events *stream.Stream     // nil disables event publishing
	root   string
	now    func() time.Time
}

// NewService builds the orchestrator. gate and events are optional.
func NewService(eval *auth.Evaluator, store artifact.Store, gate *authenticity.Gate, events *stream.Stream, root string) (*Service, error) {
	if eval == nil {
		return nil, errors.New("upload: evaluator is required")
	}
	if store == nil {
		return nil, errors.New("upload: metadata store is required")
	}
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("upload: storage root is required")
	}
	return &Service{eval: eval, store: store, gate: gate, events: events, root: root, now: time.Now}, nil
}

// Upload runs the full gate sequence and returns the appended record.
func (s *Service) Upload(ctx context.Context, req Request) (artifact.Metadata, error) {
	if !s.eval.CanPerform(req.Role, auth.ActionUpload) {
		obs.ObserveUpload("denied")
		return artifact.Metadata{}, ErrPermissionDenied
	}

	scope := req.AccessScope
	if scope == "" {
		scope = auth.ScopePublic
	}
	if !auth.ValidRecordScope(scope) {
		obs.ObserveUpload("denied")
		return artifact.Metadata{}, ErrInvalidScope
	}

	if res := Validate(req.MimeType, req.OriginalName, req.ByteSize); !res.Valid {
		for _, v := range res.Violations {
			obs.ObserveUploadViolation(string(v))
		}
		obs.ObserveUpload("rejected")
		return artifact.Metadata{}, &ValidationError{Violations: res.Violations}
	}

	storedName, err := SecureName(req.OriginalName, req.MimeType)
	if err != nil {
		obs.ObserveUpload("failed")
		return artifact.Metadata{}, err
	}

	dir := filepath.Join(s.root, string(scope))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		obs.ObserveUpload("failed")
		return artifact.Metadata{}, fmt.Errorf("create scope directory: %w", err)
	}

	fullPath := filepath.Join(dir, storedName)
	written, err := writeFile(fullPath, io.LimitReader(req.Content, MaxFileSize+1))
	if err != nil {
		s.discard(fullPath)
		obs.ObserveUpload("failed")
		return artifact.Metadata{}, fmt.Errorf("store artifact: %w", err)
	}
	// The declared size passed validation, but the size that matters is
	// what actually arrived on the wire.
	if written > MaxFileSize {
		s.discard(fullPath)
		obs.ObserveUploadViolation(string(ViolationTooLarge))
		obs.ObserveUpload("rejected")
		return artifact.Metadata{}, &ValidationError{Violations: []Violation{ViolationTooLarge}}
	}

	checked, err := s.assess(ctx, req, fullPath, written)
	if err != nil {
		s.discard(fullPath)
		var aerr *AuthenticityError
		if errors.As(err, &aerr) {
			obs.ObserveUpload("flagged")
		} else {
			obs.ObserveUpload("failed")
		}
		return artifact.Metadata{}, err
	}

	meta := artifact.Metadata{
		ID:                  ids.New(),
		StoredName:          storedName,
		OriginalName:        req.OriginalName,
		Title:               req.Title,
		Description:         req.Description,
		OriginTribe:         req.OriginTribe,
		MimeType:            req.MimeType,
		ByteSize:            written,
		AccessScope:         scope,
		UploadedBy:          req.Username,
		UploadedByRole:      req.Role,
		UploadedAt:          s.now().UTC(),
		StoragePath:         filepath.Join(string(scope), storedName),
		AuthenticityChecked: checked,
	}

	if err := s.store.Append(ctx, meta); err != nil {
		s.discard(fullPath)
		obs.ObserveUpload("failed")
		return artifact.Metadata{}, fmt.Errorf("append metadata: %w", err)
	}

	obs.ObserveUpload("accepted")
	obs.ObserveUploadBytes(written)
	if s.events != nil {
		s.events.Publish(stream.UploadEvent{
			ID:          meta.ID,
			Title:       meta.Title,
			OriginTribe: meta.OriginTribe,
			AccessScope: meta.AccessScope,
			MimeType:    meta.MimeType,
			ByteSize:    meta.ByteSize,
			Timestamp:   meta.UploadedAt,
		})
	}
	return meta, nil
}

// RemoveFile deletes a stored artifact file (administrative delete path).
func (s *Service) RemoveFile(storagePath string) error {
	return os.Remove(filepath.Join(s.root, filepath.FromSlash(storagePath)))
}

// assess runs the authenticity gate over the description and, for plain
// text artifacts, the stored content. Returns whether any check ran.
func (s *Service) assess(ctx context.Context, req Request, fullPath string, written int64) (bool, error) {
	if s.gate == nil {
		return false, nil
	}

	checked := false
	if len(req.Description) > minDescriptionLength {
		checked = true
		res, err := s.gate.Assess(ctx, req.Description)
		if err != nil {
			return checked, fmt.Errorf("assess description: %w", err)
		}
		if res.Flagged {
			return checked, &AuthenticityError{Reason: "description appears to be machine-generated", Assessment: res}
		}
	}

	if req.MimeType == "text/plain" && written > minContentLength {
		text, err := readHead(fullPath, analyzableContent)
		if err != nil {
			return checked, fmt.Errorf("read stored artifact: %w", err)
		}
		checked = true
		res, err := s.gate.Assess(ctx, text)
		if err != nil {
			return checked, fmt.Errorf("assess content: %w", err)
		}
		if res.Flagged {
			return checked, &AuthenticityError{Reason: "file content appears to be machine-generated", Assessment: res}
		}
	}

	return checked, nil
}

// discard removes a partially written file; the upload already failed, so
// a failed removal is only logged by the caller's error path.
func (s *Service) discard(path string) {
	_ = os.Remove(path)
}

func writeFile(path string, content io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return written, err
}

func readHead(path string, limit int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
