package upload

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"seedvault.org/internal/artifact"
	"seedvault.org/internal/auth"
	"seedvault.org/internal/authenticity"
)

func newTestService(t *testing.T, store artifact.Store, gate *authenticity.Gate) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	eval, err := auth.NewEvaluator(auth.DefaultPermissions())
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	svc, err := NewService(eval, store, gate, nil, root)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, root
}

func textRequest(body string) Request {
	return Request{
		Username:     "tribe1_user",
		Role:         auth.RoleTribe1,
		OriginalName: "story.txt",
		MimeType:     "text/plain",
		ByteSize:     int64(len(body)),
		Content:      strings.NewReader(body),
		Title:        "Origin story",
		OriginTribe:  "tribe1",
		AccessScope:  auth.ScopeTribe1,
	}
}

func TestUploadSuccess(t *testing.T) {
	store := artifact.NewInMemory()
	svc, root := newTestService(t, store, nil)

	body := "short tale"
	meta, err := svc.Upload(context.Background(), textRequest(body))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if meta.ID == "" {
		t.Error("metadata ID is empty")
	}
	if meta.AccessScope != auth.ScopeTribe1 {
		t.Errorf("AccessScope = %q, want tribe1", meta.AccessScope)
	}
	if meta.ByteSize != int64(len(body)) {
		t.Errorf("ByteSize = %d, want %d", meta.ByteSize, len(body))
	}
	if meta.AuthenticityChecked {
		t.Error("AuthenticityChecked should be false when the gate is disabled")
	}
	if meta.StoragePath != filepath.Join("tribe1", meta.StoredName) {
		t.Errorf("StoragePath = %q", meta.StoragePath)
	}

	data, err := os.ReadFile(filepath.Join(root, meta.StoragePath))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != body {
		t.Errorf("stored content = %q, want %q", data, body)
	}

	got, err := store.Get(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("metadata not appended: %v", err)
	}
	if got.StoredName != meta.StoredName {
		t.Errorf("stored metadata mismatch: %q vs %q", got.StoredName, meta.StoredName)
	}
}

func TestUploadDefaultsToPublicScope(t *testing.T) {
	svc, _ := newTestService(t, artifact.NewInMemory(), nil)

	req := textRequest("content")
	req.AccessScope = ""
	meta, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if meta.AccessScope != auth.ScopePublic {
		t.Errorf("AccessScope = %q, want public", meta.AccessScope)
	}
}

func TestUploadGuestDenied(t *testing.T) {
	store := artifact.NewInMemory()
	svc, root := newTestService(t, store, nil)

	req := textRequest("content")
	req.Username = "visitor"
	req.Role = auth.RoleGuest
	if _, err := svc.Upload(context.Background(), req); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	if records, _ := store.List(context.Background()); len(records) != 0 {
		t.Errorf("denied upload left %d metadata records", len(records))
	}
	assertNoFiles(t, root)
}

func TestUploadRejectsInvalidScope(t *testing.T) {
	svc, _ := newTestService(t, artifact.NewInMemory(), nil)

	req := textRequest("content")
	req.AccessScope = auth.ScopeAll
	if _, err := svc.Upload(context.Background(), req); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("err = %v, want ErrInvalidScope", err)
	}
}

func TestUploadValidationFailure(t *testing.T) {
	svc, root := newTestService(t, artifact.NewInMemory(), nil)

	req := textRequest("content")
	req.OriginalName = "a.b.txt"
	_, err := svc.Upload(context.Background(), req)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0] != ViolationDoubleExtension {
		t.Errorf("Violations = %v, want [double_extension]", verr.Violations)
	}
	assertNoFiles(t, root)
}

func TestUploadCleansUpOnStoreFailure(t *testing.T) {
	svc, root := newTestService(t, failingStore{}, nil)

	if _, err := svc.Upload(context.Background(), textRequest("content")); err == nil {
		t.Fatal("expected error from failing store")
	}
	assertNoFiles(t, root)
}

func TestUploadFlagsGeneratedDescription(t *testing.T) {
	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[{"label":"Fake","score":0.97},{"label":"Real","score":0.03}]]`))
	}))
	defer classifier.Close()

	c, err := authenticity.NewClassifier(classifier.URL, "detector", "", time.Second)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	gate := authenticity.NewGate(c, authenticity.DefaultConfig())

	store := artifact.NewInMemory()
	svc, root := newTestService(t, store, gate)

	req := textRequest("content")
	req.Description = strings.Repeat("It is important to note that this delves into rich tapestry. ", 3)
	_, err = svc.Upload(context.Background(), req)

	var aerr *AuthenticityError
	if !errors.As(err, &aerr) {
		t.Fatalf("err = %v, want *AuthenticityError", err)
	}
	if records, _ := store.List(context.Background()); len(records) != 0 {
		t.Error("flagged upload left metadata records")
	}
	assertNoFiles(t, root)
}

func TestUploadShortDescriptionSkipsGate(t *testing.T) {
	// A stub server that fails the test if the classifier is ever called.
	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("classifier should not be called for short descriptions")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer classifier.Close()

	c, err := authenticity.NewClassifier(classifier.URL, "detector", "", time.Second)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	gate := authenticity.NewGate(c, authenticity.DefaultConfig())

	svc, _ := newTestService(t, artifact.NewInMemory(), gate)

	req := Request{
		Username:     "admin",
		Role:         auth.RoleAdmin,
		OriginalName: "photo.jpg",
		MimeType:     "image/jpeg",
		ByteSize:     64,
		Content:      strings.NewReader(strings.Repeat("x", 64)),
		Description:  "short note",
		AccessScope:  auth.ScopePublic,
	}
	meta, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if meta.AuthenticityChecked {
		t.Error("AuthenticityChecked should be false when no text crossed the threshold")
	}
}

func TestUploadChecksPlainTextContent(t *testing.T) {
	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[{"label":"Real","score":0.95}]]`))
	}))
	defer classifier.Close()

	c, err := authenticity.NewClassifier(classifier.URL, "detector", "", time.Second)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	gate := authenticity.NewGate(c, authenticity.DefaultConfig())

	svc, _ := newTestService(t, artifact.NewInMemory(), gate)

	body := "My grandmother told me this story by the fire. I wrote it down the same night, exactly as she spoke it."
	meta, err := svc.Upload(context.Background(), textRequest(body))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !meta.AuthenticityChecked {
		t.Error("AuthenticityChecked should be true for analyzed text content")
	}
}

func TestUploadFailClosedClassifierOutage(t *testing.T) {
	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer classifier.Close()

	c, err := authenticity.NewClassifier(classifier.URL, "detector", "", time.Second)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	cfg := authenticity.DefaultConfig()
	cfg.FailOpen = false
	gate := authenticity.NewGate(c, cfg)

	store := artifact.NewInMemory()
	svc, root := newTestService(t, store, gate)

	req := textRequest("content")
	req.Description = strings.Repeat("a long enough description to cross the assessment threshold ", 2)
	_, err = svc.Upload(context.Background(), req)

	var unavailable *authenticity.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want *authenticity.UnavailableError", err)
	}
	var aerr *AuthenticityError
	if errors.As(err, &aerr) {
		t.Error("classifier outage must not surface as a content rejection")
	}
	if records, _ := store.List(context.Background()); len(records) != 0 {
		t.Error("failed upload left metadata records")
	}
	assertNoFiles(t, root)
}

func TestUploadRejectsOversizedStream(t *testing.T) {
	store := artifact.NewInMemory()
	svc, root := newTestService(t, store, nil)

	// Declared size passes validation; the stream itself does not.
	req := textRequest("content")
	req.ByteSize = 64
	req.Content = &endlessReader{}
	_, err := svc.Upload(context.Background(), req)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0] != ViolationTooLarge {
		t.Errorf("Violations = %v, want [too_large]", verr.Violations)
	}
	if records, _ := store.List(context.Background()); len(records) != 0 {
		t.Error("oversized upload left metadata records")
	}
	assertNoFiles(t, root)
}

// endlessReader never runs out of bytes.
type endlessReader struct{}

func (endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	return len(p), nil
}

func assertNoFiles(t *testing.T, root string) {
	t.Helper()
	var files []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if len(files) != 0 {
		t.Errorf("unexpected files left under root: %v", files)
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, artifact.Metadata) error { return errors.New("boom") }
func (failingStore) Get(context.Context, string) (artifact.Metadata, error) {
	return artifact.Metadata{}, artifact.ErrNotFound
}
func (failingStore) List(context.Context) ([]artifact.Metadata, error) { return nil, nil }
func (failingStore) Delete(context.Context, string) error              { return errors.New("boom") }
