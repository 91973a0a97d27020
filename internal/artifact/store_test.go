package artifact

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"seedvault.org/internal/auth"
)

func record(id string, scope auth.Scope) Metadata {
	return Metadata{
		ID:             id,
		StoredName:     id + ".txt",
		OriginalName:   "notes.txt",
		Title:          "Notes",
		MimeType:       "text/plain",
		ByteSize:       42,
		AccessScope:    scope,
		UploadedBy:     "tribe1",
		UploadedByRole: auth.RoleTribe1,
		UploadedAt:     time.Now().UTC().Truncate(time.Millisecond),
		StoragePath:    string(scope) + "/" + id + ".txt",
	}
}

func testStoreBehavior(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Append(ctx, record("a1", auth.ScopePublic)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, record("a2", auth.ScopeTribe1)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := s.Append(ctx, record("a1", auth.ScopePublic)); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate append = %v, want ErrDuplicateID", err)
	}

	got, err := s.Get(ctx, "a2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccessScope != auth.ScopeTribe1 {
		t.Fatalf("unexpected scope: %s", got.AccessScope)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a1" || list[1].ID != "a2" {
		t.Fatalf("unexpected list order: %+v", list)
	}

	if err := s.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
	list, _ = s.List(ctx)
	if len(list) != 1 || list[0].ID != "a2" {
		t.Fatalf("unexpected list after delete: %+v", list)
	}
}

func TestInMemoryStore(t *testing.T) {
	testStoreBehavior(t, NewInMemory())
}

func TestFileLogStore(t *testing.T) {
	s, err := OpenFileLog(filepath.Join(t.TempDir(), "artifacts.jsonl"))
	if err != nil {
		t.Fatalf("OpenFileLog: %v", err)
	}
	defer s.Close()
	testStoreBehavior(t, s)
}

func TestStoreRejectsInvalidRecords(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	bad := record("a1", auth.ScopePublic)
	bad.AccessScope = auth.ScopeAll
	if err := s.Append(ctx, bad); !errors.Is(err, ErrInvalid) {
		t.Fatalf("wildcard scope append = %v, want ErrInvalid", err)
	}

	bad = record("", auth.ScopePublic)
	if err := s.Append(ctx, bad); !errors.Is(err, ErrInvalid) {
		t.Fatalf("empty id append = %v, want ErrInvalid", err)
	}
}

func TestFileLogSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.jsonl")
	ctx := context.Background()

	s, err := OpenFileLog(path)
	if err != nil {
		t.Fatalf("OpenFileLog: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, record(fmt.Sprintf("r%d", i), auth.ScopePublic)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if err := s.Delete(ctx, "r2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenFileLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	list, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 records after replay, got %d", len(list))
	}
	for _, m := range list {
		if m.ID == "r2" {
			t.Fatalf("tombstoned record resurrected")
		}
	}
	if list[0].ID != "r0" || list[3].ID != "r4" {
		t.Fatalf("replay lost append order: %+v", list)
	}
}

func TestFileLogConcurrentAppends(t *testing.T) {
	s, err := OpenFileLog(filepath.Join(t.TempDir(), "artifacts.jsonl"))
	if err != nil {
		t.Fatalf("OpenFileLog: %v", err)
	}
	defer s.Close()

	const writers = 16
	const perWriter = 25
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				if err := s.Append(ctx, record(id, auth.ScopePublic)); err != nil {
					t.Errorf("Append %s: %v", id, err)
				}
			}
		}(w)
	}
	wg.Wait()

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != writers*perWriter {
		t.Fatalf("lost appends: got %d, want %d", len(list), writers*perWriter)
	}
}
