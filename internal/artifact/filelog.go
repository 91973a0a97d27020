package artifact

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// logEntry is one line of the on-disk log. Deletions are tombstones so the
// file itself stays strictly append-only.
type logEntry struct {
	Op     string    `json:"op"` // "append" or "delete"
	Record *Metadata `json:"record,omitempty"`
	ID     string    `json:"id,omitempty"`
}

// FileLog implements Store as an append-only JSONL flat file. A single
// mutex serializes writers, so concurrent appends cannot lose records the
// way a read-whole-file/modify/write-whole-file cycle would. The full log
// is replayed into memory on open; reads never touch the disk.
type FileLog struct {
	mu      sync.RWMutex
	f       *os.File
	records []Metadata
	index   map[string]int
}

var _ Store = (*FileLog)(nil)

// OpenFileLog opens (or creates) the log at path and replays it.
func OpenFileLog(path string) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open metadata log: %w", err)
	}

	s := &FileLog{f: f, index: make(map[string]int)}
	if err := s.replay(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *FileLog) replay() error {
	if _, err := s.f.Seek(0, 0); err != nil {
		return err
	}
	scanner := bufio.NewScanner(s.f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry logEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("metadata log line %d: %w", line, err)
		}
		switch entry.Op {
		case "append":
			if entry.Record == nil {
				return fmt.Errorf("metadata log line %d: append without record", line)
			}
			s.apply(*entry.Record)
		case "delete":
			s.applyDelete(entry.ID)
		default:
			return fmt.Errorf("metadata log line %d: unknown op %q", line, entry.Op)
		}
	}
	return scanner.Err()
}

func (s *FileLog) apply(m Metadata) {
	if _, ok := s.index[m.ID]; ok {
		return
	}
	s.index[m.ID] = len(s.records)
	s.records = append(s.records, m)
}

func (s *FileLog) applyDelete(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].ID] = j
	}
}

func (s *FileLog) write(entry logEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := s.f.Write(data); err != nil {
		return fmt.Errorf("append metadata log: %w", err)
	}
	return s.f.Sync()
}

func (s *FileLog) Append(ctx context.Context, m Metadata) error {
	if err := validate(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[m.ID]; ok {
		return ErrDuplicateID
	}
	if err := s.write(logEntry{Op: "append", Record: &m}); err != nil {
		return err
	}
	s.apply(m)
	return nil
}

func (s *FileLog) Get(ctx context.Context, id string) (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Metadata{}, ErrNotFound
	}
	return s.records[i], nil
}

func (s *FileLog) List(ctx context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Metadata, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *FileLog) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; !ok {
		return ErrNotFound
	}
	if err := s.write(logEntry{Op: "delete", ID: id}); err != nil {
		return err
	}
	s.applyDelete(id)
	return nil
}

// Close releases the underlying file.
func (s *FileLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
