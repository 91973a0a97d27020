package stream

import (
	"context"
	"sync"
	"time"

	"seedvault.org/internal/auth"
)

// UploadEvent describes an accepted artifact upload for live dashboards.
// It carries only fields that are safe to show to any authenticated
// subscriber of the owning scope.
type UploadEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	OriginTribe string     `json:"origin_tribe,omitempty"`
	AccessScope auth.Scope `json:"access_scope"`
	MimeType    string     `json:"mime_type"`
	ByteSize    int64      `json:"byte_size"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Stream fan-outs upload events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan UploadEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan UploadEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan UploadEvent {
	ch := make(chan UploadEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt UploadEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
