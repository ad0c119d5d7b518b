package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/sitetrack/procurement-api/internal/evidence"
	"github.com/sitetrack/procurement-api/internal/storage"
)

// RecordingPublisher keeps every published event in memory
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	// Err, when set, is returned by Publish and nothing is recorded
	Err error
}

func (p *RecordingPublisher) Publish(_ context.Context, evts ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, evts...)
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Types returns the event types in publish order
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

// Events returns a copy of the recorded events
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// MemoryStorage is a storage.Storage kept in a map
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	// FailOn makes Put fail for files whose name contains the substring
	FailOn string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) Put(ctx context.Context, obj storage.Object) (*storage.Stored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.FailOn != "" && strings.Contains(obj.Filename, s.FailOn) {
		return nil, errors.New("storage unavailable")
	}
	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, err
	}

	p := path.Join(obj.Prefix, uuid.NewString()+path.Ext(obj.Filename))
	s.mu.Lock()
	s.objects[p] = body
	s.mu.Unlock()
	return &storage.Stored{Path: p, URL: s.URL(p), Size: int64(len(body))}, nil
}

func (s *MemoryStorage) Open(_ context.Context, storagePath string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[storagePath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, storagePath)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (s *MemoryStorage) Delete(_ context.Context, storagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storagePath)
	s.deleted = append(s.deleted, storagePath)
	return nil
}

func (s *MemoryStorage) URL(storagePath string) string {
	return "https://evidence.test/" + storagePath
}

// Paths returns the stored object paths, sorted
func (s *MemoryStorage) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for p := range s.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Deleted returns the paths passed to Delete
func (s *MemoryStorage) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// EvidenceFile builds an in-memory evidence file
func EvidenceFile(name, content string) evidence.File {
	return evidence.File{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}
