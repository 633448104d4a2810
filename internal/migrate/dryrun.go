package migrate

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/JonMunkholm/DumpMigration/internal/logging"
	"github.com/JonMunkholm/DumpMigration/internal/strapi"
)

// DryRunStore is a ContentStore that logs documents instead of sending them.
// It hands out sequential IDs so relations still resolve.
type DryRunStore struct {
	mu     sync.Mutex
	nextID int64
	counts map[string]int
}

// NewDryRunStore creates an empty dry-run store.
func NewDryRunStore() *DryRunStore {
	return &DryRunStore{counts: make(map[string]int)}
}

// CreateEntry records the entry and returns a fake ID.
func (s *DryRunStore) CreateEntry(ctx context.Context, contentType string, data any) (*strapi.Entry, error) {
	s.mu.Lock()
	s.nextID++
	s.counts[contentType]++
	id := s.nextID
	s.mu.Unlock()

	logging.FromContext(ctx).Debug("Dry run entry", "content_type", contentType, "id", id, "data", data)
	return &strapi.Entry{ID: id}, nil
}

// UploadFile records the upload and returns a fake media file.
func (s *DryRunStore) UploadFile(ctx context.Context, path, alt string) ([]strapi.File, error) {
	s.mu.Lock()
	s.nextID++
	s.counts["upload"]++
	id := s.nextID
	s.mu.Unlock()

	logging.FromContext(ctx).Debug("Dry run upload", "path", path, "alt", alt, "id", id)
	return []strapi.File{{ID: id, Name: filepath.Base(path)}}, nil
}

// Count returns how many entries of contentType were recorded.
// Uploads are counted under "upload".
func (s *DryRunStore) Count(contentType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[contentType]
}
