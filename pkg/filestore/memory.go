package filestore

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/puzpuzpuz/xsync/v4"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrFileExists   = errors.New("file already exists")
)

// MemoryStore is an in-memory FileStore for tests and dry runs. It also
// records the message of every change so callers can inspect history.
type MemoryStore struct {
	files *xsync.Map[string, []byte]
	log   *xsync.Map[string, *history]
}

type history struct {
	mu   sync.Mutex
	msgs []string
}

// NewMemoryStore returns an empty in-memory file store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: xsync.NewMap[string, []byte](),
		log:   xsync.NewMap[string, *history](),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) CreateFile(ctx context.Context, path string, content []byte, opts publish.FileOptions) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "createFile", http.StatusBadRequest, err)
	}
	if _, loaded := s.files.LoadOrStore(path, bytes.Clone(content)); loaded {
		return false, publish.NewStoreError(s.Name(), "createFile", http.StatusConflict, ErrFileExists)
	}
	s.record(path, opts.Message)
	return true, nil
}

func (s *MemoryStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, publish.NewStoreError(s.Name(), "readFile", http.StatusBadRequest, err)
	}
	data, ok := s.files.Load(path)
	if !ok {
		return nil, publish.NewStoreError(s.Name(), "readFile", http.StatusNotFound, ErrFileNotFound)
	}
	return bytes.Clone(data), nil
}

// UpdateFile writes content at path, or at opts.NewPath followed by removal
// of path when a new path is given.
func (s *MemoryStore) UpdateFile(ctx context.Context, path string, content []byte, opts publish.FileOptions) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "updateFile", http.StatusBadRequest, err)
	}
	target := path
	if opts.NewPath != "" {
		if target, err = cleanPath(opts.NewPath); err != nil {
			return false, publish.NewStoreError(s.Name(), "updateFile", http.StatusBadRequest, err)
		}
	}
	s.files.Store(target, bytes.Clone(content))
	s.record(target, opts.Message)
	if target != path {
		s.files.Delete(path)
	}
	return true, nil
}

func (s *MemoryStore) DeleteFile(ctx context.Context, path string, opts publish.FileOptions) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "deleteFile", http.StatusBadRequest, err)
	}
	if _, ok := s.files.LoadAndDelete(path); !ok {
		return false, publish.NewStoreError(s.Name(), "deleteFile", http.StatusNotFound, ErrFileNotFound)
	}
	s.record(path, opts.Message)
	return true, nil
}

// Paths returns the stored paths in sorted order.
func (s *MemoryStore) Paths() []string {
	out := make([]string, 0, s.files.Size())
	s.files.Range(func(path string, _ []byte) bool {
		out = append(out, path)
		return true
	})
	slices.Sort(out)
	return out
}

// Messages returns the change messages recorded for path, oldest first.
func (s *MemoryStore) Messages(path string) []string {
	h, ok := s.log.Load(path)
	if !ok {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.msgs)
}

func (s *MemoryStore) record(path, message string) {
	if message == "" {
		return
	}
	h, _ := s.log.LoadOrStore(path, &history{})
	h.mu.Lock()
	h.msgs = append(h.msgs, message)
	h.mu.Unlock()
}
