package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/pubkit/pkg/publish"
)

// FsStore is a FileStore rooted at a directory on the local filesystem.
// Writes go to a temporary file in the target directory followed by a
// rename, so readers never observe a partial file.
type FsStore struct {
	// Root is the directory every store path is resolved under.
	Root string
}

// NewFsStore returns a FsStore rooted at root.
func NewFsStore(root string) *FsStore {
	return &FsStore{Root: root}
}

func (s *FsStore) Name() string { return "filesystem" }

func (s *FsStore) CreateFile(ctx context.Context, p string, content []byte, opts publish.FileOptions) (bool, error) {
	full, err := s.resolve(p)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "createFile", http.StatusBadRequest, err)
	}
	if _, err := os.Stat(full); err == nil {
		return false, publish.NewStoreError(s.Name(), "createFile", http.StatusConflict, ErrFileExists)
	}
	if err := atomicWriteFile(full, content); err != nil {
		return false, s.wrap("createFile", err)
	}
	mylog.LoggerFromContext(ctx).Debug("file created", "path", full, "message", opts.Message)
	return true, nil
}

func (s *FsStore) ReadFile(ctx context.Context, p string) ([]byte, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, publish.NewStoreError(s.Name(), "readFile", http.StatusBadRequest, err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, s.wrap("readFile", err)
	}
	return data, nil
}

func (s *FsStore) UpdateFile(ctx context.Context, p string, content []byte, opts publish.FileOptions) (bool, error) {
	full, err := s.resolve(p)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "updateFile", http.StatusBadRequest, err)
	}
	target := full
	if opts.NewPath != "" {
		if target, err = s.resolve(opts.NewPath); err != nil {
			return false, publish.NewStoreError(s.Name(), "updateFile", http.StatusBadRequest, err)
		}
	}
	if err := atomicWriteFile(target, content); err != nil {
		return false, s.wrap("updateFile", err)
	}
	if target != full {
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, s.wrap("updateFile", err)
		}
	}
	mylog.LoggerFromContext(ctx).Debug("file updated", "path", target, "message", opts.Message)
	return true, nil
}

func (s *FsStore) DeleteFile(ctx context.Context, p string, opts publish.FileOptions) (bool, error) {
	full, err := s.resolve(p)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "deleteFile", http.StatusBadRequest, err)
	}
	if err := os.Remove(full); err != nil {
		return false, s.wrap("deleteFile", err)
	}
	mylog.LoggerFromContext(ctx).Debug("file deleted", "path", full, "message", opts.Message)
	return true, nil
}

// resolve maps a store path onto the filesystem under Root.
func (s *FsStore) resolve(p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

func (s *FsStore) wrap(op string, err error) error {
	status := 0
	switch {
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
		err = fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		status = http.StatusForbidden
	}
	return publish.NewStoreError(s.Name(), op, status, err)
}

// cleanPath normalizes a slash-separated store path and rejects paths that
// escape the store root.
func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("empty path")
	}
	clean := path.Clean("/" + p)[1:]
	if clean == "" || clean != strings.TrimPrefix(path.Clean(p), "/") {
		return "", fmt.Errorf("invalid path %q", p)
	}
	return clean, nil
}

func atomicWriteFile(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, name); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
