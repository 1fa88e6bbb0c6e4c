// Package watch runs a callback for files that settle in a directory.
package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jlrickert/cli-toolkit/mylog"
)

// DefaultDebounce is how long a file must stay quiet before it is processed.
const DefaultDebounce = 120 * time.Millisecond

// Handler is called with the path and content of a settled file.
type Handler func(ctx context.Context, path string, data []byte) error

// Options tune Dir.
type Options struct {
	// Debounce delays processing until no event was seen for this long.
	Debounce time.Duration

	// Match filters the paths handled. Nil matches everything.
	Match func(path string) bool

	// Existing processes files already present when watching starts.
	Existing bool
}

// Dir watches dir until ctx is done and calls fn for each file that was
// written, created or renamed into place. Content identical to the last
// processed version of the same path is skipped. Handler errors are logged
// and do not stop the watch.
func Dir(ctx context.Context, dir string, opts Options, fn Handler) error {
	lg := mylog.LoggerFromContext(ctx)
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	match := opts.Match
	if match == nil {
		match = func(string) bool { return true }
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer func() {
		_ = watcher.Close()
	}()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	hashes := map[string][sha256.Size]byte{}
	pending := map[string]time.Time{}

	process := func(path string) {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				lg.Warn("unable to read watched file", "path", path, "err", err)
			}
			return
		}
		sum := sha256.Sum256(raw)
		if last, ok := hashes[path]; ok && last == sum {
			return
		}
		hashes[path] = sum
		if err := fn(ctx, path, raw); err != nil {
			lg.Error("watched file handler failed", "path", path, "err", err)
		}
	}

	if opts.Existing {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read %s: %w", dir, err)
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if !e.IsDir() && match(path) {
				process(path)
			}
		}
	}

	ticker := time.NewTicker(opts.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			for path, at := range pending {
				if now.Sub(at) >= opts.Debounce {
					delete(pending, path)
					process(path)
				}
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && match(event.Name) {
				pending[event.Name] = time.Now()
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			lg.Warn("file watcher error", "dir", dir, "err", watchErr)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
