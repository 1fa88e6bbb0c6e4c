package config

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/jlrickert/pubkit/pkg/watch"
)

// Watch reloads the configuration file at path whenever it changes and
// passes the result to fn. It blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	if path == "" {
		return errors.New("config watch requires an explicit file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return watch.Dir(ctx, filepath.Dir(abs), watch.Options{
		Match: func(p string) bool { return filepath.Clean(p) == abs },
	}, func(ctx context.Context, _ string, _ []byte) error {
		fn(Load(abs))
		return nil
	})
}
