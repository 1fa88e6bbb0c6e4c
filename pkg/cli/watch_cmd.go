package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/jlrickert/pubkit/pkg/watch"
	"github.com/spf13/cobra"
)

// NewWatchCmd constructs the `watch` command. Every *.json file written to
// the inbox directory is published as a new post.
//
//	pubkit watch ./inbox --existing
func NewWatchCmd(deps *Deps) *cobra.Command {
	var draft, existing bool
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "publish JSON property files dropped into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := deps.backends(ctx); err != nil {
				return err
			}
			lg := mylog.LoggerFromContext(ctx)
			posts := deps.postData()
			content := publish.NewPostContent(deps.Store, deps.Publication)

			handle := func(ctx context.Context, path string, data []byte) error {
				props, err := decodeProperties(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				rec, err := posts.Create(ctx, props, draft)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				res, err := content.Create(ctx, rec)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				lg.Info("published inbox file", "path", path, "url", res.Location)
				return writeJSON(cmd, res)
			}

			lg.Info("watching inbox", "dir", args[0])
			err := watch.Dir(ctx, args[0], watch.Options{
				Debounce: debounce,
				Existing: existing,
				Match: func(p string) bool {
					return strings.EqualFold(filepath.Ext(p), ".json")
				},
			}, handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&draft, "draft", false, "create posts as drafts")
	cmd.Flags().BoolVar(&existing, "existing", false, "also publish files already in the directory")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a file is read")
	return cmd
}
