package cli

import (
	"fmt"
	"net/http"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/spf13/cobra"
)

// NewPostCmd constructs the `post` command group.
//
// Usage examples:
//
//	pubkit post create note.json
//	echo '{"content":"hello"}' | pubkit post create --draft
//	pubkit post update https://example.com/notes/abc update.json
//	pubkit post delete https://example.com/notes/abc
func NewPostCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "create, read, update and delete posts",
	}
	cmd.AddCommand(
		newPostCreateCmd(deps),
		newPostGetCmd(deps),
		newPostSourceCmd(deps),
		newPostUpdateCmd(deps),
		newPostDeleteCmd(deps),
		newPostUndeleteCmd(deps),
		newPostFileCmd(deps),
	)
	return cmd
}

func newPostCreateCmd(deps *Deps) *cobra.Command {
	var draft, dryRun bool
	cmd := &cobra.Command{
		Use:     "create [file]",
		Short:   "create a post from JSON properties",
		Aliases: []string{"c"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := readInput(cmd, args, 0)
			if err != nil {
				return err
			}
			props, err := decodeProperties(data)
			if err != nil {
				return err
			}
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, err := deps.postData().Create(ctx, props, draft)
			if err != nil {
				return err
			}
			if dryRun {
				return writeJSON(cmd, rec)
			}
			res, err := publish.NewPostContent(deps.Store, deps.Publication).Create(ctx, rec)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	cmd.Flags().BoolVar(&draft, "draft", false, "create the post as a draft")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the record without writing the post file")
	return cmd
}

func newPostGetCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "print the stored record of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, err := deps.postData().Read(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, rec)
		},
	}
}

func newPostSourceCmd(deps *Deps) *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "source <url>",
		Short: "print the properties of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, err := deps.postData().Read(ctx, args[0])
			if err != nil {
				return err
			}
			props := rec.Properties
			if len(names) > 0 {
				props = publish.Properties{}
				for _, name := range names {
					if v, ok := rec.Properties[name]; ok {
						props[name] = v
					}
				}
			}
			return writeJSON(cmd, map[string]any{"properties": props})
		},
	}
	cmd.Flags().StringSliceVarP(&names, "property", "p", nil, "only print these properties (repeatable)")
	return cmd
}

func newPostUpdateCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "update <url> [file]",
		Short: "apply a micropub update operation to a post",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := readInput(cmd, args, 1)
			if err != nil {
				return err
			}
			op, err := decodeOperation(data)
			if err != nil {
				return err
			}
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, changed, err := deps.postData().Update(ctx, args[0], op)
			if err != nil {
				return err
			}
			if !changed {
				mylog.LoggerFromContext(ctx).Debug("post unchanged", "url", args[0])
				return writeJSON(cmd, &publish.Result{
					Location:    rec.URL(),
					Status:      http.StatusOK,
					Success:     "update",
					Description: fmt.Sprintf("Post at %s not updated because no changes were made", rec.URL()),
				})
			}
			res, err := publish.NewPostContent(deps.Store, deps.Publication).Update(ctx, rec)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
}

func newPostDeleteCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <url>",
		Short:   "delete a post, keeping a copy so it can be restored",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, err := deps.postData().Delete(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := publish.NewPostContent(deps.Store, deps.Publication).Delete(ctx, rec)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
}

func newPostUndeleteCmd(deps *Deps) *cobra.Command {
	var draft bool
	cmd := &cobra.Command{
		Use:   "undelete <url>",
		Short: "restore a deleted post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, err := deps.postData().Undelete(ctx, args[0], draft)
			if err != nil {
				return err
			}
			res, err := publish.NewPostContent(deps.Store, deps.Publication).Undelete(ctx, rec)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	cmd.Flags().BoolVar(&draft, "draft", false, "restore the post as a draft")
	return cmd
}

func newPostFileCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>",
		Short: "parse a stored post file back into properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := deps.backends(ctx); err != nil {
				return err
			}
			data, err := deps.Store.ReadFile(ctx, args[0])
			if err != nil {
				return err
			}
			props, err := deps.Preset.ParsePost(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			return writeJSON(cmd, map[string]any{"properties": props})
		},
	}
}
