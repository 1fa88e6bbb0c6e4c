package cli

import (
	"os"
	"path/filepath"

	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/spf13/cobra"
)

// NewMediaCmd constructs the `media` command group.
//
//	pubkit media create photo.jpg
//	pubkit media delete https://example.com/media/3f2a9c01be.jpg
func NewMediaCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "upload, read and delete media files",
	}
	cmd.AddCommand(
		newMediaCreateCmd(deps),
		newMediaGetCmd(deps),
		newMediaDeleteCmd(deps),
	)
	return cmd
}

func newMediaCreateCmd(deps *Deps) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "create <file>",
		Short:   "upload a photo, audio or video file",
		Aliases: []string{"upload"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, err := deps.mediaData().Create(ctx, publish.File{Filename: name, Data: data})
			if err != nil {
				return err
			}
			res, err := publish.NewMediaContent(deps.Store, deps.Publication).Upload(ctx, rec, data)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&name, "filename", "", "original filename to record (default the file's base name)")
	return cmd
}

func newMediaGetCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "print the stored record of a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, err := deps.mediaData().Read(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, rec)
		},
	}
}

func newMediaDeleteCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <url>",
		Short:   "delete a media file and its record",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := deps.backends(ctx); err != nil {
				return err
			}
			rec, err := deps.mediaData().Delete(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := publish.NewMediaContent(deps.Store, deps.Publication).Delete(ctx, rec)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
}
