package cli

import (
	"context"
	"io"
	"os"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/pubkit/pkg/config"
	"github.com/jlrickert/pubkit/pkg/preset"
	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/spf13/cobra"
)

// Deps carries flag values and the resolved runtime shared by all commands.
// Tests may preset Config, Index, Store or Options before Execute; anything
// left nil is built from the loaded configuration.
type Deps struct {
	ConfigPath string
	LogFile    string
	LogLevel   string
	LogJSON    bool

	Config  *config.Config
	Index   *config.Index
	Store   publish.FileStore
	Options []publish.Option

	App         publish.Application
	Publication *publish.Publication
	Preset      preset.Preset

	logCloser  io.Closer
	ownedIndex bool
}

// NewRootCmd builds the root cobra command, wires persistent flags and
// installs the subcommands.
func NewRootCmd(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	cmd := &cobra.Command{
		Use:           "pubkit",
		Short:         "publish posts and media to a website's content store",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if deps.Config == nil {
				cfg, err := config.Load(deps.ConfigPath)
				if err != nil {
					return err
				}
				deps.Config = cfg
			}

			return deps.installLogger(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return deps.close()
		},
	}

	cmd.PersistentFlags().StringVar(&deps.LogFile, "log-file", "", "write logs to file (default stderr)")
	cmd.PersistentFlags().StringVar(&deps.LogLevel, "log-level", "info", "minimum log level")
	cmd.PersistentFlags().BoolVar(&deps.LogJSON, "log-json", false, "output logs as JSON")
	cmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", "", "path to config file")

	cmd.AddCommand(
		NewPostCmd(deps),
		NewMediaCmd(deps),
		NewWatchCmd(deps),
		NewConfigCmd(deps),
	)

	return cmd
}

// installLogger applies the logging flags over the configured logging
// section and stores the logger on the command context.
func (d *Deps) installLogger(cmd *cobra.Command) error {
	level := d.Config.Logging.Level
	if cmd.Flags().Changed("log-level") || level == "" {
		level = d.LogLevel
	}
	asJSON := d.Config.Logging.JSON || d.LogJSON
	file := d.LogFile
	if file == "" {
		file = d.Config.Logging.File
	}

	out := cmd.ErrOrStderr()
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		d.logCloser = f
		out = f
	}
	d.LogLevel = level
	lg := mylog.NewLogger(mylog.LoggerConfig{
		Out:     out,
		Level:   mylog.ParseLevel(level),
		JSON:    asJSON,
		Version: Version,
	})
	cmd.SetContext(mylog.WithLogger(cmd.Context(), lg))
	return nil
}

// backends opens the record and file stores and resolves the publication.
// Commands that touch content call it before doing any work.
func (d *Deps) backends(ctx context.Context) error {
	if d.Publication != nil {
		return nil
	}
	if d.Index == nil {
		idx, err := config.OpenIndex(ctx, d.Config)
		if err != nil {
			return err
		}
		d.Index = idx
		d.ownedIndex = true
	}
	if d.Store == nil {
		store, err := config.OpenFileStore(ctx, d.Config)
		if err != nil {
			return err
		}
		d.Store = store
	}
	pub, p, err := config.Publication(d.Config)
	if err != nil {
		return err
	}
	d.Publication = pub
	d.Preset = p
	d.App = config.Application(d.Config, d.Index)
	return nil
}

func (d *Deps) postData() *publish.PostData {
	return publish.NewPostData(d.App, d.Publication, d.Options...)
}

func (d *Deps) mediaData() *publish.MediaData {
	return publish.NewMediaData(d.App, d.Publication, d.Options...)
}

func (d *Deps) close() error {
	var err error
	if d.ownedIndex {
		err = d.Index.Close()
		d.ownedIndex = false
	}
	if d.logCloser != nil {
		if cerr := d.logCloser.Close(); err == nil {
			err = cerr
		}
		d.logCloser = nil
	}
	return err
}
