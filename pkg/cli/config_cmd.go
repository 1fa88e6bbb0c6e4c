package cli

import (
	"context"
	"errors"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/pubkit/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var redactedKeys = []string{"secret_access_key", "access_key_id"}

// NewConfigCmd constructs the `config` command group.
func NewConfigCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "inspect the resolved configuration",
	}
	cmd.AddCommand(newConfigShowCmd(deps), newConfigWatchCmd(deps))
	return cmd
}

func newConfigShowCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "print the configuration after defaults and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *deps.Config
			cfg.Store.S3 = redact(cfg.Store.S3)
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(&cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newConfigWatchCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "validate the configuration file every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if deps.ConfigPath == "" {
				return errors.New("config watch needs --config")
			}
			lg := mylog.LoggerFromContext(ctx)
			err := config.Watch(ctx, deps.ConfigPath, func(cfg *config.Config, err error) {
				if err != nil {
					lg.Error("configuration invalid", "path", deps.ConfigPath, "err", err)
					return
				}
				lg.Info("configuration reloaded", "path", deps.ConfigPath,
					"index", cfg.Index.Type, "store", cfg.Store.Type)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func redact(section map[string]any) map[string]any {
	if section == nil {
		return nil
	}
	out := make(map[string]any, len(section))
	for k, v := range section {
		out[k] = v
	}
	for _, k := range redactedKeys {
		if v, ok := out[k]; ok && v != "" {
			out[k] = "********"
		}
	}
	return out
}
