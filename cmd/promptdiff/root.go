package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/example/go-promptdiff/internal/compare"
	"github.com/example/go-promptdiff/internal/config"
	"github.com/example/go-promptdiff/internal/render"
	"github.com/example/go-promptdiff/internal/report"
	"github.com/example/go-promptdiff/internal/server"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "promptdiff",
		Short:         "Word-level diff of two prompt outputs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Server.ListenAddr == "" {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

func newService(cfg config.Config) *compare.Service {
	return compare.New(compare.Options{
		MaxTokens: cfg.Diff.MaxTokens,
		Workers:   cfg.Server.Workers,
		Verify:    cfg.Diff.Verify,
		Logger:    slog.Default(),
	})
}

func outputSettings(cfg config.Config) (report.Format, render.Style, error) {
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return "", "", err
	}
	style, err := render.ParseStyle(cfg.Output.Style)
	if err != nil {
		return "", "", err
	}
	return format, style, nil
}
