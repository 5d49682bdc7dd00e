package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/thedittmer/podcast-skill/internal/config"
	"github.com/thedittmer/podcast-skill/internal/dialog"
	"github.com/thedittmer/podcast-skill/internal/feed"
	"github.com/thedittmer/podcast-skill/internal/logging"
	"github.com/thedittmer/podcast-skill/internal/server"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var hostFlag string

	ctx := newCommandContext(&configFlag, &hostFlag)

	rootCmd := &cobra.Command{
		Use:           "podcast-skill",
		Short:         "Voice-assistant podcast player",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Address of the running skill host (defaults to server.bind)")

	rootCmd.AddCommand(newServeCommand(ctx))
	for _, cmd := range newControlCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newLatestCommand(ctx))
	rootCmd.AddCommand(newFeedsCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

type commandContext struct {
	configFlag *string
	hostFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, hostFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, hostFlag: hostFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(c.configPath())
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) client() (*server.Client, error) {
	addr := ""
	if c.hostFlag != nil {
		addr = strings.TrimSpace(*c.hostFlag)
	}
	if addr == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		addr = cfg.Server.Bind
	}
	return server.NewClient(addr, nil), nil
}

func (c *commandContext) loader() (*feed.Loader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return feed.NewLoader(feed.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.FetchTimeout(),
		Retries:   cfg.FetchRetries,
	}, logger), nil
}

func loadDialogs(cfg *config.Config) (*dialog.Renderer, error) {
	if strings.TrimSpace(cfg.DialogFile) == "" {
		return dialog.Default(), nil
	}
	return dialog.LoadFile(cfg.DialogFile)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
