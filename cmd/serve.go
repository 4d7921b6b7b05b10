package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kotoba-gateway/internal/config"
	"kotoba-gateway/internal/provider"
	providerfactory "kotoba-gateway/internal/provider/factory"
	"kotoba-gateway/internal/router"
	"kotoba-gateway/internal/server"
)

func newServeCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

Configuration is read from the optional YAML file, then overridden by the
environment (PORT, GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY,
LIBRETRANSLATE_URL, PROVIDER_TIMEOUT, ...) and finally by flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), cfgPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to YAML configuration file")
	cmd.Flags().Int("port", 0, "override server port from configuration")

	return cmd
}

func loadConfig(flags *pflag.FlagSet, cfgPath string) (config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return config.Config{}, err
		}
	}

	v := viper.New()
	if err := config.BindEnv(v); err != nil {
		return config.Config{}, err
	}
	if err := v.BindPFlag("server.port", flags.Lookup("port")); err != nil {
		return config.Config{}, fmt.Errorf("bind --port: %w", err)
	}

	return config.Overlay(v, cfg)
}

func serve(ctx context.Context, cfg config.Config) error {
	registry := provider.NewRegistry()
	if err := providerfactory.RegisterConfiguredProviders(cfg, registry); err != nil {
		return err
	}

	rt, err := router.New(cfg, registry, slog.Default())
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, rt)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
