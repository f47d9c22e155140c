package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/genbridge/genbridge/internal/bridge"
	"github.com/genbridge/genbridge/internal/config"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the sync daemon and local API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend-url",
				Usage:   "Generation backend base URL",
				Sources: cli.EnvVars("GB_BACKEND_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if v := cmd.String("backend-url"); v != "" {
				cfg.Backend.URL = v
			}
			if v := cmd.String("log-level"); v != "" {
				cfg.Logging.Level = v
			}
			return bridge.Run(ctx, cfg)
		},
	}
}
