package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/genbridge/genbridge/internal/config"
	"github.com/genbridge/genbridge/internal/core/backend"
)

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Submit a one-shot generation request and print the job ID",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "negative", Usage: "Negative prompt"},
			&cli.IntFlag{Name: "width", Value: 512},
			&cli.IntFlag{Name: "height", Value: 512},
			&cli.IntFlag{Name: "steps", Value: 20},
			&cli.FloatFlag{Name: "cfg-scale", Value: 7},
			&cli.IntFlag{Name: "seed", Value: -1},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			prompt := cmd.Args().First()
			if prompt == "" {
				return fmt.Errorf("a prompt argument is required")
			}

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			client := backend.NewClient(cfg.Backend.URL)
			resp, err := client.Generate(ctx, backend.GenerateRequest{
				Prompt:         prompt,
				NegativePrompt: cmd.String("negative"),
				Width:          int(cmd.Int("width")),
				Height:         int(cmd.Int("height")),
				Steps:          int(cmd.Int("steps")),
				CfgScale:       cmd.Float("cfg-scale"),
				Seed:           int64(cmd.Int("seed")),
			})
			if err != nil {
				return err
			}
			fmt.Println(resp.JobID)
			return nil
		},
	}
}
