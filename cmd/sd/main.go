package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/sutradhar/config"
)

func main() {
	root := &cli.Command{
		Name:  "sd",
		Usage: "Correlate agent event streams into hierarchical, replayable transcripts",
		Description: `
           _               _ _
  ___ _  _| |_ _ _ __ _ __| | |_  __ _ _ _
 (_-<| || |  _| '_/ _' / _' | ' \/ _' | '_|
 /__/ \_,_|\__|_| \__,_\__,_|_||_\__,_|_|

 The one who holds the strings: every agent, every sub-agent, one timeline.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "error",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config.yaml (default ~/.sutradhar/config.yaml)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)

			cfg, err := config.LoadConfig(cmd.String("config"))
			if err != nil {
				return ctx, err
			}
			return withConfig(ctx, cfg), nil
		},
		Commands: []*cli.Command{
			renderCmd(),
			watchCmd(),
			serveCmd(),
			convertCmd(),
			manifestCmd(),
			indexCmd(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
