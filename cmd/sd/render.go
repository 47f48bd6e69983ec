package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/sutradhar/core"
)

func renderCmd() *cli.Command {
	flags := sourceFlags("native")
	flags = append(flags, &cli.StringFlag{
		Name:  "o",
		Usage: "Output format: terminal, html, json",
		Value: "terminal",
	})
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:  "render",
		Usage: "Replay a recorded session and print its transcript",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := newApp(ctx)

			r, err := a.sourceReader(cmd)
			if err != nil {
				return err
			}

			logs, err := readLogs(r, cmd)
			if err != nil {
				return err
			}

			pipeline, err := transformers(cmd, a.cfg)
			if err != nil {
				return err
			}

			rnd, err := a.renderer(cmd.String("o"))
			if err != nil {
				return err
			}

			for _, l := range logs {
				t := a.replay(l)
				if err := core.Chain(&t, pipeline...); err != nil {
					return fmt.Errorf("transform %s: %w", l.SessionID, err)
				}
				if err := rnd.Render(os.Stdout, &t); err != nil {
					return fmt.Errorf("render: %w", err)
				}
			}

			return nil
		},
	}
}
