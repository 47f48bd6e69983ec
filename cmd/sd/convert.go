package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/sutradhar/reader/jsonl"
)

func convertCmd() *cli.Command {
	flags := sourceFlags("claude")
	flags = append(flags, &cli.StringFlag{
		Name:  "out",
		Usage: "Directory to write native logs to (default ~/.sutradhar/sessions)",
	})

	return &cli.Command{
		Name:  "convert",
		Usage: "Convert agent session logs into native event logs",
		Description: `Reads sessions with the selected reader and writes one
<session>.jsonl event log per session, ready for render, watch and serve.`,
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

			out := cmd.String("out")
			if out == "" {
				out = jsonl.DefaultDir()
			}
			for _, l := range logs {
				path, err := jsonl.WriteFile(out, l)
				if err != nil {
					return fmt.Errorf("write %s: %w", l.SessionID, err)
				}
				fmt.Println(path)
			}
			return nil
		},
	}
}
