package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/sutradhar/server"
)

func serveCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Directory of native session logs (default ~/.sutradhar/sessions)",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Host to bind",
			Value: "127.0.0.1",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "Port to listen on",
			Value: 8080,
		},
		&cli.DurationFlag{
			Name:  "poll",
			Usage: "Fallback polling interval for live feeds",
			Value: 2 * time.Second,
		},
	}
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve sessions for browsing in a local web UI",
		Description: `Lists every native session log in --dir, renders each session on
request and streams snapshots of a growing log over a websocket feed.`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := newApp(ctx)

			pipeline, err := transformers(cmd, a.cfg)
			if err != nil {
				return err
			}

			logger := log.Default()
			srv := server.New(server.Options{
				Host:         cmd.String("host"),
				Port:         int(cmd.Int("port")),
				Dir:          cmd.String("dir"),
				Config:       a.cfg,
				Logger:       logger.WithPrefix("server"),
				PollInterval: cmd.Duration("poll"),
				Transformers: pipeline,
			})
			if err := srv.Start(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Serving sessions at %s\n", srv.URL())

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
