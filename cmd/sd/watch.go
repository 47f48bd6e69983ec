package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/engine"
	"github.com/sonnes/sutradhar/reader/jsonl"
	"github.com/sonnes/sutradhar/render/terminal"
	"github.com/sonnes/sutradhar/watch"
)

func watchCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Directory of native session logs (default ~/.sutradhar/sessions)",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "Path to a native session log",
		},
		&cli.StringFlag{
			Name:  "session",
			Usage: "Session ID to follow",
		},
		&cli.DurationFlag{
			Name:  "poll",
			Usage: "Fallback polling interval",
			Value: 2 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "effects",
			Usage: "Log the presentation effects each live event requests",
		},
	}
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:  "watch",
		Usage: "Follow a session log live and print items as they arrive",
		Description: `Replays the log's backlog without side effects, then applies every
appended event in live mode. New items and newly resolved tool calls are
printed as they appear; with --effects the requested surface changes and
notifications are logged.`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := newApp(ctx)

			path, sessionID, err := logPath(cmd)
			if err != nil {
				return err
			}

			pipeline, err := transformers(cmd, a.cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.Default()
			eng := engine.New(
				engine.WithConfig(a.cfg),
				engine.WithLogger(logger.WithPrefix("engine")),
				engine.WithSessionID(sessionID),
			)
			follower := watch.NewFollower(path,
				watch.WithPollInterval(cmd.Duration("poll")),
				watch.WithLogger(logger.WithPrefix("watch")),
			)

			var backlog []core.Event
			if err := follower.Drain(func(ev core.Event) error {
				backlog = append(backlog, ev)
				return nil
			}); err != nil {
				return err
			}

			p := &livePrinter{w: os.Stdout, rnd: terminal.New(), transformers: pipeline}
			t := eng.Replay(sessionID, backlog)
			if err := p.header(&t); err != nil {
				return err
			}

			var dispatcher engine.Dispatcher = engine.DispatcherFunc(func(context.Context, engine.Effect) error { return nil })
			if cmd.Bool("effects") {
				dispatcher = engine.LogDispatcher{Logger: logger.WithPrefix("effect")}
			}

			return follower.Follow(ctx, func(ev core.Event) error {
				effects := eng.Apply(ev, engine.Live)
				if err := p.update(eng.Snapshot()); err != nil {
					return err
				}
				if err := engine.DispatchAll(ctx, dispatcher, effects); err != nil {
					logger.Warn("dispatch effects", "event", ev.ID, "err", err)
				}
				return nil
			})
		},
	}
}

// logPath resolves the native log to follow from --file or --session.
func logPath(cmd *cli.Command) (path, sessionID string, err error) {
	file, session := cmd.String("file"), cmd.String("session")
	switch {
	case file != "" && session != "":
		return "", "", fmt.Errorf("only one of --file or --session may be specified")
	case file != "":
		return file, jsonl.SessionID(file), nil
	case session != "":
		r := &jsonl.Reader{Dir: cmd.String("dir")}
		return r.Path(session), session, nil
	default:
		return "", "", fmt.Errorf("one of --file or --session is required")
	}
}

// livePrinter writes the items of successive snapshots to a terminal,
// printing each item once when it appears and again when its tool call
// resolves.
type livePrinter struct {
	w            io.Writer
	rnd          *terminal.Renderer
	transformers []core.Transformer
	seen         map[string]bool // item id -> resolved when last printed
}

// header prints the full transcript of the caught-up snapshot.
func (p *livePrinter) header(t *core.Transcript) error {
	if err := core.Chain(t, p.transformers...); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	p.seen = make(map[string]bool, len(t.Items))
	for _, item := range t.Items {
		p.seen[item.ID] = resolved(item)
	}
	return p.rnd.Render(p.w, t)
}

// update prints the items of t that are new or resolved since the last call.
func (p *livePrinter) update(t core.Transcript) error {
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	if err := core.Chain(&t, p.transformers...); err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	var changed []core.Item
	for _, item := range t.Items {
		was, ok := p.seen[item.ID]
		now := resolved(item)
		if ok && (was || !now) {
			continue
		}
		p.seen[item.ID] = now
		changed = append(changed, item)
	}
	if len(changed) == 0 {
		return nil
	}
	return p.rnd.RenderItems(p.w, changed)
}

func resolved(item core.Item) bool {
	return item.Action != nil && item.Action.Resolved
}
