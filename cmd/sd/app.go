package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/sutradhar/compact"
	"github.com/sonnes/sutradhar/config"
	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/engine"
	"github.com/sonnes/sutradhar/reader"
	"github.com/sonnes/sutradhar/reader/claude"
	"github.com/sonnes/sutradhar/reader/jsonl"
	"github.com/sonnes/sutradhar/redact"
	"github.com/sonnes/sutradhar/render"
	htmlrender "github.com/sonnes/sutradhar/render/html"
	jsonrender "github.com/sonnes/sutradhar/render/json"
	"github.com/sonnes/sutradhar/render/terminal"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the config loaded by the root command, or defaults.
func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}
	return config.DefaultConfig()
}

// readerOptions are the settings a reader is constructed with.
type readerOptions struct {
	Dir        string
	Sidechains bool
}

// app holds reader and renderer registries used by CLI commands.
type app struct {
	cfg       *config.Config
	readers   map[string]func(readerOptions) reader.Reader
	renderers map[string]func() render.Renderer
}

func newApp(ctx context.Context) *app {
	return &app{
		cfg: configFrom(ctx),
		readers: map[string]func(readerOptions) reader.Reader{
			"native": func(o readerOptions) reader.Reader {
				return &jsonl.Reader{Dir: o.Dir}
			},
			"claude": func(o readerOptions) reader.Reader {
				return &claude.Reader{Dir: o.Dir, Sidechains: o.Sidechains}
			},
		},
		renderers: map[string]func() render.Renderer{
			"terminal": func() render.Renderer { return terminal.New() },
			"html":     func() render.Renderer { return htmlrender.New() },
			"json":     func() render.Renderer { return &jsonrender.Renderer{Indent: true} },
		},
	}
}

func (a *app) reader(name string, opts readerOptions) (reader.Reader, error) {
	fn, ok := a.readers[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q", name)
	}
	return fn(opts), nil
}

// sourceReader builds the reader selected by sourceFlags.
func (a *app) sourceReader(cmd *cli.Command) (reader.Reader, error) {
	return a.reader(cmd.String("agent"), readerOptions{
		Dir:        cmd.String("dir"),
		Sidechains: cmd.Bool("sidechains"),
	})
}

func (a *app) renderer(name string) (render.Renderer, error) {
	fn, ok := a.renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return fn(), nil
}

// replay rebuilds the transcript of a recorded log with a fresh engine.
func (a *app) replay(l *core.EventLog) core.Transcript {
	eng := engine.New(
		engine.WithConfig(a.cfg),
		engine.WithLogger(log.Default().WithPrefix("engine")),
		engine.WithSessionID(l.SessionID),
	)
	return eng.Replay(l.SessionID, l.Events)
}

// projectReader is implemented by readers that group sessions by project.
type projectReader interface {
	ReadProject(project string) ([]*core.EventLog, error)
}

// readLogs dispatches to the appropriate Reader method based on CLI flags.
// Exactly one of --file, --session, --project, or --all must be set.
func readLogs(r reader.Reader, cmd *cli.Command) ([]*core.EventLog, error) {
	file := cmd.String("file")
	session := cmd.String("session")
	project := cmd.String("project")
	all := cmd.Bool("all")

	n := 0
	for _, set := range []bool{file != "", session != "", project != "", all} {
		if set {
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("one of --file, --session, --project, or --all is required")
	}
	if n > 1 {
		return nil, fmt.Errorf("only one of --file, --session, --project, or --all may be specified")
	}

	switch {
	case file != "":
		l, err := r.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return []*core.EventLog{l}, nil
	case session != "":
		l, err := r.ReadSession(session)
		if err != nil {
			return nil, err
		}
		return []*core.EventLog{l}, nil
	case project != "":
		pr, ok := r.(projectReader)
		if !ok {
			return nil, fmt.Errorf("agent %q does not group sessions by project", cmd.String("agent"))
		}
		abs, err := filepath.Abs(project)
		if err != nil {
			return nil, err
		}
		return pr.ReadProject(cwdToProject(abs))
	default:
		return r.ReadAll()
	}
}

// cwdToProject converts an absolute path to Claude's project directory name.
// Claude uses the path with "/" replaced by "-", e.g. "/Users/foo/bar" → "-Users-foo-bar".
func cwdToProject(cwd string) string {
	return strings.ReplaceAll(cwd, "/", "-")
}

// transformers builds the snapshot pipeline from CLI flags: redaction first,
// then compaction.
func transformers(cmd *cli.Command, cfg *config.Config) ([]core.Transformer, error) {
	var out []core.Transformer

	redactor, err := newRedactor(cmd, cfg.Redact)
	if err != nil {
		return nil, err
	}
	if redactor != nil {
		out = append(out, redactor)
	}

	switch v := cmd.String("compact"); v {
	case "":
	case "yes", "true":
		out = append(out, compact.New(compact.Config{}))
	case "no-thinking":
		out = append(out, compact.New(compact.Config{StripThinking: true}))
	default:
		return nil, fmt.Errorf("unknown compact mode %q", v)
	}
	return out, nil
}

// newRedactor builds a Redactor from CLI flags and the config's redact
// section. Returns nil when --no-redact is set. Without --redact the config
// decides; a config enabling nothing falls back to every rule.
func newRedactor(cmd *cli.Command, settings config.Redact) (*redact.Redactor, error) {
	if cmd.Bool("no-redact") {
		return nil, nil
	}

	cfg := redact.FromSettings(settings)
	rules := cmd.StringSlice("redact")

	if len(rules) == 0 {
		if !cfg.Secrets && !cfg.PII {
			cfg.Secrets = true
			cfg.PII = true
		}
	} else {
		cfg.Secrets, cfg.PII = false, false
		for _, r := range rules {
			switch r {
			case "secrets":
				cfg.Secrets = true
			case "pii":
				cfg.PII = true
			default:
				return nil, fmt.Errorf("unknown redaction rule %q", r)
			}
		}
	}

	return redact.New(cfg), nil
}

// sourceFlags are the flags that select which logs a command reads.
func sourceFlags(defaultAgent string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "agent",
			Aliases: []string{"a"},
			Usage:   "Log format: native (sutradhar event logs) or claude (Claude Code sessions)",
			Value:   defaultAgent,
		},
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Override the log directory of the selected format",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "Path to a session file",
		},
		&cli.StringFlag{
			Name:  "session",
			Usage: "Session ID to read",
		},
		&cli.StringFlag{
			Name:  "project",
			Usage: "Project path (claude only, reads every session in the project)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Read all sessions",
		},
		&cli.BoolFlag{
			Name:  "sidechains",
			Usage: "Keep sub-agent entries logged inline in Claude Code sessions",
		},
	}
}

// transformFlags are the flags that shape snapshots before output.
func transformFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-redact",
			Usage: "Disable redaction of secrets and PII",
		},
		&cli.StringSliceFlag{
			Name:  "redact",
			Usage: "Allowlist of rules to redact. Example: --redact=secrets,pii",
		},
		&cli.StringFlag{
			Name:  "compact",
			Usage: "Enable compact mode (--compact=yes). Use --compact=no-thinking to also strip thinking items",
		},
	}
}
