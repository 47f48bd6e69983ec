package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/manifest"
	"github.com/sonnes/sutradhar/reader"
)

func manifestCmd() *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "Manage the session manifest",
		Commands: []*cli.Command{
			manifestUpsertCmd(),
			manifestRepairCmd(),
			manifestPruneCmd(),
		},
	}
}

func manifestUpsertCmd() *cli.Command {
	return &cli.Command{
		Name:  "upsert",
		Usage: "Add or update a session entry in the manifest",
		Description: `Replays a session log, extracts metadata, and upserts the entry
into the manifest file. Run after rendering a session page.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "agent",
				Aliases: []string{"a"},
				Usage:   "Log format: native or claude",
				Value:   "native",
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the session log",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"m"},
				Usage:    "Path to manifest.json",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "href",
				Usage:    "Relative link to the rendered transcript page",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := newApp(ctx)

			r, err := a.reader(cmd.String("agent"), readerOptions{})
			if err != nil {
				return err
			}

			l, err := r.ReadFile(cmd.String("file"))
			if err != nil {
				return fmt.Errorf("read session: %w", err)
			}

			t := a.replay(l)
			entry := core.NewManifestEntry(&t, cmd.String("href"))

			m, err := manifest.ReadFile(cmd.String("manifest"))
			if err != nil {
				return err
			}

			m.Upsert(entry)

			return m.WriteFile(cmd.String("manifest"))
		},
	}
}

func manifestRepairCmd() *cli.Command {
	return &cli.Command{
		Name:  "repair",
		Usage: "Rebuild manifest.json by scanning the export directory",
		Description: `Scans the export directory for session directories, replays their
logs, and rebuilds the manifest from scratch.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Path to the export directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "agent",
				Aliases: []string{"a"},
				Usage:   "Log format, selects the reader for session logs",
				Value:   "native",
			},
			&cli.StringFlag{
				Name:  "logs",
				Usage: "Override the log directory of the selected format",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := newApp(ctx)

			r, err := a.reader(cmd.String("agent"), readerOptions{Dir: cmd.String("logs")})
			if err != nil {
				return err
			}

			dir := cmd.String("dir")
			m, skipped, err := repairManifest(dir, r, a.replay)
			if err != nil {
				return err
			}

			if err := m.WriteFile(filepath.Join(dir, manifest.FileName)); err != nil {
				return err
			}

			fmt.Printf("Repaired manifest: %d entries (%d skipped)\n", len(m.Entries), skipped)
			return nil
		},
	}
}

func manifestPruneCmd() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Drop manifest entries whose rendered page no longer exists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Path to the export directory",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("dir")
			path := filepath.Join(dir, manifest.FileName)

			m, err := manifest.ReadFile(path)
			if err != nil {
				return err
			}

			removed := pruneManifest(dir, m)
			if len(removed) == 0 {
				return nil
			}
			if err := m.WriteFile(path); err != nil {
				return err
			}
			fmt.Printf("Pruned %d entries\n", len(removed))
			return nil
		},
	}
}

// repairManifest scans dir for session directories, replays their logs via
// the reader, and builds a new manifest. Returns the manifest, count of
// skipped sessions, and any fatal error.
func repairManifest(dir string, r reader.Reader, replay func(*core.EventLog) core.Transcript) (*manifest.Manifest, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("read export directory: %w", err)
	}

	m := &manifest.Manifest{}
	skipped := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == ".git" {
			continue
		}

		sessionID := name
		href := detectSessionHref(sessionID, filepath.Join(dir, name))
		if href == "" {
			skipped++
			continue
		}

		l, err := r.ReadSession(sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skip %s: %v\n", sessionID, err)
			skipped++
			continue
		}

		t := replay(l)
		m.Upsert(core.NewManifestEntry(&t, href))
	}

	return m, skipped, nil
}

// pruneManifest keeps only entries whose href resolves to a file under dir
// and returns the ids it dropped.
func pruneManifest(dir string, m *manifest.Manifest) []string {
	var keep []string
	for _, e := range m.Entries {
		if e.Href == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(e.Href))); err == nil {
			keep = append(keep, e.SessionID)
		}
	}
	return m.Keep(keep)
}

// detectSessionHref checks for index files in priority order and returns
// the relative href (e.g. "{sessionID}/index.html"), or empty string if none found.
func detectSessionHref(sessionID, sessionDir string) string {
	for _, ext := range []string{".html", ".json", ".jsonl"} {
		path := filepath.Join(sessionDir, "index"+ext)
		if _, err := os.Stat(path); err == nil {
			return sessionID + "/index" + ext
		}
	}
	return ""
}
