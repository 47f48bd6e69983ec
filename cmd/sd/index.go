package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/sutradhar/manifest"
	htmlrender "github.com/sonnes/sutradhar/render/html"
)

func indexCmd() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Generate an index page from the manifest",
		Description: `Reads manifest.json from the given directory and writes index.html
alongside it, listing every exported session newest first.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Directory containing manifest.json (writes index.html there)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("dir")

			m, err := manifest.ReadFile(filepath.Join(dir, manifest.FileName))
			if err != nil {
				return err
			}

			if len(m.Entries) == 0 {
				return nil
			}

			outPath := filepath.Join(dir, "index.html")
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			defer f.Close()

			return htmlrender.New().RenderIndex(f, m.Entries)
		},
	}
}
