package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/montenegronyc/scoreboard/internal/sheets"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "fetch once, print the ranked entries and exit",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the snapshot as JSON"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			src, err := sheets.New(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			snap := src.Fetch(ctx)
			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(snap); err != nil {
					return err
				}
			} else {
				printSnapshot(os.Stdout, snap, cfg.UI.ScoreLabel)
			}
			if !snap.OK() {
				return cli.Exit(fmt.Sprintf("fetch %s: %s (%s)", src.Name(), snap.Err, snap.ErrKind), 2)
			}
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "validate the config and exit",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			src, err := sheets.New(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "config ok: source %s, columns %v, poll every %s\n",
				src.Name(), cfg.Schema.Columns, cfg.Poll.Interval)
			return nil
		},
	}
}

// printSnapshot writes one line per entry, leaders marked with a crown.
func printSnapshot(w io.Writer, snap types.Snapshot, label string) {
	p := message.NewPrinter(language.English)
	if !snap.OK() {
		p.Fprintf(w, "error: %s\n", snap.Err)
		return
	}
	for i, e := range snap.Entries {
		mark := fmt.Sprintf("%2d", i+1)
		if e.IsLeader {
			mark = " *"
		}
		p.Fprintf(w, "%s  %-20s %8d %s\n", mark, e.Name, e.Score, label)
	}
}
