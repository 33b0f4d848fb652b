// Command scoreboard serves a live team scoreboard fed by a spreadsheet.
//
// Usage:
//
//	scoreboard [--config config.yaml] [serve]
//	scoreboard fetch     # one fetch, print the ranked entries, exit
//	scoreboard check     # validate the config and exit
package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/montenegronyc/scoreboard/internal/config"
)

// logLevel is shared by the default handler so config reloads can change it.
var logLevel = new(slog.LevelVar)

func main() {
	app := &cli.App{
		Name:  "scoreboard",
		Usage: "live team scoreboard backed by a spreadsheet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to config file",
				EnvVars: []string{"SCOREBOARD_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before the config; missing is fine",
			},
		},
		Before: func(c *cli.Context) error {
			if err := godotenv.Load(c.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return cli.Exit("load "+c.String("env-file")+": "+err.Error(), 1)
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			fetchCommand(),
			checkCommand(),
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("scoreboard failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig loads the config named by --config and installs the logger it asks for.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))
	return cfg, nil
}

// newLogger builds the process logger. The level lives in logLevel so a
// reload can adjust it without replacing the handler.
func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	logLevel.Set(parseLevel(lc.Level))
	opts := &slog.HandlerOptions{Level: logLevel}
	if lc.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
