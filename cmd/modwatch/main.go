// modwatch tracks a curated set of moderator bots across Reddit, reporting
// how each bot's moderation footprint changes between runs.
package main

import (
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "modwatch",
		Usage:   "moderator bot footprint tracker",
		Version: versioninfo.Short(),
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"MODWATCH_LOG_LEVEL"},
		},
	}
	app.Before = func(cctx *cli.Context) error {
		return configLogger(cctx, os.Stderr)
	}
	app.Commands = []*cli.Command{
		cmdRun,
		cmdLogin,
		cmdLogout,
	}
	return app.Run(args)
}

func configLogger(cctx *cli.Context, writer *os.File) error {
	var level slog.Level
	switch cctx.String("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level: %s", cctx.String("log-level"))
	}
	logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
