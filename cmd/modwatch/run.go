package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/urfave/cli/v2"

	"github.com/modwatch/modwatch/redapi"
	"github.com/modwatch/modwatch/tracker"
)

var cmdRun = &cli.Command{
	Name:  "run",
	Usage: "compare tracked bots against the previous snapshot",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "quick",
			Usage: "summary-only run: resolve names, print a table, skip diffing and persistence",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "ignore cached data and refetch everything",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "skip the interactive confirmation gate",
		},
		&cli.StringFlag{
			Name:    "bots-file",
			Usage:   "local YAML bot registry; when unset the registry is fetched from the wiki",
			EnvVars: []string{"MODWATCH_BOTS_FILE"},
		},
		&cli.StringFlag{
			Name:    "wiki-subreddit",
			Usage:   "subreddit hosting the remote bot registry wiki page",
			EnvVars: []string{"MODWATCH_WIKI_SUBREDDIT"},
		},
		&cli.StringFlag{
			Name:    "wiki-page",
			Usage:   "wiki page name of the remote bot registry",
			Value:   "moderator_bots",
			EnvVars: []string{"MODWATCH_WIKI_PAGE"},
		},
		&cli.StringFlag{
			Name:    "snapshot-file",
			Usage:   "path of the persisted snapshot (defaults to the XDG state dir)",
			EnvVars: []string{"MODWATCH_SNAPSHOT_FILE"},
		},
		&cli.StringFlag{
			Name:    "export-file",
			Usage:   "path of the JSON report written after a comprehensive run (defaults to the XDG state dir)",
			EnvVars: []string{"MODWATCH_EXPORT_FILE"},
		},
		&cli.Float64Flag{
			Name:    "limit-qps",
			Usage:   "client-side API request rate limit",
			Value:   redapi.DefaultQPS,
			EnvVars: []string{"MODWATCH_LIMIT_QPS"},
		},
	},
	Action: runTracker,
}

func runTracker(cctx *cli.Context) error {
	log := slog.Default()

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := redapi.LoadAuthClient(ctx, cctx.Float64("limit-qps"))
	if err != nil {
		if errors.Is(err, redapi.ErrNoAuthSession) {
			return fmt.Errorf("not logged in; run `modwatch login` first")
		}
		return err
	}

	bots, err := loadRegistry(ctx, cctx, client)
	if err != nil {
		return err
	}
	log.Info("loaded bot registry", "bots", len(bots))

	store, err := tracker.NewStore(cctx.String("snapshot-file"))
	if err != nil {
		return err
	}

	exportPath := cctx.String("export-file")
	if exportPath == "" {
		exportPath, err = xdg.StateFile("modwatch/output.json")
		if err != nil {
			return err
		}
	}

	runner := &tracker.Runner{
		Platform:   &tracker.RedditPlatform{Client: client},
		Store:      store,
		Log:        log,
		UseCache:   !cctx.Bool("no-cache"),
		ExportPath: exportPath,
	}

	if cctx.Bool("quick") {
		summary, err := runner.RunQuick(ctx, bots)
		if err != nil {
			return interruptAware(log, err)
		}
		fmt.Println(renderQuickSummary(summary))
		return nil
	}

	if !cctx.Bool("yes") {
		runner.Confirm = promptConfirm
	}

	snapshots, changes, err := runner.RunComprehensive(ctx, bots)
	if err != nil {
		if errors.Is(err, tracker.ErrDeclined) {
			return nil
		}
		return interruptAware(log, err)
	}

	if len(changes) > 0 {
		fmt.Println(renderChanges(changes))
	}
	fmt.Println(renderFinalTable(snapshots))
	return nil
}

func loadRegistry(ctx context.Context, cctx *cli.Context, client *redapi.Client) (map[string][]string, error) {
	if path := cctx.String("bots-file"); path != "" {
		return tracker.LoadBots(path)
	}
	sub := cctx.String("wiki-subreddit")
	if sub == "" {
		return nil, fmt.Errorf("either --bots-file or --wiki-subreddit is required")
	}
	return tracker.FetchBots(ctx, client, sub, cctx.String("wiki-page"))
}

// promptConfirm renders the quick summary and asks on stdin whether to
// continue into the comprehensive pass.
func promptConfirm(ctx context.Context, summary []tracker.QuickSummary) (bool, error) {
	fmt.Println(renderQuickSummary(summary))
	fmt.Print("\n> Fetch more information? y/n: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// interruptAware downgrades a cancellation to a clean logged exit; nothing was
// persisted.
func interruptAware(log *slog.Logger, err error) error {
	if errors.Is(err, context.Canceled) {
		log.Info("manual shutdown, nothing persisted")
		return nil
	}
	return err
}
