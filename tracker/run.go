package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// ErrDeclined is returned by RunComprehensive when the confirmation gate
// refuses to proceed past the summary. It is a clean stop, not a failure.
var ErrDeclined = errors.New("run declined at confirmation gate")

// ConfirmFunc decides whether to continue from the quick summary into the
// comprehensive pass. A nil ConfirmFunc always proceeds (non-interactive use).
type ConfirmFunc func(ctx context.Context, summary []QuickSummary) (bool, error)

// QuickSummary is one row of the summary produced before (or instead of) the
// comprehensive pass.
type QuickSummary struct {
	Bot                string
	Communities        int
	Accounts           int
	PersonalNamespaces int
}

// Runner drives all tracked bots through resolution, diffing, and aggregation,
// and persists the resulting snapshot.
type Runner struct {
	Platform Platform
	Store    *Store
	Log      *slog.Logger
	// UseCache enables both the bot-level skip and moderator-list reuse.
	UseCache bool
	// Confirm gates the transition from summary to comprehensive pass.
	Confirm ConfirmFunc
	// ExportPath, when set, receives the JSON report after a comprehensive run.
	ExportPath string
	// Concurrency bounds parallel community metadata fetches.
	Concurrency int
}

// RunQuick resolves names only for every bot and returns summary rows. It
// never diffs, aggregates, or writes to the store.
func (r *Runner) RunQuick(ctx context.Context, bots map[string][]string) ([]QuickSummary, error) {
	resolver := &Resolver{Platform: r.Platform, Log: r.log(), Concurrency: r.Concurrency}

	summary := make([]QuickSummary, 0, len(bots))
	for _, bot := range sortedBotNames(bots) {
		set, err := resolver.Resolve(ctx, bot, bots[bot], true)
		if err != nil {
			return nil, err
		}
		summary = append(summary, QuickSummary{
			Bot:                bot,
			Communities:        len(set.Names),
			Accounts:           len(bots[bot]),
			PersonalNamespaces: len(set.PersonalNamespaces),
		})
	}
	return summary, nil
}

// RunComprehensive performs the full pass: resolve each bot's communities,
// skip unchanged bots when the cache allows it, diff the rest against the
// previous snapshot, aggregate statistics, then atomically persist the new
// snapshot and moderator cache and write the JSON export.
//
// Cancellation aborts before Save: a partially-processed run persists nothing.
func (r *Runner) RunComprehensive(ctx context.Context, bots map[string][]string) (map[string]BotSnapshot, []ChangeRecord, error) {
	log := r.log()

	prevBots, prevMods, err := r.Store.Load()
	if err != nil {
		return nil, nil, err
	}
	if r.UseCache {
		log.Info("utilizing cached data for quicker results")
	} else {
		log.Info("fetching fresh data for up-to-date results")
	}

	resolver := &Resolver{Platform: r.Platform, Log: log, Concurrency: r.Concurrency}
	differ := NewDiffer(r.Platform, log)
	local := NewModCache()
	agg := &Aggregator{
		Platform:  r.Platform,
		Log:       log,
		Persisted: prevMods,
		Local:     local,
		UseCache:  r.UseCache,
	}

	botNames := sortedBotNames(bots)
	log.Info("resolving moderated communities", "bots", len(botNames))

	sets := make(map[string]*CommunitySet, len(botNames))
	summary := make([]QuickSummary, 0, len(botNames))
	for _, bot := range botNames {
		set, err := resolver.Resolve(ctx, bot, bots[bot], false)
		if err != nil {
			return nil, nil, err
		}
		sets[bot] = set
		summary = append(summary, QuickSummary{
			Bot:                bot,
			Communities:        len(set.Names),
			Accounts:           len(bots[bot]),
			PersonalNamespaces: len(set.PersonalNamespaces),
		})
	}

	if r.Confirm != nil {
		ok, err := r.Confirm(ctx, summary)
		if err != nil {
			return nil, nil, fmt.Errorf("confirmation gate: %w", err)
		}
		if !ok {
			return nil, nil, ErrDeclined
		}
	}

	newBots := make(map[string]BotSnapshot, len(botNames))
	var changes []ChangeRecord
	for _, bot := range botNames {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		log.Info("assessing bot", "bot", bot)
		set := sets[bot]

		var prev *BotSnapshot
		if snap, ok := prevBots[bot]; ok {
			prev = &snap
		}

		if r.UseCache && CacheSkip(prev, len(set.Names)) {
			botsSkipped.Inc()
			newBots[bot] = *prev
			log.Info("loaded bot data from cache", "bot", bot,
				"subscribers", prev.Subscribers, "moderators", prev.ModeratorCount)
			continue
		}

		var oldNames []string
		if prev != nil {
			oldNames = prev.Communities
		}
		rec := differ.Diff(ctx, bot, set.Names, oldNames)
		if !rec.IsEmpty() {
			changes = append(changes, rec)
		}

		res, err := agg.Aggregate(ctx, bot, set.Infos)
		if err != nil {
			return nil, nil, err
		}

		newBots[bot] = BotSnapshot{
			Subscribers:        res.Subscribers,
			ModeratorCount:     res.ModeratorCount,
			Communities:        set.Names,
			PersonalNamespaces: set.PersonalNamespaces,
			TotalCount:         len(set.Names) - res.QuarantinedCount,
			QuarantinedCount:   res.QuarantinedCount,
			NSFWCount:          res.NSFWCount,
			OldestAccount:      set.OldestAccountCreatedAt,
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Merge: untouched persisted entries survive, fresh fetches win. The
	// merged cache never shrinks within a run.
	merged := make(ModeratorCache, len(prevMods))
	for name, mods := range prevMods {
		merged[name] = mods
	}
	for name, mods := range local.Snapshot() {
		merged[name] = mods
	}

	if err := r.Store.Save(newBots, merged); err != nil {
		return nil, nil, fmt.Errorf("persisting snapshot: %w", err)
	}
	if r.ExportPath != "" {
		if err := r.Store.ExportReport(r.ExportPath, newBots); err != nil {
			return nil, nil, fmt.Errorf("writing report export: %w", err)
		}
	}

	return newBots, changes, nil
}

func (r *Runner) log() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

func sortedBotNames(bots map[string][]string) []string {
	names := make([]string, 0, len(bots))
	for name := range bots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
