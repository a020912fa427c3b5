package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ModCache is the run-local moderator cache, shared by every bot in a run so a
// community moderated by two tracked bots is only fetched once. Entries are
// additive for the lifetime of the run. Safe for concurrent use.
type ModCache struct {
	mu   sync.Mutex
	mods map[string][]string
}

func NewModCache() *ModCache {
	return &ModCache{mods: map[string][]string{}}
}

func (c *ModCache) Get(name string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mods, ok := c.mods[name]
	return mods, ok
}

func (c *ModCache) Put(name string, mods []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mods[name] = mods
}

// Snapshot returns a copy of the cache contents for merging into the
// persisted ModeratorCache.
func (c *ModCache) Snapshot() ModeratorCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(ModeratorCache, len(c.mods))
	for name, mods := range c.mods {
		out[name] = append([]string(nil), mods...)
	}
	return out
}

func (c *ModCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mods)
}

// AggregateResult carries the accumulated statistics for one bot.
type AggregateResult struct {
	Subscribers      int64
	NSFWCount        int
	QuarantinedCount int
	// ModeratorCount is the size of the deduplicated union of moderator sets
	// across all of the bot's communities, never a sum of per-community
	// counts.
	ModeratorCount int
}

// Aggregator walks a bot's resolved communities and accumulates subscriber,
// NSFW/quarantine, and moderator statistics.
type Aggregator struct {
	Platform Platform
	Log      *slog.Logger
	// Persisted is the ModeratorCache loaded from the store; read-only during
	// the run.
	Persisted ModeratorCache
	// Local is the run-local cache shared across bots.
	Local *ModCache
	// UseCache enables reuse of persisted moderator lists.
	UseCache bool
}

// CacheSkip reports whether re-aggregation can be skipped entirely for a bot:
// the freshly resolved community count matches the previous snapshot's
// TotalCount + QuarantinedCount, i.e. no detectable change in scope. Note this
// deliberately does not detect subscriber or NSFW drift under an unchanged
// community count; that staleness policy is inherited and documented, not an
// oversight.
func CacheSkip(prev *BotSnapshot, resolvedCount int) bool {
	if prev == nil {
		return false
	}
	return resolvedCount == prev.TotalCount+prev.QuarantinedCount
}

// Aggregate processes the bot's communities (expected sorted by name) in
// order. Moderator resolution precedence per community: persisted cache (when
// UseCache), then the run-local cache, then a fresh fetch. A forbidden fresh
// fetch skips only that community's moderator contribution; its subscriber
// and flag counts still accumulate.
func (a *Aggregator) Aggregate(ctx context.Context, bot string, infos []CommunityInfo) (*AggregateResult, error) {
	log := a.log().With("bot", bot)
	res := &AggregateResult{}
	union := map[string]bool{}

	for i, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		communitiesResolved.Inc()
		log.Info("checking community", "community", info.Name,
			"progress", fmt.Sprintf("%d/%d", i+1, len(infos)))

		res.Subscribers += info.Subscribers
		if info.NSFW {
			res.NSFWCount++
		}
		if info.Quarantined {
			res.QuarantinedCount++
		}

		mods, ok := a.lookupModerators(ctx, log, info.Name)
		if !ok {
			continue
		}
		for _, mod := range mods {
			union[mod] = true
		}
	}

	res.ModeratorCount = len(union)
	log.Info("finished assessing bot", "subscribers", res.Subscribers, "moderators", res.ModeratorCount)
	return res, nil
}

func (a *Aggregator) lookupModerators(ctx context.Context, log *slog.Logger, name string) ([]string, bool) {
	if a.UseCache {
		if mods, ok := a.Persisted[name]; ok {
			modListLookups.WithLabelValues("persisted").Inc()
			log.Debug("moderator list loaded from persisted cache", "community", name)
			a.Local.Put(name, mods)
			return mods, true
		}
	}
	if mods, ok := a.Local.Get(name); ok {
		modListLookups.WithLabelValues("local").Inc()
		log.Debug("moderator list loaded from run-local cache", "community", name)
		return mods, true
	}

	mods, err := a.Platform.CommunityModerators(ctx, name)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			modListLookups.WithLabelValues("forbidden").Inc()
			log.Info("moderator list hidden, skipping", "community", name)
		} else {
			modListLookups.WithLabelValues("error").Inc()
			log.Warn("could not fetch moderator list", "community", name, "err", err)
		}
		return nil, false
	}
	modListLookups.WithLabelValues("fetch").Inc()
	a.Local.Put(name, mods)
	return mods, true
}

func (a *Aggregator) log() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}
