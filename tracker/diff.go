package tracker

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Differ computes set differences between the freshly resolved community
// names and the previous snapshot's, and classifies removals by probing the
// community's current visibility.
type Differ struct {
	platform Platform
	log      *slog.Logger

	// run-local memo so the same removed community is only probed once even
	// when several of a bot's accounts (or several bots) shared it
	visCache *expirable.LRU[string, Visibility]
}

func NewDiffer(platform Platform, log *slog.Logger) *Differ {
	if log == nil {
		log = slog.Default()
	}
	return &Differ{
		platform: platform,
		log:      log,
		visCache: expirable.NewLRU[string, Visibility](1024, nil, 30*time.Minute),
	}
}

// Diff returns the additions and removals between oldNames and newNames for
// one bot. Every removed community gets a reason: a forbidden visibility probe
// means it went private, not-found means banned, and anything else (including
// a community that still resolves, e.g. after a rename) degrades to unknown.
// Classification never fails the run. Both input slices are expected to be
// lowercase; output ordering is sorted for deterministic reports.
func (d *Differ) Diff(ctx context.Context, bot string, newNames, oldNames []string) ChangeRecord {
	oldSet := make(map[string]bool, len(oldNames))
	for _, name := range oldNames {
		oldSet[name] = true
	}
	newSet := make(map[string]bool, len(newNames))
	for _, name := range newNames {
		newSet[name] = true
	}

	rec := ChangeRecord{Bot: bot, RemovalReasons: map[string]RemovalReason{}}
	for _, name := range newNames {
		if !oldSet[name] {
			rec.Added = append(rec.Added, name)
		}
	}
	for _, name := range oldNames {
		if !newSet[name] {
			rec.Removed = append(rec.Removed, name)
		}
	}
	sort.Strings(rec.Added)
	sort.Strings(rec.Removed)

	for _, name := range rec.Removed {
		rec.RemovalReasons[name] = d.classify(ctx, name)
	}
	return rec
}

func (d *Differ) classify(ctx context.Context, name string) RemovalReason {
	vis, ok := d.visCache.Get(name)
	if !ok {
		var err error
		vis, err = d.platform.CommunityVisibility(ctx, name)
		if err != nil {
			d.log.Warn("could not classify removed community", "community", name, "err", err)
			return RemovalUnknown
		}
		d.visCache.Add(name, vis)
	}

	switch vis {
	case VisibilityForbidden:
		return RemovalPrivate
	case VisibilityNotFound:
		return RemovalBanned
	default:
		return RemovalUnknown
	}
}
