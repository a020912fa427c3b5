package tracker

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultInfoConcurrency = 4

// Resolver discovers the public communities a bot's accounts moderate.
type Resolver struct {
	Platform Platform
	Log      *slog.Logger
	// Concurrency bounds parallel CommunityInfo fetches; zero means the
	// default of 4.
	Concurrency int
}

// Resolve fetches the moderated communities of every account, excludes
// personal namespaces (tracked separately), deduplicates, and sorts. When
// quick is true only names are resolved, skipping the per-community metadata
// fetches.
//
// An unreadable account (deleted, suspended) contributes an empty set and is
// excluded from the age computation; it never aborts the run.
func (r *Resolver) Resolve(ctx context.Context, bot string, accounts []string, quick bool) (*CommunitySet, error) {
	log := r.log().With("bot", bot)

	names := map[string]bool{}
	fullnames := map[string]bool{}
	personal := map[string]bool{}
	var oldest time.Time

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		refs, err := r.Platform.ModeratedCommunities(ctx, account)
		if err != nil {
			log.Warn("skipping unreadable account", "account", account, "err", err)
			continue
		}
		for _, ref := range refs {
			name := strings.ToLower(ref.Name)
			if strings.HasPrefix(name, PersonalNamespacePrefix) {
				personal[name] = true
				continue
			}
			names[name] = true
			if ref.Fullname != "" {
				fullnames[strings.ToLower(ref.Fullname)] = true
			}
		}

		created, err := r.Platform.AccountCreatedAt(ctx, account)
		if err != nil {
			log.Warn("could not read account age", "account", account, "err", err)
			continue
		}
		if oldest.IsZero() || created.Before(oldest) {
			oldest = created
		}
	}

	set := &CommunitySet{
		Names:                  sortedKeys(names),
		Fullnames:              sortedKeys(fullnames),
		PersonalNamespaces:     sortedKeys(personal),
		OldestAccountCreatedAt: oldest,
	}

	if !quick {
		infos, err := r.resolveInfos(ctx, set.Names)
		if err != nil {
			return nil, err
		}
		set.Infos = infos
	}

	log.Debug("resolved communities", "total", len(set.Names), "accounts", len(accounts), "personal", len(set.PersonalNamespaces))
	return set, nil
}

// resolveInfos fetches metadata for each community with bounded parallelism.
// Results keep the sorted order of names. A failed fetch degrades to a
// zero-valued info for that community rather than failing the bot.
func (r *Resolver) resolveInfos(ctx context.Context, names []string) ([]CommunityInfo, error) {
	infos := make([]CommunityInfo, len(names))

	eg, ctx := errgroup.WithContext(ctx)
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = defaultInfoConcurrency
	}
	eg.SetLimit(concurrency)

	for i, name := range names {
		i, name := i, name
		eg.Go(func() error {
			info, err := r.Platform.CommunityInfo(ctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.log().Warn("could not resolve community info", "community", name, "err", err)
				infos[i] = CommunityInfo{Name: name}
				return nil
			}
			info.Name = name
			infos[i] = *info
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

func (r *Resolver) log() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
