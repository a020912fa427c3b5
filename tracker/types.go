// Package tracker implements the snapshot-diff-and-cache engine behind the
// modwatch CLI: it resolves the communities each tracked bot moderates,
// compares the result against the previous run's snapshot, classifies
// removals, and aggregates per-bot statistics while reusing cached moderator
// lists to avoid redundant fetches.
package tracker

import (
	"context"
	"errors"
	"time"
)

// PersonalNamespacePrefix marks communities automatically tied to a single
// account (user profile subreddits). They are tracked but excluded from
// moderation-footprint statistics.
const PersonalNamespacePrefix = "u_"

var (
	// ErrForbidden signals the platform refused access to a resource (private
	// community, hidden moderator list).
	ErrForbidden = errors.New("access forbidden")

	// ErrNotFound signals the resource does not exist (banned or deleted).
	ErrNotFound = errors.New("not found")
)

// Visibility is the current public state of a community.
type Visibility int

const (
	VisibilityUnknown Visibility = iota
	VisibilityVisible
	VisibilityForbidden
	VisibilityNotFound
)

// CommunityRef is a lightweight handle from a moderated-communities listing.
type CommunityRef struct {
	Name     string
	Fullname string
}

// CommunityInfo is resolved community metadata. Subscribers defaults to zero
// when the platform reports no count.
type CommunityInfo struct {
	Name        string
	Subscribers int64
	NSFW        bool
	Quarantined bool
}

// Platform is the boundary to the remote service. Implementations map their
// transport errors to ErrForbidden / ErrNotFound (or Visibility values) so the
// engine never depends on a particular client's error types.
type Platform interface {
	// ModeratedCommunities lists the communities an account moderates,
	// including personal namespaces.
	ModeratedCommunities(ctx context.Context, accountID string) ([]CommunityRef, error)

	// CommunityInfo resolves metadata for a single community.
	CommunityInfo(ctx context.Context, name string) (*CommunityInfo, error)

	// CommunityModerators lists moderator account ids. Returns an error
	// wrapping ErrForbidden when the list is hidden.
	CommunityModerators(ctx context.Context, name string) ([]string, error)

	// CommunityVisibility probes whether a community is publicly visible.
	// Forbidden and NotFound outcomes are values, not errors; the error is
	// reserved for transport-level failures.
	CommunityVisibility(ctx context.Context, name string) (Visibility, error)

	// AccountCreatedAt fetches an account's creation time.
	AccountCreatedAt(ctx context.Context, accountID string) (time.Time, error)
}

// CommunitySet is the freshly resolved moderation footprint of one bot.
// All name slices are lowercase, deduplicated and sorted; the set is not
// mutated after Resolve returns it.
type CommunitySet struct {
	// Names are the public communities, personal namespaces excluded.
	Names     []string
	Fullnames []string
	// PersonalNamespaces are the excluded profile communities.
	PersonalNamespaces []string
	// OldestAccountCreatedAt is the minimum creation time over the bot's
	// readable accounts; zero if none could be read.
	OldestAccountCreatedAt time.Time
	// Infos holds resolved metadata for Names, in the same order. Nil when
	// the set was resolved in quick mode.
	Infos []CommunityInfo
}

// BotSnapshot is the persisted per-bot summary, the unit compared across runs.
type BotSnapshot struct {
	Subscribers        int64     `json:"subscribers"`
	ModeratorCount     int       `json:"moderators"`
	Communities        []string  `json:"communities"`
	PersonalNamespaces []string  `json:"personal_namespaces"`
	// TotalCount is the number of active communities: len(Communities) minus
	// the quarantined ones.
	TotalCount       int       `json:"total_count"`
	QuarantinedCount int       `json:"quarantined_count"`
	NSFWCount        int       `json:"nsfw_count"`
	OldestAccount    time.Time `json:"oldest_account_created_at"`
}

// ModeratorCache maps community name to its last-known moderator list. It is
// shared across bots and runs, and only ever grows within a run.
type ModeratorCache map[string][]string

// RemovalReason classifies why a community left a bot's moderation set.
type RemovalReason string

const (
	RemovalPrivate RemovalReason = "private"
	RemovalBanned  RemovalReason = "banned"
	RemovalUnknown RemovalReason = "unknown"
)

// ChangeRecord describes the footprint changes for one bot between runs.
type ChangeRecord struct {
	Bot            string
	Added          []string
	Removed        []string
	RemovalReasons map[string]RemovalReason
}

// IsEmpty reports whether the record carries no changes.
func (cr *ChangeRecord) IsEmpty() bool {
	return len(cr.Added) == 0 && len(cr.Removed) == 0
}
