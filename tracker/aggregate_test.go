package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateModeratorUnion(t *testing.T) {
	fake := newFakePlatform()
	fake.addCommunity(CommunityInfo{Name: "first"}, "m1", "m2")
	fake.addCommunity(CommunityInfo{Name: "second"}, "m2", "m3")

	a := &Aggregator{Platform: fake, Local: NewModCache()}
	res, err := a.Aggregate(context.Background(), "somebot", []CommunityInfo{
		{Name: "first"}, {Name: "second"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.ModeratorCount, "union must dedupe, not sum")
}

func TestAggregateCounters(t *testing.T) {
	fake := newFakePlatform()
	infos := []CommunityInfo{
		{Name: "plain", Subscribers: 100},
		{Name: "spicy", Subscribers: 50, NSFW: true},
		{Name: "walled", Subscribers: 7, NSFW: true, Quarantined: true},
	}
	for _, info := range infos {
		fake.addCommunity(info, "mod")
	}

	a := &Aggregator{Platform: fake, Local: NewModCache()}
	res, err := a.Aggregate(context.Background(), "somebot", infos)
	require.NoError(t, err)

	assert.Equal(t, int64(157), res.Subscribers)
	assert.Equal(t, 2, res.NSFWCount)
	assert.Equal(t, 1, res.QuarantinedCount)
}

func TestAggregatePartialFailureContainment(t *testing.T) {
	fake := newFakePlatform()
	fake.addCommunity(CommunityInfo{Name: "open", Subscribers: 10}, "m1")
	fake.infos["hidden"] = CommunityInfo{Name: "hidden", Subscribers: 5, NSFW: true}
	fake.modErr["hidden"] = ErrForbidden

	a := &Aggregator{Platform: fake, Local: NewModCache()}
	res, err := a.Aggregate(context.Background(), "somebot", []CommunityInfo{
		{Name: "hidden", Subscribers: 5, NSFW: true},
		{Name: "open", Subscribers: 10},
	})
	require.NoError(t, err)

	// the hidden moderator list is skipped, everything else still counts
	assert.Equal(t, 1, res.ModeratorCount)
	assert.Equal(t, int64(15), res.Subscribers)
	assert.Equal(t, 1, res.NSFWCount)
}

func TestAggregatePersistedCachePrecedence(t *testing.T) {
	fake := newFakePlatform()
	fake.addCommunity(CommunityInfo{Name: "somewhere"}, "freshmod")

	local := NewModCache()
	a := &Aggregator{
		Platform:  fake,
		Persisted: ModeratorCache{"somewhere": {"cachedmod1", "cachedmod2"}},
		Local:     local,
		UseCache:  true,
	}
	res, err := a.Aggregate(context.Background(), "somebot", []CommunityInfo{{Name: "somewhere"}})
	require.NoError(t, err)

	assert.Equal(t, 2, res.ModeratorCount)
	_, mod, _ := fake.counts()
	assert.Zero(t, mod, "persisted cache hit must not fetch")

	// the persisted entry is now available run-locally as well
	mods, ok := local.Get("somewhere")
	assert.True(t, ok)
	assert.Equal(t, []string{"cachedmod1", "cachedmod2"}, mods)
}

func TestAggregateLocalCacheSharedAcrossBots(t *testing.T) {
	fake := newFakePlatform()
	fake.addCommunity(CommunityInfo{Name: "shared"}, "m1")

	local := NewModCache()
	a := &Aggregator{Platform: fake, Local: local}

	_, err := a.Aggregate(context.Background(), "bot1", []CommunityInfo{{Name: "shared"}})
	require.NoError(t, err)
	_, err = a.Aggregate(context.Background(), "bot2", []CommunityInfo{{Name: "shared"}})
	require.NoError(t, err)

	_, mod, _ := fake.counts()
	assert.Equal(t, 1, mod, "second bot must reuse the run-local entry")
}

func TestCacheSkip(t *testing.T) {
	prev := &BotSnapshot{TotalCount: 8, QuarantinedCount: 2}

	assert.True(t, CacheSkip(prev, 10))
	assert.False(t, CacheSkip(prev, 11))
	assert.False(t, CacheSkip(nil, 0), "a bot without a prior snapshot is never skipped")
}

func TestModCacheMonotonic(t *testing.T) {
	c := NewModCache()
	c.Put("a", []string{"m1"})
	c.Put("b", []string{"m2"})
	c.Put("a", []string{"m1", "m3"})

	assert.Equal(t, 2, c.Len())
	snap := c.Snapshot()
	assert.Equal(t, []string{"m1", "m3"}, snap["a"])
}
