package tracker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffCorrectness(t *testing.T) {
	fake := newFakePlatform()
	fake.visibility["a"] = VisibilityVisible
	d := NewDiffer(fake, nil)

	rec := d.Diff(context.Background(), "somebot",
		[]string{"b", "c", "d"}, []string{"a", "b", "c"})

	assert.Equal(t, []string{"d"}, rec.Added)
	assert.Equal(t, []string{"a"}, rec.Removed)
	// still visible, so the cause of removal can not be determined
	assert.Equal(t, RemovalUnknown, rec.RemovalReasons["a"])
}

func TestDiffClassification(t *testing.T) {
	fake := newFakePlatform()
	fake.visibility["wentprivate"] = VisibilityForbidden
	fake.visibility["gotbanned"] = VisibilityNotFound
	fake.visErr["flaky"] = fmt.Errorf("connection reset")
	d := NewDiffer(fake, nil)

	rec := d.Diff(context.Background(), "somebot",
		nil, []string{"flaky", "gotbanned", "wentprivate"})

	require.Len(t, rec.Removed, 3)
	assert.Equal(t, RemovalPrivate, rec.RemovalReasons["wentprivate"])
	assert.Equal(t, RemovalBanned, rec.RemovalReasons["gotbanned"])
	assert.Equal(t, RemovalUnknown, rec.RemovalReasons["flaky"])
}

func TestDiffNoChanges(t *testing.T) {
	fake := newFakePlatform()
	d := NewDiffer(fake, nil)

	rec := d.Diff(context.Background(), "somebot",
		[]string{"a", "b"}, []string{"a", "b"})

	assert.True(t, rec.IsEmpty())
	_, _, vis := fake.counts()
	assert.Zero(t, vis, "no removals should mean no visibility probes")
}

func TestDiffVisibilityMemoized(t *testing.T) {
	fake := newFakePlatform()
	fake.visibility["shared"] = VisibilityForbidden
	d := NewDiffer(fake, nil)

	rec1 := d.Diff(context.Background(), "bot1", nil, []string{"shared"})
	rec2 := d.Diff(context.Background(), "bot2", nil, []string{"shared"})

	assert.Equal(t, RemovalPrivate, rec1.RemovalReasons["shared"])
	assert.Equal(t, RemovalPrivate, rec2.RemovalReasons["shared"])
	_, _, vis := fake.counts()
	assert.Equal(t, 1, vis)
}
