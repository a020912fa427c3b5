package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakePlatform is an in-memory Platform with per-call counters, used by the
// engine tests to assert on fetch behavior.
type fakePlatform struct {
	mu sync.Mutex

	moderated  map[string][]CommunityRef
	accountErr map[string]error
	created    map[string]time.Time

	infos   map[string]CommunityInfo
	infoErr map[string]error

	moderators map[string][]string
	modErr     map[string]error

	visibility map[string]Visibility
	visErr     map[string]error

	infoFetches int
	modFetches  int
	visFetches  int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		moderated:  map[string][]CommunityRef{},
		accountErr: map[string]error{},
		created:    map[string]time.Time{},
		infos:      map[string]CommunityInfo{},
		infoErr:    map[string]error{},
		moderators: map[string][]string{},
		modErr:     map[string]error{},
		visibility: map[string]Visibility{},
		visErr:     map[string]error{},
	}
}

// addCommunity registers a fully-resolvable community.
func (f *fakePlatform) addCommunity(info CommunityInfo, mods ...string) {
	f.infos[info.Name] = info
	f.moderators[info.Name] = mods
}

func (f *fakePlatform) ModeratedCommunities(ctx context.Context, accountID string) ([]CommunityRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.accountErr[accountID]; err != nil {
		return nil, err
	}
	refs, ok := f.moderated[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return refs, nil
}

func (f *fakePlatform) CommunityInfo(ctx context.Context, name string) (*CommunityInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoFetches++
	if err := f.infoErr[name]; err != nil {
		return nil, err
	}
	info, ok := f.infos[name]
	if !ok {
		return nil, fmt.Errorf("community %s: %w", name, ErrNotFound)
	}
	return &info, nil
}

func (f *fakePlatform) CommunityModerators(ctx context.Context, name string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modFetches++
	if err := f.modErr[name]; err != nil {
		return nil, err
	}
	mods, ok := f.moderators[name]
	if !ok {
		return nil, fmt.Errorf("community %s: %w", name, ErrNotFound)
	}
	return mods, nil
}

func (f *fakePlatform) CommunityVisibility(ctx context.Context, name string) (Visibility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visFetches++
	if err := f.visErr[name]; err != nil {
		return VisibilityUnknown, err
	}
	if vis, ok := f.visibility[name]; ok {
		return vis, nil
	}
	return VisibilityVisible, nil
}

func (f *fakePlatform) AccountCreatedAt(ctx context.Context, accountID string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	created, ok := f.created[accountID]
	if !ok {
		return time.Time{}, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return created, nil
}

func (f *fakePlatform) counts() (info, mod, vis int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.infoFetches, f.modFetches, f.visFetches
}
