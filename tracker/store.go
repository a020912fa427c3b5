package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// ErrCorruptSnapshot marks a snapshot file that exists but can not be parsed.
// This is a fatal startup condition: proceeding would silently discard the
// previous run's state.
var ErrCorruptSnapshot = errors.New("corrupt snapshot file")

const defaultSnapshotPath = "modwatch/snapshot.json"

// Store persists the per-bot snapshots and the shared moderator cache as a
// single JSON document, replaced atomically on save.
type Store struct {
	Path string
}

// NewStore places the snapshot file in the XDG state directory unless an
// explicit path is given.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = xdg.StateFile(defaultSnapshotPath)
		if err != nil {
			return nil, err
		}
	}
	return &Store{Path: path}, nil
}

type snapshotFile struct {
	Bots       map[string]BotSnapshot `json:"bots"`
	Moderators ModeratorCache         `json:"moderators"`
}

// Load reads the persisted state. A missing file is not an error and yields
// empty state; a malformed file is reported as ErrCorruptSnapshot.
func (s *Store) Load() (map[string]BotSnapshot, ModeratorCache, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]BotSnapshot{}, ModeratorCache{}, nil
		}
		return nil, nil, fmt.Errorf("reading snapshot %s: %w", s.Path, err)
	}

	var doc snapshotFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.Path, err)
	}
	if doc.Bots == nil {
		doc.Bots = map[string]BotSnapshot{}
	}
	if doc.Moderators == nil {
		doc.Moderators = ModeratorCache{}
	}
	return doc.Bots, doc.Moderators, nil
}

// Save atomically replaces the persisted state: the document is written to a
// temp file in the same directory, synced, then renamed over the old file, so
// a crash mid-write never corrupts the previous snapshot.
func (s *Store) Save(bots map[string]BotSnapshot, mods ModeratorCache) error {
	raw, err := json.MarshalIndent(snapshotFile{Bots: bots, Moderators: mods}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

// ExportReport writes the human/machine-readable per-bot report to path, one
// JSON document per comprehensive run, bots sorted by name.
func (s *Store) ExportReport(path string, bots map[string]BotSnapshot) error {
	// encoding/json sorts map keys, so the export is stable across runs.
	raw, err := json.MarshalIndent(bots, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}
