package tracker

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WikiReader is the slice of the platform client needed to fetch the remote
// bot registry.
type WikiReader interface {
	WikiPage(ctx context.Context, subreddit, page string) (string, error)
}

// LoadBots reads the bot registry from a local YAML file mapping bot name to
// its list of account identifiers.
func LoadBots(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bot registry %s: %w", path, err)
	}
	return parseBots(raw)
}

// FetchBots reads the same YAML registry shape from a wiki page on the
// platform.
func FetchBots(ctx context.Context, wr WikiReader, subreddit, page string) (map[string][]string, error) {
	body, err := wr.WikiPage(ctx, subreddit, page)
	if err != nil {
		return nil, fmt.Errorf("fetching bot registry: %w", err)
	}
	return parseBots([]byte(body))
}

func parseBots(raw []byte) (map[string][]string, error) {
	bots := map[string][]string{}
	if err := yaml.Unmarshal(raw, &bots); err != nil {
		return nil, fmt.Errorf("parsing bot registry: %w", err)
	}
	return bots, nil
}
