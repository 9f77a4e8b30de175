package thirteenf

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mreyes/confluence/internal/tickerguard"
	"github.com/mreyes/confluence/pkg/logger"
)

// Source derives per-ticker 13F fund-overlap counts from an
// operator-curated holdings snapshot file. There is no dependable
// public 13F endpoint worth scraping, so the snapshot is maintained out
// of band (quarterly filings settle slowly anyway) and re-read on every
// run, letting the operator swap the file without a restart.
type Source struct {
	path   string
	logger *logger.Logger
}

// New creates a source over the given snapshot file.
func New(path string, log *logger.Logger) *Source {
	return &Source{
		path:   path,
		logger: log.WithField("module", "thirteenf"),
	}
}

type snapshot struct {
	AsOf  string `yaml:"as_of"`
	Funds []fund `yaml:"funds"`
}

type fund struct {
	Name     string   `yaml:"name"`
	Holdings []string `yaml:"holdings"`
}

// Overlap returns, for each requested ticker, the number of funds in
// the snapshot holding it. Tickers held by no fund are omitted.
// Holdings are normalized before matching, so "BRK.B" in the file
// matches a "BRK-B" candidate.
func (s *Source) Overlap(ctx context.Context, tickers []string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, f := range snap.Funds {
		seen := make(map[string]struct{}, len(f.Holdings))
		for _, raw := range f.Holdings {
			ticker := tickerguard.Normalize(raw)
			if ticker == "" {
				continue
			}
			if _, dup := seen[ticker]; dup {
				continue
			}
			seen[ticker] = struct{}{}
			counts[ticker]++
		}
	}

	overlap := make(map[string]int, len(tickers))
	for _, ticker := range tickers {
		if n := counts[ticker]; n > 0 {
			overlap[ticker] = n
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"as_of":      snap.AsOf,
		"funds":      len(snap.Funds),
		"candidates": len(tickers),
		"matched":    len(overlap),
	}).Debug("13F overlap computed")

	return overlap, nil
}

func (s *Source) load() (*snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read holdings file: %w", err)
	}

	var snap snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode holdings file %s: %w", s.path, err)
	}

	return &snap, nil
}
