// Package cutoff persists the round-up cutoff: the time of the newest
// transaction already included in a completed transfer.
package cutoff

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/repositories/metadata"
)

const key = "roundup_cutoff"

type Store struct {
	repo metadata.Repository
}

func NewStore(repo metadata.Repository) *Store {
	return &Store{repo: repo}
}

// Get returns the stored cutoff, or the zero time when none was saved yet
// (every transaction still counts).
func (s *Store) Get(ctx context.Context) (time.Time, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	if raw == nil {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt cutoff %q: %w", raw, err)
	}
	return t, nil
}

// Save stores t in UTC, RFC 3339 with nanoseconds.
func (s *Store) Save(ctx context.Context, t time.Time) error {
	return s.repo.Set(ctx, key, []byte(t.UTC().Format(time.RFC3339Nano)))
}
