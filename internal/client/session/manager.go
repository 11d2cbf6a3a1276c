// Package session keeps a short-lived bearer token valid for every
// authenticated API call.
//
// All reads and refreshes go through one weight-1 semaphore per Manager:
// at most one refresh network call is in flight, and callers that waited
// for the lock see the token the winner stored.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/authapi"
	"github.com/dmitrijs2005/roundup/internal/client/store"
	"github.com/dmitrijs2005/roundup/internal/logging"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrSeedRejected means the build-time seed refresh token was refused
	// or absent. Nothing automatic can recover from it.
	ErrSeedRejected = errors.New("seed refresh token rejected")
	// ErrRefreshFailed covers every other failed refresh cycle.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// maxRefreshAttempts bounds one refresh cycle: the stored token, then the seed.
const maxRefreshAttempts = 2

// AuthTransport performs the unauthenticated refresh call.
type AuthTransport interface {
	Refresh(ctx context.Context, r authapi.RefreshRequest) (*authapi.TokenResponse, error)
}

// Credentials is the static client identity plus the seed refresh token.
type Credentials struct {
	ClientID         string
	ClientSecret     string
	SeedRefreshToken string
}

type Manager struct {
	store store.CredentialStore
	auth  AuthTransport
	creds Credentials
	log   logging.Logger
	now   func() time.Time
	sem   *semaphore.Weighted
}

type Option func(*Manager)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func NewManager(s store.CredentialStore, auth AuthTransport, creds Credentials, opts ...Option) *Manager {
	m := &Manager{
		store: s,
		auth:  auth,
		creds: creds,
		log:   logging.Nop(),
		now:   time.Now,
		sem:   semaphore.NewWeighted(1),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// GetValidAccessCredential returns the stored access token while it is
// unexpired, otherwise the token of a fresh refresh cycle.
func (m *Manager) GetValidAccessCredential(ctx context.Context) (string, error) {
	return m.obtain(ctx, false)
}

// InvalidateAndRefresh runs a refresh cycle regardless of the stored expiry.
// Used after the server rejected the current token.
func (m *Manager) InvalidateAndRefresh(ctx context.Context) (string, error) {
	return m.obtain(ctx, true)
}

func (m *Manager) obtain(ctx context.Context, force bool) (string, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer m.sem.Release(1)

	if !force {
		token, ok, err := m.cached(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}
		if ok {
			return token, nil
		}
	}
	return m.refresh(ctx)
}

// cached reports the stored access token if its expiry is still ahead of
// now. A missing or unreadable expiry counts as expired.
func (m *Manager) cached(ctx context.Context) (string, bool, error) {
	token, err := m.store.Read(ctx, store.SlotAccessToken)
	if err != nil {
		return "", false, err
	}
	if len(token) == 0 {
		return "", false, nil
	}

	raw, err := m.store.Read(ctx, store.SlotAccessExpiry)
	if err != nil {
		return "", false, err
	}
	expiry, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return "", false, nil
	}
	if !m.now().Before(expiry) {
		return "", false, nil
	}
	return string(token), true, nil
}

type tokenSource int

const (
	sourceStored tokenSource = iota
	sourceSeed
)

func (s tokenSource) String() string {
	if s == sourceSeed {
		return "seed"
	}
	return "stored"
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	stored, err := m.store.Read(ctx, store.SlotRefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	src, refreshToken := sourceStored, string(stored)
	if refreshToken == "" {
		src, refreshToken = sourceSeed, m.creds.SeedRefreshToken
	}

	for attempt := 1; attempt <= maxRefreshAttempts; attempt++ {
		if refreshToken == "" {
			return "", fmt.Errorf("%w: no refresh token configured", ErrSeedRejected)
		}

		resp, err := m.auth.Refresh(ctx, authapi.RefreshRequest{
			RefreshToken: refreshToken,
			ClientID:     m.creds.ClientID,
			ClientSecret: m.creds.ClientSecret,
		})
		if err == nil {
			m.log.Info(ctx, "access token refreshed", "source", src.String(), "expires_in", resp.ExpiresIn, "rotated", resp.RefreshToken != "")
			return m.persist(ctx, resp)
		}

		var ae *authapi.Error
		invalidGrant := errors.As(err, &ae) && ae.IsInvalidGrant()

		if invalidGrant && src == sourceStored {
			m.log.Warn(ctx, "stored refresh token rejected, falling back to seed", "attempt", attempt)
			if err := m.store.Remove(ctx, store.SlotRefreshToken); err != nil {
				return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
			}
			src, refreshToken = sourceSeed, m.creds.SeedRefreshToken
			continue
		}

		if invalidGrant {
			m.log.Error(ctx, "seed refresh token rejected")
			return "", fmt.Errorf("%w: %w", ErrSeedRejected, err)
		}
		m.log.Error(ctx, "token refresh failed", "source", src.String(), "error", err)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	// unreachable: the last attempt always uses the seed
	return "", ErrRefreshFailed
}

func (m *Manager) persist(ctx context.Context, resp *authapi.TokenResponse) (string, error) {
	expiry := m.now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	values := map[string][]byte{
		store.SlotAccessToken:  []byte(resp.AccessToken),
		store.SlotAccessExpiry: []byte(expiry.UTC().Format(time.RFC3339Nano)),
	}
	if resp.RefreshToken != "" {
		values[store.SlotRefreshToken] = []byte(resp.RefreshToken)
	}

	if err := m.store.WriteAll(ctx, values); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return resp.AccessToken, nil
}
