package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/authapi"
	"github.com/dmitrijs2005/roundup/internal/client/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	slots   map[string][]byte
	removed []string
	failOn  string
}

func newMemStore() *memStore { return &memStore{slots: map[string][]byte{}} }

func (s *memStore) Read(_ context.Context, slot string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "read" {
		return nil, errors.New("disk gone")
	}
	return s.slots[slot], nil
}

func (s *memStore) Write(ctx context.Context, slot string, v []byte) error {
	return s.WriteAll(ctx, map[string][]byte{slot: v})
}

func (s *memStore) WriteAll(_ context.Context, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "write" {
		return errors.New("disk full")
	}
	for k, v := range values {
		s.slots[k] = v
	}
	return nil
}

func (s *memStore) Remove(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	s.removed = append(s.removed, slot)
	return nil
}

func (s *memStore) get(slot string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.slots[slot])
}

type fakeAuth struct {
	mu    sync.Mutex
	calls []string
	fn    func(call int, r authapi.RefreshRequest) (*authapi.TokenResponse, error)
}

func (f *fakeAuth) Refresh(_ context.Context, r authapi.RefreshRequest) (*authapi.TokenResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, r.RefreshToken)
	n := len(f.calls)
	f.mu.Unlock()
	return f.fn(n, r)
}

func (f *fakeAuth) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var invalidGrant = &authapi.Error{Status: 400, Code: authapi.CodeInvalidGrant}

var creds = Credentials{ClientID: "cid", ClientSecret: "secret", SeedRefreshToken: "seed"}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var t0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func issue(access string, refresh string) func(int, authapi.RefreshRequest) (*authapi.TokenResponse, error) {
	return func(int, authapi.RefreshRequest) (*authapi.TokenResponse, error) {
		return &authapi.TokenResponse{AccessToken: access, ExpiresIn: 3600, RefreshToken: refresh}, nil
	}
}

func TestGetValidAccessCredential_FreshInstallUsesSeed(t *testing.T) {
	s := newMemStore()
	auth := &fakeAuth{fn: func(_ int, r authapi.RefreshRequest) (*authapi.TokenResponse, error) {
		assert.Equal(t, "cid", r.ClientID)
		assert.Equal(t, "secret", r.ClientSecret)
		return &authapi.TokenResponse{AccessToken: "a-1", ExpiresIn: 3600, RefreshToken: "r-1"}, nil
	}}
	c := &clock{t: t0}
	m := NewManager(s, auth, creds, WithClock(c.Now))

	tok, err := m.GetValidAccessCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a-1", tok)
	assert.Equal(t, []string{"seed"}, auth.tokens())

	assert.Equal(t, "a-1", s.get(store.SlotAccessToken))
	assert.Equal(t, "2025-01-01T10:00:00Z", s.get(store.SlotAccessExpiry))
	assert.Equal(t, "r-1", s.get(store.SlotRefreshToken))

	// next cycle uses the rotated token
	_, err = m.InvalidateAndRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"seed", "r-1"}, auth.tokens())
}

func TestRefresh_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	s := newMemStore()
	s.slots[store.SlotRefreshToken] = []byte("r-old")
	auth := &fakeAuth{fn: issue("a-1", "")}
	m := NewManager(s, auth, creds)

	_, err := m.InvalidateAndRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r-old", s.get(store.SlotRefreshToken))
}

func TestMutualExclusion_SingleRefreshForConcurrentCallers(t *testing.T) {
	s := newMemStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	auth := &fakeAuth{fn: func(int, authapi.RefreshRequest) (*authapi.TokenResponse, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return &authapi.TokenResponse{AccessToken: "a-shared", ExpiresIn: 3600}, nil
	}}
	c := &clock{t: t0}
	m := NewManager(s, auth, creds, WithClock(c.Now))

	const n = 16
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.GetValidAccessCredential(context.Background())
		}(i)
	}

	<-entered
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "a-shared", results[i])
	}
}

func TestExpiry_CachedBeforeRefreshedAtOrAfter(t *testing.T) {
	s := newMemStore()
	auth := &fakeAuth{fn: func(call int, _ authapi.RefreshRequest) (*authapi.TokenResponse, error) {
		return &authapi.TokenResponse{AccessToken: []string{"", "a-1", "a-2"}[call], ExpiresIn: 60}, nil
	}}
	c := &clock{t: t0}
	m := NewManager(s, auth, creds, WithClock(c.Now))
	ctx := context.Background()

	tok, err := m.GetValidAccessCredential(ctx)
	require.NoError(t, err)
	require.Equal(t, "a-1", tok)

	c.Set(t0.Add(59*time.Second + 999*time.Millisecond))
	tok, err = m.GetValidAccessCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-1", tok)
	assert.Len(t, auth.tokens(), 1)

	c.Set(t0.Add(60 * time.Second))
	tok, err = m.GetValidAccessCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-2", tok)
	assert.Len(t, auth.tokens(), 2)
}

func TestExpiry_MissingOrCorruptExpiryRefreshes(t *testing.T) {
	for name, expiry := range map[string][]byte{"missing": nil, "corrupt": []byte("tomorrow")} {
		t.Run(name, func(t *testing.T) {
			s := newMemStore()
			s.slots[store.SlotAccessToken] = []byte("a-stale")
			if expiry != nil {
				s.slots[store.SlotAccessExpiry] = expiry
			}
			auth := &fakeAuth{fn: issue("a-new", "")}
			m := NewManager(s, auth, creds)

			tok, err := m.GetValidAccessCredential(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "a-new", tok)
			assert.Len(t, auth.tokens(), 1)
		})
	}
}

func TestInvalidateAndRefresh_IgnoresValidExpiry(t *testing.T) {
	s := newMemStore()
	s.slots[store.SlotAccessToken] = []byte("a-cached")
	s.slots[store.SlotAccessExpiry] = []byte(t0.Add(time.Hour).Format(time.RFC3339Nano))
	auth := &fakeAuth{fn: issue("a-new", "")}
	c := &clock{t: t0}
	m := NewManager(s, auth, creds, WithClock(c.Now))

	tok, err := m.GetValidAccessCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a-cached", tok)

	tok, err = m.InvalidateAndRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a-new", tok)
}

func TestFallback_StoredRejectedSeedAccepted(t *testing.T) {
	s := newMemStore()
	s.slots[store.SlotRefreshToken] = []byte("r-revoked")
	auth := &fakeAuth{fn: func(_ int, r authapi.RefreshRequest) (*authapi.TokenResponse, error) {
		if r.RefreshToken == "r-revoked" {
			return nil, invalidGrant
		}
		return &authapi.TokenResponse{AccessToken: "a-seeded", ExpiresIn: 3600}, nil
	}}
	m := NewManager(s, auth, creds)

	tok, err := m.InvalidateAndRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a-seeded", tok)
	assert.Equal(t, []string{"r-revoked", "seed"}, auth.tokens())
	assert.Equal(t, []string{store.SlotRefreshToken}, s.removed)
	assert.Empty(t, s.get(store.SlotRefreshToken))
}

func TestFallback_SeedAlsoRejected(t *testing.T) {
	s := newMemStore()
	s.slots[store.SlotRefreshToken] = []byte("r-revoked")
	auth := &fakeAuth{fn: func(int, authapi.RefreshRequest) (*authapi.TokenResponse, error) {
		return nil, invalidGrant
	}}
	m := NewManager(s, auth, creds)

	_, err := m.InvalidateAndRefresh(context.Background())
	require.ErrorIs(t, err, ErrSeedRejected)
	assert.Equal(t, []string{"r-revoked", "seed"}, auth.tokens(), "no third attempt")

	var ae *authapi.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 400, ae.Status)
}

func TestFallback_SeedRejectedOnFreshInstall(t *testing.T) {
	auth := &fakeAuth{fn: func(int, authapi.RefreshRequest) (*authapi.TokenResponse, error) {
		return nil, invalidGrant
	}}
	m := NewManager(newMemStore(), auth, creds)

	_, err := m.GetValidAccessCredential(context.Background())
	require.ErrorIs(t, err, ErrSeedRejected)
	assert.Equal(t, []string{"seed"}, auth.tokens())
}

func TestRefresh_NoSeedConfigured(t *testing.T) {
	auth := &fakeAuth{fn: issue("a", "")}
	m := NewManager(newMemStore(), auth, Credentials{ClientID: "cid"})

	_, err := m.GetValidAccessCredential(context.Background())
	require.ErrorIs(t, err, ErrSeedRejected)
	assert.Empty(t, auth.tokens())
}

func TestRefresh_OtherFailuresAreFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"server error", &authapi.Error{Status: 500, Code: "Internal Server Error"}},
		{"invalid client", &authapi.Error{Status: 401, Code: "invalid_client"}},
		{"network", errors.New("dial tcp: connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()
			s.slots[store.SlotRefreshToken] = []byte("r-1")
			auth := &fakeAuth{fn: func(int, authapi.RefreshRequest) (*authapi.TokenResponse, error) {
				return nil, tt.err
			}}
			m := NewManager(s, auth, creds)

			_, err := m.InvalidateAndRefresh(context.Background())
			require.ErrorIs(t, err, ErrRefreshFailed)
			require.ErrorIs(t, err, tt.err)
			assert.Len(t, auth.tokens(), 1)
			assert.Empty(t, s.removed)
		})
	}
}

func TestRefresh_StoreFailures(t *testing.T) {
	for _, op := range []string{"read", "write"} {
		t.Run(op, func(t *testing.T) {
			s := newMemStore()
			s.failOn = op
			m := NewManager(s, &fakeAuth{fn: issue("a", "")}, creds)

			_, err := m.GetValidAccessCredential(context.Background())
			require.ErrorIs(t, err, ErrRefreshFailed)
		})
	}
}

func TestObtain_CancelledWhileWaitingForLock(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	auth := &fakeAuth{fn: func(int, authapi.RefreshRequest) (*authapi.TokenResponse, error) {
		close(entered)
		<-release
		return &authapi.TokenResponse{AccessToken: "a", ExpiresIn: 60}, nil
	}}
	m := NewManager(newMemStore(), auth, creds)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.GetValidAccessCredential(context.Background())
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.GetValidAccessCredential(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
}
