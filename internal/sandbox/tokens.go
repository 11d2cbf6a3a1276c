package sandbox

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/roundup/internal/common"
	"github.com/dmitrijs2005/roundup/internal/sandbox/auth"
)

var (
	ErrInvalidClient = errors.New("invalid client")
	ErrInvalidGrant  = errors.New("invalid grant")
)

// TokenPair is what a successful refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// TokenIssuer exchanges refresh tokens for access tokens. Every refresh
// token is single use: the exchange retires it and issues a new one.
type TokenIssuer struct {
	mu           sync.Mutex
	refresh      map[string]string // refresh token -> holder UID
	clientID     string
	clientSecret string
	secret       []byte
	validity     time.Duration
	generation   atomic.Int64
}

func NewTokenIssuer(clientID, clientSecret string, secret []byte, validity time.Duration) *TokenIssuer {
	return &TokenIssuer{
		refresh:      make(map[string]string),
		clientID:     clientID,
		clientSecret: clientSecret,
		secret:       secret,
		validity:     validity,
	}
}

// Seed makes token a valid refresh token for holderUID.
func (t *TokenIssuer) Seed(token, holderUID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refresh[token] = holderUID
}

// Exchange checks the client and the refresh token, retires the token and
// returns a new pair.
func (t *TokenIssuer) Exchange(clientID, clientSecret, refreshToken string) (*TokenPair, error) {
	if !t.clientMatches(clientID, clientSecret) {
		return nil, ErrInvalidClient
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	holderUID, ok := t.refresh[refreshToken]
	if !ok || refreshToken == "" {
		return nil, ErrInvalidGrant
	}

	access, err := auth.GenerateToken(holderUID, t.generation.Load(), t.secret, t.validity)
	if err != nil {
		return nil, common.ErrInternal
	}
	next := hex.EncodeToString(common.GenerateRandByteArray(32))

	delete(t.refresh, refreshToken)
	t.refresh[next] = holderUID

	return &TokenPair{AccessToken: access, RefreshToken: next, ExpiresIn: t.validity}, nil
}

// Authenticate returns the holder UID an access token was issued to.
// Tokens minted before the last RevokeAccessTokens are rejected.
func (t *TokenIssuer) Authenticate(accessToken string) (string, error) {
	claims, err := auth.ParseToken(accessToken, t.secret)
	if err != nil {
		return "", err
	}
	if claims.Generation != t.generation.Load() {
		return "", common.ErrTokenExpired
	}
	return claims.AccountHolderUID, nil
}

// RevokeAccessTokens invalidates every access token issued so far. Refresh
// tokens keep working.
func (t *TokenIssuer) RevokeAccessTokens() {
	t.generation.Add(1)
}

// RevokeRefreshTokens forgets every refresh token, so the next exchange
// answers invalid_grant until Seed is called again.
func (t *TokenIssuer) RevokeRefreshTokens() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.refresh)
}

func (t *TokenIssuer) clientMatches(id, secret string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(t.clientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(t.clientSecret)) == 1
	return idOK && secretOK
}
