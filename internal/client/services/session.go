package services

import (
	"context"
	"fmt"
)

// SessionService covers the session lifecycle the CLI exposes.
//
// Contract:
//   - Connect: make sure a valid access token exists, refreshing if needed.
//   - Logout: wipe every stored credential; the next Connect starts from
//     the seed refresh token.
type SessionService interface {
	Connect(ctx context.Context) error
	Logout(ctx context.Context) error
}

type TokenSource interface {
	GetValidAccessCredential(ctx context.Context) (string, error)
}

type CredentialClearer interface {
	Clear(ctx context.Context) error
}

type sessionService struct {
	tokens TokenSource
	store  CredentialClearer
}

func NewSessionService(tokens TokenSource, store CredentialClearer) SessionService {
	return &sessionService{tokens: tokens, store: store}
}

func (s *sessionService) Connect(ctx context.Context) error {
	if _, err := s.tokens.GetValidAccessCredential(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (s *sessionService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
