// Package sandbox is an in-memory stand-in for the bank API: an OAuth2
// token endpoint with rotating refresh tokens plus the account, feed and
// savings-goal resources the round-up client uses. It backs local
// development (cmd/sandbox) and end-to-end tests.
package sandbox

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/roundup/internal/logging"
	"github.com/dmitrijs2005/roundup/internal/sandbox/config"
)

type Server struct {
	address string
	bank    *Bank
	tokens  *TokenIssuer
	logger  logging.Logger
}

// NewServer builds a sandbox with a freshly seeded bank. cfg.SeedRefreshToken
// is accepted by the token endpoint until it is first used.
func NewServer(cfg *config.Config, l logging.Logger) *Server {
	bank := NewBank(time.Now)
	tokens := NewTokenIssuer(cfg.ClientID, cfg.ClientSecret, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	tokens.Seed(cfg.SeedRefreshToken, bank.HolderUID())

	return &Server{
		address: cfg.Addr,
		bank:    bank,
		tokens:  tokens,
		logger:  l.With("module", "sandbox"),
	}
}

func (s *Server) Bank() *Bank          { return s.bank }
func (s *Server) Tokens() *TokenIssuer { return s.tokens }

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /oauth/access-token", s.handleToken)

	mux.Handle("GET /api/v2/accounts", s.requireBearer(s.handleAccounts))
	mux.Handle("GET /api/v2/account-holder/individual", s.requireBearer(s.handleAccountHolder))
	mux.Handle("GET /api/v2/feed/account/{accountUid}/category/{categoryUid}/transactions-between",
		s.requireBearer(s.handleTransactionsBetween))
	mux.Handle("GET /api/v2/account/{accountUid}/savings-goals", s.requireBearer(s.handleListGoals))
	mux.Handle("PUT /api/v2/account/{accountUid}/savings-goals", s.requireBearer(s.handleCreateGoal))
	mux.Handle("PUT /api/v2/account/{accountUid}/savings-goals/{goalUid}/add-money/{transferUid}",
		s.requireBearer(s.handleAddMoney))

	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping sandbox server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting sandbox server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}
