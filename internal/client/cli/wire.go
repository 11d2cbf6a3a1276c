package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/roundup/internal/client/authapi"
	"github.com/dmitrijs2005/roundup/internal/client/client"
	"github.com/dmitrijs2005/roundup/internal/client/config"
	"github.com/dmitrijs2005/roundup/internal/client/repositories/cutoff"
	"github.com/dmitrijs2005/roundup/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/roundup/internal/client/services"
	"github.com/dmitrijs2005/roundup/internal/client/session"
	"github.com/dmitrijs2005/roundup/internal/client/store"
	"github.com/dmitrijs2005/roundup/internal/logging"
)

// Deps is everything NewAppFromConfig builds; Close releases the database.
type Deps struct {
	DB      *sql.DB
	Store   *store.EncryptedStore
	Session *session.Manager
	API     *client.HTTPClient
}

func (d *Deps) Close() error { return d.DB.Close() }

// Wire opens the local database and assembles the credential store, session
// manager and API client described by cfg. prompt is used when the key
// source is a passphrase.
func Wire(ctx context.Context, cfg *config.Config, prompt func() ([]byte, error), log logging.Logger) (*Deps, error) {
	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database %s: %w", cfg.DatabasePath, err)
	}

	var keys store.KeyProvider
	switch cfg.KeySource {
	case config.KeySourcePassphrase:
		keys = store.NewPassphraseKeyProvider(metadata.NewSQLiteRepository(db), prompt)
	default:
		keys = store.NewKeyringKeyProvider()
	}
	creds := store.NewEncryptedStore(db, keys)

	auth := authapi.New(cfg.APIBaseURL, client.NewPlainHTTP(cfg.UserAgent, cfg.HTTPTimeout))
	mgr := session.NewManager(creds, auth, session.Credentials{
		ClientID:         cfg.ClientID,
		ClientSecret:     cfg.ClientSecret,
		SeedRefreshToken: cfg.SeedRefreshToken,
	}, session.WithLogger(log.With("component", "session")))

	api := client.NewHTTPClient(cfg.APIBaseURL,
		client.NewAuthenticatedHTTP(mgr, cfg.UserAgent, cfg.HTTPTimeout, log.With("component", "transport")))

	return &Deps{DB: db, Store: creds, Session: mgr, API: api}, nil
}

// NewAppFromConfig wires the whole client and returns the App plus the
// dependencies to close when it is done.
func NewAppFromConfig(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, log logging.Logger) (*App, *Deps, error) {
	deps, err := Wire(ctx, cfg, PassphrasePrompt(out), log)
	if err != nil {
		return nil, nil, err
	}

	roundUp := services.NewRoundUpService(deps.API, cutoff.NewStore(metadata.NewSQLiteRepository(deps.DB)), log.With("component", "roundup"))
	sessions := services.NewSessionService(deps.Session, deps.Store)

	return NewApp(roundUp, sessions, in, out, log), deps, nil
}
