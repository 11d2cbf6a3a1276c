// Package store is the encrypted credential store: named slots for the
// access token, its expiry and the refresh token, kept in the local SQLite
// metadata table as AES-GCM ciphertext.
//
// The store makes single reads and writes safe; check-then-act atomicity
// across slots is the caller's job (see session.Manager).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/roundup/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/roundup/internal/cryptox"
	"github.com/dmitrijs2005/roundup/internal/dbx"
)

// Credential slots.
const (
	SlotAccessToken  = "access_token"
	SlotAccessExpiry = "access_expiry"
	SlotRefreshToken = "refresh_token"
)

// Slots lists every credential slot, e.g. for logout.
var Slots = []string{SlotAccessToken, SlotAccessExpiry, SlotRefreshToken}

const rowPrefix = "cred."

// CredentialStore is the contract the session manager consumes.
// Read returns (nil, nil) when the slot is empty.
type CredentialStore interface {
	Read(ctx context.Context, slot string) ([]byte, error)
	Write(ctx context.Context, slot string, value []byte) error
	Remove(ctx context.Context, slot string) error
	// WriteAll stores every slot of values or none of them.
	WriteAll(ctx context.Context, values map[string][]byte) error
}

// Error describes a failed store operation.
type Error struct {
	Op   string // "read", "write", "remove"
	Slot string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s credential %s: %v", e.Op, e.Slot, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// EncryptedStore implements CredentialStore on the metadata table.
type EncryptedStore struct {
	db   *sql.DB
	keys KeyProvider

	mu  sync.Mutex
	key []byte
}

func NewEncryptedStore(db *sql.DB, keys KeyProvider) *EncryptedStore {
	return &EncryptedStore{db: db, keys: keys}
}

func (s *EncryptedStore) Read(ctx context.Context, slot string) ([]byte, error) {
	sealed, err := metadata.NewSQLiteRepository(s.db).Get(ctx, rowPrefix+slot)
	if err != nil {
		return nil, &Error{Op: "read", Slot: slot, Err: err}
	}
	if sealed == nil {
		return nil, nil
	}

	key, err := s.encryptionKey(ctx)
	if err != nil {
		return nil, &Error{Op: "read", Slot: slot, Err: err}
	}
	plain, err := cryptox.Open(key, sealed, []byte(slot))
	if err != nil {
		return nil, &Error{Op: "read", Slot: slot, Err: err}
	}
	return plain, nil
}

func (s *EncryptedStore) Write(ctx context.Context, slot string, value []byte) error {
	return s.WriteAll(ctx, map[string][]byte{slot: value})
}

func (s *EncryptedStore) WriteAll(ctx context.Context, values map[string][]byte) error {
	key, err := s.encryptionKey(ctx)
	if err != nil {
		return &Error{Op: "write", Slot: slotNames(values), Err: err}
	}

	sealed := make(map[string][]byte, len(values))
	for slot, v := range values {
		c, err := cryptox.Seal(key, v, []byte(slot))
		if err != nil {
			return &Error{Op: "write", Slot: slot, Err: err}
		}
		sealed[slot] = c
	}

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for slot, c := range sealed {
			if err := repo.Set(ctx, rowPrefix+slot, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &Error{Op: "write", Slot: slotNames(values), Err: err}
	}
	return nil
}

func (s *EncryptedStore) Remove(ctx context.Context, slot string) error {
	if err := metadata.NewSQLiteRepository(s.db).Delete(ctx, rowPrefix+slot); err != nil {
		return &Error{Op: "remove", Slot: slot, Err: err}
	}
	return nil
}

// Clear removes every credential slot. The round-up cutoff is untouched.
func (s *EncryptedStore) Clear(ctx context.Context) error {
	rows := make([]string, len(Slots))
	for i, slot := range Slots {
		rows[i] = rowPrefix + slot
	}
	if err := metadata.NewSQLiteRepository(s.db).Delete(ctx, rows...); err != nil {
		return &Error{Op: "remove", Slot: "*", Err: err}
	}
	return nil
}

func (s *EncryptedStore) encryptionKey(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}
	key, err := s.keys.Key(ctx)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	s.key = key
	return key, nil
}

func slotNames(values map[string][]byte) string {
	if len(values) == 1 {
		for slot := range values {
			return slot
		}
	}
	return fmt.Sprintf("%d slots", len(values))
}
