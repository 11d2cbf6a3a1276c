package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/roundup/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/roundup/internal/common"
	"github.com/dmitrijs2005/roundup/internal/cryptox"
	"github.com/zalando/go-keyring"
)

// KeyProvider supplies the AES key protecting the credential slots.
type KeyProvider interface {
	Key(ctx context.Context) ([]byte, error)
}

const (
	KeyringService = "roundup"
	keyringUser    = "credential-store"
)

var ErrWrongPassphrase = errors.New("wrong passphrase")

// KeyringKeyProvider keeps a random key in the OS keychain and creates it
// on first use.
type KeyringKeyProvider struct {
	Service string
	User    string
}

func NewKeyringKeyProvider() *KeyringKeyProvider {
	return &KeyringKeyProvider{Service: KeyringService, User: keyringUser}
}

func (p *KeyringKeyProvider) Key(ctx context.Context) ([]byte, error) {
	encoded, err := keyring.Get(p.Service, p.User)
	if err == nil {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("keyring entry %s/%s is corrupt", p.Service, p.User)
		}
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("keyring get: %w", err)
	}

	key := common.GenerateRandByteArray(cryptox.KeySize)
	if err := keyring.Set(p.Service, p.User, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("keyring set: %w", err)
	}
	return key, nil
}

// Delete forgets the keychain key. Existing ciphertext becomes unreadable.
func (p *KeyringKeyProvider) Delete() error {
	err := keyring.Delete(p.Service, p.User)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

const (
	saltKey  = "kdf_salt"
	checkKey = "kdf_check"
)

var checkPlaintext = []byte("roundup")

// PassphraseKeyProvider derives the key from a passphrase with argon2id.
// The salt and a sealed check value live in plaintext metadata rows so a
// wrong passphrase is reported before any slot is touched.
type PassphraseKeyProvider struct {
	repo   metadata.Repository
	prompt func() ([]byte, error)
}

func NewPassphraseKeyProvider(repo metadata.Repository, prompt func() ([]byte, error)) *PassphraseKeyProvider {
	return &PassphraseKeyProvider{repo: repo, prompt: prompt}
}

func (p *PassphraseKeyProvider) Key(ctx context.Context) ([]byte, error) {
	pass, err := p.prompt()
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	defer common.WipeByteArray(pass)

	salt, err := p.repo.Get(ctx, saltKey)
	if err != nil {
		return nil, err
	}

	if salt == nil {
		salt = common.GenerateRandByteArray(cryptox.SaltSize)
		key := cryptox.DeriveKey(pass, salt)
		check, err := cryptox.Seal(key, checkPlaintext, []byte(checkKey))
		if err != nil {
			return nil, err
		}
		if err := p.repo.Set(ctx, saltKey, salt); err != nil {
			return nil, err
		}
		if err := p.repo.Set(ctx, checkKey, check); err != nil {
			return nil, err
		}
		return key, nil
	}

	key := cryptox.DeriveKey(pass, salt)
	check, err := p.repo.Get(ctx, checkKey)
	if err != nil {
		return nil, err
	}
	if check != nil {
		got, err := cryptox.Open(key, check, []byte(checkKey))
		if err != nil || !bytes.Equal(got, checkPlaintext) {
			return nil, ErrWrongPassphrase
		}
	}
	return key, nil
}
