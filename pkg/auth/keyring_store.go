package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "tweetsweep"
	keyringIndexKey = "accounts"
)

// keyringSecret maps one of the four OAuth secrets to its keychain entry
type keyringSecret struct {
	field string
	value func(*Account) *string
}

var keyringSecrets = []keyringSecret{
	{"consumer_key", func(a *Account) *string { return &a.ConsumerKey }},
	{"consumer_secret", func(a *Account) *string { return &a.ConsumerSecret }},
	{"access_token_key", func(a *Account) *string { return &a.AccessTokenKey }},
	{"access_token_secret", func(a *Account) *string { return &a.AccessTokenSecret }},
}

// KeyringStore keeps each secret of an account as its own keychain entry,
// "<name>/<field>" under the tweetsweep service. An index entry records the
// account names and modification times, since go-keyring cannot enumerate.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a store once the keychain has accepted a write
func NewKeyringStore() (*KeyringStore, error) {
	return newKeyringStore(keyringService)
}

func newKeyringStore(service string) (*KeyringStore, error) {
	const check = "availability"
	if err := keyring.Set(service, check, "ok"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(service, check)
	return &KeyringStore{service: service}, nil
}

func secretUser(name, field string) string {
	return name + "/" + field
}

// Store writes all four secrets, then adds name to the index
func (k *KeyringStore) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	for _, s := range keyringSecrets {
		if err := keyring.Set(k.service, secretUser(account.Name, s.field), *s.value(account)); err != nil {
			return fmt.Errorf("store %s in keyring: %w", s.field, err)
		}
	}

	index, err := k.index()
	if err != nil {
		return err
	}
	index[account.Name] = account.LastModified
	return k.saveIndex(index)
}

// Retrieve reassembles an account; a missing secret means no account
func (k *KeyringStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	account := &Account{Name: name}
	for _, s := range keyringSecrets {
		v, err := keyring.Get(k.service, secretUser(name, s.field))
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("read %s from keyring: %w", s.field, err)
		}
		*s.value(account) = v
	}

	if index, err := k.index(); err == nil {
		account.LastModified = index[name]
	}
	return account, nil
}

// List returns every indexed account that still has its secrets
func (k *KeyringStore) List() ([]*Account, error) {
	index, err := k.index()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	accounts := make([]*Account, 0, len(names))
	for _, name := range names {
		account, err := k.Retrieve(name)
		if errors.Is(err, ErrCredentialsNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Delete removes the secrets of name and drops it from the index
func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	removed := 0
	for _, s := range keyringSecrets {
		err := keyring.Delete(k.service, secretUser(name, s.field))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, keyring.ErrNotFound):
		default:
			return fmt.Errorf("delete %s from keyring: %w", s.field, err)
		}
	}

	index, err := k.index()
	if err != nil {
		return err
	}
	_, indexed := index[name]
	if removed == 0 && !indexed {
		return ErrCredentialsNotFound
	}
	delete(index, name)
	return k.saveIndex(index)
}

// Exists reports whether name has a consumer key in the keychain
func (k *KeyringStore) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := keyring.Get(k.service, secretUser(name, keyringSecrets[0].field))
	return err == nil
}

func (k *KeyringStore) index() (map[string]time.Time, error) {
	data, err := keyring.Get(k.service, keyringIndexKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return map[string]time.Time{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keyring index: %w", err)
	}

	index := map[string]time.Time{}
	if err := json.Unmarshal([]byte(data), &index); err != nil {
		return nil, fmt.Errorf("decode keyring index: %w", err)
	}
	return index, nil
}

func (k *KeyringStore) saveIndex(index map[string]time.Time) error {
	if len(index) == 0 {
		err := keyring.Delete(k.service, keyringIndexKey)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("clear keyring index: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode keyring index: %w", err)
	}
	if err := keyring.Set(k.service, keyringIndexKey, string(data)); err != nil {
		return fmt.Errorf("write keyring index: %w", err)
	}
	return nil
}
