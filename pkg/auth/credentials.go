package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"tweetsweep/pkg/twitter"
)

// DefaultAccount names credentials that were not given a name
const DefaultAccount = "default"

// Account is one set of OAuth 1.0a secrets for the Twitter API
type Account struct {
	Name              string    `json:"name"`
	ConsumerKey       string    `json:"consumer_key"`
	ConsumerSecret    string    `json:"consumer_secret"`
	AccessTokenKey    string    `json:"access_token_key"`
	AccessTokenSecret string    `json:"access_token_secret"`
	LastModified      time.Time `json:"last_modified"`
}

// Validate reports the first missing secret
func (a *Account) Validate() error {
	switch {
	case a == nil:
		return ErrInvalidCredentials
	case a.Name == "":
		return errors.New("account name is required")
	case a.ConsumerKey == "":
		return errors.New("consumer key is required")
	case a.ConsumerSecret == "":
		return errors.New("consumer secret is required")
	case a.AccessTokenKey == "":
		return errors.New("access token key is required")
	case a.AccessTokenSecret == "":
		return errors.New("access token secret is required")
	}
	return nil
}

// Credentials converts the account for the API client
func (a *Account) Credentials() twitter.Credentials {
	return twitter.Credentials{
		ConsumerKey:       a.ConsumerKey,
		ConsumerSecret:    a.ConsumerSecret,
		AccessTokenKey:    a.AccessTokenKey,
		AccessTokenSecret: a.AccessTokenSecret,
	}
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific account name
	Retrieve(name string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific account name
	Delete(name string) error

	// Exists checks if credentials exist for an account name
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager over the keyring (when usable),
// an encrypted file, the environment and the legacy INI file at iniPath.
// An empty iniPath leaves the INI file out.
func NewManager(iniPath string) (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())
	if iniPath != "" {
		stores = append(stores, NewINIFileStore(iniPath))
	}

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores is a Manager searching stores in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials in the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault returns the "default" account, or the first one any store
// lists.
func (m *Manager) RetrieveDefault() (*Account, error) {
	if account, err := m.Retrieve(DefaultAccount); err == nil {
		return account, nil
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns all stored accounts from all stores, sorted by name
func (m *Manager) List() ([]*Account, error) {
	accountMap := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			// Use the most recently modified version
			if existing, ok := accountMap[account.Name]; !ok || account.LastModified.After(existing.LastModified) {
				accountMap[account.Name] = account
			}
		}
	}

	result := make([]*Account, 0, len(accountMap))
	for _, account := range accountMap {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "tweetsweep")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "tweetsweep")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "tweetsweep")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "tweetsweep")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount creates a copy of the account with secrets masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Name:              account.Name,
		ConsumerKey:       maskString(account.ConsumerKey),
		ConsumerSecret:    maskString(account.ConsumerSecret),
		AccessTokenKey:    maskString(account.AccessTokenKey),
		AccessTokenSecret: maskString(account.AccessTokenSecret),
		LastModified:      account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
