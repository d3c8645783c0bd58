package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvConsumerKey       = "TWEETSWEEP_CONSUMER_KEY"
	EnvConsumerSecret    = "TWEETSWEEP_CONSUMER_SECRET"
	EnvAccessTokenKey    = "TWEETSWEEP_ACCESS_TOKEN_KEY"
	EnvAccessTokenSecret = "TWEETSWEEP_ACCESS_TOKEN_SECRET"
)

// EnvironmentStore reads one account from TWEETSWEEP_* variables. It is
// read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account under whatever name is asked for
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	account := &Account{
		Name:              name,
		ConsumerKey:       os.Getenv(EnvConsumerKey),
		ConsumerSecret:    os.Getenv(EnvConsumerSecret),
		AccessTokenKey:    os.Getenv(EnvAccessTokenKey),
		AccessTokenSecret: os.Getenv(EnvAccessTokenSecret),
		LastModified:      time.Now(),
	}
	if account.Name == "" {
		account.Name = DefaultAccount
	}
	if account.Validate() != nil {
		return nil, ErrCredentialsNotFound
	}
	return account, nil
}

// List returns a single account if the variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
