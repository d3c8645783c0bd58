package auth

import (
	"errors"
	"fmt"

	"tweetsweep/pkg/config"
)

// Source names where resolved credentials came from
type Source string

const (
	SourceConfig  Source = "config"
	SourceINIFile Source = "credentials file"
	SourceStored  Source = "stored account"
)

// Resolve finds the credentials for a run: complete secrets in cfg (file,
// environment or flags) win, then the legacy INI file, then the named
// stored account, or the default one when name is empty. mgr may be nil.
func Resolve(cfg config.TwitterConfig, mgr *Manager, name string) (*Account, Source, error) {
	if cfg.HasCredentials() {
		if name == "" {
			name = DefaultAccount
		}
		return &Account{
			Name:              name,
			ConsumerKey:       cfg.ConsumerKey,
			ConsumerSecret:    cfg.ConsumerSecret,
			AccessTokenKey:    cfg.AccessTokenKey,
			AccessTokenSecret: cfg.AccessTokenSecret,
		}, SourceConfig, nil
	}

	if cfg.CredentialsFile != "" && name == "" {
		account, err := NewINIFileStore(cfg.CredentialsFile).Retrieve(DefaultAccount)
		if err == nil {
			return account, SourceINIFile, nil
		}
		if !errors.Is(err, ErrCredentialsNotFound) {
			return nil, "", err
		}
	}

	if mgr == nil {
		return nil, "", ErrCredentialsNotFound
	}

	var account *Account
	var err error
	if name == "" {
		account, err = mgr.RetrieveDefault()
	} else {
		account, err = mgr.Retrieve(name)
	}
	if err != nil {
		return nil, "", fmt.Errorf("no Twitter credentials configured (run 'tweetsweep auth login' or create %s): %w",
			orDefault(cfg.CredentialsFile, "credentials.txt"), err)
	}
	return account, SourceStored, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
