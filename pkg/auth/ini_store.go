package auth

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// INISection is the section holding the four secrets in credentials.txt
const INISection = "TWITTER-TOOL"

var iniKeys = []string{"consumer_key", "consumer_secret", "access_token_key", "access_token_secret"}

// INIFileStore reads and writes the single anonymous account of a
// credentials.txt file:
//
//	[TWITTER-TOOL]
//	consumer_key = ...
//	consumer_secret = ...
//	access_token_key = ...
//	access_token_secret = ...
type INIFileStore struct {
	path string
}

// NewINIFileStore creates a store for path. The file need not exist yet.
func NewINIFileStore(path string) *INIFileStore {
	return &INIFileStore{path: path}
}

// Path is the file the store reads
func (s *INIFileStore) Path() string {
	return s.path
}

// Store writes the account's secrets into the section, keeping the rest of
// the file
func (s *INIFileStore) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	file, err := s.open()
	if err != nil {
		return err
	}

	section := file.Section(INISection)
	values := []string{account.ConsumerKey, account.ConsumerSecret, account.AccessTokenKey, account.AccessTokenSecret}
	for i, key := range iniKeys {
		section.Key(key).SetValue(values[i])
	}

	if err := file.SaveTo(s.path); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return os.Chmod(s.path, 0600)
}

// Retrieve returns the file's account under the requested name
func (s *INIFileStore) Retrieve(name string) (*Account, error) {
	file, err := ini.Load(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	section, err := file.GetSection(INISection)
	if err != nil {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultAccount
	}
	account := &Account{
		Name:              name,
		ConsumerKey:       section.Key("consumer_key").String(),
		ConsumerSecret:    section.Key("consumer_secret").String(),
		AccessTokenKey:    section.Key("access_token_key").String(),
		AccessTokenSecret: section.Key("access_token_secret").String(),
	}
	if info, err := os.Stat(s.path); err == nil {
		account.LastModified = info.ModTime()
	}
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, s.path, err)
	}
	return account, nil
}

// List returns the file's account as "default"
func (s *INIFileStore) List() ([]*Account, error) {
	account, err := s.Retrieve(DefaultAccount)
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete removes the section, and the file once nothing else is left in it
func (s *INIFileStore) Delete(name string) error {
	file, err := ini.Load(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if _, err := file.GetSection(INISection); err != nil {
		return ErrCredentialsNotFound
	}

	file.DeleteSection(INISection)
	if len(file.Sections()) == 1 && len(file.Section(ini.DefaultSection).Keys()) == 0 {
		return os.Remove(s.path)
	}
	return file.SaveTo(s.path)
}

// Exists checks if the file holds a complete account
func (s *INIFileStore) Exists(name string) bool {
	_, err := s.Retrieve(name)
	return err == nil
}

func (s *INIFileStore) open() (*ini.File, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return ini.Empty(), nil
	}
	file, err := ini.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return file, nil
}
