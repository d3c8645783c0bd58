package auth

import (
	"sort"
	"sync"
)

// Store operations a MockStore can be told to fail
const (
	OpStore    = "store"
	OpRetrieve = "retrieve"
	OpList     = "list"
	OpDelete   = "delete"
)

// MockStore is an in-memory CredentialStore for tests. It records every
// call and fails operations registered with FailOn.
type MockStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	failures map[string]error
	calls    []string
}

// NewMockStore creates an empty MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		accounts: map[string]Account{},
		failures: map[string]error{},
	}
}

// NewMockManager is a Manager over a single MockStore
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}

// FailOn makes op return err until cleared with a nil err
func (m *MockStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// enter records op and returns its injected failure
func (m *MockStore) enter(op string) error {
	m.calls = append(m.calls, op)
	return m.failures[op]
}

func (m *MockStore) Store(account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpStore); err != nil {
		return err
	}
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	m.accounts[account.Name] = *account
	return nil
}

func (m *MockStore) Retrieve(name string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpRetrieve); err != nil {
		return nil, err
	}
	account, ok := m.accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (m *MockStore) List() ([]*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpList); err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		account := account
		out = append(out, &account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDelete); err != nil {
		return err
	}
	if _, ok := m.accounts[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, name)
	return nil
}

func (m *MockStore) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[name]
	return ok
}

// Count is the number of stored accounts
func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

// Account returns the stored copy of name, ignoring injected failures
func (m *MockStore) Account(name string) (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[name]
	return account, ok
}

// Calls lists the operations performed so far, in order
func (m *MockStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
