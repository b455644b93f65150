// Package whitelist implements the owner-managed address allow-list the
// ledger consults when transfer gating is enabled.
package whitelist

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/blocknova/tokensale/token"
)

// Manager is a boolean membership map with owner-only mutation. It
// satisfies token.Checker.
type Manager struct {
	owner   string
	members map[string]bool
	logger  *logrus.Logger
	mu      sync.RWMutex
}

func NewManager(owner string, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		owner:   owner,
		members: make(map[string]bool),
		logger:  logger,
	}
}

// IsWhitelisted reports membership. Always succeeds; unknown addresses are
// simply not members.
func (m *Manager) IsWhitelisted(account string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.members[account]
}

// Set adds an account to the whitelist. Owner-only, idempotent.
func (m *Manager) Set(caller, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(caller, account)
}

// Unset removes an account from the whitelist. Owner-only, idempotent.
func (m *Manager) Unset(caller, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unset(caller, account)
}

// SetMany adds several accounts at once. Any invalid entry rejects the
// whole batch.
func (m *Manager) SetMany(caller string, accounts []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateBatch(caller, accounts); err != nil {
		return err
	}
	for _, account := range accounts {
		m.members[account] = true
	}
	m.logger.WithField("count", len(accounts)).Info("whitelist batch set")
	return nil
}

// UnsetMany removes several accounts at once. Any invalid entry rejects the
// whole batch.
func (m *Manager) UnsetMany(caller string, accounts []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateBatch(caller, accounts); err != nil {
		return err
	}
	for _, account := range accounts {
		delete(m.members, account)
	}
	m.logger.WithField("count", len(accounts)).Info("whitelist batch unset")
	return nil
}

// Members returns a copy of the current member set.
func (m *Manager) Members() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.members))
	for account := range m.members {
		out = append(out, account)
	}
	return out
}

// Restore replaces the member set from persisted state.
func (m *Manager) Restore(members []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.members = make(map[string]bool, len(members))
	for _, account := range members {
		m.members[account] = true
	}
}

func (m *Manager) set(caller, account string) error {
	if caller != m.owner {
		return token.ErrUnauthorized
	}
	if account == "" {
		return token.ErrInvalidRecipient
	}
	m.members[account] = true
	m.logger.WithField("account", account).Info("whitelisted")
	return nil
}

func (m *Manager) unset(caller, account string) error {
	if caller != m.owner {
		return token.ErrUnauthorized
	}
	if account == "" {
		return token.ErrInvalidRecipient
	}
	delete(m.members, account)
	m.logger.WithField("account", account).Info("removed from whitelist")
	return nil
}

func (m *Manager) validateBatch(caller string, accounts []string) error {
	if caller != m.owner {
		return token.ErrUnauthorized
	}
	for _, account := range accounts {
		if account == "" {
			return token.ErrInvalidRecipient
		}
	}
	return nil
}
