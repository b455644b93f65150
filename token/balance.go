package token

// TotalSupply returns the number of base units in existence.
func (l *Ledger) TotalSupply() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply
}

// BalanceOf returns the balance of an account, zero for unknown accounts.
func (l *Ledger) BalanceOf(account string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account]
}

// IssuedTotal returns how many base units a channel has minted so far.
func (l *Ledger) IssuedTotal(category Category) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.issued[category]
}

// RemainingInCategory returns cap minus issued for a channel.
func (l *Ledger) RemainingInCategory(category Category) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return categoryCaps[category] - l.issued[category]
}

// Cap returns the immutable cap of a channel, zero for unknown ones.
func Cap(category Category) int64 {
	return categoryCaps[category]
}

// CirculatingSupply recomputes supply from balances. Used by tests and the
// status endpoint to cross-check the totalSupply counter.
func (l *Ledger) CirculatingSupply() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	supply := int64(0)
	for _, balance := range l.balances {
		supply += balance
	}
	return supply
}

// HoldersWithBalance returns every address holding a non-zero balance.
func (l *Ledger) HoldersWithBalance() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	addresses := make([]string, 0, len(l.balances))
	for addr, balance := range l.balances {
		if balance > 0 {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}
