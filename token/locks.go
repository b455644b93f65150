package token

// UnlockRewardToken clears the reward lock on an account. Owner-only,
// idempotent, and sticky: later reward issuance to an explicitly unlocked
// account does not re-lock it.
func (l *Ledger) UnlockRewardToken(caller, account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	if !validAddress(account) {
		return ErrInvalidRecipient
	}
	l.rewardLocked[account] = false
	l.rewardUnlocked[account] = true
	l.logger.WithField("account", account).Info("reward tokens unlocked")
	return nil
}

// UnlockMainSaleToken opens transfers globally. Owner-only, one-way,
// idempotent.
func (l *Ledger) UnlockMainSaleToken(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	l.mainSaleOpen = true
	l.logger.Info("mainsale tokens unlocked")
	return nil
}

// IsRewardLocked reports whether an account's reward tokens are locked.
func (l *Ledger) IsRewardLocked(account string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rewardLocked[account]
}

// MainSaleUnlocked reports whether the global mainsale unlock has happened.
func (l *Ledger) MainSaleUnlocked() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mainSaleOpen
}
