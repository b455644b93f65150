package token

// Owner returns the current owner identity.
func (l *Ledger) Owner() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

// TransferOwnership hands the owner role to another identity. Owner-only.
func (l *Ledger) TransferOwnership(caller, newOwner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	if !validAddress(newOwner) {
		return ErrInvalidRecipient
	}
	l.logger.WithField("new_owner", newOwner).Info("ownership transferred")
	l.owner = newOwner
	return nil
}
