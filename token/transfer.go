package token

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Transfer moves amount base units from one account to another. The sender
// must be unlocked: the global mainsale unlock must have happened and the
// sender must not carry a reward lock. A zero amount succeeds as a no-op.
func (l *Ledger) Transfer(from, to string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkTransferable(from, to, amount); err != nil {
		l.logger.WithFields(logrus.Fields{
			"from": from, "to": to, "amount": amount,
		}).WithError(err).Warn("transfer rejected")
		return err
	}
	if amount == 0 {
		return nil
	}

	l.move(from, to, amount)
	l.emitEvent(Event{
		Type:      EventTransfer,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: time.Now(),
		TxHash:    l.generateTxHash("transfer", from+":"+to, amount),
		Metadata: map[string]interface{}{
			"from_balance": l.balances[from],
			"to_balance":   l.balances[to],
		},
	})

	l.logger.WithFields(logrus.Fields{
		"from": from, "to": to, "amount": amount,
	}).Info("transfer")
	return nil
}

// checkTransferable runs every transfer validation without mutating.
// Caller must hold the write lock.
func (l *Ledger) checkTransferable(from, to string, amount int64) error {
	if !validAddress(to) || !validAddress(from) {
		return ErrInvalidRecipient
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	if amount == 0 {
		return nil
	}
	if !l.mainSaleOpen {
		return ErrMainSaleLocked
	}
	if l.rewardLocked[from] {
		return ErrAccountLocked
	}
	if l.enforceWhitelist {
		if !l.whitelist.IsWhitelisted(from) || !l.whitelist.IsWhitelisted(to) {
			return ErrNotWhitelisted
		}
	}
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	if l.balances[to] > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	return nil
}

// move performs the debit and credit. Caller must hold the write lock and
// must have validated first.
func (l *Ledger) move(from, to string, amount int64) {
	l.balances[from] -= amount
	l.balances[to] += amount
}
