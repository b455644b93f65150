package token

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Approve sets the allowance of spender over owner's tokens. Overwrite
// semantics: a later approval replaces the previous one entirely. Amounts
// above the supply ceiling are rejected as implausible.
func (l *Ledger) Approve(owner, spender string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !validAddress(owner) || !validAddress(spender) {
		return ErrInvalidRecipient
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	if amount > SupplyCeiling {
		return ErrAmountExceedsSupply
	}

	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]int64)
	}
	oldAllowance := l.allowances[owner][spender]
	l.allowances[owner][spender] = amount

	l.emitEvent(Event{
		Type:      EventApproval,
		From:      owner,
		To:        spender,
		Amount:    amount,
		Timestamp: time.Now(),
		TxHash:    l.generateTxHash("approval", owner+":"+spender, amount),
		Metadata: map[string]interface{}{
			"old_allowance": oldAllowance,
			"new_allowance": amount,
		},
	})

	l.logger.WithFields(logrus.Fields{
		"owner": owner, "spender": spender, "amount": amount,
	}).Info("approval")
	return nil
}

// Allowance returns the remaining spend authorization of spender over
// owner's tokens.
func (l *Ledger) Allowance(owner, spender string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.allowances[owner] == nil {
		return 0
	}
	return l.allowances[owner][spender]
}

// TransferFrom moves amount from `from` to `to` on behalf of spender,
// consuming allowance. All transfer validations apply on top of the
// allowance check.
func (l *Ledger) TransferFrom(spender, from, to string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkTransferable(from, to, amount); err != nil {
		l.logger.WithFields(logrus.Fields{
			"spender": spender, "from": from, "to": to, "amount": amount,
		}).WithError(err).Warn("transferFrom rejected")
		return err
	}
	if !validAddress(spender) {
		return ErrInvalidRecipient
	}
	if l.allowances[from][spender] < amount {
		l.logger.WithFields(logrus.Fields{
			"spender": spender, "from": from, "amount": amount,
			"allowance": l.allowances[from][spender],
		}).Warn("transferFrom rejected: allowance exceeded")
		return ErrAllowanceExceeded
	}
	if amount == 0 {
		return nil
	}

	l.allowances[from][spender] -= amount
	l.move(from, to, amount)

	l.emitEvent(Event{
		Type:      EventTransfer,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: time.Now(),
		TxHash:    l.generateTxHash("transferFrom", from+":"+to, amount),
		Metadata: map[string]interface{}{
			"spender":             spender,
			"remaining_allowance": l.allowances[from][spender],
		},
	})

	l.logger.WithFields(logrus.Fields{
		"spender": spender, "from": from, "to": to, "amount": amount,
	}).Info("transferFrom")
	return nil
}
