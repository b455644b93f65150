package token

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// RewardAirdrop mints airdrop-channel tokens to an account. Owner-only.
// The recipient's tokens are reward-locked until explicitly unlocked.
func (l *Ledger) RewardAirdrop(caller, account string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	return l.issue(CategoryAirdrop, account, amount, true)
}

// RewardBounty mints bounty-channel tokens to an account. Owner-only.
// The recipient's tokens are reward-locked until explicitly unlocked.
func (l *Ledger) RewardBounty(caller, account string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	return l.issue(CategoryBounty, account, amount, true)
}

// HandlePresaleToken mints seed/presale tokens. The amount arrives without
// decimal places and is scaled by 10^DecimalPlaces on entry. Presale tokens
// carry no per-account reward lock; only the global mainsale unlock gates
// them. Owner-only.
func (l *Ledger) HandlePresaleToken(caller, account string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	scaled, err := scalePresale(amount)
	if err != nil {
		return err
	}
	return l.issue(CategorySeedPresale, account, scaled, false)
}

// HandlePresaleTokenMany is the atomic batch form of HandlePresaleToken.
// Ragged input fails with ErrLengthMismatch; if any single entry would be
// rejected, no entry is applied.
func (l *Ledger) HandlePresaleTokenMany(caller string, accounts []string, amounts []int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	if len(accounts) != len(amounts) {
		return ErrLengthMismatch
	}

	scaled := make([]int64, len(amounts))
	batchTotal := int64(0)
	for i, amount := range amounts {
		s, err := scalePresale(amount)
		if err != nil {
			return err
		}
		if !validAddress(accounts[i]) {
			return ErrInvalidRecipient
		}
		if batchTotal > math.MaxInt64-s {
			return ErrBalanceOverflow
		}
		scaled[i] = s
		batchTotal += s
	}
	if l.issued[CategorySeedPresale] > SeedPresaleCap-batchTotal {
		return ErrCapExceeded
	}

	// All entries validated; apply the whole batch.
	for i, account := range accounts {
		if err := l.issue(CategorySeedPresale, account, scaled[i], false); err != nil {
			// Unreachable after the validation pass above.
			return err
		}
	}
	return nil
}

// CreditMainSale mints mainsale-channel tokens for a sale purchase. Only the
// registered sale controller identity may call it.
func (l *Ledger) CreditMainSale(caller, account string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.saleController == "" || caller != l.saleController {
		return ErrNotSaleController
	}
	return l.issue(CategoryMainSale, account, amount, false)
}

// SetSaleController registers the only identity allowed to invoke
// CreditMainSale. Owner-only.
func (l *Ledger) SetSaleController(caller, controller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	if !validAddress(controller) {
		return ErrInvalidRecipient
	}
	l.saleController = controller
	l.logger.WithField("controller", controller).Info("sale controller registered")
	return nil
}

// SaleController returns the registered sale controller identity.
func (l *Ledger) SaleController() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.saleController
}

func scalePresale(amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}
	if amount > math.MaxInt64/presaleMultiplier {
		return 0, ErrAmountExceedsSupply
	}
	return amount * presaleMultiplier, nil
}

// issue credits freshly minted units to an account and advances the
// channel's counter together with total supply, keeping
// sum(balances) == totalSupply == sum(issued). Caller must hold the write
// lock and have authorized the caller identity.
func (l *Ledger) issue(category Category, account string, amount int64, lockReward bool) error {
	if !validAddress(account) {
		return ErrInvalidRecipient
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	if amount > SupplyCeiling {
		return ErrAmountExceedsSupply
	}
	if l.issued[category] > categoryCaps[category]-amount {
		l.logger.WithFields(logrus.Fields{
			"category": category, "issued": l.issued[category],
			"cap": categoryCaps[category], "amount": amount,
		}).Warn("issuance rejected: cap exceeded")
		return ErrCapExceeded
	}
	if l.balances[account] > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}

	l.balances[account] += amount
	l.issued[category] += amount
	l.totalSupply += amount
	if lockReward && !l.rewardUnlocked[account] {
		l.rewardLocked[account] = true
	}

	l.emitEvent(Event{
		Type:      EventTransfer,
		To:        account,
		Amount:    amount,
		Timestamp: time.Now(),
		TxHash:    l.generateTxHash("issue_"+string(category), account, amount),
		Metadata: map[string]interface{}{
			"category":     category,
			"issued_total": l.issued[category],
			"total_supply": l.totalSupply,
		},
	})

	l.logger.WithFields(logrus.Fields{
		"category": category, "account": account, "amount": amount,
		"issued_total": l.issued[category],
	}).Info("tokens issued")
	return nil
}
