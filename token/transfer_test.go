package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fundUnlocked issues presale tokens and opens transfers globally.
func fundUnlocked(t *testing.T, l *Ledger, account string, units int64) {
	t.Helper()
	require.NoError(t, l.HandlePresaleToken(owner, account, units))
	require.NoError(t, l.UnlockMainSaleToken(owner))
}

func TestTransfer(t *testing.T) {
	t.Run("Transfer to the null identity is rejected", func(t *testing.T) {
		ledger := newTestLedger()
		assert.ErrorIs(t, ledger.Transfer(alice, "", 1), ErrInvalidRecipient)
	})

	t.Run("Transfer from the null identity is rejected", func(t *testing.T) {
		ledger := newTestLedger()
		assert.ErrorIs(t, ledger.Transfer("", alice, 1), ErrInvalidRecipient)
	})

	t.Run("Negative amount is rejected", func(t *testing.T) {
		ledger := newTestLedger()
		assert.ErrorIs(t, ledger.Transfer(alice, bob, -1), ErrNegativeAmount)
	})

	t.Run("Zero amount succeeds as a no-op", func(t *testing.T) {
		ledger := newTestLedger()
		// even while everything is still locked
		assert.NoError(t, ledger.Transfer(alice, bob, 0))
		assert.Equal(t, int64(0), ledger.BalanceOf(bob))
		assert.Empty(t, ledger.EventsByType(EventTransfer))
	})

	t.Run("Empty account cannot fund a transfer", func(t *testing.T) {
		ledger := newTestLedger()
		require.NoError(t, ledger.UnlockMainSaleToken(owner))
		assert.ErrorIs(t, ledger.Transfer(alice, bob, 1), ErrInsufficientBalance)
	})

	t.Run("Exact balance transfer drains the sender", func(t *testing.T) {
		ledger := newTestLedger()
		fundUnlocked(t, ledger, alice, 3)

		assert.NoError(t, ledger.Transfer(alice, bob, 300))
		assert.Equal(t, int64(0), ledger.BalanceOf(alice))
		assert.Equal(t, int64(300), ledger.BalanceOf(bob))
		assertSupplyInvariant(t, ledger)
	})

	t.Run("One unit over balance is rejected", func(t *testing.T) {
		ledger := newTestLedger()
		fundUnlocked(t, ledger, alice, 3)

		assert.ErrorIs(t, ledger.Transfer(alice, bob, 301), ErrInsufficientBalance)
		assert.Equal(t, int64(300), ledger.BalanceOf(alice))
	})

	t.Run("Transfer emits the notification", func(t *testing.T) {
		ledger := newTestLedger()
		fundUnlocked(t, ledger, alice, 3)
		require.NoError(t, ledger.Transfer(alice, bob, 100))

		events := ledger.EventsByType(EventTransfer)
		last := events[len(events)-1]
		assert.Equal(t, alice, last.From)
		assert.Equal(t, bob, last.To)
		assert.Equal(t, int64(100), last.Amount)
		assert.NotEmpty(t, last.TxHash)
	})
}

type stubChecker struct {
	members map[string]bool
}

func (s stubChecker) IsWhitelisted(account string) bool {
	return s.members[account]
}

func TestWhitelistGating(t *testing.T) {
	t.Run("Gating off ignores membership", func(t *testing.T) {
		ledger := newTestLedger()
		fundUnlocked(t, ledger, alice, 3)
		assert.NoError(t, ledger.Transfer(alice, bob, 100))
	})

	t.Run("Gating on requires both parties", func(t *testing.T) {
		ledger := newTestLedger()
		fundUnlocked(t, ledger, alice, 3)
		wl := stubChecker{members: map[string]bool{alice: true}}
		require.NoError(t, ledger.SetWhitelist(owner, wl, true))

		assert.ErrorIs(t, ledger.Transfer(alice, bob, 100), ErrNotWhitelisted)

		wl.members[bob] = true
		assert.NoError(t, ledger.Transfer(alice, bob, 100))
	})

	t.Run("Only the owner may change the policy", func(t *testing.T) {
		ledger := newTestLedger()
		err := ledger.SetWhitelist(stranger, stubChecker{}, true)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestLocks(t *testing.T) {
	t.Run("Reward unlock is owner-only and idempotent", func(t *testing.T) {
		ledger := newTestLedger()
		assert.ErrorIs(t, ledger.UnlockRewardToken(stranger, alice), ErrUnauthorized)

		assert.NoError(t, ledger.UnlockRewardToken(owner, alice))
		assert.NoError(t, ledger.UnlockRewardToken(owner, alice))
		assert.False(t, ledger.IsRewardLocked(alice))
	})

	t.Run("Mainsale unlock is owner-only, one-way and idempotent", func(t *testing.T) {
		ledger := newTestLedger()
		assert.ErrorIs(t, ledger.UnlockMainSaleToken(stranger), ErrUnauthorized)
		assert.False(t, ledger.MainSaleUnlocked())

		assert.NoError(t, ledger.UnlockMainSaleToken(owner))
		assert.NoError(t, ledger.UnlockMainSaleToken(owner))
		assert.True(t, ledger.MainSaleUnlocked())
	})
}
