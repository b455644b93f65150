package token

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

const (
	owner    = "0xOwner"
	alice    = "0xAlice"
	bob      = "0xBob"
	stranger = "0xStranger"
)

func newTestLedger() *Ledger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewLedger(owner, logger)
}

// assertSupplyInvariant checks sum(balances) == totalSupply == sum(issued).
func assertSupplyInvariant(t *testing.T, l *Ledger) {
	t.Helper()
	issued := int64(0)
	for _, cat := range []Category{CategoryAirdrop, CategoryBounty, CategorySeedPresale, CategoryMainSale} {
		issued += l.IssuedTotal(cat)
	}
	assert.Equal(t, l.TotalSupply(), l.CirculatingSupply())
	assert.Equal(t, l.TotalSupply(), issued)
}

func TestLedgerBasics(t *testing.T) {
	ledger := newTestLedger()

	t.Run("Initial supply is zero", func(t *testing.T) {
		assert.Equal(t, int64(0), ledger.TotalSupply())
	})

	t.Run("Owner is the deploying identity", func(t *testing.T) {
		assert.Equal(t, owner, ledger.Owner())
	})

	t.Run("Unknown account has zero balance", func(t *testing.T) {
		assert.Equal(t, int64(0), ledger.BalanceOf(stranger))
	})

	t.Run("Category caps are fixed", func(t *testing.T) {
		assert.Equal(t, AirdropCap, Cap(CategoryAirdrop))
		assert.Equal(t, MainSaleCap, Cap(CategoryMainSale))
		assert.Equal(t, SupplyCeiling,
			AirdropCap+BountyCap+SeedPresaleCap+MainSaleCap)
	})
}

func TestOwnershipTransfer(t *testing.T) {
	ledger := newTestLedger()

	t.Run("Non-owner cannot transfer ownership", func(t *testing.T) {
		assert.ErrorIs(t, ledger.TransferOwnership(stranger, alice), ErrUnauthorized)
	})

	t.Run("Empty new owner is rejected", func(t *testing.T) {
		assert.ErrorIs(t, ledger.TransferOwnership(owner, ""), ErrInvalidRecipient)
	})

	t.Run("Owner hands over the role", func(t *testing.T) {
		assert.NoError(t, ledger.TransferOwnership(owner, alice))
		assert.Equal(t, alice, ledger.Owner())

		// old owner lost the privilege
		assert.ErrorIs(t, ledger.UnlockMainSaleToken(owner), ErrUnauthorized)
		assert.NoError(t, ledger.UnlockMainSaleToken(alice))
	})
}

func TestHoldersWithBalance(t *testing.T) {
	ledger := newTestLedger()

	t.Run("Empty ledger has no holders", func(t *testing.T) {
		assert.Empty(t, ledger.HoldersWithBalance())
	})

	t.Run("Issued accounts are counted", func(t *testing.T) {
		assert.NoError(t, ledger.RewardAirdrop(owner, alice, 500))
		assert.NoError(t, ledger.RewardBounty(owner, bob, 700))
		assert.ElementsMatch(t, []string{alice, bob}, ledger.HoldersWithBalance())
	})

	t.Run("Drained account drops out", func(t *testing.T) {
		assert.NoError(t, ledger.UnlockMainSaleToken(owner))
		assert.NoError(t, ledger.UnlockRewardToken(owner, alice))
		assert.NoError(t, ledger.Transfer(alice, bob, 500))
		assert.ElementsMatch(t, []string{bob}, ledger.HoldersWithBalance())
	})
}

func TestWhitelistEnforcedFlag(t *testing.T) {
	ledger := newTestLedger()
	assert.False(t, ledger.WhitelistEnforced())

	wl := stubChecker{members: map[string]bool{alice: true}}
	assert.NoError(t, ledger.SetWhitelist(owner, wl, true))
	assert.True(t, ledger.WhitelistEnforced())

	assert.NoError(t, ledger.SetWhitelist(owner, wl, false))
	assert.False(t, ledger.WhitelistEnforced())
}

func TestSupplyInvariantAfterMixedOperations(t *testing.T) {
	ledger := newTestLedger()

	assert.NoError(t, ledger.RewardAirdrop(owner, alice, 500))
	assert.NoError(t, ledger.RewardBounty(owner, bob, 700))
	assert.NoError(t, ledger.HandlePresaleToken(owner, alice, 3))
	assert.NoError(t, ledger.SetSaleController(owner, "ico"))
	assert.NoError(t, ledger.CreditMainSale("ico", bob, 300))
	assertSupplyInvariant(t, ledger)

	assert.NoError(t, ledger.UnlockMainSaleToken(owner))
	assert.NoError(t, ledger.UnlockRewardToken(owner, alice))
	assert.NoError(t, ledger.Transfer(alice, bob, 500))
	assertSupplyInvariant(t, ledger)

	// rejected operations must not disturb the invariant
	assert.Error(t, ledger.RewardAirdrop(owner, alice, AirdropCap))
	assert.Error(t, ledger.Transfer(alice, bob, 1<<40))
	assertSupplyInvariant(t, ledger)
}
