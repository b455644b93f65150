package gateway

import (
	"io"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocknova/tokensale/sale"
	"github.com/blocknova/tokensale/storage"
	"github.com/blocknova/tokensale/token"
)

const (
	owner  = "0xOwner"
	saleID = "ico-controller"
	buyer  = "0xBuyer"
)

// referencePayment converts to exactly 3 base units at rate 40000.
var referencePayment = big.NewInt(1_500_000_000_000)

func newWatcherFixture(t *testing.T) (*DepositWatcher, *token.Ledger, *sale.Controller, *storage.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := storage.Open(filepath.Join(t.TempDir(), "state.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ledger := token.NewLedger(owner, logger)
	require.NoError(t, ledger.SetSaleController(owner, saleID))

	controller := sale.NewController(owner, saleID, logger)
	require.NoError(t, controller.StartICO(owner, 40000, ledger))

	watcher := &DepositWatcher{
		sale:   controller,
		replay: store,
		logger: logger,
	}
	return watcher, ledger, controller, store
}

func TestHandleDepositCreditsOnce(t *testing.T) {
	watcher, ledger, controller, store := newWatcherFixture(t)

	require.NoError(t, watcher.handleDeposit("0xtx1", buyer, referencePayment))
	assert.Equal(t, int64(3), ledger.BalanceOf(buyer))
	assert.Equal(t, referencePayment.String(), controller.Proceeds().String())

	seen, err := store.IsDepositProcessed("0xtx1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Replaying the same transaction hash must not credit again.
	require.NoError(t, watcher.handleDeposit("0xtx1", buyer, referencePayment))
	assert.Equal(t, int64(3), ledger.BalanceOf(buyer))
	assert.Equal(t, referencePayment.String(), controller.Proceeds().String())
}

func TestHandleDepositDistinctTransactions(t *testing.T) {
	watcher, ledger, controller, _ := newWatcherFixture(t)

	require.NoError(t, watcher.handleDeposit("0xtx1", buyer, referencePayment))
	require.NoError(t, watcher.handleDeposit("0xtx2", buyer, referencePayment))

	assert.Equal(t, int64(6), ledger.BalanceOf(buyer))
	expected := new(big.Int).Mul(referencePayment, big.NewInt(2))
	assert.Equal(t, expected.String(), controller.Proceeds().String())
}

func TestHandleDepositRejectedStillMarked(t *testing.T) {
	watcher, ledger, controller, store := newWatcherFixture(t)

	// One wei floors to zero tokens; the sale rejects it and the payer
	// keeps custody on-chain, so the deposit is terminal.
	require.NoError(t, watcher.handleDeposit("0xdust", buyer, big.NewInt(1)))
	assert.Equal(t, int64(0), ledger.BalanceOf(buyer))
	assert.Equal(t, "0", controller.Proceeds().String())

	seen, err := store.IsDepositProcessed("0xdust")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestHandleDepositSurvivesRestart(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	path := filepath.Join(t.TempDir(), "state.db")
	store, err := storage.Open(path, logger)
	require.NoError(t, err)

	ledger := token.NewLedger(owner, logger)
	require.NoError(t, ledger.SetSaleController(owner, saleID))
	controller := sale.NewController(owner, saleID, logger)
	require.NoError(t, controller.StartICO(owner, 40000, ledger))

	watcher := &DepositWatcher{sale: controller, replay: store, logger: logger}
	require.NoError(t, watcher.handleDeposit("0xtx1", buyer, referencePayment))
	require.NoError(t, store.SaveGatewayCursor(100))
	require.NoError(t, store.Close())

	// Reopen the same database file, as a restarted daemon would.
	reopened, err := storage.Open(path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	cursor, err := reopened.LoadGatewayCursor()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), cursor, "restart resumes from the persisted block")

	restarted := &DepositWatcher{sale: controller, replay: reopened, logger: logger}
	require.NoError(t, restarted.handleDeposit("0xtx1", buyer, referencePayment))
	assert.Equal(t, int64(3), ledger.BalanceOf(buyer), "re-scanned deposit is not credited twice")
}
