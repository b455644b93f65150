// Package gateway watches an Ethereum deposit address and turns incoming
// payments into sale purchases.
package gateway

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/blocknova/tokensale/sale"
)

// ReplayStore persists which deposits have been handled and how far the
// block scan has advanced, so a restarted watcher never feeds the same
// deposit into the sale twice.
type ReplayStore interface {
	LoadGatewayCursor() (uint64, error)
	SaveGatewayCursor(block uint64) error
	IsDepositProcessed(txHash string) (bool, error)
	MarkDepositProcessed(txHash string) error
}

// DepositWatcher polls for new blocks and credits any transaction paying
// the deposit address through the sale controller. A purchase the sale
// rejects (inactive, cap, dust) is logged and skipped; the sender keeps
// their payment on-chain since the controller never took custody.
type DepositWatcher struct {
	client      *ethclient.Client
	depositAddr common.Address
	sale        *sale.Controller
	replay      ReplayStore
	signer      types.Signer

	interval  time.Duration
	lastBlock uint64
	running   bool
	stopChan  chan struct{}

	logger *logrus.Logger
}

// NewDepositWatcher connects to the Ethereum RPC endpoint and prepares a
// watcher for the given deposit address, resuming from the persisted block
// cursor.
func NewDepositWatcher(rpcURL, depositAddr string, s *sale.Controller, replay ReplayStore, interval time.Duration, logger *logrus.Logger) (*DepositWatcher, error) {
	if logger == nil {
		logger = logrus.New()
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to Ethereum: %w", err)
	}
	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("fetching chain id: %w", err)
	}
	cursor, err := replay.LoadGatewayCursor()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DepositWatcher{
		client:      client,
		depositAddr: common.HexToAddress(depositAddr),
		sale:        s,
		replay:      replay,
		signer:      types.LatestSignerForChainID(chainID),
		interval:    interval,
		lastBlock:   cursor,
		stopChan:    make(chan struct{}),
		logger:      logger,
	}, nil
}

// Start begins polling in a background goroutine.
func (w *DepositWatcher) Start() error {
	if w.running {
		return fmt.Errorf("deposit watcher already running")
	}
	w.running = true
	go w.pollLoop()
	w.logger.WithFields(logrus.Fields{
		"deposit_address": w.depositAddr.Hex(), "cursor": w.lastBlock,
	}).Info("deposit watcher started")
	return nil
}

// Stop halts the polling loop.
func (w *DepositWatcher) Stop() {
	if !w.running {
		return
	}
	w.running = false
	close(w.stopChan)
	w.logger.Info("deposit watcher stopped")
}

func (w *DepositWatcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.processNewBlocks(); err != nil {
				w.logger.WithError(err).Warn("error processing blocks")
			}
		}
	}
}

func (w *DepositWatcher) processNewBlocks() error {
	ctx := context.Background()

	currentBlock, err := w.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("fetching current block: %w", err)
	}
	if w.lastBlock == 0 && currentBlock > 10 {
		w.lastBlock = currentBlock - 10
	}

	for blockNum := w.lastBlock + 1; blockNum <= currentBlock; blockNum++ {
		if err := w.processBlock(ctx, blockNum); err != nil {
			w.logger.WithFields(logrus.Fields{
				"block": blockNum,
			}).WithError(err).Warn("block will be retried")
			break
		}
		w.lastBlock = blockNum
		if err := w.replay.SaveGatewayCursor(blockNum); err != nil {
			w.logger.WithError(err).Warn("could not persist block cursor")
		}
	}
	return nil
}

func (w *DepositWatcher) processBlock(ctx context.Context, blockNum uint64) error {
	block, err := w.client.BlockByNumber(ctx, new(big.Int).SetUint64(blockNum))
	if err != nil {
		return fmt.Errorf("fetching block %d: %w", blockNum, err)
	}

	for _, tx := range block.Transactions() {
		if tx.To() == nil || *tx.To() != w.depositAddr {
			continue
		}
		if tx.Value().Sign() <= 0 {
			continue
		}
		sender, err := types.Sender(w.signer, tx)
		if err != nil {
			w.logger.WithField("tx", tx.Hash().Hex()).WithError(err).Warn("cannot recover sender")
			continue
		}
		if err := w.handleDeposit(tx.Hash().Hex(), sender.Hex(), tx.Value()); err != nil {
			return err
		}
	}
	return nil
}

// handleDeposit converts one deposit into a purchase exactly once. Deposits
// the sale rejects are marked processed as well: the rejection is terminal
// (stopped sale, exhausted cap, dust) and the payer kept custody on-chain.
// A replay-store failure is returned so the block is retried rather than
// risking a double credit.
func (w *DepositWatcher) handleDeposit(txHash, payer string, value *big.Int) error {
	seen, err := w.replay.IsDepositProcessed(txHash)
	if err != nil {
		return err
	}
	if seen {
		w.logger.WithField("tx", txHash).Debug("deposit already processed")
		return nil
	}

	tokens, err := w.sale.Purchase(payer, value)
	if err != nil {
		w.logger.WithFields(logrus.Fields{
			"tx": txHash, "payer": payer, "value": value.String(),
		}).WithError(err).Warn("deposit did not convert")
	} else {
		w.logger.WithFields(logrus.Fields{
			"tx": txHash, "payer": payer,
			"value": value.String(), "tokens": tokens,
		}).Info("deposit converted to tokens")
	}
	return w.replay.MarkDepositProcessed(txHash)
}
