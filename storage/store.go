// Package storage persists ledger, whitelist and sale state across process
// restarts using bbolt snapshots.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"github.com/blocknova/tokensale/sale"
	"github.com/blocknova/tokensale/token"
)

var (
	bucketLedger    = []byte("ledger")
	bucketSale      = []byte("sale")
	bucketWhitelist = []byte("whitelist")
	bucketGateway   = []byte("gateway")
	bucketDeposits  = []byte("processed_deposits")

	keySnapshot = []byte("snapshot")
	keyCursor   = []byte("cursor")
)

// Store wraps a bbolt database holding one snapshot per component.
type Store struct {
	db     *bbolt.DB
	logger *logrus.Logger
}

// Open opens or creates the database file and ensures all buckets exist.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketLedger, bucketSale, bucketWhitelist, bucketGateway, bucketDeposits} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	logger.WithField("path", path).Info("state database opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLedger writes the ledger snapshot in one transaction.
func (s *Store) SaveLedger(snap token.Snapshot) error {
	return s.save(bucketLedger, snap)
}

// LoadLedger reads the ledger snapshot. Returns (nil, nil) when nothing has
// been saved yet.
func (s *Store) LoadLedger() (*token.Snapshot, error) {
	var snap token.Snapshot
	found, err := s.load(bucketLedger, &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}

// SaveSale writes the sale controller snapshot.
func (s *Store) SaveSale(snap sale.Snapshot) error {
	return s.save(bucketSale, snap)
}

// LoadSale reads the sale controller snapshot, (nil, nil) when absent.
func (s *Store) LoadSale() (*sale.Snapshot, error) {
	var snap sale.Snapshot
	found, err := s.load(bucketSale, &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}

// SaveWhitelist writes the whitelist member set.
func (s *Store) SaveWhitelist(members []string) error {
	return s.save(bucketWhitelist, members)
}

// LoadWhitelist reads the whitelist member set, nil when absent.
func (s *Store) LoadWhitelist() ([]string, error) {
	var members []string
	found, err := s.load(bucketWhitelist, &members)
	if err != nil || !found {
		return nil, err
	}
	return members, nil
}

// SaveGatewayCursor records the last fully processed payment-chain block so
// a restarted watcher resumes where it left off.
func (s *Store) SaveGatewayCursor(block uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, block)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketGateway).Put(keyCursor, buf)
	})
	if err != nil {
		return fmt.Errorf("writing gateway cursor: %w", err)
	}
	return nil
}

// LoadGatewayCursor returns the persisted block cursor, zero when none has
// been saved yet.
func (s *Store) LoadGatewayCursor() (uint64, error) {
	var cursor uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketGateway).Get(keyCursor)
		if len(raw) == 8 {
			cursor = binary.BigEndian.Uint64(raw)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reading gateway cursor: %w", err)
	}
	return cursor, nil
}

// MarkDepositProcessed durably records a handled deposit transaction so it
// is never fed into the sale twice.
func (s *Store) MarkDepositProcessed(txHash string) error {
	seenAt := []byte(time.Now().UTC().Format(time.RFC3339))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDeposits).Put([]byte(txHash), seenAt)
	})
	if err != nil {
		return fmt.Errorf("recording processed deposit: %w", err)
	}
	return nil
}

// IsDepositProcessed reports whether a deposit transaction was already
// handled in this or any previous run.
func (s *Store) IsDepositProcessed(txHash string) (bool, error) {
	var seen bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		seen = tx.Bucket(bucketDeposits).Get([]byte(txHash)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking processed deposit: %w", err)
	}
	return seen, nil
}

func (s *Store) save(bucket []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(keySnapshot, data)
	})
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"bucket": string(bucket), "bytes": len(data),
	}).Debug("snapshot saved")
	return nil
}

func (s *Store) load(bucket []byte, v interface{}) (bool, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucket).Get(keySnapshot)
		if raw != nil {
			data = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("reading snapshot: %w", err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding snapshot: %w", err)
	}
	return true, nil
}
