package sale

import (
	"math/big"

	"github.com/blocknova/tokensale/token"
)

// Snapshot is the persistable image of the controller state. Proceeds are
// stored as a decimal string since they can exceed 64 bits.
type Snapshot struct {
	Initialized bool   `json:"initialized"`
	Active      bool   `json:"active"`
	Rate        int64  `json:"rate"`
	Proceeds    string `json:"proceeds"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		Initialized: c.initialized,
		Active:      c.active,
		Rate:        c.rate,
		Proceeds:    c.proceeds.String(),
	}
}

// Restore replaces controller state from a persisted snapshot. The ledger
// reference is runtime wiring and must be supplied separately.
func (c *Controller) Restore(snap Snapshot, ledger *token.Ledger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initialized = snap.Initialized
	c.active = snap.Active
	c.rate = snap.Rate
	if ledger != nil {
		c.ledger = ledger
	}
	proceeds, ok := new(big.Int).SetString(snap.Proceeds, 10)
	if !ok {
		proceeds = new(big.Int)
	}
	c.proceeds = proceeds
}
