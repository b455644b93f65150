package token

// Snapshot is the persistable image of all ledger state.
type Snapshot struct {
	Owner            string                      `json:"owner"`
	SaleController   string                      `json:"sale_controller,omitempty"`
	TotalSupply      int64                       `json:"total_supply"`
	Balances         map[string]int64            `json:"balances"`
	Allowances       map[string]map[string]int64 `json:"allowances"`
	Issued           map[Category]int64          `json:"issued"`
	RewardLocked     map[string]bool             `json:"reward_locked"`
	RewardUnlocked   map[string]bool             `json:"reward_unlocked"`
	MainSaleUnlocked bool                        `json:"mainsale_unlocked"`
}

// Snapshot copies the full ledger state for persistence.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := Snapshot{
		Owner:            l.owner,
		SaleController:   l.saleController,
		TotalSupply:      l.totalSupply,
		Balances:         make(map[string]int64, len(l.balances)),
		Allowances:       make(map[string]map[string]int64, len(l.allowances)),
		Issued:           make(map[Category]int64, len(l.issued)),
		RewardLocked:     make(map[string]bool, len(l.rewardLocked)),
		RewardUnlocked:   make(map[string]bool, len(l.rewardUnlocked)),
		MainSaleUnlocked: l.mainSaleOpen,
	}
	for addr, bal := range l.balances {
		snap.Balances[addr] = bal
	}
	for owner, spenders := range l.allowances {
		m := make(map[string]int64, len(spenders))
		for spender, amount := range spenders {
			m[spender] = amount
		}
		snap.Allowances[owner] = m
	}
	for cat, issued := range l.issued {
		snap.Issued[cat] = issued
	}
	for addr, locked := range l.rewardLocked {
		snap.RewardLocked[addr] = locked
	}
	for addr, unlocked := range l.rewardUnlocked {
		snap.RewardUnlocked[addr] = unlocked
	}
	return snap
}

// Restore replaces the ledger state with a persisted snapshot. Used when
// loading from storage on startup.
func (l *Ledger) Restore(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if snap.Owner != "" {
		l.owner = snap.Owner
	}
	l.saleController = snap.SaleController
	l.totalSupply = snap.TotalSupply
	l.mainSaleOpen = snap.MainSaleUnlocked

	l.balances = make(map[string]int64, len(snap.Balances))
	for addr, bal := range snap.Balances {
		l.balances[addr] = bal
	}
	l.allowances = make(map[string]map[string]int64, len(snap.Allowances))
	for owner, spenders := range snap.Allowances {
		m := make(map[string]int64, len(spenders))
		for spender, amount := range spenders {
			m[spender] = amount
		}
		l.allowances[owner] = m
	}
	l.issued = make(map[Category]int64, len(snap.Issued))
	for cat, issued := range snap.Issued {
		l.issued[cat] = issued
	}
	l.rewardLocked = make(map[string]bool, len(snap.RewardLocked))
	for addr, locked := range snap.RewardLocked {
		l.rewardLocked[addr] = locked
	}
	l.rewardUnlocked = make(map[string]bool, len(snap.RewardUnlocked))
	for addr, unlocked := range snap.RewardUnlocked {
		l.rewardUnlocked[addr] = unlocked
	}

	l.logger.WithField("accounts", len(l.balances)).Info("ledger state restored")
}
