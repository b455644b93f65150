// Package sale implements the time-boxed public sale that converts incoming
// payment into mainsale token issuance and custodies the proceeds.
package sale

import (
	"errors"
	"math/big"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/blocknova/tokensale/token"
)

var (
	ErrSaleNotActive      = errors.New("sale is not active")
	ErrAlreadyInitialized = errors.New("sale already initialized")
	ErrPaymentTooSmall    = errors.New("payment converts to zero tokens")
)

// TokenPriceCents is the fixed quoted price of one whole token.
const TokenPriceCents = 2

// weiPerEth is the sub-unit scale of the payment currency.
var weiPerEth = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// decimalScale is 10^DecimalPlaces, lifting whole tokens to base units.
var decimalScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(token.DecimalPlaces), nil)

// Controller mediates the sale: active/stopped state, payment-to-token
// conversion and proceeds custody. It mints through the ledger's mainsale
// entry point under the identity registered with the ledger.
type Controller struct {
	owner string
	id    string // identity this controller presents to the ledger

	initialized bool
	active      bool
	rate        int64 // payment sub-unit rate: cents of fiat per ETH
	ledger      *token.Ledger
	proceeds    *big.Int

	logger *logrus.Logger
	mu     sync.RWMutex
}

// NewController creates an uninitialized controller. It holds no proceeds
// and refuses purchases until StartICO.
func NewController(owner, id string, logger *logrus.Logger) *Controller {
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		owner:    owner,
		id:       id,
		proceeds: new(big.Int),
		logger:   logger,
	}
}

// StartICO activates the sale with a fixed conversion rate and the ledger
// to mint through. One-time initializer.
func (c *Controller) StartICO(caller string, rate int64, ledger *token.Ledger) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return token.ErrUnauthorized
	}
	if c.initialized {
		return ErrAlreadyInitialized
	}
	if rate <= 0 {
		return token.ErrNegativeAmount
	}
	if ledger == nil {
		return token.ErrInvalidRecipient
	}
	c.initialized = true
	c.active = true
	c.rate = rate
	c.ledger = ledger

	c.logger.WithFields(logrus.Fields{
		"rate": rate, "price_cents": TokenPriceCents,
	}).Info("ICO started")
	return nil
}

// StopICO deactivates the sale. Owner-only; there is no resume.
func (c *Controller) StopICO(caller string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return token.ErrUnauthorized
	}
	c.active = false
	c.logger.Info("ICO stopped")
	return nil
}

// Purchase converts a payment of value sub-units into mainsale tokens for
// the payer. The whole call fails without retaining payment if the sale is
// inactive, the payment floors to zero tokens, or issuance is rejected
// (cap, validity). Returns the number of base units credited.
func (c *Controller) Purchase(payer string, value *big.Int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if payer == "" {
		return 0, token.ErrInvalidRecipient
	}
	if value == nil || value.Sign() < 0 {
		return 0, token.ErrNegativeAmount
	}
	if !c.active {
		return 0, ErrSaleNotActive
	}

	tokens := TokensForPayment(value, c.rate)
	if !tokens.IsInt64() || tokens.Int64() > token.SupplyCeiling {
		return 0, token.ErrAmountExceedsSupply
	}
	amount := tokens.Int64()
	if amount == 0 {
		return 0, ErrPaymentTooSmall
	}

	if err := c.ledger.CreditMainSale(c.id, payer, amount); err != nil {
		c.logger.WithFields(logrus.Fields{
			"payer": payer, "value": value.String(),
		}).WithError(err).Warn("purchase rejected")
		return 0, err
	}
	c.proceeds.Add(c.proceeds, value)

	c.logger.WithFields(logrus.Fields{
		"payer": payer, "value": value.String(), "tokens": amount,
	}).Info("tokens sold")
	return amount, nil
}

// TokensForPayment computes base units bought by a payment of value
// sub-units at the given rate, floor division:
//
//	tokens = value * rate * 10^decimals / (priceCents * 10^18)
func TokensForPayment(value *big.Int, rate int64) *big.Int {
	num := new(big.Int).Mul(value, big.NewInt(rate))
	num.Mul(num, decimalScale)
	den := new(big.Int).Mul(big.NewInt(TokenPriceCents), weiPerEth)
	return num.Quo(num, den)
}

// PaymentForTokens is the inverse conversion, used by callers sizing a
// payment for a desired number of base units. Exact only when the token
// amount divides cleanly.
func PaymentForTokens(tokens int64, rate int64) *big.Int {
	num := new(big.Int).Mul(big.NewInt(tokens), big.NewInt(TokenPriceCents))
	num.Mul(num, weiPerEth)
	den := new(big.Int).Mul(big.NewInt(rate), decimalScale)
	return num.Quo(num, den)
}

// RemainingTokensForSale returns how many base units the mainsale channel
// can still issue.
func (c *Controller) RemainingTokensForSale() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ledger == nil {
		return token.MainSaleCap
	}
	return c.ledger.RemainingInCategory(token.CategoryMainSale)
}

// WithdrawToOwner drains the full proceeds balance to the owner. A second
// withdrawal moves zero and is not an error.
func (c *Controller) WithdrawToOwner(caller string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.withdraw(caller, c.owner)
}

// WithdrawTo drains the full proceeds balance to an arbitrary destination.
// Owner-only.
func (c *Controller) WithdrawTo(caller, destination string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.withdraw(caller, destination)
}

func (c *Controller) withdraw(caller, destination string) (*big.Int, error) {
	if caller != c.owner {
		return nil, token.ErrUnauthorized
	}
	if destination == "" {
		return nil, token.ErrInvalidRecipient
	}
	amount := new(big.Int).Set(c.proceeds)
	c.proceeds.SetInt64(0)

	c.logger.WithFields(logrus.Fields{
		"destination": destination, "amount": amount.String(),
	}).Info("proceeds withdrawn")
	return amount, nil
}

// Proceeds returns a copy of the currently held payment balance.
func (c *Controller) Proceeds() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return new(big.Int).Set(c.proceeds)
}

// Active reports whether purchases are currently accepted.
func (c *Controller) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Rate returns the configured conversion rate, zero before StartICO.
func (c *Controller) Rate() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}

// ID returns the identity the controller presents to the ledger.
func (c *Controller) ID() string {
	return c.id
}
