package token

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized        = errors.New("unauthorized: owner access required")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrInvalidRecipient    = errors.New("invalid recipient address")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAllowanceExceeded   = errors.New("allowance exceeded")
	ErrAccountLocked       = errors.New("account tokens are locked")
	ErrNotWhitelisted      = errors.New("address is not whitelisted")
	ErrCapExceeded         = errors.New("issuance cap exceeded")
	ErrLengthMismatch      = errors.New("accounts and amounts length mismatch")
	ErrAmountExceedsSupply = errors.New("amount exceeds total supply ceiling")
	ErrNotSaleController   = errors.New("caller is not the registered sale controller")
	ErrBalanceOverflow     = errors.New("balance addition overflows")
)

// ErrMainSaleLocked is the global variant of ErrAccountLocked: nothing moves
// until the mainsale unlock. errors.Is(err, ErrAccountLocked) holds for it.
var ErrMainSaleLocked = fmt.Errorf("%w: mainsale tokens not yet unlocked", ErrAccountLocked)
