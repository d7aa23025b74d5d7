package aggregator

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Sentinel errors for common failure conditions.
var (
	// ErrNoPreviousOutput indicates PreviousOutput() was used before any
	// instruction produced an output.
	ErrNoPreviousOutput = errors.New("aggregator: no previous output available")

	// ErrPrevTokenMismatch indicates PreviousOutput() was used with an input
	// token that differs from the previous instruction's output token.
	ErrPrevTokenMismatch = errors.New("aggregator: previous output token mismatch")

	// ErrZeroInputAmount indicates an instruction's input resolved to zero.
	ErrZeroInputAmount = errors.New("aggregator: zero input amount")

	// ErrVenueNotRegistered indicates no venue adapter is bound for an action.
	ErrVenueNotRegistered = errors.New("aggregator: no venue registered for action")

	// ErrNoVenueOutput indicates a venue call completed without producing
	// any non-zero output payment.
	ErrNoVenueOutput = errors.New("aggregator: venue returned no output")

	// ErrEmptyRoute indicates Run was called with no instructions.
	ErrEmptyRoute = errors.New("aggregator: empty route")

	// ErrRouteTooLong indicates the route exceeds the instruction limit.
	ErrRouteTooLong = errors.New("aggregator: route exceeds instruction limit")

	// ErrNotOwner indicates a fee book mutation by a non-owner.
	ErrNotOwner = errors.New("aggregator: caller is not the fee book owner")

	// ErrNotReferralOwner indicates a referral claim by a non-owner.
	ErrNotReferralOwner = errors.New("aggregator: caller is not the referral owner")

	// ErrReferralNotFound indicates an unknown referral ID.
	ErrReferralNotFound = errors.New("aggregator: referral not found")

	// ErrFeeTooHigh indicates a fee rate above the permitted maximum.
	ErrFeeTooHigh = errors.New("aggregator: fee exceeds maximum")
)

// InsufficientBalanceError indicates a withdrawal larger than the vault's
// current balance of a token.
type InsufficientBalanceError struct {
	Token common.Address
	Have  *uint256.Int
	Want  *uint256.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("aggregator: insufficient vault balance for token %s: have %s, want %s",
		e.Token.Hex(), e.Have, e.Want)
}

// OverflowError indicates a deposit that would overflow a token balance.
type OverflowError struct {
	Token common.Address
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("aggregator: balance overflow for token %s", e.Token.Hex())
}

// InvalidAmountModeError indicates an amount specification that cannot be
// resolved, such as a PPM fraction above 1,000,000.
type InvalidAmountModeError struct {
	Mode AmountMode
	Ppm  uint32
}

func (e *InvalidAmountModeError) Error() string {
	if e.Mode == AmountPpm {
		return fmt.Sprintf("aggregator: ppm value %d exceeds %d", e.Ppm, PpmDenominator)
	}
	return fmt.Sprintf("aggregator: invalid amount mode %d", e.Mode)
}

// UnknownPoolError indicates address resolution failed for a token pair.
type UnknownPoolError struct {
	Action Action
	TokenA common.Address
	TokenB common.Address
}

func (e *UnknownPoolError) Error() string {
	return fmt.Sprintf("aggregator: no pool known for %s pair %s/%s",
		e.Action, e.TokenA.Hex(), e.TokenB.Hex())
}

// VenueCallError indicates a venue adapter rejected or could not complete a
// call, or returned an unusable result.
type VenueCallError struct {
	Action Action
	Pool   common.Address
	Err    error
}

func (e *VenueCallError) Error() string {
	return fmt.Sprintf("aggregator: venue call %s via %s failed: %v", e.Action, e.Pool.Hex(), e.Err)
}

func (e *VenueCallError) Unwrap() error {
	return e.Err
}

// SlippageError indicates the final output balance fell below the caller's
// declared minimum.
type SlippageError struct {
	Token common.Address
	Have  *uint256.Int
	Min   *uint256.Int
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("aggregator: slippage limit exceeded for token %s: have %s, need %s",
		e.Token.Hex(), e.Have, e.Min)
}

// RouteError wraps a failure at a specific instruction in a route.
type RouteError struct {
	Index  int
	Action Action
	Err    error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("aggregator: instruction %d (%s): %v", e.Index, e.Action, e.Err)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}
