package aggregator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/multierr"
)

// Action identifies the kind of venue operation an instruction performs.
// The set is closed: the dispatcher switches exhaustively over it.
type Action uint8

const (
	// ActionSwap is a constant-product (CPMM) swap.
	ActionSwap Action = iota

	// ActionStableSwap is a StableSwap-style pool swap.
	ActionStableSwap

	// ActionCryptoSwap is a CurveCrypto-style pool swap.
	ActionCryptoSwap

	// ActionPathSwap is a multi-hop swap routed through a venue's own
	// router along an explicit token path.
	ActionPathSwap

	// ActionAddLiquidity deposits two or more tokens and mints LP tokens.
	ActionAddLiquidity

	// ActionRemoveLiquidity burns LP tokens and withdraws the underlying.
	ActionRemoveLiquidity

	// ActionWrap converts the native asset into its wrapped token 1:1.
	ActionWrap

	// ActionUnwrap converts the wrapped token back to the native asset 1:1.
	ActionUnwrap

	// ActionStake deposits into a liquid-staking provider for a staked token.
	ActionStake

	// ActionUnstake redeems a staked token with its provider.
	ActionUnstake

	// ActionSupply deposits into a lending market for an interest-bearing token.
	ActionSupply

	// ActionRedeem withdraws an interest-bearing token from a lending market.
	ActionRedeem

	actionCount // sentinel, keep last
)

var actionNames = [...]string{
	ActionSwap:            "swap",
	ActionStableSwap:      "stable-swap",
	ActionCryptoSwap:      "crypto-swap",
	ActionPathSwap:        "path-swap",
	ActionAddLiquidity:    "add-liquidity",
	ActionRemoveLiquidity: "remove-liquidity",
	ActionWrap:            "wrap",
	ActionUnwrap:          "unwrap",
	ActionStake:           "stake",
	ActionUnstake:         "unstake",
	ActionSupply:          "supply",
	ActionRedeem:          "redeem",
}

// String returns the action's name.
func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// Valid reports whether the action is a known kind.
func (a Action) Valid() bool {
	return a < actionCount
}

// needsTokenOut reports whether the action requires an explicit output
// token on the instruction. Other actions learn their outputs from the
// venue adapter's returned payments.
func (a Action) needsTokenOut() bool {
	switch a {
	case ActionSwap, ActionStableSwap, ActionCryptoSwap, ActionPathSwap,
		ActionWrap, ActionUnwrap, ActionStake, ActionSupply:
		return true
	default:
		return false
	}
}

// maxInputs returns the number of input tokens the action accepts.
func (a Action) maxInputs() int {
	if a == ActionAddLiquidity {
		return 3
	}
	return 1
}

// Input declares one input asset of an instruction: the token to pull from
// the vault and the policy for how much of it.
type Input struct {
	Token  common.Address
	Amount AmountSpec
}

// Instruction is one atomic step of a route: a venue action, its inputs,
// and venue-specific parameters. Instructions execute strictly in order;
// the engine never reorders, retries, or parallelizes them.
type Instruction struct {
	// Action selects the venue operation.
	Action Action

	// Inputs lists the assets to pull from the vault. An empty list means
	// "consume the previous instruction's output payment wholesale"; that
	// form is rejected for ActionAddLiquidity, which needs two inputs.
	Inputs []Input

	// TokenOut is the output token for actions that require one (swaps,
	// wrapping, staking, supplying). For ActionPathSwap it must equal the
	// last element of Path.
	TokenOut common.Address

	// Path is the token path for ActionPathSwap, input token first.
	Path []common.Address

	// Pool is the venue pool or market address. The zero address means
	// "resolve via the engine's AddressResolver". An explicit address
	// always wins over a resolvable one.
	Pool common.Address
}

// Swap builds a single-pool swap instruction.
func Swap(action Action, pool, tokenIn common.Address, amount AmountSpec, tokenOut common.Address) Instruction {
	return Instruction{
		Action:   action,
		Inputs:   []Input{{Token: tokenIn, Amount: amount}},
		TokenOut: tokenOut,
		Pool:     pool,
	}
}

// validate checks the structural shape of a single instruction.
func (in *Instruction) validate() error {
	if !in.Action.Valid() {
		return fmt.Errorf("aggregator: unknown action %d", uint8(in.Action))
	}
	if len(in.Inputs) > in.Action.maxInputs() {
		return fmt.Errorf("aggregator: %s takes at most %d input(s), got %d",
			in.Action, in.Action.maxInputs(), len(in.Inputs))
	}
	// Add-liquidity needs two declared inputs; the implicit single-payment
	// "consume the previous output" form can never satisfy its arity.
	if in.Action == ActionAddLiquidity && len(in.Inputs) < 2 {
		return fmt.Errorf("aggregator: %s needs at least 2 inputs", in.Action)
	}
	for i, input := range in.Inputs {
		if input.Amount.Mode() == AmountPpm && input.Amount.ppm > PpmDenominator {
			return &InvalidAmountModeError{Mode: AmountPpm, Ppm: input.Amount.ppm}
		}
		if input.Amount.Mode() > AmountPrev {
			return fmt.Errorf("aggregator: input %d: invalid amount mode %d", i, input.Amount.Mode())
		}
	}
	if in.Action.needsTokenOut() && in.TokenOut == (common.Address{}) {
		return fmt.Errorf("aggregator: %s requires TokenOut", in.Action)
	}
	if in.Action == ActionPathSwap {
		if len(in.Path) < 2 {
			return fmt.Errorf("aggregator: path-swap requires a path of at least 2 tokens")
		}
		if in.Path[len(in.Path)-1] != in.TokenOut {
			return fmt.Errorf("aggregator: path-swap path must end at TokenOut")
		}
	}
	return nil
}

// ValidateRoute checks the structural shape of a whole route before any
// instruction runs, accumulating every problem found rather than stopping
// at the first. It cannot prove the route will succeed (balances and venue
// results are only known at execution time), but it rejects routes that
// could never succeed.
func ValidateRoute(route []Instruction) error {
	if len(route) == 0 {
		return ErrEmptyRoute
	}

	var errs error
	seenOutput := false
	for i := range route {
		in := &route[i]
		if err := in.validate(); err != nil {
			errs = multierr.Append(errs, &RouteError{Index: i, Action: in.Action, Err: err})
		}
		usesPrev := len(in.Inputs) == 0
		for _, input := range in.Inputs {
			if input.Amount.Mode() == AmountPrev {
				usesPrev = true
			}
		}
		if usesPrev && !seenOutput {
			errs = multierr.Append(errs, &RouteError{Index: i, Action: in.Action, Err: ErrNoPreviousOutput})
		}
		seenOutput = true
	}
	return errs
}
