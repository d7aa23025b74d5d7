package aggregator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// dispatcher maps actions to venue adapters and executes one instruction
// at a time: pull inputs from the vault, call the venue, deposit whatever
// came back.
type dispatcher struct {
	venues   map[Action]Venue
	resolver AddressResolver
	logger   *zap.Logger
}

// execute runs a single instruction against the vault. It returns the
// instruction's output payment when the venue produced exactly one, which
// becomes the previous output for the next instruction.
func (d *dispatcher) execute(ctx context.Context, vault *Vault, instr *Instruction, prev *Payment) (*Payment, error) {
	venue, ok := d.venues[instr.Action]
	if !ok {
		return nil, ErrVenueNotRegistered
	}

	inputs, err := d.collectInputs(vault, instr, prev)
	if err != nil {
		return nil, err
	}

	pool, err := d.resolvePool(ctx, instr, inputs)
	if err != nil {
		return nil, err
	}

	call := VenueCall{
		Action:   instr.Action,
		Pool:     pool,
		Inputs:   inputs,
		TokenOut: instr.TokenOut,
		Path:     instr.Path,
	}

	d.logger.Debug("dispatching venue call",
		zap.Stringer("action", instr.Action),
		zap.Stringer("pool", pool),
		zap.Int("inputs", len(inputs)),
	)

	outputs, err := venue.Execute(ctx, call)
	if err != nil {
		return nil, &VenueCallError{Action: instr.Action, Pool: pool, Err: err}
	}

	var produced []Payment
	for _, out := range outputs {
		if out.Amount == nil || out.Amount.IsZero() {
			continue
		}
		if err := vault.Deposit(out.Token, out.Amount); err != nil {
			return nil, err
		}
		produced = append(produced, out)
	}
	if len(produced) == 0 {
		return nil, &VenueCallError{Action: instr.Action, Pool: pool, Err: ErrNoVenueOutput}
	}

	// Only single-output calls feed PreviousOutput chaining; a multi-output
	// result (remove-liquidity) has no unambiguous "the" output.
	if len(produced) == 1 {
		out := produced[0]
		return &Payment{Token: out.Token, Amount: new(uint256.Int).Set(out.Amount)}, nil
	}
	return nil, nil
}

// collectInputs resolves and withdraws every declared input. An empty input
// list consumes the previous instruction's output payment wholesale.
func (d *dispatcher) collectInputs(vault *Vault, instr *Instruction, prev *Payment) ([]Payment, error) {
	if len(instr.Inputs) == 0 {
		if prev == nil {
			return nil, ErrNoPreviousOutput
		}
		if err := vault.Withdraw(prev.Token, prev.Amount); err != nil {
			return nil, err
		}
		return []Payment{{Token: prev.Token, Amount: new(uint256.Int).Set(prev.Amount)}}, nil
	}

	payments := make([]Payment, 0, len(instr.Inputs))
	for _, input := range instr.Inputs {
		amount, err := ResolveAmount(input.Amount, input.Token, vault, prev)
		if err != nil {
			return nil, err
		}
		if amount.IsZero() {
			return nil, ErrZeroInputAmount
		}
		if err := vault.Withdraw(input.Token, amount); err != nil {
			return nil, err
		}
		payments = append(payments, Payment{Token: input.Token, Amount: amount})
	}
	return payments, nil
}

// resolvePool determines the pool address for the call. The instruction's
// explicit address always wins; the resolver is consulted only for actions
// whose pool is derivable from a token pair. Everything else passes the
// zero address through, for adapters bound to a fixed protocol address
// (wrappers, staking providers, lending markets, routers).
func (d *dispatcher) resolvePool(ctx context.Context, instr *Instruction, inputs []Payment) (common.Address, error) {
	if instr.Pool != (common.Address{}) {
		return instr.Pool, nil
	}
	if d.resolver == nil {
		return common.Address{}, nil
	}

	switch instr.Action {
	case ActionSwap, ActionStableSwap, ActionCryptoSwap:
		return d.resolver.PoolFor(ctx, instr.Action, inputs[0].Token, instr.TokenOut)
	case ActionAddLiquidity:
		return d.resolver.PoolFor(ctx, instr.Action, inputs[0].Token, inputs[1].Token)
	default:
		return common.Address{}, nil
	}
}
