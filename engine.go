package aggregator

import (
	"context"

	"go.uber.org/zap"
)

// Engine executes swap routes: it seeds a fresh vault from the caller's
// payment, runs the route's instructions strictly in order through the
// registered venue adapters, enforces the caller's minimum-output bound,
// and settles every remaining balance back to the caller.
//
// An Engine is immutable after New and safe for concurrent Run calls;
// each call owns its own vault and execution state.
type Engine struct {
	venues   map[Action]Venue
	resolver AddressResolver
	fees     *FeeBook
	logger   *zap.Logger
}

// New creates an Engine with the given options. At minimum, a venue must
// be registered (WithVenue) for every action the routes will use.
func New(opts ...Option) *Engine {
	e := &Engine{
		venues: make(map[Action]Venue),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a route atomically from the engine's point of view: either
// every instruction succeeds, the fee is taken, the slippage bound holds,
// and the full drained vault is returned, or Run returns a nil slice and
// an error describing the first failure.
//
// The engine performs no rollback of venue-side effects; callers must run
// the route inside a transaction environment that reverts all effects on
// error. There are no internal retries and no partial settlement.
//
// The returned payments contain every leftover token, not only minOut's
// token, so no value is ever stranded in the engine.
func (e *Engine) Run(ctx context.Context, payment Payment, route []Instruction, minOut Payment, opts ...RunOption) ([]Payment, error) {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if len(route) > cfg.maxInstructions {
		return nil, ErrRouteTooLong
	}
	if err := ValidateRoute(route); err != nil {
		return nil, err
	}

	vault := NewVault()
	if err := vault.Deposit(payment.Token, payment.Amount); err != nil {
		return nil, err
	}

	d := &dispatcher{venues: e.venues, resolver: e.resolver, logger: e.logger}

	var prev *Payment
	for i := range route {
		out, err := d.execute(ctx, vault, &route[i], prev)
		if err != nil {
			e.logger.Debug("route aborted",
				zap.Int("instruction", i),
				zap.Stringer("action", route[i].Action),
				zap.Error(err),
			)
			return nil, &RouteError{Index: i, Action: route[i].Action, Err: err}
		}
		prev = out
	}

	// Fees come off the output token before the slippage gate, so the
	// caller's minimum is a net-of-fees guarantee. Accrual is committed
	// only after the gate: a failed run charges nothing.
	var charge *feeCharge
	if e.fees != nil {
		charge = e.fees.assess(vault.Balance(minOut.Token), minOut.Token, cfg.referralID)
		if charge != nil {
			total, overflow := charge.total()
			if overflow {
				return nil, &OverflowError{Token: minOut.Token}
			}
			if err := vault.Withdraw(minOut.Token, total); err != nil {
				return nil, err
			}
		}
	}

	have := vault.Balance(minOut.Token)
	if have.Lt(minOut.Amount) {
		return nil, &SlippageError{Token: minOut.Token, Have: have, Min: minOut.Amount}
	}

	if e.fees != nil {
		if err := e.fees.commit(charge); err != nil {
			return nil, err
		}
	}

	payments := vault.Drain()
	e.logger.Info("route settled",
		zap.Int("instructions", len(route)),
		zap.Stringer("tokenOut", minOut.Token),
		zap.String("amountOut", have.String()),
		zap.Int("payments", len(payments)),
	)
	return payments, nil
}
