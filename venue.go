package aggregator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// VenueCall is the fully-resolved request handed to a venue adapter:
// concrete input payments already withdrawn from the vault, the pool to
// trade against, and the action-specific parameters.
type VenueCall struct {
	// Action is the operation being performed.
	Action Action

	// Pool is the pool, pair, or market address for the call. It is the
	// instruction's explicit address or the resolver's answer.
	Pool common.Address

	// Inputs are the exact payments to spend. Adapters must consume them
	// entirely or fail; partial consumption is not modeled.
	Inputs []Payment

	// TokenOut is the expected output token for actions that declare one.
	TokenOut common.Address

	// Path is the token path for ActionPathSwap.
	Path []common.Address
}

// Venue adapts one external trading, liquidity, staking, or lending
// protocol to the engine. An adapter translates a VenueCall into the
// protocol's own call shape and reports the payments it produced.
//
// Adapters never see the vault; they receive exact input amounts and
// return exact outputs. A returned error aborts the whole route. The
// engine performs no retries and no compensating calls: the surrounding
// transaction environment is expected to revert every effect of a failed
// route, venue-side effects included.
type Venue interface {
	Execute(ctx context.Context, call VenueCall) ([]Payment, error)
}

// VenueFunc adapts a plain function to the Venue interface.
type VenueFunc func(ctx context.Context, call VenueCall) ([]Payment, error)

// Execute calls f.
func (f VenueFunc) Execute(ctx context.Context, call VenueCall) ([]Payment, error) {
	return f(ctx, call)
}
