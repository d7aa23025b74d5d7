package aggregator

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// AddressResolver supplies pool addresses for instructions that omit an
// explicit one. It is consulted only when Instruction.Pool is the zero
// address; an explicit pool always wins over a resolvable one.
type AddressResolver interface {
	// PoolFor returns the pool or pair address for a token pair under the
	// given action. Implementations must treat the pair as unordered.
	PoolFor(ctx context.Context, action Action, tokenA, tokenB common.Address) (common.Address, error)
}

// StaticResolver is an in-memory AddressResolver backed by a registration
// table. Pairs are stored order-insensitively.
type StaticResolver struct {
	pools map[poolKey]common.Address
}

type poolKey struct {
	action Action
	a, b   common.Address
}

// NewStaticResolver creates an empty resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{pools: make(map[poolKey]common.Address)}
}

// RegisterPool records the pool address for a token pair under an action.
// Registering the same pair again overwrites the previous address.
func (r *StaticResolver) RegisterPool(action Action, tokenA, tokenB common.Address, pool common.Address) {
	r.pools[newPoolKey(action, tokenA, tokenB)] = pool
}

// PoolFor implements AddressResolver.
func (r *StaticResolver) PoolFor(_ context.Context, action Action, tokenA, tokenB common.Address) (common.Address, error) {
	if pool, ok := r.pools[newPoolKey(action, tokenA, tokenB)]; ok {
		return pool, nil
	}
	return common.Address{}, &UnknownPoolError{Action: action, TokenA: tokenA, TokenB: tokenB}
}

// newPoolKey normalizes the pair ordering so lookups are symmetric.
func newPoolKey(action Action, a, b common.Address) poolKey {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return poolKey{action: action, a: a, b: b}
}
