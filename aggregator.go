// Package aggregator implements the execution engine of a multi-venue
// swap router.
//
// Given a deposited payment and an ordered list of instructions, the engine
// routes value through a sequence of token-swap, liquidity, wrapping,
// staking, and lending operations across independent trading venues,
// enforces a minimum-output guarantee, and returns every remaining balance
// to the caller. The engine executes and validates routes; it never plans
// them, the instruction sequence is supplied by the caller.
//
// # Basic Usage
//
// Register a venue adapter per action, then run a route:
//
//	engine := aggregator.New(
//	    aggregator.WithVenue(aggregator.ActionSwap, cpmmAdapter),
//	    aggregator.WithVenue(aggregator.ActionStake, stakingAdapter),
//	    aggregator.WithAddressResolver(resolver),
//	)
//
//	route := []aggregator.Instruction{
//	    aggregator.Swap(aggregator.ActionSwap, poolAB, tokenA, aggregator.FixedUint64(1000), tokenB),
//	    aggregator.Swap(aggregator.ActionSwap, poolBC, tokenB, aggregator.AllBalance(), tokenC),
//	}
//
//	payments, err := engine.Run(ctx,
//	    aggregator.NewPayment(tokenA, 1000),
//	    route,
//	    aggregator.NewPayment(tokenC, 990), // minimum acceptable output
//	)
//
// On success, payments holds every token left in the vault, output token
// included. On any failure (insufficient balance, a venue rejecting a
// call, a missed slippage bound) Run returns a nil slice and an error,
// and the caller's surrounding transaction must revert all venue-side
// effects. The engine never retries and never settles partially.
//
// # Amount Modes
//
// Each instruction input carries an AmountSpec deciding how much to spend:
//
//   - FixedAmount(n): exactly n, for hops whose input is known up front
//   - PpmAmount(p): p/1,000,000 of the current vault balance, truncated
//   - AllBalance(): the whole balance, sweeping dust on a token's last hop
//   - PreviousOutput(): exactly what the previous instruction produced
//
// # Venue Adapters
//
// Venues are external collaborators behind the Venue interface: they
// receive exact input payments plus a pool address and report the payments
// they produced. The engine's vault is never exposed to them. Pool
// addresses come from the instruction when explicit, otherwise from the
// engine's AddressResolver; an explicit address always wins.
//
// # Fees
//
// An optional FeeBook charges a basis-point fee on the output token before
// the slippage check, split between referrals and the admin, with
// owner-gated configuration and claim methods.
package aggregator
