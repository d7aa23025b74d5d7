package aggregator

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// stubVenue returns scripted outputs and records every call it receives.
type stubVenue struct {
	outputs []Payment
	err     error
	calls   []VenueCall
}

func (s *stubVenue) Execute(_ context.Context, call VenueCall) ([]Payment, error) {
	s.calls = append(s.calls, call)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Payment, len(s.outputs))
	for i, p := range s.outputs {
		out[i] = Payment{Token: p.Token, Amount: new(uint256.Int).Set(p.Amount)}
	}
	return out, nil
}

// rateVenue quotes TokenOut at a fixed num/den rate of the single input.
type rateVenue struct {
	num, den uint64
	calls    []VenueCall
}

func (r *rateVenue) Execute(_ context.Context, call VenueCall) ([]Payment, error) {
	r.calls = append(r.calls, call)
	out := mulDiv(call.Inputs[0].Amount, r.num, r.den)
	return []Payment{{Token: call.TokenOut, Amount: out}}, nil
}

func newDispatcher(venues map[Action]Venue, resolver AddressResolver) *dispatcher {
	return &dispatcher{venues: venues, resolver: resolver, logger: zap.NewNop()}
}

func TestDispatchInputs(t *testing.T) {
	ctx := context.Background()

	t.Run("unregistered action fails", func(t *testing.T) {
		d := newDispatcher(map[Action]Venue{}, nil)
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Swap(ActionSwap, poolAB, tokenA, AllBalance(), tokenB)
		if _, err := d.execute(ctx, v, &instr, nil); !errors.Is(err, ErrVenueNotRegistered) {
			t.Errorf("expected ErrVenueNotRegistered, got %v", err)
		}
	})

	t.Run("zero resolved input fails", func(t *testing.T) {
		venue := &stubVenue{outputs: []Payment{NewPayment(tokenB, 1)}}
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, nil)
		v := NewVault() // empty, so AllBalance resolves to zero
		instr := Swap(ActionSwap, poolAB, tokenA, AllBalance(), tokenB)
		if _, err := d.execute(ctx, v, &instr, nil); !errors.Is(err, ErrZeroInputAmount) {
			t.Errorf("expected ErrZeroInputAmount, got %v", err)
		}
		if len(venue.calls) != 0 {
			t.Error("venue must not be called for a zero input")
		}
	})

	t.Run("withdrawal is the point of truth", func(t *testing.T) {
		venue := &stubVenue{outputs: []Payment{NewPayment(tokenB, 1)}}
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, nil)
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Swap(ActionSwap, poolAB, tokenA, FixedUint64(101), tokenB)
		_, err := d.execute(ctx, v, &instr, nil)
		var insufficient *InsufficientBalanceError
		if !errors.As(err, &insufficient) {
			t.Errorf("expected InsufficientBalanceError, got %v", err)
		}
		if len(venue.calls) != 0 {
			t.Error("venue must not be called when the vault cannot cover the input")
		}
	})

	t.Run("empty inputs consume the previous output wholesale", func(t *testing.T) {
		venue := &stubVenue{outputs: []Payment{NewPayment(tokenC, 42)}}
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, nil)
		v := NewVault()
		mustDeposit(t, v, tokenB, 100)
		prev := &Payment{Token: tokenB, Amount: uint256.NewInt(100)}
		instr := Instruction{Action: ActionSwap, TokenOut: tokenC, Pool: poolBC}

		out, err := d.execute(ctx, v, &instr, prev)
		if err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if !v.Balance(tokenB).IsZero() {
			t.Errorf("previous output not withdrawn, balance %s", v.Balance(tokenB))
		}
		got := venue.calls[0].Inputs
		if len(got) != 1 || got[0].Token != tokenB || !got[0].Amount.Eq(uint256.NewInt(100)) {
			t.Errorf("unexpected venue inputs: %v", got)
		}
		if out == nil || out.Token != tokenC || !out.Amount.Eq(uint256.NewInt(42)) {
			t.Errorf("unexpected output: %v", out)
		}
	})

	t.Run("empty inputs without a previous output fail", func(t *testing.T) {
		d := newDispatcher(map[Action]Venue{ActionSwap: &stubVenue{}}, nil)
		v := NewVault()
		instr := Instruction{Action: ActionSwap, TokenOut: tokenC}
		if _, err := d.execute(ctx, v, &instr, nil); !errors.Is(err, ErrNoPreviousOutput) {
			t.Errorf("expected ErrNoPreviousOutput, got %v", err)
		}
	})
}

func TestDispatchVenueResults(t *testing.T) {
	ctx := context.Background()

	t.Run("venue error is wrapped with action and pool", func(t *testing.T) {
		venueErr := errors.New("pool is paused")
		venue := &stubVenue{err: venueErr}
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, nil)
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Swap(ActionSwap, poolAB, tokenA, AllBalance(), tokenB)

		_, err := d.execute(ctx, v, &instr, nil)
		var vce *VenueCallError
		if !errors.As(err, &vce) {
			t.Fatalf("expected VenueCallError, got %v", err)
		}
		if vce.Action != ActionSwap || vce.Pool != poolAB {
			t.Errorf("unexpected error context: %+v", vce)
		}
		if !errors.Is(err, venueErr) {
			t.Error("expected wrapped venue error to be reachable via errors.Is")
		}
	})

	t.Run("empty venue result fails", func(t *testing.T) {
		venue := &stubVenue{} // no outputs
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, nil)
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Swap(ActionSwap, poolAB, tokenA, AllBalance(), tokenB)
		if _, err := d.execute(ctx, v, &instr, nil); !errors.Is(err, ErrNoVenueOutput) {
			t.Errorf("expected ErrNoVenueOutput, got %v", err)
		}
	})

	t.Run("zero-amount outputs are ignored", func(t *testing.T) {
		venue := &stubVenue{outputs: []Payment{
			NewPayment(tokenB, 0),
			NewPayment(tokenC, 5),
		}}
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, nil)
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Swap(ActionSwap, poolAB, tokenA, AllBalance(), tokenC)

		out, err := d.execute(ctx, v, &instr, nil)
		if err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if out == nil || out.Token != tokenC {
			t.Errorf("expected tokenC previous output, got %v", out)
		}
		if v.Len() != 1 {
			t.Errorf("expected only tokenC in vault, got %d entries", v.Len())
		}
	})

	t.Run("multi-output result credits everything and clears the chain", func(t *testing.T) {
		venue := &stubVenue{outputs: []Payment{
			NewPayment(tokenA, 300),
			NewPayment(tokenB, 200),
		}}
		d := newDispatcher(map[Action]Venue{ActionRemoveLiquidity: venue}, nil)
		v := NewVault()
		mustDeposit(t, v, lpAB, 50)
		instr := Instruction{
			Action: ActionRemoveLiquidity,
			Inputs: []Input{{Token: lpAB, Amount: AllBalance()}},
			Pool:   poolAB,
		}

		out, err := d.execute(ctx, v, &instr, nil)
		if err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if out != nil {
			t.Errorf("multi-output call must not produce a previous output, got %v", out)
		}
		if !v.Balance(tokenA).Eq(uint256.NewInt(300)) || !v.Balance(tokenB).Eq(uint256.NewInt(200)) {
			t.Errorf("unexpected vault state: A=%s B=%s", v.Balance(tokenA), v.Balance(tokenB))
		}
	})
}

func TestDispatchPoolResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit pool always wins", func(t *testing.T) {
		resolver := NewStaticResolver()
		resolver.RegisterPool(ActionSwap, tokenA, tokenB, poolBC)
		venue := &stubVenue{outputs: []Payment{NewPayment(tokenB, 1)}}
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, resolver)
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Swap(ActionSwap, poolAB, tokenA, AllBalance(), tokenB)

		if _, err := d.execute(ctx, v, &instr, nil); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if venue.calls[0].Pool != poolAB {
			t.Errorf("expected explicit pool %s, got %s", poolAB.Hex(), venue.calls[0].Pool.Hex())
		}
	})

	t.Run("omitted pool is resolved from the pair", func(t *testing.T) {
		resolver := NewStaticResolver()
		resolver.RegisterPool(ActionSwap, tokenA, tokenB, poolAB)
		venue := &stubVenue{outputs: []Payment{NewPayment(tokenB, 1)}}
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, resolver)
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Swap(ActionSwap, common.Address{}, tokenA, AllBalance(), tokenB)

		if _, err := d.execute(ctx, v, &instr, nil); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if venue.calls[0].Pool != poolAB {
			t.Errorf("expected resolved pool %s, got %s", poolAB.Hex(), venue.calls[0].Pool.Hex())
		}
	})

	t.Run("resolution failure aborts the call", func(t *testing.T) {
		resolver := NewStaticResolver() // empty
		venue := &stubVenue{outputs: []Payment{NewPayment(tokenB, 1)}}
		d := newDispatcher(map[Action]Venue{ActionSwap: venue}, resolver)
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Swap(ActionSwap, common.Address{}, tokenA, AllBalance(), tokenB)

		_, err := d.execute(ctx, v, &instr, nil)
		var unknown *UnknownPoolError
		if !errors.As(err, &unknown) {
			t.Errorf("expected UnknownPoolError, got %v", err)
		}
		if len(venue.calls) != 0 {
			t.Error("venue must not be called without a pool")
		}
	})

	t.Run("fixed-address actions pass the zero pool through", func(t *testing.T) {
		venue := &stubVenue{outputs: []Payment{NewPayment(stToken, 1)}}
		d := newDispatcher(map[Action]Venue{ActionStake: venue}, NewStaticResolver())
		v := NewVault()
		mustDeposit(t, v, tokenA, 100)
		instr := Instruction{
			Action:   ActionStake,
			Inputs:   []Input{{Token: tokenA, Amount: AllBalance()}},
			TokenOut: stToken,
		}

		if _, err := d.execute(ctx, v, &instr, nil); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if venue.calls[0].Pool != (common.Address{}) {
			t.Errorf("expected zero pool, got %s", venue.calls[0].Pool.Hex())
		}
	})
}
