package aggregator

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PpmDenominator is the parts-per-million denominator for fractional
// amount modes: 1,000,000 means 100% of the balance.
const PpmDenominator = 1_000_000

// AmountMode selects the policy used to derive an instruction's input amount.
type AmountMode uint8

const (
	// AmountFixed uses an exact amount, typically for the first hop where
	// the input is known up front.
	AmountFixed AmountMode = iota

	// AmountPpm uses a parts-per-million fraction of the current vault
	// balance, truncated toward zero.
	AmountPpm

	// AmountAll uses the entire current vault balance, so the last
	// instruction touching a token leaves no dust behind.
	AmountAll

	// AmountPrev uses the previous instruction's output amount regardless
	// of the current vault balance, allowing hops to chain without
	// re-querying state.
	AmountPrev
)

// AmountSpec declares how an instruction's input amount is resolved.
// Build specs with FixedAmount, PpmAmount, AllBalance, or PreviousOutput.
type AmountSpec struct {
	mode  AmountMode
	fixed *uint256.Int
	ppm   uint32
}

// FixedAmount uses exactly n as the input amount.
func FixedAmount(n *uint256.Int) AmountSpec {
	return AmountSpec{mode: AmountFixed, fixed: new(uint256.Int).Set(n)}
}

// FixedUint64 is a convenience constructor for small fixed amounts.
func FixedUint64(n uint64) AmountSpec {
	return AmountSpec{mode: AmountFixed, fixed: uint256.NewInt(n)}
}

// PpmAmount uses ppm/1,000,000 of the current vault balance.
func PpmAmount(ppm uint32) AmountSpec {
	return AmountSpec{mode: AmountPpm, ppm: ppm}
}

// AllBalance uses the entire current vault balance of the input token.
func AllBalance() AmountSpec {
	return AmountSpec{mode: AmountAll}
}

// PreviousOutput uses the amount produced by the preceding instruction.
func PreviousOutput() AmountSpec {
	return AmountSpec{mode: AmountPrev}
}

// Mode returns the amount mode of the spec.
func (s AmountSpec) Mode() AmountMode {
	return s.mode
}

// ResolveAmount converts an amount specification plus the current vault
// state and the previous instruction's output into a concrete amount.
// It is pure: the vault is only read, never mutated. The subsequent
// withdrawal is the point of truth that the vault actually holds enough.
func ResolveAmount(spec AmountSpec, token common.Address, vault *Vault, prev *Payment) (*uint256.Int, error) {
	switch spec.mode {
	case AmountFixed:
		if spec.fixed == nil {
			return new(uint256.Int), nil
		}
		return new(uint256.Int).Set(spec.fixed), nil

	case AmountPpm:
		if spec.ppm > PpmDenominator {
			return nil, &InvalidAmountModeError{Mode: AmountPpm, Ppm: spec.ppm}
		}
		return ppmOf(vault.Balance(token), spec.ppm), nil

	case AmountAll:
		return vault.Balance(token), nil

	case AmountPrev:
		if prev == nil {
			return nil, ErrNoPreviousOutput
		}
		if prev.Token != token {
			return nil, ErrPrevTokenMismatch
		}
		return new(uint256.Int).Set(prev.Amount), nil

	default:
		return nil, &InvalidAmountModeError{Mode: spec.mode}
	}
}

// ppmOf computes floor(balance * ppm / 1,000,000). The multiplication runs
// through big.Int so a large balance cannot spuriously overflow; the result
// is always <= balance and therefore fits 256 bits.
func ppmOf(balance *uint256.Int, ppm uint32) *uint256.Int {
	if ppm == 0 || balance.IsZero() {
		return new(uint256.Int)
	}
	if ppm == PpmDenominator {
		return new(uint256.Int).Set(balance)
	}
	return mulDiv(balance, uint64(ppm), PpmDenominator)
}

// mulDiv computes floor(x * num / den) exactly. Truncation toward zero is
// the only rounding rule in the engine.
func mulDiv(x *uint256.Int, num, den uint64) *uint256.Int {
	product := new(big.Int).Mul(x.ToBig(), new(big.Int).SetUint64(num))
	product.Quo(product, new(big.Int).SetUint64(den))
	out, _ := uint256.FromBig(product)
	return out
}
