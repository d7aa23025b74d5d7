package aggregator

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// FeeDenominator is the basis-point denominator for fee rates:
// 10,000 bps equals 100%.
const FeeDenominator = 10_000

// maxReferralFeeBps caps referral fees at 50%. Every referral fee is
// matched 1:1 by an admin fee, so anything above half would push the
// total past 100% of the output.
const maxReferralFeeBps = FeeDenominator / 2

// Referral is one fee-sharing entity: who may claim its accrued fees,
// what rate it earns, and whether it currently applies.
type Referral struct {
	Owner  common.Address
	FeeBps uint32
	Active bool
}

// FeeBook holds the engine's owner-gated fee configuration and the fees
// accrued by runs: the static (no-referral) rate, per-referral rates, and
// the balances owed to the admin and to each referral owner.
//
// A FeeBook outlives individual runs and may be shared by concurrent Run
// calls; all methods are safe for concurrent use.
type FeeBook struct {
	mu        sync.RWMutex
	owner     common.Address
	staticBps uint32
	nextID    uint64
	referrals map[uint64]Referral
	accrued   map[uint64]*Vault // per-referral fee balances
	admin     *Vault
}

// NewFeeBook creates a fee book administered by owner, with no static fee
// and no referrals.
func NewFeeBook(owner common.Address) *FeeBook {
	return &FeeBook{
		owner:     owner,
		referrals: make(map[uint64]Referral),
		accrued:   make(map[uint64]*Vault),
		admin:     NewVault(),
	}
}

// AddReferral registers a new active referral and returns its ID.
// Owner-gated; the fee is capped at 5,000 bps.
func (b *FeeBook) AddReferral(caller, owner common.Address, feeBps uint32) (uint64, error) {
	if caller != b.Owner() {
		return 0, ErrNotOwner
	}
	if feeBps > maxReferralFeeBps {
		return 0, ErrFeeTooHigh
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.referrals[b.nextID] = Referral{Owner: owner, FeeBps: feeBps, Active: true}
	return b.nextID, nil
}

// SetReferralFee updates an existing referral's rate. Owner-gated.
func (b *FeeBook) SetReferralFee(caller common.Address, id uint64, feeBps uint32) error {
	if feeBps > maxReferralFeeBps {
		return ErrFeeTooHigh
	}
	return b.updateReferral(caller, id, func(r *Referral) { r.FeeBps = feeBps })
}

// SetReferralActive enables or disables a referral. Owner-gated.
func (b *FeeBook) SetReferralActive(caller common.Address, id uint64, active bool) error {
	return b.updateReferral(caller, id, func(r *Referral) { r.Active = active })
}

// SetReferralOwner transfers a referral to a new owner. Owner-gated.
func (b *FeeBook) SetReferralOwner(caller common.Address, id uint64, newOwner common.Address) error {
	return b.updateReferral(caller, id, func(r *Referral) { r.Owner = newOwner })
}

// SetStaticFee sets the rate charged on runs without a referral.
// Owner-gated; capped at 10,000 bps.
func (b *FeeBook) SetStaticFee(caller common.Address, feeBps uint32) error {
	if caller != b.Owner() {
		return ErrNotOwner
	}
	if feeBps > FeeDenominator {
		return ErrFeeTooHigh
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.staticBps = feeBps
	return nil
}

// ClaimReferralFees returns and clears everything accrued for a referral.
// Only the referral's owner may claim.
func (b *FeeBook) ClaimReferralFees(caller common.Address, id uint64) ([]Payment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref, ok := b.referrals[id]
	if !ok {
		return nil, ErrReferralNotFound
	}
	if caller != ref.Owner {
		return nil, ErrNotReferralOwner
	}
	vault, ok := b.accrued[id]
	if !ok {
		return nil, nil
	}
	return vault.Drain(), nil
}

// ClaimAdminFees returns and clears everything accrued for the admin.
// Owner-gated.
func (b *FeeBook) ClaimAdminFees(caller common.Address) ([]Payment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if caller != b.owner {
		return nil, ErrNotOwner
	}
	return b.admin.Drain(), nil
}

// Owner returns the fee book's administrator.
func (b *FeeBook) Owner() common.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.owner
}

// StaticFee returns the no-referral rate in basis points.
func (b *FeeBook) StaticFee() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.staticBps
}

// Referral returns a referral's configuration.
func (b *FeeBook) Referral(id uint64) (Referral, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ref, ok := b.referrals[id]
	if !ok {
		return Referral{}, ErrReferralNotFound
	}
	return ref, nil
}

// ReferralBalances returns the fees currently accrued for a referral.
func (b *FeeBook) ReferralBalances(id uint64) []Payment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if vault, ok := b.accrued[id]; ok {
		return vault.Balances()
	}
	return nil
}

// AdminFees returns the fees currently accrued for the admin.
func (b *FeeBook) AdminFees() []Payment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.admin.Balances()
}

// feeCharge is an assessed but uncommitted fee: the amounts to take from
// the output token and where they will accrue once the run succeeds.
type feeCharge struct {
	token      common.Address
	referralID uint64 // 0 when the static fee applies
	referral   *uint256.Int
	admin      *uint256.Int
}

// total returns the amount to withdraw from the vault.
func (c *feeCharge) total() (*uint256.Int, bool) {
	if c.referral == nil {
		return new(uint256.Int).Set(c.admin), false
	}
	return new(uint256.Int).AddOverflow(c.referral, c.admin)
}

// assess computes the fee for a run without mutating any state. An active
// referral earns its rate plus a matching admin fee; otherwise the static
// rate accrues to the admin. Returns nil when nothing is owed.
func (b *FeeBook) assess(balance *uint256.Int, tokenOut common.Address, referralID uint64) *feeCharge {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if balance.IsZero() {
		return nil
	}

	if ref, ok := b.referrals[referralID]; referralID != 0 && ok && ref.Active && ref.FeeBps > 0 {
		fee := mulDiv(balance, uint64(ref.FeeBps), FeeDenominator)
		if fee.IsZero() {
			return nil
		}
		return &feeCharge{
			token:      tokenOut,
			referralID: referralID,
			referral:   fee,
			admin:      new(uint256.Int).Set(fee),
		}
	}

	if b.staticBps == 0 {
		return nil
	}
	fee := mulDiv(balance, uint64(b.staticBps), FeeDenominator)
	if fee.IsZero() {
		return nil
	}
	return &feeCharge{token: tokenOut, admin: fee}
}

// commit accrues an assessed charge. Called only once the run is known to
// succeed, so a failed run never leaves fees behind.
func (b *FeeBook) commit(charge *feeCharge) error {
	if charge == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if charge.referral != nil {
		if err := b.accrueReferral(charge.referralID, charge.token, charge.referral); err != nil {
			return err
		}
	}
	return b.admin.Deposit(charge.token, charge.admin)
}

// apply assesses, withdraws, and commits in one step.
func (b *FeeBook) apply(vault *Vault, tokenOut common.Address, referralID uint64) error {
	charge := b.assess(vault.Balance(tokenOut), tokenOut, referralID)
	if charge == nil {
		return nil
	}
	total, overflow := charge.total()
	if overflow {
		return &OverflowError{Token: tokenOut}
	}
	if err := vault.Withdraw(tokenOut, total); err != nil {
		return err
	}
	return b.commit(charge)
}

func (b *FeeBook) accrueReferral(id uint64, token common.Address, amount *uint256.Int) error {
	vault, ok := b.accrued[id]
	if !ok {
		vault = NewVault()
		b.accrued[id] = vault
	}
	return vault.Deposit(token, amount)
}

func (b *FeeBook) updateReferral(caller common.Address, id uint64, update func(*Referral)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if caller != b.owner {
		return ErrNotOwner
	}
	ref, ok := b.referrals[id]
	if !ok {
		return ErrReferralNotFound
	}
	update(&ref)
	b.referrals[id] = ref
	return nil
}
