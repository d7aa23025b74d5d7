package aggregator

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NativeToken is the conventional sentinel address for the chain's native
// asset, used by instructions that wrap, unwrap, or stake it.
var NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Payment is a token and an amount, the unit of value moved in and out of
// the engine and between the vault and venue adapters.
type Payment struct {
	Token  common.Address
	Amount *uint256.Int
}

// NewPayment creates a payment from a token address and a uint64 amount.
func NewPayment(token common.Address, amount uint64) Payment {
	return Payment{Token: token, Amount: uint256.NewInt(amount)}
}

// Vault is the transaction-scoped ledger of token balances accumulated while
// a route executes. It is created for a single Run call, seeded with the
// caller's payment, mutated by every instruction, and drained at the end.
// It is not safe for concurrent use and must never outlive its call.
type Vault struct {
	balances map[common.Address]*uint256.Int
	tokens   []common.Address // insertion order, for deterministic drains
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		balances: make(map[common.Address]*uint256.Int, 8),
	}
}

// Balance returns a copy of the current balance for a token.
// A token the vault has never seen has balance zero.
func (v *Vault) Balance(token common.Address) *uint256.Int {
	if bal, ok := v.balances[token]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// Deposit increases the balance of a token. It fails with an OverflowError
// if the addition would exceed 256 bits.
func (v *Vault) Deposit(token common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal, ok := v.balances[token]
	if !ok {
		v.balances[token] = new(uint256.Int).Set(amount)
		v.tokens = append(v.tokens, token)
		return nil
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return &OverflowError{Token: token}
	}
	v.balances[token] = sum
	return nil
}

// Withdraw decreases the balance of a token. It fails with an
// InsufficientBalanceError if the amount exceeds the current balance;
// it never clamps. The entry is dropped when the balance reaches zero.
func (v *Vault) Withdraw(token common.Address, amount *uint256.Int) error {
	bal := v.Balance(token)
	if amount.Gt(bal) {
		return &InsufficientBalanceError{Token: token, Have: bal, Want: new(uint256.Int).Set(amount)}
	}
	rest := bal.Sub(bal, amount)
	if rest.IsZero() {
		v.remove(token)
		return nil
	}
	v.balances[token] = rest
	return nil
}

// WithdrawAll removes and returns the entire balance of a token.
// Returns zero if the token is not present.
func (v *Vault) WithdrawAll(token common.Address) *uint256.Int {
	bal := v.Balance(token)
	if !bal.IsZero() {
		v.remove(token)
	}
	return bal
}

// HasMinimum reports whether the vault holds at least min of a token.
func (v *Vault) HasMinimum(token common.Address, min *uint256.Int) bool {
	return !v.Balance(token).Lt(min)
}

// Drain returns every non-zero balance in deposit order and empties the
// vault. Used once per call to produce the caller's settlement transfer.
func (v *Vault) Drain() []Payment {
	payments := make([]Payment, 0, len(v.tokens))
	for _, token := range v.tokens {
		if bal, ok := v.balances[token]; ok && !bal.IsZero() {
			payments = append(payments, Payment{Token: token, Amount: bal})
		}
	}
	v.balances = make(map[common.Address]*uint256.Int)
	v.tokens = nil
	return payments
}

// Balances returns a copy of every non-zero balance in deposit order
// without modifying the vault.
func (v *Vault) Balances() []Payment {
	payments := make([]Payment, 0, len(v.tokens))
	for _, token := range v.tokens {
		if bal, ok := v.balances[token]; ok && !bal.IsZero() {
			payments = append(payments, Payment{Token: token, Amount: new(uint256.Int).Set(bal)})
		}
	}
	return payments
}

// Len returns the number of tokens with a non-zero balance.
func (v *Vault) Len() int {
	return len(v.balances)
}

// remove drops a token from the map and the ordered list. The list scan is
// linear, but routes rarely touch more than a handful of distinct tokens.
func (v *Vault) remove(token common.Address) {
	delete(v.balances, token)
	for i, t := range v.tokens {
		if t == token {
			v.tokens = append(v.tokens[:i], v.tokens[i+1:]...)
			return
		}
	}
}
