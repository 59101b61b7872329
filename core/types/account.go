package types

import "math/big"

// Account is the balance-bearing record addressed by a 20-byte account key.
// Both native engines settle value by rewriting these balances through their
// state backend.
type Account struct {
	Nonce       uint64   `json:"nonce"`
	BalancePOD  *big.Int `json:"balancePod"`
	BalanceZPOD *big.Int `json:"balanceZpod"`
}

// NewAccount returns an account with zeroed balances.
func NewAccount() *Account {
	return &Account{
		BalancePOD:  big.NewInt(0),
		BalanceZPOD: big.NewInt(0),
	}
}

// Clone returns a deep copy so callers can mutate the result without aliasing
// the stored record.
func (a *Account) Clone() *Account {
	if a == nil {
		return NewAccount()
	}
	clone := &Account{Nonce: a.Nonce, BalancePOD: big.NewInt(0), BalanceZPOD: big.NewInt(0)}
	if a.BalancePOD != nil {
		clone.BalancePOD = new(big.Int).Set(a.BalancePOD)
	}
	if a.BalanceZPOD != nil {
		clone.BalanceZPOD = new(big.Int).Set(a.BalanceZPOD)
	}
	return clone
}
