package common

import (
	"fmt"
	"math/big"

	"podfin/core/types"
)

// AccountState is the slice of the state backend the value-transfer
// collaborator needs.
type AccountState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return types.NewAccount()
	}
	if acc.BalancePOD == nil {
		acc.BalancePOD = big.NewInt(0)
	}
	if acc.BalanceZPOD == nil {
		acc.BalanceZPOD = big.NewInt(0)
	}
	return acc
}

// Transfer moves amount of token between two accounts. Every failure mode,
// including an insufficient source balance, wraps ErrTransferFailed so the
// enclosing engine operation aborts as a unit. A zero amount is a no-op.
func Transfer(st AccountState, from, to [20]byte, token string, amount *big.Int) error {
	if st == nil {
		return fmt.Errorf("account state not configured: %w", ErrTransferFailed)
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative transfer amount: %w", ErrTransferFailed)
	}
	normalized, err := NormalizeToken(token)
	if err != nil {
		return fmt.Errorf("transfer: %v: %w", err, ErrTransferFailed)
	}
	fromAcc, err := st.GetAccount(from[:])
	if err != nil {
		return fmt.Errorf("load source account: %v: %w", err, ErrTransferFailed)
	}
	toAcc, err := st.GetAccount(to[:])
	if err != nil {
		return fmt.Errorf("load destination account: %v: %w", err, ErrTransferFailed)
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	switch normalized {
	case TokenPOD:
		if fromAcc.BalancePOD.Cmp(amount) < 0 {
			return fmt.Errorf("insufficient %s balance: %w", normalized, ErrTransferFailed)
		}
		fromAcc.BalancePOD = new(big.Int).Sub(fromAcc.BalancePOD, amount)
		toAcc.BalancePOD = new(big.Int).Add(toAcc.BalancePOD, amount)
	case TokenZPOD:
		if fromAcc.BalanceZPOD.Cmp(amount) < 0 {
			return fmt.Errorf("insufficient %s balance: %w", normalized, ErrTransferFailed)
		}
		fromAcc.BalanceZPOD = new(big.Int).Sub(fromAcc.BalanceZPOD, amount)
		toAcc.BalanceZPOD = new(big.Int).Add(toAcc.BalanceZPOD, amount)
	}
	if err := st.PutAccount(from[:], fromAcc); err != nil {
		return fmt.Errorf("store source account: %v: %w", err, ErrTransferFailed)
	}
	if err := st.PutAccount(to[:], toAcc); err != nil {
		return fmt.Errorf("store destination account: %v: %w", err, ErrTransferFailed)
	}
	return nil
}

// SnapshotAccounts captures the listed accounts and returns a restore
// function. Engines take a snapshot before a multi-transfer sequence so a
// failing transfer can unwind the ones that already settled.
func SnapshotAccounts(st AccountState, addrs ...[20]byte) (func() error, error) {
	if st == nil {
		return nil, fmt.Errorf("account state not configured: %w", ErrTransferFailed)
	}
	saved := make(map[[20]byte]*types.Account, len(addrs))
	for _, addr := range addrs {
		if _, ok := saved[addr]; ok {
			continue
		}
		acc, err := st.GetAccount(addr[:])
		if err != nil {
			return nil, fmt.Errorf("snapshot account: %v: %w", err, ErrTransferFailed)
		}
		saved[addr] = acc.Clone()
	}
	return func() error {
		for addr, acc := range saved {
			if err := st.PutAccount(addr[:], acc.Clone()); err != nil {
				return err
			}
		}
		return nil
	}, nil
}
