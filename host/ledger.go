// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/state"
)

// NativeToken identifies the chain's gas token in ledger calls.
var NativeToken = common.Address{}

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownToken        = errors.New("unknown token")
)

// Ledger is the host token standard.
type Ledger interface {
	Balance(token, owner common.Address) (*uint256.Int, error)
	Transfer(token, from, to common.Address, amount *uint256.Int) error
	Decimals(token common.Address) (uint8, error)
}

var (
	ledgerPrefix   = []byte("ledger")
	balancePrefix  = []byte("bal")
	decimalsPrefix = []byte("dec")
	knownPrefix    = []byte("tok")
)

// StateLedger keeps balances in transactional storage, so transfers roll back
// together with the contract state that caused them.
type StateLedger struct {
	store *state.Store
}

func NewStateLedger(db database.Database) *StateLedger {
	return &StateLedger{store: state.New(db, ledgerPrefix)}
}

func balanceKey(token, owner common.Address) common.Hash {
	return state.Key(balancePrefix, token.Bytes(), owner.Bytes())
}

// Register declares token with the given decimals. The native token is
// always known.
func (l *StateLedger) Register(token common.Address, decimals uint8) error {
	if err := l.store.SetBool(state.Key(knownPrefix, token.Bytes()), true); err != nil {
		return err
	}
	return l.store.SetUint8(state.Key(decimalsPrefix, token.Bytes()), decimals)
}

func (l *StateLedger) known(token common.Address) (bool, error) {
	if token == NativeToken {
		return true, nil
	}
	return l.store.Bool(state.Key(knownPrefix, token.Bytes()))
}

func (l *StateLedger) Decimals(token common.Address) (uint8, error) {
	ok, err := l.known(token)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	if token == NativeToken {
		return 18, nil
	}
	return l.store.Uint8(state.Key(decimalsPrefix, token.Bytes()))
}

func (l *StateLedger) Balance(token, owner common.Address) (*uint256.Int, error) {
	return l.store.Uint256(balanceKey(token, owner))
}

// Mint credits amount of token to owner.
func (l *StateLedger) Mint(token, owner common.Address, amount *uint256.Int) error {
	ok, err := l.known(token)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	bal, err := l.Balance(token, owner)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return fmt.Errorf("mint overflows balance of %s", owner)
	}
	return l.store.SetUint256(balanceKey(token, owner), sum)
}

func (l *StateLedger) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() || from == to {
		return nil
	}
	fromBal, err := l.Balance(token, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s of %s, needs %s", ErrInsufficientBalance, from, fromBal, token, amount)
	}
	toBal, err := l.Balance(token, to)
	if err != nil {
		return err
	}
	if err := l.store.SetUint256(balanceKey(token, from), new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.store.SetUint256(balanceKey(token, to), new(uint256.Int).Add(toBal, amount))
}
