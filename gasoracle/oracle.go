// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gasoracle tracks the USD price of each chain's gas token and its
// gas price, and converts gas amounts on remote chains into local native
// token or USD cost.
package gasoracle

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/events"
	"github.com/luxfi/xbridge/host"
	"github.com/luxfi/xbridge/state"
)

const (
	// OraclePrecision is the number of decimals of stored prices.
	OraclePrecision = 18
	// DefaultChainPrecision is the decimals of the native token when unset.
	DefaultChainPrecision = 18
)

var (
	ErrAlreadyInitialized = errors.New("gas oracle: already initialized")
	ErrNotInitialized     = errors.New("gas oracle: not initialized")
	ErrUnauthorized       = errors.New("gas oracle: caller is not the admin")
	ErrNoPrice            = errors.New("gas oracle: no price for this chain")
	ErrPrecision          = errors.New("gas oracle: chain precision above oracle precision")
	ErrOverflow           = errors.New("gas oracle: arithmetic overflow")
)

const oracleABI = `[
	{"type":"event","name":"ChainDataUpdated","inputs":[
		{"name":"chainId","type":"uint8","indexed":true},
		{"name":"price","type":"uint256","indexed":false},
		{"name":"gasPrice","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"AdminChanged","inputs":[
		{"name":"previous","type":"address","indexed":true},
		{"name":"next","type":"address","indexed":true}
	]}
]`

// ABI describes the events the oracle emits.
var ABI = events.ParseABI(oracleABI)

var (
	adminKey     = state.Key([]byte("admin"))
	chainIDKey   = state.Key([]byte("chainId"))
	toChainKey   = state.Key([]byte("fromOracleToChainPrecision"))
	initKey      = state.Key([]byte("initialized"))
	pricePrefix  = []byte("price")
	gasPrefix    = []byte("gasPrice")
	oracleFactor = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(OraclePrecision))
)

// ChainData is the stored pricing of one chain.
type ChainData struct {
	Price    *uint256.Int
	GasPrice *uint256.Int
}

// Oracle is the gas oracle contract bound to one call frame.
type Oracle struct {
	frame *host.Frame
	addr  common.Address
	store *state.Store
}

// New binds the oracle deployed at addr to frame.
func New(frame *host.Frame, addr common.Address) *Oracle {
	return &Oracle{
		frame: frame,
		addr:  addr,
		store: state.ForContract(frame.DB, addr),
	}
}

func (o *Oracle) Address() common.Address { return o.addr }

// Initialize sets the admin, the chain id of this chain and the decimals of
// its native token.
func (o *Oracle) Initialize(admin common.Address, chainID uint8, chainPrecision uint8) error {
	done, err := o.store.Bool(initKey)
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	if chainPrecision > OraclePrecision {
		return fmt.Errorf("%w: %d", ErrPrecision, chainPrecision)
	}
	factor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(OraclePrecision-chainPrecision)))
	if err := o.store.SetUint256(toChainKey, factor); err != nil {
		return err
	}
	if err := o.store.SetAddress(adminKey, admin); err != nil {
		return err
	}
	if err := o.store.SetUint8(chainIDKey, chainID); err != nil {
		return err
	}
	return o.store.SetBool(initKey, true)
}

func (o *Oracle) Admin() (common.Address, error) {
	return o.store.Address(adminKey)
}

func (o *Oracle) ChainID() (uint8, error) {
	return o.store.Uint8(chainIDKey)
}

func (o *Oracle) onlyAdmin() error {
	admin, err := o.Admin()
	if err != nil {
		return err
	}
	if admin == (common.Address{}) {
		return ErrNotInitialized
	}
	if o.frame.Caller() != admin {
		return ErrUnauthorized
	}
	return nil
}

// SetAdmin hands the oracle over to next.
func (o *Oracle) SetAdmin(next common.Address) error {
	if err := o.onlyAdmin(); err != nil {
		return err
	}
	prev, err := o.Admin()
	if err != nil {
		return err
	}
	if err := o.store.SetAddress(adminKey, next); err != nil {
		return err
	}
	return o.frame.Events.Emit(ABI, o.addr, "AdminChanged", prev, next)
}

func (o *Oracle) Price(chainID uint8) (*uint256.Int, error) {
	return o.store.Uint256(state.Key(pricePrefix, state.Uint8Key(chainID)))
}

func (o *Oracle) GasPrice(chainID uint8) (*uint256.Int, error) {
	return o.store.Uint256(state.Key(gasPrefix, state.Uint8Key(chainID)))
}

func (o *Oracle) ChainData(chainID uint8) (ChainData, error) {
	price, err := o.Price(chainID)
	if err != nil {
		return ChainData{}, err
	}
	gasPrice, err := o.GasPrice(chainID)
	if err != nil {
		return ChainData{}, err
	}
	return ChainData{Price: price, GasPrice: gasPrice}, nil
}

func (o *Oracle) SetPrice(chainID uint8, price *uint256.Int) error {
	gasPrice, err := o.GasPrice(chainID)
	if err != nil {
		return err
	}
	return o.SetChainData(chainID, price, gasPrice)
}

func (o *Oracle) SetGasPrice(chainID uint8, gasPrice *uint256.Int) error {
	price, err := o.Price(chainID)
	if err != nil {
		return err
	}
	return o.SetChainData(chainID, price, gasPrice)
}

// SetChainData stores both the token price and the gas price of chainID.
func (o *Oracle) SetChainData(chainID uint8, price, gasPrice *uint256.Int) error {
	if err := o.onlyAdmin(); err != nil {
		return err
	}
	if err := o.store.SetUint256(state.Key(pricePrefix, state.Uint8Key(chainID)), price); err != nil {
		return err
	}
	if err := o.store.SetUint256(state.Key(gasPrefix, state.Uint8Key(chainID)), gasPrice); err != nil {
		return err
	}
	return o.frame.Events.Emit(ABI, o.addr, "ChainDataUpdated", chainID, price.ToBig(), gasPrice.ToBig())
}

// TransactionGasCostInNativeToken converts gasAmount units of gas on
// otherChainID into the native token of this chain.
func (o *Oracle) TransactionGasCostInNativeToken(otherChainID uint8, gasAmount *uint256.Int) (*uint256.Int, error) {
	other, err := o.ChainData(otherChainID)
	if err != nil {
		return nil, err
	}
	local, err := o.localPrice()
	if err != nil {
		return nil, err
	}
	factor, err := o.store.Uint256(toChainKey)
	if err != nil {
		return nil, err
	}
	if factor.IsZero() {
		return nil, ErrNotInitialized
	}
	cost, err := mul(other.GasPrice, gasAmount, other.Price)
	if err != nil {
		return nil, err
	}
	cost.Div(cost, local)
	return cost.Div(cost, factor), nil
}

// TransactionGasCostInUSD converts gasAmount units of gas on otherChainID
// into USD with OraclePrecision decimals.
func (o *Oracle) TransactionGasCostInUSD(otherChainID uint8, gasAmount *uint256.Int) (*uint256.Int, error) {
	other, err := o.ChainData(otherChainID)
	if err != nil {
		return nil, err
	}
	cost, err := mul(other.GasPrice, gasAmount, other.Price)
	if err != nil {
		return nil, err
	}
	return cost.Div(cost, oracleFactor), nil
}

// CrossRate is the price of otherChainID's native token in units of this
// chain's native token, with OraclePrecision decimals.
func (o *Oracle) CrossRate(otherChainID uint8) (*uint256.Int, error) {
	otherPrice, err := o.Price(otherChainID)
	if err != nil {
		return nil, err
	}
	local, err := o.localPrice()
	if err != nil {
		return nil, err
	}
	rate, err := mul(otherPrice, oracleFactor)
	if err != nil {
		return nil, err
	}
	return rate.Div(rate, local), nil
}

// LocalPrice is the USD price of this chain's native token.
func (o *Oracle) LocalPrice() (*uint256.Int, error) {
	return o.localPrice()
}

func (o *Oracle) localPrice() (*uint256.Int, error) {
	chainID, err := o.ChainID()
	if err != nil {
		return nil, err
	}
	price, err := o.Price(chainID)
	if err != nil {
		return nil, err
	}
	if price.IsZero() {
		return nil, ErrNoPrice
	}
	return price, nil
}

func mul(factors ...*uint256.Int) (*uint256.Int, error) {
	out := uint256.NewInt(1)
	for _, f := range factors {
		if _, overflow := out.MulOverflow(out, f); overflow {
			return nil, ErrOverflow
		}
	}
	return out, nil
}
