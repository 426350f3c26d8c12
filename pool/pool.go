// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pool implements a stable-swap liquidity pool between one token and
// vUSD, the virtual dollar the bridge moves between chains. Balances are kept
// in system precision (3 decimals). Liquidity providers earn the swap fees
// through a reward-per-share accumulator.
package pool

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
	// SystemPrecision is the number of decimals of pool balances and LP.
	SystemPrecision = 3
	// BP is one in basis points.
	BP = 10_000
	// P is the fixed point shift of the reward accumulator.
	P = 52
)

// MaxTokenBalance bounds the token side of a pool in system precision.
var MaxTokenBalance = new(uint256.Int).Lsh(uint256.NewInt(1), 40)

var (
	ErrAlreadyInitialized = errors.New("pool: already initialized")
	ErrNotInitialized     = errors.New("pool: not initialized")
	ErrUnauthorized       = errors.New("pool: caller is not the admin")
	ErrOnlyBridge         = errors.New("pool: caller is not the bridge")
	ErrOnlyStopAuthority  = errors.New("pool: caller is not the stop authority")
	ErrDepositProhibited  = errors.New("pool: deposit prohibited")
	ErrWithdrawProhibited = errors.New("pool: withdraw prohibited")
	ErrTooLittle          = errors.New("pool: too little")
	ErrTooMuch            = errors.New("pool: too much")
	ErrZeroChanges        = errors.New("pool: zero changes")
	ErrZeroDChanges       = errors.New("pool: zero D changes")
	ErrReserves           = errors.New("pool: reserves")
	ErrSlippage           = errors.New("pool: slippage")
	ErrLowVUsdBalance     = errors.New("pool: low vUSD balance")
	ErrLowTokenBalance    = errors.New("pool: low token balance")
	ErrNotEnoughLP        = errors.New("pool: not enough amount")
	ErrInvalidBP          = errors.New("pool: basis points above 10000")
	ErrInvalidA           = errors.New("pool: amplification must be positive")
	ErrDecimals           = errors.New("pool: token decimals below system precision")
	ErrCurve              = errors.New("pool: no solution on curve")
	ErrOverflow           = errors.New("pool: arithmetic overflow")
)

const poolABI = `[
	{"type":"event","name":"Deposit","inputs":[
		{"name":"user","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"Withdraw","inputs":[
		{"name":"user","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"SwappedToVUsd","inputs":[
		{"name":"sender","type":"address","indexed":false},
		{"name":"token","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"vUsdAmount","type":"uint256","indexed":false},
		{"name":"fee","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"SwappedFromVUsd","inputs":[
		{"name":"recipient","type":"address","indexed":false},
		{"name":"token","type":"address","indexed":false},
		{"name":"vUsdAmount","type":"uint256","indexed":false},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"fee","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"RewardsClaimed","inputs":[
		{"name":"user","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}
	]}
]`

var ABI = events.ParseABI(poolABI)

var (
	initKey            = state.Key([]byte("initialized"))
	adminKey           = state.Key([]byte("admin"))
	bridgeKey          = state.Key([]byte("bridge"))
	stopAuthorityKey   = state.Key([]byte("stopAuthority"))
	tokenKey           = state.Key([]byte("token"))
	decimalsKey        = state.Key([]byte("decimals"))
	aKey               = state.Key([]byte("a"))
	dKey               = state.Key([]byte("d"))
	tokenBalanceKey    = state.Key([]byte("tokenBalance"))
	vUsdBalanceKey     = state.Key([]byte("vUsdBalance"))
	reservesKey        = state.Key([]byte("reserves"))
	feeShareKey        = state.Key([]byte("feeShareBP"))
	adminFeeShareKey   = state.Key([]byte("adminFeeShareBP"))
	balanceRatioKey    = state.Key([]byte("balanceRatioMinBP"))
	accRewardKey       = state.Key([]byte("accRewardPerShareP"))
	adminFeeAmountKey  = state.Key([]byte("adminFeeAmount"))
	totalLpKey         = state.Key([]byte("totalLpAmount"))
	depositStoppedKey  = state.Key([]byte("depositStopped"))
	withdrawStoppedKey = state.Key([]byte("withdrawStopped"))

	lpPrefix         = []byte("lp")
	rewardDebtPrefix = []byte("rewardDebt")
)

// Params configure a new pool.
type Params struct {
	Admin             common.Address
	Bridge            common.Address
	Token             common.Address
	A                 uint64
	FeeShareBP        uint64
	AdminFeeShareBP   uint64
	BalanceRatioMinBP uint64
}

// Snapshot is the full scalar state of a pool.
type Snapshot struct {
	Token              common.Address
	Decimals           uint8
	A                  *uint256.Int
	D                  *uint256.Int
	TokenBalance       *uint256.Int
	VUsdBalance        *uint256.Int
	Reserves           *uint256.Int
	FeeShareBP         *uint256.Int
	AdminFeeShareBP    *uint256.Int
	BalanceRatioMinBP  *uint256.Int
	AccRewardPerShareP *uint256.Int
	AdminFeeAmount     *uint256.Int
	TotalLpAmount      *uint256.Int
	CanDeposit         bool
	CanWithdraw        bool
}

// UserDeposit is the LP position of one account.
type UserDeposit struct {
	LpAmount   *uint256.Int
	RewardDebt *uint256.Int
}

// Pool is the pool contract bound to one call frame.
type Pool struct {
	frame *host.Frame
	addr  common.Address
	store *state.Store
}

func New(frame *host.Frame, addr common.Address) *Pool {
	return &Pool{
		frame: frame,
		addr:  addr,
		store: state.ForContract(frame.DB, addr),
	}
}

func (p *Pool) Address() common.Address { return p.addr }

func (p *Pool) Initialize(params Params) error {
	done, err := p.store.Bool(initKey)
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	if params.A == 0 {
		return ErrInvalidA
	}
	if params.FeeShareBP > BP || params.AdminFeeShareBP > BP || params.BalanceRatioMinBP > BP {
		return ErrInvalidBP
	}
	decimals, err := p.frame.Ledger.Decimals(params.Token)
	if err != nil {
		return err
	}
	if decimals < SystemPrecision {
		return fmt.Errorf("%w: %d", ErrDecimals, decimals)
	}

	writes := []struct {
		key common.Hash
		val *uint256.Int
	}{
		{aKey, uint256.NewInt(params.A)},
		{feeShareKey, uint256.NewInt(params.FeeShareBP)},
		{adminFeeShareKey, uint256.NewInt(params.AdminFeeShareBP)},
		{balanceRatioKey, uint256.NewInt(params.BalanceRatioMinBP)},
	}
	for _, w := range writes {
		if err := p.store.SetUint256(w.key, w.val); err != nil {
			return err
		}
	}
	if err := p.store.SetAddress(adminKey, params.Admin); err != nil {
		return err
	}
	if err := p.store.SetAddress(stopAuthorityKey, params.Admin); err != nil {
		return err
	}
	if err := p.store.SetAddress(bridgeKey, params.Bridge); err != nil {
		return err
	}
	if err := p.store.SetAddress(tokenKey, params.Token); err != nil {
		return err
	}
	if err := p.store.SetUint8(decimalsKey, decimals); err != nil {
		return err
	}
	return p.store.SetBool(initKey, true)
}

// Snapshot loads every scalar of the pool.
func (p *Pool) Snapshot() (*Snapshot, error) {
	s := &Snapshot{}
	var err error
	if s.Token, err = p.store.Address(tokenKey); err != nil {
		return nil, err
	}
	if s.Decimals, err = p.store.Uint8(decimalsKey); err != nil {
		return nil, err
	}
	fields := []struct {
		key common.Hash
		dst **uint256.Int
	}{
		{aKey, &s.A},
		{dKey, &s.D},
		{tokenBalanceKey, &s.TokenBalance},
		{vUsdBalanceKey, &s.VUsdBalance},
		{reservesKey, &s.Reserves},
		{feeShareKey, &s.FeeShareBP},
		{adminFeeShareKey, &s.AdminFeeShareBP},
		{balanceRatioKey, &s.BalanceRatioMinBP},
		{accRewardKey, &s.AccRewardPerShareP},
		{adminFeeAmountKey, &s.AdminFeeAmount},
		{totalLpKey, &s.TotalLpAmount},
	}
	for _, f := range fields {
		if *f.dst, err = p.store.Uint256(f.key); err != nil {
			return nil, err
		}
	}
	if s.A.IsZero() {
		return nil, ErrNotInitialized
	}
	depositStopped, err := p.store.Bool(depositStoppedKey)
	if err != nil {
		return nil, err
	}
	withdrawStopped, err := p.store.Bool(withdrawStoppedKey)
	if err != nil {
		return nil, err
	}
	s.CanDeposit, s.CanWithdraw = !depositStopped, !withdrawStopped
	return s, nil
}

// save writes back the balances and accumulators of s.
func (p *Pool) save(s *Snapshot) error {
	fields := []struct {
		key common.Hash
		val *uint256.Int
	}{
		{dKey, s.D},
		{tokenBalanceKey, s.TokenBalance},
		{vUsdBalanceKey, s.VUsdBalance},
		{reservesKey, s.Reserves},
		{accRewardKey, s.AccRewardPerShareP},
		{adminFeeAmountKey, s.AdminFeeAmount},
		{totalLpKey, s.TotalLpAmount},
	}
	for _, f := range fields {
		if err := p.store.SetUint256(f.key, f.val); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) UserDeposit(user common.Address) (UserDeposit, error) {
	lp, err := p.store.Uint256(state.Key(lpPrefix, user.Bytes()))
	if err != nil {
		return UserDeposit{}, err
	}
	debt, err := p.store.Uint256(state.Key(rewardDebtPrefix, user.Bytes()))
	if err != nil {
		return UserDeposit{}, err
	}
	return UserDeposit{LpAmount: lp, RewardDebt: debt}, nil
}

func (p *Pool) setUserDeposit(user common.Address, u UserDeposit) error {
	if err := p.store.SetUint256(state.Key(lpPrefix, user.Bytes()), u.LpAmount); err != nil {
		return err
	}
	return p.store.SetUint256(state.Key(rewardDebtPrefix, user.Bytes()), u.RewardDebt)
}

func (p *Pool) Admin() (common.Address, error) { return p.store.Address(adminKey) }

func (p *Pool) Bridge() (common.Address, error) { return p.store.Address(bridgeKey) }

func (p *Pool) StopAuthority() (common.Address, error) { return p.store.Address(stopAuthorityKey) }

func (p *Pool) onlyAdmin() error {
	admin, err := p.Admin()
	if err != nil {
		return err
	}
	if admin == (common.Address{}) {
		return ErrNotInitialized
	}
	if p.frame.Caller() != admin {
		return ErrUnauthorized
	}
	return nil
}

func (p *Pool) onlyBridge() error {
	bridge, err := p.Bridge()
	if err != nil {
		return err
	}
	if p.frame.Caller() != bridge {
		return ErrOnlyBridge
	}
	return nil
}

// ToSystemPrecision converts a token amount into system precision.
func (s *Snapshot) ToSystemPrecision(amount *uint256.Int) *uint256.Int {
	return new(uint256.Int).Div(amount, pow10(s.Decimals-SystemPrecision))
}

// FromSystemPrecision converts a system precision amount into token units.
func (s *Snapshot) FromSystemPrecision(amount *uint256.Int) *uint256.Int {
	return new(uint256.Int).Mul(amount, pow10(s.Decimals-SystemPrecision))
}

func (s *Snapshot) updateD() error {
	d, err := s.getD(s.TokenBalance, s.VUsdBalance)
	if err != nil {
		return err
	}
	s.D = d
	return nil
}

func (s *Snapshot) getD(x, y *uint256.Int) (*uint256.Int, error) {
	d, overflow := uint256.FromBig(newInvariant(s.A, s.D).getD(x.ToBig(), y.ToBig()))
	if overflow {
		return nil, ErrOverflow
	}
	return d, nil
}

func (s *Snapshot) getY(x *uint256.Int) (*uint256.Int, error) {
	y, ok := newInvariant(s.A, s.D).getY(x.ToBig())
	if !ok {
		return nil, ErrCurve
	}
	out, overflow := uint256.FromBig(y)
	if overflow {
		return nil, ErrCurve
	}
	return out, nil
}

// GetY is the counter balance on the curve when one side holds x.
func (p *Pool) GetY(x *uint256.Int) (*uint256.Int, error) {
	s, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.getY(x)
}

// GetD is the invariant for balances x and y under the pool's amplification.
func (p *Pool) GetD(x, y *uint256.Int) (*uint256.Int, error) {
	s, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.getD(x, y)
}

// mulDiv returns x*y/d and fails instead of wrapping.
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z.Div(z, d), nil
}

func (s *Snapshot) validateBalanceRatio() error {
	if s.BalanceRatioMinBP.IsZero() {
		return nil
	}
	bp := uint256.NewInt(BP)
	switch s.TokenBalance.Cmp(s.VUsdBalance) {
	case 1:
		ratio := new(uint256.Int).Mul(s.VUsdBalance, bp)
		if ratio.Div(ratio, s.TokenBalance).Lt(s.BalanceRatioMinBP) {
			return ErrLowVUsdBalance
		}
	case -1:
		ratio := new(uint256.Int).Mul(s.TokenBalance, bp)
		if ratio.Div(ratio, s.VUsdBalance).Lt(s.BalanceRatioMinBP) {
			return ErrLowTokenBalance
		}
	}
	return nil
}

func (p *Pool) transferOut(s *Snapshot, to common.Address, amount *uint256.Int) error {
	return p.frame.Ledger.Transfer(s.Token, p.addr, to, amount)
}

func (p *Pool) transferIn(s *Snapshot, from common.Address, amount *uint256.Int) error {
	return p.frame.Ledger.Transfer(s.Token, from, p.addr, amount)
}
