// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge moves value between chains through per-token stable-swap
// pools. Tokens are swapped into vUSD on the source chain, the vUSD amount
// travels as a validator-signed message, and the destination bridge swaps it
// out of the pool of the requested token.
package bridge

import (
	"fmt"
	"slices"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/gasoracle"
	"github.com/luxfi/xbridge/host"
	"github.com/luxfi/xbridge/messenger"
	"github.com/luxfi/xbridge/pool"
	"github.com/luxfi/xbridge/state"
)

// Bridge is the bridge contract bound to one call frame.
type Bridge struct {
	frame     *host.Frame
	addr      common.Address
	store     *state.Store
	sent      *state.Set
	processed *state.Set
}

// New binds the bridge deployed at addr to frame.
func New(frame *host.Frame, addr common.Address) *Bridge {
	store := state.ForContract(frame.DB, addr)
	return &Bridge{
		frame:     frame,
		addr:      addr,
		store:     store,
		sent:      state.NewSet(store, sentPrefix),
		processed: state.NewSet(store, processedPrefix),
	}
}

func (b *Bridge) Address() common.Address { return b.addr }

func (b *Bridge) Initialize(p Params) error {
	done, err := b.store.Bool(initKey)
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	if p.NativeDecimals > gasoracle.OraclePrecision {
		return fmt.Errorf("%w: native decimals %d", ErrDecimals, p.NativeDecimals)
	}
	stopAuthority := p.StopAuthority
	if stopAuthority == (common.Address{}) {
		stopAuthority = p.Admin
	}
	addrs := []struct {
		key common.Hash
		val common.Address
	}{
		{adminKey, p.Admin},
		{stopAuthorityKey, stopAuthority},
		{rebalancerKey, p.Rebalancer},
		{messengerKey, p.Messenger},
		{gasOracleKey, p.GasOracle},
	}
	for _, a := range addrs {
		if err := b.store.SetAddress(a.key, a.val); err != nil {
			return err
		}
	}
	if err := b.store.SetUint8(chainIDKey, p.ChainID); err != nil {
		return err
	}
	if err := b.store.SetUint8(nativeDecimalsKey, p.NativeDecimals); err != nil {
		return err
	}
	return b.store.SetBool(initKey, true)
}

// Config reads the scalar part of the config store.
func (b *Bridge) Config() (Config, error) {
	var (
		c   Config
		err error
	)
	addrs := []struct {
		key common.Hash
		dst *common.Address
	}{
		{adminKey, &c.Admin},
		{stopAuthorityKey, &c.StopAuthority},
		{rebalancerKey, &c.Rebalancer},
		{messengerKey, &c.Messenger},
		{gasOracleKey, &c.GasOracle},
	}
	for _, a := range addrs {
		if *a.dst, err = b.store.Address(a.key); err != nil {
			return Config{}, err
		}
	}
	if c.ChainID, err = b.store.Uint8(chainIDKey); err != nil {
		return Config{}, err
	}
	if c.NativeDecimals, err = b.store.Uint8(nativeDecimalsKey); err != nil {
		return Config{}, err
	}
	stopped, err := b.store.Bool(swapStoppedKey)
	if err != nil {
		return Config{}, err
	}
	c.CanSwap = !stopped
	return c, nil
}

func (b *Bridge) chainID() (uint8, error) {
	return b.store.Uint8(chainIDKey)
}

func (b *Bridge) onlyAdmin() error {
	admin, err := b.store.Address(adminKey)
	if err != nil {
		return err
	}
	if admin == (common.Address{}) {
		return ErrNotInitialized
	}
	if b.frame.Caller() != admin {
		return ErrUnauthorized
	}
	return nil
}

func (b *Bridge) whenCanSwap() error {
	stopped, err := b.store.Bool(swapStoppedKey)
	if err != nil {
		return err
	}
	if stopped {
		return ErrSwapProhibited
	}
	return nil
}

// nested frame for calls the bridge makes to other contracts
func (b *Bridge) self() *host.Frame {
	return b.frame.As(b.addr)
}

func (b *Bridge) messenger() (*messenger.Messenger, error) {
	addr, err := b.store.Address(messengerKey)
	if err != nil {
		return nil, err
	}
	if addr == (common.Address{}) {
		return nil, ErrNotInitialized
	}
	return messenger.New(b.self(), addr), nil
}

func (b *Bridge) gasOracle() (*gasoracle.Oracle, error) {
	addr, err := b.store.Address(gasOracleKey)
	if err != nil {
		return nil, err
	}
	if addr == (common.Address{}) {
		return nil, ErrNotInitialized
	}
	return gasoracle.New(b.self(), addr), nil
}

// Pool returns the pool address registered for token, zero if none.
func (b *Bridge) Pool(token common.Address) (common.Address, error) {
	return b.store.Address(state.Key(poolPrefix, token.Bytes()))
}

func (b *Bridge) pool(token common.Address) (*pool.Pool, error) {
	addr, err := b.Pool(token)
	if err != nil {
		return nil, err
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s", ErrNoPool, token)
	}
	return pool.New(b.self(), addr), nil
}

// OtherBridge returns the bridge registered for chainID, zero if none.
func (b *Bridge) OtherBridge(chainID uint8) (common.Hash, error) {
	return b.store.Hash(state.Key(otherBridgePrefix, state.Uint8Key(chainID)))
}

// IsBridgeToken reports whether token may be received on chainID.
func (b *Bridge) IsBridgeToken(chainID uint8, token common.Hash) (bool, error) {
	return b.bridgeTokens(chainID).Has(token)
}

// bridgeTokens is the set of tokens the bridge on chainID may pay out.
func (b *Bridge) bridgeTokens(chainID uint8) *state.Set {
	return state.NewSet(b.store, append(slices.Clone(bridgeTokenPrefix), chainID))
}

func (b *Bridge) GasUsage(chainID uint8) (*uint256.Int, error) {
	return b.store.Uint256(state.Key(gasUsagePrefix, state.Uint8Key(chainID)))
}

// BridgingFeeConversionFactor is 10^(18 + nativeDecimals - tokenDecimals).
func (b *Bridge) BridgingFeeConversionFactor(token common.Address) (*uint256.Int, error) {
	return b.store.Uint256(state.Key(feeFactorPrefix, token.Bytes()))
}

func (b *Bridge) HasSentMessage(message common.Hash) (bool, error) {
	return b.sent.Has(message)
}

func (b *Bridge) HasProcessedMessage(message common.Hash) (bool, error) {
	return b.processed.Has(message)
}
