// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/gasoracle"
	"github.com/luxfi/xbridge/host"
	"github.com/luxfi/xbridge/pool"
	"github.com/luxfi/xbridge/state"
)

// AddPool registers the pool at poolAddr for token and derives the factor
// used to price bridging fees paid in that token.
func (b *Bridge) AddPool(poolAddr common.Address, token common.Address) error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	snap, err := pool.New(b.self(), poolAddr).Snapshot()
	if err != nil {
		return err
	}
	if snap.Token != token {
		return fmt.Errorf("%w: %s holds %s", ErrPoolToken, poolAddr, snap.Token)
	}
	nativeDecimals, err := b.store.Uint8(nativeDecimalsKey)
	if err != nil {
		return err
	}
	exp := int(gasoracle.OraclePrecision) + int(nativeDecimals) - int(snap.Decimals)
	if exp < 0 {
		return fmt.Errorf("%w: token decimals %d", ErrDecimals, snap.Decimals)
	}
	factor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(exp)))

	if err := b.store.SetAddress(state.Key(poolPrefix, token.Bytes()), poolAddr); err != nil {
		return err
	}
	if err := b.store.SetUint256(state.Key(feeFactorPrefix, token.Bytes()), factor); err != nil {
		return err
	}
	return b.frame.Events.Emit(ABI, b.addr, "PoolAdded", token, poolAddr)
}

// RegisterBridge records the bridge on chainID, as a 32 byte address.
func (b *Bridge) RegisterBridge(chainID uint8, bridge common.Hash) error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	if err := b.store.SetHash(state.Key(otherBridgePrefix, state.Uint8Key(chainID)), bridge); err != nil {
		return err
	}
	return b.frame.Events.Emit(ABI, b.addr, "BridgeRegistered", chainID, [32]byte(bridge))
}

func (b *Bridge) AddBridgeToken(chainID uint8, token common.Hash) error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	return b.bridgeTokens(chainID).Add(token)
}

func (b *Bridge) RemoveBridgeToken(chainID uint8, token common.Hash) error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	return b.bridgeTokens(chainID).Remove(token)
}

// SetGasUsage sets the gas a receive on chainID consumes.
func (b *Bridge) SetGasUsage(chainID uint8, gas *uint256.Int) error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	return b.store.SetUint256(state.Key(gasUsagePrefix, state.Uint8Key(chainID)), gas)
}

func (b *Bridge) setAddress(key common.Hash, addr common.Address) error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	return b.store.SetAddress(key, addr)
}

func (b *Bridge) SetRebalancer(addr common.Address) error { return b.setAddress(rebalancerKey, addr) }

func (b *Bridge) SetStopAuthority(addr common.Address) error {
	return b.setAddress(stopAuthorityKey, addr)
}

func (b *Bridge) SetAdmin(addr common.Address) error { return b.setAddress(adminKey, addr) }

func (b *Bridge) SetMessenger(addr common.Address) error { return b.setAddress(messengerKey, addr) }

func (b *Bridge) SetGasOracle(addr common.Address) error { return b.setAddress(gasOracleKey, addr) }

// StopSwap halts every swap and transfer. Only the stop authority may call it.
func (b *Bridge) StopSwap() error {
	authority, err := b.store.Address(stopAuthorityKey)
	if err != nil {
		return err
	}
	if b.frame.Caller() != authority {
		return ErrOnlyStopAuthority
	}
	return b.store.SetBool(swapStoppedKey, true)
}

func (b *Bridge) StartSwap() error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	return b.store.SetBool(swapStoppedKey, false)
}

// WithdrawGasTokens moves native tokens collected as bridging fees to the
// admin.
func (b *Bridge) WithdrawGasTokens(amount *uint256.Int) error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	return b.frame.Ledger.Transfer(host.NativeToken, b.addr, b.frame.Caller(), amount)
}

// WithdrawBridgingFeeInTokens moves bridging fees paid in token to the admin.
func (b *Bridge) WithdrawBridgingFeeInTokens(token common.Address, amount *uint256.Int) error {
	if err := b.onlyAdmin(); err != nil {
		return err
	}
	return b.frame.Ledger.Transfer(token, b.addr, b.frame.Caller(), amount)
}
