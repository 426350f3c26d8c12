// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config is the JSON description of one chain's bridge deployment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/gasoracle"
	"github.com/luxfi/xbridge/messenger"
	"github.com/luxfi/xbridge/modules"
	"github.com/luxfi/xbridge/pool"
)

// ConfigKey is the key used in json config files to specify a deployment.
const ConfigKey = "xbridgeConfig"

// MaxChainID is the highest chain id that fits the messenger chain bitmap.
const MaxChainID = uint8(len(messenger.ChainSet{}) - 1)

var (
	ErrZeroChainID   = errors.New("chain id must be non-zero")
	ErrChainID       = errors.New("chain id out of range")
	ErrZeroAdmin     = errors.New("admin must be set")
	ErrZeroPrimary   = errors.New("primary validator must be set")
	ErrAddress       = errors.New("module address out of reserved range")
	ErrDuplicate     = errors.New("duplicate entry")
	ErrDecimals      = errors.New("invalid decimals")
	ErrPoolParams    = errors.New("invalid pool parameters")
	ErrUnknownChain  = errors.New("chain not listed in otherChainIds")
	ErrZeroBridge    = errors.New("other bridge must be non-zero")
	ErrMissingPrices = errors.New("gas oracle has no price for this chain")
)

// Config is the deployment of a gas oracle, a messenger, a bridge and its
// pools on one chain.
type Config struct {
	ChainID        uint8          `json:"chainId"`
	Admin          common.Address `json:"admin"`
	NativeDecimals uint8          `json:"nativeDecimals,omitempty"`

	GasOracle OracleConfig    `json:"gasOracle"`
	Messenger MessengerConfig `json:"messenger"`
	Bridge    BridgeConfig    `json:"bridge"`
	Pools     []PoolConfig    `json:"pools,omitempty"`
}

type OracleConfig struct {
	Address common.Address `json:"address"`
	Chains  []ChainPrice   `json:"chains,omitempty"`
}

// ChainPrice seeds the oracle record of one chain. Price is the USD price of
// the chain's native token and GasPrice its gas price in native wei, both with
// 18 decimals.
type ChainPrice struct {
	ChainID  uint8        `json:"chainId"`
	Price    *uint256.Int `json:"price"`
	GasPrice *uint256.Int `json:"gasPrice"`
}

type MessengerConfig struct {
	Address             common.Address   `json:"address"`
	PrimaryValidator    common.Address   `json:"primaryValidator"`
	SecondaryValidators []common.Address `json:"secondaryValidators,omitempty"`
	OtherChainIDs       []uint8          `json:"otherChainIds,omitempty"`
	GasUsage            map[uint8]uint64 `json:"gasUsage,omitempty"`
}

type BridgeConfig struct {
	Address       common.Address          `json:"address"`
	Rebalancer    common.Address          `json:"rebalancer,omitempty"`
	StopAuthority common.Address          `json:"stopAuthority,omitempty"`
	GasUsage      map[uint8]uint64        `json:"gasUsage,omitempty"`
	OtherBridges  map[uint8]common.Hash   `json:"otherBridges,omitempty"`
	BridgeTokens  map[uint8][]common.Hash `json:"bridgeTokens,omitempty"`
}

type PoolConfig struct {
	Address           common.Address `json:"address"`
	Token             common.Address `json:"token"`
	Decimals          uint8          `json:"decimals"`
	A                 uint64         `json:"a"`
	FeeShareBP        uint64         `json:"feeShareBP"`
	AdminFeeShareBP   uint64         `json:"adminFeeShareBP"`
	BalanceRatioMinBP uint64         `json:"balanceRatioMinBP,omitempty"`
}

// Load reads and verifies the config at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes and verifies a JSON config.
func Parse(raw []byte) (*Config, error) {
	c := new(Config)
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Key() string {
	return ConfigKey
}

// Decimals of the native token, 18 when unset.
func (c *Config) Decimals() uint8 {
	if c.NativeDecimals == 0 {
		return 18
	}
	return c.NativeDecimals
}

// OtherChains is the messenger chain bitmap.
func (c *Config) OtherChains() messenger.ChainSet {
	return messenger.NewChainSet(c.Messenger.OtherChainIDs...)
}

func checkChain(id uint8) error {
	if id == 0 {
		return ErrZeroChainID
	}
	if id > MaxChainID {
		return fmt.Errorf("%w: %d > %d", ErrChainID, id, MaxChainID)
	}
	return nil
}

func checkAddress(kind modules.Kind, addr common.Address) error {
	if !modules.ReservedAddress(kind, addr) {
		return fmt.Errorf("%w: %s %s", ErrAddress, kind, addr)
	}
	return nil
}

// Verify tries to verify Config and returns an error accordingly.
func (c *Config) Verify() error {
	if err := checkChain(c.ChainID); err != nil {
		return err
	}
	if c.Admin == (common.Address{}) {
		return ErrZeroAdmin
	}
	if c.Decimals() > gasoracle.OraclePrecision {
		return fmt.Errorf("%w: native decimals %d", ErrDecimals, c.Decimals())
	}

	if err := checkAddress(modules.KindGasOracle, c.GasOracle.Address); err != nil {
		return err
	}
	if err := checkAddress(modules.KindMessenger, c.Messenger.Address); err != nil {
		return err
	}
	if err := checkAddress(modules.KindBridge, c.Bridge.Address); err != nil {
		return err
	}

	priced := make(map[uint8]bool)
	for _, p := range c.GasOracle.Chains {
		if err := checkChain(p.ChainID); err != nil {
			return err
		}
		if priced[p.ChainID] {
			return fmt.Errorf("%w: gas oracle chain %d", ErrDuplicate, p.ChainID)
		}
		priced[p.ChainID] = true
	}
	if len(c.GasOracle.Chains) > 0 && !priced[c.ChainID] {
		return fmt.Errorf("%w: %d", ErrMissingPrices, c.ChainID)
	}

	if c.Messenger.PrimaryValidator == (common.Address{}) {
		return ErrZeroPrimary
	}
	others := c.OtherChains()
	for _, id := range c.Messenger.OtherChainIDs {
		if err := checkChain(id); err != nil {
			return err
		}
		if id == c.ChainID {
			return fmt.Errorf("%w: %d is this chain", ErrChainID, id)
		}
	}
	for id := range c.Messenger.GasUsage {
		if !others.Has(id) {
			return fmt.Errorf("%w: messenger gas usage for %d", ErrUnknownChain, id)
		}
	}
	for id := range c.Bridge.GasUsage {
		if !others.Has(id) {
			return fmt.Errorf("%w: bridge gas usage for %d", ErrUnknownChain, id)
		}
	}
	for id, addr := range c.Bridge.OtherBridges {
		if !others.Has(id) {
			return fmt.Errorf("%w: bridge on %d", ErrUnknownChain, id)
		}
		if addr == (common.Hash{}) {
			return fmt.Errorf("%w: chain %d", ErrZeroBridge, id)
		}
	}
	for id := range c.Bridge.BridgeTokens {
		if !others.Has(id) {
			return fmt.Errorf("%w: tokens on %d", ErrUnknownChain, id)
		}
	}

	tokens := make(map[common.Address]bool)
	addrs := map[common.Address]bool{
		c.GasOracle.Address: true,
		c.Messenger.Address: true,
		c.Bridge.Address:    true,
	}
	if len(addrs) != 3 {
		return fmt.Errorf("%w: module address", ErrDuplicate)
	}
	for _, p := range c.Pools {
		if err := checkAddress(modules.KindPool, p.Address); err != nil {
			return err
		}
		if addrs[p.Address] {
			return fmt.Errorf("%w: pool address %s", ErrDuplicate, p.Address)
		}
		addrs[p.Address] = true
		if tokens[p.Token] {
			return fmt.Errorf("%w: pool token %s", ErrDuplicate, p.Token)
		}
		tokens[p.Token] = true
		if p.Decimals < pool.SystemPrecision {
			return fmt.Errorf("%w: token %s has %d", ErrDecimals, p.Token, p.Decimals)
		}
		if p.Decimals > c.Decimals()+gasoracle.OraclePrecision {
			return fmt.Errorf("%w: token %s has %d", ErrDecimals, p.Token, p.Decimals)
		}
		if p.A == 0 || p.FeeShareBP > pool.BP || p.AdminFeeShareBP > pool.BP || p.BalanceRatioMinBP > pool.BP {
			return fmt.Errorf("%w: pool %s", ErrPoolParams, p.Address)
		}
	}
	return nil
}

// Equal returns true if [cfg] is a [*Config] and it has been configured
// identically to [c].
func (c *Config) Equal(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return c.ChainID == cfg.ChainID &&
		c.Admin == cfg.Admin &&
		c.Decimals() == cfg.Decimals() &&
		c.GasOracle.equal(cfg.GasOracle) &&
		c.Messenger.equal(cfg.Messenger) &&
		c.Bridge.equal(cfg.Bridge) &&
		slices.Equal(c.Pools, cfg.Pools)
}

func (o OracleConfig) equal(other OracleConfig) bool {
	return o.Address == other.Address &&
		slices.EqualFunc(o.Chains, other.Chains, func(a, b ChainPrice) bool {
			return a.ChainID == b.ChainID && eqInt(a.Price, b.Price) && eqInt(a.GasPrice, b.GasPrice)
		})
}

func (m MessengerConfig) equal(other MessengerConfig) bool {
	return m.Address == other.Address &&
		m.PrimaryValidator == other.PrimaryValidator &&
		slices.Equal(m.SecondaryValidators, other.SecondaryValidators) &&
		slices.Equal(m.OtherChainIDs, other.OtherChainIDs) &&
		maps.Equal(m.GasUsage, other.GasUsage)
}

func (b BridgeConfig) equal(other BridgeConfig) bool {
	return b.Address == other.Address &&
		b.Rebalancer == other.Rebalancer &&
		b.StopAuthority == other.StopAuthority &&
		maps.Equal(b.GasUsage, other.GasUsage) &&
		maps.Equal(b.OtherBridges, other.OtherBridges) &&
		maps.EqualFunc(b.BridgeTokens, other.BridgeTokens, func(x, y []common.Hash) bool {
			return slices.Equal(x, y)
		})
}

func eqInt(a, b *uint256.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Eq(b)
}
