// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) *Config {
	t.Helper()
	c, err := Load(filepath.Join("testdata", "chain1.json"))
	require.NoError(t, err)
	return c
}

func TestLoad(t *testing.T) {
	c := load(t)
	require.Equal(t, ConfigKey, c.Key())
	require.Equal(t, uint8(1), c.ChainID)
	require.Equal(t, uint8(18), c.Decimals())
	require.Equal(t, common.HexToAddress("0x6003"), c.GasOracle.Address)
	require.Len(t, c.GasOracle.Chains, 2)

	price := new(uint256.Int).Mul(uint256.NewInt(2000), uint256.NewInt(1_000_000_000_000_000_000))
	require.Equal(t, price, c.GasOracle.Chains[0].Price)
	require.Equal(t, uint256.NewInt(50_000_000_000), c.GasOracle.Chains[1].GasPrice)

	require.True(t, c.OtherChains().Has(2))
	require.False(t, c.OtherChains().Has(3))
	require.Equal(t, uint64(200_000), c.Messenger.GasUsage[2])
	require.Equal(t, uint64(300_000), c.Bridge.GasUsage[2])
	require.Equal(t, common.BigToHash(common.HexToAddress("0x6001").Big()), c.Bridge.OtherBridges[2])
	require.Len(t, c.Bridge.BridgeTokens[2], 1)
	require.Len(t, c.Pools, 2)
	require.Equal(t, uint8(6), c.Pools[1].Decimals)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejectsBadJSON(t *testing.T) {
	_, err := Parse([]byte(`{"chainId": "one"}`))
	require.Error(t, err)
}

func TestDefaultNativeDecimals(t *testing.T) {
	c := load(t)
	c.NativeDecimals = 0
	require.Equal(t, uint8(18), c.Decimals())
	require.NoError(t, c.Verify())
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"zero chain", func(c *Config) { c.ChainID = 0 }, ErrZeroChainID},
		{"chain out of bitmap", func(c *Config) { c.ChainID = 32 }, ErrChainID},
		{"zero admin", func(c *Config) { c.Admin = common.Address{} }, ErrZeroAdmin},
		{"native decimals", func(c *Config) { c.NativeDecimals = 19 }, ErrDecimals},
		{"oracle address", func(c *Config) { c.GasOracle.Address = common.HexToAddress("0x9003") }, ErrAddress},
		{"bridge address", func(c *Config) { c.Bridge.Address = common.HexToAddress("0x7001") }, ErrAddress},
		{"same module address", func(c *Config) { c.Messenger.Address = c.Bridge.Address }, ErrDuplicate},
		{"duplicate price", func(c *Config) {
			c.GasOracle.Chains = append(c.GasOracle.Chains, c.GasOracle.Chains[1])
		}, ErrDuplicate},
		{"no local price", func(c *Config) { c.GasOracle.Chains = c.GasOracle.Chains[1:] }, ErrMissingPrices},
		{"zero primary", func(c *Config) { c.Messenger.PrimaryValidator = common.Address{} }, ErrZeroPrimary},
		{"other is self", func(c *Config) { c.Messenger.OtherChainIDs = []uint8{1, 2} }, ErrChainID},
		{"unknown gas usage", func(c *Config) { c.Bridge.GasUsage[3] = 1 }, ErrUnknownChain},
		{"unknown bridge", func(c *Config) { c.Bridge.OtherBridges[3] = common.HexToHash("0x01") }, ErrUnknownChain},
		{"zero bridge", func(c *Config) { c.Bridge.OtherBridges[2] = common.Hash{} }, ErrZeroBridge},
		{"pool address", func(c *Config) { c.Pools[0].Address = common.HexToAddress("0x6009") }, ErrAddress},
		{"pool token reused", func(c *Config) { c.Pools[1].Token = c.Pools[0].Token }, ErrDuplicate},
		{"pool decimals", func(c *Config) { c.Pools[0].Decimals = 2 }, ErrDecimals},
		{"pool zero A", func(c *Config) { c.Pools[0].A = 0 }, ErrPoolParams},
		{"pool fee share", func(c *Config) { c.Pools[0].FeeShareBP = 10_001 }, ErrPoolParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := load(t)
			tt.mutate(c)
			require.ErrorIs(t, c.Verify(), tt.want)
		})
	}
}

func TestEqual(t *testing.T) {
	a, b := load(t), load(t)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(nil))

	b.Pools[0].FeeShareBP++
	require.False(t, a.Equal(b))

	b = load(t)
	b.GasOracle.Chains[0].Price = uint256.NewInt(1)
	require.False(t, a.Equal(b))

	b = load(t)
	b.Bridge.BridgeTokens[2] = nil
	require.False(t, a.Equal(b))

	b = load(t)
	b.NativeDecimals = 0
	require.True(t, a.Equal(b))
}
