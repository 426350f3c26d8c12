// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gasoracle

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xbridge/events"
	"github.com/luxfi/xbridge/host"
)

var (
	oracleAddr = common.HexToAddress("0x0000000000000000000000000000000000006003")
	admin      = common.HexToAddress("0xad")
	stranger   = common.HexToAddress("0x5e")
)

func e18(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

func newOracle(t *testing.T, caller common.Address, precision uint8) (*Oracle, *host.Frame) {
	t.Helper()
	frame := &host.Frame{
		Env:    host.StaticEnv{From: caller, Chain: 1},
		DB:     memdb.New(),
		Events: events.NewSink(),
	}
	o := New(frame, oracleAddr)
	require.NoError(t, o.Initialize(admin, 1, precision))
	return o, frame
}

func seed(t *testing.T, o *Oracle) {
	t.Helper()
	require.NoError(t, o.SetChainData(1, e18(2000), uint256.NewInt(25_000_000_000)))
	require.NoError(t, o.SetChainData(2, e18(3000), uint256.NewInt(50_000_000_000)))
}

func TestInitializeOnce(t *testing.T) {
	o, _ := newOracle(t, admin, 18)
	require.ErrorIs(t, o.Initialize(admin, 1, 18), ErrAlreadyInitialized)

	chainID, err := o.ChainID()
	require.NoError(t, err)
	require.Equal(t, uint8(1), chainID)
}

func TestInitializeRejectsPrecision(t *testing.T) {
	frame := &host.Frame{Env: host.StaticEnv{From: admin, Chain: 1}, DB: memdb.New(), Events: events.NewSink()}
	require.ErrorIs(t, New(frame, oracleAddr).Initialize(admin, 1, 19), ErrPrecision)
}

func TestSettersRequireAdmin(t *testing.T) {
	o, frame := newOracle(t, stranger, 18)
	require.ErrorIs(t, o.SetPrice(2, e18(1)), ErrUnauthorized)
	require.ErrorIs(t, o.SetGasPrice(2, uint256.NewInt(1)), ErrUnauthorized)
	require.ErrorIs(t, o.SetChainData(2, e18(1), uint256.NewInt(1)), ErrUnauthorized)
	require.ErrorIs(t, o.SetAdmin(stranger), ErrUnauthorized)
	require.Empty(t, frame.Events.Logs())
}

func TestSetPriceKeepsGasPrice(t *testing.T) {
	o, frame := newOracle(t, admin, 18)
	seed(t, o)
	require.NoError(t, o.SetPrice(2, e18(4000)))

	data, err := o.ChainData(2)
	require.NoError(t, err)
	require.Equal(t, e18(4000), data.Price)
	require.Equal(t, uint256.NewInt(50_000_000_000), data.GasPrice)

	require.NoError(t, o.SetGasPrice(2, uint256.NewInt(7)))
	data, err = o.ChainData(2)
	require.NoError(t, err)
	require.Equal(t, e18(4000), data.Price)
	require.Equal(t, uint256.NewInt(7), data.GasPrice)

	logs := frame.Events.Logs()
	require.Len(t, logs, 4)
	require.Equal(t, "ChainDataUpdated", ABI.Name(logs[3]))
}

func TestTransactionCosts(t *testing.T) {
	o, _ := newOracle(t, admin, 18)
	seed(t, o)
	gas := uint256.NewInt(200_000)

	native, err := o.TransactionGasCostInNativeToken(2, gas)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(15_000_000_000_000_000), native)

	usd, err := o.TransactionGasCostInUSD(2, gas)
	require.NoError(t, err)
	require.Equal(t, e18(30), usd)

	rate, err := o.CrossRate(2)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1_500_000_000_000_000_000), rate)
}

func TestTransactionCostLowPrecisionChain(t *testing.T) {
	o, _ := newOracle(t, admin, 6)
	seed(t, o)

	native, err := o.TransactionGasCostInNativeToken(2, uint256.NewInt(200_000))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(15_000), native)
}

func TestCostWithoutLocalPrice(t *testing.T) {
	o, _ := newOracle(t, admin, 18)
	require.NoError(t, o.SetChainData(2, e18(3000), uint256.NewInt(1)))

	_, err := o.TransactionGasCostInNativeToken(2, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrNoPrice)
	_, err = o.CrossRate(2)
	require.ErrorIs(t, err, ErrNoPrice)
}

func TestSetAdmin(t *testing.T) {
	o, frame := newOracle(t, admin, 18)
	require.NoError(t, o.SetAdmin(stranger))
	got, err := o.Admin()
	require.NoError(t, err)
	require.Equal(t, stranger, got)

	// the previous admin lost its rights
	require.ErrorIs(t, o.SetPrice(1, e18(1)), ErrUnauthorized)
	require.Len(t, frame.Events.Logs(), 1)
}
