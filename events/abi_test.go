// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"math/big"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

const testABI = `[
	{"type":"event","name":"Transfer","inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"Message","inputs":[
		{"name":"message","type":"bytes32","indexed":false}
	]}
]`

var parsedTestABI = ParseABI(testABI)

func TestPackEvent(t *testing.T) {
	from := common.HexToAddress("0x1111")
	to := common.HexToAddress("0x2222")

	topics, data, err := parsedTestABI.PackEvent("Transfer", from, to, big.NewInt(500))
	require.NoError(t, err)
	require.Len(t, topics, 3)
	require.Equal(t, common.BytesToHash(crypto.Keccak256([]byte("Transfer(address,address,uint256)"))), topics[0])
	require.Equal(t, common.BytesToHash(from.Bytes()), topics[1])
	require.Equal(t, common.BytesToHash(to.Bytes()), topics[2])
	require.Equal(t, common.BigToHash(big.NewInt(500)).Bytes(), data)
}

func TestPackEventErrors(t *testing.T) {
	_, _, err := parsedTestABI.PackEvent("Missing")
	require.Error(t, err)

	_, _, err = parsedTestABI.PackEvent("Transfer", common.Address{})
	require.Error(t, err)
}

func TestSink(t *testing.T) {
	sink := NewSink()
	addr := common.HexToAddress("0x6001")
	msg := [32]byte{1, 2}

	require.NoError(t, sink.Emit(parsedTestABI, addr, "Message", msg))
	logs := sink.Logs()
	require.Len(t, logs, 1)
	require.Equal(t, addr, logs[0].Address)
	require.Equal(t, "Message", parsedTestABI.Name(logs[0]))

	fields, err := parsedTestABI.UnpackData("Message", logs[0].Data)
	require.NoError(t, err)
	require.Equal(t, msg, fields["message"])
}
