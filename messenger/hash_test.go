// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messenger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"
	"github.com/stretchr/testify/require"
)

func TestHashMessageCarriesChains(t *testing.T) {
	msg := testMessage(5, 9)
	require.Equal(t, uint8(5), SourceChain(msg))
	require.Equal(t, uint8(9), DestinationChain(msg))

	// everything but the chain bytes comes from the digest, which does not
	// depend on the destination
	other := testMessage(5, 10)
	require.Equal(t, msg[2:], other[2:])
}

func TestHashMessageInputs(t *testing.T) {
	recipient := AddressToBytes32(common.HexToAddress("0xbeef"))
	token := AddressToBytes32(common.HexToAddress("0x70c3"))
	base := HashMessage(uint256.NewInt(1), recipient, 1, 2, token, uint256.NewInt(1), ProtocolValidators)

	require.NotEqual(t, base, HashMessage(uint256.NewInt(2), recipient, 1, 2, token, uint256.NewInt(1), ProtocolValidators))
	require.NotEqual(t, base, HashMessage(uint256.NewInt(1), recipient, 1, 2, token, uint256.NewInt(2), ProtocolValidators))
	require.NotEqual(t, base, HashMessage(uint256.NewInt(1), recipient, 1, 2, token, uint256.NewInt(1), ProtocolNone))
}

func TestHashWithSender(t *testing.T) {
	msg := testMessage(1, 2)
	a := HashWithSender(msg, AddressToBytes32(common.HexToAddress("0x01")))
	b := HashWithSender(msg, AddressToBytes32(common.HexToAddress("0x02")))

	require.NotEqual(t, a, b)
	require.Equal(t, uint8(1), SourceChain(a))
	require.Equal(t, uint8(2), DestinationChain(a))
}

func TestSignRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	msg := testMessage(1, 2)

	sig, err := Sign(msg, key)
	require.NoError(t, err)
	signer, err := Recover(msg, sig)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer)

	sig[64] = 30
	_, err = Recover(msg, sig)
	require.ErrorIs(t, err, ErrSignatureV)
}

func TestAddressBytes32(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	b := AddressToBytes32(addr)
	require.Equal(t, byte(0xff), b[31])
	require.Equal(t, addr, Bytes32ToAddress(b))
}
