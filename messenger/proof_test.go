// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messenger

import (
	"bytes"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestProofPacking(t *testing.T) {
	f := newFixture(t, 2, 1)
	msg := HashWithSender(testMessage(1, 2), AddressToBytes32(sender))
	sig1, err := Sign(msg, f.primary)
	require.NoError(t, err)
	sig2, err := Sign(msg, f.secondary)
	require.NoError(t, err)

	packed, err := Proof{Message: msg, PrimarySig: sig1, SecondarySig: sig2}.Pack()
	require.NoError(t, err)
	// 32 + 65 + 65 + delimiter rounds up to 192
	require.Len(t, packed, 192)
	require.Equal(t, EndByte, packed[proofLength])

	p, err := UnpackProof(packed)
	require.NoError(t, err)
	require.Equal(t, msg, p.Message)
	require.Equal(t, sig1, p.PrimarySig)
	require.Equal(t, sig2, p.SecondarySig)

	got, err := f.as(common.HexToAddress("0x4e1a7")).ReceiveProof(packed)
	require.NoError(t, err)
	require.Equal(t, msg, got)
	received, err := f.messenger.HasReceivedMessage(msg)
	require.NoError(t, err)
	require.True(t, received)
}

func TestUnpackProofErrors(t *testing.T) {
	_, err := Proof{PrimarySig: make([]byte, 64), SecondarySig: make([]byte, 65)}.Pack()
	require.ErrorIs(t, err, ErrSignatureLength)

	_, err = UnpackProof(make([]byte, 64))
	require.ErrorIs(t, err, ErrInvalidAllZeroBytes)

	short := packPadded([]byte{1, 2, 3})
	_, err = UnpackProof(short)
	require.ErrorIs(t, err, ErrProofLength)

	_, err = UnpackProof(append(short, make([]byte, 32)...))
	require.ErrorIs(t, err, ErrInvalidPadding)

	noDelimiter := bytes.Repeat([]byte{1}, 32)
	_, err = UnpackProof(noDelimiter)
	require.ErrorIs(t, err, ErrInvalidEndDelimiter)
}
