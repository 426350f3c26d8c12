// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messenger

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"
)

var (
	ErrInvalidAllZeroBytes = errors.New("proof specified invalid all zero bytes")
	ErrInvalidPadding      = errors.New("proof specified invalid padding")
	ErrInvalidEndDelimiter = errors.New("proof invalid end delimiter byte")
	ErrProofLength         = errors.New("proof has wrong length")
)

const (
	// EndByte is the delimiter byte used to signal the end of the proof
	EndByte = byte(0xff)

	proofLength = common.HashLength + 2*crypto.SignatureLength
)

// Proof is what a relayer carries to the destination chain: a sender bound
// message and the two validator signatures over it.
type Proof struct {
	Message      common.Hash
	PrimarySig   []byte
	SecondarySig []byte
}

// Pack encodes p as message || primary || secondary, followed by EndByte and
// right padded with zeros to a 32 byte boundary.
func (p Proof) Pack() ([]byte, error) {
	if len(p.PrimarySig) != crypto.SignatureLength || len(p.SecondarySig) != crypto.SignatureLength {
		return nil, ErrSignatureLength
	}
	raw := make([]byte, 0, proofLength+1)
	raw = append(raw, p.Message.Bytes()...)
	raw = append(raw, p.PrimarySig...)
	raw = append(raw, p.SecondarySig...)
	return packPadded(raw), nil
}

// UnpackProof reverses Proof.Pack.
func UnpackProof(padded []byte) (Proof, error) {
	raw, err := unpackPadded(padded)
	if err != nil {
		return Proof{}, err
	}
	if len(raw) != proofLength {
		return Proof{}, fmt.Errorf("%w: %d", ErrProofLength, len(raw))
	}
	sigs := raw[common.HashLength:]
	return Proof{
		Message:      common.BytesToHash(raw[:common.HashLength]),
		PrimarySig:   append([]byte(nil), sigs[:crypto.SignatureLength]...),
		SecondarySig: append([]byte(nil), sigs[crypto.SignatureLength:]...),
	}, nil
}

// unpackPadded strips right-padded zeros and the end delimiter
func unpackPadded(padded []byte) ([]byte, error) {
	trimmed := common.TrimRightZeroes(padded)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: 0x%x", ErrInvalidAllZeroBytes, padded)
	}

	if expectedPaddedLength := (len(trimmed) + 31) / 32 * 32; expectedPaddedLength != len(padded) {
		return nil, fmt.Errorf("%w: got length (%d), expected length (%d)", ErrInvalidPadding, len(padded), expectedPaddedLength)
	}

	if trimmed[len(trimmed)-1] != EndByte {
		return nil, ErrInvalidEndDelimiter
	}

	return trimmed[:len(trimmed)-1], nil
}

// packPadded appends the end delimiter and pads to a 32-byte boundary
func packPadded(raw []byte) []byte {
	withDelimiter := append(raw, EndByte)
	paddedLength := (len(withDelimiter) + 31) / 32 * 32
	padded := make([]byte, paddedLength)
	copy(padded, withDelimiter)
	return padded
}

// ReceiveProof is ReceiveMessage for a packed proof.
func (m *Messenger) ReceiveProof(padded []byte) (common.Hash, error) {
	p, err := UnpackProof(padded)
	if err != nil {
		return common.Hash{}, err
	}
	return p.Message, m.ReceiveMessage(p.Message, p.PrimarySig, p.SecondarySig)
}
