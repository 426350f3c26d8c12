// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messenger

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	luxcrypto "github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"
)

// Protocol identifies the messaging protocol a transfer was sent through.
type Protocol uint8

const (
	ProtocolNone Protocol = iota
	// ProtocolValidators is the primary/secondary validator messenger.
	ProtocolValidators
)

func (p Protocol) String() string {
	switch p {
	case ProtocolValidators:
		return "validators"
	default:
		return fmt.Sprintf("protocol(%d)", uint8(p))
	}
}

var (
	ErrSignatureLength = errors.New("messenger: signature must be 65 bytes")
	ErrSignatureV      = errors.New("messenger: invalid signature recovery id")
)

// SourceChain and DestinationChain read the chain ids carried in the first
// two bytes of a message.
func SourceChain(message common.Hash) uint8      { return message[0] }
func DestinationChain(message common.Hash) uint8 { return message[1] }

// AddressToBytes32 left pads an address into the 32 byte form used for
// cross-chain account identifiers.
func AddressToBytes32(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// Bytes32ToAddress keeps the low 20 bytes of a cross-chain identifier.
func Bytes32ToAddress(b common.Hash) common.Address {
	return common.BytesToAddress(b[12:])
}

// HashMessage identifies a token transfer. The digest is
// keccak256(amount ‖ recipient ‖ sourceChain ‖ receiveToken ‖ nonce ‖ protocol)
// with byte 0 replaced by the source chain and byte 1 by the destination.
func HashMessage(
	amount *uint256.Int,
	recipient common.Hash,
	sourceChain uint8,
	destinationChain uint8,
	receiveToken common.Hash,
	nonce *uint256.Int,
	protocol Protocol,
) common.Hash {
	amountWord := amount.Bytes32()
	chainWord := uint256.NewInt(uint64(sourceChain)).Bytes32()
	nonceWord := nonce.Bytes32()

	digest := luxcrypto.Keccak256(
		amountWord[:],
		recipient[:],
		chainWord[:],
		receiveToken[:],
		nonceWord[:],
		[]byte{uint8(protocol)},
	)
	message := common.BytesToHash(digest)
	message[0] = sourceChain
	message[1] = destinationChain
	return message
}

// HashWithSender binds message to the 32 byte address that sent it. The
// chain bytes of message are preserved.
func HashWithSender(message common.Hash, sender common.Hash) common.Hash {
	out := common.BytesToHash(luxcrypto.Keccak256(message[:], sender[:]))
	out[0] = message[0]
	out[1] = message[1]
	return out
}

// SignedHash is the EIP-191 personal message digest validators sign.
func SignedHash(message common.Hash) common.Hash {
	return common.BytesToHash(luxcrypto.Keccak256(
		[]byte("\x19Ethereum Signed Message:\n32"),
		message[:],
	))
}

// Sign produces a validator signature over message in [R ‖ S ‖ V] form with
// V in {0, 1}.
func Sign(message common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(SignedHash(message).Bytes(), key)
}

// Recover returns the validator address that produced sig over message.
// V may be given as 0/1 or 27/28.
func Recover(message common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrSignatureLength
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if v := normalized[crypto.RecoveryIDOffset]; v >= 27 {
		normalized[crypto.RecoveryIDOffset] = v - 27
	}
	if normalized[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, ErrSignatureV
	}
	pub, err := crypto.SigToPub(SignedHash(message).Bytes(), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("messenger: recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
