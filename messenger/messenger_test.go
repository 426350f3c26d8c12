// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messenger

import (
	"crypto/ecdsa"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xbridge/events"
	"github.com/luxfi/xbridge/gasoracle"
	"github.com/luxfi/xbridge/host"
)

var (
	messengerAddr = common.HexToAddress("0x0000000000000000000000000000000000006002")
	oracleAddr    = common.HexToAddress("0x0000000000000000000000000000000000006003")
	admin         = common.HexToAddress("0xad")
	sender        = common.HexToAddress("0x5e4d")
)

type fixture struct {
	frame     *host.Frame
	ledger    *host.StateLedger
	messenger *Messenger
	primary   *ecdsa.PrivateKey
	secondary *ecdsa.PrivateKey
}

func e18(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

func newFixture(t *testing.T, chainID uint8, other uint8) *fixture {
	t.Helper()
	db := memdb.New()
	ledger := host.NewStateLedger(db)
	frame := &host.Frame{
		Env:    host.StaticEnv{From: admin, Chain: chainID, Block: 100},
		Ledger: ledger,
		DB:     db,
		Events: events.NewSink(),
	}

	oracle := gasoracle.New(frame, oracleAddr)
	require.NoError(t, oracle.Initialize(admin, chainID, 18))
	require.NoError(t, oracle.SetChainData(chainID, e18(2000), uint256.NewInt(25_000_000_000)))
	require.NoError(t, oracle.SetChainData(other, e18(3000), uint256.NewInt(50_000_000_000)))

	primary, err := crypto.GenerateKey()
	require.NoError(t, err)
	secondary, err := crypto.GenerateKey()
	require.NoError(t, err)

	m := New(frame, messengerAddr)
	require.NoError(t, m.Initialize(Params{
		Admin:               admin,
		ChainID:             chainID,
		OtherChainIDs:       NewChainSet(other),
		GasOracle:           oracleAddr,
		PrimaryValidator:    crypto.PubkeyToAddress(primary.PublicKey),
		SecondaryValidators: []common.Address{crypto.PubkeyToAddress(secondary.PublicKey)},
	}))
	require.NoError(t, m.SetGasUsage(other, uint256.NewInt(200_000)))

	return &fixture{frame: frame, ledger: ledger, messenger: m, primary: primary, secondary: secondary}
}

func (f *fixture) as(caller common.Address) *Messenger {
	return New(f.frame.As(caller), messengerAddr)
}

func testMessage(source, dest uint8) common.Hash {
	return HashMessage(
		uint256.NewInt(1_000),
		AddressToBytes32(common.HexToAddress("0xbeef")),
		source,
		dest,
		AddressToBytes32(common.HexToAddress("0x70c3")),
		uint256.NewInt(7),
		ProtocolValidators,
	)
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t, 1, 2)
	require.NoError(t, f.ledger.Mint(host.NativeToken, sender, e18(1)))

	cost, err := f.messenger.TransactionCost(2)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(15_000_000_000_000_000), cost)

	msg := testMessage(1, 2)
	withSender, err := f.as(sender).SendMessage(msg, cost)
	require.NoError(t, err)
	require.Equal(t, HashWithSender(msg, AddressToBytes32(sender)), withSender)

	sent, err := f.messenger.HasSentMessage(withSender)
	require.NoError(t, err)
	require.True(t, sent)
	block, err := f.messenger.SentBlock(withSender)
	require.NoError(t, err)
	require.Equal(t, uint64(100), block)

	bal, err := f.ledger.Balance(host.NativeToken, messengerAddr)
	require.NoError(t, err)
	require.Equal(t, cost, bal)

	_, err = f.as(sender).SendMessage(msg, cost)
	require.ErrorIs(t, err, ErrHasMessage)
}

func TestSendMessageChecks(t *testing.T) {
	f := newFixture(t, 1, 2)
	require.NoError(t, f.ledger.Mint(host.NativeToken, sender, e18(1)))
	m := f.as(sender)

	_, err := m.SendMessage(testMessage(3, 2), e18(1))
	require.ErrorIs(t, err, ErrWrongChainID)

	_, err = m.SendMessage(testMessage(1, 4), e18(1))
	require.ErrorIs(t, err, ErrWrongDestination)

	_, err = m.SendMessage(testMessage(1, 2), uint256.NewInt(1))
	require.ErrorIs(t, err, ErrNotEnoughFee)
}

func TestReceiveMessage(t *testing.T) {
	f := newFixture(t, 2, 1)
	msg := HashWithSender(testMessage(1, 2), AddressToBytes32(sender))

	sig1, err := Sign(msg, f.primary)
	require.NoError(t, err)
	sig2, err := Sign(msg, f.secondary)
	require.NoError(t, err)
	// validators that emit 27/28 recovery ids are accepted too
	sig2[64] += 27

	anyone := f.as(common.HexToAddress("0x1234"))
	require.NoError(t, anyone.ReceiveMessage(msg, sig1, sig2))

	ok, err := f.messenger.HasReceivedMessage(msg)
	require.NoError(t, err)
	require.True(t, ok)

	require.ErrorIs(t, anyone.ReceiveMessage(msg, sig1, sig2), ErrAlreadyReceived)
}

func TestReceiveMessageRejectsSigners(t *testing.T) {
	f := newFixture(t, 2, 1)
	msg := testMessage(1, 2)

	primarySig, err := Sign(msg, f.primary)
	require.NoError(t, err)
	secondarySig, err := Sign(msg, f.secondary)
	require.NoError(t, err)

	// swapped roles
	require.ErrorIs(t, f.messenger.ReceiveMessage(msg, secondarySig, primarySig), ErrInvalidPrimary)
	// primary twice
	require.ErrorIs(t, f.messenger.ReceiveMessage(msg, primarySig, primarySig), ErrInvalidSecondary)
	// truncated signature
	require.ErrorIs(t, f.messenger.ReceiveMessage(msg, primarySig[:64], secondarySig), ErrSignatureLength)

	require.ErrorIs(t, f.messenger.ReceiveMessage(testMessage(1, 3), primarySig, secondarySig), ErrWrongDestination)

	require.NoError(t, f.messenger.RemoveSecondaryValidators(crypto.PubkeyToAddress(f.secondary.PublicKey)))
	require.ErrorIs(t, f.messenger.ReceiveMessage(msg, primarySig, secondarySig), ErrInvalidSecondary)
}

func TestValidatorAdmin(t *testing.T) {
	f := newFixture(t, 2, 1)
	stranger := f.as(common.HexToAddress("0x5e"))

	require.ErrorIs(t, stranger.SetPrimaryValidator(common.HexToAddress("0x01")), ErrUnauthorized)
	require.ErrorIs(t, stranger.AddSecondaryValidators(common.HexToAddress("0x01")), ErrUnauthorized)
	require.ErrorIs(t, f.messenger.SetPrimaryValidator(common.Address{}), ErrZeroValidator)

	next, err := crypto.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, f.messenger.SetPrimaryValidator(crypto.PubkeyToAddress(next.PublicKey)))

	msg := testMessage(1, 2)
	sig1, err := Sign(msg, next)
	require.NoError(t, err)
	sig2, err := Sign(msg, f.secondary)
	require.NoError(t, err)
	require.NoError(t, f.messenger.ReceiveMessage(msg, sig1, sig2))
}

func TestWithdrawGasTokens(t *testing.T) {
	f := newFixture(t, 1, 2)
	require.NoError(t, f.ledger.Mint(host.NativeToken, messengerAddr, uint256.NewInt(500)))

	require.ErrorIs(t, f.as(sender).WithdrawGasTokens(uint256.NewInt(1)), ErrUnauthorized)
	require.NoError(t, f.messenger.WithdrawGasTokens(uint256.NewInt(200)))

	bal, err := f.ledger.Balance(host.NativeToken, admin)
	require.NoError(t, err)
	require.Equal(t, uint64(200), bal.Uint64())
}
