// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package messenger is the cross-chain message layer. Senders on the source
// chain record a message and pay for its delivery; on the destination chain
// the message is accepted once the primary validator and one secondary
// validator have both signed it.
package messenger

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/events"
	"github.com/luxfi/xbridge/gasoracle"
	"github.com/luxfi/xbridge/host"
	"github.com/luxfi/xbridge/state"
)

var (
	ErrAlreadyInitialized = errors.New("messenger: already initialized")
	ErrNotInitialized     = errors.New("messenger: not initialized")
	ErrUnauthorized       = errors.New("messenger: caller is not the admin")
	ErrWrongChainID       = errors.New("messenger: wrong chainId")
	ErrWrongDestination   = errors.New("messenger: wrong destination")
	ErrHasMessage         = errors.New("messenger: has message")
	ErrAlreadyReceived    = errors.New("messenger: message already received")
	ErrNotEnoughFee       = errors.New("messenger: not enough fee")
	ErrInvalidPrimary     = errors.New("messenger: invalid primary")
	ErrInvalidSecondary   = errors.New("messenger: invalid secondary")
	ErrZeroValidator      = errors.New("messenger: zero validator address")
)

const messengerABI = `[
	{"type":"event","name":"MessageSent","inputs":[
		{"name":"message","type":"bytes32","indexed":false}
	]},
	{"type":"event","name":"MessageReceived","inputs":[
		{"name":"message","type":"bytes32","indexed":false}
	]},
	{"type":"event","name":"PrimaryValidatorSet","inputs":[
		{"name":"validator","type":"address","indexed":true}
	]},
	{"type":"event","name":"SecondaryValidatorAdded","inputs":[
		{"name":"validator","type":"address","indexed":true}
	]},
	{"type":"event","name":"SecondaryValidatorRemoved","inputs":[
		{"name":"validator","type":"address","indexed":true}
	]}
]`

var ABI = events.ParseABI(messengerABI)

var (
	adminKey       = state.Key([]byte("admin"))
	chainIDKey     = state.Key([]byte("chainId"))
	oracleKey      = state.Key([]byte("gasOracle"))
	primaryKey     = state.Key([]byte("primaryValidator"))
	otherChainsKey = state.Key([]byte("otherChainIds"))
	initKey        = state.Key([]byte("initialized"))

	secondaryPrefix = []byte("secondary")
	gasUsagePrefix  = []byte("gasUsage")
	sentPrefix      = []byte("sent")
	receivedPrefix  = []byte("received")
)

// Params configure a new messenger.
type Params struct {
	Admin               common.Address
	ChainID             uint8
	OtherChainIDs       ChainSet
	GasOracle           common.Address
	PrimaryValidator    common.Address
	SecondaryValidators []common.Address
}

// ChainSet is a bitmap of chain ids where a non-zero byte i marks chain i.
type ChainSet [32]byte

// NewChainSet marks the given chains.
func NewChainSet(chainIDs ...uint8) ChainSet {
	var s ChainSet
	for _, id := range chainIDs {
		if int(id) < len(s) {
			s[id] = 1
		}
	}
	return s
}

func (s ChainSet) Has(chainID uint8) bool {
	return int(chainID) < len(s) && s[chainID] != 0
}

// Messenger is the message layer contract bound to one call frame.
type Messenger struct {
	frame    *host.Frame
	addr     common.Address
	store    *state.Store
	sent     *state.Set
	received *state.Set
}

func New(frame *host.Frame, addr common.Address) *Messenger {
	store := state.ForContract(frame.DB, addr)
	return &Messenger{
		frame:    frame,
		addr:     addr,
		store:    store,
		sent:     state.NewSet(store, sentPrefix),
		received: state.NewSet(store, receivedPrefix),
	}
}

func (m *Messenger) Address() common.Address { return m.addr }

func (m *Messenger) Initialize(p Params) error {
	done, err := m.store.Bool(initKey)
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	if p.PrimaryValidator == (common.Address{}) {
		return ErrZeroValidator
	}
	if err := m.store.SetAddress(adminKey, p.Admin); err != nil {
		return err
	}
	if err := m.store.SetUint8(chainIDKey, p.ChainID); err != nil {
		return err
	}
	if err := m.store.SetHash(otherChainsKey, common.Hash(p.OtherChainIDs)); err != nil {
		return err
	}
	if err := m.store.SetAddress(oracleKey, p.GasOracle); err != nil {
		return err
	}
	if err := m.store.SetAddress(primaryKey, p.PrimaryValidator); err != nil {
		return err
	}
	for _, v := range p.SecondaryValidators {
		if err := m.store.SetBool(state.Key(secondaryPrefix, v.Bytes()), true); err != nil {
			return err
		}
	}
	return m.store.SetBool(initKey, true)
}

func (m *Messenger) Admin() (common.Address, error) { return m.store.Address(adminKey) }

func (m *Messenger) ChainID() (uint8, error) { return m.store.Uint8(chainIDKey) }

func (m *Messenger) PrimaryValidator() (common.Address, error) { return m.store.Address(primaryKey) }

func (m *Messenger) IsSecondaryValidator(addr common.Address) (bool, error) {
	return m.store.Bool(state.Key(secondaryPrefix, addr.Bytes()))
}

func (m *Messenger) OtherChainIDs() (ChainSet, error) {
	h, err := m.store.Hash(otherChainsKey)
	return ChainSet(h), err
}

func (m *Messenger) GasUsage(chainID uint8) (*uint256.Int, error) {
	return m.store.Uint256(state.Key(gasUsagePrefix, state.Uint8Key(chainID)))
}

func (m *Messenger) onlyAdmin() error {
	admin, err := m.Admin()
	if err != nil {
		return err
	}
	if admin == (common.Address{}) {
		return ErrNotInitialized
	}
	if m.frame.Caller() != admin {
		return ErrUnauthorized
	}
	return nil
}

func (m *Messenger) oracle() (*gasoracle.Oracle, error) {
	addr, err := m.store.Address(oracleKey)
	if err != nil {
		return nil, err
	}
	if addr == (common.Address{}) {
		return nil, ErrNotInitialized
	}
	return gasoracle.New(m.frame.As(m.addr), addr), nil
}

// TransactionCost is the native token fee for delivering one message to
// chainID.
func (m *Messenger) TransactionCost(chainID uint8) (*uint256.Int, error) {
	oracle, err := m.oracle()
	if err != nil {
		return nil, err
	}
	gas, err := m.GasUsage(chainID)
	if err != nil {
		return nil, err
	}
	return oracle.TransactionGasCostInNativeToken(chainID, gas)
}

// SendMessage records message as sent by the caller, who pays fee in the
// native token. It returns the sender bound message that validators relay.
func (m *Messenger) SendMessage(message common.Hash, fee *uint256.Int) (common.Hash, error) {
	chainID, err := m.ChainID()
	if err != nil {
		return common.Hash{}, err
	}
	if SourceChain(message) != chainID {
		return common.Hash{}, fmt.Errorf("%w: message from %d on chain %d", ErrWrongChainID, SourceChain(message), chainID)
	}
	others, err := m.OtherChainIDs()
	if err != nil {
		return common.Hash{}, err
	}
	dest := DestinationChain(message)
	if !others.Has(dest) {
		return common.Hash{}, fmt.Errorf("%w: %d", ErrWrongDestination, dest)
	}

	withSender := HashWithSender(message, AddressToBytes32(m.frame.Caller()))
	sent, err := m.sent.Has(withSender)
	if err != nil {
		return common.Hash{}, err
	}
	if sent {
		return common.Hash{}, ErrHasMessage
	}

	cost, err := m.TransactionCost(dest)
	if err != nil {
		return common.Hash{}, err
	}
	if fee.Lt(cost) {
		return common.Hash{}, fmt.Errorf("%w: paid %s, cost %s", ErrNotEnoughFee, fee, cost)
	}
	if err := m.frame.Ledger.Transfer(host.NativeToken, m.frame.Caller(), m.addr, fee); err != nil {
		return common.Hash{}, err
	}
	if err := m.sent.AddWithMarker(withSender, m.frame.Env.BlockNumber()); err != nil {
		return common.Hash{}, err
	}
	return withSender, m.frame.Events.Emit(ABI, m.addr, "MessageSent", [32]byte(withSender))
}

// ReceiveMessage accepts message on its destination chain. The first
// signature must come from the primary validator and the second from any
// secondary validator.
func (m *Messenger) ReceiveMessage(message common.Hash, primarySig, secondarySig []byte) error {
	chainID, err := m.ChainID()
	if err != nil {
		return err
	}
	if DestinationChain(message) != chainID {
		return fmt.Errorf("%w: message to %d on chain %d", ErrWrongDestination, DestinationChain(message), chainID)
	}
	received, err := m.received.Has(message)
	if err != nil {
		return err
	}
	if received {
		return ErrAlreadyReceived
	}

	primary, err := m.PrimaryValidator()
	if err != nil {
		return err
	}
	signer, err := Recover(message, primarySig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPrimary, err)
	}
	if signer != primary {
		return ErrInvalidPrimary
	}

	signer, err = Recover(message, secondarySig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSecondary, err)
	}
	ok, err := m.IsSecondaryValidator(signer)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSecondary
	}

	if err := m.received.AddWithMarker(message, m.frame.Env.BlockNumber()); err != nil {
		return err
	}
	return m.frame.Events.Emit(ABI, m.addr, "MessageReceived", [32]byte(message))
}

// HasSentMessage reports whether the sender bound message was sent from this
// chain.
func (m *Messenger) HasSentMessage(message common.Hash) (bool, error) {
	return m.sent.Has(message)
}

// SentBlock is the block message was sent at, zero if never.
func (m *Messenger) SentBlock(message common.Hash) (uint64, error) {
	return m.sent.Marker(message)
}

func (m *Messenger) HasReceivedMessage(message common.Hash) (bool, error) {
	return m.received.Has(message)
}

func (m *Messenger) SetPrimaryValidator(v common.Address) error {
	if err := m.onlyAdmin(); err != nil {
		return err
	}
	if v == (common.Address{}) {
		return ErrZeroValidator
	}
	if err := m.store.SetAddress(primaryKey, v); err != nil {
		return err
	}
	return m.frame.Events.Emit(ABI, m.addr, "PrimaryValidatorSet", v)
}

func (m *Messenger) AddSecondaryValidators(vs ...common.Address) error {
	if err := m.onlyAdmin(); err != nil {
		return err
	}
	for _, v := range vs {
		if v == (common.Address{}) {
			return ErrZeroValidator
		}
		if err := m.store.SetBool(state.Key(secondaryPrefix, v.Bytes()), true); err != nil {
			return err
		}
		if err := m.frame.Events.Emit(ABI, m.addr, "SecondaryValidatorAdded", v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Messenger) RemoveSecondaryValidators(vs ...common.Address) error {
	if err := m.onlyAdmin(); err != nil {
		return err
	}
	for _, v := range vs {
		if err := m.store.Delete(state.Key(secondaryPrefix, v.Bytes())); err != nil {
			return err
		}
		if err := m.frame.Events.Emit(ABI, m.addr, "SecondaryValidatorRemoved", v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Messenger) SetOtherChainIDs(s ChainSet) error {
	if err := m.onlyAdmin(); err != nil {
		return err
	}
	return m.store.SetHash(otherChainsKey, common.Hash(s))
}

func (m *Messenger) SetGasUsage(chainID uint8, gas *uint256.Int) error {
	if err := m.onlyAdmin(); err != nil {
		return err
	}
	return m.store.SetUint256(state.Key(gasUsagePrefix, state.Uint8Key(chainID)), gas)
}

func (m *Messenger) SetGasOracle(addr common.Address) error {
	if err := m.onlyAdmin(); err != nil {
		return err
	}
	return m.store.SetAddress(oracleKey, addr)
}

func (m *Messenger) SetAdmin(next common.Address) error {
	if err := m.onlyAdmin(); err != nil {
		return err
	}
	return m.store.SetAddress(adminKey, next)
}

// WithdrawGasTokens moves collected delivery fees to the admin.
func (m *Messenger) WithdrawGasTokens(amount *uint256.Int) error {
	if err := m.onlyAdmin(); err != nil {
		return err
	}
	return m.frame.Ledger.Transfer(host.NativeToken, m.addr, m.frame.Caller(), amount)
}
