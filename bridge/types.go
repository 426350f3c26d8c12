// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/events"
	"github.com/luxfi/xbridge/messenger"
	"github.com/luxfi/xbridge/state"
)

// Params configure a new bridge.
type Params struct {
	Admin          common.Address
	ChainID        uint8
	NativeDecimals uint8
	Messenger      common.Address
	GasOracle      common.Address
	Rebalancer     common.Address
	StopAuthority  common.Address
}

// Config is the bridge config store as seen by off-chain callers.
type Config struct {
	Admin          common.Address
	StopAuthority  common.Address
	Rebalancer     common.Address
	ChainID        uint8
	NativeDecimals uint8
	CanSwap        bool
	Messenger      common.Address
	GasOracle      common.Address
}

// SendRequest is a transfer of a local token to another chain.
type SendRequest struct {
	Token              common.Address
	Amount             *uint256.Int // token units, including FeeTokenAmount
	Recipient          common.Hash  // account on the destination chain
	DestinationChainID uint8
	ReceiveToken       common.Hash // token on the destination chain
	Nonce              *uint256.Int
	Protocol           messenger.Protocol
	FeeNative          *uint256.Int // native token paid by the sender
	FeeTokenAmount     *uint256.Int // part of Amount paid as bridging fee
}

// ReceiveRequest completes a transfer sent from SourceChainID.
type ReceiveRequest struct {
	Amount           *uint256.Int // vUSD, system precision
	Recipient        common.Hash
	SourceChainID    uint8
	ReceiveToken     common.Hash
	Nonce            *uint256.Int
	Protocol         messenger.Protocol
	ReceiveAmountMin *uint256.Int
	ExtraGas         *uint256.Int // native token forwarded to the recipient
}

// SwapRequest is a local swap between two pools of this bridge.
type SwapRequest struct {
	Amount           *uint256.Int
	Token            common.Address
	ReceiveToken     common.Address
	Recipient        common.Address
	ReceiveAmountMin *uint256.Int
}

// Bridge errors
var (
	ErrAlreadyInitialized  = errors.New("bridge: already initialized")
	ErrNotInitialized      = errors.New("bridge: not initialized")
	ErrUnauthorized        = errors.New("bridge: caller is not the admin")
	ErrOnlyStopAuthority   = errors.New("bridge: caller is not the stop authority")
	ErrSwapProhibited      = errors.New("bridge: swap prohibited")
	ErrAmountTooLowForFee  = errors.New("bridge: amount too low for fee")
	ErrZeroRecipient       = errors.New("bridge: bridge to the zero address")
	ErrWrongDestination    = errors.New("bridge: wrong destination chain")
	ErrUnknownChain        = errors.New("bridge: unknown chain")
	ErrUnknownToken        = errors.New("bridge: unknown chain or token")
	ErrNoPool              = errors.New("bridge: no pool for token")
	ErrPoolToken           = errors.New("bridge: pool holds a different token")
	ErrMessageAlreadySent  = errors.New("bridge: tokens already sent")
	ErrMessageProcessed    = errors.New("bridge: message processed")
	ErrNoMessage           = errors.New("bridge: no message")
	ErrNotEnoughFee        = errors.New("bridge: not enough fee")
	ErrSameToken           = errors.New("bridge: cannot swap a token for itself")
	ErrUnsupportedProtocol = errors.New("bridge: unsupported messenger protocol")
	ErrDecimals            = errors.New("bridge: token decimals out of range")
)

const bridgeABI = `[
	{"type":"event","name":"TokensSent","inputs":[
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"recipient","type":"bytes32","indexed":false},
		{"name":"destinationChainId","type":"uint8","indexed":false},
		{"name":"receiveToken","type":"bytes32","indexed":false},
		{"name":"nonce","type":"uint256","indexed":false},
		{"name":"messenger","type":"uint8","indexed":false}
	]},
	{"type":"event","name":"TokensReceived","inputs":[
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"recipient","type":"bytes32","indexed":false},
		{"name":"nonce","type":"uint256","indexed":false},
		{"name":"messenger","type":"uint8","indexed":false},
		{"name":"message","type":"bytes32","indexed":false}
	]},
	{"type":"event","name":"Swapped","inputs":[
		{"name":"sender","type":"address","indexed":false},
		{"name":"recipient","type":"address","indexed":false},
		{"name":"sendToken","type":"address","indexed":false},
		{"name":"receiveToken","type":"address","indexed":false},
		{"name":"sendAmount","type":"uint256","indexed":false},
		{"name":"receivedAmount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"ReceiveFee","inputs":[
		{"name":"bridgeTransactionCost","type":"uint256","indexed":false},
		{"name":"messageTransactionCost","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"BridgingFeeFromTokens","inputs":[
		{"name":"gas","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"PoolAdded","inputs":[
		{"name":"token","type":"address","indexed":true},
		{"name":"pool","type":"address","indexed":true}
	]},
	{"type":"event","name":"BridgeRegistered","inputs":[
		{"name":"chainId","type":"uint8","indexed":true},
		{"name":"bridge","type":"bytes32","indexed":false}
	]}
]`

// ABI describes the events the bridge emits.
var ABI = events.ParseABI(bridgeABI)

// Storage layout of the config store.
var (
	initKey           = state.Key([]byte("initialized"))
	adminKey          = state.Key([]byte("admin"))
	stopAuthorityKey  = state.Key([]byte("stopAuthority"))
	rebalancerKey     = state.Key([]byte("rebalancer"))
	chainIDKey        = state.Key([]byte("chainId"))
	nativeDecimalsKey = state.Key([]byte("nativeDecimals"))
	swapStoppedKey    = state.Key([]byte("swapStopped"))
	messengerKey      = state.Key([]byte("messenger"))
	gasOracleKey      = state.Key([]byte("gasOracle"))

	poolPrefix        = []byte("pool")
	feeFactorPrefix   = []byte("bridgingFeeConversionFactor")
	otherBridgePrefix = []byte("otherBridge")
	bridgeTokenPrefix = []byte("otherBridgeToken")
	gasUsagePrefix    = []byte("gasUsage")
	sentPrefix        = []byte("sent")
	processedPrefix   = []byte("processed")
)
