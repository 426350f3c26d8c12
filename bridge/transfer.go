// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/host"
	"github.com/luxfi/xbridge/messenger"
)

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// SwapAndBridge swaps req.Amount of a local token into vUSD and sends it to
// req.DestinationChainID. The bridging fee is req.FeeNative plus
// req.FeeTokenAmount converted to the native token; together they must cover
// the receive transaction on the destination and the message delivery.
// It returns the message identifying the transfer.
func (b *Bridge) SwapAndBridge(req SendRequest) (common.Hash, error) {
	if err := b.whenCanSwap(); err != nil {
		return common.Hash{}, err
	}
	amount := orZero(req.Amount)
	feeNative, feeTokens := orZero(req.FeeNative), orZero(req.FeeTokenAmount)
	if !amount.Gt(feeTokens) {
		return common.Hash{}, ErrAmountTooLowForFee
	}
	if req.Recipient == (common.Hash{}) {
		return common.Hash{}, ErrZeroRecipient
	}
	if req.Protocol != messenger.ProtocolValidators {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, req.Protocol)
	}

	sender := b.frame.Caller()
	if err := b.frame.Ledger.Transfer(host.NativeToken, sender, b.addr, feeNative); err != nil {
		return common.Hash{}, err
	}
	feeFromTokens, err := b.convertBridgingFeeInTokens(sender, req.Token, feeTokens)
	if err != nil {
		return common.Hash{}, err
	}
	bridgingFee := new(uint256.Int).Add(feeNative, feeFromTokens)

	p, err := b.pool(req.Token)
	if err != nil {
		return common.Hash{}, err
	}
	vUsd, err := p.SwapToVUsd(sender, new(uint256.Int).Sub(amount, feeTokens), false)
	if err != nil {
		return common.Hash{}, err
	}
	return b.sendTokens(vUsd, req, bridgingFee)
}

func (b *Bridge) sendTokens(vUsd *uint256.Int, req SendRequest, bridgingFee *uint256.Int) (common.Hash, error) {
	chainID, err := b.chainID()
	if err != nil {
		return common.Hash{}, err
	}
	dest := req.DestinationChainID
	if dest == chainID {
		return common.Hash{}, ErrWrongDestination
	}
	other, err := b.OtherBridge(dest)
	if err != nil {
		return common.Hash{}, err
	}
	if other == (common.Hash{}) {
		return common.Hash{}, fmt.Errorf("%w: %d", ErrUnknownChain, dest)
	}
	known, err := b.IsBridgeToken(dest, req.ReceiveToken)
	if err != nil {
		return common.Hash{}, err
	}
	if !known {
		return common.Hash{}, ErrUnknownToken
	}

	nonce := orZero(req.Nonce)
	message := messenger.HashMessage(vUsd, req.Recipient, chainID, dest, req.ReceiveToken, nonce, req.Protocol)
	sent, err := b.sent.Has(message)
	if err != nil {
		return common.Hash{}, err
	}
	if sent {
		return common.Hash{}, ErrMessageAlreadySent
	}
	if err := b.sent.Add(message); err != nil {
		return common.Hash{}, err
	}

	bridgeCost, err := b.TransactionCost(dest)
	if err != nil {
		return common.Hash{}, err
	}
	m, err := b.messenger()
	if err != nil {
		return common.Hash{}, err
	}
	messageCost, err := m.TransactionCost(dest)
	if err != nil {
		return common.Hash{}, err
	}
	required := new(uint256.Int).Add(bridgeCost, messageCost)
	if bridgingFee.Lt(required) {
		return common.Hash{}, fmt.Errorf("%w: paid %s, required %s", ErrNotEnoughFee, bridgingFee, required)
	}
	if _, err := m.SendMessage(message, messageCost); err != nil {
		return common.Hash{}, err
	}

	if err := b.frame.Events.Emit(ABI, b.addr, "ReceiveFee", bridgeCost.ToBig(), messageCost.ToBig()); err != nil {
		return common.Hash{}, err
	}
	return message, b.frame.Events.Emit(ABI, b.addr, "TokensSent",
		vUsd.ToBig(), [32]byte(req.Recipient), dest, [32]byte(req.ReceiveToken), nonce.ToBig(), uint8(req.Protocol))
}

// ReceiveTokens completes a transfer whose message the messenger accepted.
// Anyone may submit it; the validator signatures authorize the payout.
// It returns the token amount paid to the recipient.
func (b *Bridge) ReceiveTokens(req ReceiveRequest) (*uint256.Int, error) {
	if err := b.whenCanSwap(); err != nil {
		return nil, err
	}
	source := req.SourceChainID
	other, err := b.OtherBridge(source)
	if err != nil {
		return nil, err
	}
	if other == (common.Hash{}) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChain, source)
	}
	chainID, err := b.chainID()
	if err != nil {
		return nil, err
	}

	amount := orZero(req.Amount)
	message := messenger.HashMessage(amount, req.Recipient, source, chainID, req.ReceiveToken, orZero(req.Nonce), req.Protocol)
	withSender := messenger.HashWithSender(message, other)
	done, err := b.processed.Has(withSender)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, ErrMessageProcessed
	}
	m, err := b.messenger()
	if err != nil {
		return nil, err
	}
	received, err := m.HasReceivedMessage(withSender)
	if err != nil {
		return nil, err
	}
	if !received {
		return nil, ErrNoMessage
	}
	if err := b.processed.Add(withSender); err != nil {
		return nil, err
	}

	p, err := b.pool(messenger.Bytes32ToAddress(req.ReceiveToken))
	if err != nil {
		return nil, err
	}
	recipient := messenger.Bytes32ToAddress(req.Recipient)
	out, err := p.SwapFromVUsd(recipient, amount, orZero(req.ReceiveAmountMin), false)
	if err != nil {
		return nil, err
	}
	if err := b.frame.Ledger.Transfer(host.NativeToken, b.frame.Caller(), recipient, orZero(req.ExtraGas)); err != nil {
		return nil, err
	}
	return out, b.frame.Events.Emit(ABI, b.addr, "TokensReceived",
		amount.ToBig(), [32]byte(req.Recipient), orZero(req.Nonce).ToBig(), uint8(req.Protocol), [32]byte(withSender))
}

// Swap exchanges one local token for another through vUSD. Swaps made by the
// rebalancer pay no fee.
func (b *Bridge) Swap(req SwapRequest) (*uint256.Int, error) {
	if err := b.whenCanSwap(); err != nil {
		return nil, err
	}
	if req.Token == req.ReceiveToken {
		return nil, ErrSameToken
	}
	rebalancer, err := b.store.Address(rebalancerKey)
	if err != nil {
		return nil, err
	}
	sender := b.frame.Caller()
	zeroFee := sender == rebalancer && rebalancer != (common.Address{})

	from, err := b.pool(req.Token)
	if err != nil {
		return nil, err
	}
	to, err := b.pool(req.ReceiveToken)
	if err != nil {
		return nil, err
	}
	amount := orZero(req.Amount)
	vUsd, err := from.SwapToVUsd(sender, amount, zeroFee)
	if err != nil {
		return nil, err
	}
	out, err := to.SwapFromVUsd(req.Recipient, vUsd, orZero(req.ReceiveAmountMin), zeroFee)
	if err != nil {
		return nil, err
	}
	return out, b.frame.Events.Emit(ABI, b.addr, "Swapped",
		sender, req.Recipient, req.Token, req.ReceiveToken, amount.ToBig(), out.ToBig())
}

// TransactionCost is the native token cost of the receive transaction on
// chainID.
func (b *Bridge) TransactionCost(chainID uint8) (*uint256.Int, error) {
	oracle, err := b.gasOracle()
	if err != nil {
		return nil, err
	}
	gas, err := b.GasUsage(chainID)
	if err != nil {
		return nil, err
	}
	return oracle.TransactionGasCostInNativeToken(chainID, gas)
}

// BridgingCostInTokens quotes the full bridging fee to chainID in units of
// token.
func (b *Bridge) BridgingCostInTokens(chainID uint8, token common.Address) (*uint256.Int, error) {
	factor, err := b.BridgingFeeConversionFactor(token)
	if err != nil {
		return nil, err
	}
	if factor.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNoPool, token)
	}
	bridgeCost, err := b.TransactionCost(chainID)
	if err != nil {
		return nil, err
	}
	m, err := b.messenger()
	if err != nil {
		return nil, err
	}
	messageCost, err := m.TransactionCost(chainID)
	if err != nil {
		return nil, err
	}
	oracle, err := b.gasOracle()
	if err != nil {
		return nil, err
	}
	price, err := oracle.LocalPrice()
	if err != nil {
		return nil, err
	}
	cost := new(uint256.Int).Add(bridgeCost, messageCost)
	cost.Mul(cost, price)
	return cost.Div(cost, factor), nil
}

// convertBridgingFeeInTokens takes amount of token from user as a fee and
// returns its value in the native token.
func (b *Bridge) convertBridgingFeeInTokens(user, token common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int), nil
	}
	factor, err := b.BridgingFeeConversionFactor(token)
	if err != nil {
		return nil, err
	}
	if factor.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNoPool, token)
	}
	oracle, err := b.gasOracle()
	if err != nil {
		return nil, err
	}
	price, err := oracle.LocalPrice()
	if err != nil {
		return nil, err
	}
	if err := b.frame.Ledger.Transfer(token, user, b.addr, amount); err != nil {
		return nil, err
	}
	native := new(uint256.Int).Mul(amount, factor)
	native.Div(native, price)
	return native, b.frame.Events.Emit(ABI, b.addr, "BridgingFeeFromTokens", native.ToBig())
}
