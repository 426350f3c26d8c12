// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// SwapToVUsd takes amount of the pool token from user and returns the vUSD it
// is worth, in system precision. Only the bridge may call it. The fee is
// skipped when zeroFee is set.
func (p *Pool) SwapToVUsd(user common.Address, amount *uint256.Int, zeroFee bool) (*uint256.Int, error) {
	if err := p.onlyBridge(); err != nil {
		return nil, err
	}
	s, err := p.Snapshot()
	if err != nil {
		return nil, err
	}

	fee := new(uint256.Int)
	if !zeroFee {
		if fee, err = mulDiv(amount, s.FeeShareBP, uint256.NewInt(BP)); err != nil {
			return nil, err
		}
	}
	amountIn := s.ToSystemPrecision(new(uint256.Int).Sub(amount, fee))
	// rounding dust goes to the fee
	fee = new(uint256.Int).Sub(amount, s.FromSystemPrecision(amountIn))

	result := new(uint256.Int)
	if !amountIn.IsZero() {
		if err := p.transferIn(s, user, amount); err != nil {
			return nil, err
		}
		s.TokenBalance = new(uint256.Int).Add(s.TokenBalance, amountIn)
		s.Reserves = new(uint256.Int).Add(s.Reserves, amountIn)
		vUsdNew, err := s.getY(s.TokenBalance)
		if err != nil {
			return nil, err
		}
		if s.VUsdBalance.Gt(vUsdNew) {
			result.Sub(s.VUsdBalance, vUsdNew)
		}
		s.VUsdBalance = vUsdNew
		s.addRewards(fee)
	}
	if err := s.validateBalanceRatio(); err != nil {
		return nil, err
	}
	if err := p.save(s); err != nil {
		return nil, err
	}
	return result, p.frame.Events.Emit(ABI, p.addr, "SwappedToVUsd",
		user, s.Token, amount.ToBig(), result.ToBig(), fee.ToBig())
}

// SwapFromVUsd converts amount of vUSD into the pool token and pays it to
// user. It fails when the payout after fee is below receiveAmountMin.
func (p *Pool) SwapFromVUsd(user common.Address, amount, receiveAmountMin *uint256.Int, zeroFee bool) (*uint256.Int, error) {
	if err := p.onlyBridge(); err != nil {
		return nil, err
	}
	s, err := p.Snapshot()
	if err != nil {
		return nil, err
	}

	result := new(uint256.Int)
	fee := new(uint256.Int)
	if !amount.IsZero() {
		s.VUsdBalance = new(uint256.Int).Add(s.VUsdBalance, amount)
		tokenNew, err := s.getY(s.VUsdBalance)
		if err != nil {
			return nil, err
		}
		resultSP := new(uint256.Int)
		if s.TokenBalance.Gt(tokenNew) {
			resultSP.Sub(s.TokenBalance, tokenNew)
			result = s.FromSystemPrecision(resultSP)
		}
		s.TokenBalance = tokenNew

		if resultSP.Gt(s.Reserves) {
			return nil, ErrReserves
		}
		s.Reserves = new(uint256.Int).Sub(s.Reserves, resultSP)

		if !zeroFee {
			if fee, err = mulDiv(result, s.FeeShareBP, uint256.NewInt(BP)); err != nil {
				return nil, err
			}
		}
		result.Sub(result, fee)
		if result.Lt(receiveAmountMin) {
			return nil, fmt.Errorf("%w: got %s, want at least %s", ErrSlippage, result, receiveAmountMin)
		}
		if err := p.transferOut(s, user, result); err != nil {
			return nil, err
		}
		s.addRewards(fee)
	}
	if err := s.validateBalanceRatio(); err != nil {
		return nil, err
	}
	if err := p.save(s); err != nil {
		return nil, err
	}
	return result, p.frame.Events.Emit(ABI, p.addr, "SwappedFromVUsd",
		user, s.Token, amount.ToBig(), result.ToBig(), fee.ToBig())
}
