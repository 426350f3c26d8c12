// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Deposit adds amount of the pool token from the caller and mints LP equal
// to the increase of D.
func (p *Pool) Deposit(amount *uint256.Int) error {
	s, err := p.Snapshot()
	if err != nil {
		return err
	}
	if !s.CanDeposit {
		return ErrDepositProhibited
	}
	user := p.frame.Caller()
	oldD := s.D.Clone()

	amountSP := s.ToSystemPrecision(amount)
	if amountSP.IsZero() {
		return ErrTooLittle
	}

	oldBalance := new(uint256.Int).Add(s.TokenBalance, s.VUsdBalance)
	if oldD.IsZero() || oldBalance.IsZero() {
		// first deposit splits the amount evenly
		half := new(uint256.Int).Rsh(amountSP, 1)
		s.TokenBalance = new(uint256.Int).Add(s.TokenBalance, half)
		s.VUsdBalance = new(uint256.Int).Add(s.VUsdBalance, half)
	} else {
		tokenPart, err := mulDiv(amountSP, s.TokenBalance, oldBalance)
		if err != nil {
			return err
		}
		vUsdPart, err := mulDiv(amountSP, s.VUsdBalance, oldBalance)
		if err != nil {
			return err
		}
		s.TokenBalance = new(uint256.Int).Add(s.TokenBalance, tokenPart)
		s.VUsdBalance = new(uint256.Int).Add(s.VUsdBalance, vUsdPart)
	}
	if err := p.transferIn(s, user, amount); err != nil {
		return err
	}
	s.Reserves = new(uint256.Int).Add(s.Reserves, amountSP)

	if err := s.updateD(); err != nil {
		return err
	}
	if s.D.Lt(oldD) {
		return ErrZeroDChanges
	}
	if err := p.depositLp(s, user, new(uint256.Int).Sub(s.D, oldD)); err != nil {
		return err
	}
	if !s.TokenBalance.Lt(MaxTokenBalance) {
		return ErrTooMuch
	}
	if err := p.save(s); err != nil {
		return err
	}
	return p.frame.Events.Emit(ABI, p.addr, "Deposit", user, amountSP.ToBig())
}

// Withdraw burns amountLp of the caller's LP and pays out the same amount of
// tokens in system precision, taken proportionally from both sides.
func (p *Pool) Withdraw(amountLp *uint256.Int) error {
	s, err := p.Snapshot()
	if err != nil {
		return err
	}
	if !s.CanWithdraw {
		return ErrWithdrawProhibited
	}
	user := p.frame.Caller()
	oldD := s.D.Clone()

	if err := p.withdrawLp(s, user, amountLp); err != nil {
		return err
	}

	oldBalance := new(uint256.Int).Add(s.TokenBalance, s.VUsdBalance)
	tokenPart, err := mulDiv(amountLp, s.TokenBalance, oldBalance)
	if err != nil {
		return err
	}
	vUsdPart, err := mulDiv(amountLp, s.VUsdBalance, oldBalance)
	if err != nil {
		return err
	}
	s.TokenBalance = new(uint256.Int).Sub(s.TokenBalance, tokenPart)
	s.VUsdBalance = new(uint256.Int).Sub(s.VUsdBalance, vUsdPart)
	if !new(uint256.Int).Add(s.TokenBalance, s.VUsdBalance).Lt(oldBalance) {
		return ErrZeroChanges
	}

	if amountLp.Gt(s.Reserves) {
		return ErrReserves
	}
	s.Reserves = new(uint256.Int).Sub(s.Reserves, amountLp)

	if err := s.updateD(); err != nil {
		return err
	}
	if !s.D.Lt(oldD) {
		return ErrZeroDChanges
	}
	if err := p.transferOut(s, user, s.FromSystemPrecision(amountLp)); err != nil {
		return err
	}
	if err := p.save(s); err != nil {
		return err
	}
	return p.frame.Events.Emit(ABI, p.addr, "Withdraw", user, amountLp.ToBig())
}

// PendingReward is the fee share user can claim, in token units.
func (p *Pool) PendingReward(user common.Address) (*uint256.Int, error) {
	s, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	u, err := p.UserDeposit(user)
	if err != nil {
		return nil, err
	}
	return s.pending(u), nil
}

// ClaimRewards pays the caller's pending fee share.
func (p *Pool) ClaimRewards() error {
	s, err := p.Snapshot()
	if err != nil {
		return err
	}
	user := p.frame.Caller()
	u, err := p.UserDeposit(user)
	if err != nil {
		return err
	}
	pending := s.pending(u)
	if pending.IsZero() {
		return nil
	}
	u.RewardDebt = s.rewardDebt(u.LpAmount)
	if err := p.setUserDeposit(user, u); err != nil {
		return err
	}
	return p.payReward(s, user, pending)
}

// ClaimAdminFee pays the accumulated admin share of fees to the admin.
func (p *Pool) ClaimAdminFee() error {
	if err := p.onlyAdmin(); err != nil {
		return err
	}
	s, err := p.Snapshot()
	if err != nil {
		return err
	}
	amount := s.AdminFeeAmount
	if amount.IsZero() {
		return nil
	}
	s.AdminFeeAmount = new(uint256.Int)
	if err := p.save(s); err != nil {
		return err
	}
	return p.transferOut(s, p.frame.Caller(), amount)
}

func (s *Snapshot) rewardDebt(lp *uint256.Int) *uint256.Int {
	debt := new(uint256.Int).Mul(lp, s.AccRewardPerShareP)
	return debt.Rsh(debt, P)
}

func (s *Snapshot) pending(u UserDeposit) *uint256.Int {
	if u.LpAmount.IsZero() {
		return new(uint256.Int)
	}
	earned := s.rewardDebt(u.LpAmount)
	if earned.Lt(u.RewardDebt) {
		return new(uint256.Int)
	}
	return earned.Sub(earned, u.RewardDebt)
}

// addRewards splits a fee between the admin and liquidity providers. Fees
// collected while no LP exists stay in the pool.
func (s *Snapshot) addRewards(reward *uint256.Int) {
	if s.TotalLpAmount.IsZero() || reward.IsZero() {
		return
	}
	adminPart := new(uint256.Int).Mul(reward, s.AdminFeeShareBP)
	adminPart.Div(adminPart, uint256.NewInt(BP))
	lpPart := new(uint256.Int).Sub(reward, adminPart)

	perShare := new(uint256.Int).Lsh(lpPart, P)
	perShare.Div(perShare, s.TotalLpAmount)
	s.AccRewardPerShareP = new(uint256.Int).Add(s.AccRewardPerShareP, perShare)
	s.AdminFeeAmount = new(uint256.Int).Add(s.AdminFeeAmount, adminPart)
}

func (p *Pool) depositLp(s *Snapshot, user common.Address, amount *uint256.Int) error {
	u, err := p.UserDeposit(user)
	if err != nil {
		return err
	}
	pending := s.pending(u)
	u.LpAmount = new(uint256.Int).Add(u.LpAmount, amount)
	u.RewardDebt = s.rewardDebt(u.LpAmount)
	s.TotalLpAmount = new(uint256.Int).Add(s.TotalLpAmount, amount)
	if err := p.setUserDeposit(user, u); err != nil {
		return err
	}
	return p.payReward(s, user, pending)
}

func (p *Pool) withdrawLp(s *Snapshot, user common.Address, amount *uint256.Int) error {
	u, err := p.UserDeposit(user)
	if err != nil {
		return err
	}
	if u.LpAmount.Lt(amount) {
		return ErrNotEnoughLP
	}
	pending := s.pending(u)
	u.LpAmount = new(uint256.Int).Sub(u.LpAmount, amount)
	u.RewardDebt = s.rewardDebt(u.LpAmount)
	s.TotalLpAmount = new(uint256.Int).Sub(s.TotalLpAmount, amount)
	if err := p.setUserDeposit(user, u); err != nil {
		return err
	}
	return p.payReward(s, user, pending)
}

func (p *Pool) payReward(s *Snapshot, user common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := p.transferOut(s, user, amount); err != nil {
		return err
	}
	return p.frame.Events.Emit(ABI, p.addr, "RewardsClaimed", user, amount.ToBig())
}
