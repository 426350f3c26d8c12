// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

func (p *Pool) setBP(key common.Hash, bp uint64) error {
	if err := p.onlyAdmin(); err != nil {
		return err
	}
	if bp > BP {
		return ErrInvalidBP
	}
	return p.store.SetUint256(key, uint256.NewInt(bp))
}

func (p *Pool) SetFeeShare(bp uint64) error { return p.setBP(feeShareKey, bp) }

func (p *Pool) SetAdminFeeShare(bp uint64) error { return p.setBP(adminFeeShareKey, bp) }

func (p *Pool) SetBalanceRatioMinBP(bp uint64) error { return p.setBP(balanceRatioKey, bp) }

// AdjustTotalLpAmount mints to the admin any LP that D has grown past the
// outstanding supply, for example after rounding in the pool's favour.
func (p *Pool) AdjustTotalLpAmount() error {
	if err := p.onlyAdmin(); err != nil {
		return err
	}
	s, err := p.Snapshot()
	if err != nil {
		return err
	}
	if !s.D.Gt(s.TotalLpAmount) {
		return nil
	}
	if err := p.depositLp(s, p.frame.Caller(), new(uint256.Int).Sub(s.D, s.TotalLpAmount)); err != nil {
		return err
	}
	return p.save(s)
}

func (p *Pool) onlyStopAuthority() error {
	authority, err := p.StopAuthority()
	if err != nil {
		return err
	}
	if p.frame.Caller() != authority {
		return ErrOnlyStopAuthority
	}
	return nil
}

func (p *Pool) StopDeposit() error {
	if err := p.onlyStopAuthority(); err != nil {
		return err
	}
	return p.store.SetBool(depositStoppedKey, true)
}

func (p *Pool) StartDeposit() error {
	if err := p.onlyAdmin(); err != nil {
		return err
	}
	return p.store.SetBool(depositStoppedKey, false)
}

func (p *Pool) StopWithdraw() error {
	if err := p.onlyStopAuthority(); err != nil {
		return err
	}
	return p.store.SetBool(withdrawStoppedKey, true)
}

func (p *Pool) StartWithdraw() error {
	if err := p.onlyAdmin(); err != nil {
		return err
	}
	return p.store.SetBool(withdrawStoppedKey, false)
}

func (p *Pool) SetStopAuthority(addr common.Address) error {
	if err := p.onlyAdmin(); err != nil {
		return err
	}
	return p.store.SetAddress(stopAuthorityKey, addr)
}

func (p *Pool) SetBridge(addr common.Address) error {
	if err := p.onlyAdmin(); err != nil {
		return err
	}
	return p.store.SetAddress(bridgeKey, addr)
}

func (p *Pool) SetAdmin(addr common.Address) error {
	if err := p.onlyAdmin(); err != nil {
		return err
	}
	return p.store.SetAddress(adminKey, addr)
}
