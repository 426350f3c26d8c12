// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"math/big"

	"github.com/holiman/uint256"
)

var (
	big1 = big.NewInt(1)
	big3 = big.NewInt(3)
)

// invariant evaluates the stable-swap curve of a pool with amplification a
// and invariant d. Intermediate terms are signed and may exceed 256 bits, so
// they are computed on big.Int.
type invariant struct {
	a *big.Int
	d *big.Int
}

func newInvariant(a, d *uint256.Int) invariant {
	return invariant{a: a.ToBig(), d: d.ToBig()}
}

// getD solves the invariant for balances x and y:
//
//	p1 = A·xy(x+y)
//	p2 = xy(4A-1)/3
//	p3 = √(p1² + p2³)
//	D  = 2(∛(p1+p3) ± ∛|p1-p3|)
func (inv invariant) getD(x, y *big.Int) *big.Int {
	xy := new(big.Int).Mul(x, y)

	p1 := new(big.Int).Add(x, y)
	p1.Mul(p1, xy)
	p1.Mul(p1, inv.a)

	p2 := new(big.Int).Lsh(inv.a, 2)
	p2.Sub(p2, big1)
	p2.Mul(p2, xy)
	p2.Quo(p2, big3)

	p3 := new(big.Int).Mul(p1, p1)
	p2cubed := new(big.Int).Mul(p2, p2)
	p2cubed.Mul(p2cubed, p2)
	p3.Add(p3, p2cubed)
	p3.Sqrt(p3)

	d := cbrt(new(big.Int).Add(p1, p3))
	if p3.Cmp(p1) > 0 {
		d.Sub(d, cbrt(new(big.Int).Sub(p3, p1)))
	} else {
		d.Add(d, cbrt(new(big.Int).Sub(p1, p3)))
	}
	return d.Lsh(d, 1)
}

// getY returns the balance on the other side of the curve when one side
// holds x:
//
//	part1 = 4A(D-x) - D
//	y     = (√(x(4AD³ + x·part1²)) + x·part1) / 8Ax + 1
//
// The +1 offsets rounding in favour of the pool. It reports false when x is
// zero or the curve has no non-negative solution.
func (inv invariant) getY(x *big.Int) (*big.Int, bool) {
	if x.Sign() <= 0 {
		return nil, false
	}
	a4 := new(big.Int).Lsh(inv.a, 2)
	a8 := new(big.Int).Lsh(inv.a, 3)

	part1 := new(big.Int).Sub(inv.d, x)
	part1.Mul(part1, a4)
	part1.Sub(part1, inv.d)

	dCubed := new(big.Int).Mul(inv.d, inv.d)
	dCubed.Mul(dCubed, inv.d)
	part2 := new(big.Int).Mul(a4, dCubed)
	sq := new(big.Int).Mul(part1, part1)
	sq.Mul(sq, x)
	part2.Add(part2, sq)
	part2.Mul(part2, x)

	num := new(big.Int).Sqrt(part2)
	num.Add(num, new(big.Int).Mul(x, part1))
	if num.Sign() < 0 {
		return nil, false
	}
	den := new(big.Int).Mul(a8, x)
	y := num.Quo(num, den)
	return y.Add(y, big1), true
}

// cbrt returns ⌊∛n⌋ for n ≥ 0.
func cbrt(n *big.Int) *big.Int {
	if n.Sign() <= 0 {
		return new(big.Int)
	}
	// 2^⌈bits/3⌉ is above the root, so Newton's iteration descends onto the
	// floor.
	x := new(big.Int).Lsh(big1, uint(n.BitLen()+2)/3)
	for {
		y := new(big.Int).Mul(x, x)
		y.Quo(n, y)
		y.Add(y, new(big.Int).Lsh(x, 1))
		y.Quo(y, big3)
		if y.Cmp(x) >= 0 {
			return x
		}
		x = y
	}
}

func pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n)))
}
