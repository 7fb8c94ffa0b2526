// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package num

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Uint is a 256 bits unsigned integer used as the intermediate of 64 bits
// products and quotients, so that a*b/c never loses the high word.
type Uint struct {
	u uint256.Int
}

func NewUint(val uint64) *Uint {
	return &Uint{*uint256.NewInt(val)}
}

// UintFromBig converts b, the bool reports an overflow or a negative input.
func UintFromBig(b *big.Int) (*Uint, bool) {
	u, overflow := uint256.FromBig(b)
	if overflow || b.Sign() < 0 {
		return NewUint(0), true
	}
	return &Uint{*u}, false
}

// UintFromString parses str in the given base, the bool reports a parse
// failure or an overflow.
func UintFromString(str string, base int) (*Uint, bool) {
	b, ok := new(big.Int).SetString(str, base)
	if !ok {
		return NewUint(0), true
	}
	return UintFromBig(b)
}

func (z Uint) Uint64() uint64 {
	return z.u.Uint64()
}

// IsUint64 reports whether the value fits in 64 bits.
func (z Uint) IsUint64() bool {
	return z.u.IsUint64()
}

func (z Uint) BigInt() *big.Int {
	return z.u.ToBig()
}

func (z Uint) String() string {
	return z.u.ToBig().String()
}

// Mul sets z = x * y modulo 2^256 and returns z.
func (z *Uint) Mul(x, y *Uint) *Uint {
	z.u.Mul(&x.u, &y.u)
	return z
}

// MulOverflow sets z = x * y and reports whether it wrapped.
func (z *Uint) MulOverflow(x, y *Uint) (*Uint, bool) {
	_, overflow := z.u.MulOverflow(&x.u, &y.u)
	return z, overflow
}

// Div sets z = x / y, zero when y is zero.
func (z *Uint) Div(x, y *Uint) *Uint {
	z.u.Div(&x.u, &y.u)
	return z
}

func (z *Uint) Rsh(x *Uint, n uint) *Uint {
	z.u.Rsh(&x.u, n)
	return z
}

func (z *Uint) Lsh(x *Uint, n uint) *Uint {
	z.u.Lsh(&x.u, n)
	return z
}
