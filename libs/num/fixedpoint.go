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

// FP32One is 1.0 in 32.32 fixed point.
const FP32One uint64 = 1 << 32

// Mul32 multiplies a plain integer a by the 32.32 fixed point number b and
// returns the integer part of the product. The full width product is
// computed first and the result must fit in 64 bits.
func Mul32(a, bFP32 uint64) (uint64, error) {
	r, overflow := NewUint(0).MulOverflow(NewUint(a), NewUint(bFP32))
	if overflow {
		return 0, ErrOverflow
	}
	r.Rsh(r, 32)
	if !r.IsUint64() {
		return 0, ErrOverflow
	}
	return r.Uint64(), nil
}

// Div32 divides the plain integer a by the 32.32 fixed point number b and
// returns the integer part of the quotient.
func Div32(a, bFP32 uint64) (uint64, error) {
	if bFP32 == 0 {
		return 0, ErrDivisionByZero
	}
	r := NewUint(0).Lsh(NewUint(a), 32)
	r.Div(r, NewUint(bFP32))
	if !r.IsUint64() {
		return 0, ErrOverflow
	}
	return r.Uint64(), nil
}
