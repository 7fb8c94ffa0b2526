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
	"github.com/shopspring/decimal"
)

type Decimal = decimal.Decimal

var (
	dzero = decimal.Zero
	d1    = decimal.NewFromInt(1)
	// fp32 one as a decimal, used to convert human readable rates.
	dFP32One = decimal.NewFromInt(int64(FP32One))
)

func DecimalZero() Decimal {
	return dzero
}

func DecimalOne() Decimal {
	return d1
}

func DecimalFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

func MustDecimalFromString(s string) Decimal {
	d, err := DecimalFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func DecimalFromUint64(u uint64) Decimal {
	return decimal.NewFromBigInt(NewUint(u).BigInt(), 0)
}

func DecimalFromUint(u *Uint) Decimal {
	return decimal.NewFromBigInt(u.BigInt(), 0)
}

// FP32FromDecimal converts a decimal rate (e.g. 0.0004) into its 32.32
// fixed point representation, truncating any precision below 2^-32.
func FP32FromDecimal(d Decimal) (uint64, error) {
	if d.IsNegative() {
		return 0, ErrNegative
	}
	scaled := d.Mul(dFP32One).Truncate(0)
	u, overflow := UintFromBig(scaled.BigInt())
	if overflow || !u.IsUint64() {
		return 0, ErrOverflow
	}
	return u.Uint64(), nil
}

// FP32ToDecimal returns the exact decimal value of a 32.32 fixed point
// number, 2^-32 having 32 decimal digits.
func FP32ToDecimal(fp uint64) Decimal {
	return DecimalFromUint64(fp).DivRound(dFP32One, 32)
}
