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

package num_test

import (
	"math"
	"math/big"
	"testing"

	"code.vegaprotocol.io/dex/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint256Constructors(t *testing.T) {
	var expected uint64 = 42

	t.Run("test from uint64", func(t *testing.T) {
		n := num.NewUint(expected)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from string", func(t *testing.T) {
		n, overflow := num.UintFromString("42", 10)
		assert.False(t, overflow)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from big", func(t *testing.T) {
		n, overflow := num.UintFromBig(big.NewInt(int64(expected)))
		assert.False(t, overflow)
		assert.Equal(t, expected, n.Uint64())
	})
}

func TestCheckedArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		r, err := num.AddU64(40, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), r)
		_, err = num.AddU64(math.MaxUint64, 1)
		assert.ErrorIs(t, err, num.ErrOverflow)
	})

	t.Run("sub", func(t *testing.T) {
		r, err := num.SubU64(44, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), r)
		_, err = num.SubU64(1, 2)
		assert.ErrorIs(t, err, num.ErrOverflow)
		assert.Equal(t, uint64(0), num.SaturatingSubU64(1, 2))
	})

	t.Run("mul", func(t *testing.T) {
		r, err := num.MulU64(6, 7)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), r)
		_, err = num.MulU64(math.MaxUint64, 2)
		assert.ErrorIs(t, err, num.ErrOverflow)
	})

	t.Run("mul div", func(t *testing.T) {
		r, err := num.MulDivU64(math.MaxUint64, 30, 100)
		require.NoError(t, err)
		assert.Equal(t, uint64(5534023222112865484), r)
		_, err = num.MulDivU64(1, 1, 0)
		assert.ErrorIs(t, err, num.ErrDivisionByZero)
	})
}

func TestFixedPoint(t *testing.T) {
	t.Run("multiply by one is identity", func(t *testing.T) {
		r, err := num.Mul32(123456789, num.FP32One)
		require.NoError(t, err)
		assert.Equal(t, uint64(123456789), r)
	})

	t.Run("multiply truncates", func(t *testing.T) {
		// 11 * 0.5
		r, err := num.Mul32(11, num.FP32One/2)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), r)
	})

	t.Run("multiply uses the full width product", func(t *testing.T) {
		// max * 0.5 does not fit in 64 bits before the shift
		r, err := num.Mul32(math.MaxUint64, num.FP32One/2)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64/2), r)
	})

	t.Run("multiply overflow fails instead of wrapping", func(t *testing.T) {
		_, err := num.Mul32(math.MaxUint64, 2*num.FP32One)
		assert.ErrorIs(t, err, num.ErrOverflow)
	})

	t.Run("divide", func(t *testing.T) {
		r, err := num.Div32(10, 2*num.FP32One)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), r)
		_, err = num.Div32(10, 0)
		assert.ErrorIs(t, err, num.ErrDivisionByZero)
		_, err = num.Div32(math.MaxUint64, num.FP32One/2)
		assert.ErrorIs(t, err, num.ErrOverflow)
	})

	t.Run("decimal conversion", func(t *testing.T) {
		fp, err := num.FP32FromDecimal(num.MustDecimalFromString("0.5"))
		require.NoError(t, err)
		assert.Equal(t, num.FP32One/2, fp)
		assert.Equal(t, "0.5", num.FP32ToDecimal(fp).String())
		_, err = num.FP32FromDecimal(num.MustDecimalFromString("-1"))
		assert.ErrorIs(t, err, num.ErrNegative)
	})
}

func FuzzMul32(f *testing.F) {
	f.Add(uint64(1), num.FP32One)
	f.Add(uint64(math.MaxUint64), uint64(1))
	f.Fuzz(func(t *testing.T, a, b uint64) {
		r, err := num.Mul32(a, b)
		expected := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
		expected.Rsh(expected, 32)
		if !expected.IsUint64() {
			if err == nil {
				t.Fatalf("expected overflow for %d * %d", a, b)
			}
			return
		}
		if err != nil || r != expected.Uint64() {
			t.Fatalf("got %d (%v), want %s", r, err, expected)
		}
	})
}

func FuzzDiv32RoundTrip(f *testing.F) {
	f.Add(uint64(1000), num.FP32One+num.FP32One/1000)
	f.Fuzz(func(t *testing.T, a, b uint64) {
		if b < num.FP32One {
			return
		}
		q, err := num.Div32(a, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// q * b never exceeds a since the quotient is truncated
		back, err := num.Mul32(q, b)
		if err == nil && back > a {
			t.Fatalf("round trip exceeds input: %d > %d", back, a)
		}
	})
}
