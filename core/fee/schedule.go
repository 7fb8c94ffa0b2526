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

package fee

import (
	"errors"
	"fmt"
	"sort"

	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
)

// MaxTiers is the maximum number of tiers a market schedule can hold,
// premium tier included.
const MaxTiers = 8

// referralDivisor splits the referral share out of the taker rate.
const referralDivisor = 5

var (
	ErrNoTiers                 = errors.New("fee schedule has no tiers")
	ErrTooManyTiers            = errors.New("fee schedule has too many tiers")
	ErrRatesLengthMismatch     = errors.New("fee schedule rate tables do not match the number of tiers")
	ErrBaseThresholdNotZero    = errors.New("the first fee threshold must be zero")
	ErrThresholdsNotAscending  = errors.New("fee thresholds must be strictly ascending")
	ErrTakerRatesIncreasing    = errors.New("taker rates must not increase with the tier")
	ErrRateAboveOne            = errors.New("fee rate must not exceed one")
	ErrRebateExceedsTakerFee   = errors.New("maker rebate and referral fee exceed the taker fee")
	ErrTierOutOfRange          = errors.New("fee tier out of range")
	ErrReferralExceedsTakerFee = errors.New("referral fee exceeds taker fee")
)

// Schedule is the fee tier table of one market, captured at market creation.
// Rates are 32.32 fixed point fractions of the quote quantity.
//
// Tier i of the ladder is reached with a discount holding of at least
// Thresholds[i]. When Premium is set, one more tier follows the ladder and is
// only reached by holding at least one unit of the premium token.
type Schedule struct {
	Thresholds []uint64
	TakerRates []uint64
	MakerRates []uint64
	Premium    bool
}

// Len returns the number of tiers of the schedule.
func (s Schedule) Len() int {
	return len(s.TakerRates)
}

// PremiumTier returns the index of the premium tier, and whether there is one.
func (s Schedule) PremiumTier() (uint8, bool) {
	if !s.Premium || s.Len() == 0 {
		return 0, false
	}
	return uint8(s.Len() - 1), true
}

// Validate checks the schedule can be used by a market.
func (s Schedule) Validate() error {
	n := len(s.TakerRates)
	if n == 0 {
		return ErrNoTiers
	}
	if n > MaxTiers {
		return fmt.Errorf("%w: %d > %d", ErrTooManyTiers, n, MaxTiers)
	}
	ladder := n
	if s.Premium {
		ladder--
	}
	if len(s.MakerRates) != n || len(s.Thresholds) != ladder || ladder == 0 {
		return ErrRatesLengthMismatch
	}
	if s.Thresholds[0] != 0 {
		return ErrBaseThresholdNotZero
	}
	for i := 1; i < ladder; i++ {
		if s.Thresholds[i] <= s.Thresholds[i-1] {
			return fmt.Errorf("%w: tier %d", ErrThresholdsNotAscending, i)
		}
	}
	for i, r := range s.TakerRates {
		if r > num.FP32One || s.MakerRates[i] > num.FP32One {
			return fmt.Errorf("%w: tier %d", ErrRateAboveOne, i)
		}
		if i > 0 && r > s.TakerRates[i-1] {
			return fmt.Errorf("%w: tier %d", ErrTakerRatesIncreasing, i)
		}
	}
	// any maker tier can meet any taker tier, the market must never pay out
	// more than it collected on a fill
	maxMaker := uint64(0)
	for _, r := range s.MakerRates {
		if r > maxMaker {
			maxMaker = r
		}
	}
	for t := range s.TakerRates {
		referral := s.referralRate(uint8(t))
		total, err := num.AddU64(maxMaker, referral)
		if err != nil || total > s.TakerRates[t] {
			return fmt.Errorf("%w: tier %d", ErrRebateExceedsTakerFee, t)
		}
	}
	return nil
}

// TierForHoldings maps the discount token holding and the premium token
// holding of a user to a tier index.
func (s Schedule) TierForHoldings(holding, premium uint64) uint8 {
	if t, ok := s.PremiumTier(); ok && premium >= 1 {
		return t
	}
	// largest tier whose threshold is reached
	i := sort.Search(len(s.Thresholds), func(i int) bool {
		return s.Thresholds[i] > holding
	})
	if i == 0 {
		return 0
	}
	return uint8(i - 1)
}

func (s Schedule) TakerRate(tier uint8) (uint64, error) {
	if int(tier) >= len(s.TakerRates) {
		return 0, fmt.Errorf("%w: %d", ErrTierOutOfRange, tier)
	}
	return s.TakerRates[tier], nil
}

func (s Schedule) MakerRate(tier uint8) (uint64, error) {
	if int(tier) >= len(s.MakerRates) {
		return 0, fmt.Errorf("%w: %d", ErrTierOutOfRange, tier)
	}
	return s.MakerRates[tier], nil
}

// TakerFee returns the fee paid by a taker of the given tier on qty.
func (s Schedule) TakerFee(qty uint64, tier uint8) (uint64, error) {
	rate, err := s.TakerRate(tier)
	if err != nil {
		return 0, err
	}
	return num.Mul32(qty, rate)
}

// MakerRebate returns the rebate credited to a maker of the given tier on qty.
func (s Schedule) MakerRebate(qty uint64, tier uint8) (uint64, error) {
	rate, err := s.MakerRate(tier)
	if err != nil {
		return 0, err
	}
	return num.Mul32(qty, rate)
}

// RemoveTakerFee returns the largest quantity whose taker fee, added to it,
// still fits in qty.
func (s Schedule) RemoveTakerFee(qty uint64, tier uint8) (uint64, error) {
	rate, err := s.TakerRate(tier)
	if err != nil {
		return 0, err
	}
	return num.Div32(qty, num.FP32One+rate)
}

func (s Schedule) referralRate(tier uint8) uint64 {
	var base uint64
	if len(s.MakerRates) > 0 {
		base = s.MakerRates[0]
	}
	return num.SaturatingSubU64(s.TakerRates[tier], base) / referralDivisor
}

// ReferralRate is the share of the taker rate routed to a referrer.
func (s Schedule) ReferralRate(tier uint8) (uint64, error) {
	if int(tier) >= len(s.TakerRates) {
		return 0, fmt.Errorf("%w: %d", ErrTierOutOfRange, tier)
	}
	return s.referralRate(tier), nil
}

// ReferralFee returns the part of the taker fee on qty paid to a referrer.
func (s Schedule) ReferralFee(qty uint64, tier uint8) (uint64, error) {
	rate, err := s.ReferralRate(tier)
	if err != nil {
		return 0, err
	}
	return num.Mul32(qty, rate)
}

// PackTier builds the fee tier byte carried in a callback token.
func PackTier(tier uint8, referred bool) uint8 {
	return types.PackFeeTier(tier, referred)
}

// UnpackTier splits a callback fee tier byte.
func UnpackTier(b uint8) (uint8, bool) {
	return b &^ types.ReferralMask, b&types.ReferralMask != 0
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	return Schedule{
		Thresholds: append([]uint64(nil), s.Thresholds...),
		TakerRates: append([]uint64(nil), s.TakerRates...),
		MakerRates: append([]uint64(nil), s.MakerRates...),
		Premium:    s.Premium,
	}
}

const oneDiscountToken = 1_000_000

// rate returns n / 100000 as a 32.32 fixed point value.
func rate(n uint64) uint64 {
	return (n << 32) / 100_000
}

// DefaultSchedule returns the discount ladder of the historical serum markets:
// six tiers reached by holding 100 to 1M discount tokens of 6 decimals, and a
// premium tier for holders of the premium token.
func DefaultSchedule() Schedule {
	return Schedule{
		Thresholds: []uint64{
			0,
			100 * oneDiscountToken,
			1_000 * oneDiscountToken,
			10_000 * oneDiscountToken,
			100_000 * oneDiscountToken,
			1_000_000 * oneDiscountToken,
		},
		TakerRates: []uint64{rate(40), rate(39), rate(38), rate(36), rate(34), rate(32), rate(30)},
		MakerRates: []uint64{0, 0, 0, 0, 0, 0, 0},
		Premium:    true,
	}
}

// StableSchedule is the single tier schedule of stable pairs.
func StableSchedule() Schedule {
	return Schedule{
		Thresholds: []uint64{0},
		TakerRates: []uint64{rate(10)},
		MakerRates: []uint64{0},
	}
}
