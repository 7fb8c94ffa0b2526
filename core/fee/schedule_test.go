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

package fee_test

import (
	"testing"

	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/libs/num"
	"code.vegaprotocol.io/dex/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneToken = 1_000_000

func TestSchedule(t *testing.T) {
	t.Run("default taker rates match the historical ladder", testDefaultTakerRates)
	t.Run("tier for holdings walks the ladder", testTierForHoldings)
	t.Run("premium holding bypasses the ladder", testPremiumTier)
	t.Run("stable schedule has a single tier", testStableSchedule)
	t.Run("taker fee is monotonic across tiers", testTakerFeeMonotonic)
	t.Run("fee computations", testFeeComputations)
	t.Run("remove taker fee leaves room for the fee", testRemoveTakerFee)
	t.Run("tier out of range fails", testTierOutOfRange)
	t.Run("overflowing fee fails", testFeeOverflow)
}

func testDefaultTakerRates(t *testing.T) {
	s := fee.DefaultSchedule()
	require.NoError(t, s.Validate())
	assert.Equal(t, []uint64{1717986, 1675037, 1632087, 1546188, 1460288, 1374389, 1288490}, s.TakerRates)
	for _, r := range s.MakerRates {
		assert.Zero(t, r)
	}
	tier, ok := s.PremiumTier()
	assert.True(t, ok)
	assert.Equal(t, uint8(6), tier)
}

func testTierForHoldings(t *testing.T) {
	s := fee.DefaultSchedule()
	cases := []struct {
		holding uint64
		tier    uint8
	}{
		{0, 0},
		{100*oneToken - 1, 0},
		{100 * oneToken, 1},
		{1_000 * oneToken, 2},
		{9_999 * oneToken, 2},
		{10_000 * oneToken, 3},
		{100_000 * oneToken, 4},
		{1_000_000 * oneToken, 5},
		{^uint64(0), 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.tier, s.TierForHoldings(c.holding, 0), "holding %d", c.holding)
	}
}

func testPremiumTier(t *testing.T) {
	s := fee.DefaultSchedule()
	assert.Equal(t, uint8(6), s.TierForHoldings(0, 1))
	assert.Equal(t, uint8(6), s.TierForHoldings(1_000*oneToken, 1))

	// no premium tier configured, the premium holding is ignored
	st := fee.StableSchedule()
	assert.Equal(t, uint8(0), st.TierForHoldings(0, 10))
}

func testStableSchedule(t *testing.T) {
	s := fee.StableSchedule()
	require.NoError(t, s.Validate())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, uint8(0), s.TierForHoldings(1_000*oneToken, 0))
	r, err := s.TakerRate(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(429496), r)
}

func testTakerFeeMonotonic(t *testing.T) {
	s := fee.DefaultSchedule()
	for _, qty := range []uint64{0, 1, 999, 90_000, 1_000_000, 1 << 40} {
		for i := 0; i+1 < s.Len(); i++ {
			a, err := s.TakerFee(qty, uint8(i))
			require.NoError(t, err)
			b, err := s.TakerFee(qty, uint8(i+1))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, a, b, "qty %d tier %d", qty, i)
		}
	}
}

func testFeeComputations(t *testing.T) {
	s := fee.DefaultSchedule()

	f, err := s.TakerFee(1_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(399), f)

	f, err = s.TakerFee(1_000_000, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(299), f)

	r, err := s.ReferralFee(1_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(79), r)

	rate, err := s.ReferralRate(0)
	require.NoError(t, err)
	assert.Equal(t, s.TakerRates[0]/5, rate)

	rebate, err := s.MakerRebate(1_000_000, 3)
	require.NoError(t, err)
	assert.Zero(t, rebate)

	tier, referred := fee.UnpackTier(fee.PackTier(4, true))
	assert.Equal(t, uint8(4), tier)
	assert.True(t, referred)
	tier, referred = fee.UnpackTier(fee.PackTier(2, false))
	assert.Equal(t, uint8(2), tier)
	assert.False(t, referred)
}

func testRemoveTakerFee(t *testing.T) {
	s := fee.DefaultSchedule()
	for _, budget := range []uint64{1, 100, 1_000_000, 123_456_789} {
		for tier := uint8(0); tier < uint8(s.Len()); tier++ {
			net, err := s.RemoveTakerFee(budget, tier)
			require.NoError(t, err)
			f, err := s.TakerFee(net, tier)
			require.NoError(t, err)
			assert.LessOrEqual(t, net+f, budget)
		}
	}
	net, err := s.RemoveTakerFee(1_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(999_600), net)
}

func testTierOutOfRange(t *testing.T) {
	s := fee.StableSchedule()
	_, err := s.TakerFee(10, 1)
	assert.ErrorIs(t, err, fee.ErrTierOutOfRange)
	_, err = s.MakerRebate(10, 7)
	assert.ErrorIs(t, err, fee.ErrTierOutOfRange)
	_, err = s.ReferralFee(10, 2)
	assert.ErrorIs(t, err, fee.ErrTierOutOfRange)
}

func testFeeOverflow(t *testing.T) {
	s := fee.Schedule{
		Thresholds: []uint64{0},
		TakerRates: []uint64{num.FP32One},
		MakerRates: []uint64{0},
	}
	f, err := s.TakerFee(^uint64(0), 0)
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), f)

	s.TakerRates[0] = num.FP32One + 1
	_, err = s.TakerFee(^uint64(0), 0)
	assert.ErrorIs(t, err, num.ErrOverflow)
}

func TestScheduleValidation(t *testing.T) {
	valid := func() fee.Schedule {
		return fee.Schedule{
			Thresholds: []uint64{0, 10, 20},
			TakerRates: []uint64{300, 200, 100},
			MakerRates: []uint64{10, 10, 10},
		}
	}

	cases := []struct {
		name   string
		mutate func(*fee.Schedule)
		err    error
	}{
		{"valid", func(*fee.Schedule) {}, nil},
		{"no tiers", func(s *fee.Schedule) { *s = fee.Schedule{} }, fee.ErrNoTiers},
		{"too many tiers", func(s *fee.Schedule) {
			s.Thresholds = []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8}
			s.TakerRates = make([]uint64, 9)
			s.MakerRates = make([]uint64, 9)
		}, fee.ErrTooManyTiers},
		{"length mismatch", func(s *fee.Schedule) { s.MakerRates = s.MakerRates[:2] }, fee.ErrRatesLengthMismatch},
		{"premium without its rate", func(s *fee.Schedule) { s.Premium = true }, fee.ErrRatesLengthMismatch},
		{"base threshold not zero", func(s *fee.Schedule) { s.Thresholds[0] = 1 }, fee.ErrBaseThresholdNotZero},
		{"thresholds equal", func(s *fee.Schedule) { s.Thresholds[2] = 10 }, fee.ErrThresholdsNotAscending},
		{"thresholds descending", func(s *fee.Schedule) { s.Thresholds[2] = 5 }, fee.ErrThresholdsNotAscending},
		{"taker rate increasing", func(s *fee.Schedule) { s.TakerRates[2] = 250 }, fee.ErrTakerRatesIncreasing},
		{"rate above one", func(s *fee.Schedule) { s.TakerRates[0] = num.FP32One + 1 }, fee.ErrRateAboveOne},
		{"rebate exceeds fee", func(s *fee.Schedule) { s.MakerRates[1] = 90 }, fee.ErrRebateExceedsTakerFee},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			s := valid()
			c.mutate(&s)
			err := s.Validate()
			if c.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestScheduleConfig(t *testing.T) {
	t.Run("default config round trips to the default schedule", func(t *testing.T) {
		s, err := fee.NewDefaultConfig().Default.Schedule()
		require.NoError(t, err)
		assert.Equal(t, fee.DefaultSchedule(), s)
	})

	t.Run("decimal rates are converted to fixed point", func(t *testing.T) {
		s, err := fee.ScheduleConfig{
			Thresholds: []uint64{0},
			TakerRates: []string{"0.0004"},
			MakerRates: []string{"0"},
		}.Schedule()
		require.NoError(t, err)
		assert.Equal(t, uint64(1717986), s.TakerRates[0])
	})

	t.Run("invalid rates are all reported", func(t *testing.T) {
		_, err := fee.ScheduleConfig{
			Thresholds: []uint64{0},
			TakerRates: []string{"abc"},
			MakerRates: []string{"-1"},
		}.Schedule()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "taker rate 0")
		assert.Contains(t, err.Error(), "maker rate 0")
	})
}

func TestEngine(t *testing.T) {
	log := logging.NewTestLogger()
	e := fee.New(log, fee.NewDefaultConfig())
	s := e.DefaultSchedule()

	assert.Equal(t, uint8(0), e.Tier(s, nil))
	assert.Equal(t, uint8(2), e.Tier(s, &fee.Holding{Amount: 1_000 * oneToken}))
	assert.Equal(t, uint8(6), e.Tier(s, &fee.Holding{Premium: 1}))

	cfg := fee.NewDefaultConfig()
	cfg.Default.TakerRates = []string{"nope"}
	e.ReloadConf(cfg)
	assert.Equal(t, fee.DefaultSchedule(), e.DefaultSchedule())
}
