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

package processor

import (
	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/core/metadata"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
)

// fillAmounts is a fill converted to external units with the fees charged
// to its taker. Placement and consumption compute them the same way so the
// vault always holds what the ledgers account for.
type fillAmounts struct {
	base     uint64
	quote    uint64
	takerFee uint64
	royalty  uint64
	referral uint64
}

func royalty(m *state.Market, quote uint64) (uint64, error) {
	if m.RoyaltiesBps == 0 {
		return 0, nil
	}
	return num.MulDivU64(quote, m.RoyaltiesBps, metadata.MaxBasisPoints)
}

func computeFill(m *state.Market, s fee.Schedule, f types.FillEvent) (fillAmounts, error) {
	var (
		a   fillAmounts
		err error
	)
	if a.base, err = num.MulU64(f.BaseSize, m.BaseCurrencyMultiplier); err != nil {
		return a, err
	}
	if a.quote, err = num.MulU64(f.QuoteSize, m.QuoteCurrencyMultiplier); err != nil {
		return a, err
	}
	tier, referred := f.TakerCallback.Tier()
	if a.takerFee, err = s.TakerFee(a.quote, tier); err != nil {
		return a, err
	}
	if a.royalty, err = royalty(m, a.quote); err != nil {
		return a, err
	}
	if referred {
		if a.referral, err = s.ReferralFee(a.quote, tier); err != nil {
			return a, err
		}
	}
	return a, nil
}

// takerTotals sums the fills of one incoming order.
type takerTotals struct {
	baseLots  uint64
	quoteLots uint64
	fillAmounts
}

func (t *takerTotals) add(f types.FillEvent, a fillAmounts) error {
	var err error
	add := func(dst *uint64, v uint64) {
		if err == nil {
			*dst, err = num.AddU64(*dst, v)
		}
	}
	add(&t.baseLots, f.BaseSize)
	add(&t.quoteLots, f.QuoteSize)
	add(&t.base, a.base)
	add(&t.quote, a.quote)
	add(&t.takerFee, a.takerFee)
	add(&t.royalty, a.royalty)
	add(&t.referral, a.referral)
	return err
}

// sumTakerFills totals the fills queued after the given index, they are
// the fills of the order just sent to the book.
func sumTakerFills(m *state.Market, s fee.Schedule, evts []types.Event) (takerTotals, error) {
	var t takerTotals
	for _, e := range evts {
		f, ok := e.(types.FillEvent)
		if !ok {
			continue
		}
		a, err := computeFill(m, s, f)
		if err != nil {
			return t, err
		}
		if err := t.add(f, a); err != nil {
			return t, err
		}
	}
	return t, nil
}

// removeFeesFromBudget shrinks a quote budget so that the worst case taker
// fee and royalty remain affordable.
func removeFeesFromBudget(m *state.Market, s fee.Schedule, tier uint8, qty uint64) (uint64, error) {
	q, err := s.RemoveTakerFee(qty, tier)
	if err != nil {
		return 0, err
	}
	if m.RoyaltiesBps == 0 {
		return q, nil
	}
	return num.MulDivU64(q, metadata.MaxBasisPoints, metadata.MaxBasisPoints+m.RoyaltiesBps)
}

// debit takes amount from free first and returns what the wallet must
// cover.
func debit(free *uint64, amount uint64) uint64 {
	if *free >= amount {
		*free -= amount
		return 0
	}
	shortfall := amount - *free
	*free = 0
	return shortfall
}

func addTo(dst *uint64, v uint64) error {
	r, err := num.AddU64(*dst, v)
	if err != nil {
		return err
	}
	*dst = r
	return nil
}

func subFrom(dst *uint64, v uint64) error {
	r, err := num.SubU64(*dst, v)
	if err != nil {
		return err
	}
	*dst = r
	return nil
}
