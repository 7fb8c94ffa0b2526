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
	"errors"
	"fmt"
	"sort"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
	"code.vegaprotocol.io/dex/logging"
	"code.vegaprotocol.io/dex/metrics"
)

// crank applies queued events to the ledgers of one market. User accounts
// are resolved by binary search, the caller must pass them sorted and
// deduplicated.
type crank struct {
	p      *Processor
	market types.Pubkey
	m      *state.Market
	users  []*accounts.AccountInfo
	loaded map[types.Pubkey]*state.UserAccount
	fills  uint64
	outs   uint64
}

func (k *crank) userAccount(key types.Pubkey) (*state.UserAccount, error) {
	if u, ok := k.loaded[key]; ok {
		return u, nil
	}
	i := sort.Search(len(k.users), func(i int) bool {
		return k.users[i].Key.Compare(key) >= 0
	})
	if i == len(k.users) || k.users[i].Key != key {
		return nil, fmt.Errorf("%w: %s", ErrMissingUserAccount, key)
	}
	info := k.users[i]
	if err := info.CheckWritable(); err != nil {
		return nil, err
	}
	if err := k.p.checkStateOwner(info); err != nil {
		return nil, err
	}
	u, err := state.LoadUserAccount(info.Data)
	if err != nil {
		return nil, err
	}
	if u.Header.Market != k.market {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUserAccountMarket, key)
	}
	k.loaded[key] = u
	return u, nil
}

// checkpoint holds the ledger values an event may change. Order slots are
// only touched by the last step of an event, after every check passed.
type checkpoint struct {
	market  state.MarketState
	headers map[types.Pubkey]state.UserAccountHeader
}

func (k *crank) checkpoint() checkpoint {
	cp := checkpoint{
		market:  k.m.MarketState,
		headers: make(map[types.Pubkey]state.UserAccountHeader, len(k.loaded)),
	}
	for key, u := range k.loaded {
		cp.headers[key] = u.Header
	}
	return cp
}

// restore drops what a failed event changed, including the accounts it
// loaded so they are not committed.
func (k *crank) restore(cp checkpoint) {
	k.m.MarketState = cp.market
	for key, u := range k.loaded {
		h, ok := cp.headers[key]
		if !ok {
			delete(k.loaded, key)
			continue
		}
		u.Header = h
	}
}

func (k *crank) apply(e types.Event) error {
	switch e := e.(type) {
	case types.FillEvent:
		return k.applyFill(e)
	case types.OutEvent:
		return k.applyOut(e)
	default:
		return fmt.Errorf("unknown event kind %T", e)
	}
}

// applyFill settles the maker side of a fill. The taker side was settled
// when its order was placed: for a self trade the fees charged there are
// refunded so the account pays no net fee.
func (k *crank) applyFill(f types.FillEvent) error {
	u, err := k.userAccount(f.MakerCallback.UserAccount)
	if err != nil {
		return err
	}
	a, err := computeFill(k.m, k.m.FeeSchedule, f)
	if err != nil {
		return err
	}
	hdr := &u.Header
	var ops []func() error

	if f.MakerCallback.UserAccount == f.TakerCallback.UserAccount {
		refund, err := num.SubU64(a.takerFee, a.referral)
		if err == nil {
			refund, err = num.AddU64(refund, a.royalty)
		}
		if err != nil {
			return err
		}
		ops = append(ops,
			func() error { return addTo(&hdr.QuoteTokenFree, refund) },
			func() error { return addTo(&hdr.AccumulatedRebates, refund) },
			func() error { return addTo(&hdr.AccumulatedTakerBaseVolume, a.base) },
			func() error { return addTo(&hdr.AccumulatedTakerQuoteVolume, a.quote) },
		)
	} else {
		makerTier, _ := f.MakerCallback.Tier()
		rebate, err := k.m.FeeSchedule.MakerRebate(a.quote, makerTier)
		if err != nil {
			return err
		}
		fees, err := num.SubU64(a.takerFee, rebate)
		if err == nil {
			fees, err = num.SubU64(fees, a.referral)
		}
		if err != nil {
			return err
		}
		ops = append(ops,
			func() error { return addTo(&k.m.AccumulatedFees, fees) },
			func() error { return addTo(&k.m.AccumulatedRoyalties, a.royalty) },
			func() error { return addTo(&k.m.BaseVolume, a.base) },
			func() error { return addTo(&k.m.QuoteVolume, a.quote) },
			func() error { return addTo(&hdr.QuoteTokenFree, rebate) },
			func() error { return addTo(&hdr.AccumulatedRebates, rebate) },
		)
	}

	switch f.TakerSide {
	case types.SideBid:
		// the maker sold base
		ops = append(ops,
			func() error { return subFrom(&hdr.BaseTokenLocked, a.base) },
			func() error { return addTo(&hdr.QuoteTokenFree, a.quote) },
		)
	case types.SideAsk:
		// the maker bought base
		ops = append(ops,
			func() error { return subFrom(&hdr.QuoteTokenLocked, a.quote) },
			func() error { return addTo(&hdr.BaseTokenFree, a.base) },
		)
	}
	ops = append(ops,
		func() error { return addTo(&hdr.AccumulatedMakerBaseVolume, a.base) },
		func() error { return addTo(&hdr.AccumulatedMakerQuoteVolume, a.quote) },
	)
	for _, op := range ops {
		if err := op(); err != nil {
			return err
		}
	}
	k.fills++
	return nil
}

// applyOut releases the quantity of an order leaving the book.
func (k *crank) applyOut(o types.OutEvent) error {
	if o.BaseSize == 0 && !o.Delete {
		k.outs++
		return nil
	}
	u, err := k.userAccount(o.Callback.UserAccount)
	if err != nil {
		return err
	}
	hdr := &u.Header
	if o.BaseSize != 0 {
		switch o.Side {
		case types.SideBid:
			lots, err := num.Mul32(o.BaseSize, o.OrderID.Price())
			if err != nil {
				return err
			}
			quote, err := num.MulU64(lots, k.m.QuoteCurrencyMultiplier)
			if err != nil {
				return err
			}
			if err := subFrom(&hdr.QuoteTokenLocked, quote); err != nil {
				return err
			}
			if err := addTo(&hdr.QuoteTokenFree, quote); err != nil {
				return err
			}
		case types.SideAsk:
			base, err := num.MulU64(o.BaseSize, k.m.BaseCurrencyMultiplier)
			if err != nil {
				return err
			}
			if err := subFrom(&hdr.BaseTokenLocked, base); err != nil {
				return err
			}
			if err := addTo(&hdr.BaseTokenFree, base); err != nil {
				return err
			}
		}
	}
	if o.Delete {
		i, err := u.FindOrderIndex(o.OrderID)
		if err != nil {
			// the slot is already gone, nothing references the order anymore
			k.p.log.Warn("order leaving the book has no slot",
				logging.UserAccount(o.Callback.UserAccount),
				logging.OrderID(o.OrderID),
			)
		} else if err := u.RemoveOrder(i); err != nil {
			return err
		}
	}
	k.outs++
	return nil
}

func (p *Processor) consumeEvents(c *call, params *instruction.ConsumeEventsParams) error {
	orderbookAcc, err := c.account(1)
	if err != nil {
		return err
	}
	marketAcc := c.accs[0]
	m, err := p.loadMarket(marketAcc)
	if err != nil {
		return err
	}
	book, err := p.loadBook(orderbookAcc, m)
	if err != nil {
		return err
	}

	limit := book.EventQueueLen()
	if params.MaxIterations < uint64(limit) {
		limit = int(params.MaxIterations)
	}
	k := &crank{
		p:      p,
		market: marketAcc.Key,
		m:      m,
		users:  c.accs[2:],
		loaded: map[types.Pubkey]*state.UserAccount{},
	}

	consumed := 0
	for _, e := range book.PeekEvents(limit) {
		cp := k.checkpoint()
		if err := k.apply(e); err != nil {
			k.restore(cp)
			if errors.Is(err, ErrMissingUserAccount) {
				p.log.Debug("stopping the crank early", logging.Int("consumed", consumed), logging.Error(err))
			} else {
				p.log.Warn("event could not be applied, stopping the crank",
					logging.Market(marketAcc.Key),
					logging.Int("consumed", consumed),
					logging.Error(err),
				)
			}
			break
		}
		consumed++
	}

	if consumed == 0 && params.NoOpErr {
		return ErrNoOp
	}
	if err := book.PopEvents(consumed); err != nil {
		return fmt.Errorf("%w: %w", ErrOrderbook, err)
	}

	for _, u := range k.loaded {
		u.Commit()
	}
	m.Commit()
	if err := saveBook(orderbookAcc, book); err != nil {
		return err
	}

	marketID := marketAcc.Key.String()
	metrics.FillCounterAdd(int(k.fills), marketID)
	metrics.EventsConsumedAdd(consumed, marketID)
	metrics.EventQueueGaugeSet(book.EventQueueLen(), marketID)
	metrics.AccumulatedFeesSet(m.AccumulatedFees, marketID)

	c.emit(events.NewEventsConsumed(c.ctx, marketAcc.Key, k.fills, k.outs, uint64(book.EventQueueLen())))
	return nil
}
