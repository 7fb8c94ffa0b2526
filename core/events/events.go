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

package events

import (
	"context"

	"code.vegaprotocol.io/dex/core/types"
)

type MarketCreated struct {
	*Base
	Market       types.Pubkey
	BaseMint     types.Pubkey
	QuoteMint    types.Pubkey
	Admin        types.Pubkey
	RoyaltiesBps uint64
}

func NewMarketCreated(ctx context.Context, market, baseMint, quoteMint, admin types.Pubkey, royaltiesBps uint64) *MarketCreated {
	return &MarketCreated{
		Base:         newBase(ctx, MarketCreatedEvent),
		Market:       market,
		BaseMint:     baseMint,
		QuoteMint:    quoteMint,
		Admin:        admin,
		RoyaltiesBps: royaltiesBps,
	}
}

func (e MarketCreated) MarketID() string { return e.Market.String() }

type UserAccountInitialized struct {
	*Base
	Market      types.Pubkey
	UserAccount types.Pubkey
	Owner       types.Pubkey
	Capacity    uint64
}

func NewUserAccountInitialized(ctx context.Context, market, user, owner types.Pubkey, capacity uint64) *UserAccountInitialized {
	return &UserAccountInitialized{
		Base:        newBase(ctx, UserAccountInitializedEvent),
		Market:      market,
		UserAccount: user,
		Owner:       owner,
		Capacity:    capacity,
	}
}

func (e UserAccountInitialized) MarketID() string { return e.Market.String() }

// OrderPlaced reports the outcome of a placement in external units.
type OrderPlaced struct {
	*Base
	Market        types.Pubkey
	UserAccount   types.Pubkey
	Side          types.Side
	OrderType     types.OrderType
	LimitPrice    uint64
	ClientOrderID types.ClientOrderID
	// PostedOrderID is nil when nothing rested on the book.
	PostedOrderID *types.OrderID
	MatchedBase   uint64
	MatchedQuote  uint64
	PostedBase    uint64
	TakerFee      uint64
	Royalty       uint64
	ReferralFee   uint64
}

func NewOrderPlaced(ctx context.Context, o OrderPlaced) *OrderPlaced {
	o.Base = newBase(ctx, OrderPlacedEvent)
	return &o
}

func (e OrderPlaced) MarketID() string { return e.Market.String() }

type OrderCancelled struct {
	*Base
	Market        types.Pubkey
	UserAccount   types.Pubkey
	OrderID       types.OrderID
	ReleasedBase  uint64
	ReleasedQuote uint64
}

func NewOrderCancelled(ctx context.Context, market, user types.Pubkey, id types.OrderID, base, quote uint64) *OrderCancelled {
	return &OrderCancelled{
		Base:          newBase(ctx, OrderCancelledEvent),
		Market:        market,
		UserAccount:   user,
		OrderID:       id,
		ReleasedBase:  base,
		ReleasedQuote: quote,
	}
}

func (e OrderCancelled) MarketID() string { return e.Market.String() }

type EventsConsumed struct {
	*Base
	Market   types.Pubkey
	Consumed uint64
	Fills    uint64
	Outs     uint64
	// Remaining is the queue length after the consumed events were popped.
	Remaining uint64
}

func NewEventsConsumed(ctx context.Context, market types.Pubkey, fills, outs, remaining uint64) *EventsConsumed {
	return &EventsConsumed{
		Base:      newBase(ctx, EventsConsumedEvent),
		Market:    market,
		Consumed:  fills + outs,
		Fills:     fills,
		Outs:      outs,
		Remaining: remaining,
	}
}

func (e EventsConsumed) MarketID() string { return e.Market.String() }

type Settled struct {
	*Base
	Market      types.Pubkey
	UserAccount types.Pubkey
	BaseAmount  uint64
	QuoteAmount uint64
}

func NewSettled(ctx context.Context, market, user types.Pubkey, base, quote uint64) *Settled {
	return &Settled{
		Base:        newBase(ctx, SettledEvent),
		Market:      market,
		UserAccount: user,
		BaseAmount:  base,
		QuoteAmount: quote,
	}
}

func (e Settled) MarketID() string { return e.Market.String() }

// FeesSwept reports the fees sent to the admin and the royalties paid out
// to creators by one sweep.
type FeesSwept struct {
	*Base
	Market    types.Pubkey
	Fees      uint64
	Royalties uint64
	Creators  []types.Pubkey
}

func NewFeesSwept(ctx context.Context, market types.Pubkey, fees, royalties uint64, creators []types.Pubkey) *FeesSwept {
	return &FeesSwept{
		Base:      newBase(ctx, FeesSweptEvent),
		Market:    market,
		Fees:      fees,
		Royalties: royalties,
		Creators:  creators,
	}
}

func (e FeesSwept) MarketID() string { return e.Market.String() }

type AccountClosed struct {
	*Base
	Market      types.Pubkey
	UserAccount types.Pubkey
	Owner       types.Pubkey
}

func NewAccountClosed(ctx context.Context, market, user, owner types.Pubkey) *AccountClosed {
	return &AccountClosed{
		Base:        newBase(ctx, AccountClosedEvent),
		Market:      market,
		UserAccount: user,
		Owner:       owner,
	}
}

func (e AccountClosed) MarketID() string { return e.Market.String() }

type MarketClosed struct {
	*Base
	Market types.Pubkey
}

func NewMarketClosed(ctx context.Context, market types.Pubkey) *MarketClosed {
	return &MarketClosed{
		Base:   newBase(ctx, MarketClosedEvent),
		Market: market,
	}
}

func (e MarketClosed) MarketID() string { return e.Market.String() }

type RoyaltiesUpdated struct {
	*Base
	Market       types.Pubkey
	RoyaltiesBps uint64
}

func NewRoyaltiesUpdated(ctx context.Context, market types.Pubkey, bps uint64) *RoyaltiesUpdated {
	return &RoyaltiesUpdated{
		Base:         newBase(ctx, RoyaltiesUpdatedEvent),
		Market:       market,
		RoyaltiesBps: bps,
	}
}

func (e RoyaltiesUpdated) MarketID() string { return e.Market.String() }

// Swapped reports an immediate swap, amounts are in external units.
type Swapped struct {
	*Base
	Market      types.Pubkey
	Owner       types.Pubkey
	Side        types.Side
	BaseAmount  uint64
	QuoteAmount uint64
	TakerFee    uint64
	Royalty     uint64
	ReferralFee uint64
}

func NewSwapped(ctx context.Context, s Swapped) *Swapped {
	s.Base = newBase(ctx, SwappedEvent)
	return &s
}

func (e Swapped) MarketID() string { return e.Market.String() }
