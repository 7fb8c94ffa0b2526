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
	"fmt"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/matching"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/token"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
	"code.vegaprotocol.io/dex/logging"
	"code.vegaprotocol.io/dex/metrics"
)

type newOrderAccounts struct {
	market, orderbook, baseVault, quoteVault *accounts.AccountInfo
	user, userToken, owner                   *accounts.AccountInfo
	discount, referral                       *accounts.AccountInfo
}

func parseNewOrderAccounts(c *call, hasDiscount bool) (newOrderAccounts, error) {
	var a newOrderAccounts
	if len(c.accs) < 7 {
		_, err := c.account(6)
		return a, err
	}
	a.market, a.orderbook, a.baseVault, a.quoteVault = c.accs[0], c.accs[1], c.accs[2], c.accs[3]
	a.user, a.userToken, a.owner = c.accs[4], c.accs[5], c.accs[6]
	next := 7
	if hasDiscount {
		d, err := c.account(next)
		if err != nil {
			return a, err
		}
		a.discount = d
		next++
	}
	if next < len(c.accs) {
		a.referral = c.accs[next]
	}
	return a, checkSigner(a.owner)
}

func (p *Processor) newOrder(c *call, params *instruction.NewOrderParams) error {
	if !params.Side.IsValid() || !params.OrderType.IsValid() || !params.SelfTradeBehavior.IsValid() {
		return ErrInvalidOrderParams
	}
	a, err := parseNewOrderAccounts(c, params.HasDiscountTokenAccount)
	if err != nil {
		return err
	}
	m, err := p.loadMarket(a.market)
	if err != nil {
		return err
	}
	if err := checkVaults(m, a.baseVault, a.quoteVault); err != nil {
		return err
	}
	u, err := p.loadUserAccount(a.user, a.market.Key, a.owner.Key)
	if err != nil {
		return err
	}
	if params.MaxBaseQty < m.MinBaseOrderSize {
		return fmt.Errorf("%w: %d < %d", ErrOrderTooSmall, params.MaxBaseQty, m.MinBaseOrderSize)
	}
	book, err := p.loadBook(a.orderbook, m)
	if err != nil {
		return err
	}

	h, err := holding(a.discount, m, a.owner.Key)
	if err != nil {
		return err
	}
	tier := p.fee.Tier(m.FeeSchedule, h)
	callback := types.NewCallbackInfo(a.user.Key, tier, a.referral != nil)
	postOnly, postAllowed := params.OrderType.PostFlags()

	maxQuote := params.MaxQuoteQty
	if params.Side == types.SideBid && !postOnly {
		if maxQuote, err = removeFeesFromBudget(m, m.FeeSchedule, tier, maxQuote); err != nil {
			return err
		}
	}
	maxBaseLots := params.MaxBaseQty / m.BaseCurrencyMultiplier
	maxQuoteLots := maxQuote / m.QuoteCurrencyMultiplier

	queued := book.EventQueueLen()
	summary, err := book.NewOrder(matching.NewOrderParams{
		Side:              params.Side,
		LimitPrice:        params.LimitPrice,
		MaxBaseQty:        maxBaseLots,
		MaxQuoteQty:       maxQuoteLots,
		MatchLimit:        params.MatchLimit,
		Callback:          callback,
		PostOnly:          postOnly,
		PostAllowed:       postAllowed,
		SelfTradeBehavior: params.SelfTradeBehavior,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderbook, err)
	}
	fills, err := sumTakerFills(m, m.FeeSchedule, book.PeekEvents(-1)[queued:])
	if err != nil {
		return err
	}

	if abortOrder(params.OrderType, params.Side, summary, fills, maxBaseLots, maxQuoteLots) {
		return fmt.Errorf("%w: %s", ErrTransactionAborted, params.OrderType)
	}

	postedBase, err := num.MulU64(summary.TotalBaseQtyPosted, m.BaseCurrencyMultiplier)
	if err != nil {
		return err
	}
	postedQuoteLots, err := num.Mul32(summary.TotalBaseQtyPosted, params.LimitPrice)
	if err != nil {
		return err
	}
	postedQuote, err := num.MulU64(postedQuoteLots, m.QuoteCurrencyMultiplier)
	if err != nil {
		return err
	}

	hdr := &u.Header
	var (
		owed  uint64
		vault *accounts.AccountInfo
	)
	switch params.Side {
	case types.SideBid:
		if owed, err = sumU64(fills.quote, fills.takerFee, fills.royalty, postedQuote); err != nil {
			return err
		}
		owed = debit(&hdr.QuoteTokenFree, owed)
		if err := addTo(&hdr.QuoteTokenLocked, postedQuote); err != nil {
			return err
		}
		if err := addTo(&hdr.BaseTokenFree, fills.base); err != nil {
			return err
		}
		vault = a.quoteVault
	case types.SideAsk:
		if owed, err = sumU64(fills.base, postedBase); err != nil {
			return err
		}
		owed = debit(&hdr.BaseTokenFree, owed)
		if err := addTo(&hdr.BaseTokenLocked, postedBase); err != nil {
			return err
		}
		proceeds, err := num.SubU64(fills.quote, fills.takerFee)
		if err == nil {
			proceeds, err = num.SubU64(proceeds, fills.royalty)
		}
		if err != nil {
			return err
		}
		if err := addTo(&hdr.QuoteTokenFree, proceeds); err != nil {
			return err
		}
		vault = a.baseVault
	}

	if owed > 0 {
		if err := token.Transfer(a.userToken, vault, a.owner, owed); err != nil {
			return err
		}
	}
	if a.referral != nil && fills.referral > 0 {
		if err := token.TransferSigned(a.quoteVault, a.referral, signerSeeds(a.market.Key, m), p.programID, fills.referral); err != nil {
			return err
		}
	}

	if summary.PostedOrderID != nil {
		if err := u.AddOrder(state.Order{ID: *summary.PostedOrderID, ClientID: params.ClientOrderID}); err != nil {
			return err
		}
	}
	if err := addTo(&hdr.AccumulatedTakerBaseVolume, fills.base); err != nil {
		return err
	}
	if err := addTo(&hdr.AccumulatedTakerQuoteVolume, fills.quote); err != nil {
		return err
	}

	u.Commit()
	if err := saveBook(a.orderbook, book); err != nil {
		return err
	}

	if p.log.IsDebug() {
		p.log.Debug("order placed",
			logging.Market(a.market.Key),
			logging.UserAccount(a.user.Key),
			logging.Stringer("side", params.Side),
			logging.Stringer("type", params.OrderType),
			logging.Uint64("matched-base", fills.base),
			logging.Uint64("matched-quote", fills.quote),
			logging.Uint64("posted-base", postedBase),
			logging.Uint8("tier", tier),
		)
	}
	marketID := a.market.Key.String()
	metrics.OrderCounterInc(marketID, params.Side.String(), params.OrderType.String())
	metrics.EventQueueGaugeSet(book.EventQueueLen(), marketID)

	c.emit(events.NewOrderPlaced(c.ctx, events.OrderPlaced{
		Market:        a.market.Key,
		UserAccount:   a.user.Key,
		Side:          params.Side,
		OrderType:     params.OrderType,
		LimitPrice:    params.LimitPrice,
		ClientOrderID: params.ClientOrderID,
		PostedOrderID: summary.PostedOrderID,
		MatchedBase:   fills.base,
		MatchedQuote:  fills.quote,
		PostedBase:    postedBase,
		TakerFee:      fills.takerFee,
		Royalty:       fills.royalty,
		ReferralFee:   fills.referral,
	}))
	return nil
}

// abortOrder applies the order type policy. A fill or kill ask must sell its
// whole base. A fill or kill bid must spend its whole quote budget, or buy
// its whole base when the base limit binds first.
func abortOrder(t types.OrderType, side types.Side, summary types.OrderSummary, fills takerTotals, maxBaseLots, maxQuoteLots uint64) bool {
	switch t {
	case types.OrderTypeImmediateOrCancel:
		return fills.baseLots == 0
	case types.OrderTypeFillOrKill:
		if fills.baseLots == 0 {
			return true
		}
		if side == types.SideAsk {
			return fills.baseLots < maxBaseLots
		}
		return fills.baseLots < maxBaseLots && fills.quoteLots < maxQuoteLots
	case types.OrderTypePostOnly:
		return summary.PostedOrderID == nil
	default:
		return false
	}
}

func sumU64(values ...uint64) (uint64, error) {
	var total uint64
	for _, v := range values {
		if err := addTo(&total, v); err != nil {
			return 0, err
		}
	}
	return total, nil
}
