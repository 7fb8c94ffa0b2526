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
	"math"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/matching"
	"code.vegaprotocol.io/dex/core/token"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
	"code.vegaprotocol.io/dex/logging"
	"code.vegaprotocol.io/dex/metrics"
)

// swap trades immediately against the book without a user account. Nothing
// is ever posted, the wallet pays in and is paid out in the same operation.
// For a bid, QuoteQty is the most spent and BaseQty the least received. For
// an ask, BaseQty is sold entirely and QuoteQty is the least received.
func (p *Processor) swap(c *call, params *instruction.SwapParams) error {
	if !params.Side.IsValid() || !params.SelfTradeBehavior.IsValid() {
		return ErrInvalidOrderParams
	}
	owner, err := c.account(7)
	if err != nil {
		return err
	}
	marketAcc, orderbookAcc, baseVault, quoteVault, signer := c.accs[0], c.accs[1], c.accs[2], c.accs[3], c.accs[4]
	userBase, userQuote := c.accs[5], c.accs[6]
	var discount *accounts.AccountInfo
	if params.HasDiscountTokenAccount {
		if discount, err = c.account(8); err != nil {
			return err
		}
	}
	if err := checkSigner(owner); err != nil {
		return err
	}

	m, err := p.loadMarket(marketAcc)
	if err != nil {
		return err
	}
	if err := checkVaults(m, baseVault, quoteVault); err != nil {
		return err
	}
	if err := p.checkMarketSigner(signer, marketAcc.Key, m); err != nil {
		return err
	}
	book, err := p.loadBook(orderbookAcc, m)
	if err != nil {
		return err
	}
	h, err := holding(discount, m, owner.Key)
	if err != nil {
		return err
	}
	tier := p.fee.Tier(m.FeeSchedule, h)

	order := matching.NewOrderParams{
		Side:              params.Side,
		MatchLimit:        params.MatchLimit,
		Callback:          types.NewCallbackInfo(types.ZeroPubkey, tier, false),
		SelfTradeBehavior: params.SelfTradeBehavior,
	}
	switch params.Side {
	case types.SideBid:
		budget, err := removeFeesFromBudget(m, m.FeeSchedule, tier, params.QuoteQty)
		if err != nil {
			return err
		}
		order.LimitPrice = math.MaxUint64
		order.MaxBaseQty = math.MaxUint64
		order.MaxQuoteQty = budget / m.QuoteCurrencyMultiplier
	case types.SideAsk:
		order.LimitPrice = 0
		order.MaxBaseQty = params.BaseQty / m.BaseCurrencyMultiplier
		order.MaxQuoteQty = math.MaxUint64
	}

	queued := book.EventQueueLen()
	if _, err := book.NewOrder(order); err != nil {
		return fmt.Errorf("%w: %w", ErrOrderbook, err)
	}
	fills, err := sumTakerFills(m, m.FeeSchedule, book.PeekEvents(-1)[queued:])
	if err != nil {
		return err
	}

	seeds := signerSeeds(marketAcc.Key, m)
	var baseAmount, quoteAmount uint64
	switch params.Side {
	case types.SideBid:
		if quoteAmount, err = sumU64(fills.quote, fills.takerFee, fills.royalty); err != nil {
			return err
		}
		baseAmount = fills.base
		if quoteAmount > params.QuoteQty || baseAmount < params.BaseQty {
			return fmt.Errorf("%w: swap would pay %d quote for %d base", ErrTransactionAborted, quoteAmount, baseAmount)
		}
		if err := token.Transfer(userQuote, quoteVault, owner, quoteAmount); err != nil {
			return err
		}
		if err := token.TransferSigned(baseVault, userBase, seeds, p.programID, baseAmount); err != nil {
			return err
		}
	case types.SideAsk:
		baseAmount = fills.base
		quoteAmount, err = num.SubU64(fills.quote, fills.takerFee)
		if err == nil {
			quoteAmount, err = num.SubU64(quoteAmount, fills.royalty)
		}
		if err != nil {
			return err
		}
		if baseAmount != params.BaseQty || quoteAmount < params.QuoteQty {
			return fmt.Errorf("%w: swap would sell %d base for %d quote", ErrTransactionAborted, baseAmount, quoteAmount)
		}
		if err := token.Transfer(userBase, baseVault, owner, baseAmount); err != nil {
			return err
		}
		if err := token.TransferSigned(quoteVault, userQuote, seeds, p.programID, quoteAmount); err != nil {
			return err
		}
	}

	if err := saveBook(orderbookAcc, book); err != nil {
		return err
	}

	if p.log.IsDebug() {
		p.log.Debug("swap executed",
			logging.Market(marketAcc.Key),
			logging.Stringer("side", params.Side),
			logging.Uint64("base", baseAmount),
			logging.Uint64("quote", quoteAmount),
		)
	}
	marketID := marketAcc.Key.String()
	metrics.OrderCounterInc(marketID, params.Side.String(), "swap")
	metrics.EventQueueGaugeSet(book.EventQueueLen(), marketID)

	c.emit(events.NewSwapped(c.ctx, events.Swapped{
		Market:      marketAcc.Key,
		Owner:       owner.Key,
		Side:        params.Side,
		BaseAmount:  baseAmount,
		QuoteAmount: quoteAmount,
		TakerFee:    fills.takerFee,
		Royalty:     fills.royalty,
	}))
	return nil
}
