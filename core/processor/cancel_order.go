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

	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
	"code.vegaprotocol.io/dex/logging"
)

func (p *Processor) cancelOrder(c *call, params *instruction.CancelOrderParams) error {
	owner, err := c.account(3)
	if err != nil {
		return err
	}
	if err := checkSigner(owner); err != nil {
		return err
	}
	marketAcc, orderbookAcc, userAcc := c.accs[0], c.accs[1], c.accs[2]

	m, err := p.loadMarket(marketAcc)
	if err != nil {
		return err
	}
	u, err := p.loadUserAccount(userAcc, marketAcc.Key, owner.Key)
	if err != nil {
		return err
	}
	book, err := p.loadBook(orderbookAcc, m)
	if err != nil {
		return err
	}

	var (
		id    types.OrderID
		index int
	)
	if params.IsClientID {
		if id, index, err = u.FindOrderIDByClientID(params.ClientOrderID); err != nil {
			return err
		}
	} else {
		index = int(params.OrderIndex)
		o, err := u.ReadOrder(index)
		if err != nil {
			return err
		}
		if o.ID != params.OrderID {
			return fmt.Errorf("%w: %s at index %d", ErrOrderIDMismatch, params.OrderID, index)
		}
		id = o.ID
	}

	summary, err := book.CancelOrder(id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderbook, err)
	}
	base, err := num.MulU64(summary.TotalBaseQty, m.BaseCurrencyMultiplier)
	if err != nil {
		return err
	}
	quote, err := num.MulU64(summary.TotalQuoteQty, m.QuoteCurrencyMultiplier)
	if err != nil {
		return err
	}

	hdr := &u.Header
	switch id.Side() {
	case types.SideBid:
		if err := subFrom(&hdr.QuoteTokenLocked, quote); err != nil {
			return err
		}
		if err := addTo(&hdr.QuoteTokenFree, quote); err != nil {
			return err
		}
	case types.SideAsk:
		if err := subFrom(&hdr.BaseTokenLocked, base); err != nil {
			return err
		}
		if err := addTo(&hdr.BaseTokenFree, base); err != nil {
			return err
		}
	}
	if err := u.RemoveOrder(index); err != nil {
		return err
	}

	u.Commit()
	if err := saveBook(orderbookAcc, book); err != nil {
		return err
	}

	if p.log.IsDebug() {
		p.log.Debug("order cancelled",
			logging.Market(marketAcc.Key),
			logging.UserAccount(userAcc.Key),
			logging.OrderID(id),
			logging.Uint64("base", base),
			logging.Uint64("quote", quote),
		)
	}
	c.emit(events.NewOrderCancelled(c.ctx, marketAcc.Key, userAcc.Key, id, base, quote))
	return nil
}
