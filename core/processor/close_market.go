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
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/token"
	"code.vegaprotocol.io/dex/logging"
)

// closeMarket closes an empty market: the book and both vaults are closed
// and the market ledger moves to its terminal tag.
func (p *Processor) closeMarket(c *call) error {
	signer, err := c.account(5)
	if err != nil {
		return err
	}
	marketAcc, baseVault, quoteVault, orderbookAcc, admin := c.accs[0], c.accs[1], c.accs[2], c.accs[3], c.accs[4]

	m, err := p.loadMarket(marketAcc)
	if err != nil {
		return err
	}
	if err := checkAccountKey(admin, m.Admin, ErrInvalidMarketAdmin); err != nil {
		return err
	}
	if err := checkSigner(admin); err != nil {
		return err
	}
	if err := p.checkMarketSigner(signer, marketAcc.Key, m); err != nil {
		return err
	}
	if err := checkVaults(m, baseVault, quoteVault); err != nil {
		return err
	}
	book, err := p.loadBook(orderbookAcc, m)
	if err != nil {
		return err
	}

	base, err := token.Load(baseVault)
	if err != nil {
		return err
	}
	quote, err := token.Load(quoteVault)
	if err != nil {
		return err
	}
	if base.Amount != 0 || quote.Amount != 0 {
		return fmt.Errorf("%w: vaults hold %d base and %d quote", ErrMarketStillActive, base.Amount, quote.Amount)
	}
	if m.AccumulatedFees != 0 || m.AccumulatedRoyalties != 0 {
		return fmt.Errorf("%w: %d fees and %d royalties not swept", ErrMarketStillActive, m.AccumulatedFees, m.AccumulatedRoyalties)
	}
	if err := book.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrOrderbook, err)
	}
	if err := saveBook(orderbookAcc, book); err != nil {
		return err
	}

	seeds := signerSeeds(marketAcc.Key, m)
	if err := token.CloseAccountSigned(baseVault, seeds, p.programID); err != nil {
		return err
	}
	if err := token.CloseAccountSigned(quoteVault, seeds, p.programID); err != nil {
		return err
	}
	m.Tag = state.AccountTagClosed
	m.Commit()

	p.log.Info("market closed", logging.Market(marketAcc.Key))
	c.emit(events.NewMarketClosed(c.ctx, marketAcc.Key))
	return nil
}
