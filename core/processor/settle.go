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
	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/token"
	"code.vegaprotocol.io/dex/logging"
)

// settle moves every free balance of a user account to the destination
// token accounts, under the market signer capability.
func (p *Processor) settle(c *call) error {
	destQuote, err := c.account(7)
	if err != nil {
		return err
	}
	marketAcc, baseVault, quoteVault, signer := c.accs[0], c.accs[1], c.accs[2], c.accs[3]
	userAcc, owner, destBase := c.accs[4], c.accs[5], c.accs[6]
	if err := checkSigner(owner); err != nil {
		return err
	}

	m, err := p.loadMarket(marketAcc)
	if err != nil {
		return err
	}
	if err := p.checkMarketSigner(signer, marketAcc.Key, m); err != nil {
		return err
	}
	if err := checkVaults(m, baseVault, quoteVault); err != nil {
		return err
	}
	u, err := p.loadUserAccount(userAcc, marketAcc.Key, owner.Key)
	if err != nil {
		return err
	}

	seeds := signerSeeds(marketAcc.Key, m)
	base, quote := u.Header.BaseTokenFree, u.Header.QuoteTokenFree
	if quote > 0 {
		if err := token.TransferSigned(quoteVault, destQuote, seeds, p.programID, quote); err != nil {
			return err
		}
	}
	if base > 0 {
		if err := token.TransferSigned(baseVault, destBase, seeds, p.programID, base); err != nil {
			return err
		}
	}
	u.Header.BaseTokenFree = 0
	u.Header.QuoteTokenFree = 0
	u.Commit()

	p.log.Debug("user account settled",
		logging.Market(marketAcc.Key),
		logging.UserAccount(userAcc.Key),
		logging.Uint64("base", base),
		logging.Uint64("quote", quote),
	)
	c.emit(events.NewSettled(c.ctx, marketAcc.Key, userAcc.Key, base, quote))
	return nil
}
