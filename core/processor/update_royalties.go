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
	"code.vegaprotocol.io/dex/core/metadata"
	"code.vegaprotocol.io/dex/logging"
)

// updateRoyalties reads the seller fee of the base token metadata again.
// Queued fills were charged at the previous rate, so the queue must be
// drained first.
func (p *Processor) updateRoyalties(c *call) error {
	metadataAcc, err := c.account(2)
	if err != nil {
		return err
	}
	marketAcc, orderbookAcc := c.accs[0], c.accs[1]

	m, err := p.loadMarket(marketAcc)
	if err != nil {
		return err
	}
	if err := metadata.CheckAccount(metadataAcc, m.BaseMint); err != nil {
		return err
	}
	book, err := p.loadBook(orderbookAcc, m)
	if err != nil {
		return err
	}
	if book.EventQueueLen() != 0 {
		return ErrEventQueueNotEmpty
	}
	md, err := metadata.Load(metadataAcc)
	if err != nil {
		return err
	}
	if md == nil {
		return ErrMissingMetadata
	}
	if err := md.Validate(); err != nil {
		return err
	}

	old := m.RoyaltiesBps
	m.RoyaltiesBps = uint64(md.SellerFeeBasisPoints)
	m.Commit()

	p.log.Info("royalties updated",
		logging.Market(marketAcc.Key),
		logging.Uint64("old-bps", old),
		logging.Uint64("new-bps", m.RoyaltiesBps),
	)
	c.emit(events.NewRoyaltiesUpdated(c.ctx, marketAcc.Key, m.RoyaltiesBps))
	return nil
}
