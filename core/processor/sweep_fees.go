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
	"code.vegaprotocol.io/dex/core/metadata"
	"code.vegaprotocol.io/dex/core/token"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
	"code.vegaprotocol.io/dex/logging"
	"code.vegaprotocol.io/dex/metrics"
)

// sweepFees pays the accumulated royalties to the verified creators of the
// base token, pro rata to their share, then the accumulated trading fees to
// the admin. Creator token accounts are expected in the order of the
// verified creators.
func (p *Processor) sweepFees(c *call) error {
	metadataAcc, err := c.account(5)
	if err != nil {
		return err
	}
	marketAcc, signer, quoteVault, dest, admin := c.accs[0], c.accs[1], c.accs[2], c.accs[3], c.accs[4]
	creatorAccs := c.accs[6:]

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
	if err := checkAccountKey(quoteVault, m.QuoteVault, ErrInvalidQuoteVaultAccount); err != nil {
		return err
	}
	if err := checkTokenOwner(dest, m.Admin, ErrInvalidDestinationAccount); err != nil {
		return err
	}
	if err := metadata.CheckAccount(metadataAcc, m.BaseMint); err != nil {
		return err
	}

	seeds := signerSeeds(marketAcc.Key, m)
	noop := true
	var (
		royalties uint64
		paid      []types.Pubkey
	)
	md, err := metadata.Load(metadataAcc)
	if err != nil {
		return err
	}
	if md != nil && m.AccumulatedRoyalties != 0 {
		noop = false
		if err := metadata.VerifyShares(md.Creators); err != nil {
			return err
		}
		total := m.AccumulatedRoyalties
		for i, creator := range md.VerifiedCreators() {
			if i >= len(creatorAccs) {
				return fmt.Errorf("%w: missing account for creator %s", ErrInvalidCreatorAccount, creator.Address)
			}
			dst := creatorAccs[i]
			if err := checkTokenOwner(dst, creator.Address, ErrInvalidCreatorAccount); err != nil {
				return err
			}
			amount, err := num.MulDivU64(total, uint64(creator.Share), 100)
			if err != nil {
				return err
			}
			if err := subFrom(&m.AccumulatedRoyalties, amount); err != nil {
				return err
			}
			if amount == 0 {
				continue
			}
			if err := token.TransferSigned(quoteVault, dst, seeds, p.programID, amount); err != nil {
				return err
			}
			royalties += amount
			paid = append(paid, creator.Address)
		}
	}

	fees := m.AccumulatedFees
	if fees != 0 {
		noop = false
		if err := token.TransferSigned(quoteVault, dest, seeds, p.programID, fees); err != nil {
			return err
		}
		m.AccumulatedFees = 0
	}
	if noop {
		return ErrNoOp
	}
	m.Commit()

	p.log.Info("fees swept",
		logging.Market(marketAcc.Key),
		logging.Uint64("fees", fees),
		logging.Uint64("royalties", royalties),
	)
	metrics.AccumulatedFeesSet(0, marketAcc.Key.String())
	c.emit(events.NewFeesSwept(c.ctx, marketAcc.Key, fees, royalties, paid))
	return nil
}
