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
	"code.vegaprotocol.io/dex/core/metadata"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/token"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/logging"
)

// checkVault returns the mint of a vault after checking that only the
// market signer can move its funds.
func checkVault(info *accounts.AccountInfo, signer types.Pubkey) (types.Pubkey, error) {
	acc, err := token.Load(info)
	if err != nil {
		return types.ZeroPubkey, fmt.Errorf("%w: %w", ErrInvalidVaultAccount, err)
	}
	if acc.Owner != signer || acc.Delegate != nil || acc.CloseAuthority != nil {
		return types.ZeroPubkey, fmt.Errorf("%w: %s", ErrInvalidVaultAccount, info.Key)
	}
	return acc.Mint, nil
}

func (p *Processor) createMarket(c *call, params *instruction.CreateMarketParams) error {
	metadataAcc, err := c.account(5)
	if err != nil {
		return err
	}
	marketAcc, orderbookAcc, baseVault, quoteVault, admin := c.accs[0], c.accs[1], c.accs[2], c.accs[3], c.accs[4]

	if params.BaseCurrencyMultiplier == 0 || params.QuoteCurrencyMultiplier == 0 || params.TickSize == 0 {
		return ErrInvalidMarketParams
	}
	if !marketAcc.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrMarketAlreadyInitialized, marketAcc.Key)
	}
	if !orderbookAcc.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInitialized, orderbookAcc.Key)
	}

	signer, err := types.MarketSignerAddress(marketAcc.Key, params.SignerNonce, p.programID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMarketSigner, err)
	}
	baseMint, err := checkVault(baseVault, signer)
	if err != nil {
		return err
	}
	quoteMint, err := checkVault(quoteVault, signer)
	if err != nil {
		return err
	}
	if err := metadata.CheckAccount(metadataAcc, baseMint); err != nil {
		return err
	}
	var royaltiesBps uint64
	md, err := metadata.Load(metadataAcc)
	if err != nil {
		return err
	}
	if md != nil {
		if err := md.Validate(); err != nil {
			return err
		}
		royaltiesBps = uint64(md.SellerFeeBasisPoints)
	}

	schedule := params.FeeSchedule
	if schedule.Len() == 0 {
		schedule = p.fee.DefaultSchedule()
	} else if err := schedule.Validate(); err != nil {
		return err
	}

	book, err := matching.New(matching.Params{
		TickSize:         params.TickSize,
		MinBaseOrderSize: params.MinBaseOrderSize / params.BaseCurrencyMultiplier,
		EventCapacity:    params.EventCapacity,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderbook, err)
	}
	if err := orderbookAcc.Allocate(0, p.programID); err != nil {
		return err
	}
	if err := saveBook(orderbookAcc, book); err != nil {
		return err
	}

	if err := marketAcc.Allocate(state.MarketStateLen, p.programID); err != nil {
		return err
	}
	m, err := state.LoadMarketUnchecked(marketAcc.Data)
	if err != nil {
		return err
	}
	m.MarketState = state.MarketState{
		Tag:                     state.AccountTagMarket,
		SignerNonce:             params.SignerNonce,
		BaseMint:                baseMint,
		QuoteMint:               quoteMint,
		BaseVault:               baseVault.Key,
		QuoteVault:              quoteVault.Key,
		Orderbook:               orderbookAcc.Key,
		Admin:                   admin.Key,
		DiscountMint:            params.DiscountMint,
		PremiumMint:             params.PremiumMint,
		CreationTimestamp:       p.timeService.GetTimeNow().Unix(),
		MinBaseOrderSize:        params.MinBaseOrderSize,
		RoyaltiesBps:            royaltiesBps,
		BaseCurrencyMultiplier:  params.BaseCurrencyMultiplier,
		QuoteCurrencyMultiplier: params.QuoteCurrencyMultiplier,
		FeeSchedule:             schedule.Clone(),
	}
	m.Commit()

	p.log.Info("market created",
		logging.Market(marketAcc.Key),
		logging.Stringer("base-mint", baseMint),
		logging.Stringer("quote-mint", quoteMint),
		logging.Uint64("royalties-bps", royaltiesBps),
		logging.Int("fee-tiers", schedule.Len()),
	)
	c.emit(events.NewMarketCreated(c.ctx, marketAcc.Key, baseMint, quoteMint, admin.Key, royaltiesBps))
	return nil
}
