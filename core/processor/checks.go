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
	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/core/matching"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/token"
	"code.vegaprotocol.io/dex/core/types"
)

func checkAccountKey(info *accounts.AccountInfo, expected types.Pubkey, err error) error {
	if info.Key != expected {
		return fmt.Errorf("%w: %s", err, info.Key)
	}
	return nil
}

func checkSigner(info *accounts.AccountInfo) error {
	if !info.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingSigner, info.Key)
	}
	return nil
}

func (p *Processor) checkStateOwner(info *accounts.AccountInfo) error {
	if info.Owner != p.programID {
		return fmt.Errorf("%w: %s", ErrInvalidStateAccountOwner, info.Key)
	}
	return nil
}

// checkMarketSigner re-derives the signer capability of the market and checks it
// against the given account.
func (p *Processor) checkMarketSigner(info *accounts.AccountInfo, market types.Pubkey, m *state.Market) error {
	signer, err := types.MarketSignerAddress(market, m.SignerNonce, p.programID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMarketSigner, err)
	}
	return checkAccountKey(info, signer, ErrInvalidMarketSigner)
}

func signerSeeds(market types.Pubkey, m *state.Market) [][]byte {
	return [][]byte{market[:], {m.SignerNonce}}
}

func (p *Processor) loadMarket(info *accounts.AccountInfo) (*state.Market, error) {
	if err := p.checkStateOwner(info); err != nil {
		return nil, err
	}
	return state.LoadMarket(info.Data)
}

// loadUserAccount loads a user account and checks it belongs to the owner
// and the market.
func (p *Processor) loadUserAccount(info *accounts.AccountInfo, market, owner types.Pubkey) (*state.UserAccount, error) {
	if err := p.checkStateOwner(info); err != nil {
		return nil, err
	}
	u, err := state.LoadUserAccount(info.Data)
	if err != nil {
		return nil, err
	}
	if u.Header.Owner != owner {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUserAccountOwner, info.Key)
	}
	if u.Header.Market != market {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUserAccountMarket, info.Key)
	}
	return u, nil
}

func (p *Processor) loadBook(info *accounts.AccountInfo, m *state.Market) (*matching.Book, error) {
	if err := checkAccountKey(info, m.Orderbook, ErrInvalidOrderbookAccount); err != nil {
		return nil, err
	}
	if err := p.checkStateOwner(info); err != nil {
		return nil, err
	}
	b, err := matching.Load(info.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderbook, err)
	}
	return b, nil
}

func saveBook(info *accounts.AccountInfo, b *matching.Book) error {
	if err := info.CheckWritable(); err != nil {
		return err
	}
	info.Data = b.Marshal()
	return nil
}

func checkVaults(m *state.Market, base, quote *accounts.AccountInfo) error {
	if err := checkAccountKey(base, m.BaseVault, ErrInvalidBaseVaultAccount); err != nil {
		return err
	}
	return checkAccountKey(quote, m.QuoteVault, ErrInvalidQuoteVaultAccount)
}

// holding reads the discount proof of a user. The token account must belong
// to the owner and hold either the discount or the premium token.
func holding(info *accounts.AccountInfo, m *state.Market, owner types.Pubkey) (*fee.Holding, error) {
	if info == nil {
		return nil, nil
	}
	acc, err := token.Load(info)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDiscountAccount, err)
	}
	if acc.Owner != owner {
		return nil, fmt.Errorf("%w: not owned by %s", ErrInvalidDiscountAccount, owner)
	}
	switch {
	case !m.DiscountMint.IsZero() && acc.Mint == m.DiscountMint:
		return &fee.Holding{Amount: acc.Amount}, nil
	case !m.PremiumMint.IsZero() && acc.Mint == m.PremiumMint:
		return &fee.Holding{Premium: acc.Amount}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected mint %s", ErrInvalidDiscountAccount, acc.Mint)
	}
}

// checkTokenOwner checks a token account is owned by the given identity.
func checkTokenOwner(info *accounts.AccountInfo, owner types.Pubkey, err error) error {
	acc, lerr := token.Load(info)
	if lerr != nil {
		return fmt.Errorf("%w: %w", err, lerr)
	}
	if acc.Owner != owner {
		return fmt.Errorf("%w: %s is not owned by %s", err, info.Key, owner)
	}
	return nil
}
