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

package instruction

import (
	"code.vegaprotocol.io/dex/core/types"
)

var (
	ro = types.NewReadonlyAccountMeta
	rw = types.NewAccountMeta
)

// CreateMarketAccounts are the accounts of a CreateMarket instruction.
type CreateMarketAccounts struct {
	Market        types.Pubkey // 0: writable, uninitialized market account
	Orderbook     types.Pubkey // 1: writable, uninitialized orderbook account
	BaseVault     types.Pubkey // 2: base token account owned by the market signer
	QuoteVault    types.Pubkey // 3: quote token account owned by the market signer
	Admin         types.Pubkey // 4: market admin
	TokenMetadata types.Pubkey // 5: metadata account of the base mint, may be empty
}

func NewCreateMarket(programID types.Pubkey, a CreateMarketAccounts, p CreateMarketParams) Instruction {
	return newInstruction(programID, []types.AccountMeta{
		rw(a.Market, false),
		rw(a.Orderbook, false),
		ro(a.BaseVault, false),
		ro(a.QuoteVault, false),
		ro(a.Admin, false),
		ro(a.TokenMetadata, false),
	}, &p)
}

// NewOrderAccounts are the accounts of a NewOrder instruction.
type NewOrderAccounts struct {
	Market           types.Pubkey // 0: writable
	Orderbook        types.Pubkey // 1: writable
	BaseVault        types.Pubkey // 2: writable
	QuoteVault       types.Pubkey // 3: writable
	UserAccount      types.Pubkey // 4: writable
	UserTokenAccount types.Pubkey // 5: writable, source of funds (quote for bids, base for asks)
	UserOwner        types.Pubkey // 6: signer, owns the user account and the token account
	// DiscountTokenAccount is optional (7): discount or premium token account owned by UserOwner.
	DiscountTokenAccount *types.Pubkey
	// FeeReferralAccount is optional (7 or 8): writable quote token account of the referrer.
	FeeReferralAccount *types.Pubkey
}

func NewNewOrder(programID types.Pubkey, a NewOrderAccounts, p NewOrderParams) Instruction {
	metas := []types.AccountMeta{
		rw(a.Market, false),
		rw(a.Orderbook, false),
		rw(a.BaseVault, false),
		rw(a.QuoteVault, false),
		rw(a.UserAccount, false),
		rw(a.UserTokenAccount, false),
		rw(a.UserOwner, true),
	}
	p.HasDiscountTokenAccount = a.DiscountTokenAccount != nil
	if a.DiscountTokenAccount != nil {
		metas = append(metas, ro(*a.DiscountTokenAccount, false))
	}
	if a.FeeReferralAccount != nil {
		metas = append(metas, rw(*a.FeeReferralAccount, false))
	}
	return newInstruction(programID, metas, &p)
}

// CancelOrderAccounts are the accounts of a CancelOrder instruction.
type CancelOrderAccounts struct {
	Market      types.Pubkey // 0
	Orderbook   types.Pubkey // 1: writable
	UserAccount types.Pubkey // 2: writable
	UserOwner   types.Pubkey // 3: signer
}

func NewCancelOrder(programID types.Pubkey, a CancelOrderAccounts, p CancelOrderParams) Instruction {
	return newInstruction(programID, []types.AccountMeta{
		ro(a.Market, false),
		rw(a.Orderbook, false),
		rw(a.UserAccount, false),
		ro(a.UserOwner, true),
	}, &p)
}

// ConsumeEventsAccounts are the accounts of a ConsumeEvents instruction.
type ConsumeEventsAccounts struct {
	Market    types.Pubkey // 0: writable
	Orderbook types.Pubkey // 1: writable
	// UserAccounts (2..) are writable and must be sorted and deduplicated.
	UserAccounts []types.Pubkey
}

func NewConsumeEvents(programID types.Pubkey, a ConsumeEventsAccounts, p ConsumeEventsParams) Instruction {
	metas := []types.AccountMeta{
		rw(a.Market, false),
		rw(a.Orderbook, false),
	}
	for _, u := range a.UserAccounts {
		metas = append(metas, rw(u, false))
	}
	return newInstruction(programID, metas, &p)
}

// SettleAccounts are the accounts of a Settle instruction.
type SettleAccounts struct {
	Market                  types.Pubkey // 0
	BaseVault               types.Pubkey // 1: writable
	QuoteVault              types.Pubkey // 2: writable
	MarketSigner            types.Pubkey // 3
	UserAccount             types.Pubkey // 4: writable
	UserOwner               types.Pubkey // 5: signer
	DestinationBaseAccount  types.Pubkey // 6: writable
	DestinationQuoteAccount types.Pubkey // 7: writable
}

func NewSettle(programID types.Pubkey, a SettleAccounts) Instruction {
	return newInstruction(programID, []types.AccountMeta{
		ro(a.Market, false),
		rw(a.BaseVault, false),
		rw(a.QuoteVault, false),
		ro(a.MarketSigner, false),
		rw(a.UserAccount, false),
		ro(a.UserOwner, true),
		rw(a.DestinationBaseAccount, false),
		rw(a.DestinationQuoteAccount, false),
	}, &SettleParams{})
}

// InitializeAccountAccounts are the accounts of an InitializeAccount instruction.
type InitializeAccountAccounts struct {
	UserAccount types.Pubkey // 0: writable, derived from the market and the owner
	UserOwner   types.Pubkey // 1: signer
}

func NewInitializeAccount(programID types.Pubkey, a InitializeAccountAccounts, p InitializeAccountParams) Instruction {
	return newInstruction(programID, []types.AccountMeta{
		rw(a.UserAccount, false),
		ro(a.UserOwner, true),
	}, &p)
}

// SweepFeesAccounts are the accounts of a SweepFees instruction.
type SweepFeesAccounts struct {
	Market                  types.Pubkey // 0: writable
	MarketSigner            types.Pubkey // 1
	QuoteVault              types.Pubkey // 2: writable
	DestinationTokenAccount types.Pubkey // 3: writable, quote token account owned by the admin
	Admin                   types.Pubkey // 4: signer
	TokenMetadata           types.Pubkey // 5: metadata account of the base mint
	// CreatorsTokenAccounts (6..) are writable quote token accounts, in
	// the order of the verified creators of the metadata.
	CreatorsTokenAccounts []types.Pubkey
}

func NewSweepFees(programID types.Pubkey, a SweepFeesAccounts) Instruction {
	metas := []types.AccountMeta{
		rw(a.Market, false),
		ro(a.MarketSigner, false),
		rw(a.QuoteVault, false),
		rw(a.DestinationTokenAccount, false),
		ro(a.Admin, true),
		ro(a.TokenMetadata, false),
	}
	for _, c := range a.CreatorsTokenAccounts {
		metas = append(metas, rw(c, false))
	}
	return newInstruction(programID, metas, &SweepFeesParams{})
}

// CloseAccountAccounts are the accounts of a CloseAccount instruction.
type CloseAccountAccounts struct {
	UserAccount types.Pubkey // 0: writable
	UserOwner   types.Pubkey // 1: signer
}

func NewCloseAccount(programID types.Pubkey, a CloseAccountAccounts) Instruction {
	return newInstruction(programID, []types.AccountMeta{
		rw(a.UserAccount, false),
		ro(a.UserOwner, true),
	}, &CloseAccountParams{})
}

// CloseMarketAccounts are the accounts of a CloseMarket instruction.
type CloseMarketAccounts struct {
	Market       types.Pubkey // 0: writable
	BaseVault    types.Pubkey // 1: writable
	QuoteVault   types.Pubkey // 2: writable
	Orderbook    types.Pubkey // 3: writable
	Admin        types.Pubkey // 4: signer
	MarketSigner types.Pubkey // 5
}

func NewCloseMarket(programID types.Pubkey, a CloseMarketAccounts) Instruction {
	return newInstruction(programID, []types.AccountMeta{
		rw(a.Market, false),
		rw(a.BaseVault, false),
		rw(a.QuoteVault, false),
		rw(a.Orderbook, false),
		ro(a.Admin, true),
		ro(a.MarketSigner, false),
	}, &CloseMarketParams{})
}

// UpdateRoyaltiesAccounts are the accounts of an UpdateRoyalties instruction.
type UpdateRoyaltiesAccounts struct {
	Market        types.Pubkey // 0: writable
	Orderbook     types.Pubkey // 1
	TokenMetadata types.Pubkey // 2
}

func NewUpdateRoyalties(programID types.Pubkey, a UpdateRoyaltiesAccounts) Instruction {
	return newInstruction(programID, []types.AccountMeta{
		rw(a.Market, false),
		ro(a.Orderbook, false),
		ro(a.TokenMetadata, false),
	}, &UpdateRoyaltiesParams{})
}

// SwapAccounts are the accounts of a Swap instruction.
type SwapAccounts struct {
	Market           types.Pubkey // 0: writable
	Orderbook        types.Pubkey // 1: writable
	BaseVault        types.Pubkey // 2: writable
	QuoteVault       types.Pubkey // 3: writable
	MarketSigner     types.Pubkey // 4
	UserBaseAccount  types.Pubkey // 5: writable
	UserQuoteAccount types.Pubkey // 6: writable
	UserOwner        types.Pubkey // 7: signer
	// DiscountTokenAccount is optional (8).
	DiscountTokenAccount *types.Pubkey
}

func NewSwap(programID types.Pubkey, a SwapAccounts, p SwapParams) Instruction {
	metas := []types.AccountMeta{
		rw(a.Market, false),
		rw(a.Orderbook, false),
		rw(a.BaseVault, false),
		rw(a.QuoteVault, false),
		ro(a.MarketSigner, false),
		rw(a.UserBaseAccount, false),
		rw(a.UserQuoteAccount, false),
		ro(a.UserOwner, true),
	}
	p.HasDiscountTokenAccount = a.DiscountTokenAccount != nil
	if a.DiscountTokenAccount != nil {
		metas = append(metas, ro(*a.DiscountTokenAccount, false))
	}
	return newInstruction(programID, metas, &p)
}
