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

package instruction_test

import (
	"testing"

	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var programID = types.PubkeyFromSeed("dex/test-program")

func TestInstructions(t *testing.T) {
	t.Run("instructions decode to their parameters", testDecodeParams)
	t.Run("account lists carry fixed roles", testAccountRoles)
	t.Run("optional accounts set the discount flag", testOptionalAccounts)
	t.Run("invalid data is rejected", testInvalidData)
	t.Run("tag names", testTagNames)
}

func testDecodeParams(t *testing.T) {
	k := types.NewUniquePubkey
	createMarket := instruction.CreateMarketParams{
		SignerNonce:             254,
		MinBaseOrderSize:        10,
		TickSize:                1 << 20,
		BaseCurrencyMultiplier:  1,
		QuoteCurrencyMultiplier: 10_000,
		EventCapacity:           128,
		DiscountMint:            k(),
		PremiumMint:             k(),
		FeeSchedule:             fee.DefaultSchedule(),
	}
	newOrder := instruction.NewOrderParams{
		ClientOrderID:     types.NewClientOrderID(42),
		LimitPrice:        9 << 32,
		MaxBaseQty:        3,
		MaxQuoteQty:       1_000_000,
		MatchLimit:        10,
		Side:              types.SideAsk,
		OrderType:         types.OrderTypeFillOrKill,
		SelfTradeBehavior: types.SelfTradeCancelProvide,
	}

	cases := []struct {
		name   string
		ix     instruction.Instruction
		tag    instruction.Tag
		expect instruction.Params
	}{
		{
			name:   "create market",
			ix:     instruction.NewCreateMarket(programID, instruction.CreateMarketAccounts{}, createMarket),
			tag:    instruction.TagCreateMarket,
			expect: &createMarket,
		},
		{
			name:   "new order",
			ix:     instruction.NewNewOrder(programID, instruction.NewOrderAccounts{}, newOrder),
			tag:    instruction.TagNewOrder,
			expect: &newOrder,
		},
		{
			name: "cancel by order id",
			ix: instruction.NewCancelOrder(programID, instruction.CancelOrderAccounts{},
				instruction.CancelOrderParams{OrderID: types.NewOrderID(types.SideBid, 7, 3), OrderIndex: 2}),
			tag:    instruction.TagCancelOrder,
			expect: &instruction.CancelOrderParams{OrderID: types.NewOrderID(types.SideBid, 7, 3), OrderIndex: 2},
		},
		{
			name: "cancel by client id",
			ix: instruction.NewCancelOrder(programID, instruction.CancelOrderAccounts{},
				instruction.CancelOrderParams{ClientOrderID: types.NewClientOrderID(9), IsClientID: true}),
			tag:    instruction.TagCancelOrder,
			expect: &instruction.CancelOrderParams{ClientOrderID: types.NewClientOrderID(9), IsClientID: true},
		},
		{
			name: "consume events",
			ix: instruction.NewConsumeEvents(programID, instruction.ConsumeEventsAccounts{},
				instruction.ConsumeEventsParams{MaxIterations: 10, NoOpErr: true}),
			tag:    instruction.TagConsumeEvents,
			expect: &instruction.ConsumeEventsParams{MaxIterations: 10, NoOpErr: true},
		},
		{
			name:   "settle",
			ix:     instruction.NewSettle(programID, instruction.SettleAccounts{}),
			tag:    instruction.TagSettle,
			expect: &instruction.SettleParams{},
		},
		{
			name: "initialize account",
			ix: instruction.NewInitializeAccount(programID, instruction.InitializeAccountAccounts{},
				instruction.InitializeAccountParams{Market: programID, MaxOrders: 20}),
			tag:    instruction.TagInitializeAccount,
			expect: &instruction.InitializeAccountParams{Market: programID, MaxOrders: 20},
		},
		{
			name:   "swap",
			ix:     instruction.NewSwap(programID, instruction.SwapAccounts{}, instruction.SwapParams{BaseQty: 1, QuoteQty: 2, MatchLimit: 3, Side: types.SideAsk}),
			tag:    instruction.TagSwap,
			expect: &instruction.SwapParams{BaseQty: 1, QuoteQty: 2, MatchLimit: 3, Side: types.SideAsk},
		},
		{
			name:   "update royalties",
			ix:     instruction.NewUpdateRoyalties(programID, instruction.UpdateRoyaltiesAccounts{}),
			tag:    instruction.TagUpdateRoyalties,
			expect: &instruction.UpdateRoyaltiesParams{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, programID, tc.ix.ProgramID)
			tag, p, err := instruction.Decode(tc.ix.Data)
			require.NoError(t, err)
			assert.Equal(t, tc.tag, tag)
			assert.Equal(t, tc.expect, p)
		})
	}
}

func testAccountRoles(t *testing.T) {
	a := instruction.SettleAccounts{
		Market:                  types.NewUniquePubkey(),
		BaseVault:               types.NewUniquePubkey(),
		QuoteVault:              types.NewUniquePubkey(),
		MarketSigner:            types.NewUniquePubkey(),
		UserAccount:             types.NewUniquePubkey(),
		UserOwner:               types.NewUniquePubkey(),
		DestinationBaseAccount:  types.NewUniquePubkey(),
		DestinationQuoteAccount: types.NewUniquePubkey(),
	}
	ix := instruction.NewSettle(programID, a)
	require.Len(t, ix.Accounts, 8)
	assert.Equal(t, types.AccountMeta{Key: a.Market}, ix.Accounts[0])
	assert.Equal(t, types.AccountMeta{Key: a.BaseVault, IsWritable: true}, ix.Accounts[1])
	assert.Equal(t, types.AccountMeta{Key: a.UserOwner, IsSigner: true}, ix.Accounts[5])
	assert.Equal(t, types.AccountMeta{Key: a.DestinationQuoteAccount, IsWritable: true}, ix.Accounts[7])

	users := []types.Pubkey{types.NewUniquePubkey(), types.NewUniquePubkey()}
	ix = instruction.NewConsumeEvents(programID, instruction.ConsumeEventsAccounts{UserAccounts: users}, instruction.ConsumeEventsParams{})
	require.Len(t, ix.Accounts, 4)
	for _, m := range ix.Accounts[2:] {
		assert.True(t, m.IsWritable)
		assert.False(t, m.IsSigner)
	}
}

func testOptionalAccounts(t *testing.T) {
	discount := types.NewUniquePubkey()
	referral := types.NewUniquePubkey()
	ix := instruction.NewNewOrder(programID, instruction.NewOrderAccounts{
		DiscountTokenAccount: &discount,
		FeeReferralAccount:   &referral,
	}, instruction.NewOrderParams{MatchLimit: 1})
	require.Len(t, ix.Accounts, 9)
	assert.Equal(t, types.AccountMeta{Key: discount}, ix.Accounts[7])
	assert.Equal(t, types.AccountMeta{Key: referral, IsWritable: true}, ix.Accounts[8])

	_, p, err := instruction.Decode(ix.Data)
	require.NoError(t, err)
	assert.True(t, p.(*instruction.NewOrderParams).HasDiscountTokenAccount)
}

func testInvalidData(t *testing.T) {
	_, _, err := instruction.Decode(nil)
	assert.ErrorIs(t, err, instruction.ErrInvalidInstructionData)

	_, _, err = instruction.Decode([]byte{42})
	assert.ErrorIs(t, err, instruction.ErrUnknownInstruction)

	_, _, err = instruction.Decode([]byte{uint8(instruction.TagSettle), 0})
	assert.ErrorIs(t, err, instruction.ErrInvalidInstructionData)

	ix := instruction.NewNewOrder(programID, instruction.NewOrderAccounts{}, instruction.NewOrderParams{})
	ix.Data[1+16+32] = 7 // side
	_, _, err = instruction.Decode(ix.Data)
	assert.ErrorIs(t, err, instruction.ErrInvalidInstructionData)
}

func testTagNames(t *testing.T) {
	assert.Equal(t, "consume-events", instruction.TagConsumeEvents.String())
	assert.Equal(t, "tag(77)", instruction.Tag(77).String())
}
