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

package processor_test

import (
	"testing"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/metadata"
	"code.vegaprotocol.io/dex/core/processor"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (tp *testProcessor) closeAccount(u testUser) error {
	ix := instruction.NewCloseAccount(programID, instruction.CloseAccountAccounts{
		UserAccount: u.account,
		UserOwner:   u.owner,
	})
	return tp.Process(bg, ix, []types.Pubkey{u.owner})
}

func (tp *testProcessor) closeMarket(m testMarket, admin types.Pubkey) error {
	ix := instruction.NewCloseMarket(programID, instruction.CloseMarketAccounts{
		Market:       m.key,
		BaseVault:    m.baseVault,
		QuoteVault:   m.quoteVault,
		Orderbook:    m.orderbook,
		Admin:        admin,
		MarketSigner: m.signer,
	})
	return tp.Process(bg, ix, []types.Pubkey{admin})
}

func (tp *testProcessor) updateRoyalties(m testMarket) error {
	ix := instruction.NewUpdateRoyalties(programID, instruction.UpdateRoyaltiesAccounts{
		Market:        m.key,
		Orderbook:     m.orderbook,
		TokenMetadata: m.metadata,
	})
	return tp.Process(bg, ix, nil)
}

func TestCloseAccount(t *testing.T) {
	t.Run("empty account is closed", testCloseAccountEmpty)
	t.Run("account with orders or balances stays open", testCloseAccountStillActive)
	t.Run("only the owner can close", testCloseAccountWrongOwner)
}

func testCloseAccountEmpty(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	u := tp.newUser(t, m, 0, 0, 2)

	require.NoError(t, tp.closeAccount(u))
	_, err := tp.store.Get(u.account)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)

	closed := tp.eventsOfType(events.AccountClosedEvent)
	require.Len(t, closed, 1)
	assert.Equal(t, m.key, closed[0].(*events.AccountClosed).Market)

	// the derived address can be initialized again
	require.NoError(t, initializeAccount(tp, m.key, u.account, u.owner, 1, u.owner))
}

func testCloseAccountStillActive(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice, bob := scenarioCross(t, tp, m)

	assert.ErrorIs(t, tp.closeAccount(alice), processor.ErrUserAccountStillActive)
	// bob holds free base until he settles
	assert.ErrorIs(t, tp.closeAccount(bob), processor.ErrUserAccountStillActive)
	require.NoError(t, tp.settle(m, bob))
	require.NoError(t, tp.closeAccount(bob))
}

func testCloseAccountWrongOwner(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	u := tp.newUser(t, m, 0, 0, 2)

	stolen := u
	stolen.owner = types.NewUniquePubkey()
	assert.ErrorIs(t, tp.closeAccount(stolen), processor.ErrInvalidUserAccountOwner)
	_, err := tp.store.Get(u.account)
	assert.NoError(t, err)
}

func TestCloseMarket(t *testing.T) {
	t.Run("empty market is closed", testCloseMarketEmpty)
	t.Run("market holding funds stays open", testCloseMarketStillActive)
	t.Run("only the admin can close", testCloseMarketWrongAdmin)
}

func testCloseMarketEmpty(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)

	require.NoError(t, tp.closeMarket(m, m.admin))
	assert.Equal(t, state.AccountTagClosed, tp.market(t, m).Tag)
	assert.True(t, tp.book(t, m).IsClosed())
	_, err := tp.store.Get(m.baseVault)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
	_, err = tp.store.Get(m.quoteVault)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
	require.Len(t, tp.eventsOfType(events.MarketClosedEvent), 1)

	// a closed market accepts nothing
	u := testUser{owner: types.NewUniquePubkey()}
	u.account, err = processor.UserAccountAddress(m.key, u.owner, programID)
	require.NoError(t, err)
	require.NoError(t, initializeAccount(tp, m.key, u.account, u.owner, 1, u.owner))
	assert.Error(t, tp.placeOrder(m, u, types.SideAsk, 1024*one, 1))
}

func testCloseMarketStillActive(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice := tp.newUser(t, m, 10, 0, 4)
	require.NoError(t, tp.placeOrder(m, alice, types.SideAsk, 1024*one, 1))

	assert.ErrorIs(t, tp.closeMarket(m, m.admin), processor.ErrMarketStillActive)
	assert.Equal(t, state.AccountTagMarket, tp.market(t, m).Tag)
}

func testCloseMarketWrongAdmin(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	assert.ErrorIs(t, tp.closeMarket(m, types.NewUniquePubkey()), processor.ErrInvalidMarketAdmin)
}

func TestUpdateRoyalties(t *testing.T) {
	t.Run("seller fee is read again", testUpdateRoyalties)
	t.Run("queued events must be consumed first", testUpdateRoyaltiesPendingEvents)
	t.Run("market without metadata", testUpdateRoyaltiesMissingMetadata)
}

func royaltyMetadata(bps uint16) *metadata.Metadata {
	return &metadata.Metadata{
		SellerFeeBasisPoints: bps,
		Creators:             []metadata.Creator{{Address: types.PubkeyFromSeed("creator"), Verified: true, Share: 100}},
	}
}

func testUpdateRoyalties(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, royaltyMetadata(500))

	md := royaltyMetadata(250)
	md.Mint = m.baseMint
	require.NoError(t, tp.store.Put(m.metadata, metadata.NewAccount(*md)))

	require.NoError(t, tp.updateRoyalties(m))
	assert.Equal(t, uint64(250), tp.market(t, m).RoyaltiesBps)
	updated := tp.eventsOfType(events.RoyaltiesUpdatedEvent)
	require.Len(t, updated, 1)
	assert.Equal(t, uint64(250), updated[0].(*events.RoyaltiesUpdated).RoyaltiesBps)
}

func testUpdateRoyaltiesPendingEvents(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, royaltyMetadata(500))
	alice, bob := scenarioCross(t, tp, m)

	assert.ErrorIs(t, tp.updateRoyalties(m), processor.ErrEventQueueNotEmpty)
	require.NoError(t, tp.consume(m, 10, true, alice))
	require.NoError(t, tp.updateRoyalties(m))
	tp.assertConservation(t, m, alice, bob)
}

func testUpdateRoyaltiesMissingMetadata(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	assert.ErrorIs(t, tp.updateRoyalties(m), processor.ErrMissingMetadata)
}
