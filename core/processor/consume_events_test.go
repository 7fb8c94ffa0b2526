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

	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/processor"
	"code.vegaprotocol.io/dex/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeEvents(t *testing.T) {
	t.Run("consumption is bounded by max iterations", testConsumeEventsBounded)
	t.Run("missing user account stops the crank", testConsumeEventsMissingAccount)
	t.Run("read only user account stops the crank", testConsumeEventsReadOnlyAccount)
	t.Run("fractional price leaves nothing locked", testConsumeEventsFractionalPrice)
	t.Run("nothing consumed is a no-op error on demand", testConsumeEventsNoOp)
	t.Run("self trade pays no net fee", testConsumeEventsSelfTrade)
	t.Run("cancel provide releases the resting order", testConsumeEventsCancelProvide)
	t.Run("bid maker receives base", testConsumeEventsBidMaker)
	t.Run("ledgers balance the vaults after a session", testConsumeEventsConservation)
}

func testConsumeEventsBounded(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice := tp.newUser(t, m, 10, 0, 4)
	bob := tp.newUser(t, m, 0, 10_000, 4)
	for i := 0; i < 3; i++ {
		require.NoError(t, tp.placeOrder(m, alice, types.SideAsk, 1024*one, 1))
	}
	require.NoError(t, tp.placeOrder(m, bob, types.SideBid, 1024*one, 3))
	require.Equal(t, 6, tp.book(t, m).EventQueueLen())

	require.NoError(t, tp.consume(m, 2, true, alice))
	assert.Equal(t, 4, tp.book(t, m).EventQueueLen())
	consumed := tp.eventsOfType(events.EventsConsumedEvent)
	require.Len(t, consumed, 1)
	e := consumed[0].(*events.EventsConsumed)
	assert.Equal(t, uint64(1), e.Fills)
	assert.Equal(t, uint64(1), e.Outs)
	assert.Equal(t, uint64(4), e.Remaining)

	ah := tp.userAccount(t, alice).Header
	assert.Equal(t, uint64(2), ah.BaseTokenLocked)
	assert.Equal(t, uint32(2), ah.NumberOfOrders)

	require.NoError(t, tp.consume(m, 10, true, alice))
	assert.Equal(t, 0, tp.book(t, m).EventQueueLen())
	assert.Zero(t, tp.userAccount(t, alice).Header.NumberOfOrders)
	tp.assertConservation(t, m, alice, bob)
}

func testConsumeEventsMissingAccount(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice := tp.newUser(t, m, 10, 0, 4)
	carol := tp.newUser(t, m, 10, 0, 4)
	bob := tp.newUser(t, m, 0, 10_000, 4)
	require.NoError(t, tp.placeOrder(m, alice, types.SideAsk, 1024*one, 1))
	require.NoError(t, tp.placeOrder(m, carol, types.SideAsk, 1024*one, 1))
	require.NoError(t, tp.placeOrder(m, bob, types.SideBid, 1024*one, 2))
	require.Equal(t, 4, tp.book(t, m).EventQueueLen())

	// the events of carol are left for a later run
	require.NoError(t, tp.consume(m, 10, true, alice))
	assert.Equal(t, 2, tp.book(t, m).EventQueueLen())
	assert.Zero(t, tp.userAccount(t, alice).Header.BaseTokenLocked)
	assert.Equal(t, uint64(1), tp.userAccount(t, carol).Header.BaseTokenLocked)

	require.NoError(t, tp.consume(m, 10, true, carol, alice))
	assert.Equal(t, 0, tp.book(t, m).EventQueueLen())
	tp.assertConservation(t, m, alice, bob, carol)
}

// consumeReadOnly cranks the market with the given user accounts, passing
// the read only one without write access.
func (tp *testProcessor) consumeReadOnly(m testMarket, readOnly testUser, users ...testUser) error {
	keys := make([]types.Pubkey, 0, len(users))
	for _, u := range users {
		keys = append(keys, u.account)
	}
	sortKeys(keys)
	ix := instruction.NewConsumeEvents(programID, instruction.ConsumeEventsAccounts{
		Market:       m.key,
		Orderbook:    m.orderbook,
		UserAccounts: keys,
	}, instruction.ConsumeEventsParams{MaxIterations: 10, NoOpErr: true})
	for i := range ix.Accounts {
		if ix.Accounts[i].Key == readOnly.account {
			ix.Accounts[i].IsWritable = false
		}
	}
	return tp.Process(bg, ix, nil)
}

func testConsumeEventsReadOnlyAccount(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice := tp.newUser(t, m, 10, 0, 4)
	carol := tp.newUser(t, m, 10, 0, 4)
	bob := tp.newUser(t, m, 0, 10_000, 4)
	require.NoError(t, tp.placeOrder(m, alice, types.SideAsk, 1024*one, 1))
	require.NoError(t, tp.placeOrder(m, carol, types.SideAsk, 1024*one, 1))
	require.NoError(t, tp.placeOrder(m, bob, types.SideBid, 1024*one, 2))
	require.Equal(t, 4, tp.book(t, m).EventQueueLen())

	// nothing can be applied when the first maker is read only
	assert.ErrorIs(t, tp.consumeReadOnly(m, alice, alice, carol), processor.ErrNoOp)
	assert.Equal(t, 4, tp.book(t, m).EventQueueLen())

	// the events of alice are kept, carol is left untouched
	require.NoError(t, tp.consumeReadOnly(m, carol, alice, carol))
	assert.Equal(t, 2, tp.book(t, m).EventQueueLen())
	ah := tp.userAccount(t, alice).Header
	assert.Zero(t, ah.BaseTokenLocked)
	assert.Zero(t, ah.NumberOfOrders)
	ch := tp.userAccount(t, carol).Header
	assert.Equal(t, uint64(1), ch.BaseTokenLocked)
	assert.Equal(t, uint32(1), ch.NumberOfOrders)
	assert.Equal(t, uint64(1024), tp.market(t, m).QuoteVolume)

	consumed := tp.eventsOfType(events.EventsConsumedEvent)
	require.NotEmpty(t, consumed)
	assert.Equal(t, uint64(1), consumed[len(consumed)-1].(*events.EventsConsumed).Fills)

	require.NoError(t, tp.consume(m, 10, true, alice, carol))
	assert.Equal(t, uint64(2048), tp.market(t, m).QuoteVolume)
	tp.assertConservation(t, m, alice, bob, carol)
}

func testConsumeEventsFractionalPrice(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice := tp.newUser(t, m, 0, 10, 4)
	bob := tp.newUser(t, m, 1, 0, 4)

	// 2 lots at 1.5 lock 3
	require.NoError(t, tp.placeOrder(m, alice, types.SideBid, one+one/2, 2))
	require.Equal(t, uint64(3), tp.userAccount(t, alice).Header.QuoteTokenLocked)
	require.NoError(t, tp.placeOrder(m, bob, types.SideAsk, one, 1))
	require.NoError(t, tp.consume(m, 10, true, alice))

	order := tp.userAccount(t, alice).Orders()[0]
	require.NoError(t, tp.cancel(m, alice, instruction.CancelOrderParams{OrderID: order.ID}))
	ah := tp.userAccount(t, alice).Header
	assert.Zero(t, ah.NumberOfOrders)
	assert.Zero(t, ah.QuoteTokenLocked)
	tp.assertConservation(t, m, alice, bob)

	require.NoError(t, tp.settle(m, alice))
	require.NoError(t, tp.closeAccount(alice))
}

func testConsumeEventsNoOp(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)

	assert.ErrorIs(t, tp.consume(m, 10, true), processor.ErrNoOp)
	require.NoError(t, tp.consume(m, 10, false))

	alice := tp.newUser(t, m, 10, 0, 4)
	bob := tp.newUser(t, m, 0, 10_000, 4)
	require.NoError(t, tp.placeOrder(m, alice, types.SideAsk, 1024*one, 1))
	require.NoError(t, tp.placeOrder(m, bob, types.SideBid, 1024*one, 1))

	assert.ErrorIs(t, tp.consume(m, 10, true, bob), processor.ErrNoOp)
	assert.ErrorIs(t, tp.consume(m, 0, true, alice), processor.ErrNoOp)
	assert.Equal(t, 2, tp.book(t, m).EventQueueLen())
}

func testConsumeEventsSelfTrade(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice := tp.newUser(t, m, 10, 10_000, 4)

	require.NoError(t, tp.placeOrder(m, alice, types.SideAsk, 1024*one, 1))
	require.NoError(t, tp.placeOrder(m, alice, types.SideBid, 1024*one, 1))
	assert.Equal(t, uint64(10_000-1028), tp.balance(t, alice.quoteWallet))

	require.NoError(t, tp.consume(m, 10, true, alice))
	ah := tp.userAccount(t, alice).Header
	assert.Zero(t, ah.BaseTokenLocked)
	assert.Equal(t, uint64(1), ah.BaseTokenFree)
	// the taker fee comes back with the proceeds
	assert.Equal(t, uint64(1028), ah.QuoteTokenFree)
	assert.Equal(t, uint64(4), ah.AccumulatedRebates)
	assert.Zero(t, ah.NumberOfOrders)

	ms := tp.market(t, m)
	assert.Zero(t, ms.AccumulatedFees)
	assert.Zero(t, ms.BaseVolume)
	tp.assertConservation(t, m, alice)

	require.NoError(t, tp.settle(m, alice))
	assert.Equal(t, uint64(10), tp.balance(t, alice.baseWallet))
	assert.Equal(t, uint64(10_000), tp.balance(t, alice.quoteWallet))
}

func testConsumeEventsCancelProvide(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice := tp.newUser(t, m, 10, 10_000, 4)

	require.NoError(t, tp.placeOrder(m, alice, types.SideAsk, 1024*one, 2))
	require.NoError(t, tp.placeOrder(m, alice, types.SideBid, 1024*one, 1,
		withSelfTrade(types.SelfTradeCancelProvide)))
	assert.Zero(t, tp.book(t, m).RestingQty(types.SideAsk))
	assert.Equal(t, uint64(1), tp.book(t, m).RestingQty(types.SideBid))

	require.NoError(t, tp.consume(m, 10, true, alice))
	ah := tp.userAccount(t, alice).Header
	assert.Equal(t, uint64(2), ah.BaseTokenFree)
	assert.Zero(t, ah.BaseTokenLocked)
	assert.Equal(t, uint64(1024), ah.QuoteTokenLocked)
	orders := tp.userAccount(t, alice).Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, types.SideBid, orders[0].ID.Side())
	tp.assertConservation(t, m, alice)
}

func testConsumeEventsBidMaker(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	bob := tp.newUser(t, m, 0, 10_000, 4)
	carol := tp.newUser(t, m, 10, 0, 4)

	require.NoError(t, tp.placeOrder(m, bob, types.SideBid, 1024*one, 4))
	require.NoError(t, tp.placeOrder(m, carol, types.SideAsk, 1024*one, 3))

	// the taker ask is paid right away, net of its fee
	assert.Equal(t, uint64(3072-12), tp.userAccount(t, carol).Header.QuoteTokenFree)

	require.NoError(t, tp.consume(m, 10, true, bob))
	bh := tp.userAccount(t, bob).Header
	assert.Equal(t, uint64(3), bh.BaseTokenFree)
	assert.Equal(t, uint64(1024), bh.QuoteTokenLocked)
	assert.Equal(t, uint64(3), bh.QuoteTokenFree)
	assert.Equal(t, uint64(12-3), tp.market(t, m).AccumulatedFees)
	tp.assertConservation(t, m, bob, carol)
}

func testConsumeEventsConservation(t *testing.T) {
	tp := getTestProcessor(t)
	m := tp.createMarket(t, nil)
	alice := tp.newUser(t, m, 100, 100_000, 8)
	bob := tp.newUser(t, m, 100, 100_000, 8)
	carol := tp.newUser(t, m, 100, 100_000, 8)

	require.NoError(t, tp.placeOrder(m, alice, types.SideAsk, 1100*one, 7))
	require.NoError(t, tp.placeOrder(m, bob, types.SideAsk, 1050*one, 5))
	require.NoError(t, tp.placeOrder(m, carol, types.SideBid, 1000*one, 9))
	require.NoError(t, tp.placeOrder(m, alice, types.SideBid, 990*one, 3))
	require.NoError(t, tp.placeOrder(m, carol, types.SideBid, 1100*one, 8))
	require.NoError(t, tp.placeOrder(m, bob, types.SideAsk, 980*one, 15))
	require.NoError(t, tp.placeOrder(m, alice, types.SideBid, 1200*one, 4, withType(types.OrderTypeImmediateOrCancel)))
	require.NoError(t, tp.consume(m, 3, true, alice, bob, carol))
	require.NoError(t, tp.consume(m, 100, true, alice, bob, carol))
	tp.assertConservation(t, m, alice, bob, carol)

	require.NoError(t, tp.settle(m, alice))
	require.NoError(t, tp.settle(m, carol))
	tp.assertConservation(t, m, alice, bob, carol)
}
