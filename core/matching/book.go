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

// Package matching is the reference price-time matching primitive the
// settlement core delegates to. It matches in scaled lots and reports every
// match through an event queue carrying the callback token of each order.
package matching

import (
	"errors"
	"fmt"
	"math"

	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"

	"github.com/google/btree"
)

var (
	ErrInvalidTickSize      = errors.New("tick size must be non zero")
	ErrInvalidLimitPrice    = errors.New("limit price is not a multiple of the tick size")
	ErrInvalidSide          = errors.New("invalid side")
	ErrInvalidSelfTrade     = errors.New("invalid self trade behavior")
	ErrWouldSelfTrade       = errors.New("the order would self trade")
	ErrEventQueueFull       = errors.New("event queue is full")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotEnoughEvents      = errors.New("not enough events in the queue")
	ErrBookNotEmpty         = errors.New("the book still holds orders or events")
	ErrInvalidBook          = errors.New("invalid orderbook data")
	ErrBookClosed           = errors.New("the book is closed")
	ErrMatchingOverflow     = errors.New("matching quantities overflow")
	ErrSequenceNumberExceed = errors.New("order sequence numbers exhausted")
)

// Params configure a book at creation.
type Params struct {
	TickSize         uint64
	MinBaseOrderSize uint64
	EventCapacity    uint32
}

// NewOrderParams describe an order sent to the book. Quantities are in lots,
// the limit price is a 32.32 number of quote lots per base lot.
type NewOrderParams struct {
	Side              types.Side
	LimitPrice        uint64
	MaxBaseQty        uint64
	MaxQuoteQty       uint64
	MatchLimit        uint64
	Callback          types.CallbackInfo
	PostOnly          bool
	PostAllowed       bool
	SelfTradeBehavior types.SelfTradeBehavior
}

type restingOrder struct {
	id       types.OrderID
	baseQty  uint64
	callback types.CallbackInfo
}

type priceLevel struct {
	price  uint64
	orders []*restingOrder
}

func lessBids(a, b *priceLevel) bool { return a.price > b.price }
func lessAsks(a, b *priceLevel) bool { return a.price < b.price }

// Book is a price-time priority order book with its event queue.
type Book struct {
	params Params
	seq    uint64
	closed bool

	bids   *btree.BTreeG[*priceLevel]
	asks   *btree.BTreeG[*priceLevel]
	events []types.Event
}

// New creates an empty book.
func New(p Params) (*Book, error) {
	if p.TickSize == 0 {
		return nil, ErrInvalidTickSize
	}
	return newBook(p), nil
}

func newBook(p Params) *Book {
	return &Book{
		params: p,
		bids:   btree.NewG(2, lessBids),
		asks:   btree.NewG(2, lessAsks),
		events: []types.Event{},
	}
}

func (b *Book) Params() Params {
	return b.params
}

func (b *Book) side(s types.Side) *btree.BTreeG[*priceLevel] {
	if s == types.SideBid {
		return b.bids
	}
	return b.asks
}

func (b *Book) pushEvent(e types.Event) error {
	if b.params.EventCapacity != 0 && len(b.events) >= int(b.params.EventCapacity) {
		return ErrEventQueueFull
	}
	b.events = append(b.events, e)
	return nil
}

// baseForQuote returns how many base lots the quote lots buy at price,
// saturating instead of failing on overflow.
func baseForQuote(quote, price uint64) uint64 {
	if price == 0 {
		return math.MaxUint64
	}
	q, err := num.Div32(quote, price)
	if err != nil {
		return math.MaxUint64
	}
	return q
}

// fillQuote prices a fill of take lots out of a resting order of rest lots
// as the drop in the quote the order is worth. The fills of an order and its
// final release then add up to what was locked when it was posted.
func fillQuote(rest, take, price uint64) (uint64, error) {
	before, err := num.Mul32(rest, price)
	if err != nil {
		return 0, err
	}
	after, err := num.Mul32(rest-take, price)
	if err != nil {
		return 0, err
	}
	return before - after, nil
}

func min3(a, b, c uint64) uint64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func crosses(side types.Side, limit, levelPrice uint64) bool {
	if side == types.SideBid {
		return levelPrice <= limit
	}
	return levelPrice >= limit
}

// NewOrder matches the order against the book and posts the remainder when
// allowed. Events are queued for every fill and every maker order leaving
// the book. On error the book must be discarded.
func (b *Book) NewOrder(p NewOrderParams) (types.OrderSummary, error) {
	var summary types.OrderSummary
	if b.closed {
		return summary, ErrBookClosed
	}
	if !p.Side.IsValid() {
		return summary, ErrInvalidSide
	}
	if !p.SelfTradeBehavior.IsValid() {
		return summary, ErrInvalidSelfTrade
	}
	if p.PostAllowed && p.LimitPrice%b.params.TickSize != 0 {
		return summary, fmt.Errorf("%w: %d", ErrInvalidLimitPrice, p.LimitPrice)
	}

	makerSide := p.Side.Opposite()
	opposite := b.side(makerSide)
	remBase, remQuote := p.MaxBaseQty, p.MaxQuoteQty
	var matchedBase, matchedQuote uint64

	for matches := uint64(0); matches < p.MatchLimit && remBase > 0; {
		level, ok := opposite.Min()
		if !ok || !crosses(p.Side, p.LimitPrice, level.price) {
			break
		}
		if p.PostOnly {
			// a post only order never takes, it is not posted either
			return types.OrderSummary{}, nil
		}
		maker := level.orders[0]

		if maker.callback.UserAccount == p.Callback.UserAccount {
			switch p.SelfTradeBehavior {
			case types.SelfTradeAbortTransaction:
				return types.OrderSummary{}, ErrWouldSelfTrade
			case types.SelfTradeCancelProvide:
				if err := b.pushEvent(types.OutEvent{
					Side:     makerSide,
					OrderID:  maker.id,
					BaseSize: maker.baseQty,
					Callback: maker.callback,
					Delete:   true,
				}); err != nil {
					return types.OrderSummary{}, err
				}
				b.removeHead(opposite, level)
				matches++
				continue
			}
		}

		take := min3(remBase, maker.baseQty, baseForQuote(remQuote, level.price))
		if take == 0 {
			break
		}
		// at most ceil(take*price), which the quote budget covers
		quote, err := fillQuote(maker.baseQty, take, level.price)
		if err != nil {
			return types.OrderSummary{}, ErrMatchingOverflow
		}
		if err := b.pushEvent(types.FillEvent{
			TakerSide:     p.Side,
			MakerOrderID:  maker.id,
			QuoteSize:     quote,
			BaseSize:      take,
			MakerCallback: maker.callback,
			TakerCallback: p.Callback,
		}); err != nil {
			return types.OrderSummary{}, err
		}
		maker.baseQty -= take
		remBase -= take
		remQuote -= quote
		matchedBase += take
		matchedQuote += quote
		matches++

		// dust below the minimum size leaves the book with the fill
		if maker.baseQty == 0 || maker.baseQty < b.params.MinBaseOrderSize {
			if err := b.pushEvent(types.OutEvent{
				Side:     makerSide,
				OrderID:  maker.id,
				BaseSize: maker.baseQty,
				Callback: maker.callback,
				Delete:   true,
			}); err != nil {
				return types.OrderSummary{}, err
			}
			b.removeHead(opposite, level)
		}
	}

	summary.TotalBaseQty = matchedBase
	summary.TotalQuoteQty = matchedQuote

	if !p.PostAllowed || remBase == 0 {
		return summary, nil
	}
	posted := remBase
	if afford := baseForQuote(remQuote, p.LimitPrice); afford < posted {
		posted = afford
	}
	if posted == 0 || posted < b.params.MinBaseOrderSize {
		return summary, nil
	}
	postedQuote, err := num.Mul32(posted, p.LimitPrice)
	if err != nil {
		return types.OrderSummary{}, ErrMatchingOverflow
	}
	if b.seq >= 1<<63-1 {
		return types.OrderSummary{}, ErrSequenceNumberExceed
	}
	b.seq++
	id := types.NewOrderID(p.Side, p.LimitPrice, b.seq)
	b.insert(p.Side, &restingOrder{id: id, baseQty: posted, callback: p.Callback})

	summary.PostedOrderID = &id
	summary.TotalBaseQtyPosted = posted
	if summary.TotalBaseQty, err = num.AddU64(summary.TotalBaseQty, posted); err != nil {
		return types.OrderSummary{}, ErrMatchingOverflow
	}
	if summary.TotalQuoteQty, err = num.AddU64(summary.TotalQuoteQty, postedQuote); err != nil {
		return types.OrderSummary{}, ErrMatchingOverflow
	}
	return summary, nil
}

func (b *Book) removeHead(tree *btree.BTreeG[*priceLevel], level *priceLevel) {
	level.orders[0] = nil
	level.orders = level.orders[1:]
	if len(level.orders) == 0 {
		tree.Delete(level)
	}
}

func (b *Book) insert(side types.Side, o *restingOrder) {
	tree := b.side(side)
	price := o.id.Price()
	level, ok := tree.Get(&priceLevel{price: price})
	if !ok {
		level = &priceLevel{price: price}
		tree.ReplaceOrInsert(level)
	}
	level.orders = append(level.orders, o)
}

// CancelOrder removes a resting order and reports the quantity it still had
// on the book. No event is queued.
func (b *Book) CancelOrder(id types.OrderID) (types.OrderSummary, error) {
	if b.closed {
		return types.OrderSummary{}, ErrBookClosed
	}
	tree := b.side(id.Side())
	level, ok := tree.Get(&priceLevel{price: id.Price()})
	if !ok {
		return types.OrderSummary{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	for i, o := range level.orders {
		if o.id != id {
			continue
		}
		quote, err := num.Mul32(o.baseQty, id.Price())
		if err != nil {
			return types.OrderSummary{}, ErrMatchingOverflow
		}
		level.orders = append(level.orders[:i], level.orders[i+1:]...)
		if len(level.orders) == 0 {
			tree.Delete(level)
		}
		return types.OrderSummary{
			TotalBaseQty:  o.baseQty,
			TotalQuoteQty: quote,
		}, nil
	}
	return types.OrderSummary{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// EventQueueLen returns the number of queued events.
func (b *Book) EventQueueLen() int {
	return len(b.events)
}

// PeekEvents returns up to max events from the head of the queue.
func (b *Book) PeekEvents(max int) []types.Event {
	if max > len(b.events) || max < 0 {
		max = len(b.events)
	}
	out := make([]types.Event, max)
	copy(out, b.events[:max])
	return out
}

// PopEvents dequeues the n events at the head of the queue.
func (b *Book) PopEvents(n int) error {
	if n < 0 || n > len(b.events) {
		return fmt.Errorf("%w: %d > %d", ErrNotEnoughEvents, n, len(b.events))
	}
	b.events = append([]types.Event{}, b.events[n:]...)
	return nil
}

// Close marks the book closed. It fails while orders or events remain.
func (b *Book) Close() error {
	if b.bids.Len() != 0 || b.asks.Len() != 0 || len(b.events) != 0 {
		return ErrBookNotEmpty
	}
	b.closed = true
	return nil
}

func (b *Book) IsClosed() bool {
	return b.closed
}

// Level is an aggregated view of one price level.
type Level struct {
	Price   uint64
	BaseQty uint64
	Orders  int
}

// Levels returns the price levels of a side, best price first.
func (b *Book) Levels(side types.Side) []Level {
	out := []Level{}
	b.side(side).Ascend(func(l *priceLevel) bool {
		lvl := Level{Price: l.price, Orders: len(l.orders)}
		for _, o := range l.orders {
			lvl.BaseQty += o.baseQty
		}
		out = append(out, lvl)
		return true
	})
	return out
}

// RestingQty returns the total base lots resting on a side.
func (b *Book) RestingQty(side types.Side) uint64 {
	var total uint64
	for _, l := range b.Levels(side) {
		total += l.BaseQty
	}
	return total
}
