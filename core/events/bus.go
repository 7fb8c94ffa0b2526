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

package events

import (
	"context"
	"fmt"
)

type Type int

const (
	// All event type -> used by subscribers to just receive all events, has no actual corresponding event payload.
	All Type = iota
	MarketCreatedEvent
	UserAccountInitializedEvent
	OrderPlacedEvent
	OrderCancelledEvent
	EventsConsumedEvent
	SettledEvent
	FeesSweptEvent
	AccountClosedEvent
	MarketClosedEvent
	RoyaltiesUpdatedEvent
	SwappedEvent
)

var typeNames = map[Type]string{
	All:                         "all",
	MarketCreatedEvent:          "market-created",
	UserAccountInitializedEvent: "user-account-initialized",
	OrderPlacedEvent:            "order-placed",
	OrderCancelledEvent:         "order-cancelled",
	EventsConsumedEvent:         "events-consumed",
	SettledEvent:                "settled",
	FeesSweptEvent:              "fees-swept",
	AccountClosedEvent:          "account-closed",
	MarketClosedEvent:           "market-closed",
	RoyaltiesUpdatedEvent:       "royalties-updated",
	SwappedEvent:                "swapped",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Event is the interface of everything sent through the broker.
type Event interface {
	Type() Type
	Context() context.Context
	Sequence() uint64
	SetSequenceID(s uint64)
	MarketID() string
}

type Base struct {
	ctx context.Context
	seq uint64
	et  Type
}

func newBase(ctx context.Context, t Type) *Base {
	return &Base{
		ctx: ctx,
		et:  t,
	}
}

func (b *Base) SetSequenceID(s uint64) {
	// sequence ID can only be set once
	if b.seq != 0 {
		return
	}
	b.seq = s
}

// Sequence returns event sequence number.
func (b Base) Sequence() uint64 {
	return b.seq
}

// Context returns context.
func (b Base) Context() context.Context {
	return b.ctx
}

// Type returns the event type.
func (b Base) Type() Type {
	return b.et
}
