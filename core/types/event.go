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

package types

// EventKind tags the variants of the events produced by the matching primitive.
type EventKind uint8

const (
	EventKindFill EventKind = iota
	EventKindOut
)

func (k EventKind) String() string {
	if k == EventKindFill {
		return "fill"
	}
	return "out"
}

// Event is a match event queued by the matching primitive: either a
// FillEvent or an OutEvent.
type Event interface {
	Kind() EventKind
	// UserAccounts returns the user ledgers the crank needs to apply the event.
	UserAccounts() []Pubkey
}

// FillEvent reports a match between an incoming order and a resting one.
// Sizes are expressed in the scaled units of the matching primitive.
type FillEvent struct {
	TakerSide     Side
	MakerOrderID  OrderID
	QuoteSize     uint64
	BaseSize      uint64
	MakerCallback CallbackInfo
	TakerCallback CallbackInfo
}

func (FillEvent) Kind() EventKind { return EventKindFill }

func (e FillEvent) UserAccounts() []Pubkey {
	return []Pubkey{e.MakerCallback.UserAccount}
}

// OutEvent reports base quantity leaving the book for a resting order,
// through cancellation, self trade prevention or full execution.
type OutEvent struct {
	Side     Side
	OrderID  OrderID
	BaseSize uint64
	Callback CallbackInfo
	Delete   bool
}

func (OutEvent) Kind() EventKind { return EventKindOut }

func (e OutEvent) UserAccounts() []Pubkey {
	return []Pubkey{e.Callback.UserAccount}
}
