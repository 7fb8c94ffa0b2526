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

import "fmt"

// Side of an order.
type Side uint8

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

func (s Side) IsValid() bool {
	return s == SideBid || s == SideAsk
}

func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// OrderType describes how the unmatched remainder of an order is handled.
type OrderType uint8

const (
	OrderTypeLimit OrderType = iota
	OrderTypeImmediateOrCancel
	OrderTypeFillOrKill
	OrderTypePostOnly
)

func (o OrderType) String() string {
	switch o {
	case OrderTypeLimit:
		return "limit"
	case OrderTypeImmediateOrCancel:
		return "immediate-or-cancel"
	case OrderTypeFillOrKill:
		return "fill-or-kill"
	case OrderTypePostOnly:
		return "post-only"
	default:
		return fmt.Sprintf("order-type(%d)", uint8(o))
	}
}

func (o OrderType) IsValid() bool {
	return o <= OrderTypePostOnly
}

// PostFlags returns whether the order must only post, and whether it may post at all.
func (o OrderType) PostFlags() (postOnly, postAllowed bool) {
	switch o {
	case OrderTypeImmediateOrCancel, OrderTypeFillOrKill:
		return false, false
	case OrderTypePostOnly:
		return true, true
	default:
		return false, true
	}
}

// SelfTradeBehavior configures what happens when an order would match
// against a resting order owned by the same user account.
type SelfTradeBehavior uint8

const (
	// SelfTradeDecrementTake matches both sides as a regular trade; the
	// crank refunds the fee so the account pays none.
	SelfTradeDecrementTake SelfTradeBehavior = iota
	// SelfTradeCancelProvide cancels the resting side of the self match.
	SelfTradeCancelProvide
	// SelfTradeAbortTransaction fails the whole order.
	SelfTradeAbortTransaction
)

func (s SelfTradeBehavior) IsValid() bool {
	return s <= SelfTradeAbortTransaction
}

func (s SelfTradeBehavior) String() string {
	switch s {
	case SelfTradeDecrementTake:
		return "decrement-take"
	case SelfTradeCancelProvide:
		return "cancel-provide"
	case SelfTradeAbortTransaction:
		return "abort-transaction"
	default:
		return fmt.Sprintf("self-trade-behavior(%d)", uint8(s))
	}
}
