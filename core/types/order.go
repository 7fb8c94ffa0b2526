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

import (
	"encoding/binary"
	"fmt"
)

// OrderIDLen is the length in bytes of an encoded order id.
const OrderIDLen = 16

const orderIDSideFlag uint64 = 1 << 63

// OrderID is the opaque 128 bits identifier assigned by the matching
// primitive. The high word carries the 32.32 limit price, the low word the
// sequence number, bit inverted for bids so that the top bit encodes the side.
type OrderID struct {
	Hi uint64
	Lo uint64
}

// NewOrderID builds the id of an order. seq must be lower than 2^63.
func NewOrderID(side Side, price, seq uint64) OrderID {
	lo := seq &^ orderIDSideFlag
	if side == SideBid {
		lo = ^lo
	}
	return OrderID{Hi: price, Lo: lo}
}

// Side extracts the side encoded in the id.
func (o OrderID) Side() Side {
	if o.Lo&orderIDSideFlag != 0 {
		return SideBid
	}
	return SideAsk
}

// Price extracts the 32.32 limit price encoded in the id.
func (o OrderID) Price() uint64 {
	return o.Hi
}

// Sequence returns the sequence number the id was built from.
func (o OrderID) Sequence() uint64 {
	if o.Side() == SideBid {
		return ^o.Lo
	}
	return o.Lo
}

func (o OrderID) IsZero() bool {
	return o.Hi == 0 && o.Lo == 0
}

func (o OrderID) String() string {
	return fmt.Sprintf("%016x%016x", o.Hi, o.Lo)
}

// PutBytes writes the little endian u128 encoding of the id.
func (o OrderID) PutBytes(b []byte) {
	binary.LittleEndian.PutUint64(b[0:8], o.Lo)
	binary.LittleEndian.PutUint64(b[8:16], o.Hi)
}

// OrderIDFromBytes reads a little endian u128 order id.
func OrderIDFromBytes(b []byte) OrderID {
	return OrderID{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// ClientOrderID is the caller supplied 128 bits id of an order.
type ClientOrderID struct {
	Hi uint64
	Lo uint64
}

func NewClientOrderID(v uint64) ClientOrderID {
	return ClientOrderID{Lo: v}
}

func (c ClientOrderID) String() string {
	if c.Hi == 0 {
		return fmt.Sprintf("%d", c.Lo)
	}
	return fmt.Sprintf("%016x%016x", c.Hi, c.Lo)
}

func (c ClientOrderID) PutBytes(b []byte) {
	binary.LittleEndian.PutUint64(b[0:8], c.Lo)
	binary.LittleEndian.PutUint64(b[8:16], c.Hi)
}

func ClientOrderIDFromBytes(b []byte) ClientOrderID {
	return ClientOrderID{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// OrderSummary is returned by the matching primitive for new orders and
// cancellations. Quantities are expressed in the units of the primitive.
type OrderSummary struct {
	PostedOrderID      *OrderID
	TotalBaseQty       uint64
	TotalQuoteQty      uint64
	TotalBaseQtyPosted uint64
}
