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

package matching

import (
	"encoding/binary"
	"fmt"

	"code.vegaprotocol.io/dex/core/types"
)

const (
	bookTagOpen   uint64 = 1
	bookTagClosed uint64 = 2

	bookHeaderLen   = 8 + 8 + 8 + 4 + 4 + 8 + 4 + 4 + 4 + 4
	restingOrderLen = types.OrderIDLen + 8 + types.CallbackInfoLen
	fillEventLen    = 2 + types.OrderIDLen + 8 + 8 + 2*types.CallbackInfoLen
	outEventLen     = 2 + types.OrderIDLen + 8 + types.CallbackInfoLen + 1
)

// Marshal encodes the book into the bytes stored in the orderbook account.
func (b *Book) Marshal() []byte {
	var orders []*restingOrder
	nb, na := 0, 0
	b.bids.Ascend(func(l *priceLevel) bool {
		orders = append(orders, l.orders...)
		nb += len(l.orders)
		return true
	})
	b.asks.Ascend(func(l *priceLevel) bool {
		orders = append(orders, l.orders...)
		na += len(l.orders)
		return true
	})

	size := bookHeaderLen + len(orders)*restingOrderLen
	for _, e := range b.events {
		if e.Kind() == types.EventKindFill {
			size += fillEventLen
		} else {
			size += outEventLen
		}
	}

	buf := make([]byte, size)
	le := binary.LittleEndian
	tag := bookTagOpen
	if b.closed {
		tag = bookTagClosed
	}
	le.PutUint64(buf[0:], tag)
	le.PutUint64(buf[8:], b.params.TickSize)
	le.PutUint64(buf[16:], b.params.MinBaseOrderSize)
	le.PutUint32(buf[24:], b.params.EventCapacity)
	le.PutUint64(buf[32:], b.seq)
	le.PutUint32(buf[40:], uint32(nb))
	le.PutUint32(buf[44:], uint32(na))
	le.PutUint32(buf[48:], uint32(len(b.events)))

	off := bookHeaderLen
	for _, o := range orders {
		o.id.PutBytes(buf[off:])
		le.PutUint64(buf[off+types.OrderIDLen:], o.baseQty)
		o.callback.Put(buf[off+types.OrderIDLen+8:])
		off += restingOrderLen
	}
	for _, e := range b.events {
		switch ev := e.(type) {
		case types.FillEvent:
			buf[off] = uint8(types.EventKindFill)
			buf[off+1] = uint8(ev.TakerSide)
			ev.MakerOrderID.PutBytes(buf[off+2:])
			le.PutUint64(buf[off+18:], ev.QuoteSize)
			le.PutUint64(buf[off+26:], ev.BaseSize)
			ev.MakerCallback.Put(buf[off+34:])
			ev.TakerCallback.Put(buf[off+34+types.CallbackInfoLen:])
			off += fillEventLen
		case types.OutEvent:
			buf[off] = uint8(types.EventKindOut)
			buf[off+1] = uint8(ev.Side)
			ev.OrderID.PutBytes(buf[off+2:])
			le.PutUint64(buf[off+18:], ev.BaseSize)
			ev.Callback.Put(buf[off+26:])
			if ev.Delete {
				buf[off+26+types.CallbackInfoLen] = 1
			}
			off += outEventLen
		}
	}
	return buf
}

// IsInitialized reports whether the bytes hold a book.
func IsInitialized(data []byte) bool {
	if len(data) < bookHeaderLen {
		return false
	}
	tag := binary.LittleEndian.Uint64(data)
	return tag == bookTagOpen || tag == bookTagClosed
}

// Load decodes a book from the orderbook account bytes.
func Load(data []byte) (*Book, error) {
	if !IsInitialized(data) {
		return nil, ErrInvalidBook
	}
	le := binary.LittleEndian
	b := newBook(Params{
		TickSize:         le.Uint64(data[8:]),
		MinBaseOrderSize: le.Uint64(data[16:]),
		EventCapacity:    le.Uint32(data[24:]),
	})
	if b.params.TickSize == 0 {
		return nil, ErrInvalidBook
	}
	b.closed = le.Uint64(data) == bookTagClosed
	b.seq = le.Uint64(data[32:])
	nb := int(le.Uint32(data[40:]))
	na := int(le.Uint32(data[44:]))
	ne := int(le.Uint32(data[48:]))

	off := bookHeaderLen
	if len(data) < off+(nb+na)*restingOrderLen {
		return nil, fmt.Errorf("%w: truncated orders", ErrInvalidBook)
	}
	for i := 0; i < nb+na; i++ {
		o := &restingOrder{
			id:      types.OrderIDFromBytes(data[off:]),
			baseQty: le.Uint64(data[off+types.OrderIDLen:]),
		}
		if err := o.callback.UnmarshalBinary(data[off+types.OrderIDLen+8:]); err != nil {
			return nil, err
		}
		side := types.SideAsk
		if i < nb {
			side = types.SideBid
		}
		if o.id.Side() != side {
			return nil, fmt.Errorf("%w: order %s on the wrong side", ErrInvalidBook, o.id)
		}
		b.insert(side, o)
		off += restingOrderLen
	}

	for i := 0; i < ne; i++ {
		if off >= len(data) {
			return nil, fmt.Errorf("%w: truncated events", ErrInvalidBook)
		}
		switch types.EventKind(data[off]) {
		case types.EventKindFill:
			if len(data) < off+fillEventLen {
				return nil, fmt.Errorf("%w: truncated fill event", ErrInvalidBook)
			}
			ev := types.FillEvent{
				TakerSide:    types.Side(data[off+1]),
				MakerOrderID: types.OrderIDFromBytes(data[off+2:]),
				QuoteSize:    le.Uint64(data[off+18:]),
				BaseSize:     le.Uint64(data[off+26:]),
			}
			if err := ev.MakerCallback.UnmarshalBinary(data[off+34:]); err != nil {
				return nil, err
			}
			if err := ev.TakerCallback.UnmarshalBinary(data[off+34+types.CallbackInfoLen:]); err != nil {
				return nil, err
			}
			b.events = append(b.events, ev)
			off += fillEventLen
		case types.EventKindOut:
			if len(data) < off+outEventLen {
				return nil, fmt.Errorf("%w: truncated out event", ErrInvalidBook)
			}
			ev := types.OutEvent{
				Side:     types.Side(data[off+1]),
				OrderID:  types.OrderIDFromBytes(data[off+2:]),
				BaseSize: le.Uint64(data[off+18:]),
				Delete:   data[off+26+types.CallbackInfoLen] != 0,
			}
			if err := ev.Callback.UnmarshalBinary(data[off+26:]); err != nil {
				return nil, err
			}
			b.events = append(b.events, ev)
			off += outEventLen
		default:
			return nil, fmt.Errorf("%w: unknown event kind %d", ErrInvalidBook, data[off])
		}
	}
	return b, nil
}
