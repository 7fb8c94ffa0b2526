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

package state

import (
	"errors"
	"fmt"

	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
)

const (
	// UserAccountHeaderLen is the size in bytes of the encoded header.
	UserAccountHeaderLen = 8 + 2*types.PubkeyLen + 9*8 + 4 + 4
	// OrderLen is the size in bytes of one order slot.
	OrderLen = 2 * types.OrderIDLen
)

var (
	ErrInvalidOrderIndex = errors.New("the given order index is invalid")
	ErrUserAccountFull   = errors.New("the user account has reached its maximum capacity for open orders")
	ErrOrderNotFound     = errors.New("the specified order has not been found")
)

// UserAccountHeader holds the balances and metrics of one user on a market.
type UserAccountHeader struct {
	Tag    AccountTag
	Market types.Pubkey
	Owner  types.Pubkey

	BaseTokenFree    uint64
	BaseTokenLocked  uint64
	QuoteTokenFree   uint64
	QuoteTokenLocked uint64

	// Metrics only, rebates are always credited to the free quote balance.
	AccumulatedRebates          uint64
	AccumulatedMakerQuoteVolume uint64
	AccumulatedMakerBaseVolume  uint64
	AccumulatedTakerQuoteVolume uint64
	AccumulatedTakerBaseVolume  uint64

	NumberOfOrders uint32
}

// NewUserAccountHeader returns the header of a fresh user account.
func NewUserAccountHeader(market, owner types.Pubkey) UserAccountHeader {
	return UserAccountHeader{
		Tag:    AccountTagUserAccount,
		Market: market,
		Owner:  owner,
	}
}

// Order is one open order slot of a user account.
type Order struct {
	ID       types.OrderID
	ClientID types.ClientOrderID
}

// ComputeAllocationSize returns the account size needed for the given
// order capacity.
func ComputeAllocationSize(capacity uint64) (uint64, error) {
	n, err := num.MulU64(capacity, OrderLen)
	if err != nil {
		return 0, err
	}
	return num.AddU64(n, UserAccountHeaderLen)
}

// UserAccount is a mutable view over a user account buffer. The header is
// decoded in memory and written back by Commit, the order slots live in the
// trailing region of the buffer and are updated in place.
type UserAccount struct {
	Header UserAccountHeader
	buf    []byte
}

// LoadUserAccount decodes a user account, failing if it is not initialized.
func LoadUserAccount(data []byte) (*UserAccount, error) {
	u, err := LoadUserAccountUnchecked(data)
	if err != nil {
		return nil, err
	}
	if u.Header.Tag != AccountTagUserAccount {
		return nil, fmt.Errorf("%w: expected user account, got %s", ErrInvalidAccountData, u.Header.Tag)
	}
	if int(u.Header.NumberOfOrders) > u.Capacity() {
		return nil, fmt.Errorf("%w: order count above capacity", ErrInvalidAccountData)
	}
	return u, nil
}

// LoadUserAccountUnchecked decodes the buffer without checking its tag.
func LoadUserAccountUnchecked(data []byte) (*UserAccount, error) {
	if len(data) < UserAccountHeaderLen {
		return nil, fmt.Errorf("%w: %d < %d", ErrAccountTooSmall, len(data), UserAccountHeaderLen)
	}
	u := &UserAccount{buf: data}
	c := &cursor{b: data}
	h := &u.Header
	h.Tag = AccountTag(c.u64())
	h.Market = c.pubkey()
	h.Owner = c.pubkey()
	h.BaseTokenFree = c.u64()
	h.BaseTokenLocked = c.u64()
	h.QuoteTokenFree = c.u64()
	h.QuoteTokenLocked = c.u64()
	h.AccumulatedRebates = c.u64()
	h.AccumulatedMakerQuoteVolume = c.u64()
	h.AccumulatedMakerBaseVolume = c.u64()
	h.AccumulatedTakerQuoteVolume = c.u64()
	h.AccumulatedTakerBaseVolume = c.u64()
	c.pass(4)
	h.NumberOfOrders = c.u32()
	return u, nil
}

// Commit writes the header back into the account buffer.
func (u *UserAccount) Commit() {
	c := &cursor{b: u.buf}
	h := &u.Header
	c.putU64(uint64(h.Tag))
	c.putPubkey(h.Market)
	c.putPubkey(h.Owner)
	c.putU64(h.BaseTokenFree)
	c.putU64(h.BaseTokenLocked)
	c.putU64(h.QuoteTokenFree)
	c.putU64(h.QuoteTokenLocked)
	c.putU64(h.AccumulatedRebates)
	c.putU64(h.AccumulatedMakerQuoteVolume)
	c.putU64(h.AccumulatedMakerBaseVolume)
	c.putU64(h.AccumulatedTakerQuoteVolume)
	c.putU64(h.AccumulatedTakerBaseVolume)
	c.skip(4)
	c.putU32(h.NumberOfOrders)
}

// Capacity returns the number of order slots of the account.
func (u *UserAccount) Capacity() int {
	return (len(u.buf) - UserAccountHeaderLen) / OrderLen
}

func (u *UserAccount) slot(i int) []byte {
	off := UserAccountHeaderLen + i*OrderLen
	return u.buf[off : off+OrderLen]
}

func (u *UserAccount) orderAt(i int) Order {
	s := u.slot(i)
	return Order{
		ID:       types.OrderIDFromBytes(s[:types.OrderIDLen]),
		ClientID: types.ClientOrderIDFromBytes(s[types.OrderIDLen:]),
	}
}

func (u *UserAccount) setOrderAt(i int, o Order) {
	s := u.slot(i)
	o.ID.PutBytes(s[:types.OrderIDLen])
	o.ClientID.PutBytes(s[types.OrderIDLen:])
}

// ReadOrder returns the order stored at the given index.
func (u *UserAccount) ReadOrder(i int) (Order, error) {
	if i < 0 || i >= int(u.Header.NumberOfOrders) {
		return Order{}, fmt.Errorf("%w: %d", ErrInvalidOrderIndex, i)
	}
	return u.orderAt(i), nil
}

// AddOrder stores an order in the first free slot.
func (u *UserAccount) AddOrder(o Order) error {
	n := int(u.Header.NumberOfOrders)
	if n >= u.Capacity() {
		return ErrUserAccountFull
	}
	u.setOrderAt(n, o)
	u.Header.NumberOfOrders++
	return nil
}

// RemoveOrder frees the slot at the given index by moving the last live
// order into it. The order of the remaining slots is not preserved.
func (u *UserAccount) RemoveOrder(i int) error {
	n := int(u.Header.NumberOfOrders)
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d", ErrInvalidOrderIndex, i)
	}
	if i != n-1 {
		u.setOrderAt(i, u.orderAt(n-1))
	}
	u.setOrderAt(n-1, Order{})
	u.Header.NumberOfOrders--
	return nil
}

// FindOrderIndex returns the index of the live order with the given id.
func (u *UserAccount) FindOrderIndex(id types.OrderID) (int, error) {
	for i := 0; i < int(u.Header.NumberOfOrders); i++ {
		if u.orderAt(i).ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// FindOrderIDByClientID returns the id and index of the live order with the
// given client id.
func (u *UserAccount) FindOrderIDByClientID(cid types.ClientOrderID) (types.OrderID, int, error) {
	for i := 0; i < int(u.Header.NumberOfOrders); i++ {
		if o := u.orderAt(i); o.ClientID == cid {
			return o.ID, i, nil
		}
	}
	return types.OrderID{}, 0, fmt.Errorf("%w: client id %s", ErrOrderNotFound, cid)
}

// Orders returns a copy of the live orders.
func (u *UserAccount) Orders() []Order {
	out := make([]Order, 0, u.Header.NumberOfOrders)
	for i := 0; i < int(u.Header.NumberOfOrders); i++ {
		out = append(out, u.orderAt(i))
	}
	return out
}

// IsEmpty reports whether the account holds no order and no balance.
func (u *UserAccount) IsEmpty() bool {
	h := u.Header
	return h.NumberOfOrders == 0 &&
		h.BaseTokenFree == 0 && h.QuoteTokenFree == 0 &&
		h.BaseTokenLocked == 0 && h.QuoteTokenLocked == 0
}
