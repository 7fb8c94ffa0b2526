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

	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/core/types"
)

// AccountTag versions and identifies the state accounts of the exchange.
type AccountTag uint64

const (
	AccountTagUninitialized AccountTag = iota
	AccountTagMarket
	AccountTagUserAccount
	AccountTagClosed
)

func (t AccountTag) String() string {
	switch t {
	case AccountTagUninitialized:
		return "uninitialized"
	case AccountTagMarket:
		return "market"
	case AccountTagUserAccount:
		return "user-account"
	case AccountTagClosed:
		return "closed"
	default:
		return fmt.Sprintf("account-tag(%d)", uint64(t))
	}
}

// MarketStateLen is the size in bytes of the encoded market ledger.
const MarketStateLen = 8 + 8 + 8*types.PubkeyLen + 9*8 + 3*fee.MaxTiers*8

var (
	ErrInvalidAccountData = errors.New("invalid account data")
	ErrAccountTooSmall    = errors.New("account data too small")
)

// MarketState is the aggregate ledger of one market.
type MarketState struct {
	Tag         AccountTag
	SignerNonce uint8

	BaseMint   types.Pubkey
	QuoteMint  types.Pubkey
	BaseVault  types.Pubkey
	QuoteVault types.Pubkey
	Orderbook  types.Pubkey
	Admin      types.Pubkey
	// DiscountMint and PremiumMint are the tokens proving a fee discount,
	// the zero identity disables them.
	DiscountMint types.Pubkey
	PremiumMint  types.Pubkey

	CreationTimestamp       int64
	BaseVolume              uint64
	QuoteVolume             uint64
	AccumulatedFees         uint64
	AccumulatedRoyalties    uint64
	MinBaseOrderSize        uint64
	RoyaltiesBps            uint64
	BaseCurrencyMultiplier  uint64
	QuoteCurrencyMultiplier uint64

	FeeSchedule fee.Schedule
}

// Market is a mutable view over the market ledger stored in an account.
// Changes are written back to the account buffer by Commit.
type Market struct {
	MarketState
	buf []byte
}

// LoadMarket decodes the market ledger, failing unless the account holds an
// initialized market.
func LoadMarket(data []byte) (*Market, error) {
	m, err := LoadMarketUnchecked(data)
	if err != nil {
		return nil, err
	}
	if m.Tag != AccountTagMarket {
		return nil, fmt.Errorf("%w: expected market, got %s", ErrInvalidAccountData, m.Tag)
	}
	return m, nil
}

// LoadMarketUnchecked decodes the buffer without checking its tag.
func LoadMarketUnchecked(data []byte) (*Market, error) {
	if len(data) < MarketStateLen {
		return nil, fmt.Errorf("%w: %d < %d", ErrAccountTooSmall, len(data), MarketStateLen)
	}
	m := &Market{buf: data}
	m.decode()
	return m, nil
}

func (m *Market) decode() {
	c := &cursor{b: m.buf}
	m.Tag = AccountTag(c.u64())
	m.SignerNonce = c.u8()
	tiers := int(c.u8())
	premium := c.u8() != 0
	c.pass(5)
	m.BaseMint = c.pubkey()
	m.QuoteMint = c.pubkey()
	m.BaseVault = c.pubkey()
	m.QuoteVault = c.pubkey()
	m.Orderbook = c.pubkey()
	m.Admin = c.pubkey()
	m.DiscountMint = c.pubkey()
	m.PremiumMint = c.pubkey()
	m.CreationTimestamp = int64(c.u64())
	m.BaseVolume = c.u64()
	m.QuoteVolume = c.u64()
	m.AccumulatedFees = c.u64()
	m.AccumulatedRoyalties = c.u64()
	m.MinBaseOrderSize = c.u64()
	m.RoyaltiesBps = c.u64()
	m.BaseCurrencyMultiplier = c.u64()
	m.QuoteCurrencyMultiplier = c.u64()

	if tiers > fee.MaxTiers {
		tiers = fee.MaxTiers
	}
	ladder := tiers
	if premium && ladder > 0 {
		ladder--
	}
	s := fee.Schedule{
		Thresholds: make([]uint64, ladder),
		TakerRates: make([]uint64, tiers),
		MakerRates: make([]uint64, tiers),
		Premium:    premium,
	}
	readTable(c, s.Thresholds)
	readTable(c, s.TakerRates)
	readTable(c, s.MakerRates)
	m.FeeSchedule = s
}

func readTable(c *cursor, dst []uint64) {
	start := c.off
	for i := range dst {
		dst[i] = c.u64()
	}
	c.off = start + fee.MaxTiers*8
}

func writeTable(c *cursor, src []uint64) {
	for i := 0; i < fee.MaxTiers; i++ {
		if i < len(src) {
			c.putU64(src[i])
		} else {
			c.putU64(0)
		}
	}
}

// Commit writes the market ledger back into the account buffer.
func (m *Market) Commit() {
	c := &cursor{b: m.buf}
	c.putU64(uint64(m.Tag))
	c.putU8(m.SignerNonce)
	c.putU8(uint8(m.FeeSchedule.Len()))
	if m.FeeSchedule.Premium {
		c.putU8(1)
	} else {
		c.putU8(0)
	}
	c.skip(5)
	c.putPubkey(m.BaseMint)
	c.putPubkey(m.QuoteMint)
	c.putPubkey(m.BaseVault)
	c.putPubkey(m.QuoteVault)
	c.putPubkey(m.Orderbook)
	c.putPubkey(m.Admin)
	c.putPubkey(m.DiscountMint)
	c.putPubkey(m.PremiumMint)
	c.putU64(uint64(m.CreationTimestamp))
	c.putU64(m.BaseVolume)
	c.putU64(m.QuoteVolume)
	c.putU64(m.AccumulatedFees)
	c.putU64(m.AccumulatedRoyalties)
	c.putU64(m.MinBaseOrderSize)
	c.putU64(m.RoyaltiesBps)
	c.putU64(m.BaseCurrencyMultiplier)
	c.putU64(m.QuoteCurrencyMultiplier)
	writeTable(c, m.FeeSchedule.Thresholds)
	writeTable(c, m.FeeSchedule.TakerRates)
	writeTable(c, m.FeeSchedule.MakerRates)
}

// Bytes returns the account buffer backing the view.
func (m *Market) Bytes() []byte {
	return m.buf
}

// ReadTag returns the tag of any state account.
func ReadTag(data []byte) AccountTag {
	if len(data) < 8 {
		return AccountTagUninitialized
	}
	c := &cursor{b: data}
	return AccountTag(c.u64())
}
