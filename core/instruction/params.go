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

package instruction

import (
	"fmt"

	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/core/types"
)

const (
	scheduleLen            = 8 + 3*fee.MaxTiers*8
	CreateMarketParamsLen  = 5*8 + 8 + 2*types.PubkeyLen + scheduleLen
	NewOrderParamsLen      = 16 + 4*8 + 4 + 4
	CancelOrderParamsLen   = 16 + 8 + 8
	ConsumeEventsParamsLen = 16
	InitializeAccountLen   = types.PubkeyLen + 8
	SwapParamsLen          = 3*8 + 8
)

// CreateMarketParams create a market. An empty fee schedule selects the
// configured default schedule.
type CreateMarketParams struct {
	SignerNonce             uint8
	MinBaseOrderSize        uint64
	TickSize                uint64
	BaseCurrencyMultiplier  uint64
	QuoteCurrencyMultiplier uint64
	EventCapacity           uint32
	DiscountMint            types.Pubkey
	PremiumMint             types.Pubkey
	FeeSchedule             fee.Schedule
}

func (CreateMarketParams) Tag() Tag { return TagCreateMarket }

func (p CreateMarketParams) MarshalBinary() ([]byte, error) {
	s := p.FeeSchedule
	if s.Len() > fee.MaxTiers || len(s.Thresholds) > fee.MaxTiers || len(s.MakerRates) > fee.MaxTiers {
		return nil, fmt.Errorf("%w: %d", fee.ErrTooManyTiers, s.Len())
	}
	e := &encoder{b: make([]byte, 0, CreateMarketParamsLen)}
	e.u64(uint64(p.SignerNonce))
	e.u64(p.MinBaseOrderSize)
	e.u64(p.TickSize)
	e.u64(p.BaseCurrencyMultiplier)
	e.u64(p.QuoteCurrencyMultiplier)
	e.u32(p.EventCapacity)
	e.pad(4)
	e.pubkey(p.DiscountMint)
	e.pubkey(p.PremiumMint)
	e.u8(uint8(s.Len()))
	e.bool(s.Premium)
	e.pad(6)
	for _, table := range [][]uint64{s.Thresholds, s.TakerRates, s.MakerRates} {
		for i := 0; i < fee.MaxTiers; i++ {
			if i < len(table) {
				e.u64(table[i])
			} else {
				e.u64(0)
			}
		}
	}
	return e.b, nil
}

func (p *CreateMarketParams) UnmarshalBinary(data []byte) error {
	d, err := newDecoder(data, CreateMarketParamsLen, TagCreateMarket)
	if err != nil {
		return err
	}
	nonce := d.u64()
	if nonce > 255 {
		return fmt.Errorf("%w: signer nonce %d", ErrInvalidInstructionData, nonce)
	}
	p.SignerNonce = uint8(nonce)
	p.MinBaseOrderSize = d.u64()
	p.TickSize = d.u64()
	p.BaseCurrencyMultiplier = d.u64()
	p.QuoteCurrencyMultiplier = d.u64()
	p.EventCapacity = d.u32()
	d.pad(4)
	p.DiscountMint = d.pubkey()
	p.PremiumMint = d.pubkey()

	tiers := int(d.u8())
	premium, err := d.bool()
	if err != nil {
		return err
	}
	d.pad(6)
	if tiers > fee.MaxTiers {
		return fmt.Errorf("%w: %d tiers", ErrInvalidInstructionData, tiers)
	}
	ladder := tiers
	if premium && ladder > 0 {
		ladder--
	}
	s := fee.Schedule{Premium: premium}
	if tiers > 0 {
		s.Thresholds = make([]uint64, ladder)
		s.TakerRates = make([]uint64, tiers)
		s.MakerRates = make([]uint64, tiers)
	}
	for _, table := range [][]uint64{s.Thresholds, s.TakerRates, s.MakerRates} {
		for i := 0; i < fee.MaxTiers; i++ {
			v := d.u64()
			if i < len(table) {
				table[i] = v
			}
		}
	}
	p.FeeSchedule = s
	return nil
}

// NewOrderParams place an order on behalf of a user account.
type NewOrderParams struct {
	ClientOrderID     types.ClientOrderID
	LimitPrice        uint64
	MaxBaseQty        uint64
	MaxQuoteQty       uint64
	MatchLimit        uint64
	Side              types.Side
	OrderType         types.OrderType
	SelfTradeBehavior types.SelfTradeBehavior
	// HasDiscountTokenAccount tells whether the account list carries a
	// discount token account after the user wallet.
	HasDiscountTokenAccount bool
}

func (NewOrderParams) Tag() Tag { return TagNewOrder }

func (p NewOrderParams) MarshalBinary() ([]byte, error) {
	e := &encoder{b: make([]byte, 16, NewOrderParamsLen)}
	p.ClientOrderID.PutBytes(e.b)
	e.u64(p.LimitPrice)
	e.u64(p.MaxBaseQty)
	e.u64(p.MaxQuoteQty)
	e.u64(p.MatchLimit)
	e.u8(uint8(p.Side))
	e.u8(uint8(p.OrderType))
	e.u8(uint8(p.SelfTradeBehavior))
	e.bool(p.HasDiscountTokenAccount)
	e.pad(4)
	return e.b, nil
}

func (p *NewOrderParams) UnmarshalBinary(data []byte) error {
	d, err := newDecoder(data, NewOrderParamsLen, TagNewOrder)
	if err != nil {
		return err
	}
	p.ClientOrderID = types.ClientOrderIDFromBytes(data[:16])
	d.pad(16)
	p.LimitPrice = d.u64()
	p.MaxBaseQty = d.u64()
	p.MaxQuoteQty = d.u64()
	p.MatchLimit = d.u64()
	p.Side = types.Side(d.u8())
	p.OrderType = types.OrderType(d.u8())
	p.SelfTradeBehavior = types.SelfTradeBehavior(d.u8())
	if p.HasDiscountTokenAccount, err = d.bool(); err != nil {
		return err
	}
	if !p.Side.IsValid() || !p.OrderType.IsValid() || !p.SelfTradeBehavior.IsValid() {
		return fmt.Errorf("%w: invalid side, order type or self trade behavior", ErrInvalidInstructionData)
	}
	return nil
}

// CancelOrderParams designate the order to cancel either by its slot index,
// cross checked against OrderID, or by its client id.
type CancelOrderParams struct {
	OrderID       types.OrderID
	ClientOrderID types.ClientOrderID
	OrderIndex    uint64
	IsClientID    bool
}

func (CancelOrderParams) Tag() Tag { return TagCancelOrder }

func (p CancelOrderParams) MarshalBinary() ([]byte, error) {
	e := &encoder{b: make([]byte, 16, CancelOrderParamsLen)}
	if p.IsClientID {
		p.ClientOrderID.PutBytes(e.b)
	} else {
		p.OrderID.PutBytes(e.b)
	}
	e.u64(p.OrderIndex)
	e.bool(p.IsClientID)
	e.pad(7)
	return e.b, nil
}

func (p *CancelOrderParams) UnmarshalBinary(data []byte) error {
	d, err := newDecoder(data, CancelOrderParamsLen, TagCancelOrder)
	if err != nil {
		return err
	}
	d.pad(16)
	p.OrderIndex = d.u64()
	if p.IsClientID, err = d.bool(); err != nil {
		return err
	}
	if p.IsClientID {
		p.ClientOrderID = types.ClientOrderIDFromBytes(data[:16])
	} else {
		p.OrderID = types.OrderIDFromBytes(data[:16])
	}
	return nil
}

// ConsumeEventsParams bound one crank run.
type ConsumeEventsParams struct {
	MaxIterations uint64
	// NoOpErr makes a run consuming nothing fail.
	NoOpErr bool
}

func (ConsumeEventsParams) Tag() Tag { return TagConsumeEvents }

func (p ConsumeEventsParams) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.u64(p.MaxIterations)
	if p.NoOpErr {
		e.u64(1)
	} else {
		e.u64(0)
	}
	return e.b, nil
}

func (p *ConsumeEventsParams) UnmarshalBinary(data []byte) error {
	d, err := newDecoder(data, ConsumeEventsParamsLen, TagConsumeEvents)
	if err != nil {
		return err
	}
	p.MaxIterations = d.u64()
	p.NoOpErr = d.u64() == 1
	return nil
}

// InitializeAccountParams create a user account on a market.
type InitializeAccountParams struct {
	Market    types.Pubkey
	MaxOrders uint64
}

func (InitializeAccountParams) Tag() Tag { return TagInitializeAccount }

func (p InitializeAccountParams) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.pubkey(p.Market)
	e.u64(p.MaxOrders)
	return e.b, nil
}

func (p *InitializeAccountParams) UnmarshalBinary(data []byte) error {
	d, err := newDecoder(data, InitializeAccountLen, TagInitializeAccount)
	if err != nil {
		return err
	}
	p.Market = d.pubkey()
	p.MaxOrders = d.u64()
	return nil
}

// SwapParams trade immediately without a user account. For a bid BaseQty
// is the minimum received and QuoteQty the maximum spent, for an ask BaseQty
// is sold entirely and QuoteQty is the minimum received.
type SwapParams struct {
	BaseQty                 uint64
	QuoteQty                uint64
	MatchLimit              uint64
	Side                    types.Side
	SelfTradeBehavior       types.SelfTradeBehavior
	HasDiscountTokenAccount bool
}

func (SwapParams) Tag() Tag { return TagSwap }

func (p SwapParams) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.u64(p.BaseQty)
	e.u64(p.QuoteQty)
	e.u64(p.MatchLimit)
	e.u8(uint8(p.Side))
	e.u8(uint8(p.SelfTradeBehavior))
	e.bool(p.HasDiscountTokenAccount)
	e.pad(5)
	return e.b, nil
}

func (p *SwapParams) UnmarshalBinary(data []byte) error {
	d, err := newDecoder(data, SwapParamsLen, TagSwap)
	if err != nil {
		return err
	}
	p.BaseQty = d.u64()
	p.QuoteQty = d.u64()
	p.MatchLimit = d.u64()
	p.Side = types.Side(d.u8())
	p.SelfTradeBehavior = types.SelfTradeBehavior(d.u8())
	if p.HasDiscountTokenAccount, err = d.bool(); err != nil {
		return err
	}
	if !p.Side.IsValid() || !p.SelfTradeBehavior.IsValid() {
		return fmt.Errorf("%w: invalid side or self trade behavior", ErrInvalidInstructionData)
	}
	return nil
}

type emptyParams struct{}

func (emptyParams) MarshalBinary() ([]byte, error) { return []byte{}, nil }

func unmarshalEmpty(data []byte, tag Tag) error {
	_, err := newDecoder(data, 0, tag)
	return err
}

type SettleParams struct{ emptyParams }

func (SettleParams) Tag() Tag                              { return TagSettle }
func (p *SettleParams) UnmarshalBinary(data []byte) error { return unmarshalEmpty(data, TagSettle) }

type SweepFeesParams struct{ emptyParams }

func (SweepFeesParams) Tag() Tag                              { return TagSweepFees }
func (p *SweepFeesParams) UnmarshalBinary(data []byte) error { return unmarshalEmpty(data, TagSweepFees) }

type CloseAccountParams struct{ emptyParams }

func (CloseAccountParams) Tag() Tag { return TagCloseAccount }
func (p *CloseAccountParams) UnmarshalBinary(data []byte) error {
	return unmarshalEmpty(data, TagCloseAccount)
}

type CloseMarketParams struct{ emptyParams }

func (CloseMarketParams) Tag() Tag { return TagCloseMarket }
func (p *CloseMarketParams) UnmarshalBinary(data []byte) error {
	return unmarshalEmpty(data, TagCloseMarket)
}

type UpdateRoyaltiesParams struct{ emptyParams }

func (UpdateRoyaltiesParams) Tag() Tag { return TagUpdateRoyalties }
func (p *UpdateRoyaltiesParams) UnmarshalBinary(data []byte) error {
	return unmarshalEmpty(data, TagUpdateRoyalties)
}
