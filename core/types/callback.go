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
	"errors"
)

// CallbackInfoLen is the fixed length of an encoded callback token.
const CallbackInfoLen = PubkeyLen + 1

// ReferralMask flags a fee tier byte of an order that carries a referrer.
const ReferralMask uint8 = 0x80

var ErrInvalidCallbackInfo = errors.New("invalid callback info")

// CallbackInfo is attached to every order sent to the matching primitive and
// returned unmodified on fill and out events. It is the only link between an
// asynchronous event and the user ledger and fee context of its order.
type CallbackInfo struct {
	UserAccount Pubkey
	// FeeTier is the tier index ORed with ReferralMask when referred.
	FeeTier uint8
}

// NewCallbackInfo packs the tier and referral flag of an order.
func NewCallbackInfo(user Pubkey, tier uint8, referred bool) CallbackInfo {
	return CallbackInfo{
		UserAccount: user,
		FeeTier:     PackFeeTier(tier, referred),
	}
}

// PackFeeTier ORs the referral flag into the tier index.
func PackFeeTier(tier uint8, referred bool) uint8 {
	if referred {
		return (tier &^ ReferralMask) | ReferralMask
	}
	return tier &^ ReferralMask
}

// Tier returns the tier index and whether the order was referred.
func (c CallbackInfo) Tier() (uint8, bool) {
	return c.FeeTier &^ ReferralMask, c.FeeTier&ReferralMask != 0
}

// MarshalBinary returns the fixed length encoding of the token.
func (c CallbackInfo) MarshalBinary() ([]byte, error) {
	b := make([]byte, CallbackInfoLen)
	c.Put(b)
	return b, nil
}

// Put writes the token into b, which must be at least CallbackInfoLen long.
func (c CallbackInfo) Put(b []byte) {
	copy(b[:PubkeyLen], c.UserAccount[:])
	b[PubkeyLen] = c.FeeTier
}

func (c *CallbackInfo) UnmarshalBinary(b []byte) error {
	if len(b) < CallbackInfoLen {
		return ErrInvalidCallbackInfo
	}
	copy(c.UserAccount[:], b[:PubkeyLen])
	c.FeeTier = b[PubkeyLen]
	return nil
}
