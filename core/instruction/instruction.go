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

// Package instruction defines the wire encoding of the operations of the
// exchange: a one byte tag followed by a fixed layout parameter block, and
// an ordered list of accounts whose role is fixed per position.
package instruction

import (
	"errors"
	"fmt"

	"code.vegaprotocol.io/dex/core/types"
)

type Tag uint8

const (
	TagCreateMarket Tag = iota
	TagNewOrder
	TagCancelOrder
	TagConsumeEvents
	TagSettle
	TagInitializeAccount
	TagSweepFees
	TagCloseAccount
	TagCloseMarket
	TagUpdateRoyalties
	TagSwap
)

var tagNames = [...]string{
	"create-market",
	"new-order",
	"cancel-order",
	"consume-events",
	"settle",
	"initialize-account",
	"sweep-fees",
	"close-account",
	"close-market",
	"update-royalties",
	"swap",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

var (
	ErrInvalidInstructionData = errors.New("invalid instruction data")
	ErrUnknownInstruction     = errors.New("unknown instruction")
	ErrNotEnoughAccounts      = errors.New("not enough accounts")
)

// Params is the parameter block of an instruction.
type Params interface {
	Tag() Tag
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// Instruction is an operation addressed to the exchange program.
type Instruction struct {
	ProgramID types.Pubkey
	Accounts  []types.AccountMeta
	Data      []byte
}

func newInstruction(programID types.Pubkey, metas []types.AccountMeta, p Params) Instruction {
	body, _ := p.MarshalBinary()
	data := make([]byte, 0, 1+len(body))
	data = append(data, uint8(p.Tag()))
	return Instruction{
		ProgramID: programID,
		Accounts:  metas,
		Data:      append(data, body...),
	}
}

// Decode returns the tag and the decoded parameters of instruction data.
func Decode(data []byte) (Tag, Params, error) {
	if len(data) == 0 {
		return 0, nil, ErrInvalidInstructionData
	}
	var p Params
	switch tag := Tag(data[0]); tag {
	case TagCreateMarket:
		p = &CreateMarketParams{}
	case TagNewOrder:
		p = &NewOrderParams{}
	case TagCancelOrder:
		p = &CancelOrderParams{}
	case TagConsumeEvents:
		p = &ConsumeEventsParams{}
	case TagSettle:
		p = &SettleParams{}
	case TagInitializeAccount:
		p = &InitializeAccountParams{}
	case TagSweepFees:
		p = &SweepFeesParams{}
	case TagCloseAccount:
		p = &CloseAccountParams{}
	case TagCloseMarket:
		p = &CloseMarketParams{}
	case TagUpdateRoyalties:
		p = &UpdateRoyaltiesParams{}
	case TagSwap:
		p = &SwapParams{}
	default:
		return tag, nil, fmt.Errorf("%w: %d", ErrUnknownInstruction, data[0])
	}
	if err := p.UnmarshalBinary(data[1:]); err != nil {
		return p.Tag(), nil, err
	}
	return p.Tag(), p, nil
}
