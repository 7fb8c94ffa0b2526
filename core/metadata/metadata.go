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

package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/types"
)

// MaxCreators is the maximum number of creators sharing royalties.
const MaxCreators = 5

const (
	headerLen  = types.PubkeyLen + 2 + 1
	creatorLen = types.PubkeyLen + 2
	// MaxBasisPoints caps the seller fee.
	MaxBasisPoints = 10_000
)

// ProgramID owns every metadata account.
var ProgramID = types.PubkeyFromSeed("dex/metadata-program")

var (
	ErrInvalidMetadata        = errors.New("invalid metadata account")
	ErrInvalidMetadataKey     = errors.New("metadata account does not match the mint")
	ErrInvalidMetadataOwner   = errors.New("metadata account is not owned by the metadata program")
	ErrInvalidShares          = errors.New("creator shares must sum to 100")
	ErrTooManyCreators        = errors.New("too many creators")
	ErrSellerFeeAboveMaxBasis = errors.New("seller fee above 10000 basis points")
)

// Creator is one royalty beneficiary of a mint.
type Creator struct {
	Address  types.Pubkey
	Verified bool
	Share    uint8
}

// Metadata describes the royalties due on trades of a mint.
type Metadata struct {
	Mint                 types.Pubkey
	SellerFeeBasisPoints uint16
	Creators             []Creator
}

// Address derives the metadata account of a mint.
func Address(mint types.Pubkey) (types.Pubkey, error) {
	return types.CreateProgramAddress([][]byte{[]byte("metadata"), ProgramID[:], mint[:]}, ProgramID)
}

// Pack encodes the metadata.
func (m Metadata) Pack() []byte {
	data := make([]byte, headerLen+creatorLen*len(m.Creators))
	copy(data, m.Mint[:])
	binary.LittleEndian.PutUint16(data[types.PubkeyLen:], m.SellerFeeBasisPoints)
	data[types.PubkeyLen+2] = uint8(len(m.Creators))
	off := headerLen
	for _, c := range m.Creators {
		copy(data[off:], c.Address[:])
		if c.Verified {
			data[off+types.PubkeyLen] = 1
		}
		data[off+types.PubkeyLen+1] = c.Share
		off += creatorLen
	}
	return data
}

// Unpack decodes the metadata.
func Unpack(data []byte) (Metadata, error) {
	if len(data) < headerLen {
		return Metadata{}, ErrInvalidMetadata
	}
	var m Metadata
	copy(m.Mint[:], data)
	m.SellerFeeBasisPoints = binary.LittleEndian.Uint16(data[types.PubkeyLen:])
	n := int(data[types.PubkeyLen+2])
	if n > MaxCreators {
		return Metadata{}, ErrTooManyCreators
	}
	if len(data) != headerLen+n*creatorLen {
		return Metadata{}, ErrInvalidMetadata
	}
	off := headerLen
	for i := 0; i < n; i++ {
		var c Creator
		copy(c.Address[:], data[off:])
		c.Verified = data[off+types.PubkeyLen] != 0
		c.Share = data[off+types.PubkeyLen+1]
		m.Creators = append(m.Creators, c)
		off += creatorLen
	}
	return m, nil
}

// NewAccount returns the stored form of a metadata account.
func NewAccount(m Metadata) accounts.Account {
	return accounts.Account{Owner: ProgramID, Data: m.Pack()}
}

// Validate checks the seller fee and the creator shares.
func (m Metadata) Validate() error {
	if m.SellerFeeBasisPoints > MaxBasisPoints {
		return ErrSellerFeeAboveMaxBasis
	}
	if len(m.Creators) > MaxCreators {
		return ErrTooManyCreators
	}
	return VerifyShares(m.Creators)
}

// VerifyShares checks the creator shares sum to exactly 100.
func VerifyShares(creators []Creator) error {
	sum := 0
	for _, c := range creators {
		sum += int(c.Share)
	}
	if sum != 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidShares, sum)
	}
	return nil
}

// VerifiedCreators returns the creators whose address was verified.
func (m Metadata) VerifiedCreators() []Creator {
	out := make([]Creator, 0, len(m.Creators))
	for _, c := range m.Creators {
		if c.Verified {
			out = append(out, c)
		}
	}
	return out
}

// CheckAccount verifies the account is the metadata account of the mint. An
// empty account is accepted and means the mint carries no royalties.
func CheckAccount(info *accounts.AccountInfo, mint types.Pubkey) error {
	expected, err := Address(mint)
	if err != nil {
		return err
	}
	if info.Key != expected {
		return fmt.Errorf("%w: %s", ErrInvalidMetadataKey, info.Key)
	}
	if len(info.Data) != 0 && info.Owner != ProgramID {
		return fmt.Errorf("%w: %s", ErrInvalidMetadataOwner, info.Key)
	}
	return nil
}

// Load decodes the metadata of an account checked with CheckAccount. It
// returns nil for an empty account.
func Load(info *accounts.AccountInfo) (*Metadata, error) {
	if len(info.Data) == 0 {
		return nil, nil
	}
	m, err := Unpack(info.Data)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
