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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/decred/base58"
	"golang.org/x/crypto/sha3"
)

// PubkeyLen is the length in bytes of an account identity.
const PubkeyLen = 32

const (
	maxSeeds   = 16
	maxSeedLen = 32
)

var (
	ErrInvalidPubkey     = errors.New("invalid public key")
	ErrMaxSeedsExceeded  = errors.New("too many seeds for address derivation")
	ErrMaxSeedLenExceeds = errors.New("seed too long for address derivation")
	ErrNoViableNonce     = errors.New("unable to find a viable nonce for address derivation")

	derivationMarker = []byte("ProgramDerivedAddress")
	uniqueCounter    uint64
)

// Pubkey identifies an account on the host ledger.
type Pubkey [PubkeyLen]byte

// ZeroPubkey is the all zero identity, it never designates a live account.
var ZeroPubkey Pubkey

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Bytes() []byte {
	return p[:]
}

func (p Pubkey) IsZero() bool {
	return p == ZeroPubkey
}

// Compare returns an integer comparing two identities lexicographically.
func (p Pubkey) Compare(o Pubkey) int {
	return bytes.Compare(p[:], o[:])
}

func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pubkey) UnmarshalText(text []byte) error {
	k, err := PubkeyFromString(string(text))
	if err != nil {
		return err
	}
	*p = k
	return nil
}

func (p *Pubkey) UnmarshalFlag(s string) error {
	return p.UnmarshalText([]byte(s))
}

// PubkeyFromString decodes the base58 representation of an identity.
func PubkeyFromString(s string) (Pubkey, error) {
	var p Pubkey
	b := base58.Decode(s)
	if len(b) != PubkeyLen {
		return p, fmt.Errorf("%w: %q", ErrInvalidPubkey, s)
	}
	copy(p[:], b)
	return p, nil
}

// PubkeyFromBytes copies the given bytes into an identity.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var p Pubkey
	if len(b) != PubkeyLen {
		return p, ErrInvalidPubkey
	}
	copy(p[:], b)
	return p, nil
}

// NewUniquePubkey returns a new identity that was never returned before by
// this process. Used to allocate fresh accounts.
func NewUniquePubkey() Pubkey {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], atomic.AddUint64(&uniqueCounter, 1))
	return Pubkey(sha3.Sum256(append([]byte("unique"), seed[:]...)))
}

// CreateProgramAddress deterministically derives an identity from the given
// seeds and program. The derivation can be recomputed by anyone, which is how
// signer capabilities are verified on every privileged operation.
func CreateProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, error) {
	if len(seeds) > maxSeeds {
		return ZeroPubkey, ErrMaxSeedsExceeded
	}
	h := sha3.New256()
	for _, s := range seeds {
		if len(s) > maxSeedLen {
			return ZeroPubkey, ErrMaxSeedLenExceeds
		}
		h.Write(s)
	}
	h.Write(programID[:])
	h.Write(derivationMarker)
	var p Pubkey
	copy(p[:], h.Sum(nil))
	if p.IsZero() {
		return ZeroPubkey, ErrInvalidPubkey
	}
	return p, nil
}

// FindProgramAddress searches the highest nonce for which the derivation of
// the seeds followed by the nonce succeeds.
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, uint8, error) {
	for nonce := 255; nonce >= 0; nonce-- {
		withNonce := append(append([][]byte{}, seeds...), []byte{uint8(nonce)})
		p, err := CreateProgramAddress(withNonce, programID)
		if err == nil {
			return p, uint8(nonce), nil
		}
		if !errors.Is(err, ErrInvalidPubkey) {
			return ZeroPubkey, 0, err
		}
	}
	return ZeroPubkey, 0, ErrNoViableNonce
}

// MarketSignerAddress derives the signer capability of a market from its
// identity and signer nonce.
func MarketSignerAddress(market Pubkey, nonce uint8, programID Pubkey) (Pubkey, error) {
	return CreateProgramAddress([][]byte{market[:], {nonce}}, programID)
}

// PubkeyFromSeed returns a well known identity named after the given seed.
func PubkeyFromSeed(seed string) Pubkey {
	return Pubkey(sha3.Sum256([]byte(seed)))
}

// SystemProgramID owns every account that was never allocated.
var SystemProgramID = ZeroPubkey

// AccountMeta declares an account used by an instruction, and whether the
// instruction reads or writes it and requires its signature.
type AccountMeta struct {
	Key        Pubkey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta returns the metadata of a writable account.
func NewAccountMeta(key Pubkey, isSigner bool) AccountMeta {
	return AccountMeta{Key: key, IsSigner: isSigner, IsWritable: true}
}

// NewReadonlyAccountMeta returns the metadata of a read only account.
func NewReadonlyAccountMeta(key Pubkey, isSigner bool) AccountMeta {
	return AccountMeta{Key: key, IsSigner: isSigner}
}
