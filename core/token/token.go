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

// Package token implements the token account primitive the exchange moves
// funds with. Transfers are authorised either by the owning wallet or by a
// derived signer.
package token

import (
	"encoding/binary"
	"errors"
	"fmt"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/libs/num"
)

// AccountLen is the size in bytes of an encoded token account.
const AccountLen = 2*types.PubkeyLen + 8 + 2*(1+types.PubkeyLen)

// ProgramID owns every token account.
var ProgramID = types.PubkeyFromSeed("dex/token-program")

var (
	ErrInvalidTokenAccount = errors.New("invalid token account")
	ErrNotTokenAccount     = errors.New("account is not owned by the token program")
	ErrMintMismatch        = errors.New("token accounts have different mints")
	ErrOwnerMismatch       = errors.New("authority does not own the token account")
	ErrMissingSignature    = errors.New("transfer authority did not sign")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNonZeroBalance      = errors.New("token account balance is not zero")
)

// Account is the state of a token account.
type Account struct {
	Mint           types.Pubkey
	Owner          types.Pubkey
	Amount         uint64
	Delegate       *types.Pubkey
	CloseAuthority *types.Pubkey
}

// Unpack decodes a token account.
func Unpack(data []byte) (Account, error) {
	if len(data) != AccountLen {
		return Account{}, fmt.Errorf("%w: size %d", ErrInvalidTokenAccount, len(data))
	}
	var a Account
	off := 0
	copy(a.Mint[:], data[off:])
	off += types.PubkeyLen
	copy(a.Owner[:], data[off:])
	off += types.PubkeyLen
	a.Amount = binary.LittleEndian.Uint64(data[off:])
	off += 8
	a.Delegate, off = unpackOption(data, off)
	a.CloseAuthority, _ = unpackOption(data, off)
	return a, nil
}

func unpackOption(data []byte, off int) (*types.Pubkey, int) {
	set := data[off] != 0
	off++
	if !set {
		return nil, off + types.PubkeyLen
	}
	var p types.Pubkey
	copy(p[:], data[off:])
	return &p, off + types.PubkeyLen
}

// Pack encodes the token account.
func (a Account) Pack() []byte {
	data := make([]byte, AccountLen)
	off := copy(data, a.Mint[:])
	off += copy(data[off:], a.Owner[:])
	binary.LittleEndian.PutUint64(data[off:], a.Amount)
	off += 8
	off = packOption(data, off, a.Delegate)
	packOption(data, off, a.CloseAuthority)
	return data
}

func packOption(data []byte, off int, p *types.Pubkey) int {
	if p != nil {
		data[off] = 1
		copy(data[off+1:], p[:])
	}
	return off + 1 + types.PubkeyLen
}

// Load decodes the token account behind an account view.
func Load(info *accounts.AccountInfo) (Account, error) {
	if info.Owner != ProgramID {
		return Account{}, fmt.Errorf("%w: %s", ErrNotTokenAccount, info.Key)
	}
	return Unpack(info.Data)
}

func store(info *accounts.AccountInfo, a Account) {
	copy(info.Data, a.Pack())
}

// NewAccount returns the stored form of a token account, used to seed
// wallets and vaults.
func NewAccount(mint, owner types.Pubkey, amount uint64) accounts.Account {
	return accounts.Account{
		Owner: ProgramID,
		Data:  Account{Mint: mint, Owner: owner, Amount: amount}.Pack(),
	}
}

// Transfer moves amount between two token accounts on behalf of a signing
// wallet owning the source.
func Transfer(from, to, authority *accounts.AccountInfo, amount uint64) error {
	if !authority.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingSignature, authority.Key)
	}
	return transfer(from, to, authority.Key, amount)
}

// TransferSigned moves amount out of a token account owned by a derived
// signer. The signer is re-derived from the seeds, it is never trusted.
func TransferSigned(from, to *accounts.AccountInfo, seeds [][]byte, programID types.Pubkey, amount uint64) error {
	signer, err := types.CreateProgramAddress(seeds, programID)
	if err != nil {
		return err
	}
	return transfer(from, to, signer, amount)
}

func transfer(from, to *accounts.AccountInfo, authority types.Pubkey, amount uint64) error {
	if err := from.CheckWritable(); err != nil {
		return err
	}
	if err := to.CheckWritable(); err != nil {
		return err
	}
	src, err := Load(from)
	if err != nil {
		return err
	}
	dst, err := Load(to)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.Owner != authority {
		return fmt.Errorf("%w: %s", ErrOwnerMismatch, from.Key)
	}
	if from.Key == to.Key {
		return nil
	}
	left, err := num.SubU64(src.Amount, amount)
	if err != nil {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from.Key, src.Amount, amount)
	}
	credited, err := num.AddU64(dst.Amount, amount)
	if err != nil {
		return err
	}
	src.Amount, dst.Amount = left, credited
	store(from, src)
	store(to, dst)
	return nil
}

// CloseAccountSigned closes an empty token account owned by a derived signer.
func CloseAccountSigned(acc *accounts.AccountInfo, seeds [][]byte, programID types.Pubkey) error {
	signer, err := types.CreateProgramAddress(seeds, programID)
	if err != nil {
		return err
	}
	a, err := Load(acc)
	if err != nil {
		return err
	}
	if a.Owner != signer {
		return fmt.Errorf("%w: %s", ErrOwnerMismatch, acc.Key)
	}
	if a.Amount != 0 {
		return fmt.Errorf("%w: %s", ErrNonZeroBalance, acc.Key)
	}
	return acc.Close()
}
