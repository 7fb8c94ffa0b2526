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

package accounts

import (
	"bytes"
	"errors"
	"fmt"

	"code.vegaprotocol.io/dex/core/types"
)

var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrAccountNotWritable      = errors.New("account is not writable")
	ErrAccountAlreadyInUse     = errors.New("account already in use")
	ErrReadonlyAccountModified = errors.New("read only account modified")
	ErrMissingSignature        = errors.New("missing required signature")
	ErrTxnDone                 = errors.New("transaction already committed or discarded")
	ErrCorruptedAccount        = errors.New("corrupted account record")
)

// Account is the stored form of a ledger account.
type Account struct {
	Owner types.Pubkey
	Data  []byte
}

// IsEmpty reports whether the account was never allocated or was closed.
func (a Account) IsEmpty() bool {
	return a.Owner.IsZero() && len(a.Data) == 0
}

func (a Account) marshal() []byte {
	out := make([]byte, 0, types.PubkeyLen+len(a.Data))
	out = append(out, a.Owner[:]...)
	return append(out, a.Data...)
}

func unmarshalAccount(b []byte) (Account, error) {
	if len(b) < types.PubkeyLen {
		return Account{}, ErrCorruptedAccount
	}
	var a Account
	copy(a.Owner[:], b[:types.PubkeyLen])
	a.Data = append([]byte(nil), b[types.PubkeyLen:]...)
	return a, nil
}

// AccountInfo is the view of an account handed to an operation. Data is a
// private copy, changes only reach the store when the transaction commits.
type AccountInfo struct {
	Key        types.Pubkey
	Owner      types.Pubkey
	IsSigner   bool
	IsWritable bool
	Data       []byte

	origOwner types.Pubkey
	origData  []byte
}

func newAccountInfo(meta types.AccountMeta, acc Account) *AccountInfo {
	return &AccountInfo{
		Key:        meta.Key,
		Owner:      acc.Owner,
		IsSigner:   meta.IsSigner,
		IsWritable: meta.IsWritable,
		Data:       append([]byte(nil), acc.Data...),
		origOwner:  acc.Owner,
		origData:   acc.Data,
	}
}

// IsEmpty reports whether the account holds no data and no owner.
func (a *AccountInfo) IsEmpty() bool {
	return a.Owner.IsZero() && len(a.Data) == 0
}

// Allocate creates the account with a zeroed buffer of the given size.
func (a *AccountInfo) Allocate(size uint64, owner types.Pubkey) error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, a.Key)
	}
	if !a.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, a.Key)
	}
	a.Owner = owner
	a.Data = make([]byte, size)
	return nil
}

// Close deletes the account when the transaction commits.
func (a *AccountInfo) Close() error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, a.Key)
	}
	a.Owner = types.ZeroPubkey
	a.Data = nil
	return nil
}

// CheckWritable fails if the account was not declared writable.
func (a *AccountInfo) CheckWritable() error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, a.Key)
	}
	return nil
}

func (a *AccountInfo) modified() bool {
	return a.Owner != a.origOwner || !bytes.Equal(a.Data, a.origData)
}

func (a *AccountInfo) account() Account {
	return Account{Owner: a.Owner, Data: a.Data}
}
