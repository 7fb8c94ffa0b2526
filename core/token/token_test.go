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

package token_test

import (
	"testing"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/token"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *accounts.LevelDBStore
	mint  types.Pubkey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := accounts.NewMemStore(logging.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &fixture{store: s, mint: types.NewUniquePubkey()}
}

func (f *fixture) tokenAccount(t *testing.T, owner types.Pubkey, amount uint64) types.Pubkey {
	t.Helper()
	key := types.NewUniquePubkey()
	require.NoError(t, f.store.Put(key, token.NewAccount(f.mint, owner, amount)))
	return key
}

func (f *fixture) balance(t *testing.T, key types.Pubkey) uint64 {
	t.Helper()
	acc, err := f.store.Get(key)
	require.NoError(t, err)
	a, err := token.Unpack(acc.Data)
	require.NoError(t, err)
	return a.Amount
}

func TestPack(t *testing.T) {
	d := types.NewUniquePubkey()
	a := token.Account{
		Mint:     types.NewUniquePubkey(),
		Owner:    types.NewUniquePubkey(),
		Amount:   42,
		Delegate: &d,
	}
	b, err := token.Unpack(a.Pack())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = token.Unpack([]byte{1})
	assert.ErrorIs(t, err, token.ErrInvalidTokenAccount)
}

func TestTransfer(t *testing.T) {
	t.Run("wallet transfer moves funds", func(t *testing.T) {
		f := newFixture(t)
		wallet := types.NewUniquePubkey()
		src := f.tokenAccount(t, wallet, 100)
		dst := f.tokenAccount(t, types.NewUniquePubkey(), 0)

		txn, err := f.store.Begin([]types.AccountMeta{
			types.NewAccountMeta(src, false),
			types.NewAccountMeta(dst, false),
			types.NewReadonlyAccountMeta(wallet, true),
		}, []types.Pubkey{wallet})
		require.NoError(t, err)
		a := txn.Accounts()
		require.NoError(t, token.Transfer(a[0], a[1], a[2], 60))
		require.NoError(t, txn.Commit())

		assert.Equal(t, uint64(40), f.balance(t, src))
		assert.Equal(t, uint64(60), f.balance(t, dst))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		f := newFixture(t)
		wallet := types.NewUniquePubkey()
		src := f.tokenAccount(t, wallet, 10)
		dst := f.tokenAccount(t, types.NewUniquePubkey(), 0)

		txn, err := f.store.Begin([]types.AccountMeta{
			types.NewAccountMeta(src, false),
			types.NewAccountMeta(dst, false),
			types.NewReadonlyAccountMeta(wallet, true),
		}, []types.Pubkey{wallet})
		require.NoError(t, err)
		defer txn.Discard()
		a := txn.Accounts()
		assert.ErrorIs(t, token.Transfer(a[0], a[1], a[2], 11), token.ErrInsufficientFunds)
	})

	t.Run("authority must own the source", func(t *testing.T) {
		f := newFixture(t)
		thief := types.NewUniquePubkey()
		src := f.tokenAccount(t, types.NewUniquePubkey(), 10)
		dst := f.tokenAccount(t, thief, 0)

		txn, err := f.store.Begin([]types.AccountMeta{
			types.NewAccountMeta(src, false),
			types.NewAccountMeta(dst, false),
			types.NewReadonlyAccountMeta(thief, true),
		}, []types.Pubkey{thief})
		require.NoError(t, err)
		defer txn.Discard()
		a := txn.Accounts()
		assert.ErrorIs(t, token.Transfer(a[0], a[1], a[2], 1), token.ErrOwnerMismatch)
	})

	t.Run("authority must sign", func(t *testing.T) {
		f := newFixture(t)
		wallet := types.NewUniquePubkey()
		src := f.tokenAccount(t, wallet, 10)
		dst := f.tokenAccount(t, types.NewUniquePubkey(), 0)

		txn, err := f.store.Begin([]types.AccountMeta{
			types.NewAccountMeta(src, false),
			types.NewAccountMeta(dst, false),
			types.NewReadonlyAccountMeta(wallet, false),
		}, nil)
		require.NoError(t, err)
		defer txn.Discard()
		a := txn.Accounts()
		assert.ErrorIs(t, token.Transfer(a[0], a[1], a[2], 1), token.ErrMissingSignature)
	})

	t.Run("mints must match", func(t *testing.T) {
		f := newFixture(t)
		wallet := types.NewUniquePubkey()
		src := f.tokenAccount(t, wallet, 10)
		dst := types.NewUniquePubkey()
		require.NoError(t, f.store.Put(dst, token.NewAccount(types.NewUniquePubkey(), wallet, 0)))

		txn, err := f.store.Begin([]types.AccountMeta{
			types.NewAccountMeta(src, false),
			types.NewAccountMeta(dst, false),
			types.NewReadonlyAccountMeta(wallet, true),
		}, []types.Pubkey{wallet})
		require.NoError(t, err)
		defer txn.Discard()
		a := txn.Accounts()
		assert.ErrorIs(t, token.Transfer(a[0], a[1], a[2], 1), token.ErrMintMismatch)
	})

	t.Run("derived signer transfer", func(t *testing.T) {
		f := newFixture(t)
		program := types.NewUniquePubkey()
		market := types.NewUniquePubkey()
		seeds := [][]byte{market[:], {7}}
		signer, err := types.CreateProgramAddress(seeds, program)
		require.NoError(t, err)
		vault := f.tokenAccount(t, signer, 50)
		dst := f.tokenAccount(t, types.NewUniquePubkey(), 0)

		txn, err := f.store.Begin([]types.AccountMeta{
			types.NewAccountMeta(vault, false),
			types.NewAccountMeta(dst, false),
		}, nil)
		require.NoError(t, err)
		a := txn.Accounts()
		assert.ErrorIs(t, token.TransferSigned(a[0], a[1], [][]byte{market[:], {8}}, program, 1), token.ErrOwnerMismatch)
		require.NoError(t, token.TransferSigned(a[0], a[1], seeds, program, 50))
		require.NoError(t, token.CloseAccountSigned(a[0], seeds, program))
		require.NoError(t, txn.Commit())

		_, err = f.store.Get(vault)
		assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
		assert.Equal(t, uint64(50), f.balance(t, dst))
	})
}
