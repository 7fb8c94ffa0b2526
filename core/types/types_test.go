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

package types_test

import (
	"testing"

	"code.vegaprotocol.io/dex/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubkey(t *testing.T) {
	t.Run("text form round trips", func(t *testing.T) {
		p := types.PubkeyFromSeed("alice")
		txt, err := p.MarshalText()
		require.NoError(t, err)

		var got types.Pubkey
		require.NoError(t, got.UnmarshalFlag(string(txt)))
		assert.Equal(t, p, got)
	})

	t.Run("short keys are rejected", func(t *testing.T) {
		_, err := types.PubkeyFromString("abc")
		assert.ErrorIs(t, err, types.ErrInvalidPubkey)
		_, err = types.PubkeyFromBytes(make([]byte, 31))
		assert.ErrorIs(t, err, types.ErrInvalidPubkey)
	})

	t.Run("unique keys differ", func(t *testing.T) {
		a, b := types.NewUniquePubkey(), types.NewUniquePubkey()
		assert.NotEqual(t, a, b)
		assert.False(t, a.IsZero())
		assert.NotZero(t, a.Compare(b))
		assert.Equal(t, -a.Compare(b), b.Compare(a))
	})

	t.Run("market signer is derived from the nonce", func(t *testing.T) {
		program := types.PubkeyFromSeed("program")
		market := types.PubkeyFromSeed("market")

		signer, nonce, err := types.FindProgramAddress([][]byte{market[:]}, program)
		require.NoError(t, err)
		again, err := types.MarketSignerAddress(market, nonce, program)
		require.NoError(t, err)
		assert.Equal(t, signer, again)

		other, err := types.MarketSignerAddress(market, nonce, types.PubkeyFromSeed("other"))
		require.NoError(t, err)
		assert.NotEqual(t, signer, other)
	})

	t.Run("seeds are bounded", func(t *testing.T) {
		_, err := types.CreateProgramAddress([][]byte{make([]byte, 33)}, types.ZeroPubkey)
		assert.ErrorIs(t, err, types.ErrMaxSeedLenExceeds)
		_, err = types.CreateProgramAddress(make([][]byte, 17), types.ZeroPubkey)
		assert.ErrorIs(t, err, types.ErrMaxSeedsExceeded)
	})
}

func TestOrderID(t *testing.T) {
	price := uint64(1024) << 32

	ask := types.NewOrderID(types.SideAsk, price, 7)
	assert.Equal(t, types.SideAsk, ask.Side())
	assert.Equal(t, price, ask.Price())
	assert.Equal(t, uint64(7), ask.Sequence())

	bid := types.NewOrderID(types.SideBid, price, 7)
	assert.Equal(t, types.SideBid, bid.Side())
	assert.Equal(t, uint64(7), bid.Sequence())
	assert.NotEqual(t, ask, bid)

	buf := make([]byte, types.OrderIDLen)
	bid.PutBytes(buf)
	assert.Equal(t, bid, types.OrderIDFromBytes(buf))

	cid := types.NewClientOrderID(42)
	cid.PutBytes(buf)
	assert.Equal(t, cid, types.ClientOrderIDFromBytes(buf))
	assert.Equal(t, "42", cid.String())
}

func TestCallbackInfo(t *testing.T) {
	user := types.PubkeyFromSeed("bob")
	cb := types.NewCallbackInfo(user, 3, true)

	tier, referred := cb.Tier()
	assert.Equal(t, uint8(3), tier)
	assert.True(t, referred)

	b, err := cb.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, types.CallbackInfoLen)

	var got types.CallbackInfo
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, cb, got)
	assert.ErrorIs(t, got.UnmarshalBinary(b[:5]), types.ErrInvalidCallbackInfo)

	tier, referred = types.NewCallbackInfo(user, 2, false).Tier()
	assert.Equal(t, uint8(2), tier)
	assert.False(t, referred)
}

func TestSide(t *testing.T) {
	assert.Equal(t, types.SideAsk, types.SideBid.Opposite())
	assert.Equal(t, types.SideBid, types.SideAsk.Opposite())
	assert.False(t, types.Side(2).IsValid())
	assert.Equal(t, "side(2)", types.Side(2).String())
}
