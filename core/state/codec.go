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
	"encoding/binary"

	"code.vegaprotocol.io/dex/core/types"
)

// cursor walks a fixed layout little endian record.
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) u8() uint8 {
	v := c.b[c.off]
	c.off++
	return v
}

func (c *cursor) putU8(v uint8) {
	c.b[c.off] = v
	c.off++
}

func (c *cursor) u32() uint32 {
	v := binary.LittleEndian.Uint32(c.b[c.off:])
	c.off += 4
	return v
}

func (c *cursor) putU32(v uint32) {
	binary.LittleEndian.PutUint32(c.b[c.off:], v)
	c.off += 4
}

func (c *cursor) u64() uint64 {
	v := binary.LittleEndian.Uint64(c.b[c.off:])
	c.off += 8
	return v
}

func (c *cursor) putU64(v uint64) {
	binary.LittleEndian.PutUint64(c.b[c.off:], v)
	c.off += 8
}

func (c *cursor) pubkey() types.Pubkey {
	var p types.Pubkey
	copy(p[:], c.b[c.off:c.off+types.PubkeyLen])
	c.off += types.PubkeyLen
	return p
}

func (c *cursor) putPubkey(p types.Pubkey) {
	copy(c.b[c.off:], p[:])
	c.off += types.PubkeyLen
}

func (c *cursor) skip(n int) {
	for i := 0; i < n; i++ {
		c.b[c.off+i] = 0
	}
	c.off += n
}

func (c *cursor) pass(n int) {
	c.off += n
}
