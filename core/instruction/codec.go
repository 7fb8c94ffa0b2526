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
	"encoding/binary"
	"fmt"

	"code.vegaprotocol.io/dex/core/types"
)

type encoder struct {
	b []byte
}

func (e *encoder) u8(v uint8) { e.b = append(e.b, v) }
func (e *encoder) u32(v uint32) {
	e.b = binary.LittleEndian.AppendUint32(e.b, v)
}

func (e *encoder) u64(v uint64) {
	e.b = binary.LittleEndian.AppendUint64(e.b, v)
}
func (e *encoder) pubkey(p types.Pubkey) { e.b = append(e.b, p[:]...) }
func (e *encoder) pad(n int)             { e.b = append(e.b, make([]byte, n)...) }

func (e *encoder) bool(v bool) {
	if v {
		e.u8(1)
		return
	}
	e.u8(0)
}

type decoder struct {
	b   []byte
	off int
}

func newDecoder(data []byte, size int, tag Tag) (*decoder, error) {
	if len(data) != size {
		return nil, fmt.Errorf("%w: %s expects %d bytes, got %d", ErrInvalidInstructionData, tag, size, len(data))
	}
	return &decoder{b: data}, nil
}

func (d *decoder) u8() uint8 {
	v := d.b[d.off]
	d.off++
	return v
}

func (d *decoder) u32() uint32 {
	v := binary.LittleEndian.Uint32(d.b[d.off:])
	d.off += 4
	return v
}

func (d *decoder) u64() uint64 {
	v := binary.LittleEndian.Uint64(d.b[d.off:])
	d.off += 8
	return v
}

func (d *decoder) pubkey() types.Pubkey {
	var p types.Pubkey
	copy(p[:], d.b[d.off:])
	d.off += types.PubkeyLen
	return p
}

func (d *decoder) pad(n int) { d.off += n }

func (d *decoder) bool() (bool, error) {
	switch d.u8() {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: invalid boolean", ErrInvalidInstructionData)
	}
}
