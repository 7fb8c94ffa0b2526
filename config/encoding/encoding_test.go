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

package encoding_test

import (
	"testing"
	"time"

	"code.vegaprotocol.io/dex/config/encoding"
	"code.vegaprotocol.io/dex/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	var d encoding.Duration
	require.NoError(t, d.UnmarshalFlag("250ms"))
	assert.Equal(t, 250*time.Millisecond, d.Get())

	txt, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "250ms", string(txt))

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
	assert.Equal(t, 250*time.Millisecond, d.Get())
}

func TestLogLevel(t *testing.T) {
	var l encoding.LogLevel
	require.NoError(t, l.UnmarshalText([]byte("warning")))
	assert.Equal(t, logging.WarnLevel, l.Get())

	txt, err := encoding.NewLogLevel(logging.DebugLevel).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Debug", string(txt))

	assert.Error(t, l.UnmarshalFlag("loud"))
	assert.Equal(t, logging.WarnLevel, l.Get())
}

func TestBool(t *testing.T) {
	var b encoding.Bool
	require.NoError(t, b.UnmarshalFlag("true"))
	assert.True(t, bool(b))
	require.NoError(t, b.UnmarshalFlag("false"))
	assert.False(t, bool(b))
	assert.Error(t, b.UnmarshalFlag("1"))
}
