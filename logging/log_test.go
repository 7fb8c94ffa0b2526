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

package logging_test

import (
	"testing"

	"code.vegaprotocol.io/dex/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logging.Level{
		"debug":   logging.DebugLevel,
		"INFO":    logging.InfoLevel,
		"warning": logging.WarnLevel,
		"warn":    logging.WarnLevel,
		"error":   logging.ErrorLevel,
	} {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := logging.ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNamedLoggers(t *testing.T) {
	log := logging.NewTestLogger()
	assert.Equal(t, "root", log.GetName())

	processor := log.Named("processor")
	assert.Equal(t, "processor", processor.GetName())
	assert.Equal(t, "processor.fee", processor.Named("fee").GetName())

	processor.SetLevel(logging.DebugLevel)
	assert.True(t, processor.IsDebug())
	assert.False(t, log.IsDebug())
}

func TestLoggerFromConfig(t *testing.T) {
	cfg := logging.NewDefaultConfig()
	cfg.Environment = "prod"
	cfg.Level = logging.ErrorLevel

	log := logging.NewLoggerFromConfig(cfg)
	assert.Equal(t, logging.ErrorLevel, log.GetLevel())
}
