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

package processor

import (
	"code.vegaprotocol.io/dex/config/encoding"
	"code.vegaprotocol.io/dex/logging"
)

const namedLogger = "processor"

// Config represent the configuration of the processor.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// LogInstructions logs every processed instruction at info level.
	LogInstructions encoding.Bool `long:"log-instructions"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.NewLogLevel(logging.InfoLevel),
	}
}
