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

package broker

import (
	"code.vegaprotocol.io/dex/config/encoding"
	"code.vegaprotocol.io/dex/logging"
)

const namedLogger = "broker"

// Config represents the configuration of the broker.
type Config struct {
	Level  encoding.LogLevel `long:"log-level"`
	Socket SocketConfig      `group:"Socket" namespace:"socket"`
}

// SocketConfig configures the stream of events pushed to a remote listener.
type SocketConfig struct {
	Enabled      encoding.Bool     `long:"enabled" description:"stream events over a push socket"`
	Address      string            `long:"address" description:"address of the listener, e.g. tcp://127.0.0.1:3005"`
	SendDeadline encoding.Duration `long:"send-deadline" description:"maximum time to wait for a listener when sending"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Socket: SocketConfig{
			Enabled:      false,
			Address:      "tcp://127.0.0.1:3005",
			SendDeadline: encoding.Duration{Duration: defaultSendDeadline},
		},
	}
}
