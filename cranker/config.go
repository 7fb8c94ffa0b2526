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

package cranker

import (
	"time"

	"code.vegaprotocol.io/dex/config/encoding"
	"code.vegaprotocol.io/dex/logging"
)

const (
	namedLogger = "cranker"

	// defaultMaxUserAccounts bounds the accounts passed to one crank run.
	defaultMaxUserAccounts = 20
	defaultMaxIterations   = 10
)

// Config represent the configuration of the crank driver.
type Config struct {
	Level           encoding.LogLevel `long:"log-level"`
	PollInterval    encoding.Duration `long:"poll-interval" description:"Time to wait between two polls of the event queues"`
	MaxUserAccounts int               `long:"max-user-accounts" description:"Maximum number of user accounts passed to one crank run"`
	MaxIterations   uint64            `long:"max-iterations" description:"Maximum number of events consumed by one crank run"`
	Retries         uint64            `long:"retries" description:"Number of retries of a failed crank run"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.NewLogLevel(logging.InfoLevel),
		PollInterval:    encoding.Duration{Duration: 500 * time.Millisecond},
		MaxUserAccounts: defaultMaxUserAccounts,
		MaxIterations:   defaultMaxIterations,
		Retries:         3,
	}
}
