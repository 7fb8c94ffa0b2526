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

// Package encoding holds the configuration value types which need a text
// form, so that they read the same in the TOML file and on the command line.
package encoding

import (
	"fmt"
	"strconv"
	"time"

	"code.vegaprotocol.io/dex/logging"
)

// Duration is a time.Duration written as "500ms" or "2s".
type Duration struct {
	time.Duration
}

func (d *Duration) Get() time.Duration {
	return d.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("duration must not be negative, got %s", v)
	}
	d.Duration = v
	return nil
}

func (d *Duration) UnmarshalFlag(s string) error {
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LogLevel is a logging level written by name.
type LogLevel struct {
	logging.Level
}

func NewLogLevel(l logging.Level) LogLevel {
	return LogLevel{Level: l}
}

func (l *LogLevel) Get() logging.Level {
	return l.Level
}

func (l *LogLevel) UnmarshalText(text []byte) error {
	lvl, err := logging.ParseLevel(string(text))
	if err != nil {
		return err
	}
	l.Level = lvl
	return nil
}

func (l *LogLevel) UnmarshalFlag(s string) error {
	return l.UnmarshalText([]byte(s))
}

func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Bool is a flag value which must be spelled out, "--enabled true".
type Bool bool

func (b *Bool) UnmarshalFlag(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil || (s != "true" && s != "false") {
		return fmt.Errorf("only `true' and `false' are valid values, not `%s'", s)
	}
	*b = Bool(v)
	return nil
}
