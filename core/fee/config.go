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

package fee

import (
	"fmt"

	"code.vegaprotocol.io/dex/config/encoding"
	"code.vegaprotocol.io/dex/libs/errors"
	"code.vegaprotocol.io/dex/libs/num"
	"code.vegaprotocol.io/dex/logging"
)

const namedLogger = "fee"

// Config represents the configuration of the fee engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// Default is the schedule proposed to new markets when none is given.
	Default ScheduleConfig `group:"Default" namespace:"default"`
}

// ScheduleConfig is the human readable form of a Schedule, rates being
// decimal fractions such as "0.0004".
type ScheduleConfig struct {
	Thresholds []uint64 `long:"thresholds" description:"Discount token holdings reaching each tier"`
	TakerRates []string `long:"taker-rates" description:"Taker rate of each tier"`
	MakerRates []string `long:"maker-rates" description:"Maker rebate rate of each tier"`
	Premium    bool     `long:"premium" description:"Last tier is reached by holding the premium token"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:   encoding.NewLogLevel(logging.InfoLevel),
		Default: ScheduleConfigFrom(DefaultSchedule()),
	}
}

// ScheduleConfigFrom renders a schedule in its configuration form.
func ScheduleConfigFrom(s Schedule) ScheduleConfig {
	sc := ScheduleConfig{
		Thresholds: append([]uint64(nil), s.Thresholds...),
		TakerRates: make([]string, 0, len(s.TakerRates)),
		MakerRates: make([]string, 0, len(s.MakerRates)),
		Premium:    s.Premium,
	}
	for _, r := range s.TakerRates {
		sc.TakerRates = append(sc.TakerRates, num.FP32ToDecimal(r).String())
	}
	for _, r := range s.MakerRates {
		sc.MakerRates = append(sc.MakerRates, num.FP32ToDecimal(r).String())
	}
	return sc
}

// Schedule converts the configuration into a validated schedule. All the
// rates that fail to parse are reported together.
func (c ScheduleConfig) Schedule() (Schedule, error) {
	errs := errors.NewCumulatedErrors()
	s := Schedule{
		Thresholds: append([]uint64(nil), c.Thresholds...),
		TakerRates: parseRates("taker", c.TakerRates, errs),
		MakerRates: parseRates("maker", c.MakerRates, errs),
		Premium:    c.Premium,
	}
	if errs.HasAny() {
		return Schedule{}, errs
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func parseRates(kind string, in []string, errs *errors.CumulatedErrors) []uint64 {
	out := make([]uint64, 0, len(in))
	for i, r := range in {
		d, err := num.DecimalFromString(r)
		if err != nil {
			errs.Add(fmt.Errorf("%s rate %d: %w", kind, i, err))
			continue
		}
		fp, err := num.FP32FromDecimal(d)
		if err != nil {
			errs.Add(fmt.Errorf("%s rate %d: %w", kind, i, err))
			continue
		}
		out = append(out, fp)
	}
	return out
}
