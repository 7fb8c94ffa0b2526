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
	"code.vegaprotocol.io/dex/logging"
)

// Holding is the proof of discount a trader attaches to an order.
type Holding struct {
	// Amount of discount token held.
	Amount uint64
	// Premium is the amount of premium token held.
	Premium uint64
}

// Engine resolves fee tiers for the settlement processor.
type Engine struct {
	log *logging.Logger
	cfg Config
}

// New instantiates a fee engine.
func New(log *logging.Logger, cfg Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Engine{
		log: log,
		cfg: cfg,
	}
}

// ReloadConf updates the internal configuration.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.cfg = cfg
}

// DefaultSchedule returns the configured default schedule, falling back to
// the built in ladder when the configuration is invalid.
func (e *Engine) DefaultSchedule() Schedule {
	s, err := e.cfg.Default.Schedule()
	if err != nil {
		e.log.Warn("invalid default fee schedule in configuration, using the built in one",
			logging.Error(err))
		return DefaultSchedule()
	}
	return s
}

// Tier resolves the fee tier of an order. A nil holding yields the base tier.
func (e *Engine) Tier(s Schedule, h *Holding) uint8 {
	if h == nil {
		return 0
	}
	tier := s.TierForHoldings(h.Amount, h.Premium)
	if e.log.IsDebug() {
		e.log.Debug("resolved fee tier",
			logging.Uint64("holding", h.Amount),
			logging.Uint64("premium", h.Premium),
			logging.Uint8("tier", tier),
		)
	}
	return tier
}
