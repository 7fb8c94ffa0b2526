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
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/matching"
	"code.vegaprotocol.io/dex/core/processor"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/logging"
	"code.vegaprotocol.io/dex/metrics"

	"github.com/cenkalti/backoff/v4"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/submitter_mock.go -package mocks code.vegaprotocol.io/dex/cranker Submitter

// Submitter executes instructions on behalf of the driver. The processor
// satisfies it when the driver runs in process.
type Submitter interface {
	Process(ctx context.Context, ix instruction.Instruction, signers []types.Pubkey) error
}

// AccountReader gives access to the committed accounts.
type AccountReader interface {
	Get(key types.Pubkey) (accounts.Account, error)
}

// Cranker drives the consumption of the event queues of a set of markets.
// It holds no privilege: consuming events is permissionless.
type Cranker struct {
	log       *logging.Logger
	programID types.Pubkey
	reader    AccountReader
	submitter Submitter

	mu  sync.RWMutex
	cfg Config
}

// New creates a new crank driver.
func New(log *logging.Logger, cfg Config, programID types.Pubkey, reader AccountReader, submitter Submitter) *Cranker {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Cranker{
		log:       log,
		cfg:       cfg,
		programID: programID,
		reader:    reader,
		submitter: submitter,
	}
}

// ReloadConf updates the internal configuration of the driver.
func (c *Cranker) ReloadConf(cfg Config) {
	c.log.Info("reloading configuration")
	if c.log.GetLevel() != cfg.Level.Get() {
		c.log.Info("updating log level",
			logging.String("old", c.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		c.log.SetLevel(cfg.Level.Get())
	}
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

func (c *Cranker) config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// CollectUserAccounts returns the user accounts the queued events need,
// sorted and without duplicates. The oldest events are served first, the
// list stops growing at max accounts.
func CollectUserAccounts(evts []types.Event, max int) []types.Pubkey {
	seen := map[types.Pubkey]struct{}{}
	keys := []types.Pubkey{}
collect:
	for _, e := range evts {
		for _, k := range e.UserAccounts() {
			if _, ok := seen[k]; ok {
				continue
			}
			if len(keys) >= max {
				break collect
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
	return keys
}

// queue reads the event queue of a market.
func (c *Cranker) queue(market types.Pubkey) (*state.Market, []types.Event, error) {
	acc, err := c.reader.Get(market)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read market %s: %w", market, err)
	}
	m, err := state.LoadMarket(acc.Data)
	if err != nil {
		return nil, nil, err
	}
	acc, err = c.reader.Get(m.Orderbook)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read orderbook %s: %w", m.Orderbook, err)
	}
	book, err := matching.Load(acc.Data)
	if err != nil {
		return nil, nil, err
	}
	return m, book.PeekEvents(-1), nil
}

// Crank runs one crank on a market and returns the number of events which
// were queued before the run. Nothing is submitted for an empty queue.
func (c *Cranker) Crank(ctx context.Context, market types.Pubkey) (int, error) {
	defer metrics.CrankDurationObserve(time.Now(), market.String())
	cfg := c.config()

	m, evts, err := c.queue(market)
	if err != nil {
		return 0, err
	}
	if len(evts) == 0 {
		return 0, nil
	}
	users := CollectUserAccounts(evts, cfg.MaxUserAccounts)
	ix := instruction.NewConsumeEvents(c.programID, instruction.ConsumeEventsAccounts{
		Market:       market,
		Orderbook:    m.Orderbook,
		UserAccounts: users,
	}, instruction.ConsumeEventsParams{
		MaxIterations: cfg.MaxIterations,
		NoOpErr:       true,
	})

	op := func() error {
		err := c.submitter.Process(ctx, ix, nil)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, processor.ErrNoOp):
			// another cranker got there first
			c.log.Debug("nothing consumed", logging.Market(market))
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(err)
		}
		c.log.Warn("crank failed",
			logging.Market(market),
			logging.Int("user-accounts", len(users)),
			logging.Error(err),
		)
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.Retries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return len(evts), err
	}
	if c.log.IsDebug() {
		c.log.Debug("market cranked",
			logging.Market(market),
			logging.Int("queued", len(evts)),
			logging.Int("user-accounts", len(users)),
		)
	}
	return len(evts), nil
}

// Run cranks the given markets until the context is cancelled. A market
// with a backlog is cranked again right away, the driver only waits for
// the poll interval once every queue was found empty.
func (c *Cranker) Run(ctx context.Context, markets []types.Pubkey) error {
	c.log.Info("starting cranker", logging.Int("markets", len(markets)))
	for {
		busy := false
		for _, market := range markets {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			queued, err := c.Crank(ctx, market)
			if err != nil {
				c.log.Error("could not crank market", logging.Market(market), logging.Error(err))
				continue
			}
			busy = busy || queued > 0
		}
		cfg := c.config()
		wait := cfg.PollInterval.Get()
		if busy {
			wait = 0
		}
		select {
		case <-ctx.Done():
			c.log.Info("stopping cranker")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
