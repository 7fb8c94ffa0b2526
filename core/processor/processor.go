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
	"context"
	"fmt"
	"sync"
	"time"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/logging"
	"code.vegaprotocol.io/dex/metrics"
)

// Broker sends the events produced by committed operations.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.vegaprotocol.io/dex/core/processor Broker
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// TimeService provides the time stamped on created markets.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/time_service_mock.go -package mocks code.vegaprotocol.io/dex/core/processor TimeService
type TimeService interface {
	GetTimeNow() time.Time
}

// Ledger opens atomic transactions over the accounts of an instruction.
type Ledger interface {
	Begin(metas []types.AccountMeta, signers []types.Pubkey) (*accounts.Txn, error)
}

// Processor executes the instructions of the exchange program. Every
// instruction runs in its own ledger transaction: either all of its account
// changes are committed or none is.
type Processor struct {
	log         *logging.Logger
	mu          sync.RWMutex
	cfg         Config
	programID   types.Pubkey
	ledger      Ledger
	broker      Broker
	fee         *fee.Engine
	timeService TimeService
}

// New creates a processor for the given program identity.
func New(
	log *logging.Logger,
	cfg Config,
	programID types.Pubkey,
	ledger Ledger,
	broker Broker,
	feeEngine *fee.Engine,
	timeService TimeService,
) *Processor {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Processor{
		log:         log,
		cfg:         cfg,
		programID:   programID,
		ledger:      ledger,
		broker:      broker,
		fee:         feeEngine,
		timeService: timeService,
	}
}

// ReloadConf updates the internal configuration of the processor.
func (p *Processor) ReloadConf(cfg Config) {
	p.log.Info("reloading configuration")
	if p.log.GetLevel() != cfg.Level.Get() {
		p.log.Info("updating log level",
			logging.String("old", p.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		p.log.SetLevel(cfg.Level.Get())
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}

func (p *Processor) config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// ProgramID returns the identity of the program the processor executes.
func (p *Processor) ProgramID() types.Pubkey {
	return p.programID
}

// call carries the state of one instruction being processed.
type call struct {
	ctx  context.Context
	accs []*accounts.AccountInfo
	evts []events.Event
}

func (c *call) account(i int) (*accounts.AccountInfo, error) {
	if i >= len(c.accs) {
		return nil, fmt.Errorf("%w: need account %d, got %d", instruction.ErrNotEnoughAccounts, i, len(c.accs))
	}
	return c.accs[i], nil
}

func (c *call) emit(e events.Event) {
	c.evts = append(c.evts, e)
}

// Process decodes and executes one instruction. The signers are the
// identities which signed the submission. Events are only sent once the
// changes are committed.
func (p *Processor) Process(ctx context.Context, ix instruction.Instruction, signers []types.Pubkey) error {
	if ix.ProgramID != p.programID {
		return fmt.Errorf("%w: %s", ErrInvalidProgramID, ix.ProgramID)
	}
	tag, params, err := instruction.Decode(ix.Data)
	if err != nil {
		metrics.InstructionCounterInc("invalid", "error")
		return err
	}
	defer metrics.EngineTimeCounterAdd(time.Now(), "all", "processor", tag.String())

	if err := p.process(ctx, tag, params, ix.Accounts, signers); err != nil {
		metrics.InstructionCounterInc(tag.String(), "error")
		if p.log.IsDebug() {
			p.log.Debug("instruction failed",
				logging.Stringer("instruction", tag),
				logging.Error(err),
			)
		}
		return err
	}
	metrics.InstructionCounterInc(tag.String(), "ok")
	return nil
}

func (p *Processor) process(
	ctx context.Context,
	tag instruction.Tag,
	params instruction.Params,
	metas []types.AccountMeta,
	signers []types.Pubkey,
) error {
	txn, err := p.ledger.Begin(metas, signers)
	if err != nil {
		return err
	}
	defer txn.Discard()

	c := &call{ctx: ctx, accs: txn.Accounts()}
	switch params := params.(type) {
	case *instruction.CreateMarketParams:
		err = p.createMarket(c, params)
	case *instruction.NewOrderParams:
		err = p.newOrder(c, params)
	case *instruction.CancelOrderParams:
		err = p.cancelOrder(c, params)
	case *instruction.ConsumeEventsParams:
		err = p.consumeEvents(c, params)
	case *instruction.SettleParams:
		err = p.settle(c)
	case *instruction.InitializeAccountParams:
		err = p.initializeAccount(c, params)
	case *instruction.SweepFeesParams:
		err = p.sweepFees(c)
	case *instruction.CloseAccountParams:
		err = p.closeAccount(c)
	case *instruction.CloseMarketParams:
		err = p.closeMarket(c)
	case *instruction.UpdateRoyaltiesParams:
		err = p.updateRoyalties(c)
	case *instruction.SwapParams:
		err = p.swap(c, params)
	default:
		err = fmt.Errorf("%w: %s", instruction.ErrUnknownInstruction, tag)
	}
	if err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}

	if p.config().LogInstructions {
		p.log.Info("instruction processed",
			logging.Stringer("instruction", tag),
			logging.Int("events", len(c.evts)),
		)
	}
	if len(c.evts) > 0 {
		p.broker.SendBatch(c.evts)
	}
	return nil
}
