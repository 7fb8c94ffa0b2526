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

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"code.vegaprotocol.io/dex/broker"
	"code.vegaprotocol.io/dex/config"
	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/core/processor"
	"code.vegaprotocol.io/dex/core/timeservice"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/cranker"
	"code.vegaprotocol.io/dex/logging"
	"code.vegaprotocol.io/dex/metrics"

	"github.com/jessevdk/go-flags"
)

type CrankCmd struct {
	HomeFlag

	Markets []types.Pubkey `short:"m" long:"market" required:"true" description:"Market to crank, can be repeated"`
}

var crankCmd CrankCmd

func (opts *CrankCmd) Execute(_ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root, cfg, err := opts.load()
	if err != nil {
		return err
	}

	log := logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()

	if err := metrics.Start(log, cfg.Metrics); err != nil {
		return err
	}

	store, err := openStore(log, cfg.Store)
	if err != nil {
		return fmt.Errorf("couldn't open the account database: %w", err)
	}
	defer store.Close()

	brk, err := broker.New(log, cfg.Broker)
	if err != nil {
		return err
	}
	defer brk.Close()

	feeEngine := fee.New(log, cfg.Fee)
	proc := processor.New(log, cfg.Processor, cfg.ProgramID, store, brk, feeEngine, timeservice.New())
	crk := cranker.New(log, cfg.Cranker, cfg.ProgramID, store, proc)

	watcher, err := config.NewFromFile(ctx, log, root)
	if err != nil {
		return err
	}
	watcher.OnConfigUpdate(
		func(cfg config.Config) { log.SetLevel(cfg.Logging.Level) },
		func(cfg config.Config) { feeEngine.ReloadConf(cfg.Fee) },
		func(cfg config.Config) { proc.ReloadConf(cfg.Processor) },
		func(cfg config.Config) { brk.ReloadConf(cfg.Broker) },
		func(cfg config.Config) { crk.ReloadConf(cfg.Cranker) },
	)

	log.Info("cranking markets", logging.Int("markets", len(opts.Markets)))
	if err := crk.Run(ctx, opts.Markets); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("cranker stopped")
	return nil
}

func Crank(_ context.Context, parser *flags.Parser) error {
	crankCmd = CrankCmd{}

	short := "Consume the event queues of markets"
	long := "Repeatedly run consume events on the given markets until interrupted"

	_, err := parser.AddCommand("crank", short, long, &crankCmd)
	return err
}
