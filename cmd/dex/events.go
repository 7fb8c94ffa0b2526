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
	"code.vegaprotocol.io/dex/logging"

	"github.com/jessevdk/go-flags"
)

type EventsCmd struct {
	HomeFlag

	Address string `long:"address" description:"Address to listen on, defaults to the broker socket address"`
}

var eventsCmd EventsCmd

func (opts *EventsCmd) Execute(_ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, cfg, err := opts.load()
	if err != nil {
		return err
	}
	log := logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()

	addr := opts.Address
	if addr == "" {
		addr = cfg.Broker.Socket.Address
	}
	recv, err := broker.NewSocketReceiver(log, addr)
	if err != nil {
		return err
	}
	defer recv.Close()

	ch := make(chan broker.Envelope)
	go func() {
		for env := range ch {
			fmt.Printf("%s %-20s %s %s\n", title(env.Sequence), env.Type, faint(env.Market), env.Payload)
		}
	}()
	log.Info("listening for events", logging.String("address", addr))
	err = recv.Receive(ctx, ch)
	close(ch)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func Events(_ context.Context, parser *flags.Parser) error {
	eventsCmd = EventsCmd{}

	short := "Print streamed events"
	long := "Listen on the broker socket and print every event received"

	_, err := parser.AddCommand("events", short, long, &eventsCmd)
	return err
}
