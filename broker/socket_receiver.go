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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"code.vegaprotocol.io/dex/logging"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol"
	"go.nanomsg.org/mangos/v3/protocol/pull"
)

const receivePollInterval = 200 * time.Millisecond

// SocketReceiver listens for the events streamed by a SocketSender.
type SocketReceiver struct {
	log  *logging.Logger
	sock protocol.Socket
}

func NewSocketReceiver(log *logging.Logger, address string) (*SocketReceiver, error) {
	sock, err := pull.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create new socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, receivePollInterval); err != nil {
		return nil, fmt.Errorf("failed to set receive deadline: %w", err)
	}
	if err := sock.Listen(address); err != nil {
		return nil, fmt.Errorf("failed to listen on %v: %w", address, err)
	}
	return &SocketReceiver{
		log:  log.Named(namedLogger),
		sock: sock,
	}, nil
}

// Receive forwards envelopes to ch until the context is cancelled or the
// socket is closed.
func (s *SocketReceiver) Receive(ctx context.Context, ch chan<- Envelope) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		msg, err := s.sock.Recv()
		if err != nil {
			if errors.Is(err, mangos.ErrRecvTimeout) {
				continue
			}
			if errors.Is(err, mangos.ErrClosed) {
				return err
			}
			s.log.Error("failed to receive message", logging.Error(err))
			continue
		}
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			s.log.Warn("dropping malformed event", logging.Error(err))
			continue
		}
		select {
		case ch <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *SocketReceiver) Close() error {
	return s.sock.Close()
}
