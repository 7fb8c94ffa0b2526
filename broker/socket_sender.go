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
	"encoding/json"
	"fmt"
	"time"

	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/logging"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol"
	"go.nanomsg.org/mangos/v3/protocol/push"
	// transports used by the event stream
	_ "go.nanomsg.org/mangos/v3/transport/inproc"
	_ "go.nanomsg.org/mangos/v3/transport/tcp"
)

const defaultSendDeadline = 2 * time.Second

// Envelope is the wire form of an event sent over the socket.
type Envelope struct {
	Type     string          `json:"type"`
	Sequence uint64          `json:"sequence"`
	Market   string          `json:"market"`
	Payload  json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an event for the wire.
func NewEnvelope(e events.Event) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("could not marshal event %s: %w", e.Type(), err)
	}
	return Envelope{
		Type:     e.Type().String(),
		Sequence: e.Sequence(),
		Market:   e.MarketID(),
		Payload:  payload,
	}, nil
}

// SocketSender pushes the events sent to the broker to a remote listener.
// The dial is asynchronous so the listener may come up later.
type SocketSender struct {
	log  *logging.Logger
	sock protocol.Socket
}

func NewSocketSender(log *logging.Logger, config SocketConfig) (*SocketSender, error) {
	sock, err := push.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create new socket: %w", err)
	}
	deadline := config.SendDeadline.Get()
	if deadline <= 0 {
		deadline = defaultSendDeadline
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, deadline); err != nil {
		return nil, fmt.Errorf("failed to set send deadline: %w", err)
	}
	if err := sock.DialOptions(config.Address, map[string]interface{}{
		mangos.OptionDialAsynch: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to dial %v: %w", config.Address, err)
	}
	log.Info("streaming events", logging.String("address", config.Address))
	return &SocketSender{
		log:  log,
		sock: sock,
	}, nil
}

func (s SocketSender) Send(e events.Event) error {
	env, err := NewEnvelope(e)
	if err != nil {
		return err
	}
	buf, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := s.sock.Send(buf); err != nil {
		return fmt.Errorf("failed to send on socket: %w", err)
	}
	return nil
}

func (s SocketSender) Close() error {
	return s.sock.Close()
}
