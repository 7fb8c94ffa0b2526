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
	"sort"
	"sync"

	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/logging"
)

// Subscriber receives the events of the types it subscribed to. An empty
// list of types, or events.All, subscribes to everything.
type Subscriber interface {
	Push(evts ...events.Event)
	Types() []events.Type
}

// Broker fans events out to subscribers synchronously, in the order they are
// sent, and optionally streams them over a socket.
type Broker struct {
	log    *logging.Logger
	mu     sync.Mutex
	subs   map[int]Subscriber
	keys   []int
	seq    uint64
	sender *SocketSender
}

// New creates a new broker, dialing the event socket when enabled.
func New(log *logging.Logger, config Config) (*Broker, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	b := &Broker{
		log:  log,
		subs: map[int]Subscriber{},
		keys: []int{},
	}
	if config.Socket.Enabled {
		sender, err := NewSocketSender(log, config.Socket)
		if err != nil {
			return nil, err
		}
		b.sender = sender
	}
	return b, nil
}

// ReloadConf updates the internal configuration.
func (b *Broker) ReloadConf(cfg Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		b.log.SetLevel(cfg.Level.Get())
	}
}

// Send sends an event to all subscribers.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch sends a slice of events, sequence ids are assigned in order.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	b.mu.Lock()
	for _, e := range evts {
		b.seq++
		e.SetSequenceID(b.seq)
	}
	subs := make([]Subscriber, 0, len(b.subs))
	for _, k := range b.sortedKeys() {
		subs = append(subs, b.subs[k])
	}
	b.mu.Unlock()

	for _, s := range subs {
		if filtered := filter(s.Types(), evts); len(filtered) > 0 {
			s.Push(filtered...)
		}
	}

	if b.sender == nil {
		return
	}
	for _, e := range evts {
		if err := b.sender.Send(e); err != nil {
			b.log.Warn("could not stream event",
				logging.String("event-type", e.Type().String()),
				logging.Uint64("sequence", e.Sequence()),
				logging.Error(err))
		}
	}
}

func filter(types []events.Type, evts []events.Event) []events.Event {
	if len(types) == 0 {
		return evts
	}
	want := map[events.Type]struct{}{}
	for _, t := range types {
		if t == events.All {
			return evts
		}
		want[t] = struct{}{}
	}
	out := make([]events.Event, 0, len(evts))
	for _, e := range evts {
		if _, ok := want[e.Type()]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Subscribe registers a new subscriber, returning the key.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := b.getKey()
	b.subs[k] = s
	return k
}

// Unsubscribe removes subscriber from broker.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[k]; !ok {
		return
	}
	delete(b.subs, k)
	b.keys = append(b.keys, k)
}

func (b *Broker) getKey() int {
	if len(b.keys) > 0 {
		k := b.keys[0]
		b.keys = b.keys[1:] // pop first element
		return k
	}
	return len(b.subs) + 1 // add  1 to avoid zero value
}

func (b *Broker) sortedKeys() []int {
	keys := make([]int, 0, len(b.subs))
	for k := range b.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Close closes the event socket if any.
func (b *Broker) Close() error {
	if b.sender != nil {
		return b.sender.Close()
	}
	return nil
}
