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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/core/matching"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/logging"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
)

var (
	title = color.New(color.FgMagenta, color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

type InspectCmd struct {
	HomeFlag

	Args struct {
		Account types.Pubkey `positional-arg-name:"ACCOUNT" description:"market, user account or orderbook identity"`
	} `positional-args:"yes" required:"yes"`
}

var inspectCmd InspectCmd

// marketView is the printed form of a market ledger and its book.
type marketView struct {
	*state.MarketState
	EventQueueLen int              `json:"event_queue_len"`
	Bids          []matching.Level `json:"bids"`
	Asks          []matching.Level `json:"asks"`
	Closed        bool             `json:"book_closed"`
}

type userAccountView struct {
	state.UserAccountHeader
	Capacity int           `json:"capacity"`
	Orders   []state.Order `json:"orders"`
}

func (opts *InspectCmd) Execute(_ []string) error {
	_, cfg, err := opts.load()
	if err != nil {
		return err
	}
	log := logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()

	store, err := openStore(log, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	return inspect(os.Stdout, store, opts.Args.Account)
}

func inspect(w io.Writer, store *accounts.LevelDBStore, key types.Pubkey) error {
	acc, err := store.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", title("account"), key)
	fmt.Fprintf(w, "%s %s, %d bytes\n", faint("owner"), acc.Owner, len(acc.Data))

	var view interface{}
	switch state.ReadTag(acc.Data) {
	case state.AccountTagMarket:
		m, err := state.LoadMarket(acc.Data)
		if err != nil {
			return err
		}
		mv := marketView{MarketState: &m.MarketState}
		if ob, err := store.Get(m.Orderbook); err == nil {
			if book, err := matching.Load(ob.Data); err == nil {
				mv.EventQueueLen = book.EventQueueLen()
				mv.Bids = book.Levels(types.SideBid)
				mv.Asks = book.Levels(types.SideAsk)
				mv.Closed = book.IsClosed()
			}
		}
		view = mv
	case state.AccountTagUserAccount:
		u, err := state.LoadUserAccount(acc.Data)
		if err != nil {
			return err
		}
		view = userAccountView{
			UserAccountHeader: u.Header,
			Capacity:          u.Capacity(),
			Orders:            u.Orders(),
		}
	default:
		if book, err := matching.Load(acc.Data); err == nil {
			view = struct {
				Params        matching.Params  `json:"params"`
				EventQueueLen int              `json:"event_queue_len"`
				Bids          []matching.Level `json:"bids"`
				Asks          []matching.Level `json:"asks"`
			}{book.Params(), book.EventQueueLen(), book.Levels(types.SideBid), book.Levels(types.SideAsk)}
		} else {
			fmt.Fprintf(w, "%s %s\n", faint("tag"), state.ReadTag(acc.Data))
			return nil
		}
	}

	buf, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(buf))
	return nil
}

func Inspect(_ context.Context, parser *flags.Parser) error {
	inspectCmd = InspectCmd{}

	short := "Print an account"
	long := "Decode and print a market ledger, a user account or an orderbook"

	_, err := parser.AddCommand("inspect", short, long, &inspectCmd)
	return err
}
