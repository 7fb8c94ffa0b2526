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
	"fmt"

	"code.vegaprotocol.io/dex/config"
	"code.vegaprotocol.io/dex/logging"

	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	HomeFlag

	Force bool `short:"f" long:"force" description:"Erase existing configuration at the specified path"`
}

var initCmd InitCmd

func (opts *InitCmd) Execute(_ []string) error {
	logger := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer logger.AtExit()

	root, err := opts.root()
	if err != nil {
		return err
	}

	cfg := config.NewDefaultConfig(root)
	path, err := config.Save(root, cfg, opts.Force)
	if err != nil {
		return fmt.Errorf("couldn't save configuration file, re-run using -f to overwrite: %w", err)
	}

	store, err := openStore(logger, cfg.Store)
	if err != nil {
		return fmt.Errorf("couldn't initialise the account database: %w", err)
	}
	if err := store.Close(); err != nil {
		return err
	}

	logger.Info("configuration generated successfully", logging.String("path", path))
	return nil
}

func Init(_ context.Context, parser *flags.Parser) error {
	initCmd = InitCmd{}

	short := "Initializes a dex home"
	long := "Generate the configuration and the account database of a dex node"

	_, err := parser.AddCommand("init", short, long, &initCmd)
	return err
}
