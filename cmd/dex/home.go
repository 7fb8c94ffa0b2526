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
	"fmt"
	"os"
	"path/filepath"

	"code.vegaprotocol.io/dex/config"
	"code.vegaprotocol.io/dex/core/accounts"
	"code.vegaprotocol.io/dex/logging"
)

// HomeFlag locates the configuration and the account database.
type HomeFlag struct {
	Home string `long:"home" description:"Path to the dex home directory (default: $HOME/.dex)"`
}

func (h HomeFlag) root() (string, error) {
	if h.Home != "" {
		return h.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("couldn't locate the home directory: %w", err)
	}
	return filepath.Join(home, ".dex"), nil
}

func (h HomeFlag) load() (string, *config.Config, error) {
	root, err := h.root()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Read(root)
	if err != nil {
		return "", nil, fmt.Errorf("couldn't read configuration, run init first: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

func openStore(log *logging.Logger, cfg config.StoreConfig) (*accounts.LevelDBStore, error) {
	if cfg.InMemory {
		return accounts.NewMemStore(log)
	}
	return accounts.NewLevelDBStore(log, cfg.Path)
}
