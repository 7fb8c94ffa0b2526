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

//lint:file-ignore SA5008 duplicated struct tags are ok for config

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"code.vegaprotocol.io/dex/broker"
	"code.vegaprotocol.io/dex/config/encoding"
	"code.vegaprotocol.io/dex/core/fee"
	"code.vegaprotocol.io/dex/core/processor"
	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/cranker"
	"code.vegaprotocol.io/dex/logging"
	"code.vegaprotocol.io/dex/metrics"

	"github.com/BurntSushi/toml"
)

const (
	configFileName     = "config.toml"
	defaultProgramSeed = "dex"
)

// Config ties together all other application configuration types.
type Config struct {
	// ProgramID is the identity owning every market and user account.
	ProgramID types.Pubkey `long:"program-id" description:"identity of the exchange program"`

	Logging   logging.Config   `group:"Logging" namespace:"logging"`
	Store     StoreConfig      `group:"Store" namespace:"store"`
	Fee       fee.Config       `group:"Fee" namespace:"fee"`
	Processor processor.Config `group:"Processor" namespace:"processor"`
	Broker    broker.Config    `group:"Broker" namespace:"broker"`
	Metrics   metrics.Config   `group:"Metrics" namespace:"metrics"`
	Cranker   cranker.Config   `group:"Cranker" namespace:"cranker"`
}

// StoreConfig locates the account database.
type StoreConfig struct {
	Path     string        `long:"path" description:"directory of the account database"`
	InMemory encoding.Bool `long:"in-memory" choice:"true" choice:"false" description:"keep accounts in memory only"`
}

// NewDefaultConfig returns the default configuration of every package, the
// account database living under the given root path.
func NewDefaultConfig(rootPath string) Config {
	return Config{
		ProgramID: types.PubkeyFromSeed(defaultProgramSeed),
		Logging:   logging.NewDefaultConfig(),
		Store: StoreConfig{
			Path: filepath.Join(rootPath, "accounts"),
		},
		Fee:       fee.NewDefaultConfig(),
		Processor: processor.NewDefaultConfig(),
		Broker:    broker.NewDefaultConfig(),
		Metrics:   metrics.NewDefaultConfig(),
		Cranker:   cranker.NewDefaultConfig(),
	}
}

// Validate checks the parts of the configuration which are not checked when
// the owning package is instantiated.
func (c Config) Validate() error {
	if _, err := c.Fee.Default.Schedule(); err != nil {
		return fmt.Errorf("invalid default fee schedule: %w", err)
	}
	if c.ProgramID.IsZero() {
		return fmt.Errorf("program id is required")
	}
	if c.Cranker.MaxUserAccounts <= 0 {
		return fmt.Errorf("cranker max user accounts must be positive, got %d", c.Cranker.MaxUserAccounts)
	}
	if !bool(c.Store.InMemory) && c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	return nil
}

// Path returns the location of the configuration file under rootPath.
func Path(rootPath string) string {
	return filepath.Join(rootPath, configFileName)
}

// Read loads the configuration file under rootPath on top of the defaults.
func Read(rootPath string) (*Config, error) {
	buf, err := os.ReadFile(Path(rootPath))
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig(rootPath)
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", Path(rootPath), err)
	}
	return &cfg, nil
}

// Save writes the configuration under rootPath. An existing file is only
// replaced when overwrite is set.
func Save(rootPath string, cfg Config, overwrite bool) (string, error) {
	path := Path(rootPath)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return "", fmt.Errorf("configuration already exists at path: %v", path)
	}
	if err := os.MkdirAll(rootPath, 0o700); err != nil {
		return "", fmt.Errorf("could not create %s: %w", rootPath, err)
	}

	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
