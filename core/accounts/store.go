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

package accounts

import (
	"errors"
	"fmt"
	"sync"

	"code.vegaprotocol.io/dex/core/types"
	"code.vegaprotocol.io/dex/logging"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

const namedLogger = "accounts"

// Store is the host ledger holding every account of the exchange.
type Store interface {
	Get(key types.Pubkey) (Account, error)
	Put(key types.Pubkey, acc Account) error
	Begin(metas []types.AccountMeta, signers []types.Pubkey) (*Txn, error)
	ForEach(fn func(key types.Pubkey, acc Account) bool) error
	Close() error
}

// LevelDBStore keeps accounts in a goleveldb database. Transactions are
// serialised: a transaction holds the store until it commits or discards.
type LevelDBStore struct {
	log *logging.Logger
	mu  sync.Mutex
	db  *leveldb.DB
}

// NewLevelDBStore opens or creates the database at the given path.
func NewLevelDBStore(log *logging.Logger, path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		Filter:          filter.NewBloomFilter(10),
		BlockCacher:     opt.NoCacher,
		OpenFilesCacher: opt.NoCacher,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open the account database: %w", err)
	}
	return newStore(log, db), nil
}

// NewMemStore returns a store backed by an in-memory goleveldb storage.
func NewMemStore(log *logging.Logger) (*LevelDBStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not open the in-memory account database: %w", err)
	}
	return newStore(log, db), nil
}

func newStore(log *logging.Logger, db *leveldb.DB) *LevelDBStore {
	return &LevelDBStore{
		log: log.Named(namedLogger),
		db:  db,
	}
}

func (s *LevelDBStore) get(key types.Pubkey) (Account, error) {
	v, err := s.db.Get(key[:], nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return unmarshalAccount(v)
}

// Get returns a committed account.
func (s *LevelDBStore) Get(key types.Pubkey) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key)
}

// Put writes an account outside of any transaction, used to seed the ledger.
func (s *LevelDBStore) Put(key types.Pubkey, acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.IsEmpty() {
		return s.db.Delete(key[:], nil)
	}
	return s.db.Put(key[:], acc.marshal(), nil)
}

// ForEach iterates over every committed account in key order until fn
// returns false.
func (s *LevelDBStore) ForEach(fn func(key types.Pubkey, acc Account) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		key, err := types.PubkeyFromBytes(it.Key())
		if err != nil {
			return err
		}
		acc, err := unmarshalAccount(it.Value())
		if err != nil {
			return err
		}
		if !fn(key, acc) {
			break
		}
	}
	return it.Error()
}

// Begin loads the declared accounts and locks the store until the returned
// transaction is committed or discarded. Accounts that do not exist yet are
// handed out empty. Every account declared as signer must be part of the
// signers.
func (s *LevelDBStore) Begin(metas []types.AccountMeta, signers []types.Pubkey) (*Txn, error) {
	signed := make(map[types.Pubkey]struct{}, len(signers))
	for _, k := range signers {
		signed[k] = struct{}{}
	}

	s.mu.Lock()
	t := &Txn{
		store: s,
		byKey: map[types.Pubkey]*AccountInfo{},
		infos: make([]*AccountInfo, 0, len(metas)),
	}
	for _, m := range metas {
		if _, ok := signed[m.Key]; m.IsSigner && !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrMissingSignature, m.Key)
		}
		// the same account listed twice shares one view
		if info, ok := t.byKey[m.Key]; ok {
			info.IsSigner = info.IsSigner || m.IsSigner
			info.IsWritable = info.IsWritable || m.IsWritable
			t.infos = append(t.infos, info)
			continue
		}
		acc, err := s.get(m.Key)
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			s.mu.Unlock()
			return nil, err
		}
		info := newAccountInfo(m, acc)
		t.byKey[m.Key] = info
		t.infos = append(t.infos, info)
	}
	return t, nil
}

// Close closes the underlying database.
func (s *LevelDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Txn is one atomic operation over a set of accounts.
type Txn struct {
	store *LevelDBStore
	infos []*AccountInfo
	byKey map[types.Pubkey]*AccountInfo
	done  bool
}

// Accounts returns the account views in declaration order.
func (t *Txn) Accounts() []*AccountInfo {
	return t.infos
}

// Commit writes every modified writable account in a single batch. A read
// only account that was modified fails the whole transaction.
func (t *Txn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	defer t.release()

	batch := new(leveldb.Batch)
	for key, info := range t.byKey {
		if !info.modified() {
			continue
		}
		if !info.IsWritable {
			return fmt.Errorf("%w: %s", ErrReadonlyAccountModified, key)
		}
		k := key
		if info.IsEmpty() {
			batch.Delete(k[:])
			continue
		}
		batch.Put(k[:], info.account().marshal())
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := t.store.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("could not commit accounts: %w", err)
	}
	return nil
}

// Discard drops every change. It is a no-op once the transaction is done.
func (t *Txn) Discard() {
	if t.done {
		return
	}
	t.release()
}

func (t *Txn) release() {
	t.done = true
	t.store.mu.Unlock()
}
