// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state provides typed contract storage on top of luxfi/database.
//
// Every contract owns a prefixed namespace of the underlying database. Record
// keys inside a namespace are BLAKE3(prefix || id...), so maps keyed by
// addresses, chain ids or message hashes share a fixed 32 byte key width.
// Missing records read as the zero value and writing a zero value deletes the
// record, which mirrors how EVM storage slots behave.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Store is a typed view over one storage namespace.
type Store struct {
	db database.Database
}

// New scopes db to the given namespace prefix.
func New(db database.Database, prefix []byte) *Store {
	return &Store{db: prefixdb.New(prefix, db)}
}

// ForContract scopes db to the storage of the contract at addr.
func ForContract(db database.Database, addr common.Address) *Store {
	return New(db, addr.Bytes())
}

// Key derives a record key from a prefix and any number of identifiers.
func Key(prefix []byte, ids ...[]byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	for _, id := range ids {
		h.Write(id)
	}
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// Uint8Key, Uint64Key and AddressKey are helpers for common map ids.
func Uint8Key(v uint8) []byte { return []byte{v} }

func Uint64Key(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func AddressKey(addr common.Address) []byte { return addr.Bytes() }

// Bytes returns the raw record at key, or nil when absent.
func (s *Store) Bytes(key common.Hash) ([]byte, error) {
	v, err := s.db.Get(key[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read %x: %w", key[:4], err)
	}
	return v, nil
}

// SetBytes writes a raw record. An empty value deletes it.
func (s *Store) SetBytes(key common.Hash, v []byte) error {
	if len(v) == 0 {
		return s.Delete(key)
	}
	if err := s.db.Put(key[:], v); err != nil {
		return fmt.Errorf("state: write %x: %w", key[:4], err)
	}
	return nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(key common.Hash) error {
	if err := s.db.Delete(key[:]); err != nil {
		return fmt.Errorf("state: delete %x: %w", key[:4], err)
	}
	return nil
}

// Has reports whether a record is present.
func (s *Store) Has(key common.Hash) (bool, error) {
	ok, err := s.db.Has(key[:])
	if err != nil {
		return false, fmt.Errorf("state: has %x: %w", key[:4], err)
	}
	return ok, nil
}

// Uint256 reads a 32 byte big endian integer.
func (s *Store) Uint256(key common.Hash) (*uint256.Int, error) {
	v, err := s.Bytes(key)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(v), nil
}

func (s *Store) SetUint256(key common.Hash, v *uint256.Int) error {
	if v == nil || v.IsZero() {
		return s.Delete(key)
	}
	b := v.Bytes32()
	return s.SetBytes(key, b[:])
}

func (s *Store) Address(key common.Hash) (common.Address, error) {
	v, err := s.Bytes(key)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(v), nil
}

func (s *Store) SetAddress(key common.Hash, addr common.Address) error {
	if addr == (common.Address{}) {
		return s.Delete(key)
	}
	return s.SetBytes(key, addr.Bytes())
}

func (s *Store) Hash(key common.Hash) (common.Hash, error) {
	v, err := s.Bytes(key)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(v), nil
}

func (s *Store) SetHash(key common.Hash, h common.Hash) error {
	if h == (common.Hash{}) {
		return s.Delete(key)
	}
	return s.SetBytes(key, h.Bytes())
}

func (s *Store) Uint64(key common.Hash) (uint64, error) {
	v, err := s.Bytes(key)
	if err != nil || len(v) == 0 {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("state: record %x has %d bytes, want 8", key[:4], len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (s *Store) SetUint64(key common.Hash, v uint64) error {
	if v == 0 {
		return s.Delete(key)
	}
	return s.SetBytes(key, Uint64Key(v))
}

func (s *Store) Uint8(key common.Hash) (uint8, error) {
	v, err := s.Bytes(key)
	if err != nil || len(v) == 0 {
		return 0, err
	}
	return v[len(v)-1], nil
}

func (s *Store) SetUint8(key common.Hash, v uint8) error {
	if v == 0 {
		return s.Delete(key)
	}
	return s.SetBytes(key, []byte{v})
}

func (s *Store) Bool(key common.Hash) (bool, error) {
	v, err := s.Bytes(key)
	if err != nil {
		return false, err
	}
	return len(v) > 0 && v[0] != 0, nil
}

func (s *Store) SetBool(key common.Hash, v bool) error {
	if !v {
		return s.Delete(key)
	}
	return s.SetBytes(key, []byte{1})
}
