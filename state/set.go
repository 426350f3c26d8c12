// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "github.com/luxfi/geth/common"

// Set is a persistent membership set of 32 byte members stored under one
// prefix. Each member may carry a non-zero marker, such as the block number a
// message was first seen at.
type Set struct {
	store  *Store
	prefix []byte
}

// NewSet returns the set stored under prefix in s.
func NewSet(s *Store, prefix []byte) *Set {
	return &Set{store: s, prefix: prefix}
}

func (s *Set) key(member common.Hash) common.Hash {
	return Key(s.prefix, member[:])
}

// Has reports whether member was added.
func (s *Set) Has(member common.Hash) (bool, error) {
	return s.store.Has(s.key(member))
}

// Add inserts member with marker 1.
func (s *Set) Add(member common.Hash) error {
	return s.AddWithMarker(member, 1)
}

// AddWithMarker inserts member with the given marker. A zero marker is
// stored as 1 so that membership is never lost.
func (s *Set) AddWithMarker(member common.Hash, marker uint64) error {
	if marker == 0 {
		marker = 1
	}
	return s.store.SetUint64(s.key(member), marker)
}

// Marker returns the marker for member, zero when absent.
func (s *Set) Marker(member common.Hash) (uint64, error) {
	return s.store.Uint64(s.key(member))
}

func (s *Set) Remove(member common.Hash) error {
	return s.store.Delete(s.key(member))
}
