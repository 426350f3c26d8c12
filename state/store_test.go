// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestStoreZeroValues(t *testing.T) {
	s := New(memdb.New(), []byte("t"))
	key := Key([]byte("k"))

	v, err := s.Uint256(key)
	require.NoError(t, err)
	require.True(t, v.IsZero())

	addr, err := s.Address(key)
	require.NoError(t, err)
	require.Equal(t, common.Address{}, addr)

	ok, err := s.Bool(key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreRoundTrip(t *testing.T) {
	s := New(memdb.New(), []byte("t"))

	require.NoError(t, s.SetUint256(Key([]byte("u")), uint256.NewInt(42)))
	require.NoError(t, s.SetAddress(Key([]byte("a")), common.HexToAddress("0x01")))
	require.NoError(t, s.SetUint64(Key([]byte("n")), 7))
	require.NoError(t, s.SetUint8(Key([]byte("b")), 3))
	require.NoError(t, s.SetBool(Key([]byte("f")), true))

	u, err := s.Uint256(Key([]byte("u")))
	require.NoError(t, err)
	require.Equal(t, uint64(42), u.Uint64())

	a, err := s.Address(Key([]byte("a")))
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x01"), a)

	n, err := s.Uint64(Key([]byte("n")))
	require.NoError(t, err)
	require.Equal(t, uint64(7), n)

	b, err := s.Uint8(Key([]byte("b")))
	require.NoError(t, err)
	require.Equal(t, uint8(3), b)

	f, err := s.Bool(Key([]byte("f")))
	require.NoError(t, err)
	require.True(t, f)
}

func TestStoreZeroDeletes(t *testing.T) {
	s := New(memdb.New(), []byte("t"))
	key := Key([]byte("u"))

	require.NoError(t, s.SetUint256(key, uint256.NewInt(1)))
	ok, err := s.Has(key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.SetUint256(key, new(uint256.Int)))
	ok, err = s.Has(key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNamespacesAreIsolated(t *testing.T) {
	db := memdb.New()
	a := ForContract(db, common.HexToAddress("0x6001"))
	b := ForContract(db, common.HexToAddress("0x6002"))
	key := Key([]byte("admin"))

	require.NoError(t, a.SetAddress(key, common.HexToAddress("0xaa")))
	got, err := b.Address(key)
	require.NoError(t, err)
	require.Equal(t, common.Address{}, got)
}

func TestKeyDependsOnIDs(t *testing.T) {
	require.NotEqual(t, Key([]byte("p"), []byte{1}), Key([]byte("p"), []byte{2}))
	require.Equal(t, Key([]byte("p"), []byte{1, 2}), Key([]byte("p"), []byte{1}, []byte{2}))
}

func TestSet(t *testing.T) {
	set := NewSet(New(memdb.New(), []byte("t")), []byte("sent"))
	member := common.HexToHash("0xabcd")

	ok, err := set.Has(member)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, set.AddWithMarker(member, 0))
	ok, err = set.Has(member)
	require.NoError(t, err)
	require.True(t, ok)

	marker, err := set.Marker(member)
	require.NoError(t, err)
	require.Equal(t, uint64(1), marker)

	require.NoError(t, set.Remove(member))
	ok, err = set.Has(member)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAtomic(t *testing.T) {
	db := memdb.New()
	key := Key([]byte("v"))

	err := Atomic(db, func(tx database.Database) error {
		return New(tx, []byte("t")).SetUint64(key, 1)
	})
	require.NoError(t, err)

	err = Atomic(db, func(tx database.Database) error {
		require.NoError(t, New(tx, []byte("t")).SetUint64(key, 2))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	v, err := New(db, []byte("t")).Uint64(key)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)
}
