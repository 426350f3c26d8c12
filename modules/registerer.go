// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/luxfi/geth/common"
)

// AddressRange represents a continuous range of addresses
type AddressRange struct {
	Start common.Address
	End   common.Address
}

// Contains returns true iff [addr] is contained within the (inclusive)
// range of addresses defined by [a].
func (a *AddressRange) Contains(addr common.Address) bool {
	addrBytes := addr.Bytes()
	return bytes.Compare(addrBytes, a.Start[:]) >= 0 && bytes.Compare(addrBytes, a.End[:]) <= 0
}

// BlackholeAddr is the address where assets are burned
var BlackholeAddr = common.Address{
	1, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Reserved address ranges for bridge deployments
//
// 0x6000-0x6FFF: Bridges and messaging (bridge, messenger, gas oracle)
// 0x9000-0x9FFF: Pools and markets
var reservedRanges = map[Kind]AddressRange{
	KindBridge:    bridgeRange,
	KindMessenger: bridgeRange,
	KindGasOracle: bridgeRange,
	KindPool: {
		Start: common.HexToAddress("0x0000000000000000000000000000000000009000"),
		End:   common.HexToAddress("0x0000000000000000000000000000000000009fff"),
	},
}

var bridgeRange = AddressRange{
	Start: common.HexToAddress("0x0000000000000000000000000000000000006000"),
	End:   common.HexToAddress("0x0000000000000000000000000000000000006fff"),
}

// ReservedAddress returns true if [addr] is in the reserved range for [kind]
func ReservedAddress(kind Kind, addr common.Address) bool {
	r, ok := reservedRanges[kind]
	return ok && r.Contains(addr)
}

// Registry holds the deployed modules of one chain, ordered by address.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a module after checking that its address is in the range of
// its kind and that neither its key nor its address is taken.
func (r *Registry) Register(stm Module) error {
	address := stm.Address
	key := stm.ConfigKey

	if address == BlackholeAddr {
		return fmt.Errorf("address %s overlaps with blackhole address", address)
	}
	if !ReservedAddress(stm.Kind, address) {
		return fmt.Errorf("address %s not in the reserved range for %s", address, stm.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, registered := range r.modules {
		if registered.ConfigKey == key {
			return fmt.Errorf("name %s already used by a module", key)
		}
		if registered.Address == address {
			return fmt.Errorf("address %s already used by a module", address)
		}
	}
	// sort by address to ensure deterministic iteration
	r.modules = insertSortedByAddress(r.modules, stm)
	return nil
}

func (r *Registry) ByAddress(address common.Address) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stm := range r.modules {
		if stm.Address == address {
			return stm, true
		}
	}
	return Module{}, false
}

func (r *Registry) ByKey(key string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stm := range r.modules {
		if stm.ConfigKey == key {
			return stm, true
		}
	}
	return Module{}, false
}

// ByKind returns the modules of kind in address order.
func (r *Registry) ByKind(kind Kind) []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Module
	for _, stm := range r.modules {
		if stm.Kind == kind {
			out = append(out, stm)
		}
	}
	return out
}

func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Module(nil), r.modules...)
}

func insertSortedByAddress(data []Module, stm Module) []Module {
	data = append(data, stm)
	sort.Sort(moduleArray(data))
	return data
}
