// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"bytes"

	"github.com/luxfi/geth/common"
)

// Kind is the contract type deployed at a module address.
type Kind uint8

const (
	KindGasOracle Kind = iota + 1
	KindMessenger
	KindBridge
	KindPool
)

func (k Kind) String() string {
	switch k {
	case KindGasOracle:
		return "gasOracle"
	case KindMessenger:
		return "messenger"
	case KindBridge:
		return "bridge"
	case KindPool:
		return "pool"
	default:
		return "unknown"
	}
}

// Module is one contract deployment.
type Module struct {
	// ConfigKey is the unique name of the deployment.
	ConfigKey string
	// Address is where the contract's storage lives.
	Address common.Address
	Kind    Kind
}

type moduleArray []Module

func (u moduleArray) Len() int {
	return len(u)
}

func (u moduleArray) Swap(i, j int) {
	u[i], u[j] = u[j], u[i]
}

func (m moduleArray) Less(i, j int) bool {
	return bytes.Compare(m[i].Address.Bytes(), m[j].Address.Bytes()) < 0
}
