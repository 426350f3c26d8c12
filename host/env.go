// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package host defines what contracts need from the chain they run on: the
// transaction environment, a token ledger and transactional storage.
package host

import (
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/events"
)

// Env describes the transaction currently executing.
type Env interface {
	// Caller is the authenticated account that invoked the entry point.
	Caller() common.Address
	// ChainID is the bridge chain id of this chain. It fits one message byte.
	ChainID() uint8
	BlockNumber() uint64
}

// StaticEnv is a fixed Env.
type StaticEnv struct {
	From  common.Address
	Chain uint8
	Block uint64
}

func (e StaticEnv) Caller() common.Address { return e.From }
func (e StaticEnv) ChainID() uint8         { return e.Chain }
func (e StaticEnv) BlockNumber() uint64    { return e.Block }

type callerEnv struct {
	Env
	caller common.Address
}

func (e callerEnv) Caller() common.Address { return e.caller }

// Frame is everything a contract entry point executes against. All frames of
// one transaction share the same database, ledger and event sink.
type Frame struct {
	Env    Env
	Ledger Ledger
	DB     database.Database
	Events *events.Sink
}

// As returns a frame for a nested call made by the contract at caller.
func (f *Frame) As(caller common.Address) *Frame {
	return &Frame{
		Env:    callerEnv{Env: f.Env, caller: caller},
		Ledger: f.Ledger,
		DB:     f.DB,
		Events: f.Events,
	}
}

// Caller is shorthand for f.Env.Caller().
func (f *Frame) Caller() common.Address {
	return f.Env.Caller()
}
