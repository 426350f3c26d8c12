// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import "github.com/luxfi/geth/common"

// Log is one emitted contract event.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// Name returns the event name of l according to a, or "" if l was not emitted
// from a.
func (a ABI) Name(l Log) string {
	if len(l.Topics) == 0 {
		return ""
	}
	ev, err := a.EventByID(l.Topics[0])
	if err != nil {
		return ""
	}
	return ev.Name
}

// Sink buffers logs emitted during one transaction. The owner of the
// transaction publishes them only after the state writes commit.
type Sink struct {
	logs []Log
}

func NewSink() *Sink { return &Sink{} }

// Emit packs an event of a and appends it as a log of addr.
func (s *Sink) Emit(a ABI, addr common.Address, name string, args ...interface{}) error {
	topics, data, err := a.PackEvent(name, args...)
	if err != nil {
		return err
	}
	s.logs = append(s.logs, Log{Address: addr, Topics: topics, Data: data})
	return nil
}

// Logs returns the buffered logs in emission order.
func (s *Sink) Logs() []Log {
	return s.logs
}
