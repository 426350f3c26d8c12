// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

// ABI wraps a parsed contract ABI and packs its events into log entries.
type ABI struct {
	abi.ABI
}

// ParseABI parses the raw ABI JSON. It panics on malformed input since
// contract ABIs are compiled into the binary.
func ParseABI(rawABI string) ABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return ABI{ABI: parsed}
}

// PackEvent packs the given event name and arguments.
// Returns the topics for the event and the packed data of non-indexed args.
func (a ABI) PackEvent(name string, args ...interface{}) ([]common.Hash, []byte, error) {
	event, exist := a.Events[name]
	if !exist {
		return nil, nil, fmt.Errorf("event '%s' not found", name)
	}
	if len(args) != len(event.Inputs) {
		return nil, nil, fmt.Errorf("event '%s' unexpected number of inputs %d", name, len(args))
	}

	var (
		nonIndexedInputs = make([]interface{}, 0, len(args))
		nonIndexedArgs   abi.Arguments
		topics           = make([]common.Hash, 0, len(args)+1)
	)
	if !event.Anonymous {
		topics = append(topics, event.ID)
	}

	for i, arg := range event.Inputs {
		if !arg.Indexed {
			nonIndexedArgs = append(nonIndexedArgs, arg)
			nonIndexedInputs = append(nonIndexedInputs, args[i])
			continue
		}
		topic, err := packTopic(args[i])
		if err != nil {
			return nil, nil, fmt.Errorf("event '%s' input %s: %w", name, arg.Name, err)
		}
		topics = append(topics, topic)
	}

	data, err := nonIndexedArgs.Pack(nonIndexedInputs...)
	if err != nil {
		return nil, nil, err
	}
	return topics, data, nil
}

// UnpackData decodes the non-indexed fields of a log into a map keyed by
// argument name.
func (a ABI) UnpackData(name string, data []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if err := a.UnpackIntoMap(out, name, data); err != nil {
		return nil, err
	}
	return out, nil
}

func packTopic(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case common.Address:
		return common.BytesToHash(v.Bytes()), nil
	case common.Hash:
		return v, nil
	case [32]byte:
		return common.Hash(v), nil
	case *big.Int:
		return common.BigToHash(v), nil
	case uint8:
		return common.BigToHash(new(big.Int).SetUint64(uint64(v))), nil
	case []byte:
		return common.BytesToHash(crypto.Keccak256(v)), nil
	case string:
		return common.BytesToHash(crypto.Keccak256([]byte(v))), nil
	default:
		return common.Hash{}, fmt.Errorf("unsupported indexed type: %T", value)
	}
}
