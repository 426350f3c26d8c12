// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/bridge"
	"github.com/luxfi/xbridge/gasoracle"
	"github.com/luxfi/xbridge/host"
	"github.com/luxfi/xbridge/messenger"
	"github.com/luxfi/xbridge/pool"
)

// Call is one transaction in progress. Contracts obtained from it are bound to
// the transaction's caller and state.
type Call struct {
	rt     *Runtime
	frame  *host.Frame
	ledger *host.StateLedger
}

func (c *Call) Frame() *host.Frame { return c.frame }

func (c *Call) Ledger() *host.StateLedger { return c.ledger }

func (c *Call) address(key string) (common.Address, error) {
	m, ok := c.rt.registry.ByKey(key)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNotDeployed, key)
	}
	return m.Address, nil
}

func (c *Call) Bridge() (*bridge.Bridge, error) {
	addr, err := c.address(BridgeKey)
	if err != nil {
		return nil, err
	}
	return bridge.New(c.frame, addr), nil
}

func (c *Call) Messenger() (*messenger.Messenger, error) {
	addr, err := c.address(MessengerKey)
	if err != nil {
		return nil, err
	}
	return messenger.New(c.frame, addr), nil
}

func (c *Call) GasOracle() (*gasoracle.Oracle, error) {
	addr, err := c.address(GasOracleKey)
	if err != nil {
		return nil, err
	}
	return gasoracle.New(c.frame, addr), nil
}

// Pool returns the pool of token.
func (c *Call) Pool(token common.Address) (*pool.Pool, error) {
	addr, err := c.address(PoolKey(token))
	if err != nil {
		return nil, err
	}
	return pool.New(c.frame, addr), nil
}
