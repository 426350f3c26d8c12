// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runtime executes bridge entry points against one chain's database.
// Each call is atomic: its state writes, ledger transfers and events are kept
// only if the call returns nil.
package runtime

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/luxfi/xbridge/bridge"
	"github.com/luxfi/xbridge/config"
	"github.com/luxfi/xbridge/events"
	"github.com/luxfi/xbridge/gasoracle"
	"github.com/luxfi/xbridge/host"
	"github.com/luxfi/xbridge/messenger"
	"github.com/luxfi/xbridge/modules"
	"github.com/luxfi/xbridge/pool"
	"github.com/luxfi/xbridge/state"
)

var (
	ErrWrongChain  = errors.New("runtime: env is for another chain")
	ErrNotDeployed = errors.New("runtime: module not deployed")
)

// Module config keys in the registry.
const (
	GasOracleKey = "gasOracle"
	MessengerKey = "messenger"
	BridgeKey    = "bridge"
)

// PoolKey is the registry key of the pool for token.
func PoolKey(token common.Address) string {
	return "pool:" + token.Hex()
}

// Runtime owns one chain: its database, module registry and committed logs.
type Runtime struct {
	db       database.Database
	log      log.Logger
	chainID  uint8
	registry *modules.Registry
	metrics  *metrics

	mu    sync.Mutex
	block uint64
	logs  []events.Log
}

func New(db database.Database, logger log.Logger, chainID uint8) *Runtime {
	return &Runtime{
		db:       db,
		log:      logger,
		chainID:  chainID,
		registry: modules.NewRegistry(),
		metrics:  newMetrics(),
	}
}

func (r *Runtime) ChainID() uint8 { return r.chainID }

func (r *Runtime) Registry() *modules.Registry { return r.registry }

// Env returns the environment of the next block with caller as sender.
func (r *Runtime) Env(caller common.Address) host.Env {
	r.mu.Lock()
	r.block++
	block := r.block
	r.mu.Unlock()
	return host.StaticEnv{
		From:  caller,
		Chain: r.chainID,
		Block: block,
	}
}

// Attach registers the modules of cfg without touching state, for a
// database that was deployed before.
func (r *Runtime) Attach(cfg *config.Config) error {
	if cfg.ChainID != r.chainID {
		return fmt.Errorf("%w: config for %d, runtime on %d", ErrWrongChain, cfg.ChainID, r.chainID)
	}
	mods := []modules.Module{
		{ConfigKey: GasOracleKey, Address: cfg.GasOracle.Address, Kind: modules.KindGasOracle},
		{ConfigKey: MessengerKey, Address: cfg.Messenger.Address, Kind: modules.KindMessenger},
		{ConfigKey: BridgeKey, Address: cfg.Bridge.Address, Kind: modules.KindBridge},
	}
	for _, p := range cfg.Pools {
		mods = append(mods, modules.Module{ConfigKey: PoolKey(p.Token), Address: p.Address, Kind: modules.KindPool})
	}
	for _, m := range mods {
		if err := r.registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Deploy registers and initializes every module of cfg in one call made by
// the configured admin.
func (r *Runtime) Deploy(cfg *config.Config) error {
	if err := cfg.Verify(); err != nil {
		return err
	}
	if cfg.ChainID != r.chainID {
		return fmt.Errorf("%w: config for %d, runtime on %d", ErrWrongChain, cfg.ChainID, r.chainID)
	}
	_, err := r.Execute(r.Env(cfg.Admin), func(c *Call) error {
		return deploy(c, cfg)
	})
	if err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	if err := r.Attach(cfg); err != nil {
		return err
	}
	r.log.Info("deployed bridge",
		"chainID", cfg.ChainID,
		"bridge", cfg.Bridge.Address,
		"messenger", cfg.Messenger.Address,
		"gasOracle", cfg.GasOracle.Address,
		"pools", len(cfg.Pools),
	)
	return nil
}

func deploy(c *Call, cfg *config.Config) error {
	for _, p := range cfg.Pools {
		if err := c.ledger.Register(p.Token, p.Decimals); err != nil {
			return err
		}
	}

	oracle := gasoracle.New(c.frame, cfg.GasOracle.Address)
	if err := oracle.Initialize(cfg.Admin, cfg.ChainID, cfg.Decimals()); err != nil {
		return err
	}
	for _, p := range cfg.GasOracle.Chains {
		if err := oracle.SetChainData(p.ChainID, orZero(p.Price), orZero(p.GasPrice)); err != nil {
			return err
		}
	}

	m := messenger.New(c.frame, cfg.Messenger.Address)
	err := m.Initialize(messenger.Params{
		Admin:               cfg.Admin,
		ChainID:             cfg.ChainID,
		OtherChainIDs:       cfg.OtherChains(),
		GasOracle:           cfg.GasOracle.Address,
		PrimaryValidator:    cfg.Messenger.PrimaryValidator,
		SecondaryValidators: cfg.Messenger.SecondaryValidators,
	})
	if err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(cfg.Messenger.GasUsage)) {
		if err := m.SetGasUsage(id, uint256.NewInt(cfg.Messenger.GasUsage[id])); err != nil {
			return err
		}
	}

	b := bridge.New(c.frame, cfg.Bridge.Address)
	err = b.Initialize(bridge.Params{
		Admin:          cfg.Admin,
		ChainID:        cfg.ChainID,
		NativeDecimals: cfg.Decimals(),
		Messenger:      cfg.Messenger.Address,
		GasOracle:      cfg.GasOracle.Address,
		Rebalancer:     cfg.Bridge.Rebalancer,
		StopAuthority:  cfg.Bridge.StopAuthority,
	})
	if err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(cfg.Bridge.GasUsage)) {
		if err := b.SetGasUsage(id, uint256.NewInt(cfg.Bridge.GasUsage[id])); err != nil {
			return err
		}
	}
	for _, id := range slices.Sorted(maps.Keys(cfg.Bridge.OtherBridges)) {
		if err := b.RegisterBridge(id, cfg.Bridge.OtherBridges[id]); err != nil {
			return err
		}
	}
	for _, id := range slices.Sorted(maps.Keys(cfg.Bridge.BridgeTokens)) {
		for _, token := range cfg.Bridge.BridgeTokens[id] {
			if err := b.AddBridgeToken(id, token); err != nil {
				return err
			}
		}
	}

	for _, p := range cfg.Pools {
		err := pool.New(c.frame, p.Address).Initialize(pool.Params{
			Admin:             cfg.Admin,
			Bridge:            cfg.Bridge.Address,
			Token:             p.Token,
			A:                 p.A,
			FeeShareBP:        p.FeeShareBP,
			AdminFeeShareBP:   p.AdminFeeShareBP,
			BalanceRatioMinBP: p.BalanceRatioMinBP,
		})
		if err != nil {
			return err
		}
		if err := b.AddPool(p.Address, p.Token); err != nil {
			return err
		}
	}
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// Execute runs fn as one transaction in env. On success the emitted logs are
// committed and returned. On error nothing fn did is kept.
func (r *Runtime) Execute(env host.Env, fn func(*Call) error) ([]events.Log, error) {
	if env.ChainID() != r.chainID {
		return nil, fmt.Errorf("%w: %d", ErrWrongChain, env.ChainID())
	}
	// fn must not call back into r.
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	sink := events.NewSink()
	err := state.Atomic(r.db, func(tx database.Database) error {
		ledger := host.NewStateLedger(tx)
		c := &Call{
			rt:     r,
			ledger: ledger,
			frame: &host.Frame{
				Env:    env,
				Ledger: ledger,
				DB:     tx,
				Events: sink,
			},
		}
		return fn(c)
	})
	if err != nil {
		r.metrics.record(r.chainID, err, 0, time.Since(start))
		r.log.Debug("call reverted",
			"caller", env.Caller(),
			"block", env.BlockNumber(),
			"err", err,
		)
		return nil, err
	}
	logs := sink.Logs()
	r.logs = append(r.logs, logs...)
	r.metrics.record(r.chainID, nil, len(logs), time.Since(start))
	r.log.Info("call committed",
		"caller", env.Caller(),
		"block", env.BlockNumber(),
		"events", len(logs),
	)
	return logs, nil
}

// Logs returns every committed log in order.
func (r *Runtime) Logs() []events.Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Log(nil), r.logs...)
}

// Mint credits amount of token to owner outside of any contract call.
func (r *Runtime) Mint(token, owner common.Address, amount *uint256.Int) error {
	_, err := r.Execute(r.Env(common.Address{}), func(c *Call) error {
		return c.ledger.Mint(token, owner, amount)
	})
	return err
}

// RegisterToken declares token in the chain ledger.
func (r *Runtime) RegisterToken(token common.Address, decimals uint8) error {
	_, err := r.Execute(r.Env(common.Address{}), func(c *Call) error {
		return c.ledger.Register(token, decimals)
	})
	return err
}

// Balance reads a committed ledger balance.
func (r *Runtime) Balance(token, owner common.Address) (*uint256.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return host.NewStateLedger(r.db).Balance(token, owner)
}
