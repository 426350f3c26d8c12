// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
)

// Atomic runs fn against a write buffer layered over db. Writes reach db only
// if fn returns nil. On error or panic every buffered write is dropped.
func Atomic(db database.Database, fn func(tx database.Database) error) error {
	vdb := versiondb.New(db)
	committed := false
	defer func() {
		if !committed {
			vdb.Abort()
		}
	}()

	if err := fn(vdb); err != nil {
		return err
	}
	if err := vdb.Commit(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	committed = true
	return nil
}
