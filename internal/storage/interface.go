// Package storage defines the interface history storage backends implement.
package storage

import (
	"context"
	"sync"

	"github.com/opengrow-box/growd/internal/types"
)

// SnapshotEngine is a history backend. StartStorageEngine launches the
// engine's receive loop and returns the channel the storage manager feeds
// room snapshots into.
type SnapshotEngine interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.RoomSnapshot
}
