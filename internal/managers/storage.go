package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/opengrow-box/growd/internal/storage"
	"github.com/opengrow-box/growd/internal/storage/timescaledb"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
)

// StorageManager holds the active history storage backends and fans room
// snapshots out to them. Zero configured engines is valid; snapshots are
// then discarded.
type StorageManager struct {
	Engines             []StorageEngine
	SnapshotDistributor chan types.RoomSnapshot
}

// StorageEngine pairs a backend with the channel snapshots are passed on.
type StorageEngine struct {
	Engine storage.SnapshotEngine
	C      chan<- types.RoomSnapshot
}

// NewStorageManager creates a StorageManager populated with all configured
// engines.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider) (*StorageManager, error) {
	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading storage configuration: %w", err)
	}

	s := &StorageManager{
		SnapshotDistributor: make(chan types.RoomSnapshot, 20),
	}

	go s.startSnapshotDistributor(ctx, wg)

	if storageConfig.TimescaleDB != nil && storageConfig.TimescaleDB.ConnectionString != "" {
		engine, err := timescaledb.New(ctx, storageConfig.TimescaleDB.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		s.Engines = append(s.Engines, StorageEngine{
			Engine: engine,
			C:      engine.StartStorageEngine(ctx, wg),
		})
	}

	return s, nil
}

// startSnapshotDistributor receives snapshots from room controllers and fans
// them out to the storage backends.
func (s *StorageManager) startSnapshotDistributor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case snap := <-s.SnapshotDistributor:
			for _, e := range s.Engines {
				e.C <- snap
			}
		case <-ctx.Done():
			return
		}
	}
}
