// Package timescaledb stores per-cycle room snapshots in TimescaleDB for
// long-term history and external analytics.
package timescaledb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/opengrow-box/growd/internal/database"
	"github.com/opengrow-box/growd/internal/log"
	"github.com/opengrow-box/growd/internal/types"
	"gorm.io/gorm"
)

// Storage is the TimescaleDB history backend.
type Storage struct {
	db *gorm.DB
}

// SnapshotRow is the persisted form of one room snapshot. Metrics that were
// unavailable during the cycle persist as NULL, never as zero.
type SnapshotRow struct {
	Time         time.Time `gorm:"column:time"`
	Room         string    `gorm:"column:room"`
	Mode         string    `gorm:"column:mode"`
	Outcome      string    `gorm:"column:outcome"`
	Temperature  *float64  `gorm:"column:temperature"`
	Humidity     *float64  `gorm:"column:humidity"`
	DewPoint     *float64  `gorm:"column:dew_point"`
	VPD          *float64  `gorm:"column:vpd"`
	PPFD         *float64  `gorm:"column:ppfd"`
	DLI          *float64  `gorm:"column:dli"`
	CO2          *float64  `gorm:"column:co2"`
	SoilMoisture *float64  `gorm:"column:soil_moisture"`
	TargetValue  float64   `gorm:"column:target_value"`
	Actions      string    `gorm:"column:actions"`
}

// TableName customizes the gorm table name.
func (SnapshotRow) TableName() string {
	return "room_snapshots"
}

// New connects to TimescaleDB and prepares the snapshot hypertable.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	log.Info("connecting to TimescaleDB...")
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}
	s := &Storage{db: db}

	if err := db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		return nil, fmt.Errorf("creating snapshot table: %w", err)
	}
	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		return nil, fmt.Errorf("creating TimescaleDB extension: %w", err)
	}
	if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		return nil, fmt.Errorf("creating hypertable: %w", err)
	}
	return s, nil
}

// StartStorageEngine creates a goroutine loop to receive snapshots and write
// them to TimescaleDB.
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.RoomSnapshot {
	log.Info("starting TimescaleDB storage engine...")
	snapChan := make(chan types.RoomSnapshot, 10)
	go s.processSnapshots(ctx, wg, snapChan)
	return snapChan
}

func (s *Storage) processSnapshots(ctx context.Context, wg *sync.WaitGroup, ch <-chan types.RoomSnapshot) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case snap := <-ch:
			if err := s.StoreSnapshot(snap); err != nil {
				log.Error("could not store snapshot:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received, stopping snapshot processor")
			return
		}
	}
}

// StoreSnapshot writes one snapshot row.
func (s *Storage) StoreSnapshot(snap types.RoomSnapshot) error {
	row := rowFromSnapshot(snap)
	return s.db.Create(&row).Error
}

// RecentSnapshots returns the newest rows for a room, newest first.
func (s *Storage) RecentSnapshots(ctx context.Context, room string, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []SnapshotRow
	err := s.db.WithContext(ctx).
		Where("room = ?", room).
		Order("time DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying snapshots for %s: %w", room, err)
	}
	return rows, nil
}

func rowFromSnapshot(snap types.RoomSnapshot) SnapshotRow {
	opt := func(m types.Metric) *float64 {
		if !m.Valid {
			return nil
		}
		v := m.Value
		return &v
	}

	actions := ""
	if len(snap.Actions) > 0 {
		if b, err := json.Marshal(snap.Actions); err == nil {
			actions = string(b)
		}
	}

	return SnapshotRow{
		Time:         snap.State.Timestamp,
		Room:         snap.State.Room,
		Mode:         string(snap.Target.Mode),
		Outcome:      string(snap.Outcome),
		Temperature:  opt(snap.State.Temperature),
		Humidity:     opt(snap.State.Humidity),
		DewPoint:     opt(snap.State.DewPoint),
		VPD:          opt(snap.State.VPD),
		PPFD:         opt(snap.State.PPFD),
		DLI:          opt(snap.State.DLI),
		CO2:          opt(snap.State.CO2),
		SoilMoisture: opt(snap.State.SoilMoisture),
		TargetValue:  snap.Target.Target,
		Actions:      actions,
	}
}
