// Package database provides the shared TimescaleDB connection helper used by
// the history storage engine.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opengrow-box/growd/internal/log"
	"go.uber.org/zap"
)

// CreateConnection opens a gorm connection to TimescaleDB with the SQL log
// routed into growd's zap logger.
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("opening TimescaleDB connection: %w", err)
	}
	return db, nil
}
