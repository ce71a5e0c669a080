package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-docs/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// KVEntry is one row of the key-value table.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName pins the table name regardless of gorm naming strategy
func (KVEntry) TableName() string {
	return "kv_entries"
}

// GormKV stores blobs in a SQL table through gorm.
type GormKV struct {
	db *gorm.DB
}

// OpenSQLiteKV opens (or creates) a sqlite database file
func OpenSQLiteKV(dsn string, logger domain.Logger) (*GormKV, error) {
	return openGormKV(sqlite.Open(dsn), "sqlite", logger)
}

// OpenPostgresKV connects to postgres using a DSN or URL
func OpenPostgresKV(dsn string, logger domain.Logger) (*GormKV, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	return openGormKV(postgres.Open(dsn), "postgres", logger)
}

func openGormKV(dialector gorm.Dialector, driver string, logger domain.Logger) (*GormKV, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	kv, err := NewGormKV(db)
	if err != nil {
		return nil, err
	}
	logger.Info("SQL key-value store ready", "driver", driver)
	return kv, nil
}

// NewGormKV migrates the kv table on an existing connection
func NewGormKV(db *gorm.DB) (*GormKV, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return &GormKV{db: db}, nil
}

func (g *GormKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry KVEntry
	err := g.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load key %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (g *GormKV) Set(ctx context.Context, key string, blob []byte) error {
	entry := KVEntry{Key: key, Value: blob, UpdatedAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save key %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying sql.DB
func (g *GormKV) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
