package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateBlob is one named slot persisted as a row.
type StateBlob struct {
	Slot      string    `gorm:"primaryKey"`
	Data      []byte    `gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GormBackend stores slots in a single blob table.
type GormBackend struct {
	db *gorm.DB
}

// PostgresDSN builds a connection string from discrete settings.
func PostgresDSN(host, port, user, password, name, sslMode string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode)
}

// NewGormBackend connects to postgres and migrates the blob table.
func NewGormBackend(dsn string) (*GormBackend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.AutoMigrate(&StateBlob{}); err != nil {
		return nil, fmt.Errorf("migrating state blobs: %w", err)
	}
	return &GormBackend{db: db}, nil
}

// Read returns the slot's blob, or nil when the slot has never been written.
func (b *GormBackend) Read(ctx context.Context, slot string) ([]byte, error) {
	var blob StateBlob
	result := b.db.WithContext(ctx).First(&blob, "slot = ?", slot)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return blob.Data, nil
}

// Write upserts the slot's blob.
func (b *GormBackend) Write(ctx context.Context, slot string, data []byte) error {
	blob := StateBlob{Slot: slot, Data: data, UpdatedAt: time.Now()}
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&blob).Error
}

// Ping reports connectivity.
func (b *GormBackend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
