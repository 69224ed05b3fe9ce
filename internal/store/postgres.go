package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// collectionRow maps one collection document onto the collections table.
type collectionRow struct {
	Name      string    `gorm:"type:varchar(64);primaryKey"`
	Data      []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name.
func (collectionRow) TableName() string { return "collections" }

// PostgresBackend persists collection documents in a single jsonb-keyed table.
type PostgresBackend struct {
	db *gorm.DB
}

// NewPostgresBackend migrates the collections table and returns a backend.
func NewPostgresBackend(db *gorm.DB) (*PostgresBackend, error) {
	if err := db.AutoMigrate(&collectionRow{}); err != nil {
		return nil, err
	}
	return &PostgresBackend{db: db}, nil
}

// Load reads a collection document.
func (p *PostgresBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	var row collectionRow
	err := p.db.WithContext(ctx).First(&row, "name = ?", collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.Data, nil
}

// Save upserts a collection document.
func (p *PostgresBackend) Save(ctx context.Context, collection string, data []byte) error {
	row := collectionRow{Name: collection, Data: data, UpdatedAt: time.Now()}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
}

// Ping verifies database connectivity.
func (p *PostgresBackend) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (p *PostgresBackend) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
