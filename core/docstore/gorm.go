package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tenant-sync/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const documentTable = "sync_documents"

// documentRow is the gorm model backing GormStore.
type documentRow struct {
	Realm     string     `gorm:"primaryKey;size:191"`
	Name      string     `gorm:"primaryKey;size:191"`
	Value     []byte     `gorm:"type:longblob;not null"`
	SyncedAt  *time.Time `gorm:"column:synced_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (documentRow) TableName() string {
	return documentTable
}

// GormStore persists documents in a relational table. It backs the device-local store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the documents table and verifies its shape.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", documentTable, err)
	}
	if err := database.RequireColumns(db, documentTable, "realm", "name", "value", "synced_at", "updated_at"); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key Key) (*Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("realm = ? AND name = ?", key.Realm, key.Name).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return &Document{Value: row.Value, SyncedAt: row.SyncedAt}, nil
}

func (s *GormStore) Set(ctx context.Context, key Key, doc Document) error {
	if err := upsertRow(s.db.WithContext(ctx), key, doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) SetMany(ctx context.Context, docs map[Key]Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range orderedKeys(docs) {
			if err := upsertRow(tx, key, docs[key]); err != nil {
				return fmt.Errorf("failed to write %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *GormStore) Delete(ctx context.Context, key Key) error {
	err := s.db.WithContext(ctx).
		Where("realm = ? AND name = ?", key.Realm, key.Name).
		Delete(&documentRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) DeleteRealm(ctx context.Context, realm string) error {
	if err := s.db.WithContext(ctx).Where("realm = ?", realm).Delete(&documentRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete realm %s: %w", realm, err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func upsertRow(tx *gorm.DB, key Key, doc Document) error {
	value := doc.Value
	if value == nil {
		value = []byte("null")
	}
	row := documentRow{
		Realm:     key.Realm,
		Name:      key.Name,
		Value:     value,
		SyncedAt:  doc.SyncedAt,
		UpdatedAt: time.Now().UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "realm"}, {Name: "name"}},
		UpdateAll: true,
	}).Create(&row).Error
}
