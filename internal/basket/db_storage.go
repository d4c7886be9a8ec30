package basket

import (
	"context"
	"errors"
	"time"

	"github.com/cakehouse/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStorage persists baskets as rows of basket_entries.
type DBStorage struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDBStorage(db *gorm.DB) *DBStorage {
	return &DBStorage{db: db, now: time.Now}
}

func (s *DBStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.BasketEntry
	err := s.db.WithContext(ctx).Where(map[string]any{"key": key}).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *DBStorage) Set(ctx context.Context, key, value string) error {
	entry := models.BasketEntry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}
