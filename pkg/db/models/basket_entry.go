package models

import "time"

// BasketEntry stores one serialized basket under its storage key.
type BasketEntry struct {
	Key       string    `gorm:"column:key;primaryKey;size:255"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (BasketEntry) TableName() string { return "basket_entries" }
