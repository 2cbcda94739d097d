// Package model defines the persisted shape of the storage namespace.
package model

import (
	"encoding/json"
	"time"
)

// Entry is one key-value pair of the storage namespace.
type Entry struct {
	Key       string    `gorm:"primaryKey;column:entry_key"`
	Value     string    `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM.
func (Entry) TableName() string {
	return "storage_entries"
}

// Items maps storage keys to their JSON values.
type Items map[string]json.RawMessage

// Keys returns the keys of items in no particular order.
func (i Items) Keys() []string {
	keys := make([]string, 0, len(i))
	for k := range i {
		keys = append(keys, k)
	}
	return keys
}

// Validate checks that every key is non-empty and every value is valid JSON.
func (i Items) Validate() error {
	for k, v := range i {
		if k == "" {
			return ErrEmptyKey
		}
		if !json.Valid(v) {
			return &InvalidValueError{Key: k}
		}
	}
	return nil
}

// Clone returns a deep copy of items.
func (i Items) Clone() Items {
	out := make(Items, len(i))
	for k, v := range i {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
