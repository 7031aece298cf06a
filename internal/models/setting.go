package models

import "time"

// Setting is a mutable business parameter keyed by name. Values are stored as
// strings and parsed by the settings accessor, which falls back to compiled
// defaults when a key is absent or unparseable.
type Setting struct {
	Key       string    `gorm:"size:64;primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
