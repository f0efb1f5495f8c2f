package models

import (
	"time"

	"gorm.io/datatypes"
)

// StateSnapshot stores the whole reservation document as a single row.
type StateSnapshot struct {
	ID        string         `gorm:"primaryKey;size:64" json:"id"`
	Document  datatypes.JSON `gorm:"type:json;not null" json:"document"`
	Version   int64          `gorm:"not null;default:0" json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName pins the snapshot table name.
func (StateSnapshot) TableName() string {
	return "bookit_state_snapshots"
}
