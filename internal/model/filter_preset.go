package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FilterPreset is a named set of list filters saved by one user.
type FilterPreset struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string            `gorm:"type:varchar(50);not null"`
	Filters   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
}

func (FilterPreset) TableName() string { return "filter_presets" }
