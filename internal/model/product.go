package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is master data mirrored from the external item table.
// Identity is the composite natural key (ItemID, Style, Configuration).
type Product struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID            string    `gorm:"column:item_id;not null;uniqueIndex:idx_product_natural_key,priority:1"`
	Style             string    `gorm:"column:style;not null;default:'';uniqueIndex:idx_product_natural_key,priority:2"`
	Configuration     string    `gorm:"column:configuration;not null;default:'';uniqueIndex:idx_product_natural_key,priority:3"`
	ItemName          string    `gorm:"column:item_name"`
	BrandName         string    `gorm:"column:brand_name;index"`
	FlavourType       string    `gorm:"column:flavour_type"`
	PackTypeGroupName string    `gorm:"column:pack_type_group_name"`
	PackType          string    `gorm:"column:pack_type;index"`
	NOB               *int      `gorm:"column:nob"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Product) TableName() string { return "products" }
