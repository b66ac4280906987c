package model

import (
	"time"

	"github.com/google/uuid"
)

// Distributor is master data mirrored from the external customer table,
// keyed on CustomerAccount alone.
type Distributor struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerAccount  string    `gorm:"column:customer_account;uniqueIndex;not null"`
	SMCode           string    `gorm:"column:sm_code"`
	OrganizationName string    `gorm:"column:organization_name"`
	AddressCity      string    `gorm:"column:address_city"`
	CustomerGroupID  string    `gorm:"column:customer_group_id;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Distributor) TableName() string { return "distributors" }
