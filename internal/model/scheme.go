package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Scheme statuses. Active and Completed are reserved: no lifecycle operation
// moves a scheme into them other than an explicit status patch.
const (
	StatusPendingVerification = "Pending Verification"
	StatusVerified            = "Verified"
	StatusActive              = "Active"
	StatusCompleted           = "Completed"
	StatusRejected            = "Rejected"
)

// Distributor types.
const (
	DistributorIndividual = "individual"
	DistributorGroup      = "group"
)

// History actions.
const (
	ActionCreated   = "created"
	ActionVerified  = "verified"
	ActionRejected  = "rejected"
	ActionModified  = "modified"
	ActionActivated = "activated"
	ActionCompleted = "completed"
)

// ValidStatus reports whether s is one of the declared scheme statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPendingVerification, StatusVerified, StatusActive, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Scheme is a time-bounded discount campaign.
//
// Distributors holds distributor UUIDs when DistributorType is individual and
// opaque group codes when it is group. Products are snapshots taken when the
// scheme is written; they never follow later master-data edits.
type Scheme struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SchemeCode      string         `gorm:"uniqueIndex;not null"`
	StartDate       time.Time      `gorm:"not null;index"`
	EndDate         time.Time      `gorm:"not null;index"`
	DistributorType string         `gorm:"type:varchar(20);not null;default:individual"`
	Distributors    pq.StringArray `gorm:"type:text[]"`
	Status          string         `gorm:"type:varchar(32);not null;index"`
	CreatedByID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedBy       *User          `gorm:"foreignKey:CreatedByID"`
	VerifiedByID    *uuid.UUID     `gorm:"type:uuid"`
	VerifiedBy      *User          `gorm:"foreignKey:VerifiedByID"`
	CreatedDate     time.Time      `gorm:"not null;index"`
	UpdatedAt       time.Time

	Products []SchemeProduct `gorm:"foreignKey:SchemeID;constraint:OnDelete:CASCADE"`
	History  []SchemeHistory `gorm:"foreignKey:SchemeID;constraint:OnDelete:CASCADE"`
}

func (Scheme) TableName() string { return "schemes" }

// SchemeProduct is one product line item snapshotted into a scheme.
type SchemeProduct struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SchemeID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	Position          int               `gorm:"not null"`
	ItemID            string            `gorm:"column:item_id"`
	ItemName          string            `gorm:"column:item_name"`
	FlavourType       string            `gorm:"column:flavour_type"`
	BrandName         string            `gorm:"column:brand_name"`
	PackType          string            `gorm:"column:pack_type"`
	PackTypeGroupName string            `gorm:"column:pack_type_group_name"`
	Style             string            `gorm:"column:style"`
	NOB               *int              `gorm:"column:nob"`
	Configuration     string            `gorm:"column:configuration"`
	DiscountPrice     decimal.Decimal   `gorm:"type:numeric(14,2);not null;default:0"`
	CustomFields      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
}

func (SchemeProduct) TableName() string { return "scheme_products" }

// SchemeHistory is one append-only audit entry. Rows are only ever inserted.
type SchemeHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SchemeID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Action    string    `gorm:"type:varchar(20);not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	User      *User     `gorm:"foreignKey:UserID"`
	Timestamp time.Time `gorm:"not null;index"`
	Notes     string
}

func (SchemeHistory) TableName() string { return "scheme_histories" }
