package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ProductInput is a free-form product line item. Keys are resolved through the
// alias table in the scheme service (itemCode or ITEMID, mrp or Configuration, ...).
type ProductInput map[string]any

type CreateSchemeRequest struct {
	SchemeCode      string         `json:"schemeCode"      validate:"omitempty,max=64"`
	StartDate       string         `json:"startDate"       validate:"required"`
	EndDate         string         `json:"endDate"         validate:"required"`
	DistributorType string         `json:"distributorType" validate:"omitempty,oneof=individual group"`
	Distributors    []string       `json:"distributors"    validate:"max=5000"`
	Products        []ProductInput `json:"products"        validate:"required,min=1"`
	Notes           string         `json:"notes"           validate:"max=500"`
}

// UpdateSchemeRequest is a patch: nil fields are left untouched. Any history
// sent by the client is ignored; the server appends its own entry.
type UpdateSchemeRequest struct {
	StartDate       *string        `json:"startDate"`
	EndDate         *string        `json:"endDate"`
	DistributorType *string        `json:"distributorType" validate:"omitempty,oneof=individual group"`
	Distributors    []string       `json:"distributors"    validate:"omitempty,max=5000"`
	Products        []ProductInput `json:"products"`
	Status          *string        `json:"status"`
	Notes           string         `json:"notes"           validate:"max=500"`
}

type TransitionRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

type BulkUpdateItem struct {
	ID    string              `json:"id"    validate:"required"`
	Patch UpdateSchemeRequest `json:"patch"`
}

type BulkUpdateRequest struct {
	Items []BulkUpdateItem `json:"items" validate:"required,min=1,max=200,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// DistributorRef is the resolved display form of an individual distributor.
type DistributorRef struct {
	ID               string `json:"id"`
	SMCode           string `json:"SMCODE"`
	CustomerAccount  string `json:"CUSTOMERACCOUNT"`
	OrganizationName string `json:"ORGANIZATIONNAME"`
	AddressCity      string `json:"ADDRESSCITY"`
	CustomerGroupID  string `json:"CUSTOMERGROUPID"`
}

type SchemeProductResponse struct {
	ItemID            string          `json:"ITEMID"`
	ItemName          string          `json:"ITEMNAME"`
	FlavourType       string          `json:"FLAVOURTYPE"`
	BrandName         string          `json:"BRANDNAME"`
	PackType          string          `json:"PACKTYPE"`
	PackTypeGroupName string          `json:"PACKTYPEGROUPNAME"`
	Style             string          `json:"Style"`
	NOB               *int            `json:"NOB"`
	Configuration     string          `json:"Configuration"`
	DiscountPrice     decimal.Decimal `json:"discountPrice"`
	CustomFields      map[string]any  `json:"customFields"`
}

type HistoryEntryResponse struct {
	Action    string    `json:"action"`
	User      *UserRef  `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes"`
}

// SchemeResponse carries distributors as []DistributorRef for individual
// schemes and []string group codes for group schemes.
type SchemeResponse struct {
	ID              string                  `json:"id"`
	SchemeCode      string                  `json:"schemeCode"`
	StartDate       time.Time               `json:"startDate"`
	EndDate         time.Time               `json:"endDate"`
	DistributorType string                  `json:"distributorType"`
	Distributors    any                     `json:"distributors"`
	Products        []SchemeProductResponse `json:"products"`
	Status          string                  `json:"status"`
	CreatedBy       *UserRef                `json:"createdBy"`
	VerifiedBy      *UserRef                `json:"verifiedBy"`
	CreatedDate     time.Time               `json:"createdDate"`
	UpdatedAt       time.Time               `json:"updatedAt"`
	History         []HistoryEntryResponse  `json:"history"`
}

// ExportRow is one spreadsheet line: one scheme × distributor × product.
type ExportRow struct {
	SchemeCode           string          `json:"schemeCode"`
	StartingDate         string          `json:"startingDate"`
	EndingDate           string          `json:"endingDate"`
	SalesType            int             `json:"salesType"`
	SalesCode            string          `json:"salesCode"`
	SalesDescription     string          `json:"salesDescription"`
	Type                 int             `json:"type"`
	Code                 string          `json:"code"`
	ItemName             string          `json:"itemName"`
	ItemCombinationGroup string          `json:"itemCombinationGroup"`
	ConfigID             string          `json:"configId"`
	Size                 string          `json:"size"`
	Color                string          `json:"color"`
	Style                string          `json:"style"`
	TaxChargeCode        string          `json:"taxChargeCode"`
	MinimumQuantity      string          `json:"minimumQuantity"`
	LineDiscount         decimal.Decimal `json:"lineDiscount"`
	Company              string          `json:"company"`
}

// ExportColumns is the fixed header order of the export sheet.
var ExportColumns = []string{
	"schemeCode", "startingDate", "endingDate", "salesType", "salesCode", "salesDescription",
	"type", "code", "itemName", "itemCombinationGroup", "configId", "size", "color", "style",
	"taxChargeCode", "minimumQuantity", "lineDiscount", "company",
}

// Values returns the row's cells in ExportColumns order.
func (r ExportRow) Values() []any {
	return []any{
		r.SchemeCode, r.StartingDate, r.EndingDate, r.SalesType, r.SalesCode, r.SalesDescription,
		r.Type, r.Code, r.ItemName, r.ItemCombinationGroup, r.ConfigID, r.Size, r.Color, r.Style,
		r.TaxChargeCode, r.MinimumQuantity, r.LineDiscount.InexactFloat64(), r.Company,
	}
}
