package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ProductRequest struct {
	ItemID            string `json:"ITEMID"            validate:"required,max=64"`
	ItemName          string `json:"ITEMNAME"          validate:"max=255"`
	BrandName         string `json:"BRANDNAME"         validate:"max=120"`
	FlavourType       string `json:"FLAVOURTYPE"       validate:"max=120"`
	PackTypeGroupName string `json:"PACKTYPEGROUPNAME" validate:"max=120"`
	Style             string `json:"Style"             validate:"max=64"`
	PackType          string `json:"PACKTYPE"          validate:"max=120"`
	Configuration     string `json:"Configuration"     validate:"max=64"`
	NOB               *int   `json:"NOB"               validate:"omitempty,min=0"`
}

type UpdateProductRequest struct {
	ItemName          *string `json:"ITEMNAME"          validate:"omitempty,max=255"`
	BrandName         *string `json:"BRANDNAME"         validate:"omitempty,max=120"`
	FlavourType       *string `json:"FLAVOURTYPE"       validate:"omitempty,max=120"`
	PackTypeGroupName *string `json:"PACKTYPEGROUPNAME" validate:"omitempty,max=120"`
	Style             *string `json:"Style"             validate:"omitempty,max=64"`
	PackType          *string `json:"PACKTYPE"          validate:"omitempty,max=120"`
	Configuration     *string `json:"Configuration"     validate:"omitempty,max=64"`
	NOB               *int    `json:"NOB"               validate:"omitempty,min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID                string    `json:"id"`
	ItemID            string    `json:"ITEMID"`
	ItemName          string    `json:"ITEMNAME"`
	BrandName         string    `json:"BRANDNAME"`
	FlavourType       string    `json:"FLAVOURTYPE"`
	PackTypeGroupName string    `json:"PACKTYPEGROUPNAME"`
	Style             string    `json:"Style"`
	PackType          string    `json:"PACKTYPE"`
	Configuration     string    `json:"Configuration"`
	NOB               *int      `json:"NOB"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type BrandStat struct {
	Brand  string   `json:"_id"`
	Count  int64    `json:"count"`
	AvgMrp *float64 `json:"avgMrp"`
}

type PackTypeStat struct {
	PackType string `json:"_id"`
	Count    int64  `json:"count"`
}

type ProductStatsResponse struct {
	BrandStats    []BrandStat    `json:"brandStats"`
	PackTypeStats []PackTypeStat `json:"packTypeStats"`
}

// ProductImportResponse summarises a bulk import.
type ProductImportResponse struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	Errors  []BulkItemResult `json:"errors,omitempty"`
}

// ProductImportRequest items are validated one by one during import.
type ProductImportRequest struct {
	Products []ProductRequest `json:"products" validate:"required,min=1,max=5000"`
}
