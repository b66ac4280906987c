package service

import (
	"strings"

	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
)

// Fixed source queries. Column aliases match the master-data JSON names.
const (
	productSourceQuery = `SELECT [BRANDNAME],[ITEMID],[ITEMNAME],[PACKTYPEGROUPNAME],[PRODUCTSTYLEID] as Style,` +
		`[PACKTYPE],[PRODUCTCONFIGURATIONID] as Configuration,[NOB],[PRODUCTSEGMENTNAME] as FLAVOURTYPE ` +
		`FROM [dbo].[Ratan_Item]`
	distributorSourceQuery = `SELECT [SALESHIERARCHYCODE] as SMCODE,[CUSTOMERACCOUNT],[ORGANIZATIONNAME],` +
		`[ADDRESSCITY],[LINEDISCOUNTCODE] as CUSTOMERGROUPID FROM [dbo].[Ratan_Customer]`
)

// rowValue looks key up exactly, then case-insensitively.
func rowValue(r infra.Row, key string) any {
	if v, ok := r[key]; ok {
		return v
	}
	for k, v := range r {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func rowString(r infra.Row, key string) string { return cleanString(rowValue(r, key)) }

func productFromRow(r infra.Row) model.Product {
	return model.Product{
		ItemID:            rowString(r, "ITEMID"),
		ItemName:          rowString(r, "ITEMNAME"),
		BrandName:         rowString(r, "BRANDNAME"),
		FlavourType:       rowString(r, "FLAVOURTYPE"),
		PackTypeGroupName: rowString(r, "PACKTYPEGROUPNAME"),
		Style:             rowString(r, "Style"),
		PackType:          rowString(r, "PACKTYPE"),
		Configuration:     rowString(r, "Configuration"),
		NOB:               parseNOB(rowValue(r, "NOB")),
	}
}

func distributorFromRow(r infra.Row) model.Distributor {
	return model.Distributor{
		CustomerAccount:  rowString(r, "CUSTOMERACCOUNT"),
		SMCode:           rowString(r, "SMCODE"),
		OrganizationName: rowString(r, "ORGANIZATIONNAME"),
		AddressCity:      rowString(r, "ADDRESSCITY"),
		CustomerGroupID:  rowString(r, "CUSTOMERGROUPID"),
	}
}

// applyProduct copies the mutable fields of in onto dst and reports whether
// anything changed. The natural key is never touched.
func applyProduct(dst *model.Product, in model.Product) bool {
	changed := false
	set := func(d *string, v string) {
		if *d != v {
			*d = v
			changed = true
		}
	}
	set(&dst.ItemName, in.ItemName)
	set(&dst.BrandName, in.BrandName)
	set(&dst.PackTypeGroupName, in.PackTypeGroupName)
	set(&dst.PackType, in.PackType)
	set(&dst.FlavourType, in.FlavourType)
	if !intPtrEqual(dst.NOB, in.NOB) {
		dst.NOB = in.NOB
		changed = true
	}
	return changed
}

func applyDistributor(dst *model.Distributor, in model.Distributor) bool {
	changed := false
	set := func(d *string, v string) {
		if *d != v {
			*d = v
			changed = true
		}
	}
	set(&dst.SMCode, in.SMCode)
	set(&dst.OrganizationName, in.OrganizationName)
	set(&dst.AddressCity, in.AddressCity)
	set(&dst.CustomerGroupID, in.CustomerGroupID)
	return changed
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
