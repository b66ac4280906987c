package service

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
	"gorm.io/datatypes"
)

// GenerateSchemeCode returns SCH-YYYYMMDD-#### with #### in [1000, 9999].
func GenerateSchemeCode(now time.Time, r *rand.Rand) string {
	return fmt.Sprintf("SCH-%s-%d", now.UTC().Format("20060102"), 1000+r.Intn(9000))
}

// ParseSchemeDate accepts a calendar date or an RFC 3339 timestamp.
func ParseSchemeDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// NormalizeSchemeDate shifts t by offsetDays and truncates it to UTC midnight.
// Clients send local midnight, which lands on the previous UTC day east of
// Greenwich; the default offset of one day compensates for that.
func NormalizeSchemeDate(t time.Time, offsetDays int) time.Time {
	t = t.UTC().AddDate(0, 0, offsetDays)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// productAliases lists the accepted input keys for each snapshot field, in
// lookup order.
var productAliases = struct {
	ItemID, ItemName, Flavour, Brand, PackType, PackGroup, Style, NOB, Configuration []string
}{
	ItemID:        []string{"itemCode", "ITEMID"},
	ItemName:      []string{"itemName", "ITEMNAME"},
	Flavour:       []string{"flavour", "FLAVOUR", "FLAVOURTYPE"},
	Brand:         []string{"brandName", "BRANDNAME"},
	PackType:      []string{"packType", "PACKTYPE"},
	PackGroup:     []string{"packGroup", "PACKTYPEGROUPNAME"},
	Style:         []string{"style", "Style"},
	NOB:           []string{"nob", "NOB"},
	Configuration: []string{"mrp", "Configuration"},
}

func lookup(in dto.ProductInput, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := in[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(in dto.ProductInput, keys []string) string {
	v, _ := lookup(in, keys)
	return cleanString(v)
}

// NormalizeProductInput maps one free-form product line item onto a snapshot.
// index is only used in error field names.
func NormalizeProductInput(in dto.ProductInput, index int) (model.SchemeProduct, error) {
	field := func(name string) string { return fmt.Sprintf("products[%d].%s", index, name) }

	p := model.SchemeProduct{
		ItemID:            lookupString(in, productAliases.ItemID),
		ItemName:          lookupString(in, productAliases.ItemName),
		FlavourType:       lookupString(in, productAliases.Flavour),
		BrandName:         lookupString(in, productAliases.Brand),
		PackType:          lookupString(in, productAliases.PackType),
		PackTypeGroupName: lookupString(in, productAliases.PackGroup),
		Style:             lookupString(in, productAliases.Style),
		Configuration:     lookupString(in, productAliases.Configuration),
		DiscountPrice:     decimal.Zero,
		CustomFields:      datatypes.JSONMap{},
	}
	if p.ItemID == "" {
		return p, invalid(field("itemCode"), "is required")
	}
	if v, ok := lookup(in, productAliases.NOB); ok {
		p.NOB = parseNOB(v)
	}

	if v, ok := in["discountPrice"]; ok && v != nil {
		d, err := parseDecimal(v)
		if err != nil {
			return p, invalid(field("discountPrice"), "must be a number")
		}
		if d.IsNegative() {
			return p, invalid(field("discountPrice"), "must not be negative")
		}
		p.DiscountPrice = d.Round(2)
	}

	if v, ok := in["customFields"]; ok && v != nil {
		m, ok := v.(map[string]any)
		if !ok {
			return p, invalid(field("customFields"), "must be an object")
		}
		p.CustomFields = datatypes.JSONMap(m)
	}
	return p, nil
}

// cleanString renders a scalar as trimmed NFC text. nil becomes "".
func cleanString(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case []byte:
		s = string(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		s = t.String()
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	return norm.NFC.String(strings.TrimSpace(s))
}

// parseNOB returns nil for blank or non-integral input.
func parseNOB(v any) *int {
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case int32:
		n = int(t)
	case int64:
		n = int(t)
	case float64:
		if t != math.Trunc(t) {
			return nil
		}
		n = int(t)
	default:
		s := cleanString(v)
		if s == "" {
			return nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != math.Trunc(f) {
				return nil
			}
			i = int(f)
		}
		n = i
	}
	return &n
}

func parseDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		if strings.TrimSpace(t) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(strings.TrimSpace(t))
	}
	return decimal.Zero, fmt.Errorf("unsupported type %T", v)
}
