// Package filter turns list query strings into typed predicates.
//
// Only fields present in an AllowList are accepted. A query key is either the
// bare field name (equality) or field[op] with op one of gt, gte, lt, lte, in, ne.
// The reserved keys sort, select, page and limit are handled separately.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Kind is the value type a field is parsed into.
type Kind int

const (
	String Kind = iota
	Int
	Time
	Bool
)

// Field maps a public query name onto a column.
type Field struct {
	Column string
	Kind   Kind
}

// AllowList is keyed by the public field name as it appears in the query string.
type AllowList map[string]Field

var (
	ErrUnknownField    = errors.New("unknown filter field")
	ErrUnknownOperator = errors.New("unknown filter operator")
	ErrBadValue        = errors.New("invalid filter value")
)

var reserved = map[string]bool{"sort": true, "select": true, "page": true, "limit": true}

var keyRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[([a-z]+)\])?$`)

// Condition is one typed predicate.
type Condition struct {
	Field  string
	Column string
	Op     Op
	Values []any
}

// Order is one sort key.
type Order struct {
	Field  string
	Column string
	Desc   bool
}

// Spec is the parsed, validated form of a list query.
type Spec struct {
	Conditions []Condition
	Orders     []Order
	Page       int
	Limit      int // 0 = unbounded
}

const maxLimit = 1000

// Parse validates q against allow. defaultSort uses the same syntax as the sort
// query parameter ("-createdDate,schemeCode") and applies when sort is absent.
func Parse(q url.Values, allow AllowList, defaultSort string) (Spec, error) {
	spec := Spec{Page: 1}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[key] {
			continue
		}
		m := keyRe.FindStringSubmatch(key)
		if m == nil {
			return Spec{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		name, op := m[1], Op(m[2])
		if op == "" {
			op = OpEq
		}
		field, ok := allow[name]
		if !ok {
			return Spec{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if _, ok := sqlOps[op]; !ok && op != OpIn {
			return Spec{}, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
		}
		for _, raw := range q[key] {
			cond := Condition{Field: name, Column: field.Column, Op: op}
			parts := []string{raw}
			if op == OpIn {
				parts = strings.Split(raw, ",")
			}
			for _, p := range parts {
				v, err := parseValue(field.Kind, strings.TrimSpace(p))
				if err != nil {
					return Spec{}, fmt.Errorf("%w: %s=%q", ErrBadValue, name, p)
				}
				cond.Values = append(cond.Values, v)
			}
			spec.Conditions = append(spec.Conditions, cond)
		}
	}

	sortExpr := q.Get("sort")
	if sortExpr == "" {
		sortExpr = defaultSort
	}
	orders, err := parseSort(sortExpr, allow)
	if err != nil {
		return Spec{}, err
	}
	spec.Orders = orders

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Spec{}, fmt.Errorf("%w: page=%q", ErrBadValue, v)
		}
		spec.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxLimit {
			return Spec{}, fmt.Errorf("%w: limit=%q", ErrBadValue, v)
		}
		spec.Limit = n
	}
	return spec, nil
}

func parseSort(expr string, allow AllowList) ([]Order, error) {
	var out []Order
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		field, ok := allow[name]
		if !ok {
			return nil, fmt.Errorf("%w: sort %q", ErrUnknownField, name)
		}
		out = append(out, Order{Field: name, Column: field.Column, Desc: desc})
	}
	return out, nil
}

func parseValue(kind Kind, raw string) (any, error) {
	switch kind {
	case Int:
		return strconv.Atoi(raw)
	case Bool:
		return strconv.ParseBool(raw)
	case Time:
		return ParseTime(raw)
	default:
		return raw, nil
	}
}

// ParseTime accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseTime(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Apply adds the spec's predicates, ordering and paging to q. Column names come
// from the allow list only; values are always bound parameters.
func (s Spec) Apply(q *gorm.DB) *gorm.DB {
	q = s.ApplyWhere(q)
	for _, o := range s.Orders {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if s.Limit > 0 {
		q = q.Limit(s.Limit).Offset((s.Page - 1) * s.Limit)
	}
	return q
}

// ApplyWhere adds only the predicates, for count queries.
func (s Spec) ApplyWhere(q *gorm.DB) *gorm.DB {
	for _, c := range s.Conditions {
		col := clause.Column{Name: c.Column}
		if c.Op == OpIn {
			q = q.Where(clause.IN{Column: col, Values: c.Values})
			continue
		}
		q = q.Where(fmt.Sprintf("%s %s ?", quote(c.Column), sqlOps[c.Op]), c.Values[0])
	}
	return q
}

func quote(column string) string { return `"` + column + `"` }

// Match evaluates the predicates in memory. get returns the value stored for a
// column. Used by the in-memory repositories.
func (s Spec) Match(get func(column string) any) bool {
	for _, c := range s.Conditions {
		if !c.match(get(c.Column)) {
			return false
		}
	}
	return true
}

func (c Condition) match(actual any) bool {
	if c.Op == OpIn {
		for _, v := range c.Values {
			if Compare(actual, v) == 0 {
				return true
			}
		}
		return false
	}
	cmp := Compare(actual, c.Values[0])
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

// compare orders two scalars of the same kind. Mismatched kinds compare as
// their string forms.
func Compare(a, b any) int {
	switch av := a.(type) {
	case *int:
		if av == nil {
			return -1
		}
		return Compare(*av, b)
	case int:
		if bv, ok := b.(int); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			if av == bv {
				return 0
			}
			if !av {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
