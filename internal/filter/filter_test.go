package filter

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = AllowList{
	"status":    {Column: "status"},
	"nob":       {Column: "nob", Kind: Int},
	"startDate": {Column: "start_date", Kind: Time},
	"active":    {Column: "active", Kind: Bool},
}

func TestParse_EqualityAndOperators(t *testing.T) {
	q := url.Values{
		"status":        {"Verified"},
		"nob[gte]":      {"6"},
		"startDate[lt]": {"2024-02-01"},
		"status[in]":    {"Verified, Rejected"},
		"page":          {"2"},
		"limit":         {"25"},
		"sort":          {"-startDate,status"},
	}
	spec, err := Parse(q, testFields, "")
	require.NoError(t, err)

	assert.Equal(t, 2, spec.Page)
	assert.Equal(t, 25, spec.Limit)
	require.Len(t, spec.Orders, 2)
	assert.Equal(t, Order{Field: "startDate", Column: "start_date", Desc: true}, spec.Orders[0])
	assert.Equal(t, Order{Field: "status", Column: "status"}, spec.Orders[1])

	// keys are processed in sorted order
	require.Len(t, spec.Conditions, 4)
	assert.Equal(t, Condition{Field: "nob", Column: "nob", Op: OpGte, Values: []any{6}}, spec.Conditions[0])
	assert.Equal(t, OpLt, spec.Conditions[1].Op)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), spec.Conditions[1].Values[0])
	assert.Equal(t, Condition{Field: "status", Column: "status", Op: OpEq, Values: []any{"Verified"}}, spec.Conditions[2])
	assert.Equal(t, []any{"Verified", "Rejected"}, spec.Conditions[3].Values)
}

func TestParse_DefaultSort(t *testing.T) {
	spec, err := Parse(url.Values{}, testFields, "-startDate")
	require.NoError(t, err)
	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, 0, spec.Limit)
	require.Len(t, spec.Orders, 1)
	assert.True(t, spec.Orders[0].Desc)
}

func TestParse_Rejects(t *testing.T) {
	cases := []struct {
		name string
		q    url.Values
		want error
	}{
		{"unknown field", url.Values{"password": {"x"}}, ErrUnknownField},
		{"injection in key", url.Values{"status;drop": {"x"}}, ErrUnknownField},
		{"unknown operator", url.Values{"nob[like]": {"1"}}, ErrUnknownOperator},
		{"bad int", url.Values{"nob": {"six"}}, ErrBadValue},
		{"bad date", url.Values{"startDate": {"yesterday"}}, ErrBadValue},
		{"unknown sort", url.Values{"sort": {"password"}}, ErrUnknownField},
		{"page zero", url.Values{"page": {"0"}}, ErrBadValue},
		{"limit too large", url.Values{"limit": {"100000"}}, ErrBadValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.q, testFields, "")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSpec_Match(t *testing.T) {
	spec, err := Parse(url.Values{"nob[gt]": {"4"}, "status[ne]": {"Rejected"}, "active": {"true"}}, testFields, "")
	require.NoError(t, err)

	six, two := 6, 2
	row := map[string]any{"nob": &six, "status": "Verified", "active": true}
	get := func(col string) any { return row[col] }
	assert.True(t, spec.Match(get))

	row["nob"] = &two
	assert.False(t, spec.Match(get))

	row["nob"] = (*int)(nil)
	assert.False(t, spec.Match(get), "nil NOB sorts below every value")

	row["nob"] = &six
	row["status"] = "Rejected"
	assert.False(t, spec.Match(get))
}

func TestCompare(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, -1, Compare(a, a.Add(time.Hour)))
	assert.Equal(t, 0, Compare(3, 3))
	assert.Equal(t, 1, Compare(true, false))
	assert.Equal(t, -1, Compare("apple", "banana"))
}
