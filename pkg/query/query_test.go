// SPDX-License-Identifier: Apache-2.0

package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidOperator(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidOperator(OpEq))
	assert.True(t, IsValidOperator(OpArrayContainsAny))
	assert.False(t, IsValidOperator("bogus"))
}

func TestEffectiveExecuteModeDefaultsToData(t *testing.T) {
	t.Parallel()

	var q Query
	assert.Equal(t, ExecuteModeData, q.EffectiveExecuteMode())

	q.ExecuteMode = ExecuteModeCount
	assert.Equal(t, ExecuteModeCount, q.EffectiveExecuteMode())
}

func unmarshalOne(t *testing.T, raw string) FilterEntry {
	t.Helper()
	var fs FilterEntries
	require.NoError(t, json.Unmarshal([]byte("["+raw+"]"), &fs))
	require.Len(t, fs, 1)
	return fs[0]
}

func TestFilterEntryUnmarshalValueFilter(t *testing.T) {
	t.Parallel()

	f := unmarshalOne(t, `{"column":"status","operator":"=","value":"paid"}`)

	vf, ok := f.(ValueFilter)
	require.True(t, ok)
	assert.Equal(t, "status", vf.Column)
	assert.Equal(t, OpEq, vf.Operator)
}

func TestFilterEntryUnmarshalColumnComparison(t *testing.T) {
	t.Parallel()

	f := unmarshalOne(t, `{"column":"total","operator":">","refColumn":"minimum"}`)

	cf, ok := f.(ColumnComparisonFilter)
	require.True(t, ok)
	assert.Equal(t, "minimum", cf.RefColumn)
}

func TestFilterEntryUnmarshalFilterGroup(t *testing.T) {
	t.Parallel()

	f := unmarshalOne(t, `{"logic":"and","conditions":[
		{"column":"status","operator":"=","value":"paid"},
		{"column":"total","operator":">","value":10}
	]}`)

	g, ok := f.(FilterGroup)
	require.True(t, ok)
	assert.Equal(t, LogicAnd, g.Logic)
	assert.Len(t, g.Conditions, 2)
}

func TestFilterEntryUnmarshalExistsFilter(t *testing.T) {
	t.Parallel()

	f := unmarshalOne(t, `{"table":"orderItems","filters":[{"column":"sku","operator":"=","value":"abc"}]}`)

	ef, ok := f.(ExistsFilter)
	require.True(t, ok)
	assert.Equal(t, "orderItems", ef.Table)
	assert.Len(t, ef.Filters, 1)
}

func TestFilterEntryRoundTrip(t *testing.T) {
	t.Parallel()

	g := FilterGroup{
		Logic: LogicOr,
		Conditions: FilterEntries{
			ValueFilter{Column: "status", Operator: OpEq, Value: "paid"},
		},
	}
	data, err := json.Marshal(g)
	require.NoError(t, err)

	f := unmarshalOne(t, string(data))
	assert.Equal(t, g.Logic, f.(FilterGroup).Logic)
}
