package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirkdb/quirkdb/internal/types"
)

func TestRowSetGetOrder(t *testing.T) {
	r := types.NewRow()
	r.Set("id", "u1")
	r.Set("name", "Ada")
	r.Set("age", "37")

	assert.Equal(t, []string{"id", "name", "age"}, r.Fields())

	v, ok := r.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "", r.GetOr("missing"))
}

func TestRowSetOverwritePreservesPosition(t *testing.T) {
	r := types.NewRow()
	r.Set("a", "1")
	r.Set("b", "2")
	r.Set("a", "3")

	assert.Equal(t, []string{"a", "b"}, r.Fields())
	assert.Equal(t, "3", r.GetOr("a"))
}

func TestRowDelete(t *testing.T) {
	r := types.NewRow()
	r.Set("a", "1")
	r.Set("b", "2")
	r.Delete("a")

	assert.False(t, r.Has("a"))
	assert.Equal(t, []string{"b"}, r.Fields())
}

func TestRowFromMapIsDeterministic(t *testing.T) {
	m := map[string]string{"z": "1", "a": "2", "m": "3"}
	r := types.RowFromMap(m)
	assert.Equal(t, []string{"a", "m", "z"}, r.Fields())
}

func TestRowMerge(t *testing.T) {
	base := types.NewRow()
	base.Set("id", "u1")
	base.Set("age", "37")

	patch := types.NewRow()
	patch.Set("age", "38")
	patch.Set("city", "nyc")

	base.Merge(patch)

	assert.Equal(t, "38", base.GetOr("age"))
	assert.Equal(t, "nyc", base.GetOr("city"))
	assert.Equal(t, []string{"id", "age", "city"}, base.Fields())
}

func TestRowClone(t *testing.T) {
	base := types.NewRow()
	base.Set("a", "1")
	clone := base.Clone()
	clone.Set("a", "2")

	assert.Equal(t, "1", base.GetOr("a"))
	assert.Equal(t, "2", clone.GetOr("a"))
}

func TestTableSchemaIsIndexed(t *testing.T) {
	ts := types.TableSchema{IndexedFields: map[string]string{"name": "str"}}
	assert.True(t, ts.IsIndexed("name"))
	assert.False(t, ts.IsIndexed("age"))

	var empty types.TableSchema
	assert.False(t, empty.IsIndexed("name"))
}
