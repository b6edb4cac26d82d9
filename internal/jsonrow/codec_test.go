package jsonrow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirkdb/quirkdb/internal/jsonrow"
	"github.com/quirkdb/quirkdb/internal/types"
)

func TestDecodeScalarStringification(t *testing.T) {
	row, err := jsonrow.Decode([]byte(`{"id":"u1","age":37,"score":3.50,"active":true,"deleted":false,"tag":null}`))
	require.NoError(t, err)

	assert.Equal(t, "u1", row.GetOr("id"))
	assert.Equal(t, "37", row.GetOr("age"))
	assert.Equal(t, "3.5", row.GetOr("score"))
	assert.Equal(t, "true", row.GetOr("active"))
	assert.Equal(t, "false", row.GetOr("deleted"))
	assert.Equal(t, "null", row.GetOr("tag"))
}

func TestDecodeNestedValuesFlattenToEmpty(t *testing.T) {
	row, err := jsonrow.Decode([]byte(`{"id":"u1","meta":{"x":1},"tags":["a","b"]}`))
	require.NoError(t, err)

	assert.Equal(t, "u1", row.GetOr("id"))
	assert.Equal(t, "", row.GetOr("meta"))
	assert.Equal(t, "", row.GetOr("tags"))
}

func TestDecodePreservesFieldOrder(t *testing.T) {
	row, err := jsonrow.Decode([]byte(`{"z":"1","a":"2","m":"3"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, row.Fields())
}

func TestDecodeEmptyDocument(t *testing.T) {
	row, err := jsonrow.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, row.Fields())
}

func TestDecodeRejectsNonObject(t *testing.T) {
	_, err := jsonrow.Decode([]byte(`["a","b"]`))
	assert.Error(t, err)
}

func TestEncodeRoundTripsFieldOrder(t *testing.T) {
	row := types.NewRow()
	row.Set("id", "u1")
	row.Set("name", "Ada")
	row.Set("age", "37")

	data, err := jsonrow.Encode(row)
	require.NoError(t, err)

	roundTripped, err := jsonrow.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, row.Fields(), roundTripped.Fields())
	assert.Equal(t, row.Map(), roundTripped.Map())
}

func TestDecodeRowsPreservesEntryOrder(t *testing.T) {
	rows, err := jsonrow.DecodeRows([]byte(`{
		"r1": {"id":"u1","name":"Ada"},
		"r2": {"id":"u2","name":"Grace"}
	}`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u1", rows[0].GetOr("id"))
	assert.Equal(t, "u2", rows[1].GetOr("id"))
}
