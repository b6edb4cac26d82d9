package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirkdb/quirkdb/internal/query"
	"github.com/quirkdb/quirkdb/internal/types"
)

func TestParseInsertJSON(t *testing.T) {
	q, err := query.Parse(`INSERT INTO users VALUES {"id":"u1","name":"Ada"}`)
	require.NoError(t, err)
	assert.Equal(t, query.KindInsert, q.Kind)
	assert.Equal(t, "users", q.Table)
	assert.Equal(t, "Ada", q.RowData.GetOr("name"))
}

func TestParseInsertPositional(t *testing.T) {
	q, err := query.Parse(`INSERT INTO users (id, name) VALUES (u1, 'Ada Lovelace')`)
	require.NoError(t, err)
	assert.Equal(t, "u1", q.RowData.GetOr("id"))
	assert.Equal(t, "Ada Lovelace", q.RowData.GetOr("name"))
}

func TestParseUpdateJSONWithWhere(t *testing.T) {
	q, err := query.Parse(`UPDATE users SET {"age":38} WHERE name='Ada'`)
	require.NoError(t, err)
	assert.Equal(t, query.KindUpdate, q.Kind)
	assert.Equal(t, "38", q.RowData.GetOr("age"))
	require.Len(t, q.Conditions, 1)
	assert.Equal(t, query.Condition{Field: "name", Op: "=", Literal: "Ada"}, q.Conditions[0])
}

func TestParseUpdateSingleField(t *testing.T) {
	q, err := query.Parse(`UPDATE users SET age = '38' WHERE id='u1'`)
	require.NoError(t, err)
	assert.Equal(t, "38", q.RowData.GetOr("age"))
}

func TestParseDeleteKeys(t *testing.T) {
	q, err := query.Parse(`DELETE FROM users KEYS ["u1","u2"]`)
	require.NoError(t, err)
	assert.Equal(t, query.KindDelete, q.Kind)
	assert.Equal(t, []string{"u1", "u2"}, q.DeleteKeys)
}

func TestParseDeleteWhere(t *testing.T) {
	q, err := query.Parse(`DELETE FROM users WHERE name='Ada'`)
	require.NoError(t, err)
	assert.Nil(t, q.DeleteKeys)
	require.Len(t, q.Conditions, 1)
}

func TestParseBatch(t *testing.T) {
	q, err := query.Parse(`BATCH users {"r1":{"id":"u1","name":"Ada"},"r2":{"id":"u2","name":"Grace"}}`)
	require.NoError(t, err)
	assert.Equal(t, query.KindBatch, q.Kind)
	require.Len(t, q.BatchRows, 2)
	assert.Equal(t, "u1", q.BatchRows[0].GetOr("id"))
}

func TestParseSelectStar(t *testing.T) {
	q, err := query.Parse(`SELECT * FROM users WHERE name='Ada'`)
	require.NoError(t, err)
	assert.Equal(t, query.KindSelect, q.Kind)
	assert.Equal(t, []string{"*"}, q.Projection)
	assert.Equal(t, -1, q.Limit)
}

func TestParseSelectWithJoin(t *testing.T) {
	q, err := query.Parse(`SELECT * FROM orders JOIN users ON orders.user = users.id`)
	require.NoError(t, err)
	require.Len(t, q.Joins, 1)
	j := q.Joins[0]
	assert.Equal(t, query.InnerJoin, j.Kind)
	assert.Equal(t, "users", j.Table)
	assert.Equal(t, "orders", j.LeftQualifier)
	assert.Equal(t, "user", j.LeftField)
	assert.Equal(t, "users", j.RightQualifier)
	assert.Equal(t, "id", j.RightField)
}

func TestParseSelectLeftOuterJoin(t *testing.T) {
	q, err := query.Parse(`SELECT * FROM orders LEFT OUTER JOIN users ON orders.user = users.id`)
	require.NoError(t, err)
	require.Len(t, q.Joins, 1)
	assert.Equal(t, query.LeftOuterJoin, q.Joins[0].Kind)
}

func TestParseSelectGroupByAndSum(t *testing.T) {
	q, err := query.Parse(`SELECT user, SUM(amount) AS total FROM ledger GROUP BY user`)
	require.NoError(t, err)
	assert.Equal(t, "user", q.GroupBy)
	require.Len(t, q.Aggregates, 1)
	assert.Equal(t, query.Aggregate{Field: "amount", Alias: "total"}, q.Aggregates[0])
}

func TestParseSelectCount(t *testing.T) {
	q, err := query.Parse(`SELECT COUNT(*) FROM users WHERE name='Ada'`)
	require.NoError(t, err)
	assert.True(t, q.IsCount)
}

func TestParseSelectOrderBySkipLimit(t *testing.T) {
	q, err := query.Parse(`SELECT * FROM items ORDER BY stock DESC SKIP 1 LIMIT 2`)
	require.NoError(t, err)
	assert.Equal(t, "stock", q.OrderByField)
	assert.True(t, q.OrderDesc)
	assert.Equal(t, 1, q.Skip)
	assert.Equal(t, 2, q.Limit)
}

func TestParseSelectMultipleAndConditions(t *testing.T) {
	q, err := query.Parse(`SELECT * FROM users WHERE name='Ada' AND age > '30'`)
	require.NoError(t, err)
	require.Len(t, q.Conditions, 2)
	assert.Equal(t, "age", q.Conditions[1].Field)
	assert.Equal(t, ">", q.Conditions[1].Op)
}

func TestParseRejectsOr(t *testing.T) {
	_, err := query.Parse(`SELECT * FROM users WHERE name='Ada' OR name='Grace'`)
	assert.ErrorIs(t, err, types.ErrUnsupportedShape)
}

func TestParseUnrecognizedShape(t *testing.T) {
	_, err := query.Parse(`MERGE users VALUES {}`)
	assert.ErrorIs(t, err, types.ErrUnsupportedShape)
}

func TestParseTrailingSemicolon(t *testing.T) {
	q, err := query.Parse(`SELECT * FROM users;`)
	require.NoError(t, err)
	assert.Equal(t, "users", q.Table)
}
