package predicate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirkdb/quirkdb/internal/predicate"
	"github.com/quirkdb/quirkdb/internal/types"
)

func TestEvalEquality(t *testing.T) {
	ok, err := predicate.Eval("Ada", "=", "Ada")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = predicate.Eval("Ada", "!=", "Grace")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalNumericComparison(t *testing.T) {
	ok, err := predicate.Eval("10", ">", "9")
	require.NoError(t, err)
	assert.True(t, ok, "numeric comparison should not fall back to lexicographic")

	ok, err = predicate.Eval("2", "<", "10")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalDateComparison(t *testing.T) {
	ok, err := predicate.Eval("2020-01-01", "<", "2020-06-01")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalLexicographicFallback(t *testing.T) {
	ok, err := predicate.Eval("banana", "<", "cherry")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalLike(t *testing.T) {
	ok, err := predicate.Eval("Ada Lovelace", "LIKE", "Ada%")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = predicate.Eval("ada lovelace", "LIKE", "ADA%")
	require.NoError(t, err)
	assert.True(t, ok, "LIKE is case-insensitive")

	ok, err = predicate.Eval("Ada", "LIKE", "A_a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalUnknownOperator(t *testing.T) {
	_, err := predicate.Eval("a", "~=", "b")
	assert.ErrorIs(t, err, types.ErrUnknownOperator)
}

func TestCompareLadder(t *testing.T) {
	assert.Equal(t, -1, predicate.Compare("1", "2"))
	assert.Equal(t, 0, predicate.Compare("2020-01-01", "2020-01-01"))
	assert.Equal(t, -1, predicate.Compare("alpha", "beta"))
}
