package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirkdb/quirkdb/internal/storage"
	"github.com/quirkdb/quirkdb/internal/storage/memory"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.Put(ctx, "users", "u1", []byte(`{"id":"u1"}`)))
	v, ok, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"id":"u1"}`), v)

	require.NoError(t, s.Delete(ctx, "users", "u1"))
	_, ok, err = s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanOrdersByKey(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Put(ctx, "users", "u3", []byte("3")))
	require.NoError(t, s.Put(ctx, "users", "u1", []byte("1")))
	require.NoError(t, s.Put(ctx, "users", "u2", []byte("2")))

	it, err := s.Scan(ctx, "users")
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"u1", "u2", "u3"}, keys)
}

func TestScanOfUnknownTableIsEmpty(t *testing.T) {
	s := memory.New()
	it, err := s.Scan(context.Background(), "ghost")
	require.NoError(t, err)
	defer it.Close()
	assert.False(t, it.Next())
}

func TestWriteBatchIsAtomicAcrossTables(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Put(ctx, "users", "u1", []byte("old")))

	err := s.WriteBatch(ctx, []storage.Op{
		{Table: "users", Key: "u1", Value: nil},
		{Table: "orders", Key: "o1", Value: []byte("new")},
	})
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := s.Get(ctx, "orders", "o1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), v)
}

func TestTablesListsKnownNamespaces(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Put(ctx, "users", "u1", []byte("x")))
	require.NoError(t, s.Put(ctx, "orders", "o1", []byte("y")))

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
}
