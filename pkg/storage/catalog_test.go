package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCreateAndGet(t *testing.T) {
	cat := NewCatalog()
	table, err := cat.CreateTable("public", "orders", testColDefs())
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, IdxType(1), table.Oid())

	byOid, err := cat.GetTable(table.Oid())
	require.NoError(t, err)
	assert.Same(t, table, byOid)

	byName, err := cat.GetTableByName("public", "orders")
	require.NoError(t, err)
	assert.Same(t, table, byName)
}

func TestCatalogDuplicateName(t *testing.T) {
	cat := NewCatalog()
	_, err := cat.CreateTable("public", "orders", testColDefs())
	require.NoError(t, err)
	_, err = cat.CreateTable("public", "orders", testColDefs())
	assert.Error(t, err)
}

func TestCatalogMissing(t *testing.T) {
	cat := NewCatalog()
	_, err := cat.GetTable(99)
	assert.Error(t, err)
	_, err = cat.GetTableByName("public", "nope")
	assert.Error(t, err)
}

func TestCatalogOidsIncrease(t *testing.T) {
	cat := NewCatalog()
	a, err := cat.CreateTable("public", "a", testColDefs())
	require.NoError(t, err)
	b, err := cat.CreateTable("public", "b", testColDefs())
	require.NoError(t, err)
	assert.Less(t, a.Oid(), b.Oid())
}
