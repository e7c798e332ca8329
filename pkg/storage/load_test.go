package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCsv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	content := "1,1.5\n2,3.0\n3,4.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table := NewDataTable(1, "public", "t", testColDefs())
	txnMgr := NewTxnMgr()
	txn, err := txnMgr.NewTxn("load")
	require.NoError(t, err)

	rows, err := LoadCsv(txn, table, path, ',')
	require.NoError(t, err)
	require.NoError(t, txnMgr.Commit(txn))

	assert.Equal(t, IdxType(3), rows)
	assert.Equal(t, IdxType(3), table.CommittedRowCount())

	grp := table.Chunk(0)
	assert.Equal(t, int64(2), grp.ColumnVector(0).GetValue(1).I64)
	assert.Equal(t, 4.5, grp.ColumnVector(1).GetValue(2).F64)
}

func TestLoadCsvBadField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,1.5\n"), 0644))

	table := NewDataTable(1, "public", "t", testColDefs())
	txnMgr := NewTxnMgr()
	txn, err := txnMgr.NewTxn("load")
	require.NoError(t, err)
	_, err = LoadCsv(txn, table, path, ',')
	assert.Error(t, err)
	require.NoError(t, txnMgr.Rollback(txn))
}

func TestLoadCsvMissingFile(t *testing.T) {
	table := NewDataTable(1, "public", "t", testColDefs())
	txnMgr := NewTxnMgr()
	txn, err := txnMgr.NewTxn("load")
	require.NoError(t, err)
	_, err = LoadCsv(txn, table, "/nonexistent/rows.csv", ',')
	assert.Error(t, err)
}

func TestLoadCsvUpdatesZoneMaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("5,1.0\n9,2.0\n"), 0644))

	table := NewDataTable(1, "public", "t", testColDefs())
	txnMgr := NewTxnMgr()
	txn, err := txnMgr.NewTxn("load")
	require.NoError(t, err)
	_, err = LoadCsv(txn, table, path, ',')
	require.NoError(t, err)
	require.NoError(t, txnMgr.Commit(txn))

	zm := table.ZoneMaps()
	assert.False(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneGreater, 9)}))
	assert.True(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneGreater, 8)}))
	assert.False(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneLess, 5)}))
}
