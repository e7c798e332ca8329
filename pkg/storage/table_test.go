// Copyright 2024-2025 vecdb
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/util"
)

func testColDefs() []*ColumnDefinition {
	return []*ColumnDefinition{
		{Name: "id", Typ: common.IntegerType()},
		{Name: "price", Typ: common.DoubleType(), Nullable: true},
	}
}

func makeRows(ids []int32, prices []float64) *chunk.Chunk {
	data := &chunk.Chunk{}
	data.Init([]common.LType{common.IntegerType(), common.DoubleType()},
		util.DefaultVectorSize)
	for i := range ids {
		data.Data[0].SetValue(i, chunk.IntegerValue(ids[i]))
		data.Data[1].SetValue(i, chunk.DoubleValue(prices[i]))
	}
	data.SetCard(len(ids))
	return data
}

func seqRows(n int) *chunk.Chunk {
	ids := make([]int32, n)
	prices := make([]float64, n)
	for i := range ids {
		ids[i] = int32(i)
		prices[i] = float64(i) * 1.5
	}
	return makeRows(ids, prices)
}

func TestAppendTypeMismatch(t *testing.T) {
	table := NewDataTable(1, "public", "t", testColDefs())
	txnMgr := NewTxnMgr()
	txn, err := txnMgr.NewTxn("w")
	require.NoError(t, err)

	bad := &chunk.Chunk{}
	bad.Init([]common.LType{common.IntegerType()}, util.DefaultVectorSize)
	bad.SetCard(1)
	assert.Error(t, table.Append(txn, bad))

	bad2 := &chunk.Chunk{}
	bad2.Init([]common.LType{common.IntegerType(), common.VarcharType()},
		util.DefaultVectorSize)
	bad2.SetCard(1)
	assert.Error(t, table.Append(txn, bad2))
}

func TestAppendSpansChunkGroups(t *testing.T) {
	table := NewDataTable(1, "public", "t", testColDefs())
	txnMgr := NewTxnMgr()
	txn, err := txnMgr.NewTxn("w")
	require.NoError(t, err)

	total := 0
	for total < STANDARD_VECTOR_SIZE+100 {
		require.NoError(t, table.Append(txn, seqRows(1000)))
		total += 1000
	}
	require.NoError(t, txnMgr.Commit(txn))

	assert.Equal(t, IdxType(2), table.ChunkCount())
	assert.Equal(t, IdxType(STANDARD_VECTOR_SIZE), table.Chunk(0).Count())
	assert.Equal(t, IdxType(total-STANDARD_VECTOR_SIZE), table.Chunk(1).Count())
	assert.Equal(t, IdxType(total), table.CommittedRowCount())

	// rows kept their order across group boundaries
	grp1 := table.Chunk(1)
	val := grp1.ColumnVector(0).GetValue(0)
	assert.Equal(t, int64(STANDARD_VECTOR_SIZE%1000), val.I64)
}

func TestDeleteOutOfRange(t *testing.T) {
	table := NewDataTable(1, "public", "t", testColDefs())
	txnMgr := NewTxnMgr()
	txn, err := txnMgr.NewTxn("w")
	require.NoError(t, err)
	require.NoError(t, table.Append(txn, seqRows(10)))
	require.NoError(t, txnMgr.Commit(txn))

	del, err := txnMgr.NewTxn("d")
	require.NoError(t, err)
	_, err = table.Delete(del, 5, []IdxType{0})
	assert.Error(t, err)
	_, err = table.Delete(del, 0, []IdxType{10})
	assert.Error(t, err)
}

func TestColumnIndex(t *testing.T) {
	table := NewDataTable(1, "public", "t", testColDefs())
	idx, err := table.ColumnIndex("price")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	_, err = table.ColumnIndex("nope")
	assert.Error(t, err)
}
