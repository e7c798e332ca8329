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
	"fmt"
	"sync"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/util"
)

type ColumnDefinition struct {
	Name     string
	Typ      common.LType
	Nullable bool
}

// ChunkGroup is the physical unit of the table: up to STANDARD_VECTOR_SIZE
// rows stored column-wise, with one version info tracking per-row MVCC
// state for the whole group.
type ChunkGroup struct {
	_id      IdxType
	_start   IdxType
	_count   IdxType
	_vectors []*chunk.Vector
	_info    *ChunkInfo
}

func NewChunkGroup(id IdxType, start IdxType, colDefs []*ColumnDefinition) *ChunkGroup {
	grp := &ChunkGroup{
		_id:    id,
		_start: start,
		_info:  NewVectorInfo(start),
	}
	for _, def := range colDefs {
		grp._vectors = append(grp._vectors,
			chunk.NewFlatVector(def.Typ, STANDARD_VECTOR_SIZE))
	}
	return grp
}

func (grp *ChunkGroup) Id() IdxType {
	return grp._id
}

func (grp *ChunkGroup) StartRow() IdxType {
	return grp._start
}

func (grp *ChunkGroup) Count() IdxType {
	return grp._count
}

func (grp *ChunkGroup) Info() *ChunkInfo {
	return grp._info
}

func (grp *ChunkGroup) ColumnCount() int {
	return len(grp._vectors)
}

func (grp *ChunkGroup) ColumnVector(colIdx int) *chunk.Vector {
	util.AssertFunc(colIdx >= 0 && colIdx < len(grp._vectors))
	return grp._vectors[colIdx]
}

type DataTable struct {
	_oid      IdxType
	_schema   string
	_name     string
	_colDefs  []*ColumnDefinition
	_lock     sync.Mutex
	_chunks   []*ChunkGroup
	_zoneMaps *ZoneMaps
}

func NewDataTable(oid IdxType, schema, name string, colDefs []*ColumnDefinition) *DataTable {
	return &DataTable{
		_oid:      oid,
		_schema:   schema,
		_name:     name,
		_colDefs:  colDefs,
		_zoneMaps: NewZoneMaps(),
	}
}

func (table *DataTable) Oid() IdxType {
	return table._oid
}

func (table *DataTable) Name() string {
	return table._name
}

func (table *DataTable) Schema() string {
	return table._schema
}

func (table *DataTable) ColumnDefs() []*ColumnDefinition {
	return table._colDefs
}

func (table *DataTable) ColumnTypes() []common.LType {
	types := make([]common.LType, 0, len(table._colDefs))
	for _, def := range table._colDefs {
		types = append(types, def.Typ)
	}
	return types
}

func (table *DataTable) ColumnIndex(name string) (int, error) {
	for i, def := range table._colDefs {
		if def.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no column %s in table %s", name, table._name)
}

func (table *DataTable) ZoneMaps() *ZoneMaps {
	return table._zoneMaps
}

func (table *DataTable) ChunkCount() IdxType {
	table._lock.Lock()
	defer table._lock.Unlock()
	return IdxType(len(table._chunks))
}

func (table *DataTable) Chunk(idx IdxType) *ChunkGroup {
	table._lock.Lock()
	defer table._lock.Unlock()
	util.AssertFunc(idx < IdxType(len(table._chunks)))
	return table._chunks[idx]
}

// Append writes the rows of data into the tail chunk groups. The rows are
// stamped with the transaction id and stay invisible to other transactions
// until commit.
func (table *DataTable) Append(txn *Txn, data *chunk.Chunk) error {
	if data.ColumnCount() != len(table._colDefs) {
		return fmt.Errorf("table %s expects %d columns, got %d",
			table._name, len(table._colDefs), data.ColumnCount())
	}
	for i, def := range table._colDefs {
		if !data.Data[i].Typ().Equal(def.Typ) {
			return fmt.Errorf("column %s type mismatch", def.Name)
		}
	}

	table._lock.Lock()
	defer table._lock.Unlock()

	remaining := IdxType(data.Card())
	srcRow := 0
	for remaining > 0 {
		grp := table.tailChunkUnsafe()
		start := grp._count
		cnt := min(remaining, IdxType(STANDARD_VECTOR_SIZE)-start)
		for col := range table._colDefs {
			dst := grp._vectors[col]
			src := data.Data[col]
			for r := IdxType(0); r < cnt; r++ {
				val := src.GetValue(srcRow + int(r))
				dst.SetValue(int(start+r), val)
				table._zoneMaps.Update(grp._id, col, val)
			}
		}
		grp._count += cnt
		grp._info.Append(start, start+cnt, txn._id)
		txn.PushAppend(grp._info, start, start+cnt)
		srcRow += int(cnt)
		remaining -= cnt
	}
	return nil
}

func (table *DataTable) tailChunkUnsafe() *ChunkGroup {
	if len(table._chunks) == 0 ||
		table._chunks[len(table._chunks)-1]._count == IdxType(STANDARD_VECTOR_SIZE) {
		id := IdxType(len(table._chunks))
		grp := NewChunkGroup(id, id*IdxType(STANDARD_VECTOR_SIZE), table._colDefs)
		table._chunks = append(table._chunks, grp)
	}
	return table._chunks[len(table._chunks)-1]
}

// Delete marks rows (offsets within the chunk group) deleted by txn.
// Returns the number of rows actually deleted.
func (table *DataTable) Delete(txn *Txn, chunkId IdxType, rows []IdxType) (IdxType, error) {
	table._lock.Lock()
	if chunkId >= IdxType(len(table._chunks)) {
		table._lock.Unlock()
		return 0, fmt.Errorf("no chunk %d in table %s", chunkId, table._name)
	}
	grp := table._chunks[chunkId]
	table._lock.Unlock()

	for _, row := range rows {
		if row >= grp._count {
			return 0, fmt.Errorf("row %d out of range in chunk %d", row, chunkId)
		}
	}
	cnt := grp._info.Delete(txn._id, rows, IdxType(len(rows)))
	if cnt > 0 {
		txn.PushDelete(grp._info, rows[:cnt])
	}
	return cnt, nil
}

// CommittedRowCount counts rows visible to any transaction that starts
// after every in-flight write has resolved.
func (table *DataTable) CommittedRowCount() IdxType {
	table._lock.Lock()
	defer table._lock.Unlock()
	total := IdxType(0)
	for _, grp := range table._chunks {
		total += grp._info.CommittedCount(grp._count)
	}
	return total
}
