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

package compute

import (
	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/storage"
	"github.com/vecdb/lanescan/pkg/util"
)

// AttributeAccess reads one column of the chunk a batch points into.
type AttributeAccess struct {
	_vec      *chunk.Vector
	_nullable bool
}

func NewAttributeAccess(vec *chunk.Vector, nullable bool) *AttributeAccess {
	return &AttributeAccess{
		_vec:      vec,
		_nullable: nullable,
	}
}

func (aa *AttributeAccess) GetValue(rowId int) *chunk.Value {
	return aa._vec.GetValue(rowId)
}

func (aa *AttributeAccess) Vector() *chunk.Vector {
	return aa._vec
}

func (aa *AttributeAccess) Nullable() bool {
	return aa._nullable
}

// RowBatch is one chunk's worth of surviving rows handed to the sink. It
// borrows the chunk's vectors and the scan's selection vector; consumers
// must not hold it past Consume.
type RowBatch struct {
	_chunkId  storage.IdxType
	_rowStart int
	_rowEnd   int
	_sel      *chunk.SelectVector
	_filtered bool
	_attrs    map[int]*AttributeAccess
}

func NewRowBatch(chunkId storage.IdxType, rowStart, rowEnd int, sel *chunk.SelectVector, filtered bool) *RowBatch {
	return &RowBatch{
		_chunkId:  chunkId,
		_rowStart: rowStart,
		_rowEnd:   rowEnd,
		_sel:      sel,
		_filtered: filtered,
		_attrs:    make(map[int]*AttributeAccess),
	}
}

func (rb *RowBatch) ChunkId() storage.IdxType {
	return rb._chunkId
}

func (rb *RowBatch) Filtered() bool {
	return rb._filtered
}

func (rb *RowBatch) AddAttribute(colIdx int, acc *AttributeAccess) {
	rb._attrs[colIdx] = acc
}

func (rb *RowBatch) GetAttribute(colIdx int) *AttributeAccess {
	acc, has := rb._attrs[colIdx]
	util.AssertFunc(has)
	return acc
}

func (rb *RowBatch) Attributes() map[int]*AttributeAccess {
	return rb._attrs
}

// NumValidRows is the surviving row count: the selection count when the
// batch is filtered, the full range otherwise.
func (rb *RowBatch) NumValidRows() int {
	if rb._filtered {
		return rb._sel.Count
	}
	return rb._rowEnd - rb._rowStart
}

// RowId maps a batch position to the physical row offset in the chunk.
func (rb *RowBatch) RowId(pos int) int {
	if rb._filtered {
		return rb._sel.GetIndex(pos)
	}
	return rb._rowStart + pos
}
