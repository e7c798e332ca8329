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
	"time"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/storage"
)

// FilterOrder decides which filter narrows the candidate set first.
// PredicateFirst runs the cheap lane comparisons over the contiguous
// range before consulting version info. VisibilityFirst reproduces the
// traditional order. Both yield the same surviving set because column
// values are immutable once appended; deletes only flip version state.
type FilterOrder int

const (
	PredicateFirst FilterOrder = iota
	VisibilityFirst
)

func (fo FilterOrder) String() string {
	switch fo {
	case PredicateFirst:
		return "predicate-first"
	case VisibilityFirst:
		return "visibility-first"
	default:
		panic("usp")
	}
}

// ScanStats accumulates per-scan instrumentation.
type ScanStats struct {
	FilterTime    time.Duration
	ChunksScanned uint64
	ChunksSkipped uint64
	RowsExamined  uint64
	RowsProduced  uint64
}

func (stats *ScanStats) merge(o *ScanStats) {
	stats.FilterTime += o.FilterTime
	stats.ChunksScanned += o.ChunksScanned
	stats.ChunksSkipped += o.ChunksSkipped
	stats.RowsExamined += o.RowsExamined
	stats.RowsProduced += o.RowsProduced
}

// ScanConsumer drives one chunk at a time through predicate filtering and
// visibility filtering, assembles a row batch over the survivors and
// pushes it into the sink. One consumer owns one selection vector.
type ScanConsumer struct {
	_txn    *storage.Txn
	_table  *storage.DataTable
	_filter *CompiledFilter
	_order  FilterOrder
	_cols   []int
	_sink   OperatorSink
	_sel    *chunk.SelectVector
	_stats  *ScanStats
}

func NewScanConsumer(
	txn *storage.Txn,
	table *storage.DataTable,
	filter *CompiledFilter,
	order FilterOrder,
	cols []int,
	sink OperatorSink,
	sel *chunk.SelectVector,
	stats *ScanStats) *ScanConsumer {
	return &ScanConsumer{
		_txn:    txn,
		_table:  table,
		_filter: filter,
		_order:  order,
		_cols:   cols,
		_sink:   sink,
		_sel:    sel,
		_stats:  stats,
	}
}

// ProcessChunk filters one chunk and pushes at most one batch. The
// selection vector is fully overwritten; nothing carries over between
// chunks.
func (sc *ScanConsumer) ProcessChunk(grp *storage.ChunkGroup) error {
	count := int(grp.Count())
	if count == 0 {
		return nil
	}
	begin := time.Now()
	sel := sc._sel
	sel.Reset()

	survivors := 0
	filtered := true
	var err error
	switch sc._order {
	case PredicateFirst:
		if sc._filter.Empty() {
			n := int(grp.Info().GetSelVector(sc._txn, sel, storage.IdxType(count)))
			if n == count {
				// every row visible, no explicit selection needed
				filtered = false
			}
			survivors = n
		} else {
			n, ferr := sc._filter.FilterRange(grp, count, sel)
			if ferr != nil {
				return ferr
			}
			sel.SetCount(n)
			survivors = int(grp.Info().FilterSelVector(sc._txn, sel, storage.IdxType(n)))
		}
	case VisibilityFirst:
		n := int(grp.Info().GetSelVector(sc._txn, sel, storage.IdxType(count)))
		if n == 0 {
			survivors = 0
		} else if n == count {
			// visibility kept everything; filter the contiguous range
			if sc._filter.Empty() {
				filtered = false
				survivors = count
			} else {
				survivors, err = sc._filter.FilterRange(grp, count, sel)
				if err != nil {
					return err
				}
			}
		} else {
			sel.SetCount(n)
			survivors, err = sc._filter.FilterSelection(grp, sel, n)
			if err != nil {
				return err
			}
		}
	default:
		panic("usp")
	}

	sc._stats.FilterTime += time.Since(begin)
	sc._stats.ChunksScanned++
	sc._stats.RowsExamined += uint64(count)
	sc._stats.RowsProduced += uint64(survivors)

	if survivors == 0 {
		return nil
	}
	if filtered {
		sel.SetCount(survivors)
	}

	batch := NewRowBatch(grp.Id(), 0, count, sel, filtered)
	defs := sc._table.ColumnDefs()
	for _, col := range sc._cols {
		batch.AddAttribute(col,
			NewAttributeAccess(grp.ColumnVector(col), defs[col].Nullable))
	}
	return sc._sink.Consume(batch)
}
