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
	"github.com/vecdb/lanescan/pkg/common"
)

// OperatorSink receives row batches pushed by a scan. Consume runs
// synchronously; the batch is only valid for the duration of the call.
type OperatorSink interface {
	Consume(batch *RowBatch) error
}

// Pipeline is the downstream an operator produces into. A boundary marks
// a point where batch contents must be materialized before crossing.
type Pipeline struct {
	_sink       OperatorSink
	_boundaries []string
}

func NewPipeline(sink OperatorSink) *Pipeline {
	return &Pipeline{_sink: sink}
}

func (p *Pipeline) Sink() OperatorSink {
	return p._sink
}

func (p *Pipeline) InstallBoundaryAtOutput(name string) {
	p._boundaries = append(p._boundaries, name)
}

func (p *Pipeline) Boundaries() []string {
	return p._boundaries
}

// CollectorSink materializes batches into owned chunks, one value copy per
// surviving row. Used by the CLI and tests.
type CollectorSink struct {
	_types  []common.LType
	_cols   []int
	_chunks []*chunk.Chunk
	_rows   int
}

func NewCollectorSink(types []common.LType, cols []int) *CollectorSink {
	return &CollectorSink{
		_types: types,
		_cols:  cols,
	}
}

func (sink *CollectorSink) Consume(batch *RowBatch) error {
	cnt := batch.NumValidRows()
	if cnt == 0 {
		return nil
	}
	out := &chunk.Chunk{}
	out.Init(sink._types, cnt)
	for pos := 0; pos < cnt; pos++ {
		rowId := batch.RowId(pos)
		for i, col := range sink._cols {
			val := batch.GetAttribute(col).GetValue(rowId)
			out.Data[i].SetValue(pos, val)
		}
	}
	out.SetCard(cnt)
	sink._chunks = append(sink._chunks, out)
	sink._rows += cnt
	return nil
}

func (sink *CollectorSink) Chunks() []*chunk.Chunk {
	return sink._chunks
}

func (sink *CollectorSink) RowCount() int {
	return sink._rows
}
