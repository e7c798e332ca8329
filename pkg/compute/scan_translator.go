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
	"fmt"

	"github.com/xlab/treeprint"
	"go.uber.org/zap"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/storage"
	"github.com/vecdb/lanescan/pkg/util"
)

// ScanPlan is the plan node a translator turns into an executable scan.
type ScanPlan struct {
	Table     storage.IdxType // table oid
	Columns   []int           // projected column positions; empty means all
	Predicate *Expr
	Order     FilterOrder
}

// TableScanTranslator compiles the plan's predicate once and drives the
// chunk iteration. Zone maps are an injected capability; a nil collection
// disables chunk skipping.
type TableScanTranslator struct {
	_plan     *ScanPlan
	_catalog  *storage.Catalog
	_pipeline *Pipeline
	_filter   *CompiledFilter
	_zoneMaps storage.ZoneMapCollection
	_table    *storage.DataTable
	_stats    ScanStats
}

// NewTableScanTranslator prepares the compiled sub-expressions. A
// predicate whose comparison types cannot be derived is a plan error and
// aborts construction. When the whole predicate runs in lanes the
// translator installs a pipeline boundary at its output.
func NewTableScanTranslator(plan *ScanPlan, catalog *storage.Catalog, pipeline *Pipeline) (*TableScanTranslator, error) {
	filter, err := CompileFilter(plan.Predicate)
	if err != nil {
		return nil, err
	}
	tr := &TableScanTranslator{
		_plan:     plan,
		_catalog:  catalog,
		_pipeline: pipeline,
		_filter:   filter,
	}
	if plan.Predicate != nil && filter.FullyLaneEligible() {
		pipeline.InstallBoundaryAtOutput(tr.Name())
	}
	return tr, nil
}

// WithZoneMaps injects the chunk-skip statistics.
func (tr *TableScanTranslator) WithZoneMaps(zm storage.ZoneMapCollection) *TableScanTranslator {
	tr._zoneMaps = zm
	return tr
}

func (tr *TableScanTranslator) Name() string {
	name := fmt.Sprintf("#%d", tr._plan.Table)
	if tr._table != nil {
		name = tr._table.Name()
	}
	return fmt.Sprintf("Scan('%s', %d)", name, util.LaneWidth)
}

func (tr *TableScanTranslator) Filter() *CompiledFilter {
	return tr._filter
}

func (tr *TableScanTranslator) Stats() *ScanStats {
	return &tr._stats
}

func (tr *TableScanTranslator) resolveTable() error {
	table, err := tr._catalog.GetTable(tr._plan.Table)
	if err != nil {
		return err
	}
	tr._table = table
	return nil
}

func (tr *TableScanTranslator) columns() []int {
	if len(tr._plan.Columns) > 0 {
		return tr._plan.Columns
	}
	cols := make([]int, 0, len(tr._table.ColumnDefs()))
	for i := range tr._table.ColumnDefs() {
		cols = append(cols, i)
	}
	return cols
}

// Produce resolves the table handle, allocates the selection-vector
// buffer at the engine vector capacity, and walks every chunk through the
// consumer.
func (tr *TableScanTranslator) Produce(txn *storage.Txn) error {
	if err := tr.resolveTable(); err != nil {
		return err
	}
	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	consumer := NewScanConsumer(
		txn,
		tr._table,
		tr._filter,
		tr._plan.Order,
		tr.columns(),
		tr._pipeline.Sink(),
		sel,
		&tr._stats,
	)
	zonePreds := tr._filter.ZonePredicates()
	for ci := storage.IdxType(0); ci < tr._table.ChunkCount(); ci++ {
		grp := tr._table.Chunk(ci)
		if tr._zoneMaps != nil && len(zonePreds) > 0 &&
			!tr._zoneMaps.ShouldScanChunk(grp.Id(), zonePreds) {
			tr._stats.ChunksSkipped++
			continue
		}
		if err := consumer.ProcessChunk(grp); err != nil {
			return err
		}
	}
	tr.logStats()
	return nil
}

func (tr *TableScanTranslator) logStats() {
	util.Info("scan produced",
		zap.String("scan", tr.Name()),
		zap.Duration("filterTime", tr._stats.FilterTime),
		zap.Uint64("chunksScanned", tr._stats.ChunksScanned),
		zap.Uint64("chunksSkipped", tr._stats.ChunksSkipped),
		zap.Uint64("rowsExamined", tr._stats.RowsExamined),
		zap.Uint64("rowsProduced", tr._stats.RowsProduced),
	)
}

// Explain renders the compiled scan.
func (tr *TableScanTranslator) Explain() string {
	tree := treeprint.New()
	root := tree.AddBranch(tr.Name())
	root.AddNode(fmt.Sprintf("order: %s", tr._plan.Order))
	if len(tr._filter._lanePreds) > 0 {
		lanes := root.AddBranch(fmt.Sprintf("lane predicates (width %d)", util.LaneWidth))
		for _, pred := range tr._filter._lanePreds {
			lanes.AddNode(pred.String())
		}
	}
	if tr._filter._residual != nil {
		resid := root.AddBranch("residual")
		tr._filter._residual.Print(resid)
	}
	return tree.String()
}
