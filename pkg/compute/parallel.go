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
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/storage"
	"github.com/vecdb/lanescan/pkg/util"
)

// ParallelProduce scans disjoint chunk ranges on a worker pool. Every
// worker owns a full scan state: a clone of the compiled filter, its own
// selection vector, its own consumer and its own sink from the factory.
// Batches within one worker keep chunk order; ordering across workers is
// up to the caller's sinks.
func (tr *TableScanTranslator) ParallelProduce(
	txn *storage.Txn,
	workers int,
	sinkFactory func() OperatorSink) error {
	util.AssertFunc(workers > 0)
	if err := tr.resolveTable(); err != nil {
		return err
	}
	chunkCount := int(tr._table.ChunkCount())
	if chunkCount == 0 {
		tr.logStats()
		return nil
	}
	if workers > chunkCount {
		workers = chunkCount
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	per := (chunkCount + workers - 1) / workers
	zonePreds := tr._filter.ZonePredicates()
	for w := 0; w < workers; w++ {
		begin := w * per
		end := min(begin+per, chunkCount)
		if begin >= end {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			var taskErr error
			defer func() {
				if v := recover(); v != nil {
					taskErr = util.ConvertPanicError(v)
				}
				mu.Lock()
				if taskErr != nil && firstErr == nil {
					firstErr = taskErr
				}
				mu.Unlock()
			}()
			stats := &ScanStats{}
			sel := chunk.NewSelectVector(util.DefaultVectorSize)
			consumer := NewScanConsumer(
				txn,
				tr._table,
				tr._filter.Clone(),
				tr._plan.Order,
				tr.columns(),
				sinkFactory(),
				sel,
				stats,
			)
			for ci := begin; ci < end; ci++ {
				grp := tr._table.Chunk(storage.IdxType(ci))
				if tr._zoneMaps != nil && len(zonePreds) > 0 &&
					!tr._zoneMaps.ShouldScanChunk(grp.Id(), zonePreds) {
					stats.ChunksSkipped++
					continue
				}
				if taskErr = consumer.ProcessChunk(grp); taskErr != nil {
					break
				}
			}
			mu.Lock()
			tr._stats.merge(stats)
			mu.Unlock()
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	tr.logStats()
	return nil
}
