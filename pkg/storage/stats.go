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
	"sync"

	treemap "github.com/liyue201/gostl/ds/map"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
)

type ZoneCmpOp int

const (
	ZoneEqual ZoneCmpOp = iota
	ZoneNotEqual
	ZoneLess
	ZoneLessEqual
	ZoneGreater
	ZoneGreaterEqual
)

// ZoneMapPredicate is a compiled comparison against a constant, in the
// shape chunk skipping can evaluate: column index, operator, constant.
type ZoneMapPredicate struct {
	ColIdx   int
	Op       ZoneCmpOp
	Constant *chunk.Value
}

// ZoneMapCollection answers whether a chunk may contain rows satisfying
// a conjunction of comparisons. Skipping is an optimization only; a
// collection may always answer true. A nil collection means no skipping.
type ZoneMapCollection interface {
	ShouldScanChunk(chunkId IdxType, preds []ZoneMapPredicate) bool
}

type zoneEntry struct {
	_hasValues bool
	_min       *chunk.Value
	_max       *chunk.Value
}

// ZoneMaps keeps per-chunk per-column min/max, updated on append.
type ZoneMaps struct {
	_lock    sync.Mutex
	_entries *treemap.Map[uint64, *zoneEntry]
}

func NewZoneMaps() *ZoneMaps {
	cmp := func(a, b uint64) int {
		if a < b {
			return -1
		} else if a > b {
			return 1
		}
		return 0
	}
	return &ZoneMaps{
		_entries: treemap.New[uint64, *zoneEntry](cmp),
	}
}

func zoneKey(chunkId IdxType, colIdx int) uint64 {
	return uint64(chunkId)<<16 | uint64(colIdx)
}

func (zm *ZoneMaps) Update(chunkId IdxType, colIdx int, val *chunk.Value) {
	if val.IsNull {
		return
	}
	zm._lock.Lock()
	defer zm._lock.Unlock()
	key := zoneKey(chunkId, colIdx)
	ent, err := zm._entries.Get(key)
	if err != nil {
		ent = &zoneEntry{}
		zm._entries.Insert(key, ent)
	}
	if !ent._hasValues {
		ent._hasValues = true
		ent._min = val
		ent._max = val
		return
	}
	if valueLess(val, ent._min) {
		ent._min = val
	}
	if valueLess(ent._max, val) {
		ent._max = val
	}
}

func (zm *ZoneMaps) ShouldScanChunk(chunkId IdxType, preds []ZoneMapPredicate) bool {
	zm._lock.Lock()
	defer zm._lock.Unlock()
	for _, pred := range preds {
		ent, err := zm._entries.Get(zoneKey(chunkId, pred.ColIdx))
		if err != nil || !ent._hasValues {
			// no stats for the column, cannot skip
			continue
		}
		if !zonePossible(ent, pred.Op, pred.Constant) {
			return false
		}
	}
	return true
}

func zonePossible(ent *zoneEntry, op ZoneCmpOp, c *chunk.Value) bool {
	if c.IsNull {
		// null comparisons never match but skipping stays conservative
		return true
	}
	switch op {
	case ZoneEqual:
		return !valueLess(c, ent._min) && !valueLess(ent._max, c)
	case ZoneNotEqual:
		return valueLess(ent._min, c) || valueLess(c, ent._min) ||
			valueLess(ent._max, c) || valueLess(c, ent._max)
	case ZoneLess:
		return valueLess(ent._min, c)
	case ZoneLessEqual:
		return !valueLess(c, ent._min)
	case ZoneGreater:
		return valueLess(c, ent._max)
	case ZoneGreaterEqual:
		return !valueLess(ent._max, c)
	default:
		panic("usp")
	}
}

func valueLess(a, b *chunk.Value) bool {
	switch a.Typ.GetInternalType() {
	case common.INT32, common.INT64:
		return a.I64 < b.I64
	case common.FLOAT, common.DOUBLE:
		return a.F64 < b.F64
	case common.BOOL:
		return !a.Bool && b.Bool
	case common.VARCHAR:
		return a.Str < b.Str
	case common.DECIMAL:
		return a.Dec.Less(&b.Dec)
	default:
		panic("usp")
	}
}
