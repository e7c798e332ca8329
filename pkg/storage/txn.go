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
	"math"
	"sync"
	"sync/atomic"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/util"
)

const (
	TxnIdStart   TxnType = 4611686018427388000
	MaxTxnId     TxnType = math.MaxUint64
	NotDeletedId TxnType = math.MaxUint64
)

type TxnMgr struct {
	_curStartTs TxnType
	_curTxnId   TxnType
	_activeTxns []*Txn
	_lock       sync.Locker
}

func NewTxnMgr() *TxnMgr {
	return &TxnMgr{
		_curStartTs: 2,
		_curTxnId:   TxnIdStart,
		_lock:       util.NewReentryLock(),
	}
}

func (txnMgr *TxnMgr) NewTxn(name string) (*Txn, error) {
	txnMgr._lock.Lock()
	defer txnMgr._lock.Unlock()
	if txnMgr._curStartTs >= TxnIdStart {
		return nil, fmt.Errorf("invalid txn id")
	}
	startTime := txnMgr._curStartTs
	txnMgr._curStartTs++
	txnId := txnMgr._curTxnId
	txnMgr._curTxnId++
	txn := &Txn{
		_txnMgr:    txnMgr,
		_name:      name,
		_startTime: startTime,
		_id:        txnId,
	}
	txnMgr._activeTxns = append(txnMgr._activeTxns, txn)
	return txn, nil
}

func (txnMgr *TxnMgr) Commit(txn *Txn) error {
	txnMgr._lock.Lock()
	defer txnMgr._lock.Unlock()
	commitId := txnMgr._curStartTs
	txnMgr._curStartTs++
	err := txn.Commit(commitId)
	if err != nil {
		txn._commitId = 0
		txn.doRollback()
	}
	txnMgr.removeUnsafe(txn)
	return err
}

func (txnMgr *TxnMgr) Rollback(txn *Txn) error {
	txnMgr._lock.Lock()
	defer txnMgr._lock.Unlock()
	txn.doRollback()
	txnMgr.removeUnsafe(txn)
	return nil
}

func (txnMgr *TxnMgr) removeUnsafe(txn *Txn) {
	txnMgr._activeTxns = util.RemoveIf(txnMgr._activeTxns, func(t *Txn) bool {
		return t == txn
	})
}

type Txn struct {
	_txnMgr    *TxnMgr
	_name      string
	_startTime TxnType
	_id        TxnType
	_commitId  TxnType
	_appends   []*AppendInfo
	_deletes   []*DeleteInfo
}

func (txn *Txn) StartTime() TxnType {
	return txn._startTime
}

func (txn *Txn) Id() TxnType {
	return txn._id
}

func (txn *Txn) Changed() bool {
	return len(txn._appends) != 0 || len(txn._deletes) != 0
}

type AppendInfo struct {
	_info  *ChunkInfo
	_start IdxType
	_end   IdxType
}

type DeleteInfo struct {
	_info *ChunkInfo
	_rows []IdxType
}

func (txn *Txn) PushAppend(info *ChunkInfo, start IdxType, end IdxType) {
	txn._appends = append(txn._appends, &AppendInfo{
		_info:  info,
		_start: start,
		_end:   end,
	})
}

func (txn *Txn) PushDelete(info *ChunkInfo, rows []IdxType) {
	txn._deletes = append(txn._deletes, &DeleteInfo{
		_info: info,
		_rows: rows,
	})
}

func (txn *Txn) Commit(commitId TxnType) error {
	txn._commitId = commitId
	for _, app := range txn._appends {
		app._info.CommitAppend(commitId, app._start, app._end)
	}
	for _, del := range txn._deletes {
		del._info.CommitDelete(commitId, del._rows, IdxType(len(del._rows)))
	}
	txn._appends = nil
	txn._deletes = nil
	return nil
}

func (txn *Txn) doRollback() {
	for _, app := range txn._appends {
		app._info.RevertAppend(app._start, app._end)
	}
	for _, del := range txn._deletes {
		del._info.RevertDelete(del._rows, IdxType(len(del._rows)))
	}
	txn._appends = nil
	txn._deletes = nil
}

type VersionOp interface {
	UseInsertedVersion(startTime, txnId, id TxnType) bool
	UseDeletedVersion(startTime, txnId, id TxnType) bool
}

var _ VersionOp = &TxnVersionOp{}
var _ VersionOp = &CommittedVersionOp{}

type TxnVersionOp struct {
}

func (op TxnVersionOp) UseInsertedVersion(
	startTime, txnId, id TxnType) bool {
	return id < startTime || id == txnId
}

func (op TxnVersionOp) UseDeletedVersion(
	startTime, txnId, id TxnType) bool {
	return !op.UseInsertedVersion(startTime, txnId, id)
}

type CommittedVersionOp struct {
}

func (op CommittedVersionOp) UseInsertedVersion(
	startTime, txnId, id TxnType) bool {
	return id < TxnIdStart
}

func (op CommittedVersionOp) UseDeletedVersion(
	startTime, txnId, id TxnType) bool {
	return id >= TxnIdStart
}

type ChunkInfoType int

const (
	CONSTANT_INFO ChunkInfoType = iota
	VECTOR_INFO
)

type ChunkInfo struct {
	_type  ChunkInfoType
	_start IdxType
	//constant info
	_insertId atomic.Uint64
	_deleteId atomic.Uint64
	//vector info
	_sameInsertedId atomic.Bool
	_inserted       [STANDARD_VECTOR_SIZE]atomic.Uint64
	_deleted        [STANDARD_VECTOR_SIZE]atomic.Uint64
	_anyDeleted     atomic.Bool
}

func NewConstantInfo(start IdxType) *ChunkInfo {
	ret := &ChunkInfo{
		_type:  CONSTANT_INFO,
		_start: start,
	}
	ret._deleteId.Store(uint64(NotDeletedId))
	return ret
}

func NewVectorInfo(start IdxType) *ChunkInfo {
	ret := &ChunkInfo{
		_type:  VECTOR_INFO,
		_start: start,
	}
	ret._sameInsertedId.Store(true)
	for i := 0; i < STANDARD_VECTOR_SIZE; i++ {
		ret._deleted[i].Store(uint64(NotDeletedId))
	}
	return ret
}

func (info *ChunkInfo) Append(start IdxType, end IdxType, txnId TxnType) {
	if start == 0 {
		info._insertId.Store(uint64(txnId))
	} else if info._insertId.Load() != uint64(txnId) {
		info._sameInsertedId.Store(false)
		info._insertId.Store(uint64(NotDeletedId))
	}
	for i := start; i < end; i++ {
		info._inserted[i].Store(uint64(txnId))
	}
}

func (info *ChunkInfo) CommitAppend(
	commitId TxnType,
	start IdxType, end IdxType) {
	switch info._type {
	case CONSTANT_INFO:
		util.AssertFunc(start == 0 && end == STANDARD_VECTOR_SIZE)
		info._insertId.Store(uint64(commitId))
	case VECTOR_INFO:
		if info._sameInsertedId.Load() {
			info._insertId.Store(uint64(commitId))
		}
		for i := start; i < end; i++ {
			info._inserted[i].Store(uint64(commitId))
		}
	}
}

func (info *ChunkInfo) RevertAppend(start IdxType, end IdxType) {
	switch info._type {
	case CONSTANT_INFO:
		info._insertId.Store(uint64(MaxTxnId))
	case VECTOR_INFO:
		if info._sameInsertedId.Load() {
			info._insertId.Store(uint64(MaxTxnId))
		}
		for i := start; i < end; i++ {
			info._inserted[i].Store(uint64(MaxTxnId))
		}
	}
}

func (info *ChunkInfo) CommitDelete(
	commitId TxnType,
	rows []IdxType,
	count IdxType) {
	if info._type == VECTOR_INFO {
		for i := IdxType(0); i < count; i++ {
			info._deleted[rows[i]].Store(uint64(commitId))
		}
	}
}

func (info *ChunkInfo) RevertDelete(
	rows []IdxType,
	count IdxType) {
	if info._type == VECTOR_INFO {
		for i := IdxType(0); i < count; i++ {
			info._deleted[rows[i]].Store(uint64(NotDeletedId))
		}
	}
}

// GetSelVector fills sel with the row offsets in [0,maxCount) visible to
// the transaction and returns how many survive. A full-chunk result leaves
// sel untouched and relies on the caller treating count==maxCount as
// an identity selection.
func (info *ChunkInfo) GetSelVector(
	txn *Txn,
	sel *chunk.SelectVector,
	maxCount IdxType) IdxType {
	return info.GetSelVector2(txn._startTime, txn._id, sel, maxCount)
}

func (info *ChunkInfo) GetSelVector2(
	startTime TxnType,
	id TxnType,
	sel *chunk.SelectVector,
	maxCount IdxType) IdxType {
	switch info._type {
	case CONSTANT_INFO:
		return info.TemplatedGetSelVectorWithConstant(
			startTime,
			id,
			sel,
			maxCount,
			TxnVersionOp{})
	case VECTOR_INFO:
		return info.TemplatedGetSelVectorWithVector(
			startTime,
			id,
			sel,
			maxCount,
			TxnVersionOp{})
	default:
		panic("unexpected info type")
	}
}

func (info *ChunkInfo) TemplatedGetSelVectorWithConstant(
	startTime TxnType,
	txnId TxnType,
	sel *chunk.SelectVector,
	maxCount IdxType,
	op VersionOp,
) IdxType {
	if op.UseInsertedVersion(startTime, txnId, TxnType(info._insertId.Load())) &&
		op.UseDeletedVersion(startTime, txnId, TxnType(info._deleteId.Load())) {
		return maxCount
	}
	return 0
}

func (info *ChunkInfo) TemplatedGetSelVectorWithVector(
	startTime TxnType,
	txnId TxnType,
	sel *chunk.SelectVector,
	maxCount IdxType,
	op VersionOp,
) IdxType {
	count := IdxType(0)
	if info._sameInsertedId.Load() && !info._anyDeleted.Load() {
		if op.UseInsertedVersion(startTime, txnId, TxnType(info._insertId.Load())) {
			return maxCount
		} else {
			return 0
		}
	} else if info._sameInsertedId.Load() {
		if !op.UseInsertedVersion(startTime, txnId, TxnType(info._insertId.Load())) {
			return 0
		}
		for i := IdxType(0); i < maxCount; i++ {
			if op.UseDeletedVersion(startTime, txnId, TxnType(info._deleted[i].Load())) {
				sel.SetIndex(int(count), int(i))
				count++
			}
		}
	} else if !info._anyDeleted.Load() {
		for i := IdxType(0); i < maxCount; i++ {
			if op.UseInsertedVersion(startTime, txnId, TxnType(info._inserted[i].Load())) {
				sel.SetIndex(int(count), int(i))
				count++
			}
		}
	} else {
		for i := IdxType(0); i < maxCount; i++ {
			if op.UseInsertedVersion(startTime, txnId, TxnType(info._inserted[i].Load())) &&
				op.UseDeletedVersion(startTime, txnId, TxnType(info._deleted[i].Load())) {
				sel.SetIndex(int(count), int(i))
				count++
			}
		}
	}
	return count
}

// FilterSelVector narrows an already populated selection in place, keeping
// only the entries visible to the transaction. Survivors keep their
// original order.
func (info *ChunkInfo) FilterSelVector(
	txn *Txn,
	sel *chunk.SelectVector,
	count IdxType) IdxType {
	return info.filterSelVector(txn._startTime, txn._id, sel, count, TxnVersionOp{})
}

func (info *ChunkInfo) filterSelVector(
	startTime TxnType,
	txnId TxnType,
	sel *chunk.SelectVector,
	count IdxType,
	op VersionOp,
) IdxType {
	switch info._type {
	case CONSTANT_INFO:
		if op.UseInsertedVersion(startTime, txnId, TxnType(info._insertId.Load())) &&
			op.UseDeletedVersion(startTime, txnId, TxnType(info._deleteId.Load())) {
			return count
		}
		return 0
	case VECTOR_INFO:
		if info._sameInsertedId.Load() && !info._anyDeleted.Load() {
			if op.UseInsertedVersion(startTime, txnId, TxnType(info._insertId.Load())) {
				return count
			}
			return 0
		}
		kept := IdxType(0)
		for i := IdxType(0); i < count; i++ {
			row := IdxType(sel.GetIndex(int(i)))
			if op.UseInsertedVersion(startTime, txnId, TxnType(info._inserted[row].Load())) &&
				op.UseDeletedVersion(startTime, txnId, TxnType(info._deleted[row].Load())) {
				sel.SetIndex(int(kept), int(row))
				kept++
			}
		}
		return kept
	default:
		panic("unexpected info type")
	}
}

func (info *ChunkInfo) CommittedCount(maxCount IdxType) IdxType {
	switch info._type {
	case CONSTANT_INFO:
		return info.TemplatedGetSelVectorWithConstant(
			0, 0, nil, maxCount, CommittedVersionOp{})
	case VECTOR_INFO:
		op := CommittedVersionOp{}
		count := IdxType(0)
		for i := IdxType(0); i < maxCount; i++ {
			if op.UseInsertedVersion(0, 0, TxnType(info._inserted[i].Load())) &&
				op.UseDeletedVersion(0, 0, TxnType(info._deleted[i].Load())) {
				count++
			}
		}
		return count
	default:
		panic("unexpected info type")
	}
}

func (info *ChunkInfo) Delete(
	txnId TxnType,
	rows []IdxType,
	count IdxType) IdxType {
	info._anyDeleted.Store(true)
	deleteTuples := IdxType(0)
	for i := IdxType(0); i < count; i++ {
		if info._deleted[rows[i]].Load() == uint64(txnId) {
			continue
		}

		if info._deleted[rows[i]].Load() != uint64(NotDeletedId) {
			panic(fmt.Sprintf("conflicts on txn %d deletion row. already deleted by other txn %d",
				txnId,
				info._deleted[rows[i]].Load()))
		}
		info._deleted[rows[i]].Store(uint64(txnId))
		rows[deleteTuples] = rows[i]
		deleteTuples++
	}
	return deleteTuples
}
