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
	"sort"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/util"
)

type ExprState struct {
	_expr       *Expr
	_execState  *ExprExecState
	_children   []*ExprState
	_types      []common.LType
	_interChunk *chunk.Chunk
}

func NewExprState(expr *Expr, eeState *ExprExecState) *ExprState {
	return &ExprState{
		_expr:       expr,
		_execState:  eeState,
		_interChunk: &chunk.Chunk{},
	}
}

func (es *ExprState) addChild(child *Expr) {
	es._types = append(es._types, child.DataTyp)
	es._children = append(es._children, initExprState(child, es._execState))
}

func (es *ExprState) finalize() {
	if len(es._types) == 0 {
		return
	}
	es._interChunk.Init(es._types, util.DefaultVectorSize)
}

type ExprExecState struct {
	_root *ExprState
	_exec *ExprExec
}

type ExprExec struct {
	_exprs      []*Expr
	_chunk      *chunk.Chunk
	_execStates []*ExprExecState
}

func NewExprExec(es ...*Expr) *ExprExec {
	exec := &ExprExec{}
	for _, e := range es {
		if e == nil {
			continue
		}
		exec.addExpr(e)
	}
	return exec
}

func (exec *ExprExec) addExpr(expr *Expr) {
	exec._exprs = append(exec._exprs, expr)
	eeState := &ExprExecState{}
	eeState._exec = exec
	eeState._root = initExprState(expr, eeState)
	exec._execStates = append(exec._execStates, eeState)
}

func (exec *ExprExec) execute(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	if count == 0 {
		return nil
	}
	switch expr.Typ {
	case ET_Column:
		return exec.executeColumnRef(expr, eState, sel, count, result)
	case ET_Func:
		return exec.executeFunc(expr, eState, sel, count, result)
	case ET_Const:
		return exec.executeConst(expr, eState, sel, count, result)
	default:
		panic(fmt.Sprintf("%d", expr.Typ))
	}
}

// executeColumnRef materializes the column. With a selection the chosen
// rows are compacted to the front, so downstream loops index by position
// and map back to row ids through the selection.
func (exec *ExprExec) executeColumnRef(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	data := exec._chunk
	vec := data.Data[expr.ColRef]
	if sel != nil {
		sliceIntoFlat(vec, sel, count, result)
	} else {
		result.Reference(vec)
	}
	return nil
}

func (exec *ExprExec) executeConst(expr *Expr, state *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	result.ReferenceValue(expr.ConstValue)
	return nil
}

func (exec *ExprExec) executeFunc(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	switch expr.SubTyp {
	case ET_Cast:
		err := exec.execute(expr.Children[0],
			eState._children[0],
			sel,
			count,
			eState._interChunk.Data[0])
		if err != nil {
			return err
		}
		castVector(eState._interChunk.Data[0], result, count)
		return nil
	default:
		panic("usp")
	}
}

// executeSelect narrows sel to the rows where the predicate reifies to
// true. trueSel may alias sel: survivors are written front to back in
// candidate order, so row ids stay ascending.
func (exec *ExprExec) executeSelect(data *chunk.Chunk, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (int, error) {
	if len(exec._exprs) == 0 {
		return count, nil
	}
	exec._chunk = data
	return exec.execSelectExpr(
		exec._exprs[0],
		exec._execStates[0]._root,
		sel,
		count,
		trueSel,
		falseSel,
	)
}

func (exec *ExprExec) execSelectExpr(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (retCount int, err error) {
	if count == 0 {
		return 0, nil
	}
	util.AssertFunc(expr.DataTyp.Id == common.LTID_BOOLEAN)
	switch expr.Typ {
	case ET_Func:
		switch expr.SubTyp {
		case ET_And:
			return exec.execSelectAnd(expr, eState, sel, count, trueSel, falseSel)
		case ET_Or:
			return exec.execSelectOr(expr, eState, sel, count, trueSel, falseSel)
		case ET_Equal, ET_NotEqual, ET_Greater, ET_GreaterEqual,
			ET_Less, ET_LessEqual, ET_Like, ET_NotLike:
			return exec.execSelectCompare(expr, eState, sel, count, trueSel, falseSel)
		default:
			panic("usp")
		}
	default:
		panic("usp")
	}
}

func (exec *ExprExec) execSelectCompare(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (int, error) {
	var err error
	eState._interChunk.Reset()
	for i, child := range expr.Children {
		err = exec.execute(child,
			eState._children[i],
			sel,
			count,
			eState._interChunk.Data[i])
		if err != nil {
			return 0, err
		}
	}
	left := eState._interChunk.Data[0]
	right := eState._interChunk.Data[1]
	util.AssertFunc(left.Typ().GetInternalType() == right.Typ().GetInternalType())
	return selectOperation(
		left,
		right,
		sel,
		count,
		trueSel,
		falseSel,
		expr.SubTyp,
	), nil
}

func (exec *ExprExec) execSelectAnd(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (int, error) {
	var err error
	curSel := sel
	curCount := count
	falseCount := 0
	trueCount := 0
	var tempFalse *chunk.SelectVector
	if falseSel != nil {
		tempFalse = chunk.NewSelectVector(util.DefaultVectorSize)
	}
	if trueSel == nil {
		trueSel = chunk.NewSelectVector(util.DefaultVectorSize)
	}

	for i, child := range expr.Children {
		trueCount, err = exec.execSelectExpr(child,
			eState._children[i],
			curSel,
			curCount,
			trueSel,
			tempFalse)
		if err != nil {
			return 0, err
		}
		fCount := curCount - trueCount
		if fCount > 0 && falseSel != nil {
			//move failed into false sel
			for j := 0; j < fCount; j++ {
				falseSel.SetIndex(falseCount, tempFalse.GetIndex(j))
				falseCount++
			}
		}
		curCount = trueCount
		if curCount == 0 {
			break
		}
		if curCount < count {
			curSel = trueSel
		}
	}

	return curCount, nil
}

func (exec *ExprExec) execSelectOr(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (int, error) {
	var err error
	curSel := sel
	curCount := count
	resCount := 0
	trueCount := 0

	var tempTrue *chunk.SelectVector
	var tempFalse *chunk.SelectVector
	if trueSel != nil {
		tempTrue = chunk.NewSelectVector(util.DefaultVectorSize)
	}

	if falseSel == nil {
		tempFalse = chunk.NewSelectVector(util.DefaultVectorSize)
		falseSel = tempFalse
	}

	for i, child := range expr.Children {
		trueCount, err = exec.execSelectExpr(
			child,
			eState._children[i],
			curSel,
			curCount,
			tempTrue,
			falseSel)
		if err != nil {
			return 0, err
		}
		if trueCount > 0 {
			if trueSel != nil {
				for j := 0; j < trueCount; j++ {
					trueSel.SetIndex(resCount, tempTrue.GetIndex(j))
					resCount++
				}
			}
			curCount -= trueCount
			curSel = falseSel
		}
	}

	// every branch gathers its own survivors, so the prefix interleaves
	// branches. Restore row order: selection steps remove entries, never
	// reorder them.
	if resCount > 1 {
		sort.Ints(trueSel.SelVec[:resCount])
	}
	return resCount, nil
}

func initExprState(expr *Expr, eeState *ExprExecState) (ret *ExprState) {
	switch expr.Typ {
	case ET_Column:
		ret = NewExprState(expr, eeState)
	case ET_Func:
		ret = NewExprState(expr, eeState)
		for _, child := range expr.Children {
			ret.addChild(child)
		}
	case ET_Const:
		ret = NewExprState(expr, eeState)
	default:
		panic("usp")
	}
	ret.finalize()
	return
}

func sliceIntoFlat(src *chunk.Vector, sel *chunk.SelectVector, count int, dst *chunk.Vector) {
	switch src.PhyFormat() {
	case chunk.PF_CONST:
		//selection does not change a constant
		dst.Reference(src)
	case chunk.PF_FLAT:
		dst.Reset()
		switch src.Typ().GetInternalType() {
		case common.INT32:
			templatedSliceCopy[int32](src, dst, sel, count)
		case common.INT64:
			templatedSliceCopy[int64](src, dst, sel, count)
		case common.FLOAT:
			templatedSliceCopy[float32](src, dst, sel, count)
		case common.DOUBLE:
			templatedSliceCopy[float64](src, dst, sel, count)
		case common.BOOL:
			templatedSliceCopy[bool](src, dst, sel, count)
		case common.VARCHAR:
			templatedSliceCopy[common.String](src, dst, sel, count)
		case common.DECIMAL:
			templatedSliceCopy[common.Decimal](src, dst, sel, count)
		default:
			panic("usp")
		}
	default:
		panic("usp")
	}
}

func templatedSliceCopy[T any](src, dst *chunk.Vector, sel *chunk.SelectVector, count int) {
	srcSlice := chunk.GetSliceInPhyFormatFlat[T](src)
	dstSlice := chunk.GetSliceInPhyFormatFlat[T](dst)
	srcMask := chunk.GetMaskInPhyFormatFlat(src)
	for i := 0; i < count; i++ {
		idx := sel.GetIndex(i)
		dstSlice[i] = srcSlice[idx]
		if !srcMask.RowIsValid(uint64(idx)) {
			chunk.SetNullInPhyFormatFlat(dst, uint64(i), true)
		}
	}
}
