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

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/storage"
	"github.com/vecdb/lanescan/pkg/util"
)

type OperandKind int

const (
	OperandConstant OperandKind = iota
	OperandColumn
	OperandOther
)

func operandKind(e *Expr) OperandKind {
	switch e.Typ {
	case ET_Const:
		return OperandConstant
	case ET_Column:
		return OperandColumn
	default:
		return OperandOther
	}
}

// laneLoader fills out[0:cnt] with operand values for the given rows and
// marks which lanes hold non-null values.
type laneLoader[T any] func(grp *storage.ChunkGroup, rows []int, cnt int, out []T, valid []bool)

// laneKernel evaluates one comparison over up to LaneWidth rows and folds
// the outcome into mask. A lane whose comparison is null folds to false.
type laneKernel func(grp *storage.ChunkGroup, rows []int, cnt int, mask []bool)

// LanePredicate is one compiled lane-eligible comparison: a binary
// comparison over fixed-width column/constant operands, resolved into a
// typed kernel once at compile time.
type LanePredicate struct {
	_subTyp ET_SubTyp
	_left   *Expr
	_right  *Expr
	_cmpTyp common.LType
	_kernel laneKernel
}

func (pred *LanePredicate) String() string {
	return fmt.Sprintf("%s %s %s", pred._left, pred._subTyp, pred._right)
}

// CompiledFilter is the fixed evaluation plan of a scan predicate: the
// conjunction is split once into lane-eligible comparisons and a residual
// part evaluated by the scalar executor.
type CompiledFilter struct {
	_lanePreds []*LanePredicate
	_residual  *Expr
	_residExec *ExprExec
	_zonePreds []storage.ZoneMapPredicate

	_rows [util.DefaultVectorSize]int
	_mask [util.LaneWidth]bool
}

// CompileFilter partitions the predicate and resolves operands into typed
// kernels. A missing comparison-type promotion is a plan error.
func CompileFilter(pred *Expr) (*CompiledFilter, error) {
	cf := &CompiledFilter{}
	for i := range cf._rows {
		cf._rows[i] = i
	}
	if pred == nil {
		return cf, nil
	}

	var residual []*Expr
	for _, conjunct := range splitConjunction(pred) {
		lanePred, err := compileLanePredicate(conjunct)
		if err != nil {
			return nil, err
		}
		if lanePred == nil {
			residual = append(residual, conjunct)
			continue
		}
		cf._lanePreds = append(cf._lanePreds, lanePred)
		if zp := zonePredicateFor(lanePred); zp != nil {
			cf._zonePreds = append(cf._zonePreds, *zp)
		}
	}
	if len(residual) == 1 {
		cf._residual = residual[0]
	} else if len(residual) > 1 {
		cf._residual = NewConjunction(ET_And, residual...)
	}
	if cf._residual != nil {
		resid, err := prepareResidual(cf._residual)
		if err != nil {
			return nil, err
		}
		cf._residual = resid
		cf._residExec = NewExprExec(resid)
	}
	return cf, nil
}

// Clone shares the compiled plan (predicates, kernels, zone descriptors)
// but owns its own lane scratch and residual executor. A filter instance
// must not be used from two goroutines; each worker clones one.
func (cf *CompiledFilter) Clone() *CompiledFilter {
	dup := &CompiledFilter{
		_lanePreds: cf._lanePreds,
		_residual:  cf._residual,
		_zonePreds: cf._zonePreds,
	}
	for i := range dup._rows {
		dup._rows[i] = i
	}
	if cf._residual != nil {
		dup._residExec = NewExprExec(cf._residual)
	}
	return dup
}

func splitConjunction(e *Expr) []*Expr {
	if e.Typ == ET_Func && e.SubTyp == ET_And {
		var ret []*Expr
		for _, child := range e.Children {
			ret = append(ret, splitConjunction(child)...)
		}
		return ret
	}
	return []*Expr{e}
}

// prepareResidual inserts comparison casts into the scalar part so both
// sides of every comparison reach selectOperation in the same type.
func prepareResidual(e *Expr) (*Expr, error) {
	if e.Typ != ET_Func {
		return e, nil
	}
	if e.SubTyp.IsComparison() || e.SubTyp == ET_Like || e.SubTyp == ET_NotLike {
		left, right, _, err := resolveComparisonCast(e.Children[0], e.Children[1])
		if err != nil {
			return nil, err
		}
		ret := copyExpr(e)
		ret.Children = []*Expr{left, right}
		return ret, nil
	}
	ret := copyExpr(e)
	for i, child := range e.Children {
		prepared, err := prepareResidual(child)
		if err != nil {
			return nil, err
		}
		ret.Children[i] = prepared
	}
	return ret, nil
}

// compileLanePredicate returns nil when the conjunct cannot run in lanes:
// not a binary comparison, an operand is neither column nor constant, or
// the comparison type is not fixed width.
func compileLanePredicate(e *Expr) (*LanePredicate, error) {
	if e.Typ != ET_Func || !e.SubTyp.IsComparison() {
		return nil, nil
	}
	left, right := e.Children[0], e.Children[1]
	if operandKind(left) == OperandOther || operandKind(right) == OperandOther {
		return nil, nil
	}
	left, right, cmpTyp, err := resolveComparisonCast(left, right)
	if err != nil {
		return nil, err
	}
	if !cmpTyp.GetInternalType().IsFixedWidth() {
		return nil, nil
	}
	kernel := buildLaneKernel(e.SubTyp, left, right, cmpTyp)
	if kernel == nil {
		return nil, nil
	}
	return &LanePredicate{
		_subTyp: e.SubTyp,
		_left:   left,
		_right:  right,
		_cmpTyp: cmpTyp,
		_kernel: kernel,
	}, nil
}

func zonePredicateFor(pred *LanePredicate) *storage.ZoneMapPredicate {
	var col, cst *Expr
	op := pred._subTyp
	if operandKind(pred._left) == OperandColumn && operandKind(pred._right) == OperandConstant {
		col, cst = pred._left, pred._right
	} else if operandKind(pred._left) == OperandConstant && operandKind(pred._right) == OperandColumn {
		col, cst = pred._right, pred._left
		op = flipComparison(op)
	} else {
		return nil
	}
	// zone stats hold the column's stored values; only compare against a
	// constant of the same value class
	if col.DataTyp.GetInternalType() != cst.ConstValue.Typ.GetInternalType() {
		if !sameValueClass(col.DataTyp, cst.ConstValue.Typ) {
			return nil
		}
	}
	var zop storage.ZoneCmpOp
	switch op {
	case ET_Equal:
		zop = storage.ZoneEqual
	case ET_NotEqual:
		zop = storage.ZoneNotEqual
	case ET_Less:
		zop = storage.ZoneLess
	case ET_LessEqual:
		zop = storage.ZoneLessEqual
	case ET_Greater:
		zop = storage.ZoneGreater
	case ET_GreaterEqual:
		zop = storage.ZoneGreaterEqual
	default:
		return nil
	}
	return &storage.ZoneMapPredicate{
		ColIdx:   col.ColRef,
		Op:       zop,
		Constant: cst.ConstValue,
	}
}

func sameValueClass(a, b common.LType) bool {
	class := func(t common.LType) int {
		switch t.GetInternalType() {
		case common.INT32, common.INT64:
			return 1
		case common.FLOAT, common.DOUBLE:
			return 2
		default:
			return 0
		}
	}
	ca, cb := class(a), class(b)
	return ca != 0 && ca == cb
}

func flipComparison(op ET_SubTyp) ET_SubTyp {
	switch op {
	case ET_Less:
		return ET_Greater
	case ET_LessEqual:
		return ET_GreaterEqual
	case ET_Greater:
		return ET_Less
	case ET_GreaterEqual:
		return ET_LessEqual
	default:
		return op
	}
}

func (cf *CompiledFilter) Empty() bool {
	return len(cf._lanePreds) == 0 && cf._residual == nil
}

// FullyLaneEligible reports whether the whole predicate runs in lanes,
// with no scalar residual pass.
func (cf *CompiledFilter) FullyLaneEligible() bool {
	return cf._residual == nil
}

func (cf *CompiledFilter) LanePredicates() []*LanePredicate {
	return cf._lanePreds
}

func (cf *CompiledFilter) Residual() *Expr {
	return cf._residual
}

func (cf *CompiledFilter) ZonePredicates() []storage.ZoneMapPredicate {
	return cf._zonePreds
}

// FilterRange filters rows [0,count) of the chunk into sel: an aligned
// lane loop over the prefix, a scalar loop over the remainder, then the
// residual pass over the narrowed selection. Returns the survivor count.
func (cf *CompiledFilter) FilterRange(grp *storage.ChunkGroup, count int, sel *chunk.SelectVector) (int, error) {
	sel.Reset()
	if cf.Empty() {
		for row := 0; row < count; row++ {
			sel.Append(row)
		}
		return count, nil
	}

	if len(cf._lanePreds) == 0 {
		for row := 0; row < count; row++ {
			sel.Append(row)
		}
	} else {
		aligned := util.AlignDown(count, util.LaneWidth)
		mask := cf._mask[:]
		for base := 0; base < aligned; base += util.LaneWidth {
			rows := cf._rows[base : base+util.LaneWidth]
			for i := range mask {
				mask[i] = true
			}
			for _, pred := range cf._lanePreds {
				pred._kernel(grp, rows, util.LaneWidth, mask)
			}
			for i := 0; i < util.LaneWidth; i++ {
				if mask[i] {
					sel.Append(base + i)
				}
			}
		}
		//scalar remainder
		for row := aligned; row < count; row++ {
			if cf.evalScalar(grp, row) {
				sel.Append(row)
			}
		}
	}

	return cf.runResidual(grp, sel, sel.Count)
}

// FilterSelection narrows an existing selection in place, gathering
// operand lanes through the selection entries. Survivor order is the
// candidate order.
func (cf *CompiledFilter) FilterSelection(grp *storage.ChunkGroup, sel *chunk.SelectVector, count int) (int, error) {
	if cf.Empty() {
		return count, nil
	}
	kept := 0
	if len(cf._lanePreds) > 0 {
		aligned := util.AlignDown(count, util.LaneWidth)
		mask := cf._mask[:]
		for base := 0; base < aligned; base += util.LaneWidth {
			rows := sel.SelVec[base : base+util.LaneWidth]
			for i := range mask {
				mask[i] = true
			}
			for _, pred := range cf._lanePreds {
				pred._kernel(grp, rows, util.LaneWidth, mask)
			}
			for i := 0; i < util.LaneWidth; i++ {
				if mask[i] {
					sel.SetIndex(kept, rows[i])
					kept++
				}
			}
		}
		for pos := aligned; pos < count; pos++ {
			row := sel.SelVec[pos]
			if cf.evalScalar(grp, row) {
				sel.SetIndex(kept, row)
				kept++
			}
		}
	} else {
		kept = count
	}
	sel.SetCount(kept)
	return cf.runResidual(grp, sel, kept)
}

func (cf *CompiledFilter) evalScalar(grp *storage.ChunkGroup, row int) bool {
	var rowBuf [1]int
	var maskBuf [1]bool
	rowBuf[0] = row
	maskBuf[0] = true
	for _, pred := range cf._lanePreds {
		pred._kernel(grp, rowBuf[:], 1, maskBuf[:])
		if !maskBuf[0] {
			return false
		}
	}
	return true
}

// runResidual is the second scalar pass: rows already in sel that fail the
// residual predicate are dropped, survivors keep their order. Running it
// again on its own output changes nothing.
func (cf *CompiledFilter) runResidual(grp *storage.ChunkGroup, sel *chunk.SelectVector, count int) (int, error) {
	if cf._residExec == nil {
		sel.SetCount(count)
		return count, nil
	}
	view := &chunk.Chunk{}
	view.ReferenceColumns(groupColumns(grp), int(grp.Count()))
	n, err := cf._residExec.executeSelect(view, sel, count, sel, nil)
	if err != nil {
		return 0, err
	}
	sel.SetCount(n)
	return n, nil
}

func groupColumns(grp *storage.ChunkGroup) []*chunk.Vector {
	vecs := make([]*chunk.Vector, 0, grp.ColumnCount())
	for i := 0; i < grp.ColumnCount(); i++ {
		vecs = append(vecs, grp.ColumnVector(i))
	}
	return vecs
}

// buildLaneKernel resolves the operands for the comparison type and wires
// them to a typed kernel. Returns nil for combinations with no kernel,
// which sends the conjunct to the residual.
func buildLaneKernel(subTyp ET_SubTyp, left, right *Expr, cmpTyp common.LType) laneKernel {
	switch cmpTyp.GetInternalType() {
	case common.INT32:
		lload := int32Loader(left)
		rload := int32Loader(right)
		if lload == nil || rload == nil {
			return nil
		}
		return makeLaneKernel[int32](orderedCmpOp[int32](subTyp), lload, rload)
	case common.INT64:
		lload := int64Loader(left)
		rload := int64Loader(right)
		if lload == nil || rload == nil {
			return nil
		}
		return makeLaneKernel[int64](orderedCmpOp[int64](subTyp), lload, rload)
	case common.FLOAT:
		lload := float32Loader(left)
		rload := float32Loader(right)
		if lload == nil || rload == nil {
			return nil
		}
		return makeLaneKernel[float32](orderedCmpOp[float32](subTyp), lload, rload)
	case common.DOUBLE:
		lload := float64Loader(left)
		rload := float64Loader(right)
		if lload == nil || rload == nil {
			return nil
		}
		return makeLaneKernel[float64](orderedCmpOp[float64](subTyp), lload, rload)
	case common.DECIMAL:
		lload := decimalLoader(left)
		rload := decimalLoader(right)
		if lload == nil || rload == nil {
			return nil
		}
		return makeLaneKernel[common.Decimal](decimalCmpOp(subTyp), lload, rload)
	case common.BOOL:
		if subTyp != ET_Equal && subTyp != ET_NotEqual {
			return nil
		}
		lload := boolLoader(left)
		rload := boolLoader(right)
		if lload == nil || rload == nil {
			return nil
		}
		if subTyp == ET_Equal {
			return makeLaneKernel[bool](equalOp[bool]{}, lload, rload)
		}
		return makeLaneKernel[bool](notEqualOp[bool]{}, lload, rload)
	default:
		return nil
	}
}

func makeLaneKernel[T any](cmpOp CompareOp[T], left, right laneLoader[T]) laneKernel {
	return func(grp *storage.ChunkGroup, rows []int, cnt int, mask []bool) {
		var lvals, rvals [util.LaneWidth]T
		var lvalid, rvalid [util.LaneWidth]bool
		left(grp, rows, cnt, lvals[:], lvalid[:])
		right(grp, rows, cnt, rvals[:], rvalid[:])
		for i := 0; i < cnt; i++ {
			if !mask[i] {
				continue
			}
			if !lvalid[i] || !rvalid[i] ||
				!cmpOp.operation(&lvals[i], &rvals[i]) {
				mask[i] = false
			}
		}
	}
}

// constLaneLoader broadcasts the constant into every lane.
func constLaneLoader[T any](v T, null bool) laneLoader[T] {
	return func(grp *storage.ChunkGroup, rows []int, cnt int, out []T, valid []bool) {
		for i := 0; i < cnt; i++ {
			out[i] = v
			valid[i] = !null
		}
	}
}

// columnLaneLoader bulk-loads column values for the lane's rows.
func columnLaneLoader[T any](colIdx int) laneLoader[T] {
	return func(grp *storage.ChunkGroup, rows []int, cnt int, out []T, valid []bool) {
		vec := grp.ColumnVector(colIdx)
		data := chunk.GetSliceInPhyFormatFlat[T](vec)
		mask := chunk.GetMaskInPhyFormatFlat(vec)
		for i := 0; i < cnt; i++ {
			row := rows[i]
			out[i] = data[row]
			valid[i] = mask.RowIsValid(uint64(row))
		}
	}
}

// convertLaneLoader bulk-loads and converts to the comparison type.
func convertLaneLoader[S, T any](colIdx int, conv func(S) T) laneLoader[T] {
	return func(grp *storage.ChunkGroup, rows []int, cnt int, out []T, valid []bool) {
		vec := grp.ColumnVector(colIdx)
		data := chunk.GetSliceInPhyFormatFlat[S](vec)
		mask := chunk.GetMaskInPhyFormatFlat(vec)
		for i := 0; i < cnt; i++ {
			row := rows[i]
			valid[i] = mask.RowIsValid(uint64(row))
			if valid[i] {
				out[i] = conv(data[row])
			}
		}
	}
}

func int32Loader(e *Expr) laneLoader[int32] {
	switch e.Typ {
	case ET_Const:
		return constLaneLoader[int32](int32(e.ConstValue.I64), e.ConstValue.IsNull)
	case ET_Column:
		if e.DataTyp.GetInternalType() == common.INT32 {
			return columnLaneLoader[int32](e.ColRef)
		}
		return nil
	default:
		return nil
	}
}

func int64Loader(e *Expr) laneLoader[int64] {
	switch e.Typ {
	case ET_Const:
		return constLaneLoader[int64](e.ConstValue.I64, e.ConstValue.IsNull)
	case ET_Column:
		switch e.DataTyp.GetInternalType() {
		case common.INT64:
			return columnLaneLoader[int64](e.ColRef)
		case common.INT32:
			return convertLaneLoader[int32, int64](e.ColRef, func(v int32) int64 { return int64(v) })
		default:
			return nil
		}
	case ET_Func:
		if e.SubTyp == ET_Cast {
			return int64Loader(e.Children[0])
		}
		return nil
	default:
		return nil
	}
}

func float32Loader(e *Expr) laneLoader[float32] {
	switch e.Typ {
	case ET_Const:
		return constLaneLoader[float32](float32(e.ConstValue.F64), e.ConstValue.IsNull)
	case ET_Column:
		switch e.DataTyp.GetInternalType() {
		case common.FLOAT:
			return columnLaneLoader[float32](e.ColRef)
		case common.INT32:
			return convertLaneLoader[int32, float32](e.ColRef, func(v int32) float32 { return float32(v) })
		case common.INT64:
			return convertLaneLoader[int64, float32](e.ColRef, func(v int64) float32 { return float32(v) })
		default:
			return nil
		}
	case ET_Func:
		if e.SubTyp == ET_Cast {
			return float32Loader(e.Children[0])
		}
		return nil
	default:
		return nil
	}
}

func float64Loader(e *Expr) laneLoader[float64] {
	switch e.Typ {
	case ET_Const:
		return constLaneLoader[float64](e.ConstValue.F64, e.ConstValue.IsNull)
	case ET_Column:
		switch e.DataTyp.GetInternalType() {
		case common.DOUBLE:
			return columnLaneLoader[float64](e.ColRef)
		case common.FLOAT:
			return convertLaneLoader[float32, float64](e.ColRef, func(v float32) float64 { return float64(v) })
		case common.INT32:
			return convertLaneLoader[int32, float64](e.ColRef, func(v int32) float64 { return float64(v) })
		case common.INT64:
			return convertLaneLoader[int64, float64](e.ColRef, func(v int64) float64 { return float64(v) })
		case common.DECIMAL:
			return convertLaneLoader[common.Decimal, float64](e.ColRef, func(v common.Decimal) float64 {
				f, _ := v.Float64()
				return f
			})
		default:
			return nil
		}
	case ET_Func:
		if e.SubTyp == ET_Cast {
			return float64Loader(e.Children[0])
		}
		return nil
	default:
		return nil
	}
}

func decimalLoader(e *Expr) laneLoader[common.Decimal] {
	switch e.Typ {
	case ET_Const:
		return constLaneLoader[common.Decimal](e.ConstValue.Dec, e.ConstValue.IsNull)
	case ET_Column:
		switch e.DataTyp.GetInternalType() {
		case common.DECIMAL:
			return columnLaneLoader[common.Decimal](e.ColRef)
		case common.INT32:
			return convertLaneLoader[int32, common.Decimal](e.ColRef, func(v int32) common.Decimal { return mustDecimalFromInt64(int64(v)) })
		case common.INT64:
			return convertLaneLoader[int64, common.Decimal](e.ColRef, func(v int64) common.Decimal { return mustDecimalFromInt64(v) })
		default:
			return nil
		}
	case ET_Func:
		if e.SubTyp == ET_Cast {
			return decimalLoader(e.Children[0])
		}
		return nil
	default:
		return nil
	}
}

func boolLoader(e *Expr) laneLoader[bool] {
	switch e.Typ {
	case ET_Const:
		return constLaneLoader[bool](e.ConstValue.Bool, e.ConstValue.IsNull)
	case ET_Column:
		if e.DataTyp.GetInternalType() == common.BOOL {
			return columnLaneLoader[bool](e.ColRef)
		}
		return nil
	default:
		return nil
	}
}
