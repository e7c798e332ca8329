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
	"cmp"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/util"
)

type CompareOp[T any] interface {
	operation(left, right *T) bool
}

// =

type equalOp[T comparable] struct {
}

func (e equalOp[T]) operation(left, right *T) bool {
	return *left == *right
}

type equalStrOp struct {
}

func (e equalStrOp) operation(left, right *common.String) bool {
	return left.Equal(right)
}

type equalDecimalOp struct {
}

func (e equalDecimalOp) operation(left, right *common.Decimal) bool {
	return left.Equal(right)
}

// <>

type notEqualOp[T comparable] struct {
}

func (e notEqualOp[T]) operation(left, right *T) bool {
	return *left != *right
}

type notEqualStrOp struct {
}

func (e notEqualStrOp) operation(left, right *common.String) bool {
	return !left.Equal(right)
}

type notEqualDecimalOp struct {
}

func (e notEqualDecimalOp) operation(left, right *common.Decimal) bool {
	return !left.Equal(right)
}

// <

type lessOp[T cmp.Ordered] struct {
}

func (e lessOp[T]) operation(left, right *T) bool {
	return *left < *right
}

type lessStrOp struct {
}

func (e lessStrOp) operation(left, right *common.String) bool {
	return left.Less(right)
}

type lessDecimalOp struct {
}

func (e lessDecimalOp) operation(left, right *common.Decimal) bool {
	return left.Less(right)
}

// <=

type lessEqualOp[T cmp.Ordered] struct {
}

func (e lessEqualOp[T]) operation(left, right *T) bool {
	return *left <= *right
}

type lessEqualStrOp struct {
}

func (e lessEqualStrOp) operation(left, right *common.String) bool {
	return !right.Less(left)
}

type lessEqualDecimalOp struct {
}

func (e lessEqualDecimalOp) operation(left, right *common.Decimal) bool {
	return !left.Greater(right)
}

// >

type greatOp[T cmp.Ordered] struct {
}

func (e greatOp[T]) operation(left, right *T) bool {
	return *left > *right
}

type greatStrOp struct {
}

func (e greatStrOp) operation(left, right *common.String) bool {
	return right.Less(left)
}

type greatDecimalOp struct {
}

func (e greatDecimalOp) operation(left, right *common.Decimal) bool {
	return left.Greater(right)
}

// >=

type greatEqualOp[T cmp.Ordered] struct {
}

func (e greatEqualOp[T]) operation(left, right *T) bool {
	return *left >= *right
}

type greatEqualStrOp struct {
}

func (e greatEqualStrOp) operation(left, right *common.String) bool {
	return !left.Less(right)
}

type greatEqualDecimalOp struct {
}

func (e greatEqualDecimalOp) operation(left, right *common.Decimal) bool {
	return !right.Greater(left)
}

// like

type likeOp struct {
}

func (e likeOp) operation(left, right *common.String) bool {
	return WildcardMatch(right, left)
}

type notLikeOp struct {
}

func (e notLikeOp) operation(left, right *common.String) bool {
	return !WildcardMatch(right, left)
}

// WildcardMatch implements wildcard pattern match algorithm.
// pattern and target are ascii characters
func WildcardMatch(pattern, target *common.String) bool {
	var p = 0
	var t = 0
	var positionOfPercentPlusOne int = -1
	var positionOfTargetEncounterPercent int = -1
	plen := pattern.Length()
	tlen := target.Length()
	pSlice := pattern.DataSlice()
	tSlice := target.DataSlice()
	for t < tlen {
		//%
		if p < plen && pSlice[p] == '%' {
			p++
			positionOfPercentPlusOne = p
			if p >= plen {
				//pattern end with %
				return true
			}
			//means % matches empty
			positionOfTargetEncounterPercent = t
		} else if p < plen && (pSlice[p] == '_' || pSlice[p] == tSlice[t]) { //match or _
			p++
			t++
		} else {
			if positionOfPercentPlusOne == -1 {
				//have not matched a %
				return false
			}
			if positionOfTargetEncounterPercent == -1 {
				return false
			}
			//backtrace to last % position + 1
			p = positionOfPercentPlusOne
			//means % matches multiple characters
			positionOfTargetEncounterPercent++
			t = positionOfTargetEncounterPercent
		}
	}
	//skip %
	for p < plen && pSlice[p] == '%' {
		p++
	}
	return p >= plen
}

func orderedCmpOp[T cmp.Ordered](subTyp ET_SubTyp) CompareOp[T] {
	switch subTyp {
	case ET_Equal:
		return equalOp[T]{}
	case ET_NotEqual:
		return notEqualOp[T]{}
	case ET_Less:
		return lessOp[T]{}
	case ET_LessEqual:
		return lessEqualOp[T]{}
	case ET_Greater:
		return greatOp[T]{}
	case ET_GreaterEqual:
		return greatEqualOp[T]{}
	default:
		panic("usp")
	}
}

func strCmpOp(subTyp ET_SubTyp) CompareOp[common.String] {
	switch subTyp {
	case ET_Equal:
		return equalStrOp{}
	case ET_NotEqual:
		return notEqualStrOp{}
	case ET_Less:
		return lessStrOp{}
	case ET_LessEqual:
		return lessEqualStrOp{}
	case ET_Greater:
		return greatStrOp{}
	case ET_GreaterEqual:
		return greatEqualStrOp{}
	case ET_Like:
		return likeOp{}
	case ET_NotLike:
		return notLikeOp{}
	default:
		panic("usp")
	}
}

func decimalCmpOp(subTyp ET_SubTyp) CompareOp[common.Decimal] {
	switch subTyp {
	case ET_Equal:
		return equalDecimalOp{}
	case ET_NotEqual:
		return notEqualDecimalOp{}
	case ET_Less:
		return lessDecimalOp{}
	case ET_LessEqual:
		return lessEqualDecimalOp{}
	case ET_Greater:
		return greatDecimalOp{}
	case ET_GreaterEqual:
		return greatEqualDecimalOp{}
	default:
		panic("usp")
	}
}

func selectOperation(left, right *chunk.Vector, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector, subTyp ET_SubTyp) int {
	switch left.Typ().GetInternalType() {
	case common.INT32:
		return selectBinary[int32](left, right, sel, count, trueSel, falseSel, orderedCmpOp[int32](subTyp))
	case common.INT64:
		return selectBinary[int64](left, right, sel, count, trueSel, falseSel, orderedCmpOp[int64](subTyp))
	case common.FLOAT:
		return selectBinary[float32](left, right, sel, count, trueSel, falseSel, orderedCmpOp[float32](subTyp))
	case common.DOUBLE:
		return selectBinary[float64](left, right, sel, count, trueSel, falseSel, orderedCmpOp[float64](subTyp))
	case common.VARCHAR:
		return selectBinary[common.String](left, right, sel, count, trueSel, falseSel, strCmpOp(subTyp))
	case common.DECIMAL:
		return selectBinary[common.Decimal](left, right, sel, count, trueSel, falseSel, decimalCmpOp(subTyp))
	case common.BOOL:
		switch subTyp {
		case ET_Equal:
			return selectBinary[bool](left, right, sel, count, trueSel, falseSel, equalOp[bool]{})
		case ET_NotEqual:
			return selectBinary[bool](left, right, sel, count, trueSel, falseSel, notEqualOp[bool]{})
		default:
			panic("usp")
		}
	default:
		panic("usp")
	}
}

// selectBinary keeps the row ids whose comparison reifies to true. Both
// inputs are position aligned with sel: entry i of a flat input belongs to
// row sel.GetIndex(i).
func selectBinary[T any](left, right *chunk.Vector, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector, cmpOp CompareOp[T]) int {
	if sel == nil {
		sel = chunk.IncrSelectVectorInPhyFormatFlat()
	}
	if left.PhyFormat().IsConst() && right.PhyFormat().IsConst() {
		return selectConst[T](left, right, sel, count, trueSel, falseSel, cmpOp)
	} else if left.PhyFormat().IsConst() && right.PhyFormat().IsFlat() {
		return selectFlat[T](left, right, sel, count, trueSel, falseSel, cmpOp, true, false)
	} else if left.PhyFormat().IsFlat() && right.PhyFormat().IsConst() {
		return selectFlat[T](left, right, sel, count, trueSel, falseSel, cmpOp, false, true)
	} else if left.PhyFormat().IsFlat() && right.PhyFormat().IsFlat() {
		return selectFlat[T](left, right, sel, count, trueSel, falseSel, cmpOp, false, false)
	} else {
		panic("usp")
	}
}

func selectConst[T any](left, right *chunk.Vector, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector, cmpOp CompareOp[T]) int {
	ldata := chunk.GetSliceInPhyFormatConst[T](left)
	rdata := chunk.GetSliceInPhyFormatConst[T](right)
	if chunk.IsNullInPhyFormatConst(left) ||
		chunk.IsNullInPhyFormatConst(right) ||
		!cmpOp.operation(&ldata[0], &rdata[0]) {
		if falseSel != nil {
			for i := 0; i < count; i++ {
				falseSel.SetIndex(i, sel.GetIndex(i))
			}
		}
		return 0
	} else {
		if trueSel != nil {
			for i := 0; i < count; i++ {
				trueSel.SetIndex(i, sel.GetIndex(i))
			}
		}
		return count
	}
}

func selectFlat[T any](left, right *chunk.Vector,
	sel *chunk.SelectVector,
	count int,
	trueSel, falseSel *chunk.SelectVector,
	cmpOp CompareOp[T],
	leftConst, rightConst bool) int {
	ldata := chunk.GetSliceInPhyFormatConst[T](left)
	rdata := chunk.GetSliceInPhyFormatConst[T](right)
	if leftConst && chunk.IsNullInPhyFormatConst(left) {
		if falseSel != nil {
			for i := 0; i < count; i++ {
				falseSel.SetIndex(i, sel.GetIndex(i))
			}
		}
		return 0
	}
	if rightConst && chunk.IsNullInPhyFormatConst(right) {
		if falseSel != nil {
			for i := 0; i < count; i++ {
				falseSel.SetIndex(i, sel.GetIndex(i))
			}
		}
		return 0
	}

	if leftConst {
		return selectFlatLoopSwitch[T](
			ldata,
			rdata,
			sel,
			count,
			chunk.GetMaskInPhyFormatFlat(right),
			trueSel,
			falseSel,
			cmpOp,
			leftConst,
			rightConst)
	} else if rightConst {
		return selectFlatLoopSwitch[T](
			ldata,
			rdata,
			sel,
			count,
			chunk.GetMaskInPhyFormatFlat(left),
			trueSel,
			falseSel,
			cmpOp,
			leftConst,
			rightConst)
	} else {
		merge := &util.Bitmap{}
		merge.ShareWith(chunk.GetMaskInPhyFormatFlat(left))
		merge.Combine(chunk.GetMaskInPhyFormatFlat(right), count)
		return selectFlatLoopSwitch[T](
			ldata,
			rdata,
			sel,
			count,
			merge,
			trueSel,
			falseSel,
			cmpOp,
			leftConst,
			rightConst)
	}
}

func selectFlatLoopSwitch[T any](
	ldata, rdata []T,
	sel *chunk.SelectVector,
	count int,
	mask *util.Bitmap,
	trueSel, falseSel *chunk.SelectVector,
	cmpOp CompareOp[T],
	leftConst, rightConst bool) int {
	if trueSel != nil && falseSel != nil {
		return selectFlatLoop[T](
			ldata, rdata,
			sel,
			count,
			mask,
			trueSel, falseSel,
			cmpOp,
			leftConst, rightConst,
			true, true)
	} else if trueSel != nil {
		return selectFlatLoop[T](
			ldata, rdata,
			sel,
			count,
			mask,
			trueSel, falseSel,
			cmpOp,
			leftConst, rightConst,
			true, false)
	} else {
		return selectFlatLoop[T](
			ldata, rdata,
			sel,
			count,
			mask,
			trueSel, falseSel,
			cmpOp,
			leftConst, rightConst,
			false, true)
	}
}

func selectFlatLoop[T any](
	ldata, rdata []T,
	sel *chunk.SelectVector,
	count int,
	mask *util.Bitmap,
	trueSel, falseSel *chunk.SelectVector,
	cmpOp CompareOp[T],
	leftConst, rightConst bool,
	hasTrueSel, hasFalseSel bool,
) int {
	trueCount, falseCount := 0, 0
	for i := 0; i < count; i++ {
		resIdx := sel.GetIndex(i)
		lidx := i
		if leftConst {
			lidx = 0
		}
		ridx := i
		if rightConst {
			ridx = 0
		}
		if mask.RowIsValid(uint64(i)) &&
			cmpOp.operation(&ldata[lidx], &rdata[ridx]) {
			if hasTrueSel {
				trueSel.SetIndex(trueCount, resIdx)
				trueCount++
			}
		} else {
			if hasFalseSel {
				falseSel.SetIndex(falseCount, resIdx)
				falseCount++
			}
		}
	}
	if hasTrueSel {
		return trueCount
	} else {
		return count - falseCount
	}
}
