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

// resolveComparisonCast derives the common comparison type of the two
// operands and wraps the side that needs converting. Constants are folded
// instead of wrapped. Nullability of each side is preserved by NewCast.
func resolveComparisonCast(left, right *Expr) (*Expr, *Expr, common.LType, error) {
	cmpTyp, err := common.GetComparisonType(left.DataTyp, right.DataTyp)
	if err != nil {
		return nil, nil, common.LType{}, err
	}
	left = castOperand(left, cmpTyp)
	right = castOperand(right, cmpTyp)
	return left, right, cmpTyp, nil
}

func castOperand(e *Expr, target common.LType) *Expr {
	if e.DataTyp.Id == target.Id {
		return e
	}
	if e.Typ == ET_Const {
		return NewConst(castValue(e.ConstValue, target))
	}
	return NewCast(e, target)
}

func castValue(val *chunk.Value, target common.LType) *chunk.Value {
	if val.IsNull {
		return chunk.NullValue(target)
	}
	ret := &chunk.Value{Typ: target}
	switch target.Id {
	case common.LTID_BIGINT:
		ret.I64 = val.I64
	case common.LTID_FLOAT, common.LTID_DOUBLE:
		switch val.Typ.Id {
		case common.LTID_INTEGER, common.LTID_BIGINT:
			ret.F64 = float64(val.I64)
		case common.LTID_FLOAT, common.LTID_DOUBLE:
			ret.F64 = val.F64
		case common.LTID_DECIMAL:
			f, _ := val.Dec.Float64()
			ret.F64 = f
		default:
			panic("usp")
		}
	case common.LTID_DECIMAL:
		switch val.Typ.Id {
		case common.LTID_INTEGER, common.LTID_BIGINT:
			ret.Dec = mustDecimalFromInt64(val.I64)
		case common.LTID_DECIMAL:
			ret.Dec = val.Dec
		default:
			panic("usp")
		}
	default:
		panic("usp")
	}
	return ret
}

func castVector(src, dst *chunk.Vector, count int) {
	if src.PhyFormat().IsConst() {
		dst.ReferenceValue(castValue(src.GetValue(0), dst.Typ()))
		return
	}
	srcId := src.Typ().Id
	dstId := dst.Typ().Id
	switch {
	case srcId == common.LTID_INTEGER && dstId == common.LTID_BIGINT:
		castFlatLoop[int32, int64](src, dst, count, func(v int32) int64 { return int64(v) })
	case srcId == common.LTID_INTEGER && dstId == common.LTID_FLOAT:
		castFlatLoop[int32, float32](src, dst, count, func(v int32) float32 { return float32(v) })
	case srcId == common.LTID_INTEGER && dstId == common.LTID_DOUBLE:
		castFlatLoop[int32, float64](src, dst, count, func(v int32) float64 { return float64(v) })
	case srcId == common.LTID_INTEGER && dstId == common.LTID_DECIMAL:
		castFlatLoop[int32, common.Decimal](src, dst, count, func(v int32) common.Decimal { return mustDecimalFromInt64(int64(v)) })
	case srcId == common.LTID_BIGINT && dstId == common.LTID_FLOAT:
		castFlatLoop[int64, float32](src, dst, count, func(v int64) float32 { return float32(v) })
	case srcId == common.LTID_BIGINT && dstId == common.LTID_DOUBLE:
		castFlatLoop[int64, float64](src, dst, count, func(v int64) float64 { return float64(v) })
	case srcId == common.LTID_BIGINT && dstId == common.LTID_DECIMAL:
		castFlatLoop[int64, common.Decimal](src, dst, count, func(v int64) common.Decimal { return mustDecimalFromInt64(v) })
	case srcId == common.LTID_FLOAT && dstId == common.LTID_DOUBLE:
		castFlatLoop[float32, float64](src, dst, count, func(v float32) float64 { return float64(v) })
	case srcId == common.LTID_DECIMAL && dstId == common.LTID_FLOAT:
		castFlatLoop[common.Decimal, float32](src, dst, count, func(v common.Decimal) float32 {
			f, _ := v.Float64()
			return float32(f)
		})
	case srcId == common.LTID_DECIMAL && dstId == common.LTID_DOUBLE:
		castFlatLoop[common.Decimal, float64](src, dst, count, func(v common.Decimal) float64 {
			f, _ := v.Float64()
			return f
		})
	default:
		panic("usp")
	}
}

func castFlatLoop[S, D any](src, dst *chunk.Vector, count int, conv func(S) D) {
	srcSlice := chunk.GetSliceInPhyFormatFlat[S](src)
	dstSlice := chunk.GetSliceInPhyFormatFlat[D](dst)
	srcMask := chunk.GetMaskInPhyFormatFlat(src)
	dstMask := chunk.GetMaskInPhyFormatFlat(dst)
	dstMask.ShareWith(srcMask)
	for i := 0; i < count; i++ {
		if srcMask.RowIsValid(uint64(i)) {
			dstSlice[i] = conv(srcSlice[i])
		}
	}
}

// mustDecimalFromInt64 cannot fail at scale 0: every int64 coefficient is
// in range.
func mustDecimalFromInt64(v int64) common.Decimal {
	d, err := common.DecimalFromInt64(v, 0)
	if err != nil {
		panic(err)
	}
	return d
}
