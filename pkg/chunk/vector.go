package chunk

import (
	"unsafe"

	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/util"
)

type Vector struct {
	_PhyFormat PhyFormat
	_Typ       common.LType
	Data       []byte
	Mask       *util.Bitmap
}

func NewFlatVector(typ common.LType, cap int) *Vector {
	vec := &Vector{
		_PhyFormat: PF_FLAT,
		_Typ:       typ,
		Mask:       &util.Bitmap{},
	}
	sz := typ.GetInternalType().Size()
	if sz > 0 {
		vec.Data = make([]byte, sz*cap)
	}
	return vec
}

func NewConstVector(typ common.LType) *Vector {
	vec := NewFlatVector(typ, 1)
	vec._PhyFormat = PF_CONST
	return vec
}

func NewVector2(typ common.LType, cap int) *Vector {
	return NewFlatVector(typ, cap)
}

func (vec *Vector) Typ() common.LType {
	return vec._Typ
}

func (vec *Vector) PhyFormat() PhyFormat {
	return vec._PhyFormat
}

func (vec *Vector) SetPhyFormat(pf PhyFormat) {
	vec._PhyFormat = pf
}

func (vec *Vector) Reset() {
	vec._PhyFormat = PF_FLAT
	vec.Mask.Reset()
}

func (vec *Vector) Reference(other *Vector) {
	util.AssertFunc(vec.Typ().Equal(other.Typ()))
	vec._PhyFormat = other._PhyFormat
	vec.Data = other.Data
	vec.Mask = other.Mask
}

func (vec *Vector) ReferenceValue(val *Value) {
	util.AssertFunc(vec.Typ().Id == val.Typ.Id)
	vec.SetPhyFormat(PF_CONST)
	sz := vec.Typ().GetInternalType().Size()
	vec.Data = make([]byte, sz)
	vec.Mask = &util.Bitmap{}
	vec.SetValue(0, val)
}

// GetSliceInPhyFormatFlat reinterprets the backing bytes as a typed slice.
func GetSliceInPhyFormatFlat[T any](vec *Vector) []T {
	util.AssertFunc(vec.PhyFormat().IsFlat())
	return toSlice[T](vec.Data)
}

func GetSliceInPhyFormatConst[T any](vec *Vector) []T {
	util.AssertFunc(vec.PhyFormat().IsConst() || vec.PhyFormat().IsFlat())
	return toSlice[T](vec.Data)
}

func toSlice[T any](data []byte) []T {
	if len(data) == 0 {
		return nil
	}
	var dummy T
	sz := int(unsafe.Sizeof(dummy))
	return util.PointerToSlice[T](unsafe.Pointer(&data[0]), len(data)/sz)
}

func GetMaskInPhyFormatFlat(vec *Vector) *util.Bitmap {
	util.AssertFunc(vec.PhyFormat().IsFlat())
	return vec.Mask
}

func SetNullInPhyFormatFlat(vec *Vector, idx uint64, null bool) {
	util.AssertFunc(vec.PhyFormat().IsFlat())
	if null && vec.Mask.Invalid() {
		vec.Mask.Init(util.DefaultVectorSize)
	}
	vec.Mask.Set(idx, !null)
}

func SetNullInPhyFormatConst(vec *Vector, null bool) {
	util.AssertFunc(vec.PhyFormat().IsConst())
	if null && vec.Mask.Invalid() {
		vec.Mask.Init(1)
	}
	vec.Mask.Set(0, !null)
}

func IsNullInPhyFormatConst(vec *Vector) bool {
	util.AssertFunc(vec.PhyFormat().IsConst())
	return !vec.Mask.RowIsValid(0)
}

func (vec *Vector) GetValue(idx int) *Value {
	switch vec.PhyFormat() {
	case PF_CONST:
		idx = 0
	case PF_FLAT:
	default:
		panic("usp")
	}
	if !vec.Mask.RowIsValid(uint64(idx)) {
		return NullValue(vec.Typ())
	}
	switch vec.Typ().GetInternalType() {
	case common.INT32:
		data := toSlice[int32](vec.Data)
		return &Value{Typ: vec.Typ(), I64: int64(data[idx])}
	case common.INT64:
		data := toSlice[int64](vec.Data)
		return &Value{Typ: vec.Typ(), I64: data[idx]}
	case common.FLOAT:
		data := toSlice[float32](vec.Data)
		return &Value{Typ: vec.Typ(), F64: float64(data[idx])}
	case common.DOUBLE:
		data := toSlice[float64](vec.Data)
		return &Value{Typ: vec.Typ(), F64: data[idx]}
	case common.BOOL:
		data := toSlice[bool](vec.Data)
		return &Value{Typ: vec.Typ(), Bool: data[idx]}
	case common.VARCHAR:
		data := toSlice[common.String](vec.Data)
		return &Value{Typ: vec.Typ(), Str: data[idx].String()}
	case common.DECIMAL:
		data := toSlice[common.Decimal](vec.Data)
		return &Value{Typ: vec.Typ(), Dec: data[idx]}
	default:
		panic("usp")
	}
}

func (vec *Vector) SetValue(idx int, val *Value) {
	if vec.PhyFormat().IsConst() {
		idx = 0
	}
	if val.IsNull {
		if vec.Mask.Invalid() {
			vec.Mask.Init(util.DefaultVectorSize)
		}
		vec.Mask.SetInvalid(uint64(idx))
		return
	}
	vec.Mask.SetValid(uint64(idx))
	switch vec.Typ().GetInternalType() {
	case common.INT32:
		toSlice[int32](vec.Data)[idx] = int32(val.I64)
	case common.INT64:
		toSlice[int64](vec.Data)[idx] = val.I64
	case common.FLOAT:
		toSlice[float32](vec.Data)[idx] = float32(val.F64)
	case common.DOUBLE:
		toSlice[float64](vec.Data)[idx] = val.F64
	case common.BOOL:
		toSlice[bool](vec.Data)[idx] = val.Bool
	case common.VARCHAR:
		toSlice[common.String](vec.Data)[idx] = common.NewString(val.Str)
	case common.DECIMAL:
		toSlice[common.Decimal](vec.Data)[idx] = val.Dec
	default:
		panic("usp")
	}
}
