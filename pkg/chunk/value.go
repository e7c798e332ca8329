package chunk

import (
	"fmt"

	"github.com/vecdb/lanescan/pkg/common"
)

type Value struct {
	Typ    common.LType
	IsNull bool
	I64    int64
	F64    float64
	Str    string
	Bool   bool
	Dec    common.Decimal
}

func (val *Value) String() string {
	if val.IsNull {
		return "NULL"
	}
	switch val.Typ.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT:
		return fmt.Sprintf("%d", val.I64)
	case common.LTID_FLOAT, common.LTID_DOUBLE:
		return fmt.Sprintf("%g", val.F64)
	case common.LTID_BOOLEAN:
		return fmt.Sprintf("%v", val.Bool)
	case common.LTID_VARCHAR:
		return val.Str
	case common.LTID_DECIMAL:
		return val.Dec.String()
	default:
		panic("usp")
	}
}

func NullValue(typ common.LType) *Value {
	return &Value{Typ: typ, IsNull: true}
}

func IntegerValue(v int32) *Value {
	return &Value{Typ: common.IntegerType(), I64: int64(v)}
}

func BigintValue(v int64) *Value {
	return &Value{Typ: common.BigintType(), I64: v}
}

func DoubleValue(v float64) *Value {
	return &Value{Typ: common.DoubleType(), F64: v}
}

func FloatValue(v float32) *Value {
	return &Value{Typ: common.FloatType(), F64: float64(v)}
}

func BooleanValue(v bool) *Value {
	return &Value{Typ: common.BooleanType(), Bool: v}
}

func VarcharValue(s string) *Value {
	return &Value{Typ: common.VarcharType(), Str: s}
}

func DecimalValue(d common.Decimal, width, scale int) *Value {
	return &Value{Typ: common.DecimalType(width, scale), Dec: d}
}
