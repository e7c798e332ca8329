package common

import (
	"fmt"
)

type LTypeId int

const (
	LTID_INVALID LTypeId = iota
	LTID_NULL
	LTID_BOOLEAN
	LTID_INTEGER
	LTID_BIGINT
	LTID_FLOAT
	LTID_DOUBLE
	LTID_DECIMAL
	LTID_VARCHAR
)

var lTypeIdToStr = map[LTypeId]string{
	LTID_INVALID: "INVALID",
	LTID_NULL:    "NULL",
	LTID_BOOLEAN: "BOOLEAN",
	LTID_INTEGER: "INTEGER",
	LTID_BIGINT:  "BIGINT",
	LTID_FLOAT:   "FLOAT",
	LTID_DOUBLE:  "DOUBLE",
	LTID_DECIMAL: "DECIMAL",
	LTID_VARCHAR: "VARCHAR",
}

type LType struct {
	Id    LTypeId
	PTyp  PhyType
	Width int
	Scale int
}

func MakeLType(id LTypeId) LType {
	ret := LType{Id: id}
	ret.PTyp = ret.GetInternalType()
	return ret
}

func Null() LType {
	return MakeLType(LTID_NULL)
}

func BooleanType() LType {
	return MakeLType(LTID_BOOLEAN)
}

func IntegerType() LType {
	return MakeLType(LTID_INTEGER)
}

func BigintType() LType {
	return MakeLType(LTID_BIGINT)
}

func FloatType() LType {
	return MakeLType(LTID_FLOAT)
}

func DoubleType() LType {
	return MakeLType(LTID_DOUBLE)
}

func DecimalType(width, scale int) LType {
	ret := MakeLType(LTID_DECIMAL)
	ret.Width = width
	ret.Scale = scale
	return ret
}

func VarcharType() LType {
	ret := MakeLType(LTID_VARCHAR)
	ret.Width = -1
	return ret
}

func CopyLTypes(typs ...LType) []LType {
	ret := make([]LType, 0, len(typs))
	ret = append(ret, typs...)
	return ret
}

func (lt LType) GetInternalType() PhyType {
	switch lt.Id {
	case LTID_NULL, LTID_INVALID:
		return NA
	case LTID_BOOLEAN:
		return BOOL
	case LTID_INTEGER:
		return INT32
	case LTID_BIGINT:
		return INT64
	case LTID_FLOAT:
		return FLOAT
	case LTID_DOUBLE:
		return DOUBLE
	case LTID_DECIMAL:
		return DECIMAL
	case LTID_VARCHAR:
		return VARCHAR
	default:
		panic(fmt.Sprintf("usp %d", lt.Id))
	}
}

func (lt LType) Equal(o LType) bool {
	if lt.Id != o.Id {
		return false
	}
	if lt.Id == LTID_DECIMAL {
		return lt.Width == o.Width && lt.Scale == o.Scale
	}
	return true
}

func (lt LType) IsNumeric() bool {
	switch lt.Id {
	case LTID_INTEGER, LTID_BIGINT, LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL:
		return true
	default:
		return false
	}
}

func (lt LType) String() string {
	if s, has := lTypeIdToStr[lt.Id]; has {
		if lt.Id == LTID_DECIMAL {
			return fmt.Sprintf("%s(%d,%d)", s, lt.Width, lt.Scale)
		}
		return s
	}
	panic(fmt.Sprintf("usp %d", lt.Id))
}

// numericPriority orders numeric types by promotion preference. A pair of
// differing numeric types compares in the higher-priority type.
func numericPriority(id LTypeId) int {
	switch id {
	case LTID_INTEGER:
		return 1
	case LTID_BIGINT:
		return 2
	case LTID_DECIMAL:
		return 3
	case LTID_FLOAT:
		return 4
	case LTID_DOUBLE:
		return 5
	default:
		return 0
	}
}

// GetComparisonType derives the common type both sides of a comparison are
// cast to. Pairs with no defined promotion are a plan error, not a data
// error, so the caller must abort compilation on a non-nil error.
func GetComparisonType(left, right LType) (LType, error) {
	if left.Id == right.Id {
		if left.Id == LTID_DECIMAL {
			num := max(left.Width-left.Scale, right.Width-right.Scale)
			scale := max(left.Scale, right.Scale)
			return DecimalType(num+scale, scale), nil
		}
		return left, nil
	}
	if left.Id == LTID_NULL {
		return right, nil
	}
	if right.Id == LTID_NULL {
		return left, nil
	}
	if left.IsNumeric() && right.IsNumeric() {
		lo, hi := left, right
		if numericPriority(lo.Id) > numericPriority(hi.Id) {
			lo, hi = hi, lo
		}
		// float32 cannot represent every int64; that pair compares in double
		if hi.Id == LTID_FLOAT && lo.Id == LTID_BIGINT {
			return DoubleType(), nil
		}
		return hi, nil
	}
	return LType{}, fmt.Errorf("no comparison defined between %s and %s", left, right)
}
