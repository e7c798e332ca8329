package common

import "fmt"

type PhyType int

const (
	NA      PhyType = 0
	BOOL    PhyType = 1
	INT32   PhyType = 7
	INT64   PhyType = 9
	FLOAT   PhyType = 11
	DOUBLE  PhyType = 12
	VARCHAR PhyType = 200
	DECIMAL PhyType = 209

	INVALID PhyType = 255
)

var pTypeToStr = map[PhyType]string{
	NA:      "NA",
	BOOL:    "BOOL",
	INT32:   "INT32",
	INT64:   "INT64",
	FLOAT:   "FLOAT",
	DOUBLE:  "DOUBLE",
	VARCHAR: "VARCHAR",
	DECIMAL: "DECIMAL",
	INVALID: "INVALID",
}

func (pt PhyType) String() string {
	if s, has := pTypeToStr[pt]; has {
		return s
	}
	panic(fmt.Sprintf("usp %d", pt))
}

const (
	BoolSize    = 1
	Int32Size   = 4
	Int64Size   = 8
	Float32Size = 4
	VarcharSize = int(16)
	DecimalSize = 16
)

func (pt PhyType) Size() int {
	switch pt {
	case BOOL:
		return BoolSize
	case INT32:
		return Int32Size
	case INT64:
		return Int64Size
	case FLOAT:
		return Float32Size
	case DOUBLE:
		return Int64Size
	case VARCHAR:
		return VarcharSize
	case DECIMAL:
		return DecimalSize
	default:
		panic("usp")
	}
}

// IsFixedWidth reports whether values of this type occupy contiguous
// fixed-size storage, which is what the lane-parallel filter bulk-loads.
func (pt PhyType) IsFixedWidth() bool {
	switch pt {
	case BOOL, INT32, INT64, FLOAT, DOUBLE, DECIMAL:
		return true
	default:
		return false
	}
}
