package common

import (
	"bytes"
	"unsafe"

	"github.com/vecdb/lanescan/pkg/util"
)

type String struct {
	Len  int
	Data unsafe.Pointer
}

func NewString(s string) String {
	if len(s) == 0 {
		return String{}
	}
	data := []byte(s)
	return String{
		Len:  len(data),
		Data: unsafe.Pointer(&data[0]),
	}
}

func (s *String) DataSlice() []byte {
	return util.PointerToSlice[byte](s.Data, s.Len)
}

func (s *String) String() string {
	if s.Len == 0 {
		return ""
	}
	return string(s.DataSlice())
}

func (s *String) Equal(o *String) bool {
	if s.Len != o.Len {
		return false
	}
	if s.Len == 0 {
		return true
	}
	return bytes.Equal(s.DataSlice(), o.DataSlice())
}

func (s *String) Less(o *String) bool {
	return bytes.Compare(s.DataSlice(), o.DataSlice()) < 0
}

func (s *String) Length() int {
	return s.Len
}
