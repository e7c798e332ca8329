package util

import "unsafe"

func PointerToSlice[T any](ptr unsafe.Pointer, n int) []T {
	return unsafe.Slice((*T)(ptr), n)
}

func PointerAdd(ptr unsafe.Pointer, offset int) unsafe.Pointer {
	return unsafe.Add(ptr, offset)
}

func SliceToPointer[T any](data []T) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}
