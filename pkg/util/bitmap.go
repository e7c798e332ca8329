package util

// Bitmap tracks row validity. An empty bitmap means all rows valid.
type Bitmap struct {
	Bits []uint8
}

func EntryCount(count int) int {
	return (count + 7) / 8
}

func (bm *Bitmap) Init(count int) {
	bm.Bits = make([]uint8, EntryCount(count))
	for i := range bm.Bits {
		bm.Bits[i] = 0xFF
	}
}

func (bm *Bitmap) Reset() {
	bm.Bits = nil
}

func (bm *Bitmap) ShareWith(other *Bitmap) {
	bm.Bits = other.Bits
}

func (bm *Bitmap) Invalid() bool {
	return len(bm.Bits) == 0
}

func (bm *Bitmap) GetEntry(eIdx uint64) uint8 {
	if bm.Invalid() {
		return 0xFF
	}
	return bm.Bits[eIdx]
}

func GetEntryIndex(idx uint64) (uint64, uint64) {
	return idx / 8, idx % 8
}

func EntryIsSet(e uint8, pos uint64) bool {
	return e&(1<<pos) != 0
}

func (bm *Bitmap) RowIsValidUnsafe(idx uint64) bool {
	eIdx, pos := GetEntryIndex(idx)
	e := bm.GetEntry(eIdx)
	return EntryIsSet(e, pos)
}

func (bm *Bitmap) RowIsValid(idx uint64) bool {
	if bm.Invalid() {
		return true
	}
	return bm.RowIsValidUnsafe(idx)
}

func (bm *Bitmap) SetValid(ridx uint64) {
	if bm.Invalid() {
		return
	}
	eIdx, pos := GetEntryIndex(ridx)
	bm.Bits[eIdx] |= 1 << pos
}

func (bm *Bitmap) SetInvalid(ridx uint64) {
	if bm.Invalid() {
		bm.Init(DefaultVectorSize)
	}
	eIdx, pos := GetEntryIndex(ridx)
	bm.Bits[eIdx] &= ^(1 << pos)
}

func (bm *Bitmap) Set(ridx uint64, valid bool) {
	if valid {
		bm.SetValid(ridx)
	} else {
		bm.SetInvalid(ridx)
	}
}

func (bm *Bitmap) AllValid() bool {
	if bm.Invalid() {
		return true
	}
	for _, e := range bm.Bits {
		if e != 0xFF {
			return false
		}
	}
	return true
}

func (bm *Bitmap) Combine(other *Bitmap, count int) {
	if other.AllValid() {
		return
	}
	if bm.AllValid() {
		bm.ShareWith(other)
		return
	}
	oldData := bm.Bits
	bm.Init(count)
	eCnt := EntryCount(count)
	for i := 0; i < eCnt; i++ {
		bm.Bits[i] = oldData[i] & other.Bits[i]
	}
}
