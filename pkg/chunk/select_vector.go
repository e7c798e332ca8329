package chunk

import (
	"github.com/vecdb/lanescan/pkg/util"
)

// SelectVector holds the row ids that survive filtering within one chunk,
// in ascending order. The backing buffer is allocated once per scan and
// fully overwritten at the start of each chunk.
type SelectVector struct {
	SelVec []int
	Count  int
}

func NewSelectVector(cap int) *SelectVector {
	vec := &SelectVector{}
	vec.Init(cap)
	return vec
}

func (svec *SelectVector) Init(cap int) {
	svec.SelVec = make([]int, cap)
	svec.Count = 0
}

// Invalid means no explicit selection: GetIndex is the identity and the
// vector stands for "every row in range".
func (svec *SelectVector) Invalid() bool {
	return len(svec.SelVec) == 0
}

func (svec *SelectVector) Cap() int {
	return len(svec.SelVec)
}

func (svec *SelectVector) GetIndex(idx int) int {
	if svec.Invalid() {
		return idx
	}
	return svec.SelVec[idx]
}

func (svec *SelectVector) SetIndex(idx int, index int) {
	svec.SelVec[idx] = index
}

// Append writes rowId at the next cursor position. Callers feed row ids in
// ascending order; the cursor never moves backwards.
func (svec *SelectVector) Append(rowId int) {
	util.AssertFunc(svec.Count < len(svec.SelVec))
	util.AssertFunc(svec.Count == 0 || svec.SelVec[svec.Count-1] < rowId)
	svec.SelVec[svec.Count] = rowId
	svec.Count++
}

// Reset starts a new chunk. Entries are overwritten, never carried over.
func (svec *SelectVector) Reset() {
	svec.Count = 0
}

func (svec *SelectVector) SetCount(cnt int) {
	util.AssertFunc(cnt <= len(svec.SelVec))
	svec.Count = cnt
}

// Values returns the surviving row ids.
func (svec *SelectVector) Values() []int {
	return svec.SelVec[:svec.Count]
}

// IncrSelectVectorInPhyFormatFlat is the shared identity selection.
func IncrSelectVectorInPhyFormatFlat() *SelectVector {
	return &SelectVector{}
}
