package chunk

import (
	"go.uber.org/zap"

	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/util"
)

type Chunk struct {
	Data  []*Vector
	Count int
	_Cap  int
}

func (c *Chunk) Init(types []common.LType, cap int) {
	c._Cap = cap
	c.Data = nil
	for _, lType := range types {
		c.Data = append(c.Data, NewVector2(lType, c._Cap))
	}
	c.Count = 0
}

// ReferenceColumns borrows vectors owned by somebody else. The chunk must
// not outlive the owner.
func (c *Chunk) ReferenceColumns(vecs []*Vector, count int) {
	c.Data = vecs
	c._Cap = util.DefaultVectorSize
	c.Count = count
}

func (c *Chunk) Reset() {
	if len(c.Data) == 0 {
		return
	}
	for _, vec := range c.Data {
		vec.Reset()
	}
	c.Count = 0
}

func (c *Chunk) Cap() int {
	return c._Cap
}

func (c *Chunk) SetCard(count int) {
	util.AssertFunc(count <= c._Cap)
	c.Count = count
}

func (c *Chunk) Card() int {
	return c.Count
}

func (c *Chunk) ColumnCount() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

func (c *Chunk) Print(rowPrefix string) {
	for i := 0; i < c.Card(); i++ {
		fields := make([]zap.Field, 0)
		for j := 0; j < c.ColumnCount(); j++ {
			val := c.Data[j].GetValue(i)
			fields = append(fields, zap.String("", val.String()))
		}
		util.Info(rowPrefix, fields...)
	}
}
