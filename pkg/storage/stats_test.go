package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
)

func intPred(col int, op ZoneCmpOp, v int32) ZoneMapPredicate {
	return ZoneMapPredicate{ColIdx: col, Op: op, Constant: chunk.IntegerValue(v)}
}

func TestZoneMapSkip(t *testing.T) {
	zm := NewZoneMaps()
	for i := int32(0); i <= 10; i++ {
		zm.Update(0, 0, chunk.IntegerValue(i))
	}

	assert.False(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneGreater, 50)}))
	assert.True(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneGreater, 5)}))
	assert.False(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneLess, 0)}))
	assert.True(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneLessEqual, 0)}))
	assert.False(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneEqual, 11)}))
	assert.True(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneEqual, 10)}))
	assert.False(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneGreaterEqual, 11)}))
	assert.True(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneGreaterEqual, 10)}))
}

func TestZoneMapConjunction(t *testing.T) {
	zm := NewZoneMaps()
	for i := int32(0); i <= 10; i++ {
		zm.Update(0, 0, chunk.IntegerValue(i))
	}
	// one impossible clause skips the chunk
	assert.False(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{
		intPred(0, ZoneGreater, 5),
		intPred(0, ZoneLess, 0),
	}))
}

func TestZoneMapMissingStats(t *testing.T) {
	zm := NewZoneMaps()
	// never skip without stats
	assert.True(t, zm.ShouldScanChunk(7, []ZoneMapPredicate{intPred(0, ZoneGreater, 50)}))
}

func TestZoneMapNullsIgnored(t *testing.T) {
	zm := NewZoneMaps()
	zm.Update(0, 0, chunk.NullValue(common.IntegerType()))
	// null updates do not create stats, so no skipping either
	assert.True(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{intPred(0, ZoneGreater, 50)}))
}

func TestZoneMapNullConstant(t *testing.T) {
	zm := NewZoneMaps()
	zm.Update(0, 0, chunk.IntegerValue(1))
	pred := ZoneMapPredicate{ColIdx: 0, Op: ZoneEqual,
		Constant: chunk.NullValue(common.IntegerType())}
	assert.True(t, zm.ShouldScanChunk(0, []ZoneMapPredicate{pred}))
}
