package core

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestTable() *Table {
	table := NewTable([]string{"ts", "phase", "cpu0_khz", "regulator.50_uv"}, []string{"cpu0_khz", "regulator.50_uv"})
	phases := []string{"idle", "little", "idle", "big", ""}
	for i, p := range phases {
		table.Samples = append(table.Samples, &Sample{
			Timestamp: float64(100 + i),
			Phase:     p,
			Values:    []float64{float64(300000 * (i + 1)), 800000 + float64(i)*10000},
		})
	}
	table.Samples[2].Values[1] = math.NaN()
	return table
}

func TestTable_PartitionByPhase(t *testing.T) {
	table := newTestTable()
	partitions := table.PartitionByPhase()
	assert.Equal(t, 4, len(partitions))
	assert.Equal(t, "idle", partitions[0].Phase)
	assert.Equal(t, []int{0, 2}, partitions[0].Rows)
	assert.Equal(t, "little", partitions[1].Phase)
	assert.Equal(t, "big", partitions[2].Phase)
	assert.Equal(t, "", partitions[3].Phase)

	// 分组互不相交且覆盖所有行
	seen := make(map[int]int)
	for _, p := range partitions {
		for _, r := range p.Rows {
			seen[r]++
		}
	}
	assert.Equal(t, table.Len(), len(seen))
	for _, cnt := range seen {
		assert.Equal(t, 1, cnt)
	}
}

func TestTable_Column(t *testing.T) {
	table := newTestTable()

	ts, ok := table.Column(TimestampColumn)
	assert.True(t, ok)
	assert.Equal(t, []float64{100, 101, 102, 103, 104}, ts)

	freq, ok := table.Column("cpu0_khz")
	assert.True(t, ok)
	assert.Equal(t, float64(300000), freq[0])

	_, ok = table.Column("cpu7_khz")
	assert.False(t, ok)

	_, ok = table.Value(2, "regulator.50_uv")
	assert.False(t, ok)
	v, ok := table.Value(1, "regulator.50_uv")
	assert.True(t, ok)
	assert.Equal(t, float64(810000), v)
}

func TestTable_Require(t *testing.T) {
	table := newTestTable()
	assert.NoError(t, table.Require(TimestampColumn, PhaseColumn, "cpu0_khz"))

	err := table.Require("cpu0_khz", "cpu4_khz")
	assert.Error(t, err)
	assert.True(t, IsKind(err, MissingRequiredColumn))
	assert.Contains(t, err.Error(), "cpu4_khz")

	/*
		包装后的错误仍能识别类型
	*/
	wrapped := errors.Wrap(err, "检查列失败")
	assert.True(t, IsKind(wrapped, MissingRequiredColumn))
	assert.False(t, IsKind(wrapped, NoRailColumnsFound))
}

func TestTable_SelectPhases(t *testing.T) {
	table := newTestTable()
	assert.Equal(t, []int{0, 1, 2}, table.SelectPhases("idle", "little"))
	assert.Equal(t, 0, len(table.SelectPhases("prime")))
}
