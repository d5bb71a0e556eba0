package core

import "math"

// 日志文件中固定的列名
const (
	TimestampColumn = "ts"
	PhaseColumn     = "phase"
	TimeColumn      = "time"
)

const Splitter = ","

// 电压以微伏记录
const MicrovoltsPerVolt = 1e6

// Sample 日志中的一行。Values与Table.Fields()一一对应，缺失值为NaN
type Sample struct {
	Timestamp float64
	Phase     string
	Values    []float64
}

// Table 按时间顺序排列的样本，所有样本共享同一组列
type Table struct {
	header  []string
	fields  []string
	index   map[string]int
	Samples []*Sample
}

func NewTable(header []string, fields []string) *Table {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f] = i
	}
	return &Table{
		header:  header,
		fields:  fields,
		index:   index,
		Samples: make([]*Sample, 0, 16),
	}
}

// Header 输入文件的全部列名，保持原有顺序
func (t *Table) Header() []string {
	return t.header
}

// Fields 除ts与phase外的数值列
func (t *Table) Fields() []string {
	return t.fields
}

func (t *Table) Len() int {
	return len(t.Samples)
}

func (t *Table) HasColumn(name string) bool {
	if name == TimestampColumn || name == PhaseColumn {
		return true
	}
	_, ok := t.index[name]
	return ok
}

// Require 检查列是否都存在，缺失时返回MissingRequiredColumn
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return &DataFormatError{Kind: MissingRequiredColumn, Column: name}
		}
	}
	return nil
}

// Column 取出一列数值。ts列返回时间戳，phase列不是数值列
func (t *Table) Column(name string) ([]float64, bool) {
	if name == TimestampColumn {
		col := make([]float64, len(t.Samples))
		for i, s := range t.Samples {
			col[i] = s.Timestamp
		}
		return col, true
	}
	idx, ok := t.index[name]
	if !ok {
		return nil, false
	}
	col := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		col[i] = s.Values[idx]
	}
	return col, true
}

// Value 第row行name列的值，列不存在或值缺失时ok为false
func (t *Table) Value(row int, name string) (v float64, ok bool) {
	idx, exist := t.index[name]
	if !exist {
		return 0, false
	}
	v = t.Samples[row].Values[idx]
	return v, !math.IsNaN(v)
}

// Partition 一个phase包含的行号
type Partition struct {
	Phase string
	Rows  []int
}

// PartitionByPhase 按phase分组，按首次出现的顺序排列。各分组互不相交并覆盖整张表
func (t *Table) PartitionByPhase() []Partition {
	order := make([]string, 0, 8)
	groups := make(map[string][]int)
	for i, s := range t.Samples {
		rows, ok := groups[s.Phase]
		if !ok {
			order = append(order, s.Phase)
		}
		groups[s.Phase] = append(rows, i)
	}

	result := make([]Partition, len(order))
	for i, phase := range order {
		result[i] = Partition{Phase: phase, Rows: groups[phase]}
	}
	return result
}

// SelectPhases 返回phase属于phases的行号
func (t *Table) SelectPhases(phases ...string) []int {
	set := make(map[string]struct{}, len(phases))
	for _, p := range phases {
		set[p] = struct{}{}
	}
	rows := make([]int, 0, len(t.Samples))
	for i, s := range t.Samples {
		if _, ok := set[s.Phase]; ok {
			rows = append(rows, i)
		}
	}
	return rows
}

// Normalized 增加了相对时间与电压轨识别结果的表
type Normalized struct {
	*Table
	Time  []float64
	Rails []string
}
