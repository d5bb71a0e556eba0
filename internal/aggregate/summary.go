package aggregate

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/montanaflynn/stats"
	"github.com/packagewjx/rail-analyzer/pkg/core"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "aggregator")

// RailRange 一个电压轨在指定phase内的电压范围，单位伏特。Err不为nil时Min与Max无意义
type RailRange struct {
	Rail    string
	Min     float64
	Max     float64
	Samples int
	Err     error
}

type RangeSummary struct {
	Phases        []string
	Rows          int
	MissingPhases []string // 配置了但日志中没有任何行的phase
	Rails         []RailRange
}

// Err 汇总所有无法计算的电压轨
func (s *RangeSummary) Err() error {
	var result *multierror.Error
	for _, r := range s.Rails {
		if r.Err != nil {
			result = multierror.Append(result, r.Err)
		}
	}
	return result.ErrorOrNil()
}

// RailRanges 只保留phase属于phases的行，计算每个电压轨的最小与最大电压
func RailRanges(n *core.Normalized, phases []string) *RangeSummary {
	rows := n.SelectPhases(phases...)
	summary := &RangeSummary{
		Phases: phases,
		Rows:   len(rows),
		Rails:  make([]RailRange, len(n.Rails)),
	}

	present := make(map[string]struct{})
	for _, r := range rows {
		present[n.Samples[r].Phase] = struct{}{}
	}
	for _, p := range phases {
		if _, ok := present[p]; !ok {
			summary.MissingPhases = append(summary.MissingPhases, p)
			logger.Warnf("phase %s 在日志中没有数据", p)
		}
	}

	for i, rail := range n.Rails {
		values := collect(n.Table, rows, rail)
		rr := RailRange{Rail: rail, Samples: len(values)}
		if len(values) == 0 {
			rr.Err = emptySubset(rail, fmt.Sprintf("phase %s 中没有该电压轨的读数", strings.Join(phases, ",")))
			logger.Warn(rr.Err)
		} else {
			// collect已保证非空，stats不会返回错误
			min, _ := stats.Min(values)
			max, _ := stats.Max(values)
			rr.Min = min / core.MicrovoltsPerVolt
			rr.Max = max / core.MicrovoltsPerVolt
		}
		summary.Rails[i] = rr
	}

	return summary
}

// collect 取出rows中column的非缺失值
func collect(table *core.Table, rows []int, column string) stats.Float64Data {
	values := make(stats.Float64Data, 0, len(rows))
	for _, r := range rows {
		if v, ok := table.Value(r, column); ok {
			values = append(values, v)
		}
	}
	return values
}

func emptySubset(column, detail string) error {
	return &core.DataFormatError{Kind: core.EmptyAggregationSubset, Column: column, Detail: detail}
}

func isMissing(v float64) bool {
	return math.IsNaN(v)
}
