package preprocess

import (
	"fmt"
	"strings"

	"github.com/packagewjx/rail-analyzer/pkg/core"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "normalizer")

// Normalize 计算相对时间，并按列名前缀识别电压轨。不修改原表
func Normalize(table *core.Table, railPrefix string) (*core.Normalized, error) {
	if table.Len() == 0 {
		return nil, &core.DataFormatError{Kind: core.NoSamples, Detail: "没有可以计算相对时间的样本"}
	}

	rails := RailColumns(table.Fields(), railPrefix)
	if len(rails) == 0 {
		return nil, &core.DataFormatError{Kind: core.NoRailColumnsFound,
			Detail: fmt.Sprintf("没有以%q开头的列，无法确定要分析的电压轨", railPrefix)}
	}

	return &core.Normalized{
		Table: table,
		Time:  RelativeTime(table),
		Rails: rails,
	}, nil
}

// RelativeTime time = ts - min(ts)
func RelativeTime(table *core.Table) []float64 {
	if table.Len() == 0 {
		return []float64{}
	}

	min := table.Samples[0].Timestamp
	for _, s := range table.Samples {
		if s.Timestamp < min {
			min = s.Timestamp
		}
	}

	result := make([]float64, table.Len())
	for i, s := range table.Samples {
		result[i] = s.Timestamp - min
	}
	return result
}

// RailColumns 以prefix开头的列，保持输入顺序
func RailColumns(columns []string, prefix string) []string {
	rails := make([]string, 0, len(columns))
	if prefix == "" {
		return rails
	}
	for _, c := range columns {
		if strings.HasPrefix(c, prefix) {
			rails = append(rails, c)
		}
	}
	logger.Debugf("识别到%d个电压轨：%v", len(rails), rails)
	return rails
}
