package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/montanaflynn/stats"
	"github.com/packagewjx/rail-analyzer/pkg/core"
)

type FrequencyGroup struct {
	Frequency  float64
	Samples    int
	Means      []float64 // 微伏，与Rails对应，NaN表示该频率下没有读数
	Normalized []float64 // Means除以对应电压轨的Peaks
}

// FrequencyProfile 某个phase内按活跃cluster频率分组后的平均电压，归一化到[0,1]
type FrequencyProfile struct {
	Phase           string
	FrequencyColumn string
	Rails           []string
	Groups          []FrequencyGroup
	Peaks           []float64
	RailErrors      []error // 与Rails对应，nil表示该电压轨正常
	Err             error   // 整个phase没有可以分组的数据
}

// Errors 汇总phase及各电压轨的错误
func (p *FrequencyProfile) Errors() error {
	var result *multierror.Error
	if p.Err != nil {
		result = multierror.Append(result, p.Err)
	}
	for _, err := range p.RailErrors {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// FrequencyProfileOf 选出phase的行，按frequencyColumn的值分组（升序），计算每组每个电压轨的平均值，
// 再除以该电压轨各组平均值中的最大值。频率列不存在时返回错误，数据不足时记录在返回值中
func FrequencyProfileOf(n *core.Normalized, phase, frequencyColumn string) (*FrequencyProfile, error) {
	if err := n.Require(frequencyColumn); err != nil {
		return nil, err
	}

	profile := &FrequencyProfile{
		Phase:           phase,
		FrequencyColumn: frequencyColumn,
		Rails:           n.Rails,
		Groups:          make([]FrequencyGroup, 0),
		Peaks:           make([]float64, len(n.Rails)),
		RailErrors:      make([]error, len(n.Rails)),
	}

	rows := n.SelectPhases(phase)
	groupRows := make(map[float64][]int)
	dropped := 0
	for _, r := range rows {
		f, ok := n.Value(r, frequencyColumn)
		if !ok {
			dropped++
			continue
		}
		groupRows[f] = append(groupRows[f], r)
	}
	if dropped > 0 {
		logger.Warnf("phase %s 中有%d行缺少%s，已忽略", phase, dropped, frequencyColumn)
	}

	if len(groupRows) == 0 {
		profile.Err = emptySubset(frequencyColumn, fmt.Sprintf("phase %s 中没有带频率的数据", phase))
		logger.Warn(profile.Err)
		return profile, nil
	}

	frequencies := make([]float64, 0, len(groupRows))
	for f := range groupRows {
		frequencies = append(frequencies, f)
	}
	sort.Float64s(frequencies)

	for _, f := range frequencies {
		group := FrequencyGroup{
			Frequency:  f,
			Samples:    len(groupRows[f]),
			Means:      make([]float64, len(n.Rails)),
			Normalized: make([]float64, len(n.Rails)),
		}
		for ri, rail := range n.Rails {
			values := collect(n.Table, groupRows[f], rail)
			if len(values) == 0 {
				group.Means[ri] = math.NaN()
				continue
			}
			group.Means[ri], _ = stats.Mean(values)
		}
		profile.Groups = append(profile.Groups, group)
	}

	for ri, rail := range n.Rails {
		peak := math.Inf(-1)
		for _, g := range profile.Groups {
			if !isMissing(g.Means[ri]) && g.Means[ri] > peak {
				peak = g.Means[ri]
			}
		}

		switch {
		case math.IsInf(peak, -1):
			profile.RailErrors[ri] = emptySubset(rail, fmt.Sprintf("phase %s 中没有该电压轨的读数", phase))
		case peak <= 0:
			profile.RailErrors[ri] = emptySubset(rail, fmt.Sprintf("phase %s 中平均电压最大值为%v，无法归一化", phase, peak))
		}

		if profile.RailErrors[ri] != nil {
			logger.Warn(profile.RailErrors[ri])
			profile.Peaks[ri] = math.NaN()
			for gi := range profile.Groups {
				profile.Groups[gi].Normalized[ri] = math.NaN()
			}
			continue
		}

		profile.Peaks[ri] = peak
		for gi := range profile.Groups {
			profile.Groups[gi].Normalized[ri] = profile.Groups[gi].Means[ri] / peak
		}
	}

	return profile, nil
}
