package pipeline

import (
	"fmt"
	"io"

	"github.com/packagewjx/rail-analyzer/internal/aggregate"
	"github.com/packagewjx/rail-analyzer/internal/config"
	"github.com/packagewjx/rail-analyzer/internal/preprocess"
	"github.com/packagewjx/rail-analyzer/internal/present"
	"github.com/packagewjx/rail-analyzer/internal/spreadsheet"
	"github.com/packagewjx/rail-analyzer/internal/telemetry"
	"github.com/packagewjx/rail-analyzer/pkg/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/wcharczuk/go-chart/v2"
)

var logger = logrus.WithField("component", "pipeline")

type Result struct {
	Table        *core.Table
	Normalized   *core.Normalized
	Ranges       *aggregate.RangeSummary
	Profiles     []*aggregate.FrequencyProfile
	TimeSeries   *chart.Chart
	ClusterRails *chart.Chart
	// 写出的文件路径，顺序为表格、时间序列图、cluster电压轨图。表格转换失败时不包含表格
	Artifacts []string
}

// Run 加载日志，计算汇总数据，向out输出表格并写出图表文件。cfg需要先调用Complete
func Run(fs afero.Fs, cfg *config.Config, out io.Writer) (*Result, error) {
	result := &Result{Artifacts: make([]string, 0, 3)}

	if cfg.Spreadsheet != "" {
		if err := spreadsheet.WriteWorkbook(fs, []string{cfg.Input}, cfg.Spreadsheet, cfg.DelimiterRune()); err != nil {
			logger.Warnf("转换表格文件失败，继续分析：%v", err)
		} else {
			result.Artifacts = append(result.Artifacts, cfg.Spreadsheet)
		}
	}

	loader := telemetry.NewDataLoader(telemetry.CSV, cfg.DelimiterRune())
	table, err := loader.Load(fs, cfg.Input)
	if err != nil {
		return nil, err
	}
	result.Table = table

	if err = table.Require(cfg.FrequencyColumns()...); err != nil {
		return nil, err
	}

	n, err := preprocess.Normalize(table, cfg.RailPrefix)
	if err != nil {
		return nil, err
	}
	result.Normalized = n
	logger.Infof("共%d行，识别到%d个电压轨", n.Len(), len(n.Rails))

	result.Ranges = aggregate.RailRanges(n, cfg.SummaryPhases)
	for _, pc := range cfg.PhaseClusters {
		profile, err := aggregate.FrequencyProfileOf(n, pc.Phase, pc.FrequencyColumn)
		if err != nil {
			return nil, err
		}
		if err = profile.Errors(); err != nil {
			logger.Warnf("phase %s 的频率分组不完整：%v", pc.Phase, err)
		}
		result.Profiles = append(result.Profiles, profile)
	}

	presenter, err := present.NewPresenter(fs, &cfg.Presentation)
	if err != nil {
		return nil, err
	}
	// 先构建全部图表，引用了不存在的电压轨时不输出任何文件
	if result.TimeSeries, err = presenter.TimeSeriesChart(n); err != nil {
		return nil, err
	}
	if result.ClusterRails, err = presenter.ClusterRailsChart(n, cfg.ClusterRails); err != nil {
		return nil, err
	}

	present.PrintRailRanges(out, result.Ranges)
	for _, profile := range result.Profiles {
		_, _ = fmt.Fprintln(out)
		present.PrintFrequencyProfile(out, profile)
	}

	path, err := presenter.WriteChart(fs, cfg.OutputDir, cfg.Presentation.TimeSeriesFile, result.TimeSeries)
	if err != nil {
		return nil, errors.Wrap(err, "输出时间序列图失败")
	}
	result.Artifacts = append(result.Artifacts, path)
	path, err = presenter.WriteChart(fs, cfg.OutputDir, cfg.Presentation.ClusterRailsFile, result.ClusterRails)
	if err != nil {
		return nil, errors.Wrap(err, "输出cluster电压轨图失败")
	}
	result.Artifacts = append(result.Artifacts, path)

	return result, nil
}

// Rails 只加载并识别电压轨列名
func Rails(fs afero.Fs, cfg *config.Config) ([]string, error) {
	header, err := telemetry.ReadHeader(fs, cfg.Input, cfg.DelimiterRune())
	if err != nil {
		return nil, err
	}
	rails := preprocess.RailColumns(header, cfg.RailPrefix)
	if len(rails) == 0 {
		return nil, &core.DataFormatError{Kind: core.NoRailColumnsFound, Path: cfg.Input,
			Detail: fmt.Sprintf("没有以%s开头的列", cfg.RailPrefix)}
	}
	return rails, nil
}
