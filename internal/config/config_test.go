package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, []string{"cpu0_khz", "cpu4_khz", "cpu7_khz"}, cfg.FrequencyColumns())
	assert.Equal(t, ',', cfg.DelimiterRune())
	assert.Equal(t, 3, len(cfg.ClusterRails))
}

func TestConfig_Complete(t *testing.T) {
	cfg := &Config{
		Input:         "in.csv",
		RailPrefix:    "regulator",
		SummaryPhases: []string{"idle"},
		ClusterRails:  []ClusterRail{{Rail: "regulator.1_uv"}},
	}
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, DefaultDelimiter, cfg.Delimiter)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, "regulator.1_uv", cfg.ClusterRails[0].Label)
	assert.Equal(t, FormatPNG, cfg.Presentation.Format)
	assert.Equal(t, Default().Presentation.Width, cfg.Presentation.Width)

	/*
		错误配置
	*/
	cfg = Default()
	cfg.RailPrefix = ""
	assert.Error(t, cfg.Complete())

	cfg = Default()
	cfg.Delimiter = ";;"
	assert.Error(t, cfg.Complete())

	cfg = Default()
	cfg.PhaseClusters = append(cfg.PhaseClusters, PhaseCluster{Phase: "little", FrequencyColumn: "cpu1_khz"})
	assert.Error(t, cfg.Complete())

	cfg = Default()
	cfg.PhaseClusters[0].FrequencyColumn = ""
	assert.Error(t, cfg.Complete())

	cfg = Default()
	cfg.PhaseClusters[1].FrequencyColumn = "ts"
	assert.Error(t, cfg.Complete())

	cfg = Default()
	cfg.PhaseClusters[2].FrequencyColumn = "phase"
	assert.Error(t, cfg.Complete())

	cfg = Default()
	cfg.ClusterRails = nil
	assert.Error(t, cfg.Complete())

	cfg = Default()
	cfg.Presentation.Format = "PDF"
	assert.Error(t, cfg.Complete())

	cfg = Default()
	cfg.Presentation.Format = "SVG"
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, FormatSVG, cfg.Presentation.Format)

	cfg = Default()
	cfg.Presentation.Width = -1
	assert.Error(t, cfg.Complete())
}

func TestConfig_Spreadsheet(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, "./reg_cpu_map_manual.xlsx", cfg.Spreadsheet)

	/*
		未指定时随输入文件变化
	*/
	cfg = Default()
	cfg.Input = "/data/other.csv"
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, "/data/other.xlsx", cfg.Spreadsheet)

	cfg = Default()
	cfg.Input = "trace"
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, "trace.xlsx", cfg.Spreadsheet)

	cfg = Default()
	cfg.Input = "log.xlsx"
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, "log.xlsx.xlsx", cfg.Spreadsheet)

	/*
		显式指定或关闭时不修改
	*/
	cfg = Default()
	cfg.Input = "/data/other.csv"
	cfg.Spreadsheet = "/out/book.xlsx"
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, "/out/book.xlsx", cfg.Spreadsheet)

	cfg = Default()
	cfg.Spreadsheet = ""
	assert.NoError(t, cfg.Complete())
	assert.Equal(t, "", cfg.Spreadsheet)
}
