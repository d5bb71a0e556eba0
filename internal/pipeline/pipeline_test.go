package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/packagewjx/rail-analyzer/internal/config"
	"github.com/packagewjx/rail-analyzer/pkg/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLog = `ts,phase,cpu0_khz,cpu4_khz,cpu7_khz,regulator.49_uv,regulator.50_uv,regulator.51_uv
100,idle,300000,400000,500000,700000,800000,750000
101,little,1800000,400000,500000,700000,810000,750000
102,big,300000,2800000,500000,700000,820000,950000
103,prime,300000,400000,3200000,1000000,830000,750000
`

func setup(t *testing.T, content string) (afero.Fs, *config.Config) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/log.csv", []byte(content), 0644))
	cfg := config.Default()
	cfg.Input = "/data/log.csv"
	cfg.OutputDir = "/out"
	cfg.Spreadsheet = "/out/log.xlsx"
	require.NoError(t, cfg.Complete())
	return fs, cfg
}

func assertNoCharts(t *testing.T, fs afero.Fs) {
	for _, path := range []string{"/out/rail_voltages.png", "/out/cluster_rails.png"} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, exists, path)
	}
}

func TestRun(t *testing.T) {
	fs, cfg := setup(t, testLog)
	out := &bytes.Buffer{}

	result, err := Run(fs, cfg, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/log.xlsx", "/out/rail_voltages.png", "/out/cluster_rails.png"}, result.Artifacts)
	for _, path := range result.Artifacts {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}

	assert.Equal(t, []float64{0, 1, 2, 3}, result.Normalized.Time)
	assert.Equal(t, []string{"regulator.49_uv", "regulator.50_uv", "regulator.51_uv"}, result.Normalized.Rails)

	assert.NoError(t, result.Ranges.Err())
	assert.Equal(t, 4, result.Ranges.Rows)
	assert.Equal(t, 0.8, result.Ranges.Rails[1].Min)
	assert.Equal(t, 0.83, result.Ranges.Rails[1].Max)

	require.Equal(t, 3, len(result.Profiles))
	assert.Equal(t, "cpu0_khz", result.Profiles[0].FrequencyColumn)
	assert.Equal(t, "cpu7_khz", result.Profiles[2].FrequencyColumn)
	assert.Equal(t, float64(3200000), result.Profiles[2].Groups[0].Frequency)
	assert.Equal(t, 1.0, result.Profiles[2].Groups[0].Normalized[0])

	assert.Equal(t, 3, len(result.ClusterRails.Series))
	text := out.String()
	assert.Contains(t, text, "regulator.50_uv")
	assert.Contains(t, text, "0.83")
	assert.Contains(t, text, "1800000")
}

func TestRun_Idempotent(t *testing.T) {
	fs, cfg := setup(t, testLog)

	first, err := Run(fs, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	firstChart, err := afero.ReadFile(fs, "/out/rail_voltages.png")
	require.NoError(t, err)

	second, err := Run(fs, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	secondChart, err := afero.ReadFile(fs, "/out/rail_voltages.png")
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first.Ranges, second.Ranges, cmpopts.EquateNaNs()))
	assert.Empty(t, cmp.Diff(first.Profiles, second.Profiles, cmpopts.EquateNaNs()))
	assert.Empty(t, cmp.Diff(first.Normalized.Time, second.Normalized.Time))
	assert.Equal(t, firstChart, secondChart)
}

func TestRun_MissingColumns(t *testing.T) {
	/*
		没有phase列
	*/
	fs, cfg := setup(t, "ts,cpu0_khz,regulator.50_uv\n100,300000,800000\n")
	cfg.Spreadsheet = ""
	_, err := Run(fs, cfg, &bytes.Buffer{})
	assert.True(t, core.IsKind(err, core.MissingRequiredColumn))
	assertNoCharts(t, fs)

	/*
		没有prime对应的频率列
	*/
	fs, cfg = setup(t, "ts,phase,cpu0_khz,cpu4_khz,regulator.50_uv\n100,idle,300000,400000,800000\n")
	_, err = Run(fs, cfg, &bytes.Buffer{})
	assert.True(t, core.IsKind(err, core.MissingRequiredColumn))
	assert.Contains(t, err.Error(), "cpu7_khz")
	assertNoCharts(t, fs)

	/*
		没有电压轨
	*/
	fs, cfg = setup(t, "ts,phase,cpu0_khz,cpu4_khz,cpu7_khz\n100,idle,300000,400000,500000\n")
	_, err = Run(fs, cfg, &bytes.Buffer{})
	assert.True(t, core.IsKind(err, core.NoRailColumnsFound))
	assertNoCharts(t, fs)
}

func TestRun_UnknownRail(t *testing.T) {
	fs, cfg := setup(t, testLog)
	cfg.ClusterRails = []config.ClusterRail{
		{Rail: "regulator.50_uv", Label: "Little"},
		{Rail: "regulator.52_uv", Label: "Big"},
	}
	out := &bytes.Buffer{}

	_, err := Run(fs, cfg, out)
	assert.True(t, core.IsKind(err, core.UnknownRailReference))
	assert.Contains(t, err.Error(), "regulator.52_uv")
	assertNoCharts(t, fs)
	assert.Equal(t, 0, out.Len())

	/*
		频率列不能当作电压轨绘制
	*/
	cfg.ClusterRails = []config.ClusterRail{{Rail: "cpu0_khz", Label: "Little"}}
	_, err = Run(fs, cfg, out)
	assert.True(t, core.IsKind(err, core.UnknownRailReference))
	assertNoCharts(t, fs)
	assert.Equal(t, 0, out.Len())
}

type failingFs struct {
	afero.Fs
	suffix string
}

func (f *failingFs) Create(name string) (afero.File, error) {
	if strings.HasSuffix(name, f.suffix) {
		return nil, errors.New("磁盘已满")
	}
	return f.Fs.Create(name)
}

func TestRun_SpreadsheetFailure(t *testing.T) {
	fs, cfg := setup(t, testLog)
	hook := test.NewGlobal()
	defer hook.Reset()

	result, err := Run(&failingFs{Fs: fs, suffix: ".xlsx"}, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/rail_voltages.png", "/out/cluster_rails.png"}, result.Artifacts)

	warned := false
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "转换表格文件失败") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRails(t *testing.T) {
	fs, cfg := setup(t, testLog)
	rails, err := Rails(fs, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"regulator.49_uv", "regulator.50_uv", "regulator.51_uv"}, rails)

	cfg.RailPrefix = "pmic"
	_, err = Rails(fs, cfg)
	assert.True(t, core.IsKind(err, core.NoRailColumnsFound))

	cfg.Input = "/data/missing.csv"
	_, err = Rails(fs, cfg)
	assert.True(t, core.IsKind(err, core.FileNotFound))
}
