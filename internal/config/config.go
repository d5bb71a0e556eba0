package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/packagewjx/rail-analyzer/pkg/core"
)

const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

const (
	DefaultInput       = "./reg_cpu_map_manual.csv"
	// DefaultSpreadsheet 表示在输入文件旁边生成同名的xlsx副本
	DefaultSpreadsheet = "auto"
	DefaultOutputDir   = "."
	DefaultRailPrefix  = "regulator"
	DefaultDelimiter   = ","
)

// PhaseCluster 某个phase运行时活跃的cluster对应的频率列
type PhaseCluster struct {
	Phase           string `mapstructure:"phase"`
	FrequencyColumn string `mapstructure:"frequency-column"`
}

// ClusterRail 电压轨与cluster的对应关系，为人工整理的结果
type ClusterRail struct {
	Rail  string `mapstructure:"rail"`
	Label string `mapstructure:"label"`
}

type PresentationConfig struct {
	FontPath         string  `mapstructure:"font-path"` // 为空则使用go-chart自带字体
	FontSize         float64 `mapstructure:"font-size"`
	TitleFontSize    float64 `mapstructure:"title-font-size"`
	Width            int     `mapstructure:"width"`
	Height           int     `mapstructure:"height"`
	NarrowWidth      int     `mapstructure:"narrow-width"`
	DPI              float64 `mapstructure:"dpi"`
	Format           string  `mapstructure:"format"`
	TimeSeriesFile   string  `mapstructure:"time-series-file"`
	ClusterRailsFile string  `mapstructure:"cluster-rails-file"`
}

type Config struct {
	Input         string             `mapstructure:"input"`
	Delimiter     string             `mapstructure:"delimiter"`
	Spreadsheet   string             `mapstructure:"spreadsheet"` // 为空则不转换，auto为输入文件同名的xlsx
	OutputDir     string             `mapstructure:"output-dir"`
	RailPrefix    string             `mapstructure:"rail-prefix"`
	SummaryPhases []string           `mapstructure:"summary-phases"`
	PhaseClusters []PhaseCluster     `mapstructure:"phase-clusters"`
	ClusterRails  []ClusterRail      `mapstructure:"cluster-rails"`
	Presentation  PresentationConfig `mapstructure:"presentation"`
}

func (c Config) String() string {
	marshal, _ := json.Marshal(c)
	return string(marshal)
}

// Default 对应骁龙8 Gen 2（A510/A715/X3）测试设备的配置
func Default() *Config {
	return &Config{
		Input:         DefaultInput,
		Delimiter:     DefaultDelimiter,
		Spreadsheet:   DefaultSpreadsheet,
		OutputDir:     DefaultOutputDir,
		RailPrefix:    DefaultRailPrefix,
		SummaryPhases: []string{"idle", "little", "big", "prime"},
		PhaseClusters: []PhaseCluster{
			{Phase: "little", FrequencyColumn: "cpu0_khz"},
			{Phase: "big", FrequencyColumn: "cpu4_khz"},
			{Phase: "prime", FrequencyColumn: "cpu7_khz"},
		},
		ClusterRails: []ClusterRail{
			{Rail: "regulator.50_uv", Label: "Little (A510)"},
			{Rail: "regulator.51_uv", Label: "Big (A715)"},
			{Rail: "regulator.49_uv", Label: "Prime (X3)"},
		},
		Presentation: PresentationConfig{
			FontSize:         9,
			TitleFontSize:    12,
			Width:            1200,
			Height:           600,
			NarrowWidth:      1000,
			DPI:              96,
			Format:           FormatPNG,
			TimeSeriesFile:   "rail_voltages",
			ClusterRailsFile: "cluster_rails",
		},
	}
}

// Complete 检查配置并填充未设置的可选项
func (c *Config) Complete() error {
	if c.Input == "" {
		return fmt.Errorf("未指定输入文件")
	}
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("分隔符必须是单个字符，现在为%q", c.Delimiter)
	}
	if c.Spreadsheet == DefaultSpreadsheet {
		c.Spreadsheet = SpreadsheetFor(c.Input)
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.RailPrefix == "" {
		return fmt.Errorf("电压轨列名前缀不能为空")
	}
	if len(c.SummaryPhases) == 0 {
		return fmt.Errorf("至少需要一个用于统计最大最小值的phase")
	}

	seen := make(map[string]struct{}, len(c.PhaseClusters))
	for i, pc := range c.PhaseClusters {
		if pc.Phase == "" || pc.FrequencyColumn == "" {
			return fmt.Errorf("第%d个phase与频率列的映射不完整：%+v", i, pc)
		}
		if pc.FrequencyColumn == core.TimestampColumn || pc.FrequencyColumn == core.PhaseColumn {
			return fmt.Errorf("phase %s 的频率列不能是%s", pc.Phase, pc.FrequencyColumn)
		}
		if _, ok := seen[pc.Phase]; ok {
			return fmt.Errorf("phase %s 重复映射了频率列", pc.Phase)
		}
		seen[pc.Phase] = struct{}{}
	}

	if len(c.ClusterRails) == 0 {
		return fmt.Errorf("至少需要一个cluster电压轨")
	}
	for i, cr := range c.ClusterRails {
		if cr.Rail == "" {
			return fmt.Errorf("第%d个cluster电压轨未指定列名", i)
		}
		if cr.Label == "" {
			c.ClusterRails[i].Label = cr.Rail
		}
	}

	return c.Presentation.Complete()
}

func (p *PresentationConfig) Complete() error {
	def := Default().Presentation

	p.Format = strings.ToLower(p.Format)
	switch p.Format {
	case "":
		p.Format = def.Format
	case FormatPNG, FormatSVG:
	default:
		return fmt.Errorf("不支持的图片格式%s，可选值：png、svg", p.Format)
	}

	if p.FontSize < 0 || p.TitleFontSize < 0 || p.Width < 0 || p.Height < 0 || p.NarrowWidth < 0 || p.DPI < 0 {
		return fmt.Errorf("字体与图片尺寸不能为负数")
	}
	if p.FontSize == 0 {
		p.FontSize = def.FontSize
	}
	if p.TitleFontSize == 0 {
		p.TitleFontSize = def.TitleFontSize
	}
	if p.Width == 0 {
		p.Width = def.Width
	}
	if p.Height == 0 {
		p.Height = def.Height
	}
	if p.NarrowWidth == 0 {
		p.NarrowWidth = def.NarrowWidth
	}
	if p.DPI == 0 {
		p.DPI = def.DPI
	}
	if p.TimeSeriesFile == "" {
		p.TimeSeriesFile = def.TimeSeriesFile
	}
	if p.ClusterRailsFile == "" {
		p.ClusterRailsFile = def.ClusterRailsFile
	}
	return nil
}

// SpreadsheetFor 与input同目录、同名的xlsx路径
func SpreadsheetFor(input string) string {
	path := strings.TrimSuffix(input, filepath.Ext(input)) + ".xlsx"
	if path == input {
		path = input + ".xlsx"
	}
	return path
}

// FrequencyColumns 所有映射中的频率列，按配置顺序
func (c *Config) FrequencyColumns() []string {
	cols := make([]string, len(c.PhaseClusters))
	for i, pc := range c.PhaseClusters {
		cols[i] = pc.FrequencyColumn
	}
	return cols
}

func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}
