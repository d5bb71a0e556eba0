package present

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/montanaflynn/stats"
	"github.com/packagewjx/rail-analyzer/internal/config"
	"github.com/packagewjx/rail-analyzer/internal/utils"
	"github.com/packagewjx/rail-analyzer/pkg/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var logger = logrus.WithField("component", "presenter")

const (
	timeSeriesTitle   = "CPU Regulator Voltages Over Time (All Rails)"
	clusterRailsTitle = "CPU Cluster Rail Voltages"
	timeAxisName      = "Time (s)"
	voltageAxisName   = "Voltage (V)"
)

var guideColor = drawing.ColorFromHex("808080")

// Presenter 持有绘图配置，替代全局的字体与字号设置
type Presenter struct {
	config *config.PresentationConfig
	font   *truetype.Font
}

func NewPresenter(fs afero.Fs, cfg *config.PresentationConfig) (*Presenter, error) {
	font, err := LoadFont(fs, cfg.FontPath)
	if err != nil {
		return nil, err
	}
	return &Presenter{config: cfg, font: font}, nil
}

// LoadFont 读取TrueType字体。path为空时返回nil，由go-chart使用默认字体
func LoadFont(fs afero.Fs, path string) (*truetype.Font, error) {
	if path == "" {
		return nil, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "读取字体文件%s失败", path)
	}
	font, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "解析字体文件%s失败", path)
	}
	return font, nil
}

type PhaseMarker struct {
	Phase string
	Time  float64
}

// PhaseMarkers 每个phase所有行相对时间的平均值，按phase首次出现的顺序。没有名字的phase不标注
func PhaseMarkers(n *core.Normalized) []PhaseMarker {
	markers := make([]PhaseMarker, 0, 8)
	for _, p := range n.PartitionByPhase() {
		if p.Phase == "" || len(p.Rows) == 0 {
			continue
		}
		times := make(stats.Float64Data, len(p.Rows))
		for i, r := range p.Rows {
			times[i] = n.Time[r]
		}
		mean, err := stats.Mean(times)
		if err != nil {
			continue
		}
		markers = append(markers, PhaseMarker{Phase: p.Phase, Time: mean})
	}
	return markers
}

type voltageSeries struct {
	series chart.ContinuousSeries
	min    float64
	max    float64
}

// buildVoltageSeries 跳过缺失值并把微伏换算为伏特。没有任何读数时返回false
func buildVoltageSeries(n *core.Normalized, rail, name string, style chart.Style) (*voltageSeries, bool) {
	xs := make([]float64, 0, n.Len())
	ys := make([]float64, 0, n.Len())
	min, max := math.Inf(1), math.Inf(-1)
	for i := range n.Samples {
		v, ok := n.Value(i, rail)
		if !ok {
			continue
		}
		v /= core.MicrovoltsPerVolt
		xs = append(xs, n.Time[i])
		ys = append(ys, v)
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if len(xs) == 0 {
		return nil, false
	}
	return &voltageSeries{
		series: chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: style},
		min:    min,
		max:    max,
	}, true
}

func (p *Presenter) lineStyle(index int) chart.Style {
	return chart.Style{
		StrokeColor: chart.GetDefaultColor(index),
		StrokeWidth: 1.5,
	}
}

func (p *Presenter) baseChart(title string, width int, n *core.Normalized, ymin, ymax float64) chart.Chart {
	maxTime := 0.0
	for _, t := range n.Time {
		maxTime = math.Max(maxTime, t)
	}
	if maxTime == 0 {
		maxTime = 1
	}

	pad := (ymax - ymin) * 0.05
	if pad == 0 {
		pad = 0.05
	}

	gridStyle := chart.Style{
		StrokeColor:     drawing.ColorFromHex("d0d0d0"),
		StrokeWidth:     0.5,
		StrokeDashArray: []float64{4, 4},
	}
	axisStyle := chart.Style{FontSize: p.config.FontSize}

	return chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: p.config.TitleFontSize},
		Width:      width,
		Height:     p.config.Height,
		DPI:        p.config.DPI,
		Font:       p.font,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           timeAxisName,
			NameStyle:      axisStyle,
			Style:          axisStyle,
			Range:          &chart.ContinuousRange{Min: 0, Max: maxTime},
			GridMajorStyle: gridStyle,
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		YAxis: chart.YAxis{
			Name:           voltageAxisName,
			NameStyle:      axisStyle,
			Style:          axisStyle,
			Range:          &chart.ContinuousRange{Min: ymin - pad, Max: ymax + pad},
			GridMajorStyle: gridStyle,
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.3f")
			},
		},
	}
}

// TimeSeriesChart 所有电压轨随时间变化的折线图，并在每个phase的平均时间处画参考线
func (p *Presenter) TimeSeriesChart(n *core.Normalized) (*chart.Chart, error) {
	railSeries := make([]chart.Series, 0, len(n.Rails))
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for i, rail := range n.Rails {
		vs, ok := buildVoltageSeries(n, rail, rail, p.lineStyle(i))
		if !ok {
			logger.Warnf("电压轨%s没有任何读数，不绘制", rail)
			continue
		}
		railSeries = append(railSeries, vs.series)
		ymin = math.Min(ymin, vs.min)
		ymax = math.Max(ymax, vs.max)
	}
	if len(railSeries) == 0 {
		return nil, &core.DataFormatError{Kind: core.EmptyAggregationSubset, Detail: "所有电压轨都没有读数，无法绘图"}
	}

	c := p.baseChart(timeSeriesTitle, p.config.Width, n, ymin, ymax)
	c.Series = append(c.Series, railSeries...)

	guideStyle := chart.Style{
		StrokeColor:     guideColor.WithAlpha(80),
		StrokeWidth:     1,
		StrokeDashArray: []float64{5, 5},
	}
	labelY := c.YAxis.Range.GetMax() - (c.YAxis.Range.GetMax()-c.YAxis.Range.GetMin())*0.05
	annotations := make([]chart.Value2, 0, 8)
	for _, m := range PhaseMarkers(n) {
		c.Series = append(c.Series, chart.ContinuousSeries{
			XValues: []float64{m.Time, m.Time},
			YValues: []float64{c.YAxis.Range.GetMin(), c.YAxis.Range.GetMax()},
			Style:   guideStyle,
		})
		annotations = append(annotations, chart.Value2{XValue: m.Time, YValue: labelY, Label: m.Phase})
	}
	if len(annotations) > 0 {
		c.Series = append(c.Series, chart.AnnotationSeries{
			Annotations: annotations,
			Style: chart.Style{
				FontSize:    p.config.FontSize - 1,
				FontColor:   guideColor,
				StrokeColor: guideColor.WithAlpha(80),
				FillColor:   drawing.ColorWhite.WithAlpha(200),
			},
		})
	}

	// 图例只列出电压轨，参考线不出现在图例中
	c.Elements = []chart.Renderable{chart.Legend(&chart.Chart{Series: railSeries}, chart.Style{FontSize: p.config.FontSize - 1})}
	return &c, nil
}

// ClusterRailsChart 只绘制指定的电压轨，使用人工标注的cluster名称作为图例
func (p *Presenter) ClusterRailsChart(n *core.Normalized, rails []config.ClusterRail) (*chart.Chart, error) {
	known := make(map[string]struct{}, len(n.Rails))
	for _, r := range n.Rails {
		known[r] = struct{}{}
	}
	for _, cr := range rails {
		if _, ok := known[cr.Rail]; !ok {
			names := append([]string{}, n.Rails...)
			sort.Strings(names)
			return nil, &core.DataFormatError{Kind: core.UnknownRailReference, Column: cr.Rail,
				Detail: fmt.Sprintf("不是已识别的电压轨，已知电压轨：%s", strings.Join(names, ","))}
		}
	}

	series := make([]chart.Series, 0, len(rails))
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for i, cr := range rails {
		vs, ok := buildVoltageSeries(n, cr.Rail, cr.Label, p.lineStyle(i))
		if !ok {
			logger.Warnf("电压轨%s（%s）没有任何读数，不绘制", cr.Rail, cr.Label)
			continue
		}
		series = append(series, vs.series)
		ymin = math.Min(ymin, vs.min)
		ymax = math.Max(ymax, vs.max)
	}
	if len(series) == 0 {
		return nil, &core.DataFormatError{Kind: core.EmptyAggregationSubset, Detail: "指定的cluster电压轨都没有读数，无法绘图"}
	}

	c := p.baseChart(clusterRailsTitle, p.config.NarrowWidth, n, ymin, ymax)
	c.Series = series
	c.Elements = []chart.Renderable{chart.Legend(&c, chart.Style{FontSize: p.config.FontSize})}
	return &c, nil
}

// Render 按配置的格式输出图片
func (p *Presenter) Render(c *chart.Chart, w io.Writer) error {
	provider := chart.PNG
	if p.config.Format == config.FormatSVG {
		provider = chart.SVG
	}
	if err := c.Render(provider, w); err != nil {
		return errors.Wrap(err, "绘制图表失败")
	}
	return nil
}

// WriteChart 将图表写入dir/name.<format>，返回文件路径
func (p *Presenter) WriteChart(fs afero.Fs, dir, name string, c *chart.Chart) (string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "创建输出目录%s失败", dir)
	}
	path := filepath.Join(dir, name+"."+p.config.Format)
	fout, err := fs.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "创建图片文件%s失败", path)
	}
	counter := &utils.WriteCounter{Writer: fout}
	if err = p.Render(c, counter); err != nil {
		_ = fout.Close()
		return "", err
	}
	if err = fout.Close(); err != nil {
		return "", errors.Wrapf(err, "关闭图片文件%s失败", path)
	}
	logger.Infof("图表已写入%s，%d字节", path, counter.Count)
	return path, nil
}
