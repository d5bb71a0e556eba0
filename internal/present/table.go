package present

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/packagewjx/rail-analyzer/internal/aggregate"
)

const notAvailable = "n/a"

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader(header)
	return table
}

func formatFloat(v float64, precision int) string {
	if math.IsNaN(v) {
		return notAvailable
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// PrintRailRanges 输出每个电压轨的最小与最大电压（伏特）
func PrintRailRanges(w io.Writer, summary *aggregate.RangeSummary) {
	_, _ = fmt.Fprintf(w, "电压范围（phase：%s，共%d行）\n", strings.Join(summary.Phases, ","), summary.Rows)
	if len(summary.MissingPhases) > 0 {
		_, _ = fmt.Fprintf(w, "以下phase在日志中没有数据：%s\n", strings.Join(summary.MissingPhases, ","))
	}

	table := newTable(w, []string{"rail", "min (V)", "max (V)", "samples", "note"})
	for _, r := range summary.Rails {
		if r.Err != nil {
			table.Append([]string{r.Rail, notAvailable, notAvailable, "0", "没有读数"})
			continue
		}
		table.Append([]string{r.Rail, formatFloat(r.Min, -1), formatFloat(r.Max, -1), strconv.Itoa(r.Samples), ""})
	}
	table.Render()
}

// PrintFrequencyProfile 输出某个phase按频率分组后的归一化平均电压
func PrintFrequencyProfile(w io.Writer, profile *aggregate.FrequencyProfile) {
	_, _ = fmt.Fprintf(w, "%s（按%s分组，各电压轨除以最大平均值）\n", profile.Phase, profile.FrequencyColumn)
	if profile.Err != nil {
		_, _ = fmt.Fprintf(w, "无法计算：%v\n", profile.Err)
		return
	}

	header := append([]string{profile.FrequencyColumn, "samples"}, profile.Rails...)
	table := newTable(w, header)
	for _, g := range profile.Groups {
		record := make([]string, 0, len(header))
		record = append(record, formatFloat(g.Frequency, -1), strconv.Itoa(g.Samples))
		for _, v := range g.Normalized {
			record = append(record, formatFloat(v, 4))
		}
		table.Append(record)
	}
	table.Render()

	for _, err := range profile.RailErrors {
		if err != nil {
			_, _ = fmt.Fprintf(w, "注意：%v\n", err)
		}
	}
}

// PrintRails 输出识别到的电压轨列名
func PrintRails(w io.Writer, rails []string) {
	_, _ = fmt.Fprintf(w, "共识别到%d个电压轨\n", len(rails))
	for _, r := range rails {
		_, _ = fmt.Fprintln(w, r)
	}
}
