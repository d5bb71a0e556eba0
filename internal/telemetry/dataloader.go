package telemetry

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/packagewjx/rail-analyzer/internal/utils"
	"github.com/packagewjx/rail-analyzer/pkg/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var logger = logrus.WithField("component", "loader")

type DataLoader interface {
	Load(fs afero.Fs, fileName string) (*core.Table, error)
}

type DataFormat string

const (
	CSV = DataFormat("csv")
)

func NewDataLoader(format DataFormat, delimiter rune) DataLoader {
	switch format {
	case CSV:
		if delimiter == 0 {
			delimiter = ','
		}
		return &csvLoader{delimiter: delimiter}
	default:
		return nil
	}
}

type csvLoader struct {
	delimiter rune
}

// 某一列中无法解析的数据，只在读取结束后汇总报告一次
type badCells struct {
	firstRow int
	value    string
	count    int
}

func (c *csvLoader) Load(fs afero.Fs, fileName string) (*core.Table, error) {
	stat, err := fs.Stat(fileName)
	if os.IsNotExist(err) {
		return nil, &core.DataFormatError{Kind: core.FileNotFound, Path: fileName, Err: err}
	} else if err != nil {
		return nil, &core.DataFormatError{Kind: core.FileUnreadable, Path: fileName, Err: err}
	} else if stat.IsDir() {
		return nil, &core.DataFormatError{Kind: core.FileUnreadable, Path: fileName, Detail: "路径是目录"}
	}

	fin, err := fs.Open(fileName)
	if err != nil {
		return nil, &core.DataFormatError{Kind: core.FileUnreadable, Path: fileName, Err: err}
	}
	defer func() {
		_ = fin.Close()
	}()

	counter := &utils.ReadCounter{Reader: fin}
	reader := csv.NewReader(counter)
	reader.Comma = c.delimiter

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &core.DataFormatError{Kind: core.MissingHeader, Path: fileName}
	} else if err != nil {
		return nil, readError(fileName, err)
	}
	header = cleanHeader(header)

	tsIdx, phaseIdx := -1, -1
	fieldIdx := make([]int, 0, len(header))
	fields := make([]string, 0, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		if _, ok := seen[name]; ok {
			return nil, &core.DataFormatError{Kind: core.MalformedValue, Path: fileName, Column: name, Row: 1,
				Detail: "列名重复"}
		}
		seen[name] = struct{}{}

		switch name {
		case core.TimestampColumn:
			tsIdx = i
		case core.PhaseColumn:
			phaseIdx = i
		default:
			fieldIdx = append(fieldIdx, i)
			fields = append(fields, name)
		}
	}
	if tsIdx == -1 {
		return nil, &core.DataFormatError{Kind: core.MissingRequiredColumn, Path: fileName, Column: core.TimestampColumn}
	}
	if phaseIdx == -1 {
		return nil, &core.DataFormatError{Kind: core.MissingRequiredColumn, Path: fileName, Column: core.PhaseColumn}
	}

	table := core.NewTable(header, fields)
	bad := make(map[string]*badCells)

	var record []string
	row := 1
	for record, err = reader.Read(); err == nil; record, err = reader.Read() {
		row++

		tsText := strings.TrimSpace(record[tsIdx])
		ts, perr := strconv.ParseFloat(tsText, 64)
		if perr != nil || math.IsNaN(ts) || math.IsInf(ts, 0) {
			return nil, &core.DataFormatError{Kind: core.MalformedValue, Path: fileName, Column: core.TimestampColumn,
				Row: row, Detail: "时间戳不是数字：" + strconv.Quote(tsText)}
		}

		values := make([]float64, len(fieldIdx))
		for vi, ci := range fieldIdx {
			text := strings.TrimSpace(record[ci])
			if text == "" {
				values[vi] = math.NaN()
				continue
			}
			f, perr := strconv.ParseFloat(text, 64)
			if perr != nil {
				b, ok := bad[fields[vi]]
				if !ok {
					b = &badCells{firstRow: row, value: text}
					bad[fields[vi]] = b
				}
				b.count++
				f = math.NaN()
			}
			values[vi] = f
		}

		table.Samples = append(table.Samples, &core.Sample{
			Timestamp: ts,
			Phase:     strings.TrimSpace(record[phaseIdx]),
			Values:    values,
		})
	}

	if err != io.EOF {
		return nil, readError(fileName, err)
	}

	for _, name := range fields {
		if b, ok := bad[name]; ok {
			logger.Warnf("列%s有%d个数据无法解析，按缺失值处理。第一个位于第%d行，数据为[%s]",
				name, b.count, b.firstRow, b.value)
		}
	}

	if table.Len() == 0 {
		return nil, &core.DataFormatError{Kind: core.NoSamples, Path: fileName, Detail: "文件只有表头"}
	}

	logger.Infof("读取%s完成，共%d行%d列，%d字节", fileName, table.Len(), len(header), counter.Count)
	return table, nil
}

// ReadHeader 只读取表头，用于在不加载数据的情况下查看列名
func ReadHeader(fs afero.Fs, fileName string, delimiter rune) ([]string, error) {
	fin, err := fs.Open(fileName)
	if os.IsNotExist(err) {
		return nil, &core.DataFormatError{Kind: core.FileNotFound, Path: fileName, Err: err}
	} else if err != nil {
		return nil, &core.DataFormatError{Kind: core.FileUnreadable, Path: fileName, Err: err}
	}
	defer func() {
		_ = fin.Close()
	}()

	reader := csv.NewReader(fin)
	reader.Comma = delimiter
	header, err := reader.Read()
	if err == io.EOF {
		return nil, &core.DataFormatError{Kind: core.MissingHeader, Path: fileName}
	} else if err != nil {
		return nil, readError(fileName, err)
	}
	return cleanHeader(header), nil
}

func readError(fileName string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &core.DataFormatError{Kind: core.MalformedValue, Path: fileName, Row: parseErr.Line, Err: parseErr.Err}
	}
	return &core.DataFormatError{Kind: core.FileUnreadable, Path: fileName, Err: err}
}

func cleanHeader(header []string) []string {
	result := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		result[i] = strings.TrimSpace(h)
	}
	return result
}
