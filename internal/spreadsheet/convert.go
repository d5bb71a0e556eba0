package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/packagewjx/rail-analyzer/internal/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

var logger = logrus.WithField("component", "spreadsheet")

const maxSheetNameLength = 31

const defaultSheet = "Sheet1"

// ExpandPatterns 展开glob模式，按文件名排序并去重
func ExpandPatterns(fs afero.Fs, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		matches, err := afero.Glob(fs, pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "文件模式%s有误", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files, nil
}

// ConvertCSV 将匹配patterns的每个CSV文件写入output中的一个工作表，工作表以文件名命名
func ConvertCSV(fs afero.Fs, patterns []string, output string, delimiter rune) error {
	files, err := ExpandPatterns(fs, patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("没有匹配%s的文件", strings.Join(patterns, ","))
	}
	return WriteWorkbook(fs, files, output, delimiter)
}

// WriteWorkbook 每个文件对应一个工作表，全部写入output
func WriteWorkbook(fs afero.Fs, files []string, output string, delimiter rune) error {
	if len(files) == 0 {
		return fmt.Errorf("没有需要转换的文件")
	}
	if delimiter == 0 {
		delimiter = ','
	}

	var err error
	book := excelize.NewFile()
	defer func() {
		_ = book.Close()
	}()

	used := make(map[string]struct{}, len(files))
	for i, file := range files {
		sheet := sheetName(file, used)
		if i == 0 {
			err = book.SetSheetName(defaultSheet, sheet)
		} else {
			_, err = book.NewSheet(sheet)
		}
		if err != nil {
			return errors.Wrapf(err, "创建工作表%s失败", sheet)
		}

		rows, err := copySheet(fs, file, delimiter, book, sheet)
		if err != nil {
			return err
		}
		logger.Debugf("%s写入工作表%s，共%d行", file, sheet, rows)
	}
	book.SetActiveSheet(0)

	if dir := filepath.Dir(output); dir != "" {
		if err = fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "创建目录%s失败", dir)
		}
	}
	fout, err := fs.Create(output)
	if err != nil {
		return errors.Wrapf(err, "创建%s失败", output)
	}
	counter := &utils.WriteCounter{Writer: fout}
	if err = book.Write(counter); err != nil {
		_ = fout.Close()
		return errors.Wrapf(err, "写入%s失败", output)
	}
	if err = fout.Close(); err != nil {
		return errors.Wrapf(err, "关闭%s失败", output)
	}

	logger.Infof("已将%d个CSV文件转换为%s，%d字节", len(files), output, counter.Count)
	return nil
}

func copySheet(fs afero.Fs, file string, delimiter rune, book *excelize.File, sheet string) (int, error) {
	fin, err := fs.Open(file)
	if err != nil {
		return 0, errors.Wrapf(err, "打开%s失败", file)
	}
	defer func() {
		_ = fin.Close()
	}()

	reader := csv.NewReader(fin)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var record []string
	rows := 0
	for record, err = reader.Read(); err == nil; record, err = reader.Read() {
		rows++
		cell, cerr := excelize.CoordinatesToCellName(1, rows)
		if cerr != nil {
			return rows, errors.Wrap(cerr, "计算单元格位置失败")
		}
		values := toCells(record)
		if err = book.SetSheetRow(sheet, cell, &values); err != nil {
			return rows, errors.Wrapf(err, "写入%s第%d行失败", file, rows)
		}
	}
	if err != io.EOF {
		return rows, errors.Wrapf(err, "读取%s失败", file)
	}
	return rows, nil
}

// toCells 数字按数值写入，其余保留为文本
func toCells(record []string) []interface{} {
	cells := make([]interface{}, len(record))
	for i, text := range record {
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			cells[i] = f
			continue
		}
		cells[i] = text
	}
	return cells
}

// sheetName 文件名去掉扩展名，去除Excel不允许的字符，截断到31个字符，并保证不重名
func sheetName(file string, used map[string]struct{}) string {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, base)
	base = strings.Trim(base, "'")
	if base == "" {
		base = "sheet"
	}

	name := truncate(base, maxSheetNameLength)
	for i := 2; ; i++ {
		if _, ok := used[strings.ToLower(name)]; !ok {
			break
		}
		suffix := fmt.Sprintf("_%d", i)
		name = truncate(base, maxSheetNameLength-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = struct{}{}
	return name
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
