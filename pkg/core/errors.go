package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	FileNotFound           = ErrorKind("FileNotFound")
	FileUnreadable         = ErrorKind("FileUnreadable")
	MissingHeader          = ErrorKind("MissingHeader")
	MissingRequiredColumn  = ErrorKind("MissingRequiredColumn")
	MalformedValue         = ErrorKind("MalformedValue")
	NoSamples              = ErrorKind("NoSamples")
	NoRailColumnsFound     = ErrorKind("NoRailColumnsFound")
	EmptyAggregationSubset = ErrorKind("EmptyAggregationSubset")
	UnknownRailReference   = ErrorKind("UnknownRailReference")
)

// DataFormatError 输入数据与分析所需的结构不符
type DataFormatError struct {
	Kind   ErrorKind
	Path   string
	Column string
	Row    int // 从1开始，0表示与具体行无关
	Detail string
	Err    error
}

func (e *DataFormatError) Error() string {
	b := &strings.Builder{}
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		_, _ = fmt.Fprintf(b, " 文件=%s", e.Path)
	}
	if e.Column != "" {
		_, _ = fmt.Fprintf(b, " 列=%s", e.Column)
	}
	if e.Row > 0 {
		_, _ = fmt.Fprintf(b, " 行=%d", e.Row)
	}
	if e.Detail != "" {
		b.WriteString("：")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString("：")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

// IsKind 判断错误链中是否存在指定类型的DataFormatError
func IsKind(err error, kind ErrorKind) bool {
	var dfe *DataFormatError
	if errors.As(err, &dfe) {
		return dfe.Kind == kind
	}
	return false
}
