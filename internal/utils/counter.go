package utils

import "io"

// ReadCounter 统计读取的字节数
type ReadCounter struct {
	Count  uint64
	Reader io.Reader
}

func (r *ReadCounter) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	r.Count += uint64(n)
	return
}

// WriteCounter 统计写入的字节数
type WriteCounter struct {
	Count  uint64
	Writer io.Writer
}

func (w *WriteCounter) Write(p []byte) (n int, err error) {
	n, err = w.Writer.Write(p)
	w.Count += uint64(n)
	return
}
