package exporter

import (
	"bytes"
	"strings"
)

const bom = "\ufeff"

// Table 按行拼 CSV，开头带 BOM 方便 Excel 识别 UTF-8
type Table struct {
	buf      bytes.Buffer
	quoteAll bool
	newline  string
	rows     int
}

// NewTable 只在需要时加引号，行尾 \n
func NewTable(header ...string) *Table {
	return newTable(false, "\n", header)
}

// NewQuotedTable 每个单元格都加引号
func NewQuotedTable(newline string, header ...string) *Table {
	return newTable(true, newline, header)
}

func newTable(quoteAll bool, newline string, header []string) *Table {
	t := &Table{quoteAll: quoteAll, newline: newline}
	t.buf.WriteString(bom)
	t.Append(header...)
	return t
}

func (t *Table) Append(cells ...string) {
	if t.rows > 0 {
		t.buf.WriteString(t.newline)
	}
	for i, c := range cells {
		if i > 0 {
			t.buf.WriteByte(',')
		}
		if t.quoteAll {
			t.buf.WriteString(quote(c))
		} else {
			t.buf.WriteString(Escape(c))
		}
	}
	t.rows++
}

func (t *Table) Bytes() []byte {
	return t.buf.Bytes()
}

// Escape 含逗号、引号或换行时才加引号
func Escape(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
