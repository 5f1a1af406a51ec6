package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

var ErrEmptyFile = errors.New("Fișier gol")

const bom = "\ufeff"

// DetectDelimiter 表头含分号就按分号，否则按逗号
func DetectDelimiter(text string) rune {
	for _, line := range splitLines(text) {
		if strings.Contains(line, ";") {
			return ';'
		}
		return ','
	}
	return ','
}

// ReadRecords 读取全部记录，单元格去空白。只跳过空白行；",,," 这种单元格全空的行保留，行号照常计算
func ReadRecords(text string, delimiter rune) ([][]string, error) {
	text = strings.TrimPrefix(text, bom)
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// cell 越界时返回空串
func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func splitLines(text string) []string {
	text = strings.TrimPrefix(text, bom)
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, bom)
	h = strings.TrimSpace(h)
	h = strings.Trim(h, `"`)
	return strings.ToLower(strings.TrimSpace(h))
}

// blankRecord 所有单元格都为空
func blankRecord(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}
