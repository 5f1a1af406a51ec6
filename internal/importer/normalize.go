package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize 小写、去变音符号、去首尾空白
func Normalize(s string) string {
	s = norm.NFD.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// collapseSpaces 合并连续空白，用于字典名称比较
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
