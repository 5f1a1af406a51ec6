package pkg

import (
	"strings"
	"unicode/utf8"
)

// MaskCNP 只保留后三位
func MaskCNP(cnp string) string {
	return maskTail(cnp)
}

func MaskPhone(phone string) string {
	return maskTail(phone)
}

// MaskEmail 只保留第一个 @ 后面的域名，没有域名时用 ***
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) < 2 || parts[1] == "" {
		return "***@***"
	}
	return "***@" + parts[1]
}

// maskTail 不足三个字符时整段保留
func maskTail(s string) string {
	if s == "" {
		return ""
	}
	n := utf8.RuneCountInString(s)
	if n <= 3 {
		return "***" + s
	}
	r := []rune(s)
	return "***" + string(r[n-3:])
}

// MaskSensitive 递归处理 cnp / phone / email 字段
func MaskSensitive(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			s, isStr := val.(string)
			switch strings.ToLower(k) {
			case "cnp":
				if isStr {
					out[k] = MaskCNP(s)
					continue
				}
			case "phone", "telefon":
				if isStr {
					out[k] = MaskPhone(s)
					continue
				}
			case "email":
				if isStr {
					out[k] = MaskEmail(s)
					continue
				}
			}
			out[k] = MaskSensitive(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = MaskSensitive(val)
		}
		return out
	default:
		return v
	}
}
