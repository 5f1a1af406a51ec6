package pkg

import (
	"sort"

	"github.com/serenize/snaker"
)

// PatchColumns 把驼峰请求字段映射到蛇形列名，只保留白名单里的列
func PatchColumns(body map[string]any, allowed map[string]bool) map[string]any {
	cols := make(map[string]any, len(body))
	for key, val := range body {
		col := snaker.CamelToSnake(key)
		if !allowed[col] {
			continue
		}
		cols[col] = val
	}
	return cols
}

func ColumnSet(cols ...string) map[string]bool {
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c] = true
	}
	return set
}

func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
