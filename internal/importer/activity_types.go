package importer

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"Member_Registry/internal/model"
)

const (
	ModeMerge   = "merge"
	ModeReplace = "replace"
)

var ErrMissingNameColumn = errors.New("Lipsește coloana obligatorie 'name' sau 'nume'")

type TypeRow struct {
	Row      int
	ID       string
	Name     string
	Category string
	IsActive bool
}

// TypePlan 需要执行的更新和新增
type TypePlan struct {
	Updates []TypeUpdate
	Inserts []TypeRow
	Errors  []RowError
	Skipped int
}

type TypeUpdate struct {
	ID  uint64
	Row TypeRow
}

func parseActiveFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "da", "true", "1", "yes":
		return true
	}
	return false
}

// ParseActivityTypesCSV 表头 name|nume|denumire 必填，id、category、isActive 可选
func ParseActivityTypesCSV(text string) ([]TypeRow, []RowError, error) {
	records, err := ReadRecords(text, ',')
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.New("Fișierul CSV este gol")
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = normalizeHeader(h)
	}
	nameIdx := indexOf(header, "name", "nume", "denumire")
	idIdx := indexOf(header, "id")
	categoryIdx := indexOf(header, "category", "categorie")
	activeIdx := indexOf(header, "isactive", "activ", "is_active")
	if nameIdx == -1 {
		return nil, nil, ErrMissingNameColumn
	}

	var rows []TypeRow
	var errs []RowError
	for i, rec := range records[1:] {
		row := i + 2
		name := cell(rec, nameIdx)
		if name == "" {
			errs = append(errs, RowError{Row: row, Field: "name", Message: "Numele este obligatoriu"})
			continue
		}
		active := true
		if v := cell(rec, activeIdx); v != "" {
			active = parseActiveFlag(v)
		}
		rows = append(rows, TypeRow{
			Row:      row,
			ID:       cell(rec, idIdx),
			Name:     name,
			Category: cell(rec, categoryIdx),
			IsActive: active,
		})
	}
	return rows, errs, nil
}

type typeJSON struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	IsActive *bool           `json:"isActive"`
}

// ParseActivityTypesJSON 接受导出格式的 JSON 数组
func ParseActivityTypesJSON(data []byte) ([]TypeRow, []RowError, error) {
	var items []typeJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, err
	}
	var rows []TypeRow
	var errs []RowError
	for i, it := range items {
		row := i + 1
		name := strings.TrimSpace(it.Name)
		if name == "" {
			errs = append(errs, RowError{Row: row, Field: "name", Message: "Numele este obligatoriu"})
			continue
		}
		active := true
		if it.IsActive != nil {
			active = *it.IsActive
		}
		rows = append(rows, TypeRow{
			Row:      row,
			ID:       strings.Trim(string(it.ID), `"`),
			Name:     name,
			Category: strings.TrimSpace(it.Category),
			IsActive: active,
		})
	}
	return rows, errs, nil
}

// PlanActivityTypes merge 模式按 id、再按规范化名称匹配已有类型，否则新增；
// replace 模式同样 upsert，调用方再停用文件之外的类型
func PlanActivityTypes(rows []TypeRow, existing []model.ActivityType) *TypePlan {
	plan := &TypePlan{}
	byID := make(map[uint64]bool, len(existing))
	byName := make(map[string]uint64, len(existing))
	for _, t := range existing {
		byID[t.ID] = true
		key := collapseSpaces(t.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = t.ID
		}
	}

	touched := make(map[uint64]bool)
	for _, r := range rows {
		if id, err := strconv.ParseUint(r.ID, 10, 64); err == nil && byID[id] && !touched[id] {
			touched[id] = true
			plan.Updates = append(plan.Updates, TypeUpdate{ID: id, Row: r})
			continue
		}
		if id, ok := byName[collapseSpaces(r.Name)]; ok && !touched[id] {
			touched[id] = true
			plan.Updates = append(plan.Updates, TypeUpdate{ID: id, Row: r})
			continue
		}
		plan.Inserts = append(plan.Inserts, r)
	}
	return plan
}
