package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"Member_Registry/internal/model"
)

var (
	ErrMissingTypeColumn = errors.New("Lipsește coloana obligatorie 'type' sau 'tip'")
	ErrMissingDateColumn = errors.New("Lipsește coloana obligatorie 'date' sau 'data'")
)

var (
	dottedDate = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`)
	isoDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// RowError 行级错误，row 为文件中的行号
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ActivityDraft struct {
	Row      int
	TypeID   uint64
	Title    string
	DateFrom string
	Location string
}

type ActivityImport struct {
	Activities []ActivityDraft
	Errors     []RowError
	Skipped    int
}

// ParseActivityDate 只接受 D.M.YYYY（日月一到两位）或 ISO YYYY-MM-DD，返回 ISO 日期
func ParseActivityDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch {
	case dottedDate.MatchString(s):
		t, err := time.Parse("2.1.2006", s)
		if err != nil {
			return "", false
		}
		return t.Format(time.DateOnly), true
	case isoDate.MatchString(s):
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return "", false
		}
		return t.Format(time.DateOnly), true
	}
	return "", false
}

// ParseActivities 类型必须在字典里（名称不区分大小写完全匹配），日期必须合法；
// 不合格的行直接拒绝，不做默认值填充
func ParseActivities(text string, types []model.ActivityType) (*ActivityImport, error) {
	records, err := ReadRecords(text, ',')
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("Fișierul CSV este gol")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = normalizeHeader(h)
	}
	typeIdx := indexOf(header, "type", "tip")
	titleIdx := indexOf(header, "title", "titlu")
	dateIdx := indexOf(header, "date", "data", "dată")
	locationIdx := indexOf(header, "location", "locatie", "locație")
	if typeIdx == -1 {
		return nil, ErrMissingTypeColumn
	}
	if dateIdx == -1 {
		return nil, ErrMissingDateColumn
	}

	byName := make(map[string]uint64, len(types))
	for _, t := range types {
		key := strings.ToLower(strings.TrimSpace(t.Name))
		if _, ok := byName[key]; !ok {
			byName[key] = t.ID
		}
	}

	res := &ActivityImport{Activities: []ActivityDraft{}, Errors: []RowError{}}
	for i, rec := range records[1:] {
		row := i + 2
		typeName := cell(rec, typeIdx)
		dateStr := cell(rec, dateIdx)

		if typeName == "" {
			res.reject(row, "type", "Tipul activității este obligatoriu")
			continue
		}
		typeID, ok := byName[strings.ToLower(typeName)]
		if !ok {
			res.reject(row, "type", fmt.Sprintf("Tipul %q nu a fost găsit în dicționar", typeName))
			continue
		}
		if dateStr == "" {
			res.reject(row, "date", "Data este obligatorie")
			continue
		}
		date, ok := ParseActivityDate(dateStr)
		if !ok {
			res.reject(row, "date", fmt.Sprintf("Data %q nu este validă. Folosiți formatul DD.MM.YYYY", dateStr))
			continue
		}

		res.Activities = append(res.Activities, ActivityDraft{
			Row:      row,
			TypeID:   typeID,
			Title:    cell(rec, titleIdx),
			DateFrom: date,
			Location: cell(rec, locationIdx),
		})
	}
	return res, nil
}

func (r *ActivityImport) reject(row int, field, msg string) {
	r.Errors = append(r.Errors, RowError{Row: row, Field: field, Message: msg})
	r.Skipped++
}

// indexOf 表头完全匹配
func indexOf(header []string, names ...string) int {
	for i, h := range header {
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}
