package importer

import (
	"errors"
	"strings"

	"Member_Registry/internal/model"
)

var ErrNoMemberColumn = errors.New("CSV-ul trebuie să conțină coloana 'member_code', 'member_id' sau 'nume'")

// ParticipantColumns 表头里各语义列的下标，-1 表示没有
type ParticipantColumns struct {
	MemberCode int
	MemberID   int
	MemberName int
	Role       int
	Notes      int
}

type ParticipantRow struct {
	RowNumber       int    `json:"rowNumber"`
	MemberCode      string `json:"member_code,omitempty"`
	MemberID        string `json:"member_id,omitempty"`
	MemberName      string `json:"member_name,omitempty"`
	Role            string `json:"role,omitempty"`
	Notes           string `json:"notes,omitempty"`
	MatchedMemberID string `json:"matchedMemberId,omitempty"`
}

type ParticipantPreview struct {
	Valid      []ParticipantRow `json:"valid"`
	Duplicates []ParticipantRow `json:"duplicates"`
	Missing    []ParticipantRow `json:"missing"`
}

// LocateParticipantColumns 表头按子串匹配，不区分大小写
func LocateParticipantColumns(header []string) (ParticipantColumns, error) {
	cols := ParticipantColumns{MemberCode: -1, MemberID: -1, MemberName: -1, Role: -1, Notes: -1}
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}

	cols.MemberCode = findColumn(norm, nil, "member_code", "cod_membru", "cod membru")
	cols.MemberID = findColumn(norm, nil, "member_id")
	// 名字列不能占用已经识别为编号/ID 的列，例如 cod_membru 里也有 membru
	claimed := map[int]bool{cols.MemberCode: true, cols.MemberID: true}
	cols.MemberName = findColumn(norm, claimed, "nume", "name", "membru")
	claimed[cols.MemberName] = true
	cols.Role = findColumn(norm, claimed, "role", "rol")
	claimed[cols.Role] = true
	cols.Notes = findColumn(norm, claimed, "note", "observatii")

	if cols.MemberCode == -1 && cols.MemberID == -1 && cols.MemberName == -1 {
		return cols, ErrNoMemberColumn
	}
	return cols, nil
}

func findColumn(header []string, skip map[int]bool, needles ...string) int {
	for i, h := range header {
		if skip[i] {
			continue
		}
		for _, n := range needles {
			if strings.Contains(h, n) {
				return i
			}
		}
	}
	return -1
}

// ParseParticipants 解析 CSV 文本为参与者行；行号从 2 开始（表头为 1）
func ParseParticipants(text string) ([]ParticipantRow, error) {
	if len(splitLines(text)) == 0 {
		return nil, ErrEmptyFile
	}
	records, err := ReadRecords(text, DetectDelimiter(text))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	cols, err := LocateParticipantColumns(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]ParticipantRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		rows = append(rows, ParticipantRow{
			RowNumber:  i + 2,
			MemberCode: cell(rec, cols.MemberCode),
			MemberID:   cell(rec, cols.MemberID),
			MemberName: cell(rec, cols.MemberName),
			Role:       cell(rec, cols.Role),
			Notes:      cell(rec, cols.Notes),
		})
	}
	return rows, nil
}

// MatchMember 优先 member_id，其次 member_code，最后按姓名模糊匹配；多个命中取第一个
func MatchMember(members []model.Member, row ParticipantRow) *model.Member {
	if row.MemberID != "" {
		for i := range members {
			if members[i].ID == row.MemberID {
				return &members[i]
			}
		}
	}
	if row.MemberCode != "" {
		for i := range members {
			if members[i].MemberCode == row.MemberCode {
				return &members[i]
			}
		}
	}
	if row.MemberName != "" {
		search := Normalize(row.MemberName)
		if search == "" {
			return nil
		}
		for i := range members {
			if nameMatches(&members[i], search) {
				return &members[i]
			}
		}
	}
	return nil
}

func nameMatches(m *model.Member, search string) bool {
	full := Normalize(m.LastName + " " + m.FirstName)
	reverse := Normalize(m.FirstName + " " + m.LastName)
	if full == "" {
		return false
	}
	return strings.Contains(full, search) || strings.Contains(reverse, search) ||
		strings.Contains(search, full) || strings.Contains(search, reverse)
}

// ClassifyParticipants 每一行只进一个桶：valid / duplicate / missing。
// existing 是活动已有参与者；同一文件里重复出现的成员也算 duplicate。
func ClassifyParticipants(rows []ParticipantRow, members []model.Member, existing map[string]bool) *ParticipantPreview {
	preview := &ParticipantPreview{
		Valid:      []ParticipantRow{},
		Duplicates: []ParticipantRow{},
		Missing:    []ParticipantRow{},
	}
	accepted := make(map[string]bool)

	for _, row := range rows {
		m := MatchMember(members, row)
		if m == nil {
			preview.Missing = append(preview.Missing, row)
			continue
		}
		row.MatchedMemberID = m.ID
		if existing[m.ID] || accepted[m.ID] {
			preview.Duplicates = append(preview.Duplicates, row)
			continue
		}
		accepted[m.ID] = true
		preview.Valid = append(preview.Valid, row)
	}
	return preview
}

// ParticipantStatusFromRole 角色列映射到参与状态，默认 attended
func ParticipantStatusFromRole(role string) string {
	switch Normalize(role) {
	case "organizer", "organizator", "organizatoare":
		return model.ParticipantOrganizer
	case "invited", "invitat", "invitata":
		return model.ParticipantInvited
	default:
		return model.ParticipantAttended
	}
}
