package importer

import (
	"fmt"
	"strings"

	"Member_Registry/internal/model"
)

type GroupMembersImport struct {
	ValidMemberIDs []string `json:"validMemberIds"`
	Errors         []string `json:"errors"`
	Skipped        int      `json:"skipped"`
}

// ParseGroupMembers 第一列是 member id 或会员编号；首行包含 member 时视为表头
func ParseGroupMembers(text string, members []model.Member) (*GroupMembersImport, error) {
	records, err := ReadRecords(text, DetectDelimiter(text))
	if err != nil {
		return nil, err
	}
	res := &GroupMembersImport{ValidMemberIDs: []string{}, Errors: []string{}}
	if len(records) == 0 {
		return res, nil
	}

	start := 0
	if strings.Contains(strings.ToLower(strings.Join(records[0], ",")), "member") {
		start = 1
	}

	byKey := make(map[string]string, len(members)*2)
	for _, m := range members {
		byKey[m.ID] = m.ID
		if _, ok := byKey[m.MemberCode]; !ok && m.MemberCode != "" {
			byKey[m.MemberCode] = m.ID
		}
	}

	seen := make(map[string]bool)
	for i := start; i < len(records); i++ {
		row := i + 1
		key := strings.Trim(cell(records[i], 0), `"'`)
		if key == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("Rând %d: Lipsește member_id", row))
			continue
		}
		id, ok := byKey[key]
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("Rând %d: Membru %s nu există", row, key))
			res.Skipped++
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		res.ValidMemberIDs = append(res.ValidMemberIDs, id)
	}
	return res, nil
}
