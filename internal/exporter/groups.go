package exporter

import (
	"Member_Registry/internal/model"
)

func GroupMembers(rows []model.MemberGroup, members map[string]*model.Member) []byte {
	t := NewQuotedTable("\n", "member_id", "member_code", "name", "rank", "unit", "status", "joined_at")
	for _, r := range rows {
		m, ok := members[r.MemberID]
		if !ok {
			continue
		}
		status := m.Status
		if status == "" {
			status = model.MemberStatusActive
		}
		joined := ""
		if !r.JoinedAt.IsZero() {
			joined = r.JoinedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		t.Append(m.ID, m.MemberCode, m.FirstName+" "+m.LastName, m.Rank, m.Unit, status, joined)
	}
	return t.Bytes()
}
