package exporter

import (
	"strconv"
	"time"

	"Member_Registry/internal/model"
)

// ActivityData 导出活动时需要的查表数据
type ActivityData struct {
	TypeNames    map[uint64]string
	Participants map[string][]model.ActivityParticipant
	Members      map[string]*model.Member
}

func (d *ActivityData) typeName(a *model.Activity) string {
	if a.TypeID == nil {
		return ""
	}
	return d.TypeNames[*a.TypeID]
}

func (d *ActivityData) memberName(id string) string {
	if m, ok := d.Members[id]; ok {
		return m.FullName()
	}
	return ""
}

func Activities(activities []model.Activity, d *ActivityData) []byte {
	t := NewTable("code", "type", "title", "date", "location", "participantsCount")
	for i := range activities {
		a := &activities[i]
		t.Append(
			a.ID,
			d.typeName(a),
			deref(a.Title),
			FormatDate(deref(a.DateFrom)),
			deref(a.Location),
			strconv.Itoa(len(d.Participants[a.ID])),
		)
	}
	return t.Bytes()
}

// ActivitiesWithParticipants 每个参与者一行；没有参与者的活动也输出一行
func ActivitiesWithParticipants(activities []model.Activity, d *ActivityData) []byte {
	t := NewTable("activityCode", "activityType", "activityTitle", "activityDate",
		"activityLocation", "memberId", "memberName", "participantStatus")
	for i := range activities {
		a := &activities[i]
		base := []string{a.ID, d.typeName(a), deref(a.Title), FormatDate(deref(a.DateFrom)), deref(a.Location)}
		ps := d.Participants[a.ID]
		if len(ps) == 0 {
			t.Append(append(base, "", "", "")...)
			continue
		}
		for _, p := range ps {
			row := append(append([]string(nil), base...), p.MemberID, d.memberName(p.MemberID), p.Status)
			t.Append(row...)
		}
	}
	return t.Bytes()
}

func participantRole(status string) string {
	switch status {
	case model.ParticipantAttended:
		return "Participant"
	case model.ParticipantOrganizer:
		return "Organizator"
	default:
		return "Invitat"
	}
}

// Participants 单个活动的参与者名单
func Participants(a *model.Activity, typeName string, participants []model.ActivityParticipant, members map[string]*model.Member) []byte {
	t := NewQuotedTable("\r\n", "activity_code", "activity_title", "activity_date", "member_code",
		"last_name", "first_name", "rank", "um", "role", "added_at")
	title := deref(a.Title)
	if title == "" {
		title = typeName
	}
	for _, p := range participants {
		m := members[p.MemberID]
		if m == nil {
			m = &model.Member{}
		}
		t.Append(
			a.ID,
			title,
			deref(a.DateFrom),
			m.MemberCode,
			m.LastName,
			m.FirstName,
			m.Rank,
			m.Unit,
			participantRole(p.Status),
			formatTime(p.CreatedAt),
		)
	}
	return t.Bytes()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}
