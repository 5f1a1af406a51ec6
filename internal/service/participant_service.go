package service

import (
	"context"
	"fmt"
	"log/slog"

	"Member_Registry/internal/exporter"
	"Member_Registry/internal/importer"
	"Member_Registry/internal/model"
)

var ErrMemberIDsRequired = badRequest("memberIds array required")

// ParticipantPatch 只有出现的字段才会更新
type ParticipantPatch struct {
	MemberID string  `json:"memberId"`
	Status   *string `json:"status"`
	Note     *string `json:"note"`
}

type ParticipantImportResult struct {
	Added   int                          `json:"added"`
	Preview *importer.ParticipantPreview `json:"preview"`
}

func (s *ActivityService) Participants(ctx context.Context, activityID string) ([]model.ActivityParticipant, error) {
	return s.participants.ListByActivity(ctx, activityID)
}

func (s *ActivityService) AllParticipants(ctx context.Context) ([]model.ActivityParticipant, error) {
	return s.participants.ListAll(ctx)
}

// AddParticipants 已存在的参与者跳过，返回新增数量；最后回写 participants_count
func (s *ActivityService) AddParticipants(ctx context.Context, actor Actor, activityID string, memberIDs []string) (int, error) {
	if len(memberIDs) == 0 {
		return 0, ErrMemberIDsRequired
	}
	if _, err := s.Get(ctx, activityID); err != nil {
		return 0, err
	}

	added := 0
	for _, id := range memberIDs {
		ok, err := s.participants.Add(ctx, &model.ActivityParticipant{
			ActivityID: activityID,
			MemberID:   id,
			Status:     model.ParticipantAttended,
		})
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	if err := s.activities.RecountParticipants(ctx, activityID); err != nil {
		return added, err
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionAddParticipants,
		Module:     ModuleActivities,
		Summary:    fmt.Sprintf("%d participanți adăugați la %s", added, activityID),
		EntityType: "activity",
		EntityID:   activityID,
		EntityCode: activityID,
		Metadata:   map[string]any{"memberIds": memberIDs, "added": added},
		Actor:      actor,
	})
	return added, nil
}

func (s *ActivityService) UpdateParticipant(ctx context.Context, actor Actor, activityID string, p *ParticipantPatch) error {
	if p.MemberID == "" {
		return ErrMemberIDRequired
	}
	cols := map[string]any{}
	if p.Status != nil {
		switch *p.Status {
		case model.ParticipantAttended, model.ParticipantInvited, model.ParticipantOrganizer:
		default:
			return badRequest("Invalid status")
		}
		cols["status"] = *p.Status
	}
	if p.Note != nil {
		cols["note"] = *p.Note
	}
	if len(cols) == 0 {
		return nil
	}

	n, err := s.participants.Update(ctx, activityID, p.MemberID, cols)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateActivity,
		Module:     ModuleActivities,
		Summary:    fmt.Sprintf("Participant actualizat la %s", activityID),
		EntityType: "activity_participant",
		EntityID:   p.MemberID,
		EntityCode: activityID,
		Metadata:   cols,
		Actor:      actor,
	})
	return nil
}

func (s *ActivityService) RemoveParticipant(ctx context.Context, actor Actor, activityID, memberID string) error {
	if memberID == "" {
		return ErrMemberIDRequired
	}
	n, err := s.participants.Remove(ctx, activityID, memberID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := s.activities.RecountParticipants(ctx, activityID); err != nil {
		return err
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionRemoveParticipants,
		Module:     ModuleActivities,
		Summary:    fmt.Sprintf("Participant eliminat din %s", activityID),
		EntityType: "activity",
		EntityID:   activityID,
		EntityCode: activityID,
		Metadata:   map[string]any{"memberId": memberID},
		Actor:      actor,
	})
	return nil
}

// PreviewParticipants 只分类，不写库
func (s *ActivityService) PreviewParticipants(ctx context.Context, activityID, text string) (*importer.ParticipantPreview, error) {
	if _, err := s.Get(ctx, activityID); err != nil {
		return nil, err
	}
	rows, err := importer.ParseParticipants(text)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.participants.MemberIDs(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return importer.ClassifyParticipants(rows, members, existing), nil
}

// ImportParticipants 只插入 valid 桶，角色列决定参与状态
func (s *ActivityService) ImportParticipants(ctx context.Context, actor Actor, activityID, text string) (*ParticipantImportResult, error) {
	preview, err := s.PreviewParticipants(ctx, activityID, text)
	if err != nil {
		return nil, err
	}

	res := &ParticipantImportResult{Preview: preview}
	for _, row := range preview.Valid {
		p := &model.ActivityParticipant{
			ActivityID: activityID,
			MemberID:   row.MatchedMemberID,
			Status:     importer.ParticipantStatusFromRole(row.Role),
			Note:       optString(row.Notes),
		}
		ok, err := s.participants.Add(ctx, p)
		if err != nil {
			slog.Error("participant import insert failed", "activity", activityID, "row", row.RowNumber, "error", err)
			if rerr := s.activities.RecountParticipants(ctx, activityID); rerr != nil {
				slog.Error("recount after failed import", "activity", activityID, "error", rerr)
			}
			return nil, err
		}
		if ok {
			res.Added++
		}
	}
	if err := s.activities.RecountParticipants(ctx, activityID); err != nil {
		return nil, err
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionImportCompleted,
		Module:     ModuleActivities,
		Summary:    fmt.Sprintf("Import participanți %s: %d adăugați", activityID, res.Added),
		EntityType: "activity",
		EntityID:   activityID,
		EntityCode: activityID,
		Metadata: map[string]any{
			"added":      res.Added,
			"duplicates": len(preview.Duplicates),
			"missing":    len(preview.Missing),
		},
		Actor: actor,
	})
	return res, nil
}

func (s *ActivityService) ExportParticipants(ctx context.Context, actor Actor, activityID string) ([]byte, error) {
	a, err := s.Get(ctx, activityID)
	if err != nil {
		return nil, err
	}
	list, err := s.participants.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	members, err := s.memberIndex(ctx)
	if err != nil {
		return nil, err
	}

	out := exporter.Participants(a, s.typeName(ctx, a), list, members)
	s.audit.Log(AuditEntry{
		ActionType: ActionExportCompleted,
		Module:     ModuleActivities,
		Summary:    fmt.Sprintf("Export participanți %s: %d", activityID, len(list)),
		EntityType: "activity",
		EntityID:   activityID,
		EntityCode: activityID,
		Actor:      actor,
	})
	return out, nil
}
