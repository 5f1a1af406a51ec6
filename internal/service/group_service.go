package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Member_Registry/internal/exporter"
	"Member_Registry/internal/importer"
	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/gorm"
)

var (
	groupColumns = pkg.ColumnSet("name", "description", "status")

	ErrGroupNameRequired = badRequest("name required")
)

type GroupService struct {
	groups  *sqlstore.GroupRepository
	links   *sqlstore.MemberGroupRepository
	members *sqlstore.MemberRepository
	audit   *AuditLogger
}

func NewGroupService(db *gorm.DB, audit *AuditLogger) *GroupService {
	return &GroupService{
		groups:  &sqlstore.GroupRepository{DB: db},
		links:   &sqlstore.MemberGroupRepository{DB: db},
		members: &sqlstore.MemberRepository{DB: db},
		audit:   audit,
	}
}

type GroupInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

// List member_count 以关联表实时统计为准
func (s *GroupService) List(ctx context.Context) ([]model.WhatsAppGroup, error) {
	list, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.links.CountByGroup(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].MemberCount = counts[list[i].ID]
	}
	return list, nil
}

func (s *GroupService) Get(ctx context.Context, id string) (*model.WhatsAppGroup, error) {
	g, err := s.groups.FindByID(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	return g, err
}

func (s *GroupService) Create(ctx context.Context, actor Actor, in *GroupInput) (*model.WhatsAppGroup, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrGroupNameRequired
	}
	g := &model.WhatsAppGroup{
		ID:          pkg.NewGroupID(time.Now()),
		Name:        name,
		Description: in.Description,
		Status:      in.Status,
	}
	if g.Status == "" {
		g.Status = model.GroupStatusActive
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	s.logGroup(actor, ActionCreateGroup, g.ID, "Grup WhatsApp creat: "+g.Name)
	return g, nil
}

func (s *GroupService) Patch(ctx context.Context, actor Actor, id string, body map[string]any) (*model.WhatsAppGroup, error) {
	cols := pickColumns(body, groupColumns)
	if len(cols) == 0 {
		return nil, ErrNotFoundOrNoChange
	}
	if v, ok := cols["name"].(string); ok {
		if v = strings.TrimSpace(v); v == "" {
			return nil, ErrGroupNameRequired
		}
		cols["name"] = strings.TrimSpace(v)
	}
	n, err := s.groups.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logGroup(actor, ActionUpdateGroup, id, "Grup WhatsApp actualizat: "+g.Name)
	return g, nil
}

func (s *GroupService) Delete(ctx context.Context, actor Actor, id string) error {
	n, err := s.groups.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logGroup(actor, ActionDeleteGroup, id, "Grup WhatsApp șters: "+id)
	return nil
}

// MembershipRequest 三种形式：单个、批量（bulkGroupId）、一个成员进多个群
type MembershipRequest struct {
	MemberID    string   `json:"memberId"`
	GroupID     string   `json:"groupId"`
	Notes       *string  `json:"notes"`
	MemberIDs   []string `json:"memberIds"`
	BulkGroupID string   `json:"bulkGroupId"`
	Mode        string   `json:"mode"`
	GroupIDs    []string `json:"groupIds"`
}

func (s *GroupService) Memberships(ctx context.Context) ([]model.MemberGroup, error) {
	return s.links.List(ctx)
}

// Join 写入成员关系，并记一条 UPDATE_MEMBER 审计
func (s *GroupService) Join(ctx context.Context, actor Actor, req *MembershipRequest) error {
	if err := s.join(ctx, actor, req); err != nil {
		return err
	}
	s.logMembership(actor, "group_member_added", "Membru adăugat în grup WhatsApp", req.MemberID, req.GroupID, req.BulkGroupID, req.MemberIDs, req.GroupIDs)
	return nil
}

func (s *GroupService) join(ctx context.Context, actor Actor, req *MembershipRequest) error {
	addedBy := optString(actor.UserID)
	switch {
	case req.MemberID != "" && req.GroupID != "":
		if err := s.links.Join(ctx, &model.MemberGroup{
			MemberID: req.MemberID, GroupID: req.GroupID, AddedBy: addedBy, Notes: req.Notes,
		}); err != nil {
			return err
		}
		return s.groups.RecountMembers(ctx, req.GroupID)

	case req.MemberIDs != nil && req.BulkGroupID != "":
		if req.Mode == importer.ModeReplace {
			if err := s.links.ClearGroup(ctx, req.BulkGroupID); err != nil {
				return err
			}
		}
		for _, id := range req.MemberIDs {
			if err := s.links.Join(ctx, &model.MemberGroup{MemberID: id, GroupID: req.BulkGroupID, AddedBy: addedBy}); err != nil {
				return err
			}
		}
		return s.groups.RecountMembers(ctx, req.BulkGroupID)

	case req.GroupIDs != nil && req.MemberID != "":
		for _, gid := range req.GroupIDs {
			if err := s.links.Join(ctx, &model.MemberGroup{MemberID: req.MemberID, GroupID: gid, AddedBy: addedBy}); err != nil {
				return err
			}
			if err := s.groups.RecountMembers(ctx, gid); err != nil {
				return err
			}
		}
		return nil
	}
	return ErrBadRequest
}

// Leave 单个 (memberID, groupID) 或同一群组里的一批成员
func (s *GroupService) Leave(ctx context.Context, actor Actor, memberID, groupID, bulkGroupID string, bulkMemberIDs []string) error {
	if err := s.leave(ctx, memberID, groupID, bulkGroupID, bulkMemberIDs); err != nil {
		return err
	}
	s.logMembership(actor, "group_member_removed", "Membru eliminat din grup WhatsApp", memberID, groupID, bulkGroupID, bulkMemberIDs, nil)
	return nil
}

func (s *GroupService) leave(ctx context.Context, memberID, groupID, bulkGroupID string, bulkMemberIDs []string) error {
	switch {
	case memberID != "" && groupID != "":
		if err := s.links.Leave(ctx, memberID, groupID); err != nil {
			return err
		}
		return s.groups.RecountMembers(ctx, groupID)
	case bulkGroupID != "" && bulkMemberIDs != nil:
		for _, id := range bulkMemberIDs {
			if err := s.links.Leave(ctx, id, bulkGroupID); err != nil {
				return err
			}
		}
		return s.groups.RecountMembers(ctx, bulkGroupID)
	}
	return ErrBadRequest
}

type GroupImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ImportMembers replace 模式先清空名单
func (s *GroupService) ImportMembers(ctx context.Context, actor Actor, groupID, text, mode string) (*GroupImportResult, error) {
	if mode == "" {
		mode = importer.ModeMerge
	}
	if mode != importer.ModeMerge && mode != importer.ModeReplace {
		return nil, ErrInvalidMode
	}
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := importer.ParseGroupMembers(text, members)
	if err != nil {
		return nil, badRequest(err.Error())
	}

	if err := s.join(ctx, actor, &MembershipRequest{
		MemberIDs:   parsed.ValidMemberIDs,
		BulkGroupID: groupID,
		Mode:        mode,
	}); err != nil {
		return nil, err
	}

	res := &GroupImportResult{Imported: len(parsed.ValidMemberIDs), Skipped: parsed.Skipped, Errors: parsed.Errors}
	s.audit.Log(AuditEntry{
		ActionType: ActionImportCompleted,
		Module:     ModuleMembers,
		Summary:    fmt.Sprintf("Import membri în grupul %s: %d", g.Name, res.Imported),
		EntityType: "whatsapp_group",
		EntityID:   groupID,
		Metadata:   map[string]any{"mode": mode, "imported": res.Imported, "skipped": res.Skipped},
		Actor:      actor,
	})
	return res, nil
}

func (s *GroupService) ExportMembers(ctx context.Context, actor Actor, groupID string) ([]byte, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	rows, err := s.links.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.MemberID
	}
	list, err := s.members.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]*model.Member, len(list))
	for i := range list {
		idx[list[i].ID] = &list[i]
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionExportCompleted,
		Module:     ModuleMembers,
		Summary:    fmt.Sprintf("Export membri grup %s: %d", groupID, len(rows)),
		EntityType: "whatsapp_group",
		EntityID:   groupID,
		Actor:      actor,
	})
	return exporter.GroupMembers(rows, idx), nil
}

func (s *GroupService) logGroup(actor Actor, action, id, summary string) {
	s.audit.Log(AuditEntry{
		ActionType: action,
		Module:     ModuleMembers,
		Summary:    summary,
		EntityType: "whatsapp_group",
		EntityID:   id,
		Actor:      actor,
	})
}

// logMembership 单个成员记在成员名下，批量操作记在群组名下
func (s *GroupService) logMembership(actor Actor, action, summary, memberID, groupID, bulkGroupID string, memberIDs, groupIDs []string) {
	e := AuditEntry{
		ActionType: ActionUpdateMember,
		Module:     ModuleMembers,
		Metadata:   map[string]any{"action": action},
		Actor:      actor,
	}
	switch {
	case bulkGroupID != "":
		e.EntityType = "whatsapp_group"
		e.EntityID = bulkGroupID
		e.Summary = fmt.Sprintf("%s: %d membri în %s", summary, len(memberIDs), bulkGroupID)
		e.Metadata["groupId"] = bulkGroupID
		e.Metadata["memberIds"] = memberIDs
	case len(groupIDs) > 0:
		e.EntityType = "member"
		e.EntityID = memberID
		e.Summary = fmt.Sprintf("%s: %s", summary, strings.Join(groupIDs, ", "))
		e.Metadata["groupIds"] = groupIDs
	default:
		e.EntityType = "member"
		e.EntityID = memberID
		e.Summary = summary + ": " + groupID
		e.Metadata["groupId"] = groupID
	}
	s.audit.Log(e)
}
