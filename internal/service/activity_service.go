package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"Member_Registry/internal/exporter"
	"Member_Registry/internal/importer"
	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/gorm"
)

var activityColumns = pkg.ColumnSet("type_id", "title", "date_from", "date_to", "location", "notes", "status")

type ActivityService struct {
	activities   *sqlstore.ActivityRepository
	participants *sqlstore.ParticipantRepository
	types        *sqlstore.ActivityTypeRepository
	members      *sqlstore.MemberRepository
	seq          *sqlstore.SequenceRepository
	audit        *AuditLogger
}

func NewActivityService(db *gorm.DB, audit *AuditLogger) *ActivityService {
	return &ActivityService{
		activities:   &sqlstore.ActivityRepository{DB: db},
		participants: &sqlstore.ParticipantRepository{DB: db},
		types:        &sqlstore.ActivityTypeRepository{DB: db},
		members:      &sqlstore.MemberRepository{DB: db},
		seq:          &sqlstore.SequenceRepository{DB: db},
		audit:        audit,
	}
}

// ActivityInput type_id 可能是数字也可能是字符串
type ActivityInput struct {
	TypeID   any     `json:"type_id"`
	Title    *string `json:"title"`
	DateFrom *string `json:"date_from"`
	DateTo   *string `json:"date_to"`
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
}

func (s *ActivityService) List(ctx context.Context) ([]model.Activity, error) {
	return s.activities.List(ctx)
}

func (s *ActivityService) Get(ctx context.Context, id string) (*model.Activity, error) {
	a, err := s.activities.FindByID(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *ActivityService) Create(ctx context.Context, actor Actor, in *ActivityInput) (*model.Activity, error) {
	id, err := s.seq.NextActivityID(ctx)
	if err != nil {
		return nil, err
	}
	a := &model.Activity{
		ID:       id,
		TypeID:   parseTypeID(in.TypeID),
		Title:    in.Title,
		DateFrom: dateOnly(in.DateFrom),
		DateTo:   dateOnly(in.DateTo),
		Location: in.Location,
		Notes:    in.Notes,
		Status:   model.ActivityStatusActive,
	}
	if actor.UserID != "" {
		a.CreatedBy = &actor.UserID
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, err
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionCreateActivity,
		Module:     ModuleActivities,
		Summary:    "Activitate creată: " + a.ID,
		EntityType: "activity",
		EntityID:   a.ID,
		EntityCode: a.ID,
		Actor:      actor,
	})
	return s.Get(ctx, id)
}

// Patch 空请求返回当前记录
func (s *ActivityService) Patch(ctx context.Context, actor Actor, id string, body map[string]any) (*model.Activity, error) {
	cols := pickColumns(body, activityColumns)
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}
	if v, ok := cols["type_id"]; ok {
		cols["type_id"] = parseTypeID(v)
	}
	for _, k := range []string{"date_from", "date_to"} {
		if v, ok := cols[k].(string); ok {
			cols[k] = dateOnly(&v)
		}
	}
	fields := pkg.SortedKeys(cols)

	n, err := s.activities.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateActivity,
		Module:     ModuleActivities,
		Summary:    "Activitate actualizată: " + id,
		EntityType: "activity",
		EntityID:   id,
		EntityCode: id,
		Metadata:   map[string]any{"fields": fields},
		Actor:      actor,
	})
	return s.Get(ctx, id)
}

func (s *ActivityService) Delete(ctx context.Context, actor Actor, id string) error {
	n, err := s.activities.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionDeleteActivity,
		Module:     ModuleActivities,
		Summary:    "Activitate ștearsă: " + id,
		EntityType: "activity",
		EntityID:   id,
		EntityCode: id,
		Actor:      actor,
	})
	return nil
}

func (s *ActivityService) Archive(ctx context.Context, actor Actor, id string) error {
	n, err := s.activities.Archive(ctx, id, actor.UserID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionArchiveActivity,
		Module:     ModuleActivities,
		Summary:    "Activitate arhivată: " + id,
		EntityType: "activity",
		EntityID:   id,
		EntityCode: id,
		Actor:      actor,
	})
	return nil
}

func (s *ActivityService) Reactivate(ctx context.Context, actor Actor, id string) error {
	n, err := s.activities.Reactivate(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionReactivateActivity,
		Module:     ModuleActivities,
		Summary:    "Activitate reactivată: " + id,
		EntityType: "activity",
		EntityID:   id,
		EntityCode: id,
		Actor:      actor,
	})
	return nil
}

type ActivityImportResult struct {
	Imported int                 `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Errors   []importer.RowError `json:"errors"`
}

// Import 逐行插入，失败时已插入的行保留
func (s *ActivityService) Import(ctx context.Context, actor Actor, text string) (*ActivityImportResult, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := importer.ParseActivities(text, types)
	if err != nil {
		return nil, badRequest(err.Error())
	}

	res := &ActivityImportResult{Skipped: parsed.Skipped, Errors: parsed.Errors}
	for _, d := range parsed.Activities {
		id, err := s.seq.NextActivityID(ctx)
		if err != nil {
			return nil, s.importFailed(actor, res.Imported, err)
		}
		typeID := d.TypeID
		date := d.DateFrom
		a := &model.Activity{
			ID:       id,
			TypeID:   &typeID,
			Title:    optString(d.Title),
			DateFrom: &date,
			Location: optString(d.Location),
			Status:   model.ActivityStatusActive,
		}
		if actor.UserID != "" {
			a.CreatedBy = &actor.UserID
		}
		if err := s.activities.Create(ctx, a); err != nil {
			return nil, s.importFailed(actor, res.Imported, err)
		}
		res.Imported++
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionImportCompleted,
		Module:     ModuleActivities,
		Summary:    fmt.Sprintf("Import activități: %d importate, %d respinse", res.Imported, res.Skipped),
		Metadata:   map[string]any{"imported": res.Imported, "skipped": res.Skipped},
		Actor:      actor,
	})
	return res, nil
}

func (s *ActivityService) importFailed(actor Actor, imported int, err error) error {
	s.audit.Log(AuditEntry{
		ActionType: ActionImportFailed,
		Module:     ModuleActivities,
		Summary:    fmt.Sprintf("Import activități eșuat după %d rânduri", imported),
		Metadata:   map[string]any{"imported": imported, "error": err.Error()},
		IsError:    true,
		Actor:      actor,
	})
	return err
}

// Export withParticipants 为 true 时每个参与者一行
func (s *ActivityService) Export(ctx context.Context, actor Actor, withParticipants bool) ([]byte, error) {
	acts, err := s.activities.List(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.exportData(ctx)
	if err != nil {
		return nil, err
	}

	var out []byte
	if withParticipants {
		out = exporter.ActivitiesWithParticipants(acts, d)
	} else {
		out = exporter.Activities(acts, d)
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionExportCompleted,
		Module:     ModuleActivities,
		Summary:    fmt.Sprintf("Export activități: %d", len(acts)),
		Metadata:   map[string]any{"count": len(acts), "withParticipants": withParticipants},
		Actor:      actor,
	})
	return out, nil
}

func (s *ActivityService) exportData(ctx context.Context) (*exporter.ActivityData, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.participants.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.memberIndex(ctx)
	if err != nil {
		return nil, err
	}

	d := &exporter.ActivityData{
		TypeNames:    make(map[uint64]string, len(types)),
		Participants: make(map[string][]model.ActivityParticipant),
		Members:      members,
	}
	for _, t := range types {
		d.TypeNames[t.ID] = t.Name
	}
	for _, p := range all {
		d.Participants[p.ActivityID] = append(d.Participants[p.ActivityID], p)
	}
	return d, nil
}

func (s *ActivityService) memberIndex(ctx context.Context) (map[string]*model.Member, error) {
	list, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]*model.Member, len(list))
	for i := range list {
		idx[list[i].ID] = &list[i]
	}
	return idx, nil
}

func (s *ActivityService) typeName(ctx context.Context, a *model.Activity) string {
	if a.TypeID == nil {
		return ""
	}
	t, err := s.types.FindByID(ctx, *a.TypeID)
	if err != nil {
		return ""
	}
	return t.Name
}

// pickColumns 请求字段本身就是列名时使用
func pickColumns(body map[string]any, allowed map[string]bool) map[string]any {
	cols := make(map[string]any, len(body))
	for k, v := range body {
		if allowed[k] {
			cols[k] = v
		}
	}
	return cols
}

func parseTypeID(v any) *uint64 {
	var id uint64
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return nil
		}
		id = uint64(t)
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(t), 10, 64)
		if err != nil || n == 0 {
			return nil
		}
		id = n
	case *uint64:
		return t
	default:
		return nil
	}
	return &id
}

// dateOnly 截取 YYYY-MM-DD，空串视为 NULL
func dateOnly(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	if len(v) > 10 {
		v = v[:10]
	}
	return &v
}
