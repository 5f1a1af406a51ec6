package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"Member_Registry/internal/exporter"
	"Member_Registry/internal/importer"
	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/gorm"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var (
	activityTypeColumns = pkg.ColumnSet("name", "category", "is_active")
	unitColumns         = pkg.ColumnSet("code", "name", "is_active")

	ErrUnknownValueList = &RequestError{Status: http.StatusNotFound, Message: "Unknown value list"}
	ErrUnitCodeRequired = badRequest("code required")
	ErrInvalidMode      = badRequest("Invalid mode. Must be merge or replace")
	ErrInvalidFormat    = badRequest("Invalid format. Must be csv or json")
)

type ActivityTypeService struct {
	types *sqlstore.ActivityTypeRepository
	audit *AuditLogger
}

func NewActivityTypeService(db *gorm.DB, audit *AuditLogger) *ActivityTypeService {
	return &ActivityTypeService{types: &sqlstore.ActivityTypeRepository{DB: db}, audit: audit}
}

type ActivityTypeInput struct {
	Name     string  `json:"name"`
	Category *string `json:"category"`
	IsActive *bool   `json:"is_active"`
}

func (s *ActivityTypeService) List(ctx context.Context) ([]model.ActivityType, error) {
	return s.types.List(ctx)
}

func (s *ActivityTypeService) Create(ctx context.Context, actor Actor, in *ActivityTypeInput) (*model.ActivityType, error) {
	t := &model.ActivityType{Name: in.Name, Category: in.Category, IsActive: true}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := s.types.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logChange(actor, "activity_type", fmt.Sprint(t.ID), "Tip activitate creat: "+t.Name)
	return t, nil
}

func (s *ActivityTypeService) Patch(ctx context.Context, actor Actor, id uint64, body map[string]any) (*model.ActivityType, error) {
	cols := pickColumns(body, activityTypeColumns)
	if len(cols) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	n, err := s.types.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	t, err := s.types.FindByID(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.logChange(actor, "activity_type", fmt.Sprint(id), "Tip activitate actualizat: "+t.Name)
	return t, nil
}

func (s *ActivityTypeService) Delete(ctx context.Context, actor Actor, id uint64) error {
	n, err := s.types.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logChange(actor, "activity_type", fmt.Sprint(id), fmt.Sprintf("Tip activitate șters: %d", id))
	return nil
}

type TypeImportResult struct {
	Inserted    int                 `json:"inserted"`
	Updated     int                 `json:"updated"`
	Deactivated bool                `json:"deactivated"`
	Skipped     int                 `json:"skipped"`
	Errors      []importer.RowError `json:"errors"`
}

// Import merge 只 upsert；replace 在 upsert 之后停用文件里没有的类型
func (s *ActivityTypeService) Import(ctx context.Context, actor Actor, data []byte, format, mode string) (*TypeImportResult, error) {
	if mode == "" {
		mode = importer.ModeMerge
	}
	if mode != importer.ModeMerge && mode != importer.ModeReplace {
		return nil, ErrInvalidMode
	}

	var rows []importer.TypeRow
	var rowErrs []importer.RowError
	var err error
	switch format {
	case FormatJSON:
		rows, rowErrs, err = importer.ParseActivityTypesJSON(data)
	case FormatCSV, "":
		rows, rowErrs, err = importer.ParseActivityTypesCSV(string(data))
	default:
		return nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, badRequest(err.Error())
	}

	existing, err := s.types.List(ctx)
	if err != nil {
		return nil, err
	}
	plan := importer.PlanActivityTypes(rows, existing)

	res := &TypeImportResult{Skipped: len(rowErrs), Errors: rowErrs}
	if res.Errors == nil {
		res.Errors = []importer.RowError{}
	}
	keep := make([]uint64, 0, len(plan.Updates)+len(plan.Inserts))
	for _, u := range plan.Updates {
		cols := map[string]any{"name": u.Row.Name, "is_active": u.Row.IsActive}
		if u.Row.Category != "" {
			cols["category"] = u.Row.Category
		}
		if _, err := s.types.Update(ctx, u.ID, cols); err != nil {
			return nil, err
		}
		keep = append(keep, u.ID)
		res.Updated++
	}
	for _, r := range plan.Inserts {
		t := &model.ActivityType{Name: r.Name, Category: optString(r.Category), IsActive: r.IsActive}
		if err := s.types.Create(ctx, t); err != nil {
			return nil, err
		}
		keep = append(keep, t.ID)
		res.Inserted++
	}
	if mode == importer.ModeReplace {
		if err := s.types.DeactivateExcept(ctx, keep); err != nil {
			return nil, err
		}
		res.Deactivated = true
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionImportCompleted,
		Module:     ModuleSettings,
		Summary:    fmt.Sprintf("Import tipuri activități (%s): %d noi, %d actualizate", mode, res.Inserted, res.Updated),
		EntityType: "activity_type",
		Metadata:   map[string]any{"mode": mode, "inserted": res.Inserted, "updated": res.Updated, "skipped": res.Skipped},
		Actor:      actor,
	})
	return res, nil
}

func (s *ActivityTypeService) Export(ctx context.Context, format string) ([]byte, error) {
	list, err := s.types.List(ctx)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return exporter.ActivityTypesJSON(list)
	case FormatCSV, "":
		return exporter.ActivityTypesCSV(list), nil
	}
	return nil, ErrInvalidFormat
}

func (s *ActivityTypeService) logChange(actor Actor, entity, id, summary string) {
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateValueList,
		Module:     ModuleSettings,
		Summary:    summary,
		EntityType: entity,
		EntityID:   id,
		Actor:      actor,
	})
}

type UnitService struct {
	units *sqlstore.UnitRepository
	audit *AuditLogger
}

func NewUnitService(db *gorm.DB, audit *AuditLogger) *UnitService {
	return &UnitService{units: &sqlstore.UnitRepository{DB: db}, audit: audit}
}

type UnitInput struct {
	Code string  `json:"code"`
	Name *string `json:"name"`
}

// NormalizeUnitCode "um0754" / "UM  0754" / "0754" 统一成 "UM 0754"
func NormalizeUnitCode(code string) string {
	c := strings.TrimSpace(code)
	if len(c) >= 2 && strings.EqualFold(c[:2], "UM") {
		c = c[2:]
	}
	c = strings.Join(strings.Fields(c), " ")
	if c == "" {
		return ""
	}
	return "UM " + c
}

func (s *UnitService) List(ctx context.Context) ([]model.UMUnit, error) {
	return s.units.List(ctx, false)
}

func (s *UnitService) Create(ctx context.Context, actor Actor, in *UnitInput) (*model.UMUnit, error) {
	code := NormalizeUnitCode(in.Code)
	if code == "" {
		return nil, ErrUnitCodeRequired
	}
	u := &model.UMUnit{Code: code, Name: in.Name, IsActive: true}
	if err := s.units.Create(ctx, u); err != nil {
		return nil, err
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateValueList,
		Module:     ModuleSettings,
		Summary:    "UM adăugată: " + code,
		EntityType: "um_unit",
		EntityID:   fmt.Sprint(u.ID),
		EntityCode: code,
		Actor:      actor,
	})
	return u, nil
}

func (s *UnitService) Patch(ctx context.Context, actor Actor, id uint64, body map[string]any) (*model.UMUnit, error) {
	cols := pickColumns(body, unitColumns)
	if len(cols) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	if v, ok := cols["code"].(string); ok {
		code := NormalizeUnitCode(v)
		if code == "" {
			return nil, ErrUnitCodeRequired
		}
		cols["code"] = code
	}
	n, err := s.units.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	u, err := s.units.FindByID(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateValueList,
		Module:     ModuleSettings,
		Summary:    "UM actualizată: " + u.Code,
		EntityType: "um_unit",
		EntityID:   fmt.Sprint(id),
		EntityCode: u.Code,
		Actor:      actor,
	})
	return u, nil
}

func (s *UnitService) Delete(ctx context.Context, actor Actor, id uint64) error {
	n, err := s.units.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateValueList,
		Module:     ModuleSettings,
		Summary:    fmt.Sprintf("UM ștearsă: %d", id),
		EntityType: "um_unit",
		EntityID:   fmt.Sprint(id),
		Actor:      actor,
	})
	return nil
}

type ValueListService struct {
	lists *sqlstore.ValueListRepository
	audit *AuditLogger
}

func NewValueListService(db *gorm.DB, audit *AuditLogger) *ValueListService {
	return &ValueListService{lists: &sqlstore.ValueListRepository{DB: db}, audit: audit}
}

func knownList(name string) bool {
	return name == model.ValueListRanks || name == model.ValueListProfiles
}

func (s *ValueListService) Get(ctx context.Context, name string) ([]string, error) {
	if !knownList(name) {
		return nil, ErrUnknownValueList
	}
	values, err := s.lists.List(ctx, name)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// Replace 去掉空值和重复值后整体替换，保持传入顺序
func (s *ValueListService) Replace(ctx context.Context, actor Actor, name string, values []string) ([]string, error) {
	if !knownList(name) {
		return nil, ErrUnknownValueList
	}
	clean := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		clean = append(clean, v)
	}
	if err := s.lists.Replace(ctx, name, clean); err != nil {
		return nil, err
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateValueList,
		Module:     ModuleSettings,
		Summary:    fmt.Sprintf("Listă actualizată: %s (%d valori)", name, len(clean)),
		EntityType: "value_list",
		EntityCode: name,
		Metadata:   map[string]any{"count": len(clean)},
		Actor:      actor,
	})
	return clean, nil
}
