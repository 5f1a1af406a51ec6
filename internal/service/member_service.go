package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Member_Registry/internal/exporter"
	"Member_Registry/internal/importer"
	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/gorm"
)

const (
	membersListKey = "members"
	cnpCipherTag   = "enc:"
)

var memberColumns = pkg.ColumnSet(
	"member_code", "status", "rank", "first_name", "last_name", "date_of_birth", "cnp",
	"birthplace", "unit", "main_profile", "retirement_year", "retirement_decision_number",
	"retirement_file_number", "branch_enrollment_year", "branch_withdrawal_year",
	"branch_withdrawal_reason", "withdrawal_reason", "withdrawal_year", "provenance",
	"address", "phone", "email", "whatsapp_group_ids", "organization_involvement",
	"magazine_contributions", "branch_needs", "foundation_needs", "other_needs",
	"car_member_status", "foundation_member_status", "foundation_role",
	"has_current_workplace", "current_workplace", "other_observations",
)

var ErrNoMembers = badRequest("No members provided")

type MemberService struct {
	members *sqlstore.MemberRepository
	seq     *sqlstore.SequenceRepository
	units   *sqlstore.UnitRepository
	audit   *AuditLogger
	cache   ListCache
	lock    ListLock
	cipher  *pkg.FieldCipher
}

type MemberOption func(*MemberService)

// WithListCache 成员列表走读缓存
func WithListCache(cache ListCache, lock ListLock) MemberOption {
	return func(s *MemberService) {
		s.cache = cache
		s.lock = lock
	}
}

// WithFieldCipher CNP 加密落库
func WithFieldCipher(c *pkg.FieldCipher) MemberOption {
	return func(s *MemberService) {
		s.cipher = c
	}
}

func NewMemberService(db *gorm.DB, audit *AuditLogger, opts ...MemberOption) *MemberService {
	s := &MemberService{
		members: &sqlstore.MemberRepository{DB: db},
		seq:     &sqlstore.SequenceRepository{DB: db},
		units:   &sqlstore.UnitRepository{DB: db},
		audit:   audit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemberService) List(ctx context.Context) ([]model.Member, error) {
	b, err := readThrough(ctx, s.cache, s.lock, membersListKey, func(ctx context.Context) ([]byte, error) {
		list, err := s.members.List(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(list)
	})
	if err != nil {
		return nil, err
	}
	var list []model.Member
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	for i := range list {
		list[i].CNP = s.openCNP(list[i].CNP)
	}
	return list, nil
}

func (s *MemberService) Get(ctx context.Context, id string) (*model.Member, error) {
	m, err := s.members.FindByID(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.CNP = s.openCNP(m.CNP)
	return m, nil
}

// Create 编号由服务端生成，请求里的 id / memberCode 被忽略
func (s *MemberService) Create(ctx context.Context, actor Actor, m *model.Member) (*model.Member, error) {
	code, err := s.seq.NextMemberCode(ctx)
	if err != nil {
		return nil, err
	}
	m.ID = pkg.NewID()
	m.MemberCode = code
	if m.Status == "" {
		m.Status = model.MemberStatusActive
	}
	plain := m.CNP
	if m.CNP, err = s.sealCNP(m.CNP); err != nil {
		return nil, err
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}
	m.CNP = plain
	invalidate(ctx, s.cache, membersListKey)

	s.audit.Log(AuditEntry{
		ActionType: ActionCreateMember,
		Module:     ModuleMembers,
		Summary:    fmt.Sprintf("Membru creat: %s (%s)", m.FullName(), m.MemberCode),
		EntityType: "member",
		EntityID:   m.ID,
		EntityCode: m.MemberCode,
		Metadata:   map[string]any{"cnp": plain, "phone": m.Phone, "email": m.Email},
		Actor:      actor,
	})
	return m, nil
}

// Patch 只更新请求里出现的列；空请求返回当前记录
func (s *MemberService) Patch(ctx context.Context, actor Actor, id string, body map[string]any) (*model.Member, error) {
	cols := pkg.PatchColumns(body, memberColumns)
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}
	if v, ok := cols["whatsapp_group_ids"]; ok {
		cols["whatsapp_group_ids"] = toGroupIDs(v)
	}
	if v, ok := cols["cnp"].(string); ok {
		sealed, err := s.sealCNP(v)
		if err != nil {
			return nil, err
		}
		cols["cnp"] = sealed
	}
	fields := pkg.SortedKeys(cols)

	n, err := s.members.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFoundOrNoChange
	}
	invalidate(ctx, s.cache, membersListKey)

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateMember,
		Module:     ModuleMembers,
		Summary:    fmt.Sprintf("Membru actualizat: %s (%s)", m.FullName(), m.MemberCode),
		EntityType: "member",
		EntityID:   m.ID,
		EntityCode: m.MemberCode,
		Metadata:   map[string]any{"fields": fields},
		Actor:      actor,
	})
	return m, nil
}

func (s *MemberService) Delete(ctx context.Context, actor Actor, id string) error {
	n, err := s.members.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	invalidate(ctx, s.cache, membersListKey)

	s.audit.Log(AuditEntry{
		ActionType: ActionDeleteMember,
		Module:     ModuleMembers,
		Summary:    "Membru șters: " + id,
		EntityType: "member",
		EntityID:   id,
		Actor:      actor,
	})
	return nil
}

func (s *MemberService) Search(ctx context.Context, q string) ([]string, error) {
	ids, err := s.members.SearchIDs(ctx, q)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Import 批量导入。调用方给出的编号若已存在则整批拒绝；
// 其余逐行插入，前面已成功的行不会回滚。
func (s *MemberService) Import(ctx context.Context, actor Actor, members []model.Member) (int, error) {
	if len(members) == 0 {
		return 0, ErrNoMembers
	}

	var provided []string
	missing := 0
	for i := range members {
		if members[i].MemberCode == "" {
			missing++
		} else {
			provided = append(provided, members[i].MemberCode)
		}
	}
	if len(provided) > 0 {
		existing, err := s.members.ExistingCodes(ctx, provided)
		if err != nil {
			return 0, err
		}
		if len(existing) > 0 {
			return 0, badRequest(fmt.Sprintf(
				"Coduri membre duplicate detectate: %s. Șterge sau modifică aceste intrări.",
				strings.Join(existing, ", ")))
		}
	}

	generated, err := s.seq.NextMemberCodes(ctx, missing)
	if err != nil {
		return 0, err
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionImportStarted,
		Module:     ModuleMembers,
		Summary:    fmt.Sprintf("Import membri: %d rânduri", len(members)),
		Actor:      actor,
	})

	imported := 0
	next := 0
	for i := range members {
		m := members[i]
		m.ID = pkg.NewID()
		if m.MemberCode == "" {
			m.MemberCode = generated[next]
			next++
		}
		if m.Status == "" {
			m.Status = model.MemberStatusActive
		}
		if m.CNP, err = s.sealCNP(m.CNP); err != nil {
			break
		}
		if err = s.members.Create(ctx, &m); err != nil {
			break
		}
		imported++
	}
	if imported > 0 {
		invalidate(ctx, s.cache, membersListKey)
	}

	if err != nil {
		s.audit.Log(AuditEntry{
			ActionType: ActionImportFailed,
			Module:     ModuleMembers,
			Summary:    fmt.Sprintf("Import membri eșuat după %d rânduri", imported),
			Metadata:   map[string]any{"imported": imported, "error": err.Error()},
			IsError:    true,
			Actor:      actor,
		})
		return imported, fmt.Errorf("Failed to import members: %w", err)
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionImportCompleted,
		Module:     ModuleMembers,
		Summary:    fmt.Sprintf("Import membri finalizat: %d", imported),
		Metadata:   map[string]any{"imported": imported},
		Actor:      actor,
	})
	return imported, nil
}

// MemberCSVResult CSV 导入结果，errors 为被拒绝的行
type MemberCSVResult struct {
	Imported int                 `json:"imported"`
	Errors   []importer.RowError `json:"errors"`
}

// ImportCSV 解析后只导入校验通过的行
func (s *MemberService) ImportCSV(ctx context.Context, actor Actor, text string) (*MemberCSVResult, error) {
	parsed, err := importer.ParseMembers(text)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	res := &MemberCSVResult{Errors: parsed.Errors}
	if res.Errors == nil {
		res.Errors = []importer.RowError{}
	}
	if len(parsed.Members) == 0 {
		return res, nil
	}

	members := make([]model.Member, 0, len(parsed.Members))
	for i := range parsed.Members {
		members = append(members, draftToMember(&parsed.Members[i]))
	}
	res.Imported, err = s.Import(ctx, actor, members)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Export sensitive 字段只对管理员导出
func (s *MemberService) Export(ctx context.Context, actor Actor, fields []string, sortBy string) ([]byte, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	units, err := s.units.List(ctx, true)
	if err != nil {
		return nil, err
	}
	unitNames := make(map[string]string, len(units))
	for _, u := range units {
		if u.Name != nil {
			unitNames[u.Code] = *u.Name
		}
	}

	selected := exporter.SelectMemberFields(fields, actor.Role == model.RoleAdmin)
	out := exporter.Members(list, selected, sortBy, unitNames, time.Now())

	keys := make([]string, len(selected))
	for i, f := range selected {
		keys[i] = f.Key
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionExportCompleted,
		Module:     ModuleMembers,
		Summary:    fmt.Sprintf("Export membri: %d înregistrări", len(list)),
		Metadata:   map[string]any{"count": len(list), "fields": keys, "sortBy": sortBy},
		Actor:      actor,
	})
	return out, nil
}

func (s *MemberService) sealCNP(v string) (string, error) {
	if s.cipher == nil || v == "" || strings.HasPrefix(v, cnpCipherTag) {
		return v, nil
	}
	enc, err := s.cipher.Encrypt(v)
	if err != nil {
		return "", err
	}
	return cnpCipherTag + enc, nil
}

// openCNP 未加密的历史数据原样返回
func (s *MemberService) openCNP(v string) string {
	if !strings.HasPrefix(v, cnpCipherTag) {
		return v
	}
	if s.cipher == nil {
		return ""
	}
	plain, err := s.cipher.Decrypt(strings.TrimPrefix(v, cnpCipherTag))
	if err != nil {
		slog.Warn("cnp decrypt failed", "error", err)
		return ""
	}
	return plain
}

func draftToMember(d *importer.MemberDraft) model.Member {
	return model.Member{
		MemberCode:           d.MemberCode,
		LastName:             d.LastName,
		FirstName:            d.FirstName,
		DateOfBirth:          d.DateOfBirth,
		CNP:                  d.CNP,
		Rank:                 d.Rank,
		Unit:                 d.Unit,
		MainProfile:          d.MainProfile,
		Status:               d.Status,
		BranchEnrollmentYear: d.BranchEnrollmentYear,
		RetirementYear:       d.RetirementYear,
		Provenance:           d.Provenance,
		Phone:                d.Phone,
		Email:                d.Email,
		Address:              d.Address,
		WhatsappGroupIds:     model.GroupIDs{},
	}
}

func toGroupIDs(v any) model.GroupIDs {
	ids := model.GroupIDs{}
	switch t := v.(type) {
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok && s != "" {
				ids = append(ids, s)
			}
		}
	case []string:
		ids = append(ids, t...)
	}
	return ids
}
