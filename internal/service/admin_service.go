package service

import (
	"context"
	"errors"
	"strings"

	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/gorm"
)

var (
	ErrAdminFieldsMissing = badRequest("Missing required fields: email, password, role")
	ErrAdminNoFields      = badRequest("No fields to update. Provide role or is_active")
	ErrInvalidIsActive    = badRequest("Invalid is_active. Must be a boolean")
	ErrAdminShortPassword = badRequest("Password must be at least 6 characters")
)

type UserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

// AdminService 账号管理，只对 admin 开放
type AdminService struct {
	profiles *sqlstore.ProfileRepository
	audit    *AuditLogger
}

func NewAdminService(db *gorm.DB, audit *AuditLogger) *AdminService {
	return &AdminService{profiles: &sqlstore.ProfileRepository{DB: db}, audit: audit}
}

func (s *AdminService) List(ctx context.Context) ([]model.Profile, error) {
	return s.profiles.List(ctx)
}

func (s *AdminService) Create(ctx context.Context, actor Actor, in *UserInput) (*model.Profile, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || in.Role == "" {
		return nil, ErrAdminFieldsMissing
	}
	if !model.ValidRole(in.Role) {
		return nil, ErrInvalidRole
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < adminMinPassword {
		return nil, ErrAdminShortPassword
	}
	exists, err := s.profiles.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := pkg.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		fullName = localPart(email)
	}
	p := &model.Profile{
		ID:           pkg.NewID(),
		Email:        email,
		FullName:     fullName,
		Role:         in.Role,
		PasswordHash: &hash,
		IsActive:     true,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionCreateUser,
		Module:     ModuleSettings,
		Summary:    "Utilizator creat: " + email,
		EntityType: "profile",
		EntityID:   p.ID,
		Metadata:   map[string]any{"email": email, "role": p.Role},
		Actor:      actor,
	})
	return p, nil
}

// Patch 只接受 role 和 is_active；管理员不能给自己降级或停用自己
func (s *AdminService) Patch(ctx context.Context, actor Actor, id string, body map[string]any) (*model.Profile, error) {
	rawRole, hasRole := body["role"]
	rawActive, hasActive := body["is_active"]
	if !hasRole && !hasActive {
		return nil, ErrAdminNoFields
	}

	cols := map[string]any{}
	var role string
	var active bool
	if hasRole {
		var ok bool
		if role, ok = rawRole.(string); !ok || !model.ValidRole(role) {
			return nil, ErrInvalidRole
		}
		cols["role"] = role
	}
	if hasActive {
		var ok bool
		if active, ok = rawActive.(bool); !ok {
			return nil, ErrInvalidIsActive
		}
		cols["is_active"] = active
	}
	if id == actor.UserID {
		if hasRole && role != model.RoleAdmin {
			return nil, ErrCannotDemoteSelf
		}
		if hasActive && !active {
			return nil, ErrCannotDisableSelf
		}
	}

	fields := pkg.SortedKeys(cols)
	n, err := s.profiles.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrUserNotFound
	}
	p, err := s.profiles.FindByID(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionUpdateUser,
		Module:     ModuleSettings,
		Summary:    "Utilizator actualizat: " + p.Email,
		EntityType: "profile",
		EntityID:   id,
		Metadata:   map[string]any{"fields": fields, "role": p.Role, "is_active": p.IsActive},
		Actor:      actor,
	})
	return p, nil
}

// Deactivate DELETE 只停用账号，不删除行
func (s *AdminService) Deactivate(ctx context.Context, actor Actor, id string) error {
	if id == actor.UserID {
		return ErrCannotDeleteSelf
	}
	n, err := s.profiles.Update(ctx, id, map[string]any{"is_active": false})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionDeactivateUser,
		Module:     ModuleSettings,
		Summary:    "Utilizator dezactivat: " + id,
		EntityType: "profile",
		EntityID:   id,
		Actor:      actor,
	})
	return nil
}
