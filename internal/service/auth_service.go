package service

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/gorm"
)

const (
	setupMinPassword = 8
	adminMinPassword = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthUser 登录和 /auth/me 返回的用户信息
type AuthUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAuthUser full_name 按空格拆分，没有时用邮箱前缀
func NewAuthUser(p *model.Profile) *AuthUser {
	name := p.FullName
	if name == "" {
		name = localPart(p.Email)
	}
	parts := strings.Split(name, " ")
	return &AuthUser{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: parts[0],
		LastName:  strings.Join(parts[1:], " "),
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}

type LoginResult struct {
	User  *AuthUser `json:"user"`
	Token string    `json:"token"`
}

type AuthService struct {
	profiles *sqlstore.ProfileRepository
	tokens   *pkg.TokenManager
	audit    *AuditLogger
}

func NewAuthService(db *gorm.DB, tokens *pkg.TokenManager, audit *AuditLogger) *AuthService {
	s := &AuthService{tokens: tokens, audit: audit}
	if db != nil {
		s.profiles = &sqlstore.ProfileRepository{DB: db}
	}
	return s
}

func (s *AuthService) Configured() bool {
	return s.profiles != nil
}

func (s *AuthService) Login(ctx context.Context, actor Actor, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsMissing
	}
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	p, err := s.profiles.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sqlstore.ErrNotFound) {
		return nil, err
	}
	if p == nil || !p.IsActive || p.PasswordHash == nil || !pkg.VerifyPassword(password, *p.PasswordHash) {
		s.audit.Log(AuditEntry{
			ActionType: ActionLoginFailed,
			Module:     ModuleAuth,
			Summary:    "Autentificare eșuată",
			Metadata:   map[string]any{"email": email},
			IsError:    true,
			Actor:      actor,
		})
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(p.ID, p.Email, p.Role)
	if err != nil {
		return nil, err
	}
	actor.UserID, actor.Email, actor.Role = p.ID, p.Email, p.Role
	s.audit.Log(AuditEntry{
		ActionType: ActionLoginSuccess,
		Module:     ModuleAuth,
		Summary:    "Autentificare reușită",
		EntityType: "profile",
		EntityID:   p.ID,
		Actor:      actor,
	})
	return &LoginResult{User: NewAuthUser(p), Token: token}, nil
}

func (s *AuthService) Logout(actor Actor) {
	if actor.UserID == "" {
		return
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionLogout,
		Module:     ModuleAuth,
		Summary:    "Deconectare",
		EntityType: "profile",
		EntityID:   actor.UserID,
		Actor:      actor,
	})
}

// Me 未配置、账号不存在或已停用时返回 nil
func (s *AuthService) Me(ctx context.Context, userID string) (*AuthUser, error) {
	if !s.Configured() || userID == "" {
		return nil, nil
	}
	p, err := s.profiles.FindByID(ctx, userID)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, nil
	}
	return NewAuthUser(p), nil
}

// ActiveRole 中间件用：返回账号当前角色，停用或不存在时 ok=false
func (s *AuthService) ActiveRole(ctx context.Context, userID string) (string, bool, error) {
	if !s.Configured() {
		return "", false, nil
	}
	p, err := s.profiles.FindByID(ctx, userID)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.Role, p.IsActive, nil
}

// SetupRequired 没有可登录的管理员时需要初始化向导
func (s *AuthService) SetupRequired(ctx context.Context) (bool, error) {
	if !s.Configured() {
		return true, nil
	}
	n, err := s.profiles.CountUsableAdmins(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Setup 创建第一个管理员账号
func (s *AuthService) Setup(ctx context.Context, email, password string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	required, err := s.SetupRequired(ctx)
	if err != nil {
		return err
	}
	if !required {
		return ErrSetupCompleted
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return badRequest("Email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) < setupMinPassword {
		return badRequest("Password must be at least 8 characters")
	}
	exists, err := s.profiles.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailExists
	}

	hash, err := pkg.HashPassword(password)
	if err != nil {
		return err
	}
	p := &model.Profile{
		ID:           pkg.NewID(),
		Email:        email,
		FullName:     localPart(email),
		Role:         model.RoleAdmin,
		PasswordHash: &hash,
		IsActive:     true,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return err
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionCreateUser,
		Module:     ModuleSettings,
		Summary:    "Cont administrator inițial creat",
		EntityType: "profile",
		EntityID:   p.ID,
		Metadata:   map[string]any{"email": email},
		Actor:      Actor{UserID: p.ID, Email: email, Role: model.RoleAdmin},
	})
	return nil
}

// RegisterInput role 为空时是 viewer
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

var (
	ErrRegisterShortPassword = badRequest("Password must be at least 6 characters")
	ErrRegisterInvalidRole   = badRequest("Invalid role")
	ErrRegisterAdminRequired = &RequestError{Status: http.StatusForbidden, Message: "Forbidden - admin required"}
)

// Register 系统里还没有任何账号时，第一个注册的用户直接成为管理员且不需要登录；
// 之后只有启用中的管理员可以注册新账号
func (s *AuthService) Register(ctx context.Context, actor Actor, in *RegisterInput) (*LoginResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrCredentialsMissing
	}
	if len(in.Password) < adminMinPassword {
		return nil, ErrRegisterShortPassword
	}
	role := in.Role
	if role == "" {
		role = model.RoleViewer
	}
	if !model.ValidRole(role) {
		return nil, ErrRegisterInvalidRole
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	n, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		if actor.UserID == "" {
			return nil, ErrUnauthorized
		}
		caller, err := s.profiles.FindByID(ctx, actor.UserID)
		if errors.Is(err, sqlstore.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		if err != nil {
			return nil, err
		}
		if caller.Role != model.RoleAdmin || !caller.IsActive {
			return nil, ErrRegisterAdminRequired
		}
	} else {
		role = model.RoleAdmin
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
		Role:         role,
		PasswordHash: &hash,
		IsActive:     true,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	token, err := s.tokens.Generate(p.ID, p.Email, p.Role)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		actor.UserID, actor.Email, actor.Role = p.ID, p.Email, p.Role
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionCreateUser,
		Module:     ModuleSettings,
		Summary:    "Utilizator înregistrat: " + email,
		EntityType: "profile",
		EntityID:   p.ID,
		Metadata:   map[string]any{"email": email, "role": p.Role},
		Actor:      actor,
	})
	return &LoginResult{User: NewAuthUser(p), Token: token}, nil
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
