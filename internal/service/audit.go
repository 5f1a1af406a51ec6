package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionLoginSuccess = "LOGIN_SUCCESS"
	ActionLoginFailed  = "LOGIN_FAILED"
	ActionLogout       = "LOGOUT"

	ActionCreateMember = "CREATE_MEMBER"
	ActionUpdateMember = "UPDATE_MEMBER"
	ActionDeleteMember = "DELETE_MEMBER"

	ActionCreatePayment = "CREATE_PAYMENT"
	ActionUpdatePayment = "UPDATE_PAYMENT"
	ActionDeletePayment = "DELETE_PAYMENT"

	ActionCreateActivity     = "CREATE_ACTIVITY"
	ActionUpdateActivity     = "UPDATE_ACTIVITY"
	ActionDeleteActivity     = "DELETE_ACTIVITY"
	ActionArchiveActivity    = "ARCHIVE_ACTIVITY"
	ActionReactivateActivity = "REACTIVATE_ACTIVITY"
	ActionAddParticipants    = "ADD_PARTICIPANTS"
	ActionRemoveParticipants = "REMOVE_PARTICIPANTS"

	ActionCreateGroup = "CREATE_GROUP"
	ActionUpdateGroup = "UPDATE_GROUP"
	ActionDeleteGroup = "DELETE_GROUP"

	ActionUpdateValueList = "UPDATE_VALUE_LIST"

	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeactivateUser = "DEACTIVATE_USER"

	ActionImportStarted   = "IMPORT_STARTED"
	ActionImportCompleted = "IMPORT_COMPLETED"
	ActionImportFailed    = "IMPORT_FAILED"
	ActionExportStarted   = "EXPORT_STARTED"
	ActionExportCompleted = "EXPORT_COMPLETED"
	ActionExportFailed    = "EXPORT_FAILED"

	ActionFilterApplied  = "FILTER_APPLIED"
	ActionFilterReset    = "FILTER_RESET"
	ActionSearchExecuted = "SEARCH_EXECUTED"
	ActionPageView       = "PAGE_VIEW"
	ActionRuntimeError   = "RUNTIME_ERROR"
	ActionAPIError       = "API_ERROR"
)

const (
	ModuleMembers    = "members"
	ModulePayments   = "payments"
	ModuleActivities = "activities"
	ModuleSettings   = "settings"
	ModuleAuth       = "auth"
	ModuleSystem     = "system"
)

const (
	auditWriteTimeout = 5 * time.Second
	defaultAuditLimit = 100
)

// Actor 发起请求的用户和请求上下文
type Actor struct {
	UserID    string
	Email     string
	Role      string
	IP        string
	UserAgent string
	RequestID string
}

type AuditEntry struct {
	ActionType string
	Module     string
	Summary    string
	EntityType string
	EntityID   string
	EntityCode string
	Metadata   map[string]any
	IsError    bool
	Actor      Actor
}

// AuditPublisher 审计事件的外部投递，例如 Kafka
type AuditPublisher interface {
	Send(ctx context.Context, key string, value []byte) error
}

// AuditLogger 异步写审计日志，失败只记录日志，不影响业务请求
type AuditLogger struct {
	repo *sqlstore.AuditLogRepository
	pub  AuditPublisher
	wg   sync.WaitGroup
}

func NewAuditLogger(db *gorm.DB, pub AuditPublisher) *AuditLogger {
	return &AuditLogger{repo: &sqlstore.AuditLogRepository{DB: db}, pub: pub}
}

// Log 立即返回
func (l *AuditLogger) Log(e AuditEntry) {
	if l == nil {
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()
		if _, err := l.Write(ctx, e); err != nil {
			slog.Error("audit log write failed", "action", e.ActionType, "error", err)
		}
	}()
}

// Wait 等待已提交的写入完成，关闭服务和测试时使用
func (l *AuditLogger) Wait() {
	if l == nil {
		return
	}
	l.wg.Wait()
}

// Write 同步写入，返回新行
func (l *AuditLogger) Write(ctx context.Context, e AuditEntry) (*model.AuditLog, error) {
	row, err := buildAuditRow(e)
	if err != nil {
		return nil, err
	}
	if err := l.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	if l.pub != nil {
		payload, err := json.Marshal(row)
		if err == nil {
			err = l.pub.Send(ctx, row.Module+":"+row.ActionType, payload)
		}
		if err != nil {
			slog.Warn("audit publish failed", "id", row.ID, "error", err)
		}
	}
	return row, nil
}

func (l *AuditLogger) List(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	return l.repo.List(ctx, limit)
}

func buildAuditRow(e AuditEntry) (*model.AuditLog, error) {
	row := &model.AuditLog{
		ID:         pkg.NewID(),
		UserID:     optString(e.Actor.UserID),
		ActorRole:  optString(e.Actor.Role),
		ActionType: e.ActionType,
		Module:     e.Module,
		EntityType: optString(e.EntityType),
		EntityID:   optString(e.EntityID),
		EntityCode: optString(e.EntityCode),
		Summary:    e.Summary,
		IsError:    e.IsError,
		IP:         optString(e.Actor.IP),
		UserAgent:  optString(truncate(e.Actor.UserAgent, 255)),
		RequestID:  optString(e.Actor.RequestID),
	}
	if row.Module == "" {
		row.Module = ModuleSystem
	}
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(pkg.MaskSensitive(e.Metadata))
		if err != nil {
			return nil, err
		}
		row.Metadata = datatypes.JSON(b)
	}
	return row, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
