package service

import (
	"context"
	"strings"
	"time"

	"Member_Registry/internal/model"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/gorm"
)

const dbPingTimeout = 3 * time.Second

type HealthItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type HealthService struct {
	db         *gorm.DB
	configured bool
}

// NewHealthService db 为 nil 表示未配置数据库
func NewHealthService(db *gorm.DB, configured bool) *HealthService {
	return &HealthService{db: db, configured: configured}
}

func (s *HealthService) Check(ctx context.Context) []HealthItem {
	items := make([]HealthItem, 0, 3)
	cfg := HealthItem{ID: "config", Name: "Configurare aplicație", OK: s.configured}
	if s.configured {
		cfg.Message = "LOCAL_DB_URL și JWT_SECRET sunt setate"
	} else {
		cfg.Message = "Lipsesc LOCAL_DB_URL sau JWT_SECRET. Reporniți aplicația."
	}
	items = append(items, cfg)

	dbItem := HealthItem{ID: "database", Name: "Bază de date"}
	switch {
	case !s.configured || s.db == nil:
		dbItem.Message = "Nu se poate verifica fără configurare."
	default:
		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		err := sqlstore.Ping(pingCtx, s.db)
		cancel()
		if err == nil {
			dbItem.OK = true
			dbItem.Message = "Conectat."
		} else {
			dbItem.Message = dbErrorMessage(err)
		}
	}
	items = append(items, dbItem)

	items = append(items, HealthItem{ID: "api", Name: "Server API", OK: true, Message: "Funcțional."})
	return items
}

func dbErrorMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Baza de date nu rulează sau portul este incorect."
	case strings.Contains(strings.ToLower(msg), "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "Timeout la conectare."
	}
	if r := []rune(msg); len(r) > 80 {
		return string(r[:80])
	}
	return msg
}

// Stats 首页汇总数字
type Stats struct {
	TotalMembers     int     `json:"totalMembers"`
	ActiveMembers    int64   `json:"activeMembers"`
	WithdrawnMembers int64   `json:"withdrawnMembers"`
	Activities       int     `json:"activities"`
	ActiveActivities int     `json:"activeActivities"`
	Groups           int     `json:"groups"`
	PaidThisYear     float64 `json:"paidThisYear"`
	Year             int     `json:"year"`
}

type StatsService struct {
	members    *sqlstore.MemberRepository
	activities *sqlstore.ActivityRepository
	groups     *sqlstore.GroupRepository
	payments   *sqlstore.PaymentRepository
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		members:    &sqlstore.MemberRepository{DB: db},
		activities: &sqlstore.ActivityRepository{DB: db},
		groups:     &sqlstore.GroupRepository{DB: db},
		payments:   &sqlstore.PaymentRepository{DB: db},
	}
}

func (s *StatsService) Get(ctx context.Context, now time.Time) (*Stats, error) {
	st := &Stats{Year: now.Year()}
	var err error
	if st.ActiveMembers, err = s.members.CountByStatus(ctx, model.MemberStatusActive); err != nil {
		return nil, err
	}
	if st.WithdrawnMembers, err = s.members.CountByStatus(ctx, model.MemberStatusWithdrawn); err != nil {
		return nil, err
	}
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	st.TotalMembers = len(members)

	acts, err := s.activities.List(ctx)
	if err != nil {
		return nil, err
	}
	st.Activities = len(acts)
	for _, a := range acts {
		if a.Status != model.ActivityStatusArchived {
			st.ActiveActivities++
		}
	}

	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	st.Groups = len(groups)

	if st.PaidThisYear, err = s.payments.SumForYear(ctx, st.Year, model.PaymentStatusPaid); err != nil {
		return nil, err
	}
	return st, nil
}
