package service

import (
	"context"
	"log/slog"
	"time"

	"Member_Registry/internal/repository/sqlstore"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	reconcileBatchSize = 500
	reconcileTimeout   = 2 * time.Minute
)

// CountReconciler 修正 participants_count / member_count 冗余计数
type CountReconciler struct {
	repo      *sqlstore.CountReconcilerRepo
	batchSize int
}

func NewCountReconciler(db *gorm.DB) *CountReconciler {
	return &CountReconciler{
		repo:      &sqlstore.CountReconcilerRepo{DB: db},
		batchSize: reconcileBatchSize,
	}
}

type ReconcileReport struct {
	Activities int
	Groups     int
}

// ReconcileOnce 对账一次，单行失败跳过继续
func (r *CountReconciler) ReconcileOnce(ctx context.Context) (ReconcileReport, error) {
	var rep ReconcileReport

	acts, err := r.repo.StaleActivities(ctx, r.batchSize)
	if err != nil {
		return rep, err
	}
	for _, p := range acts {
		if err := r.repo.FixActivity(ctx, p.ID, p.Actual); err != nil {
			slog.Warn("fix participants_count failed", "activity", p.ID, "error", err)
			continue
		}
		rep.Activities++
	}

	groups, err := r.repo.StaleGroups(ctx, r.batchSize)
	if err != nil {
		return rep, err
	}
	for _, p := range groups {
		if err := r.repo.FixGroup(ctx, p.ID, p.Actual); err != nil {
			slog.Warn("fix member_count failed", "group", p.ID, "error", err)
			continue
		}
		rep.Groups++
	}
	return rep, nil
}

// Schedule 按 cron 表达式注册；上一轮没跑完时跳过本轮
func (r *CountReconciler) Schedule(expr string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		rep, err := r.ReconcileOnce(ctx)
		if err != nil {
			slog.Error("count reconcile failed", "error", err)
			return
		}
		if rep.Activities > 0 || rep.Groups > 0 {
			slog.Info("count reconcile fixed rows", "activities", rep.Activities, "groups", rep.Groups)
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
