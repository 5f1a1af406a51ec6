package sqlstore

import (
	"context"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	DB *gorm.DB
}

func (r *AuditLogRepository) Create(ctx context.Context, l *model.AuditLog) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

func (r *AuditLogRepository) List(ctx context.Context, limit int) ([]model.AuditLog, error) {
	var list []model.AuditLog
	err := r.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}
