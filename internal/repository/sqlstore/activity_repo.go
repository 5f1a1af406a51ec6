package sqlstore

import (
	"context"
	"time"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func (r *ActivityRepository) List(ctx context.Context) ([]model.Activity, error) {
	var list []model.Activity
	err := r.DB.WithContext(ctx).Order("date_from DESC").Order("id DESC").Find(&list).Error
	return list, err
}

func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	var a model.Activity
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *ActivityRepository) Create(ctx context.Context, a *model.Activity) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *ActivityRepository) Update(ctx context.Context, id string, cols map[string]any) (int64, error) {
	cols["updated_at"] = time.Now()
	tx := r.DB.WithContext(ctx).Model(&model.Activity{}).Where("id = ?", id).Updates(cols)
	return tx.RowsAffected, tx.Error
}

// Delete 先删参与者再删活动，两条语句不在同一事务
func (r *ActivityRepository) Delete(ctx context.Context, id string) (int64, error) {
	if err := r.DB.WithContext(ctx).Where("activity_id = ?", id).Delete(&model.ActivityParticipant{}).Error; err != nil {
		return 0, err
	}
	tx := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Activity{})
	return tx.RowsAffected, tx.Error
}

func (r *ActivityRepository) Archive(ctx context.Context, id, userID string) (int64, error) {
	now := time.Now()
	return r.Update(ctx, id, map[string]any{
		"status":      model.ActivityStatusArchived,
		"archived_at": now,
		"archived_by": userID,
	})
}

func (r *ActivityRepository) Reactivate(ctx context.Context, id string) (int64, error) {
	return r.Update(ctx, id, map[string]any{
		"status":      model.ActivityStatusActive,
		"archived_at": nil,
		"archived_by": nil,
	})
}

// RecountParticipants 用 count(*) 回写 participants_count
func (r *ActivityRepository) RecountParticipants(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.Activity{}).Where("id = ?", id).
		Updates(map[string]any{
			"participants_count": gorm.Expr("(SELECT count(*) FROM activity_participants WHERE activity_id = ?)", id),
			"updated_at":         time.Now(),
		}).Error
}
