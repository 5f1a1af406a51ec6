package sqlstore

import (
	"context"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipantRepository struct {
	DB *gorm.DB
}

// Add 幂等插入：已存在 (activity_id, member_id) 不报错，返回是否新插入
func (r *ParticipantRepository) Add(ctx context.Context, p *model.ActivityParticipant) (bool, error) {
	if p.Status == "" {
		p.Status = model.ParticipantAttended
	}
	tx := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "activity_id"}, {Name: "member_id"}},
		DoNothing: true,
	}).Create(p)
	return tx.RowsAffected > 0, tx.Error
}

func (r *ParticipantRepository) Update(ctx context.Context, activityID, memberID string, cols map[string]any) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.ActivityParticipant{}).
		Where("activity_id = ? AND member_id = ?", activityID, memberID).
		Updates(cols)
	return tx.RowsAffected, tx.Error
}

func (r *ParticipantRepository) Remove(ctx context.Context, activityID, memberID string) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Where("activity_id = ? AND member_id = ?", activityID, memberID).
		Delete(&model.ActivityParticipant{})
	return tx.RowsAffected, tx.Error
}

func (r *ParticipantRepository) ListByActivity(ctx context.Context, activityID string) ([]model.ActivityParticipant, error) {
	var list []model.ActivityParticipant
	err := r.DB.WithContext(ctx).Where("activity_id = ?", activityID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *ParticipantRepository) ListAll(ctx context.Context) ([]model.ActivityParticipant, error) {
	var list []model.ActivityParticipant
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}

// MemberIDs 某活动已有的参与者 member_id 集合
func (r *ParticipantRepository) MemberIDs(ctx context.Context, activityID string) (map[string]bool, error) {
	var ids []string
	if err := r.DB.WithContext(ctx).Model(&model.ActivityParticipant{}).
		Where("activity_id = ?", activityID).
		Pluck("member_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
