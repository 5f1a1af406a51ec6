package sqlstore

import (
	"context"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
)

// CountPair 冗余计数和真实计数
type CountPair struct {
	ID     string
	Stored int64
	Actual int64
}

type CountReconcilerRepo struct {
	DB *gorm.DB
}

// StaleActivities participants_count 与真实数量不一致的活动
func (r *CountReconcilerRepo) StaleActivities(ctx context.Context, batchSize int) ([]CountPair, error) {
	var list []CountPair
	err := r.DB.WithContext(ctx).Model(&model.Activity{}).
		Select("activities.id AS id, activities.participants_count AS stored, " +
			"(SELECT count(*) FROM activity_participants ap WHERE ap.activity_id = activities.id) AS actual").
		Where("activities.participants_count <> (SELECT count(*) FROM activity_participants ap WHERE ap.activity_id = activities.id)").
		Order("activities.id ASC").
		Limit(batchSize).
		Scan(&list).Error
	return list, err
}

// StaleGroups member_count 与真实数量不一致的群组
func (r *CountReconcilerRepo) StaleGroups(ctx context.Context, batchSize int) ([]CountPair, error) {
	var list []CountPair
	err := r.DB.WithContext(ctx).Model(&model.WhatsAppGroup{}).
		Select("whatsapp_groups.id AS id, whatsapp_groups.member_count AS stored, " +
			"(SELECT count(*) FROM whatsapp_group_members gm WHERE gm.group_id = whatsapp_groups.id) AS actual").
		Where("whatsapp_groups.member_count <> (SELECT count(*) FROM whatsapp_group_members gm WHERE gm.group_id = whatsapp_groups.id)").
		Order("whatsapp_groups.id ASC").
		Limit(batchSize).
		Scan(&list).Error
	return list, err
}

func (r *CountReconcilerRepo) FixActivity(ctx context.Context, id string, actual int64) error {
	return r.DB.WithContext(ctx).Model(&model.Activity{}).Where("id = ?", id).
		UpdateColumn("participants_count", actual).Error
}

func (r *CountReconcilerRepo) FixGroup(ctx context.Context, id string, actual int64) error {
	return r.DB.WithContext(ctx).Model(&model.WhatsAppGroup{}).Where("id = ?", id).
		UpdateColumn("member_count", actual).Error
}
