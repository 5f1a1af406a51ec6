package sqlstore

import (
	"context"
	"time"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository struct {
	DB *gorm.DB
}

func (r *GroupRepository) List(ctx context.Context) ([]model.WhatsAppGroup, error) {
	var list []model.WhatsAppGroup
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*model.WhatsAppGroup, error) {
	var g model.WhatsAppGroup
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *GroupRepository) Create(ctx context.Context, g *model.WhatsAppGroup) error {
	return r.DB.WithContext(ctx).Create(g).Error
}

func (r *GroupRepository) Update(ctx context.Context, id string, cols map[string]any) (int64, error) {
	cols["updated_at"] = time.Now()
	tx := r.DB.WithContext(ctx).Model(&model.WhatsAppGroup{}).Where("id = ?", id).Updates(cols)
	return tx.RowsAffected, tx.Error
}

// Delete 先清空成员关系再删群组
func (r *GroupRepository) Delete(ctx context.Context, id string) (int64, error) {
	if err := r.DB.WithContext(ctx).Where("group_id = ?", id).Delete(&model.MemberGroup{}).Error; err != nil {
		return 0, err
	}
	tx := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.WhatsAppGroup{})
	return tx.RowsAffected, tx.Error
}

// RecountMembers 用 count(*) 回写 member_count
func (r *GroupRepository) RecountMembers(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.WhatsAppGroup{}).Where("id = ?", id).
		Updates(map[string]any{
			"member_count": gorm.Expr("(SELECT count(*) FROM whatsapp_group_members WHERE group_id = ?)", id),
			"updated_at":   time.Now(),
		}).Error
}

type MemberGroupRepository struct {
	DB *gorm.DB
}

func (r *MemberGroupRepository) List(ctx context.Context) ([]model.MemberGroup, error) {
	var list []model.MemberGroup
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *MemberGroupRepository) ListByGroup(ctx context.Context, groupID string) ([]model.MemberGroup, error) {
	var list []model.MemberGroup
	err := r.DB.WithContext(ctx).Where("group_id = ?", groupID).Order("joined_at ASC").Find(&list).Error
	return list, err
}

// Join 幂等插入：若已存在 (member_id, group_id) 则不报错
func (r *MemberGroupRepository) Join(ctx context.Context, mg *model.MemberGroup) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "group_id"}},
		DoNothing: true,
	}).Create(mg).Error
}

func (r *MemberGroupRepository) Leave(ctx context.Context, memberID, groupID string) error {
	return r.DB.WithContext(ctx).Where("member_id = ? AND group_id = ?", memberID, groupID).
		Delete(&model.MemberGroup{}).Error
}

func (r *MemberGroupRepository) ClearGroup(ctx context.Context, groupID string) error {
	return r.DB.WithContext(ctx).Where("group_id = ?", groupID).Delete(&model.MemberGroup{}).Error
}

type groupCount struct {
	GroupID string
	N       int64
}

// CountByGroup 按群组实时统计成员数
func (r *MemberGroupRepository) CountByGroup(ctx context.Context) (map[string]int64, error) {
	var rows []groupCount
	err := r.DB.WithContext(ctx).Model(&model.MemberGroup{}).
		Select("group_id, count(*) AS n").
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.GroupID] = row.N
	}
	return out, nil
}
