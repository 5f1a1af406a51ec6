package sqlstore

import (
	"context"
	"time"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindByEmail 邮箱比较不区分大小写
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var p model.Profile
	if err := r.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProfileRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Profile{}).Where("LOWER(email) = LOWER(?)", email).Count(&n).Error
	return n > 0, err
}

func (r *ProfileRepository) List(ctx context.Context) ([]model.Profile, error) {
	var list []model.Profile
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *ProfileRepository) Update(ctx context.Context, id string, cols map[string]any) (int64, error) {
	cols["updated_at"] = time.Now()
	tx := r.DB.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Updates(cols)
	return tx.RowsAffected, tx.Error
}

// CountUsableAdmins 有密码且启用的管理员数量，决定是否需要初始化向导
func (r *ProfileRepository) CountUsableAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Profile{}).
		Where("role = ? AND password_hash IS NOT NULL AND is_active = ?", model.RoleAdmin, true).
		Count(&n).Error
	return n, err
}

func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Profile{}).Count(&n).Error
	return n, err
}
