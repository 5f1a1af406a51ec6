package sqlstore

import (
	"context"
	"time"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
)

type ActivityTypeRepository struct {
	DB *gorm.DB
}

func (r *ActivityTypeRepository) List(ctx context.Context) ([]model.ActivityType, error) {
	var list []model.ActivityType
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *ActivityTypeRepository) FindByID(ctx context.Context, id uint64) (*model.ActivityType, error) {
	var t model.ActivityType
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *ActivityTypeRepository) Create(ctx context.Context, t *model.ActivityType) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *ActivityTypeRepository) Update(ctx context.Context, id uint64, cols map[string]any) (int64, error) {
	cols["updated_at"] = time.Now()
	tx := r.DB.WithContext(ctx).Model(&model.ActivityType{}).Where("id = ?", id).Updates(cols)
	return tx.RowsAffected, tx.Error
}

func (r *ActivityTypeRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).Delete(&model.ActivityType{}, id)
	return tx.RowsAffected, tx.Error
}

// DeactivateExcept 替换导入时停用文件里没有的类型
func (r *ActivityTypeRepository) DeactivateExcept(ctx context.Context, keep []uint64) error {
	q := r.DB.WithContext(ctx).Model(&model.ActivityType{})
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	} else {
		q = q.Where("1 = 1")
	}
	return q.Updates(map[string]any{"is_active": false, "updated_at": time.Now()}).Error
}

type UnitRepository struct {
	DB *gorm.DB
}

// List includeInactive=false 时只返回启用的 UM
func (r *UnitRepository) List(ctx context.Context, includeInactive bool) ([]model.UMUnit, error) {
	var list []model.UMUnit
	q := r.DB.WithContext(ctx).Order("code ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *UnitRepository) FindByID(ctx context.Context, id uint64) (*model.UMUnit, error) {
	var u model.UMUnit
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UnitRepository) Create(ctx context.Context, u *model.UMUnit) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *UnitRepository) Update(ctx context.Context, id uint64, cols map[string]any) (int64, error) {
	cols["updated_at"] = time.Now()
	tx := r.DB.WithContext(ctx).Model(&model.UMUnit{}).Where("id = ?", id).Updates(cols)
	return tx.RowsAffected, tx.Error
}

func (r *UnitRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).Delete(&model.UMUnit{}, id)
	return tx.RowsAffected, tx.Error
}

type ValueListRepository struct {
	DB *gorm.DB
}

func (r *ValueListRepository) List(ctx context.Context, list string) ([]string, error) {
	var values []string
	err := r.DB.WithContext(ctx).Model(&model.ValueListItem{}).
		Where("list = ?", list).
		Order("sort_order ASC").
		Pluck("value", &values).Error
	return values, err
}

// Replace 整体替换一个列表
func (r *ValueListRepository) Replace(ctx context.Context, list string, values []string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list = ?", list).Delete(&model.ValueListItem{}).Error; err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}
		items := make([]model.ValueListItem, 0, len(values))
		for i, v := range values {
			items = append(items, model.ValueListItem{List: list, Value: v, SortOrder: i})
		}
		return tx.Create(&items).Error
	})
}

// SeedDefaults 列表为空时写入内置的军衔和专业
func (r *ValueListRepository) SeedDefaults(ctx context.Context) error {
	defaults := map[string][]string{
		model.ValueListRanks:    model.DefaultRanks,
		model.ValueListProfiles: model.DefaultProfiles,
	}
	for list, values := range defaults {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&model.ValueListItem{}).Where("list = ?", list).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if err := r.Replace(ctx, list, values); err != nil {
			return err
		}
	}
	return nil
}
