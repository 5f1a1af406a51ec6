package sqlstore

import (
	"context"
	"strings"
	"time"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
)

type MemberRepository struct {
	DB *gorm.DB
}

func (r *MemberRepository) List(ctx context.Context) ([]model.Member, error) {
	var list []model.Member
	err := r.DB.WithContext(ctx).Order("last_name ASC, first_name ASC").Find(&list).Error
	return list, err
}

func (r *MemberRepository) FindByID(ctx context.Context, id string) (*model.Member, error) {
	var m model.Member
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *MemberRepository) FindByCode(ctx context.Context, code string) (*model.Member, error) {
	var m model.Member
	if err := r.DB.WithContext(ctx).Where("member_code = ?", code).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *MemberRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Member, error) {
	var list []model.Member
	if len(ids) == 0 {
		return list, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("last_name ASC, first_name ASC").Find(&list).Error
	return list, err
}

func (r *MemberRepository) Create(ctx context.Context, m *model.Member) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

// Update 只更新传入的列，返回受影响行数
func (r *MemberRepository) Update(ctx context.Context, id string, cols map[string]any) (int64, error) {
	cols["updated_at"] = time.Now()
	tx := r.DB.WithContext(ctx).Model(&model.Member{}).Where("id = ?", id).Updates(cols)
	return tx.RowsAffected, tx.Error
}

// Delete 硬删除
func (r *MemberRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Member{})
	return tx.RowsAffected, tx.Error
}

// ExistingCodes 返回 codes 中已经被占用的编号
func (r *MemberRepository) ExistingCodes(ctx context.Context, codes []string) ([]string, error) {
	var found []string
	if len(codes) == 0 {
		return found, nil
	}
	err := r.DB.WithContext(ctx).Model(&model.Member{}).
		Where("member_code IN ?", codes).
		Pluck("member_code", &found).Error
	return found, err
}

// SearchIDs 姓名、编号、UM、邮箱、电话模糊查询
func (r *MemberRepository) SearchIDs(ctx context.Context, query string) ([]string, error) {
	var ids []string
	query = strings.TrimSpace(query)
	if query == "" {
		return ids, nil
	}
	like := "%" + strings.ToLower(query) + "%"
	err := r.DB.WithContext(ctx).Model(&model.Member{}).
		Where("LOWER(last_name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(member_code) LIKE ? "+
			"OR LOWER(COALESCE(unit,'')) LIKE ? OR LOWER(COALESCE(email,'')) LIKE ? OR LOWER(COALESCE(phone,'')) LIKE ?",
			like, like, like, like, like, like).
		Order("last_name ASC, first_name ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *MemberRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Member{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
