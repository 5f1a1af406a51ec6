package sqlstore

import (
	"context"
	"time"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	DB *gorm.DB
}

// List 按日期倒序，memberID 为空时返回全部
func (r *PaymentRepository) List(ctx context.Context, memberID string) ([]model.Payment, error) {
	var list []model.Payment
	q := r.DB.WithContext(ctx).Order("date DESC").Order("id DESC")
	if memberID != "" {
		q = q.Where("member_id = ?", memberID)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *PaymentRepository) FindByCode(ctx context.Context, code string) (*model.Payment, error) {
	var p model.Payment
	if err := r.DB.WithContext(ctx).Where("payment_code = ?", code).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) UpdateByCode(ctx context.Context, code string, cols map[string]any) (int64, error) {
	cols["updated_at"] = time.Now()
	tx := r.DB.WithContext(ctx).Model(&model.Payment{}).Where("payment_code = ?", code).Updates(cols)
	return tx.RowsAffected, tx.Error
}

func (r *PaymentRepository) DeleteByCode(ctx context.Context, code string) (int64, error) {
	tx := r.DB.WithContext(ctx).Where("payment_code = ?", code).Delete(&model.Payment{})
	return tx.RowsAffected, tx.Error
}

// SumForYear 某年已付款总额
func (r *PaymentRepository) SumForYear(ctx context.Context, year int, status string) (float64, error) {
	var total float64
	err := r.DB.WithContext(ctx).Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("year = ? AND status = ?", year, status).
		Scan(&total).Error
	return total, err
}
