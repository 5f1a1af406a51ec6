package service

import (
	"context"
	"errors"
	"fmt"

	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/gorm"
)

var paymentColumns = pkg.ColumnSet(
	"member_id", "date", "year", "amount", "method", "status", "payment_type",
	"contribution_year", "observations", "source", "receipt_number", "legacy_payment_id",
)

type PaymentService struct {
	payments *sqlstore.PaymentRepository
	seq      *sqlstore.SequenceRepository
	audit    *AuditLogger
}

func NewPaymentService(db *gorm.DB, audit *AuditLogger) *PaymentService {
	return &PaymentService{
		payments: &sqlstore.PaymentRepository{DB: db},
		seq:      &sqlstore.SequenceRepository{DB: db},
		audit:    audit,
	}
}

func (s *PaymentService) List(ctx context.Context, memberID string) ([]model.Payment, error) {
	return s.payments.List(ctx, memberID)
}

// Create 编号 P-NNNNNN 由服务端生成，状态默认已付
func (s *PaymentService) Create(ctx context.Context, actor Actor, p *model.Payment) (*model.Payment, error) {
	code, err := s.seq.NextPaymentCode(ctx)
	if err != nil {
		return nil, err
	}
	p.ID = 0
	p.PaymentCode = code
	if p.Status == "" {
		p.Status = model.PaymentStatusPaid
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionCreatePayment,
		Module:     ModulePayments,
		Summary:    fmt.Sprintf("Plată creată: %s, %.2f", p.PaymentCode, p.Amount),
		EntityType: "payment",
		EntityID:   p.MemberID,
		EntityCode: p.PaymentCode,
		Metadata:   map[string]any{"amount": p.Amount, "method": p.Method, "paymentType": p.PaymentType},
		Actor:      actor,
	})
	return p, nil
}

func (s *PaymentService) Patch(ctx context.Context, actor Actor, code string, body map[string]any) (*model.Payment, error) {
	cols := pkg.PatchColumns(body, paymentColumns)
	if len(cols) == 0 {
		return s.get(ctx, code)
	}
	fields := pkg.SortedKeys(cols)
	n, err := s.payments.UpdateByCode(ctx, code, cols)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFoundOrNoChange
	}
	p, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}

	s.audit.Log(AuditEntry{
		ActionType: ActionUpdatePayment,
		Module:     ModulePayments,
		Summary:    "Plată actualizată: " + code,
		EntityType: "payment",
		EntityID:   p.MemberID,
		EntityCode: code,
		Metadata:   map[string]any{"fields": fields},
		Actor:      actor,
	})
	return p, nil
}

func (s *PaymentService) Delete(ctx context.Context, actor Actor, code string) error {
	n, err := s.payments.DeleteByCode(ctx, code)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.audit.Log(AuditEntry{
		ActionType: ActionDeletePayment,
		Module:     ModulePayments,
		Summary:    "Plată ștearsă: " + code,
		EntityType: "payment",
		EntityCode: code,
		Actor:      actor,
	})
	return nil
}

func (s *PaymentService) get(ctx context.Context, code string) (*model.Payment, error) {
	p, err := s.payments.FindByCode(ctx, code)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}
