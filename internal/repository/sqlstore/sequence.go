package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"Member_Registry/internal/model"

	"gorm.io/gorm"
)

// 编号生成：读当前最大值再 +1，没有加锁。
// 并发创建时可能拿到相同编号，由唯一索引拒绝后者。
const sequenceScanLimit = 50

const (
	memberCodeWidth   = 5
	paymentCodeWidth  = 6
	activityIDWidth   = 4
	paymentCodePrefix = "P-"
	activityIDPrefix  = "ACT-"
)

type SequenceRepository struct {
	DB *gorm.DB
}

// NextMemberCode 下一个会员编号，只认 5 位纯数字编号，空表时为 00001
func (r *SequenceRepository) NextMemberCode(ctx context.Context) (string, error) {
	codes, err := r.NextMemberCodes(ctx, 1)
	if err != nil {
		return "", err
	}
	return codes[0], nil
}

// NextMemberCodes 连续的 n 个会员编号
func (r *SequenceRepository) NextMemberCodes(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	max, err := r.maxNumber(ctx, &model.Member{}, "member_code", "", memberCodeWidth)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, PadNumber(max+i, memberCodeWidth))
	}
	return out, nil
}

func (r *SequenceRepository) NextPaymentCode(ctx context.Context) (string, error) {
	max, err := r.maxNumber(ctx, &model.Payment{}, "payment_code", paymentCodePrefix, paymentCodeWidth)
	if err != nil {
		return "", err
	}
	return paymentCodePrefix + PadNumber(max+1, paymentCodeWidth), nil
}

func (r *SequenceRepository) NextActivityID(ctx context.Context) (string, error) {
	max, err := r.maxNumber(ctx, &model.Activity{}, "id", activityIDPrefix, 0)
	if err != nil {
		return "", err
	}
	return activityIDPrefix + PadNumber(max+1, activityIDWidth), nil
}

// maxNumber width > 0 时只看前缀后恰好 width 位数字的值；width 为 0 不限位数。
// 按页扫描，直到找到第一个能解析的值或扫完。
func (r *SequenceRepository) maxNumber(ctx context.Context, m any, column, prefix string, width int) (int, error) {
	q := r.DB.WithContext(ctx).Model(m)
	if prefix != "" {
		q = q.Where(column+" LIKE ?", prefix+"%")
	}
	if width > 0 {
		q = q.Where(fmt.Sprintf("LENGTH(%s) = ?", column), len(prefix)+width)
	}
	q = q.Order(fmt.Sprintf("LENGTH(%s) DESC, %s DESC", column, column))

	for offset := 0; ; offset += sequenceScanLimit {
		var values []string
		if err := q.Session(&gorm.Session{}).
			Limit(sequenceScanLimit).
			Offset(offset).
			Pluck(column, &values).Error; err != nil {
			return 0, err
		}
		for _, v := range values {
			if n, ok := ParseSuffix(v, prefix); ok {
				return n, nil
			}
		}
		if len(values) < sequenceScanLimit {
			return 0, nil
		}
	}
}

// ParseSuffix 去掉前缀后必须全是数字
func ParseSuffix(value, prefix string) (int, bool) {
	if !strings.HasPrefix(value, prefix) {
		return 0, false
	}
	digits := strings.TrimPrefix(value, prefix)
	if digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func PadNumber(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
