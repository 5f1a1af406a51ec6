package model

import "time"

const (
	PaymentStatusPaid    = "Plătită"
	PaymentStatusDue     = "Scadentă"
	PaymentStatusOverdue = "Restanță"

	PaymentMethodCash     = "Numerar"
	PaymentMethodCard     = "Card / Online"
	PaymentMethodTransfer = "Transfer Bancar"

	PaymentTypeEnrollment   = "Taxă de înscriere"
	PaymentTypeContribution = "Cotizație"
	PaymentTypeReenrollment = "Taxă de reînscriere"
)

type Payment struct {
	ID               uint64    `gorm:"primaryKey" json:"-"`
	PaymentCode      string    `gorm:"uniqueIndex;size:16;not null" json:"id"`
	MemberID         string    `gorm:"size:36;not null;index" json:"memberId"`
	Date             string    `gorm:"size:10;not null;index" json:"date"`
	Year             *int      `json:"year"`
	Amount           float64   `gorm:"not null;default:0" json:"amount"`
	Method           string    `gorm:"size:32" json:"method"`
	Status           string    `gorm:"size:32" json:"status"`
	PaymentType      string    `gorm:"size:32" json:"paymentType"`
	ContributionYear *int      `json:"contributionYear,omitempty"`
	Observations     *string   `gorm:"type:text" json:"observations,omitempty"`
	Source           *string   `gorm:"size:64" json:"source,omitempty"`
	ReceiptNumber    *string   `gorm:"size:64" json:"receiptNumber,omitempty"`
	LegacyPaymentID  *string   `gorm:"size:64" json:"legacyPaymentId,omitempty"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}
