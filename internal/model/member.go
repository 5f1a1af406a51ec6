package model

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const (
	MemberStatusActive    = "Activ"
	MemberStatusWithdrawn = "Retras"
)

type Member struct {
	ID                       string    `gorm:"primaryKey;size:36" json:"id"`
	MemberCode               string    `gorm:"uniqueIndex;size:16;not null" json:"memberCode"`
	Status                   string    `gorm:"size:16;not null;default:Activ;index" json:"status"`
	Rank                     string    `gorm:"size:64" json:"rank"`
	FirstName                string    `gorm:"size:100;not null;index:idx_member_name,priority:2" json:"firstName"`
	LastName                 string    `gorm:"size:100;not null;index:idx_member_name,priority:1" json:"lastName"`
	DateOfBirth              string    `gorm:"size:10" json:"dateOfBirth"`
	CNP                      string    `gorm:"column:cnp;size:128" json:"cnp"`
	Birthplace               string    `gorm:"size:128" json:"birthplace"`
	Unit                     string    `gorm:"size:64" json:"unit"`
	MainProfile              string    `gorm:"size:64" json:"mainProfile"`
	RetirementYear           *int      `json:"retirementYear"`
	RetirementDecisionNumber string    `gorm:"size:64" json:"retirementDecisionNumber"`
	RetirementFileNumber     string    `gorm:"size:64" json:"retirementFileNumber"`
	BranchEnrollmentYear     *int      `json:"branchEnrollmentYear"`
	BranchWithdrawalYear     *int      `json:"branchWithdrawalYear"`
	BranchWithdrawalReason   string    `gorm:"type:text" json:"branchWithdrawalReason"`
	WithdrawalReason         string    `gorm:"type:text" json:"withdrawalReason"`
	WithdrawalYear           *int      `json:"withdrawalYear"`
	Provenance               string    `gorm:"size:128" json:"provenance"`
	Address                  string    `gorm:"type:text" json:"address"`
	Phone                    string    `gorm:"size:32" json:"phone"`
	Email                    string    `gorm:"size:128" json:"email"`
	WhatsappGroupIds         GroupIDs  `json:"whatsappGroupIds"`
	OrganizationInvolvement  string    `gorm:"type:text" json:"organizationInvolvement"`
	MagazineContributions    string    `gorm:"type:text" json:"magazineContributions"`
	BranchNeeds              string    `gorm:"type:text" json:"branchNeeds"`
	FoundationNeeds          string    `gorm:"type:text" json:"foundationNeeds"`
	OtherNeeds               string    `gorm:"type:text" json:"otherNeeds"`
	CarMemberStatus          *string   `gorm:"size:32" json:"carMemberStatus,omitempty"`
	FoundationMemberStatus   *string   `gorm:"size:32" json:"foundationMemberStatus,omitempty"`
	FoundationRole           *string   `gorm:"size:64" json:"foundationRole,omitempty"`
	HasCurrentWorkplace      *string   `gorm:"size:16" json:"hasCurrentWorkplace,omitempty"`
	CurrentWorkplace         string    `gorm:"size:128" json:"currentWorkplace"`
	OtherObservations        string    `gorm:"type:text" json:"otherObservations"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

func (m *Member) FullName() string {
	return strings.TrimSpace(m.LastName + " " + m.FirstName)
}

// GroupIDs postgres 下存 text[]，其他库存 JSON 文本
type GroupIDs []string

func (GroupIDs) GormDataType() string {
	return "group_ids"
}

func (GroupIDs) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (g GroupIDs) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	ids := []string(g)
	if ids == nil {
		ids = []string{}
	}
	if db.Dialector.Name() == "postgres" {
		return clause.Expr{SQL: "?", Vars: []any{pq.StringArray(ids)}}
	}
	b, _ := json.Marshal(ids)
	return clause.Expr{SQL: "?", Vars: []any{string(b)}}
}

func (g GroupIDs) Value() (driver.Value, error) {
	ids := []string(g)
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	return string(b), err
}

func (g *GroupIDs) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*g = GroupIDs{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("group ids: unsupported type %T", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*g = GroupIDs{}
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return err
		}
		*g = ids
		return nil
	}

	// postgres 数组字面量 {a,b}
	var arr pq.StringArray
	if err := arr.Scan(raw); err != nil {
		return err
	}
	*g = GroupIDs(arr)
	return nil
}

func (g GroupIDs) MarshalJSON() ([]byte, error) {
	if g == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(g))
}
