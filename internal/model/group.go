package model

import "time"

const (
	GroupStatusActive   = "Active"
	GroupStatusArchived = "Archived"
)

type WhatsAppGroup struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	Name        string    `gorm:"size:128;not null;index" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Status      string    `gorm:"size:16;not null;default:Active" json:"status"`
	MemberCount int64     `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (WhatsAppGroup) TableName() string { return "whatsapp_groups" }

// MemberGroup 成员与群组的关联行
type MemberGroup struct {
	ID       uint64    `gorm:"primaryKey" json:"-"`
	MemberID string    `gorm:"size:36;not null;index;uniqueIndex:uk_member_group" json:"member_id"`
	GroupID  string    `gorm:"size:32;not null;index;uniqueIndex:uk_member_group" json:"group_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
	AddedBy  *string   `gorm:"size:36" json:"added_by"`
	Notes    *string   `gorm:"type:text" json:"notes"`
}

func (MemberGroup) TableName() string { return "whatsapp_group_members" }
