package model

import "time"

const (
	ActivityStatusActive   = "active"
	ActivityStatusArchived = "archived"

	ParticipantInvited   = "invited"
	ParticipantAttended  = "attended"
	ParticipantOrganizer = "organizer"
)

type ActivityType struct {
	ID        uint64    `gorm:"primaryKey" json:"id,string"`
	Name      string    `gorm:"size:128;not null;index" json:"name"`
	Category  *string   `gorm:"size:64" json:"category"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Activity struct {
	ID                string     `gorm:"primaryKey;size:16" json:"id"`
	TypeID            *uint64    `gorm:"index" json:"type_id"`
	Title             *string    `gorm:"size:255" json:"title"`
	DateFrom          *string    `gorm:"size:10;index" json:"date_from"`
	DateTo            *string    `gorm:"size:10" json:"date_to"`
	Location          *string    `gorm:"size:255" json:"location"`
	Notes             *string    `gorm:"type:text" json:"notes"`
	Status            string     `gorm:"size:16;not null;default:active" json:"status"`
	ArchivedAt        *time.Time `json:"archived_at"`
	ArchivedBy        *string    `gorm:"size:36" json:"archived_by"`
	CreatedBy         *string    `gorm:"size:36" json:"created_by"`
	ParticipantsCount int64      `gorm:"not null;default:0" json:"participants_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type ActivityParticipant struct {
	ID         uint64    `gorm:"primaryKey" json:"-"`
	ActivityID string    `gorm:"size:16;not null;index;uniqueIndex:uk_activity_member" json:"activity_id"`
	MemberID   string    `gorm:"size:36;not null;index;uniqueIndex:uk_activity_member" json:"member_id"`
	Status     string    `gorm:"size:16;not null;default:attended" json:"status"`
	Note       *string   `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}
