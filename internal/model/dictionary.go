package model

import "time"

type UMUnit struct {
	ID        uint64    `gorm:"primaryKey" json:"id,string"`
	Code      string    `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Name      *string   `gorm:"size:255" json:"name"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UMUnit) TableName() string { return "um_units" }

const (
	ValueListRanks    = "ranks"
	ValueListProfiles = "profiles"
)

// ValueListItem grade / profile 这类可编辑的下拉列表
type ValueListItem struct {
	ID        uint64 `gorm:"primaryKey" json:"-"`
	List      string `gorm:"size:32;not null;uniqueIndex:uk_list_value" json:"list"`
	Value     string `gorm:"size:128;not null;uniqueIndex:uk_list_value" json:"value"`
	SortOrder int    `gorm:"not null;default:0" json:"sortOrder"`
}

var DefaultRanks = []string{
	"General",
	"Amiral",
	"General-locotenent",
	"Viceamiral",
	"General-maior",
	"Contraamiral",
	"General de brigadă",
	"General de flotilă aeriană",
	"Contraamiral de flotilă",
	"Colonel",
	"Comandor",
	"Locotenent-colonel",
	"Căpitan-comandor",
	"Maior",
	"Locotenent-comandor",
	"Căpitan",
	"Locotenent-major",
	"Locotenent",
	"Sublocotenent",
	"Aspirant",
	"Maistru militar principal",
	"Maistru militar clasa I",
	"Maistru militar clasa II",
	"Maistru militar clasa III",
	"Maistru militar clasa IV",
	"Maistru militar clasa V",
	"Plutonier adjutant șef",
	"Plutonier adjutant principal",
	"Plutonier adjutant",
	"Plutonier major",
	"Plutonier",
	"Sergent major",
	"Sergent",
	"Caporal clasa I",
	"Caporal clasa II",
	"Caporal clasa III",
	"Fruntaș",
	"Soldat",
}

var DefaultProfiles = []string{"Comandă", "Logistică", "Informații", "Comunicații", "Medical", "Juridic"}
