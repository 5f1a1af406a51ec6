package exporter

import (
	"encoding/json"
	"strconv"
	"time"

	"Member_Registry/internal/model"
)

func ActivityTypesCSV(types []model.ActivityType) []byte {
	t := NewTable("id", "name", "category", "isActive")
	for _, at := range types {
		active := "Nu"
		if at.IsActive {
			active = "Da"
		}
		t.Append(strconv.FormatUint(at.ID, 10), at.Name, deref(at.Category), active)
	}
	return t.Bytes()
}

type activityTypeJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ActivityTypesJSON(types []model.ActivityType) ([]byte, error) {
	out := make([]activityTypeJSON, 0, len(types))
	for _, at := range types {
		out = append(out, activityTypeJSON{
			ID:        strconv.FormatUint(at.ID, 10),
			Name:      at.Name,
			Category:  deref(at.Category),
			IsActive:  at.IsActive,
			CreatedAt: at.CreatedAt,
			UpdatedAt: at.UpdatedAt,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
