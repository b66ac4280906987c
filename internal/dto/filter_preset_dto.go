package dto

import "time"

type CreateFilterPresetRequest struct {
	Name    string         `json:"name"    validate:"required,min=1,max=50"`
	Filters map[string]any `json:"filters" validate:"required"`
}

type FilterPresetResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Filters   map[string]any `json:"filters"`
	User      string         `json:"user"`
	CreatedAt time.Time      `json:"createdAt"`
}
