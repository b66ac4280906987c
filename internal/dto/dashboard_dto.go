package dto

import "time"

type DashboardStats struct {
	Total       int64 `json:"total"`
	Verified    int64 `json:"verified"`
	Pending     int64 `json:"pending"`
	Rejected    int64 `json:"rejected"`
	ActiveToday int64 `json:"activeToday"`
}

type Activity struct {
	Type      string    `json:"type"`
	User      string    `json:"user"`
	SchemeID  string    `json:"schemeId"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}
