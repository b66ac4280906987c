package dto

// Envelope is the success body for every JSON endpoint.
type Envelope struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
	Data    any  `json:"data"`
}

// ListResponse is returned by the list endpoints.
type ListResponse struct {
	Success bool  `json:"success"`
	Count   int   `json:"count"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Data    any   `json:"data"`
}

// ── Bulk operations ───────────────────────────────────────────────────────────

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
}

// BulkItemResult is the per-item outcome of a bulk operation.
type BulkItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// BulkResponse is success=true only when every item succeeded.
type BulkResponse struct {
	Success   bool             `json:"success"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BulkItemResult `json:"results"`
}

// NewBulkResponse tallies per-item results.
func NewBulkResponse(results []BulkItemResult) BulkResponse {
	resp := BulkResponse{Results: results}
	for _, r := range results {
		if r.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	resp.Success = resp.Failed == 0
	return resp
}
