package service

import (
	"context"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"
)

const recentActivityLimit = 10

// activityTypes maps history actions onto the dashboard feed vocabulary.
var activityTypes = map[string]string{
	model.ActionCreated:  "create",
	model.ActionVerified: "verify",
	model.ActionRejected: "reject",
	model.ActionModified: "update",
}

type DashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, error)
	Activities(ctx context.Context) ([]dto.Activity, error)
}

type dashboardService struct {
	schemes repository.SchemeRepository
	now     func() time.Time
}

func NewDashboardService(schemes repository.SchemeRepository) DashboardService {
	return &dashboardService{schemes: schemes, now: time.Now}
}

// Stats counts schemes per status. ActiveToday counts verified schemes whose
// period contains the current UTC day.
func (s *dashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	var stats dto.DashboardStats
	counts := []struct {
		dst    *int64
		status string
	}{
		{&stats.Total, ""},
		{&stats.Verified, model.StatusVerified},
		{&stats.Pending, model.StatusPendingVerification},
		{&stats.Rejected, model.StatusRejected},
	}
	for _, c := range counts {
		n, err := s.schemes.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	today := NormalizeSchemeDate(s.now(), 0)
	n, err := s.schemes.CountActiveOn(ctx, today)
	if err != nil {
		return nil, err
	}
	stats.ActiveToday = n
	return &stats, nil
}

func (s *dashboardService) Activities(ctx context.Context) ([]dto.Activity, error) {
	rows, err := s.schemes.RecentActivity(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Activity, len(rows))
	for i, r := range rows {
		typ, ok := activityTypes[r.Action]
		if !ok {
			typ = r.Action
		}
		user := "Unknown User"
		if r.UserName != nil && *r.UserName != "" {
			user = *r.UserName
		}
		out[i] = dto.Activity{Type: typ, User: user, SchemeID: r.SchemeCode, Timestamp: r.Timestamp, Notes: r.Notes}
	}
	return out, nil
}
