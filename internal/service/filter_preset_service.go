package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FilterPresetService interface {
	List(ctx context.Context, owner uuid.UUID) ([]dto.FilterPresetResponse, error)
	Create(ctx context.Context, owner uuid.UUID, req dto.CreateFilterPresetRequest) (*dto.FilterPresetResponse, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

type filterPresetService struct {
	repo repository.FilterPresetRepository
}

func NewFilterPresetService(repo repository.FilterPresetRepository) FilterPresetService {
	return &filterPresetService{repo: repo}
}

func (s *filterPresetService) List(ctx context.Context, owner uuid.UUID) ([]dto.FilterPresetResponse, error) {
	list, err := s.repo.ListByUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FilterPresetResponse, len(list))
	for i := range list {
		out[i] = presetToResponse(&list[i])
	}
	return out, nil
}

func (s *filterPresetService) Create(ctx context.Context, owner uuid.UUID, req dto.CreateFilterPresetRequest) (*dto.FilterPresetResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	p := &model.FilterPreset{Name: name, Filters: datatypes.JSONMap(req.Filters), UserID: owner}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := presetToResponse(p)
	return &resp, nil
}

// Delete only removes presets owned by the caller.
func (s *filterPresetService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "filter preset")
	}
	if p.UserID != owner {
		return fmt.Errorf("%w: filter preset belongs to another user", ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

func presetToResponse(p *model.FilterPreset) dto.FilterPresetResponse {
	filters := map[string]any(p.Filters)
	if filters == nil {
		filters = map[string]any{}
	}
	return dto.FilterPresetResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Filters:   filters,
		User:      p.UserID.String(),
		CreatedAt: p.CreatedAt,
	}
}
