package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DistributorService interface {
	List(ctx context.Context, q url.Values) (*Page[dto.DistributorResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*dto.DistributorResponse, error)
	Create(ctx context.Context, req dto.DistributorRequest) (*dto.DistributorResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateDistributorRequest) (*dto.DistributorResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type distributorService struct {
	repo repository.DistributorRepository
}

func NewDistributorService(repo repository.DistributorRepository) DistributorService {
	return &distributorService{repo: repo}
}

func (s *distributorService) List(ctx context.Context, q url.Values) (*Page[dto.DistributorResponse], error) {
	spec, err := parseQuery(q, repository.DistributorFields, "ORGANIZATIONNAME")
	if err != nil {
		return nil, err
	}
	list, total, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	items := make([]dto.DistributorResponse, len(list))
	for i := range list {
		items[i] = distributorToResponse(&list[i])
	}
	return &Page[dto.DistributorResponse]{Items: items, Total: total, Page: spec.Page, Limit: spec.Limit}, nil
}

func (s *distributorService) Get(ctx context.Context, id uuid.UUID) (*dto.DistributorResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "distributor")
	}
	resp := distributorToResponse(d)
	return &resp, nil
}

func (s *distributorService) Create(ctx context.Context, req dto.DistributorRequest) (*dto.DistributorResponse, error) {
	d := &model.Distributor{
		CustomerAccount:  strings.TrimSpace(req.CustomerAccount),
		SMCode:           strings.TrimSpace(req.SMCode),
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		AddressCity:      strings.TrimSpace(req.AddressCity),
		CustomerGroupID:  strings.TrimSpace(req.CustomerGroupID),
	}
	_, err := s.repo.FindByAccount(ctx, d.CustomerAccount)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: customer account %s already exists", ErrConflict, d.CustomerAccount)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: customer account %s already exists", ErrConflict, d.CustomerAccount)
		}
		return nil, err
	}
	resp := distributorToResponse(d)
	return &resp, nil
}

func (s *distributorService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateDistributorRequest) (*dto.DistributorResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "distributor")
	}
	setString(&d.SMCode, req.SMCode)
	setString(&d.OrganizationName, req.OrganizationName)
	setString(&d.AddressCity, req.AddressCity)
	setString(&d.CustomerGroupID, req.CustomerGroupID)
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	resp := distributorToResponse(d)
	return &resp, nil
}

// Delete removes the master record only. Schemes that reference it keep the
// id and render it as unresolved.
func (s *distributorService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, id), "distributor")
}

func distributorToResponse(d *model.Distributor) dto.DistributorResponse {
	return dto.DistributorResponse{
		ID:               d.ID.String(),
		CustomerAccount:  d.CustomerAccount,
		SMCode:           d.SMCode,
		OrganizationName: d.OrganizationName,
		AddressCity:      d.AddressCity,
		CustomerGroupID:  d.CustomerGroupID,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
