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

// ProductService is the manual CRUD surface over master products. The sync job
// writes through the repository directly.
type ProductService interface {
	List(ctx context.Context, q url.Values) (*Page[dto.ProductResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	Create(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BulkDelete(ctx context.Context, ids []string) []dto.BulkItemResult
	Import(ctx context.Context, items []dto.ProductRequest) (*dto.ProductImportResponse, error)
	Stats(ctx context.Context) (*dto.ProductStatsResponse, error)
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) List(ctx context.Context, q url.Values) (*Page[dto.ProductResponse], error) {
	spec, err := parseQuery(q, repository.ProductFields, "ITEMID")
	if err != nil {
		return nil, err
	}
	products, total, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, len(products))
	for i := range products {
		items[i] = productToResponse(&products[i])
	}
	return &Page[dto.ProductResponse]{Items: items, Total: total, Page: spec.Page, Limit: spec.Limit}, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Create(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p := productFromRequest(req)
	if _, err := s.repo.FindByNaturalKey(ctx, p.ItemID, p.Style, p.Configuration); err == nil {
		return nil, fmt.Errorf("%w: product %s/%s/%s already exists", ErrConflict, p.ItemID, p.Style, p.Configuration)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: product already exists", ErrConflict)
		}
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	setString(&p.ItemName, req.ItemName)
	setString(&p.BrandName, req.BrandName)
	setString(&p.FlavourType, req.FlavourType)
	setString(&p.PackTypeGroupName, req.PackTypeGroupName)
	setString(&p.Style, req.Style)
	setString(&p.PackType, req.PackType)
	setString(&p.Configuration, req.Configuration)
	if req.NOB != nil {
		p.NOB = req.NOB
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: another product has the same item, style and configuration", ErrConflict)
		}
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, id), "product")
}

func (s *productService) BulkDelete(ctx context.Context, ids []string) []dto.BulkItemResult {
	results := make([]dto.BulkItemResult, 0, len(ids))
	for _, raw := range ids {
		res := dto.BulkItemResult{ID: raw}
		id, err := parseID(raw, "id")
		if err == nil {
			err = s.Delete(ctx, id)
		}
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
		}
		results = append(results, res)
	}
	return results
}

// Import upserts each item by natural key. Failures are reported per item and
// never abort the batch.
func (s *productService) Import(ctx context.Context, items []dto.ProductRequest) (*dto.ProductImportResponse, error) {
	resp := &dto.ProductImportResponse{}
	for i, req := range items {
		incoming := productFromRequest(req)
		if incoming.ItemID == "" {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.BulkItemResult{ID: fmt.Sprintf("#%d", i), Error: "ITEMID is required"})
			continue
		}
		existing, err := s.repo.FindByNaturalKey(ctx, incoming.ItemID, incoming.Style, incoming.Configuration)
		switch {
		case err == nil:
			incoming.ID = existing.ID
			incoming.CreatedAt = existing.CreatedAt
			err = s.repo.Update(ctx, incoming)
			if err == nil {
				resp.Updated++
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = s.repo.Create(ctx, incoming)
			if err == nil {
				resp.Created++
			}
		}
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.BulkItemResult{ID: incoming.ItemID, Error: err.Error()})
		}
	}
	return resp, nil
}

func (s *productService) Stats(ctx context.Context) (*dto.ProductStatsResponse, error) {
	brands, err := s.repo.BrandStats(ctx)
	if err != nil {
		return nil, err
	}
	packs, err := s.repo.PackTypeStats(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductStatsResponse{
		BrandStats:    make([]dto.BrandStat, len(brands)),
		PackTypeStats: make([]dto.PackTypeStat, len(packs)),
	}
	for i, b := range brands {
		resp.BrandStats[i] = dto.BrandStat{Brand: b.Brand, Count: b.Count, AvgMrp: b.AvgMrp}
	}
	for i, p := range packs {
		resp.PackTypeStats[i] = dto.PackTypeStat{PackType: p.PackType, Count: p.Count}
	}
	return resp, nil
}

func productFromRequest(req dto.ProductRequest) *model.Product {
	return &model.Product{
		ItemID:            strings.TrimSpace(req.ItemID),
		ItemName:          strings.TrimSpace(req.ItemName),
		BrandName:         strings.TrimSpace(req.BrandName),
		FlavourType:       strings.TrimSpace(req.FlavourType),
		PackTypeGroupName: strings.TrimSpace(req.PackTypeGroupName),
		Style:             strings.TrimSpace(req.Style),
		PackType:          strings.TrimSpace(req.PackType),
		Configuration:     strings.TrimSpace(req.Configuration),
		NOB:               req.NOB,
	}
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:                p.ID.String(),
		ItemID:            p.ItemID,
		ItemName:          p.ItemName,
		BrandName:         p.BrandName,
		FlavourType:       p.FlavourType,
		PackTypeGroupName: p.PackTypeGroupName,
		Style:             p.Style,
		PackType:          p.PackType,
		Configuration:     p.Configuration,
		NOB:               p.NOB,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
