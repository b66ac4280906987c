package repository

import (
	"context"

	"github.com/RatanSinghYadav/scheme-app-api/internal/filter"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFields is the allow list for product list queries. Public names
// follow the external source's column names.
var ProductFields = filter.AllowList{
	"ITEMID":            {Column: "item_id"},
	"ITEMNAME":          {Column: "item_name"},
	"BRANDNAME":         {Column: "brand_name"},
	"FLAVOURTYPE":       {Column: "flavour_type"},
	"PACKTYPEGROUPNAME": {Column: "pack_type_group_name"},
	"Style":             {Column: "style"},
	"PACKTYPE":          {Column: "pack_type"},
	"Configuration":     {Column: "configuration"},
	"NOB":               {Column: "nob", Kind: filter.Int},
	"createdAt":         {Column: "created_at", Kind: filter.Time},
}

// BrandStatRow and PackTypeStatRow are aggregation results.
type BrandStatRow struct {
	Brand  string
	Count  int64
	AvgMrp *float64
}

type PackTypeStatRow struct {
	PackType string
	Count    int64
}

// ProductRepository defines the data access contract for master products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByNaturalKey(ctx context.Context, itemID, style, configuration string) (*model.Product, error)
	List(ctx context.Context, spec filter.Spec) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	BrandStats(ctx context.Context) ([]BrandStatRow, error)
	PackTypeStats(ctx context.Context) ([]PackTypeStatRow, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByNaturalKey(ctx context.Context, itemID, style, configuration string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND style = ? AND configuration = ?", itemID, style, configuration).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, spec filter.Spec) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})
	if err := spec.ApplyWhere(q).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := spec.Apply(r.db.WithContext(ctx).Model(&model.Product{})).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BrandStats groups products by brand. avgMrp averages Configuration where it
// holds a plain number; other values are ignored.
func (r *productRepo) BrandStats(ctx context.Context) ([]BrandStatRow, error) {
	var rows []BrandStatRow
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select(`brand_name AS brand, COUNT(*) AS count,
			AVG(CASE WHEN configuration ~ '^[0-9]+(\.[0-9]+){0,1}$' THEN configuration::numeric END)::float8 AS avg_mrp`).
		Group("brand_name").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *productRepo) PackTypeStats(ctx context.Context) ([]PackTypeStatRow, error) {
	var rows []PackTypeStatRow
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("pack_type, COUNT(*) AS count").
		Group("pack_type").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}
