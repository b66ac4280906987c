package repository

import (
	"context"

	"github.com/RatanSinghYadav/scheme-app-api/internal/filter"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var DistributorFields = filter.AllowList{
	"SMCODE":           {Column: "sm_code"},
	"CUSTOMERACCOUNT":  {Column: "customer_account"},
	"ORGANIZATIONNAME": {Column: "organization_name"},
	"ADDRESSCITY":      {Column: "address_city"},
	"CUSTOMERGROUPID":  {Column: "customer_group_id"},
	"createdAt":        {Column: "created_at", Kind: filter.Time},
}

type DistributorRepository interface {
	Create(ctx context.Context, d *model.Distributor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Distributor, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Distributor, error)
	FindByAccount(ctx context.Context, account string) (*model.Distributor, error)
	List(ctx context.Context, spec filter.Spec) ([]model.Distributor, int64, error)
	Update(ctx context.Context, d *model.Distributor) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type distributorRepo struct{ db *gorm.DB }

func NewDistributorRepository(db *gorm.DB) DistributorRepository {
	return &distributorRepo{db: db}
}

func (r *distributorRepo) Create(ctx context.Context, d *model.Distributor) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *distributorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Distributor, error) {
	var d model.Distributor
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *distributorRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Distributor, error) {
	var list []model.Distributor
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *distributorRepo) FindByAccount(ctx context.Context, account string) (*model.Distributor, error) {
	var d model.Distributor
	if err := r.db.WithContext(ctx).Where("customer_account = ?", account).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *distributorRepo) List(ctx context.Context, spec filter.Spec) ([]model.Distributor, int64, error) {
	var list []model.Distributor
	var total int64

	if err := spec.ApplyWhere(r.db.WithContext(ctx).Model(&model.Distributor{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := spec.Apply(r.db.WithContext(ctx).Model(&model.Distributor{})).Find(&list).Error
	return list, total, err
}

func (r *distributorRepo) Update(ctx context.Context, d *model.Distributor) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *distributorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Distributor{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
