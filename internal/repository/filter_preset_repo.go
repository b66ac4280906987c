package repository

import (
	"context"

	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FilterPresetRepository interface {
	Create(ctx context.Context, p *model.FilterPreset) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.FilterPreset, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.FilterPreset, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type filterPresetRepo struct{ db *gorm.DB }

func NewFilterPresetRepository(db *gorm.DB) FilterPresetRepository {
	return &filterPresetRepo{db: db}
}

func (r *filterPresetRepo) Create(ctx context.Context, p *model.FilterPreset) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *filterPresetRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.FilterPreset, error) {
	var list []model.FilterPreset
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *filterPresetRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.FilterPreset, error) {
	var p model.FilterPreset
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *filterPresetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.FilterPreset{}, "id = ?", id).Error
}
