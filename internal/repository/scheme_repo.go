package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/filter"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStatusMismatch is returned by Mutate when ExpectStatus no longer holds.
var ErrStatusMismatch = errors.New("scheme status changed")

var SchemeFields = filter.AllowList{
	"schemeCode":      {Column: "scheme_code"},
	"status":          {Column: "status"},
	"distributorType": {Column: "distributor_type"},
	"startDate":       {Column: "start_date", Kind: filter.Time},
	"endDate":         {Column: "end_date", Kind: filter.Time},
	"createdDate":     {Column: "created_date", Kind: filter.Time},
}

// SchemeMutation describes one atomic change to a scheme: column updates, an
// optional product replacement and exactly one history entry.
type SchemeMutation struct {
	Updates         map[string]any
	ReplaceProducts bool
	Products        []model.SchemeProduct
	Entry           model.SchemeHistory
	// ExpectStatus, when set, makes the update conditional on the current status.
	ExpectStatus string
}

// ActivityRow is one history entry joined with its scheme code and user name.
type ActivityRow struct {
	Action     string
	SchemeCode string
	UserName   *string
	Timestamp  time.Time
	Notes      string
}

type SchemeRepository interface {
	Create(ctx context.Context, s *model.Scheme) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Scheme, error)
	FindByCode(ctx context.Context, code string) (*model.Scheme, error)
	List(ctx context.Context, spec filter.Spec) ([]model.Scheme, int64, error)
	ListInRange(ctx context.Context, start, end time.Time) ([]model.Scheme, error)
	Mutate(ctx context.Context, id uuid.UUID, m SchemeMutation) error
	Delete(ctx context.Context, id uuid.UUID) error

	CountByStatus(ctx context.Context, status string) (int64, error)
	CountActiveOn(ctx context.Context, day time.Time) (int64, error)
	RecentActivity(ctx context.Context, limit int) ([]ActivityRow, error)
}

type schemeRepo struct{ db *gorm.DB }

func NewSchemeRepository(db *gorm.DB) SchemeRepository { return &schemeRepo{db: db} }

func (r *schemeRepo) preload(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC") }).
		Preload("History.User").
		Preload("CreatedBy").
		Preload("VerifiedBy")
}

// Create inserts the scheme together with its products and seed history in
// one transaction.
func (r *schemeRepo) Create(ctx context.Context, s *model.Scheme) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("CreatedBy", "VerifiedBy").Create(s).Error
	})
}

func (r *schemeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Scheme, error) {
	var s model.Scheme
	if err := r.preload(r.db.WithContext(ctx)).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *schemeRepo) FindByCode(ctx context.Context, code string) (*model.Scheme, error) {
	var s model.Scheme
	if err := r.preload(r.db.WithContext(ctx)).Where("scheme_code = ?", code).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *schemeRepo) List(ctx context.Context, spec filter.Spec) ([]model.Scheme, int64, error) {
	var list []model.Scheme
	var total int64

	if err := spec.ApplyWhere(r.db.WithContext(ctx).Model(&model.Scheme{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.preload(spec.Apply(r.db.WithContext(ctx).Model(&model.Scheme{}))).Find(&list).Error
	return list, total, err
}

func (r *schemeRepo) ListInRange(ctx context.Context, start, end time.Time) ([]model.Scheme, error) {
	var list []model.Scheme
	err := r.preload(r.db.WithContext(ctx)).
		Where("start_date >= ? AND end_date <= ?", start, end).
		Order("start_date ASC, scheme_code ASC").
		Find(&list).Error
	return list, err
}

// Mutate applies m in a single transaction. The history row is inserted, never
// rewritten, so concurrent mutations cannot drop each other's entries.
func (r *schemeRepo) Mutate(ctx context.Context, id uuid.UUID, m SchemeMutation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := make(map[string]any, len(m.Updates)+1)
		for k, v := range m.Updates {
			updates[k] = v
		}
		updates["updated_at"] = time.Now().UTC()

		q := tx.Model(&model.Scheme{}).Where("id = ?", id)
		if m.ExpectStatus != "" {
			q = q.Where("status = ?", m.ExpectStatus)
		}
		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if m.ExpectStatus != "" {
				return ErrStatusMismatch
			}
			return gorm.ErrRecordNotFound
		}

		if m.ReplaceProducts {
			if err := tx.Where("scheme_id = ?", id).Delete(&model.SchemeProduct{}).Error; err != nil {
				return err
			}
			for i := range m.Products {
				m.Products[i].SchemeID = id
				m.Products[i].Position = i
			}
			if len(m.Products) > 0 {
				if err := tx.Create(&m.Products).Error; err != nil {
					return err
				}
			}
		}

		entry := m.Entry
		entry.SchemeID = id
		return tx.Omit("User").Create(&entry).Error
	})
}

func (r *schemeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scheme_id = ?", id).Delete(&model.SchemeProduct{}).Error; err != nil {
			return err
		}
		if err := tx.Where("scheme_id = ?", id).Delete(&model.SchemeHistory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Scheme{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *schemeRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Scheme{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *schemeRepo) CountActiveOn(ctx context.Context, day time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Scheme{}).
		Where("status = ? AND start_date <= ? AND end_date >= ?", model.StatusVerified, day, day).
		Count(&n).Error
	return n, err
}

func (r *schemeRepo) RecentActivity(ctx context.Context, limit int) ([]ActivityRow, error) {
	var rows []ActivityRow
	err := r.db.WithContext(ctx).
		Table("scheme_histories AS h").
		Select("h.action, s.scheme_code, u.name AS user_name, h.timestamp, h.notes").
		Joins("JOIN schemes s ON s.id = h.scheme_id").
		Joins("LEFT JOIN users u ON u.id = h.user_id").
		Order("h.timestamp DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
