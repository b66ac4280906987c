// Package memrepo provides in-memory repository implementations for unit
// tests. They honour the same not-found and uniqueness contracts as the gorm
// repositories.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/filter"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.ProductRepository      = (*Products)(nil)
	_ repository.DistributorRepository  = (*Distributors)(nil)
	_ repository.FilterPresetRepository = (*FilterPresets)(nil)
	_ repository.SchemeRepository       = (*Schemes)(nil)
)

// store is a mutex-guarded map keyed by id.
type store[T any] struct {
	mu    sync.RWMutex
	items map[uuid.UUID]T
	order []uuid.UUID
}

func newStore[T any]() store[T] { return store[T]{items: make(map[uuid.UUID]T)} }

func (s *store[T]) put(id uuid.UUID, v T) {
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = v
}

func (s *store[T]) remove(id uuid.UUID) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// all returns items in insertion order.
func (s *store[T]) all() []T {
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// query filters, sorts and pages items the way filter.Spec.Apply does in SQL.
func query[T any](items []T, spec filter.Spec, get func(T, string) any) ([]T, int64) {
	var matched []T
	for _, it := range items {
		it := it
		if spec.Match(func(col string) any { return get(it, col) }) {
			matched = append(matched, it)
		}
	}
	if len(spec.Orders) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range spec.Orders {
				c := filter.Compare(get(matched[i], o.Column), get(matched[j], o.Column))
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	total := int64(len(matched))
	if spec.Limit > 0 {
		lo := (spec.Page - 1) * spec.Limit
		if lo > len(matched) {
			lo = len(matched)
		}
		hi := lo + spec.Limit
		if hi > len(matched) {
			hi = len(matched)
		}
		matched = matched[lo:hi]
	}
	return matched, total
}

func now() time.Time { return time.Now().UTC() }

// ── Users ─────────────────────────────────────────────────────────────────────

type Users struct{ s store[model.User] }

func NewUsers() *Users { return &Users{s: newStore[model.User]()} }

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.items {
		if strings.EqualFold(existing.Email, u.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = newID(u.ID)
	u.CreatedAt, u.UpdatedAt = now(), now()
	r.s.put(u.ID, *u)
	return nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.items {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Users) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *Users) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := r.s.items[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *Users) FindByRole(_ context.Context, role string) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.User
	for _, u := range r.s.all() {
		if u.Role == role && u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *Users) List(_ context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.all()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Users) Update(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[u.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	u.UpdatedAt = now()
	r.s.put(u.ID, *u)
	return nil
}

func (r *Users) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	r.s.put(id, u)
	return nil
}

func (r *Users) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.items[id]; ok {
		u.LastLogin = &at
		r.s.put(id, u)
	}
	return nil
}

func (r *Users) get(id uuid.UUID) *model.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.items[id]
	if !ok {
		return nil
	}
	return &u
}
