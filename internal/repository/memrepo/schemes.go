package memrepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/filter"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Schemes stores schemes with their products and history. Users, when set,
// is used to fill the CreatedBy, VerifiedBy and History.User associations.
type Schemes struct {
	s     store[model.Scheme]
	users *Users
}

func NewSchemes(users *Users) *Schemes { return &Schemes{s: newStore[model.Scheme](), users: users} }

func schemeColumn(sc model.Scheme, col string) any {
	switch col {
	case "scheme_code":
		return sc.SchemeCode
	case "status":
		return sc.Status
	case "distributor_type":
		return sc.DistributorType
	case "start_date":
		return sc.StartDate
	case "end_date":
		return sc.EndDate
	case "created_date":
		return sc.CreatedDate
	}
	return nil
}

func cloneScheme(sc model.Scheme) model.Scheme {
	sc.Distributors = append(pq.StringArray(nil), sc.Distributors...)
	sc.Products = append([]model.SchemeProduct(nil), sc.Products...)
	sc.History = append([]model.SchemeHistory(nil), sc.History...)
	return sc
}

// hydrate returns a copy with associations loaded. Caller holds the lock.
func (r *Schemes) hydrate(sc model.Scheme) model.Scheme {
	sc = cloneScheme(sc)
	sort.SliceStable(sc.Products, func(i, j int) bool { return sc.Products[i].Position < sc.Products[j].Position })
	sort.SliceStable(sc.History, func(i, j int) bool { return sc.History[i].Timestamp.Before(sc.History[j].Timestamp) })
	if r.users == nil {
		return sc
	}
	sc.CreatedBy = r.users.get(sc.CreatedByID)
	if sc.VerifiedByID != nil {
		sc.VerifiedBy = r.users.get(*sc.VerifiedByID)
	}
	for i := range sc.History {
		sc.History[i].User = r.users.get(sc.History[i].UserID)
	}
	return sc
}

func (r *Schemes) Create(_ context.Context, sc *model.Scheme) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.items {
		if e.SchemeCode == sc.SchemeCode {
			return gorm.ErrDuplicatedKey
		}
	}
	sc.ID = newID(sc.ID)
	sc.UpdatedAt = now()
	for i := range sc.Products {
		sc.Products[i].ID = newID(sc.Products[i].ID)
		sc.Products[i].SchemeID = sc.ID
	}
	for i := range sc.History {
		sc.History[i].ID = newID(sc.History[i].ID)
		sc.History[i].SchemeID = sc.ID
	}
	stored := cloneScheme(*sc)
	stored.CreatedBy, stored.VerifiedBy = nil, nil
	r.s.put(sc.ID, stored)
	return nil
}

func (r *Schemes) FindByID(_ context.Context, id uuid.UUID) (*model.Scheme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sc, ok := r.s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.hydrate(sc)
	return &out, nil
}

func (r *Schemes) FindByCode(_ context.Context, code string) (*model.Scheme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sc := range r.s.items {
		if sc.SchemeCode == code {
			out := r.hydrate(sc)
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Schemes) List(_ context.Context, spec filter.Spec) ([]model.Scheme, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list, total := query(r.s.all(), spec, schemeColumn)
	for i := range list {
		list[i] = r.hydrate(list[i])
	}
	return list, total, nil
}

func (r *Schemes) ListInRange(_ context.Context, start, end time.Time) ([]model.Scheme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Scheme
	for _, sc := range r.s.all() {
		if !sc.StartDate.Before(start) && !sc.EndDate.After(end) {
			out = append(out, r.hydrate(sc))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].SchemeCode < out[j].SchemeCode
	})
	return out, nil
}

// Mutate applies the same column updates the gorm repository accepts.
func (r *Schemes) Mutate(_ context.Context, id uuid.UUID, m repository.SchemeMutation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if m.ExpectStatus != "" && sc.Status != m.ExpectStatus {
		return repository.ErrStatusMismatch
	}
	sc = cloneScheme(sc)

	for k, v := range m.Updates {
		switch k {
		case "start_date":
			sc.StartDate = v.(time.Time)
		case "end_date":
			sc.EndDate = v.(time.Time)
		case "distributor_type":
			sc.DistributorType = v.(string)
		case "distributors":
			sc.Distributors = v.(pq.StringArray)
		case "status":
			sc.Status = v.(string)
		case "verified_by_id":
			uid := v.(uuid.UUID)
			sc.VerifiedByID = &uid
		default:
			return fmt.Errorf("memrepo: unsupported scheme column %q", k)
		}
	}
	sc.UpdatedAt = now()

	if m.ReplaceProducts {
		sc.Products = make([]model.SchemeProduct, len(m.Products))
		for i, p := range m.Products {
			p.ID = uuid.New()
			p.SchemeID = id
			p.Position = i
			sc.Products[i] = p
		}
	}

	entry := m.Entry
	entry.ID = uuid.New()
	entry.SchemeID = id
	entry.User = nil
	sc.History = append(sc.History, entry)

	r.s.put(id, sc)
	return nil
}

func (r *Schemes) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.remove(id) {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Schemes) CountByStatus(_ context.Context, status string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, sc := range r.s.items {
		if status == "" || sc.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *Schemes) CountActiveOn(_ context.Context, day time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, sc := range r.s.items {
		if sc.Status == model.StatusVerified && !sc.StartDate.After(day) && !sc.EndDate.Before(day) {
			n++
		}
	}
	return n, nil
}

func (r *Schemes) RecentActivity(_ context.Context, limit int) ([]repository.ActivityRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var rows []repository.ActivityRow
	for _, sc := range r.s.items {
		for _, h := range sc.History {
			row := repository.ActivityRow{Action: h.Action, SchemeCode: sc.SchemeCode, Timestamp: h.Timestamp, Notes: h.Notes}
			if r.users != nil {
				if u := r.users.get(h.UserID); u != nil {
					name := u.Name
					row.UserName = &name
				}
			}
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.After(rows[j].Timestamp) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
