package memrepo

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/RatanSinghYadav/scheme-app-api/internal/filter"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Products ──────────────────────────────────────────────────────────────────

// numericRe matches the configurations the postgres stats query averages.
var numericRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

type Products struct {
	s store[model.Product]
	// FailOn makes Create and Update fail for the given ITEMID.
	FailOn map[string]error
}

func NewProducts() *Products { return &Products{s: newStore[model.Product]()} }

func productColumn(p model.Product, col string) any {
	switch col {
	case "item_id":
		return p.ItemID
	case "item_name":
		return p.ItemName
	case "brand_name":
		return p.BrandName
	case "flavour_type":
		return p.FlavourType
	case "pack_type_group_name":
		return p.PackTypeGroupName
	case "style":
		return p.Style
	case "pack_type":
		return p.PackType
	case "configuration":
		return p.Configuration
	case "nob":
		return p.NOB
	case "created_at":
		return p.CreatedAt
	}
	return nil
}

func (r *Products) Create(_ context.Context, p *model.Product) error {
	if err := r.FailOn[p.ItemID]; err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.items {
		if e.ItemID == p.ItemID && e.Style == p.Style && e.Configuration == p.Configuration {
			return gorm.ErrDuplicatedKey
		}
	}
	p.ID = newID(p.ID)
	p.CreatedAt, p.UpdatedAt = now(), now()
	r.s.put(p.ID, *p)
	return nil
}

func (r *Products) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *Products) FindByNaturalKey(_ context.Context, itemID, style, configuration string) (*model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.items {
		if p.ItemID == itemID && p.Style == style && p.Configuration == configuration {
			p := p
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Products) List(_ context.Context, spec filter.Spec) ([]model.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list, total := query(r.s.all(), spec, productColumn)
	return list, total, nil
}

func (r *Products) Update(_ context.Context, p *model.Product) error {
	if err := r.FailOn[p.ItemID]; err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	p.UpdatedAt = now()
	r.s.put(p.ID, *p)
	return nil
}

func (r *Products) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.remove(id) {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Products) BrandStats(_ context.Context) ([]repository.BrandStatRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx := map[string]int{}
	var rows []repository.BrandStatRow
	var sums []float64
	var nums []int
	for _, p := range r.s.all() {
		i, ok := idx[p.BrandName]
		if !ok {
			i = len(rows)
			idx[p.BrandName] = i
			rows = append(rows, repository.BrandStatRow{Brand: p.BrandName})
			sums = append(sums, 0)
			nums = append(nums, 0)
		}
		rows[i].Count++
		if numericRe.MatchString(p.Configuration) {
			v, _ := strconv.ParseFloat(p.Configuration, 64)
			sums[i] += v
			nums[i]++
		}
	}
	for i := range rows {
		if nums[i] > 0 {
			avg := sums[i] / float64(nums[i])
			rows[i].AvgMrp = &avg
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows, nil
}

func (r *Products) PackTypeStats(_ context.Context) ([]repository.PackTypeStatRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx := map[string]int{}
	var rows []repository.PackTypeStatRow
	for _, p := range r.s.all() {
		i, ok := idx[p.PackType]
		if !ok {
			i = len(rows)
			idx[p.PackType] = i
			rows = append(rows, repository.PackTypeStatRow{PackType: p.PackType})
		}
		rows[i].Count++
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows, nil
}

// Len is the number of stored products.
func (r *Products) Len() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.items)
}

// ── Distributors ──────────────────────────────────────────────────────────────

type Distributors struct{ s store[model.Distributor] }

func NewDistributors() *Distributors { return &Distributors{s: newStore[model.Distributor]()} }

func distributorColumn(d model.Distributor, col string) any {
	switch col {
	case "sm_code":
		return d.SMCode
	case "customer_account":
		return d.CustomerAccount
	case "organization_name":
		return d.OrganizationName
	case "address_city":
		return d.AddressCity
	case "customer_group_id":
		return d.CustomerGroupID
	case "created_at":
		return d.CreatedAt
	}
	return nil
}

func (r *Distributors) Create(_ context.Context, d *model.Distributor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.items {
		if e.CustomerAccount == d.CustomerAccount {
			return gorm.ErrDuplicatedKey
		}
	}
	d.ID = newID(d.ID)
	d.CreatedAt, d.UpdatedAt = now(), now()
	r.s.put(d.ID, *d)
	return nil
}

func (r *Distributors) FindByID(_ context.Context, id uuid.UUID) (*model.Distributor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *Distributors) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Distributor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Distributor
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if d, ok := r.s.items[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *Distributors) FindByAccount(_ context.Context, account string) (*model.Distributor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.items {
		if d.CustomerAccount == account {
			d := d
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Distributors) List(_ context.Context, spec filter.Spec) ([]model.Distributor, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list, total := query(r.s.all(), spec, distributorColumn)
	return list, total, nil
}

func (r *Distributors) Update(_ context.Context, d *model.Distributor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[d.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	d.UpdatedAt = now()
	r.s.put(d.ID, *d)
	return nil
}

func (r *Distributors) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.remove(id) {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ── Filter presets ────────────────────────────────────────────────────────────

type FilterPresets struct{ s store[model.FilterPreset] }

func NewFilterPresets() *FilterPresets { return &FilterPresets{s: newStore[model.FilterPreset]()} }

func (r *FilterPresets) Create(_ context.Context, p *model.FilterPreset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = newID(p.ID)
	p.CreatedAt = now()
	r.s.put(p.ID, *p)
	return nil
}

func (r *FilterPresets) ListByUser(_ context.Context, userID uuid.UUID) ([]model.FilterPreset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.FilterPreset
	all := r.s.all()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID == userID {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (r *FilterPresets) FindByID(_ context.Context, id uuid.UUID) (*model.FilterPreset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *FilterPresets) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.remove(id)
	return nil
}
