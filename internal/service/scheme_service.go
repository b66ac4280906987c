package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/config"
	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  string
}

func (a Actor) is(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Notifier queues outbound e-mail. Delivery happens out of band.
type Notifier interface {
	EnqueueEmail(ctx context.Context, to []string, subject, body string) error
}

type SchemeService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateSchemeRequest) (*dto.SchemeResponse, error)
	Get(ctx context.Context, ref string) (*dto.SchemeResponse, error)
	List(ctx context.Context, q url.Values) (*Page[dto.SchemeResponse], error)
	Update(ctx context.Context, ref string, actor Actor, patch dto.UpdateSchemeRequest) (*dto.SchemeResponse, error)
	Verify(ctx context.Context, ref string, actor Actor, notes string) (*dto.SchemeResponse, error)
	Reject(ctx context.Context, ref string, actor Actor, notes string) (*dto.SchemeResponse, error)
	Delete(ctx context.Context, ref string) error
	BulkDelete(ctx context.Context, refs []string) []dto.BulkItemResult
	BulkUpdate(ctx context.Context, actor Actor, items []dto.BulkUpdateItem) []dto.BulkItemResult

	Export(ctx context.Context, ref string) (string, []dto.ExportRow, error)
	ExportByDate(ctx context.Context, startRaw, endRaw string) ([]dto.ExportRow, error)
}

type schemeService struct {
	repo         repository.SchemeRepository
	distributors repository.DistributorRepository
	users        repository.UserRepository
	notifier     Notifier
	cfg          *config.Config

	now   func() time.Time
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSchemeService wires the lifecycle engine. notifier may be nil.
func NewSchemeService(
	repo repository.SchemeRepository,
	distributors repository.DistributorRepository,
	users repository.UserRepository,
	notifier Notifier,
	cfg *config.Config,
) SchemeService {
	return &schemeService{
		repo:         repo,
		distributors: distributors,
		users:        users,
		notifier:     notifier,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const maxCodeAttempts = 5

// ── Create ────────────────────────────────────────────────────────────────────

func (s *schemeService) Create(ctx context.Context, actor Actor, req dto.CreateSchemeRequest) (*dto.SchemeResponse, error) {
	if !actor.is(model.RoleCreator, model.RoleAdmin) {
		return nil, fmt.Errorf("%w: only creators and admins can create schemes", ErrForbidden)
	}
	now := s.now()

	code, err := s.schemeCode(ctx, strings.TrimSpace(req.SchemeCode), now)
	if err != nil {
		return nil, err
	}

	start, end, err := s.dateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	distType := req.DistributorType
	if distType == "" {
		distType = model.DistributorIndividual
	}
	dists, err := s.checkDistributors(ctx, distType, req.Distributors)
	if err != nil {
		return nil, err
	}

	products, err := normalizeProducts(req.Products)
	if err != nil {
		return nil, err
	}

	notes := req.Notes
	if notes == "" {
		notes = "Scheme created"
	}
	scheme := &model.Scheme{
		SchemeCode:      code,
		StartDate:       start,
		EndDate:         end,
		DistributorType: distType,
		Distributors:    dists,
		Status:          model.StatusPendingVerification,
		CreatedByID:     actor.ID,
		CreatedDate:     now,
		Products:        products,
		History: []model.SchemeHistory{{
			Action:    model.ActionCreated,
			UserID:    actor.ID,
			Timestamp: now,
			Notes:     notes,
		}},
	}
	if err := s.repo.Create(ctx, scheme); err != nil {
		if isUniqueViolation(err) {
			return nil, invalid("schemeCode", "already exists")
		}
		return nil, err
	}
	infra.SchemeTransitionsTotal.WithLabelValues(model.ActionCreated).Inc()

	log.Info().Str("scheme_code", code).Str("user_id", actor.ID.String()).Int("products", len(products)).Msg("scheme created")

	created, err := s.repo.FindByID(ctx, scheme.ID)
	if err != nil {
		return nil, err
	}
	s.notifyVerifiers(ctx, created, actor)
	return s.respond(ctx, created)
}

// schemeCode validates a client-supplied code or generates a fresh one.
func (s *schemeService) schemeCode(ctx context.Context, requested string, now time.Time) (string, error) {
	if requested != "" {
		taken, err := s.codeTaken(ctx, requested)
		if err != nil {
			return "", err
		}
		if taken {
			return "", invalid("schemeCode", "already exists")
		}
		return requested, nil
	}
	for i := 0; i < maxCodeAttempts; i++ {
		s.rngMu.Lock()
		code := GenerateSchemeCode(now, s.rng)
		s.rngMu.Unlock()
		taken, err := s.codeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a scheme code for %s", ErrConflict, now.Format("2006-01-02"))
}

func (s *schemeService) codeTaken(ctx context.Context, code string) (bool, error) {
	_, err := s.repo.FindByCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func (s *schemeService) dateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := ParseSchemeDate(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("startDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	end, err := ParseSchemeDate(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("endDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	start = NormalizeSchemeDate(start, s.cfg.SchemeDateDayOffset)
	end = NormalizeSchemeDate(end, s.cfg.SchemeDateDayOffset)
	if end.Before(start) {
		return time.Time{}, time.Time{}, invalid("endDate", "must not be before startDate")
	}
	return start, end, nil
}

// checkDistributors validates refs for the given distributor type. Individual
// refs must be ids of existing distributors; group codes are stored as given.
func (s *schemeService) checkDistributors(ctx context.Context, distType string, refs []string) (pq.StringArray, error) {
	if distType != model.DistributorIndividual && distType != model.DistributorGroup {
		return nil, invalid("distributorType", "must be individual or group")
	}
	out := make(pq.StringArray, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	if distType == model.DistributorGroup || len(out) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(out))
	for _, r := range out {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, invalid("distributors", fmt.Sprintf("%q is not a distributor id", r))
		}
		ids = append(ids, id)
	}
	found, err := s.distributors.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		known := make(map[uuid.UUID]bool, len(found))
		for _, d := range found {
			known[d.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return nil, invalid("distributors", fmt.Sprintf("distributor %s does not exist", id))
			}
		}
	}
	for i, id := range ids {
		out[i] = id.String()
	}
	return out, nil
}

func normalizeProducts(in []dto.ProductInput) ([]model.SchemeProduct, error) {
	if len(in) == 0 {
		return nil, invalid("products", "at least one product is required")
	}
	out := make([]model.SchemeProduct, len(in))
	for i, p := range in {
		sp, err := NormalizeProductInput(p, i)
		if err != nil {
			return nil, err
		}
		sp.Position = i
		out[i] = sp
	}
	return out, nil
}

// ── Read ──────────────────────────────────────────────────────────────────────

// find resolves ref as a scheme id first, then as a scheme code.
func (s *schemeService) find(ctx context.Context, ref string) (*model.Scheme, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		sc, err := s.repo.FindByID(ctx, id)
		if err == nil {
			return sc, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	sc, err := s.repo.FindByCode(ctx, ref)
	if err != nil {
		return nil, notFound(err, "scheme "+ref)
	}
	return sc, nil
}

func (s *schemeService) Get(ctx context.Context, ref string) (*dto.SchemeResponse, error) {
	sc, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, sc)
}

func (s *schemeService) List(ctx context.Context, q url.Values) (*Page[dto.SchemeResponse], error) {
	spec, err := parseQuery(q, repository.SchemeFields, "-createdDate")
	if err != nil {
		return nil, err
	}
	list, total, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	dists, err := s.resolveDistributors(ctx, list...)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SchemeResponse, len(list))
	for i := range list {
		items[i] = schemeToResponse(&list[i], dists)
	}
	return &Page[dto.SchemeResponse]{Items: items, Total: total, Page: spec.Page, Limit: spec.Limit}, nil
}

func (s *schemeService) respond(ctx context.Context, sc *model.Scheme) (*dto.SchemeResponse, error) {
	dists, err := s.resolveDistributors(ctx, *sc)
	if err != nil {
		return nil, err
	}
	resp := schemeToResponse(sc, dists)
	return &resp, nil
}

// resolveDistributors loads every distributor referenced by individual
// schemes in one query.
func (s *schemeService) resolveDistributors(ctx context.Context, schemes ...model.Scheme) (map[string]model.Distributor, error) {
	var ids []uuid.UUID
	for _, sc := range schemes {
		if sc.DistributorType != model.DistributorIndividual {
			continue
		}
		for _, r := range sc.Distributors {
			if id, err := uuid.Parse(r); err == nil {
				ids = append(ids, id)
			}
		}
	}
	out := make(map[string]model.Distributor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.distributors.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range found {
		out[d.ID.String()] = d
	}
	return out, nil
}

// ── Update ────────────────────────────────────────────────────────────────────

func (s *schemeService) Update(ctx context.Context, ref string, actor Actor, patch dto.UpdateSchemeRequest) (*dto.SchemeResponse, error) {
	if !actor.is(model.RoleCreator, model.RoleAdmin) {
		return nil, fmt.Errorf("%w: only creators and admins can update schemes", ErrForbidden)
	}
	sc, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if sc.CreatedByID != actor.ID && actor.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: only the scheme's creator or an admin can update scheme %s", ErrForbidden, sc.SchemeCode)
	}

	m := repository.SchemeMutation{Updates: map[string]any{}}

	start, end := sc.StartDate, sc.EndDate
	if patch.StartDate != nil {
		t, err := ParseSchemeDate(*patch.StartDate)
		if err != nil {
			return nil, invalid("startDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		start = NormalizeSchemeDate(t, s.cfg.SchemeDateDayOffset)
		m.Updates["start_date"] = start
	}
	if patch.EndDate != nil {
		t, err := ParseSchemeDate(*patch.EndDate)
		if err != nil {
			return nil, invalid("endDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		end = NormalizeSchemeDate(t, s.cfg.SchemeDateDayOffset)
		m.Updates["end_date"] = end
	}
	if end.Before(start) {
		return nil, invalid("endDate", "must not be before startDate")
	}

	if patch.DistributorType != nil || patch.Distributors != nil {
		distType := sc.DistributorType
		if patch.DistributorType != nil {
			distType = *patch.DistributorType
		}
		refs := []string(sc.Distributors)
		if patch.Distributors != nil {
			refs = patch.Distributors
		}
		dists, err := s.checkDistributors(ctx, distType, refs)
		if err != nil {
			return nil, err
		}
		m.Updates["distributor_type"] = distType
		m.Updates["distributors"] = dists
	}

	if patch.Products != nil {
		products, err := normalizeProducts(patch.Products)
		if err != nil {
			return nil, err
		}
		m.ReplaceProducts = true
		m.Products = products
	}

	if patch.Status != nil {
		if !model.ValidStatus(*patch.Status) {
			return nil, invalid("status", fmt.Sprintf("unknown status %q", *patch.Status))
		}
		m.Updates["status"] = *patch.Status
	}

	notes := patch.Notes
	if notes == "" {
		notes = "Scheme updated"
	}
	m.Entry = model.SchemeHistory{Action: model.ActionModified, UserID: actor.ID, Timestamp: s.now(), Notes: notes}

	if err := s.repo.Mutate(ctx, sc.ID, m); err != nil {
		return nil, notFound(err, "scheme "+ref)
	}
	infra.SchemeTransitionsTotal.WithLabelValues(model.ActionModified).Inc()

	updated, err := s.repo.FindByID(ctx, sc.ID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, updated)
}

// ── Verify / Reject ───────────────────────────────────────────────────────────

func (s *schemeService) Verify(ctx context.Context, ref string, actor Actor, notes string) (*dto.SchemeResponse, error) {
	if notes == "" {
		notes = "Scheme verified"
	}
	return s.transition(ctx, ref, actor, model.StatusVerified, model.ActionVerified, notes)
}

func (s *schemeService) Reject(ctx context.Context, ref string, actor Actor, notes string) (*dto.SchemeResponse, error) {
	if notes == "" {
		notes = "Scheme rejected"
	}
	return s.transition(ctx, ref, actor, model.StatusRejected, model.ActionRejected, notes)
}

// transition sets the status and appends the matching history entry. In
// strict mode it only fires from Pending Verification.
func (s *schemeService) transition(ctx context.Context, ref string, actor Actor, status, action, notes string) (*dto.SchemeResponse, error) {
	if !actor.is(model.RoleVerifier, model.RoleAdmin) {
		verb := "verify"
		if action == model.ActionRejected {
			verb = "reject"
		}
		return nil, fmt.Errorf("%w: only verifiers and admins can %s schemes", ErrForbidden, verb)
	}
	sc, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	m := repository.SchemeMutation{
		Updates: map[string]any{"status": status},
		Entry:   model.SchemeHistory{Action: action, UserID: actor.ID, Timestamp: s.now(), Notes: notes},
	}
	if status == model.StatusVerified {
		m.Updates["verified_by_id"] = actor.ID
	}
	if s.cfg.SchemeStrictTransitions {
		if sc.Status != model.StatusPendingVerification {
			return nil, fmt.Errorf("%w: scheme %s is %s", ErrInvalidTransition, sc.SchemeCode, sc.Status)
		}
		m.ExpectStatus = model.StatusPendingVerification
	}

	if err := s.repo.Mutate(ctx, sc.ID, m); err != nil {
		return nil, notFound(err, "scheme "+ref)
	}
	infra.SchemeTransitionsTotal.WithLabelValues(action).Inc()
	log.Info().Str("scheme_code", sc.SchemeCode).Str("action", action).Str("user_id", actor.ID.String()).Msg("scheme status changed")

	updated, err := s.repo.FindByID(ctx, sc.ID)
	if err != nil {
		return nil, err
	}
	s.notifyCreator(ctx, updated, action, actor, notes)
	return s.respond(ctx, updated)
}

// ── Delete ────────────────────────────────────────────────────────────────────

func (s *schemeService) Delete(ctx context.Context, ref string) error {
	sc, err := s.find(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sc.ID); err != nil {
		return notFound(err, "scheme "+ref)
	}
	log.Info().Str("scheme_code", sc.SchemeCode).Msg("scheme deleted")
	return nil
}

// ── Bulk ──────────────────────────────────────────────────────────────────────

func (s *schemeService) BulkDelete(ctx context.Context, refs []string) []dto.BulkItemResult {
	results := make([]dto.BulkItemResult, 0, len(refs))
	for _, ref := range refs {
		res := dto.BulkItemResult{ID: ref}
		if err := s.Delete(ctx, ref); err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
		}
		results = append(results, res)
	}
	return results
}

func (s *schemeService) BulkUpdate(ctx context.Context, actor Actor, items []dto.BulkUpdateItem) []dto.BulkItemResult {
	results := make([]dto.BulkItemResult, 0, len(items))
	for _, it := range items {
		res := dto.BulkItemResult{ID: it.ID}
		updated, err := s.Update(ctx, it.ID, actor, it.Patch)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
			res.Data = updated
		}
		results = append(results, res)
	}
	return results
}

// ── Notifications ─────────────────────────────────────────────────────────────

func (s *schemeService) notifyVerifiers(ctx context.Context, sc *model.Scheme, actor Actor) {
	if s.notifier == nil {
		return
	}
	var to []string
	if s.cfg.NotifyVerifiersEmail != "" {
		to = append(to, s.cfg.NotifyVerifiersEmail)
	}
	verifiers, err := s.users.FindByRole(ctx, model.RoleVerifier)
	if err != nil {
		log.Warn().Err(err).Msg("scheme: could not load verifiers for notification")
	}
	for _, v := range verifiers {
		to = append(to, v.Email)
	}
	if len(to) == 0 {
		return
	}
	subject := fmt.Sprintf("Scheme %s awaiting verification", sc.SchemeCode)
	body := fmt.Sprintf("%s created scheme %s (%s to %s, %d products). It is pending verification.",
		actor.Name, sc.SchemeCode, sc.StartDate.Format("02-01-2006"), sc.EndDate.Format("02-01-2006"), len(sc.Products))
	s.enqueue(ctx, to, subject, body)
}

func (s *schemeService) notifyCreator(ctx context.Context, sc *model.Scheme, action string, actor Actor, notes string) {
	if s.notifier == nil || sc.CreatedBy == nil || sc.CreatedBy.Email == "" {
		return
	}
	subject := fmt.Sprintf("Scheme %s %s", sc.SchemeCode, action)
	body := fmt.Sprintf("Your scheme %s was %s by %s.\n\n%s", sc.SchemeCode, action, actor.Name, notes)
	s.enqueue(ctx, []string{sc.CreatedBy.Email}, subject, body)
}

// enqueue never fails the calling operation.
func (s *schemeService) enqueue(ctx context.Context, to []string, subject, body string) {
	if err := s.notifier.EnqueueEmail(ctx, to, subject, body); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("scheme: failed to enqueue notification")
	}
}
