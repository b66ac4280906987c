package service

import (
	"context"
	"fmt"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"github.com/rs/zerolog/log"
)

const exportDateLayout = "02-01-2006"

// Export returns the spreadsheet rows for one scheme together with its code.
func (s *schemeService) Export(ctx context.Context, ref string) (string, []dto.ExportRow, error) {
	sc, err := s.find(ctx, ref)
	if err != nil {
		return "", nil, err
	}
	rows, err := s.exportRows(ctx, *sc)
	if err != nil {
		return "", nil, err
	}
	return sc.SchemeCode, rows, nil
}

// ExportByDate exports every scheme whose period lies inside [start, end].
func (s *schemeService) ExportByDate(ctx context.Context, startRaw, endRaw string) ([]dto.ExportRow, error) {
	if startRaw == "" || endRaw == "" {
		return nil, fmt.Errorf("%w: startDate and endDate are required", ErrValidation)
	}
	start, err := ParseSchemeDate(startRaw)
	if err != nil {
		return nil, invalid("startDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	end, err := ParseSchemeDate(endRaw)
	if err != nil {
		return nil, invalid("endDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	start, end = NormalizeSchemeDate(start, 0), NormalizeSchemeDate(end, 0)

	schemes, err := s.repo.ListInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(schemes) == 0 {
		return nil, fmt.Errorf("%w: no schemes between %s and %s", ErrNotFound, startRaw, endRaw)
	}
	rows, err := s.exportRows(ctx, schemes...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// salesTarget is one sales code/description pair a scheme applies to.
type salesTarget struct {
	code, description string
}

// exportRows expands each scheme into one row per (distributor, product).
// A scheme without distributors still yields one row per product; one whose
// distributors no longer exist yields none.
func (s *schemeService) exportRows(ctx context.Context, schemes ...model.Scheme) ([]dto.ExportRow, error) {
	dists, err := s.resolveDistributors(ctx, schemes...)
	if err != nil {
		return nil, err
	}

	var rows []dto.ExportRow
	for _, sc := range schemes {
		targets := s.salesTargets(sc, dists)
		if len(targets) == 0 {
			if len(sc.Distributors) > 0 {
				log.Warn().Str("scheme_code", sc.SchemeCode).Msg("export: none of the scheme's distributors exist, scheme skipped")
				continue
			}
			targets = []salesTarget{{}}
		}
		for _, t := range targets {
			for _, p := range sc.Products {
				rows = append(rows, dto.ExportRow{
					SchemeCode:       sc.SchemeCode,
					StartingDate:     sc.StartDate.Format(exportDateLayout),
					EndingDate:       sc.EndDate.Format(exportDateLayout),
					SalesType:        0,
					SalesCode:        t.code,
					SalesDescription: t.description,
					Type:             0,
					Code:             p.ItemID,
					ItemName:         p.ItemName,
					ConfigID:         p.Configuration,
					Style:            p.Style,
					TaxChargeCode:    s.cfg.ExportTaxChargeCode,
					LineDiscount:     p.DiscountPrice,
					Company:          s.cfg.ExportCompany,
				})
			}
		}
	}
	return rows, nil
}

func (s *schemeService) salesTargets(sc model.Scheme, dists map[string]model.Distributor) []salesTarget {
	targets := make([]salesTarget, 0, len(sc.Distributors))
	for _, ref := range sc.Distributors {
		if sc.DistributorType == model.DistributorGroup {
			targets = append(targets, salesTarget{code: ref})
			continue
		}
		d, ok := dists[ref]
		if !ok {
			log.Warn().Str("scheme_code", sc.SchemeCode).Str("distributor_id", ref).Msg("export: distributor no longer exists, skipped")
			continue
		}
		code := d.CustomerAccount
		if code == "" {
			code = d.CustomerGroupID
		}
		targets = append(targets, salesTarget{code: code, description: d.OrganizationName})
	}
	return targets
}
