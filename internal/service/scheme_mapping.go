package service

import (
	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
)

func userRef(u *model.User) *dto.UserRef {
	if u == nil {
		return nil
	}
	return &dto.UserRef{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: u.Role}
}

// schemeToResponse renders a scheme. Individual distributor ids are resolved
// through dists; ids missing from it are returned with only the id set.
func schemeToResponse(sc *model.Scheme, dists map[string]model.Distributor) dto.SchemeResponse {
	resp := dto.SchemeResponse{
		ID:              sc.ID.String(),
		SchemeCode:      sc.SchemeCode,
		StartDate:       sc.StartDate,
		EndDate:         sc.EndDate,
		DistributorType: sc.DistributorType,
		Status:          sc.Status,
		CreatedBy:       userRef(sc.CreatedBy),
		VerifiedBy:      userRef(sc.VerifiedBy),
		CreatedDate:     sc.CreatedDate,
		UpdatedAt:       sc.UpdatedAt,
		Products:        make([]dto.SchemeProductResponse, len(sc.Products)),
		History:         make([]dto.HistoryEntryResponse, len(sc.History)),
	}

	if sc.DistributorType == model.DistributorGroup {
		codes := make([]string, len(sc.Distributors))
		copy(codes, sc.Distributors)
		resp.Distributors = codes
	} else {
		refs := make([]dto.DistributorRef, len(sc.Distributors))
		for i, id := range sc.Distributors {
			d, ok := dists[id]
			if !ok {
				refs[i] = dto.DistributorRef{ID: id}
				continue
			}
			refs[i] = dto.DistributorRef{
				ID:               id,
				SMCode:           d.SMCode,
				CustomerAccount:  d.CustomerAccount,
				OrganizationName: d.OrganizationName,
				AddressCity:      d.AddressCity,
				CustomerGroupID:  d.CustomerGroupID,
			}
		}
		resp.Distributors = refs
	}

	for i, p := range sc.Products {
		custom := map[string]any(p.CustomFields)
		if custom == nil {
			custom = map[string]any{}
		}
		resp.Products[i] = dto.SchemeProductResponse{
			ItemID:            p.ItemID,
			ItemName:          p.ItemName,
			FlavourType:       p.FlavourType,
			BrandName:         p.BrandName,
			PackType:          p.PackType,
			PackTypeGroupName: p.PackTypeGroupName,
			Style:             p.Style,
			NOB:               p.NOB,
			Configuration:     p.Configuration,
			DiscountPrice:     p.DiscountPrice,
			CustomFields:      custom,
		}
	}

	for i, h := range sc.History {
		entry := dto.HistoryEntryResponse{Action: h.Action, Timestamp: h.Timestamp, Notes: h.Notes}
		if h.User != nil {
			entry.User = userRef(h.User)
		} else {
			entry.User = &dto.UserRef{ID: h.UserID.String()}
		}
		resp.History[i] = entry
	}
	return resp
}
