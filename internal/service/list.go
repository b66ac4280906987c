package service

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/RatanSinghYadav/scheme-app-api/internal/filter"
	"github.com/google/uuid"
)

// Page is one page of a list query.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// parseQuery validates a list query string against allow. Any filter error is
// reported as ErrValidation.
func parseQuery(q url.Values, allow filter.AllowList, defaultSort string) (filter.Spec, error) {
	spec, err := filter.Parse(q, allow, defaultSort)
	if err != nil {
		if errors.Is(err, filter.ErrUnknownField) || errors.Is(err, filter.ErrUnknownOperator) || errors.Is(err, filter.ErrBadValue) {
			return filter.Spec{}, fmt.Errorf("%w: %s", ErrValidation, err)
		}
		return filter.Spec{}, err
	}
	return spec, nil
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid(what, "must be a valid id")
	}
	return id, nil
}
