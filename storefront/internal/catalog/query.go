package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultQuery      = "programming"
	DefaultMaxResults = 12
	MaxResultsLimit   = 40
)

var (
	printTypes = map[string]bool{"all": true, "books": true, "magazines": true}
	orderBys   = map[string]bool{"relevance": true, "newest": true}
	filters    = map[string]bool{"": true, "partial": true, "full": true, "free-ebooks": true, "paid-ebooks": true, "ebooks": true}
)

// Query holds the search parameters the volumes endpoint understands.
type Query struct {
	Q            string `json:"q"`
	PrintType    string `json:"printType"`
	OrderBy      string `json:"orderBy"`
	LangRestrict string `json:"langRestrict,omitempty"`
	Filter       string `json:"filter,omitempty"`
	StartIndex   int    `json:"startIndex"`
	MaxResults   int    `json:"maxResults"`
}

// Normalize fills defaults and rejects values the catalog would refuse.
func (q Query) Normalize() (Query, error) {
	q.Q = strings.TrimSpace(q.Q)
	if q.Q == "" {
		q.Q = DefaultQuery
	}
	if q.PrintType == "" {
		q.PrintType = "all"
	}
	if q.OrderBy == "" {
		q.OrderBy = "relevance"
	}
	if q.MaxResults == 0 {
		q.MaxResults = DefaultMaxResults
	}

	switch {
	case !printTypes[q.PrintType]:
		return q, fmt.Errorf("%w: printType %q", ErrInvalidQuery, q.PrintType)
	case !orderBys[q.OrderBy]:
		return q, fmt.Errorf("%w: orderBy %q", ErrInvalidQuery, q.OrderBy)
	case !filters[q.Filter]:
		return q, fmt.Errorf("%w: filter %q", ErrInvalidQuery, q.Filter)
	case q.StartIndex < 0:
		return q, fmt.Errorf("%w: startIndex must not be negative", ErrInvalidQuery)
	case q.MaxResults < 1 || q.MaxResults > MaxResultsLimit:
		return q, fmt.Errorf("%w: maxResults must be between 1 and %d", ErrInvalidQuery, MaxResultsLimit)
	}
	return q, nil
}

// Values encodes a normalized query. printType "all" is left out.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("q", q.Q)
	if q.PrintType != "all" {
		v.Set("printType", q.PrintType)
	}
	v.Set("orderBy", q.OrderBy)
	if q.LangRestrict != "" {
		v.Set("langRestrict", q.LangRestrict)
	}
	if q.Filter != "" {
		v.Set("filter", q.Filter)
	}
	v.Set("startIndex", strconv.Itoa(q.StartIndex))
	v.Set("maxResults", strconv.Itoa(q.MaxResults))
	return v
}
