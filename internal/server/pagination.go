package server

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

// Page is a page-number paginated response body.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// errInvalidPage is returned for a malformed page number or a page past the end.
var errInvalidPage = fmt.Errorf("invalid page: %w", shared.ErrNotFound)

// pageParams holds the parsed ?page= and ?limit= query parameters.
type pageParams struct {
	number int
	size   int
}

// parsePage reads page (1-based) and limit, falling back to defaultSize for a missing or invalid limit.
// A malformed or unreachably large page number is reported as errInvalidPage, the same as a page past the end.
func parsePage(r *http.Request, defaultSize int) (pageParams, error) {
	p := pageParams{number: 1, size: defaultSize}
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.size = n
		}
	}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, fmt.Errorf("page %q: %w", raw, errInvalidPage)
		}
		p.number = n
	}

	// page*size must fit in an int for offsets and links.
	if p.number > math.MaxInt/p.size {
		return p, fmt.Errorf("page %d: %w", p.number, errInvalidPage)
	}
	return p, nil
}

func (p pageParams) model() models.Page {
	return models.Page{Limit: p.size, Offset: (p.number - 1) * p.size}
}

// check rejects pages beyond the last one. The first page always exists.
func (p pageParams) check(count int) error {
	if p.number > 1 && (p.number-1)*p.size >= count {
		return fmt.Errorf("page %d: %w", p.number, errInvalidPage)
	}
	return nil
}

// newPage builds the response with absolute next and previous links.
func newPage[T any](r *http.Request, p pageParams, count int, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}

	page := Page[T]{Count: count, Results: results}
	if p.number*p.size < count {
		next := pageURL(r, p.number+1)
		page.Next = &next
	}
	if p.number > 1 {
		prev := pageURL(r, p.number-1)
		page.Previous = &prev
	}
	return page
}

func pageURL(r *http.Request, number int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := r.URL.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}

	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}
