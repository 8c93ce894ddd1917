package database

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pager holds zero-based offset paging parameters parsed from a request.
type Pager struct {
	Page int
	Size int
}

func PagerFromRequest(r *http.Request) Pager {
	p := Pager{Page: 0, Size: DefaultPageSize}

	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v >= 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v >= 1 {
		p.Size = v
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}

	return p
}

func (p Pager) Offset() int {
	return p.Page * p.Size
}

func (p Pager) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	pages := int(total) / p.Size
	if int(total)%p.Size != 0 {
		pages++
	}
	return pages
}
