package recgo

import (
	"context"
	"math"

	"github.com/hupe1980/recgo/query"
)

// DefaultPageSize is the page size of a new Paginator.
const DefaultPageSize = 10

// Page is one page of a paginated query.
type Page[T any] struct {
	Data       []T
	Page       int
	PageSize   int
	TotalPages int
	TotalCount int
	HasMore    bool
}

// Paginator walks the pages of a fixed query. Offset and limit of the query
// are managed by the paginator.
//
// A Paginator is not safe for concurrent use.
type Paginator[T any] struct {
	store    *Store[T]
	spec     query.Spec
	pageSize int
	page     int
}

// Paginate returns a Paginator over spec starting at page 1.
// A pageSize < 1 selects DefaultPageSize.
func (s *Store[T]) Paginate(spec query.Spec, pageSize int) *Paginator[T] {
	p := &Paginator[T]{store: s}
	p.SetQuery(spec)
	p.SetPageSize(pageSize)
	return p
}

// SetQuery replaces the query and resets to page 1.
func (p *Paginator[T]) SetQuery(spec query.Spec) *Paginator[T] {
	p.spec = spec.WithoutWindow()
	p.page = 1
	return p
}

// SetPageSize changes the page size and resets to page 1.
// A size < 1 selects DefaultPageSize.
func (p *Paginator[T]) SetPageSize(n int) *Paginator[T] {
	if n < 1 {
		n = DefaultPageSize
	}
	p.pageSize = n
	p.page = 1
	return p
}

// NextPage advances one page. It does not stop at the last page.
func (p *Paginator[T]) NextPage() *Paginator[T] {
	if p.page < math.MaxInt {
		p.page++
	}
	return p
}

// PreviousPage goes back one page, stopping at page 1.
func (p *Paginator[T]) PreviousPage() *Paginator[T] {
	return p.GoToPage(p.page - 1)
}

// GoToPage jumps to page n, clamped to >= 1.
func (p *Paginator[T]) GoToPage(n int) *Paginator[T] {
	p.page = max(n, 1)
	return p
}

// PageNumber returns the current page number.
func (p *Paginator[T]) PageNumber() int { return p.page }

// PageSize returns the page size.
func (p *Paginator[T]) PageSize() int { return p.pageSize }

// CurrentPage runs the query for the current page. Pages past the end have
// empty Data.
func (p *Paginator[T]) CurrentPage(ctx context.Context) (Page[T], error) {
	spec := p.spec.Window((p.page-1)*p.pageSize, p.pageSize)
	past := p.page-1 > math.MaxInt/p.pageSize
	if past {
		// The offset does not fit in an int; only the count is needed.
		spec = p.spec.Window(0, 1)
	}

	res, err := p.store.Query(ctx, spec)
	if err != nil {
		return Page[T]{}, err
	}
	if past {
		res.Data = []T{}
		res.HasMore = false
	}

	return Page[T]{
		Data:       res.Data,
		Page:       p.page,
		PageSize:   p.pageSize,
		TotalPages: totalPages(res.TotalCount, p.pageSize),
		TotalCount: res.TotalCount,
		HasMore:    res.HasMore,
	}, nil
}

func totalPages(total, size int) int {
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return pages
}
