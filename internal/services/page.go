package services

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is a normalised page request.
type Page struct {
	Page    int
	PerPage int
}

// NewPage clamps raw query values: page below 1 becomes 1, per_page
// defaults to 20 and is capped at 100.
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

func (p Page) Limit() int  { return p.PerPage }
func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }

type Pagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// Of describes this page within a result set of total rows.
func (p Page) Of(total int) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	return Pagination{
		Total:   total,
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}
