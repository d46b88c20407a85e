package repository

// Pagination bounds list queries. Zero values fall back to the defaults.
type Pagination struct {
	Skip  int
	Limit int
}

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

func (p Pagination) normalized() (int, int) {
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}

	limit := p.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	return skip, limit
}
