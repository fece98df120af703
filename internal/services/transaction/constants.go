package transaction

// History paging bounds
const (
	defaultPageSize = 20
	maxPageSize     = 100
)
