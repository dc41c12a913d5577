package order

// QueryOrdersModel selects orders owned by UserID. Pagination applies to orders, not joined rows.
type QueryOrdersModel struct {
	UserID int64
	IDs    []int64
	Status Status
	Limit  int
	Offset int
}
