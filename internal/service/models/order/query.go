package order

// QueryOrdersModel represents filter parameters for querying orders.
// Results are ordered by id, newest first.
type QueryOrdersModel struct {
	Ids   []int64 `json:"ids,omitempty"`
	Limit int     `json:"limit,omitempty"`
}
