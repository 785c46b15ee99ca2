package product

// QueryProductsModel represents filter parameters for querying products.
type QueryProductsModel struct {
	SKUs       []string `json:"skus,omitempty"`
	OnlyActive bool     `json:"onlyActive,omitempty"`
}
