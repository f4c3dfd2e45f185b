package models

// Filters are the session-only listing filters. They are never persisted.
type Filters struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	City     string `json:"city"`
	MinPrice int64  `json:"minPrice"`
	MaxPrice int64  `json:"maxPrice"`
	SortBy   string `json:"sortBy"`
}

// DefaultFilters is what ResetFilters restores.
func DefaultFilters() Filters {
	return Filters{SortBy: "recent"}
}
