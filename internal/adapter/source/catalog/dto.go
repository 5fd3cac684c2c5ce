package catalog

// ItemsResponse is the body of GET /api/items
type ItemsResponse struct {
	Total  int       `json:"total"`
	Result []ItemDTO `json:"result"`
}

// ItemDTO is one catalogue entry as served by the API
type ItemDTO struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	SortTitle string  `json:"sort_title,omitempty"`
	Summary   string  `json:"summary,omitempty"`
	Year      int     `json:"year,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	Type      string  `json:"type"`
	Thumb     string  `json:"thumb,omitempty"`
	Favorite  bool    `json:"favorite,omitempty"`
}

// ErrorResponse is returned by the API for non-2xx statuses
type ErrorResponse struct {
	Error string `json:"error"`
}
