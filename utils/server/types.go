package server

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ArticleSummary describes one article directory under the output dir.
type ArticleSummary struct {
	Slug         string  `json:"slug"`
	Title        string  `json:"title,omitempty"`
	Sections     int     `json:"sections"`
	Compiled     bool    `json:"compiled"`
	HTML         bool    `json:"html"`
	Plan         bool    `json:"plan"`
	Images       int     `json:"images"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	Cost         float64 `json:"cost"`
}

// ArticleDetail adds the section file list to the summary.
type ArticleDetail struct {
	ArticleSummary
	Files []string `json:"files"`
}

// ListResponse is returned by GET /articles
type ListResponse struct {
	Success  bool             `json:"success"`
	Articles []ArticleSummary `json:"articles"`
}
