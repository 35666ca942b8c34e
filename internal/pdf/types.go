package pdf

// TextResult is the plain text of a document
type TextResult struct {
	Text      string `json:"text"`
	Pages     int    `json:"pages"`
	Truncated bool   `json:"truncated"`
}

// ValidationResult represents the result of a PDF validation operation
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Pages   int    `json:"pages,omitempty"`
	Version string `json:"version,omitempty"`
	Size    int64  `json:"size"`
}
