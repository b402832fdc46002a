package rag

// Document is a retrieved source document after normalization.
type Document struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Date      string   `json:"date"`
	Kind      string   `json:"kind"`
	Lang      string   `json:"lang"`
	Text      string   `json:"text,omitempty"`
	Source    string   `json:"source"`
	Region    string   `json:"region,omitempty"`
	Company   string   `json:"company,omitempty"`
	IssueTags []string `json:"issue_tags,omitempty"`
}

// Content returns the text used for indexing: the body when present,
// otherwise the title and URL.
func (d Document) Content() string {
	if d.Text != "" {
		return d.Text
	}
	return d.Title + " " + d.URL
}
