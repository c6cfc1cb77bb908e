package model

import "strings"

// Posting is a single normalized listing item produced by a source.
// URL is the identity key; no other field takes part in equality.
type Posting struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Valid reports whether both title and url are non-blank.
func (p Posting) Valid() bool {
	return strings.TrimSpace(p.Title) != "" && strings.TrimSpace(p.URL) != ""
}

func (p Posting) SameItem(other Posting) bool {
	return p.URL == other.URL
}
