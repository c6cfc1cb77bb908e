package model

const (
	DescriptionLimit = 250
	Ellipsis         = "..."
)

// Truncate cuts s to DescriptionLimit runes and appends Ellipsis.
// Text within the limit is returned unchanged.
func Truncate(s string) string {
	return TruncateTo(s, DescriptionLimit)
}

func TruncateTo(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + Ellipsis
}
