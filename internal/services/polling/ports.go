package polling

import (
	"context"

	"freelas-watch/internal/model"
)

// Source lists the postings a remote site currently shows for a keyword.
// Fetch never fails: errors are logged by the source and yield no postings.
type Source interface {
	Name() string
	Fetch(ctx context.Context, keyword string) []model.Posting
}

type Ledger interface {
	HasSeen(url string) bool
	MarkSeen(ctx context.Context, url string)
	Len() int
}
