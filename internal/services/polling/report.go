package polling

import "time"

type CycleReport struct {
	CycleID  string          `json:"cycle_id"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
	Keywords []KeywordReport `json:"keywords"`
	Aborted  bool            `json:"aborted"`
}

type KeywordReport struct {
	Keyword   string `json:"keyword"`
	Fetched   int    `json:"fetched"`
	Skipped   int    `json:"skipped"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
}

func (r CycleReport) Totals() KeywordReport {
	var total KeywordReport
	for _, k := range r.Keywords {
		total.Fetched += k.Fetched
		total.Skipped += k.Skipped
		total.Delivered += k.Delivered
		total.Failed += k.Failed
	}
	return total
}
