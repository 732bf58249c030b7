package domain

// DayStats is the aggregate bucket for one site on one calendar day.
// UniqueVisitors deduplicates within the day only.
type DayStats struct {
	Date           string           `json:"date"`
	Pageviews      int64            `json:"pageviews"`
	UniqueVisitors int64            `json:"uniqueVisitors"`
	Pages          map[string]int64 `json:"pages"`
	Referrers      map[string]int64 `json:"referrers"`
}

// StatsSummary is the rollup over an inclusive date range. UniqueVisitors is
// the sum of day-level uniques; a visitor active on two days counts twice.
type StatsSummary struct {
	Pageviews      int64            `json:"pageviews"`
	UniqueVisitors int64            `json:"uniqueVisitors"`
	Pages          map[string]int64 `json:"pages"`
	Referrers      map[string]int64 `json:"referrers"`
	Daily          []DayStats       `json:"daily"`
}
