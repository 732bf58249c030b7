package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztas-io/analytics-api/internal/domain"
)

func TestDatesInRange(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse(dateLayout, s)
		require.NoError(t, err)
		return d
	}

	t.Run("single day", func(t *testing.T) {
		dates := DatesInRange(day("2025-03-10"), day("2025-03-10"))
		assert.Equal(t, []string{"2025-03-10"}, dates)
	})

	t.Run("week", func(t *testing.T) {
		dates := DatesInRange(day("2025-03-10"), day("2025-03-16"))
		require.Len(t, dates, 7)
		assert.Equal(t, "2025-03-10", dates[0])
		assert.Equal(t, "2025-03-16", dates[6])
	})

	t.Run("crosses month boundary", func(t *testing.T) {
		dates := DatesInRange(day("2025-02-27"), day("2025-03-02"))
		assert.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}, dates)
	})

	t.Run("start after end is empty", func(t *testing.T) {
		dates := DatesInRange(day("2025-03-16"), day("2025-03-10"))
		assert.Empty(t, dates)
	})

	t.Run("intraday times collapse to the same date", func(t *testing.T) {
		start := day("2025-03-10").Add(23 * time.Hour)
		end := day("2025-03-10").Add(5 * time.Minute)
		dates := DatesInRange(start, end)
		assert.Equal(t, []string{"2025-03-10"}, dates)
	})
}

func TestMergeDaily(t *testing.T) {
	t.Run("empty input yields zero totals", func(t *testing.T) {
		summary := MergeDaily(nil)
		assert.Zero(t, summary.Pageviews)
		assert.Zero(t, summary.UniqueVisitors)
		assert.Empty(t, summary.Pages)
		assert.Empty(t, summary.Referrers)
		assert.NotNil(t, summary.Daily)
	})

	t.Run("sums across days without deduplication", func(t *testing.T) {
		daily := []domain.DayStats{
			{
				Date:           "2025-03-10",
				Pageviews:      10,
				UniqueVisitors: 4,
				Pages:          map[string]int64{"/": 6, "/pricing": 4},
				Referrers:      map[string]int64{"google.com": 3},
			},
			{
				Date:           "2025-03-11",
				Pageviews:      5,
				UniqueVisitors: 4,
				Pages:          map[string]int64{"/": 5},
				Referrers:      map[string]int64{"google.com": 1, "news.ycombinator.com": 2},
			},
		}

		summary := MergeDaily(daily)

		assert.Equal(t, int64(15), summary.Pageviews)
		// The same visitor on both days counts twice in the range total.
		assert.Equal(t, int64(8), summary.UniqueVisitors)
		assert.Equal(t, int64(11), summary.Pages["/"])
		assert.Equal(t, int64(4), summary.Pages["/pricing"])
		assert.Equal(t, int64(4), summary.Referrers["google.com"])
		assert.Equal(t, int64(2), summary.Referrers["news.ycombinator.com"])
		assert.Len(t, summary.Daily, 2)
	})

	t.Run("zero days contribute nothing", func(t *testing.T) {
		daily := []domain.DayStats{
			{Date: "2025-03-10", Pages: map[string]int64{}, Referrers: map[string]int64{}},
			{Date: "2025-03-11", Pageviews: 3, UniqueVisitors: 1, Pages: map[string]int64{"/": 3}, Referrers: map[string]int64{}},
		}

		summary := MergeDaily(daily)
		assert.Equal(t, int64(3), summary.Pageviews)
		assert.Equal(t, int64(1), summary.UniqueVisitors)
	})
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2025, 3, 17, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		period string
		days   int
	}{
		{"24h", 1},
		{"7d", 7},
		{"30d", 30},
		{"90d", 90},
		{"365d", 365},
		{"", 7},
		{"nonsense", 7},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			start, end := PeriodRange(tt.period, now)
			assert.Equal(t, now, end)
			assert.Equal(t, now.AddDate(0, 0, -tt.days), start)
		})
	}
}

func TestVisitorHash(t *testing.T) {
	h1 := VisitorHash("203.0.113.9", "Mozilla/5.0", "site_a")
	h2 := VisitorHash("203.0.113.9", "Mozilla/5.0", "site_a")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 32)

	// The site id is part of the input, so one browser does not correlate
	// across sites.
	h3 := VisitorHash("203.0.113.9", "Mozilla/5.0", "site_b")
	assert.NotEqual(t, h1, h3)

	h4 := VisitorHash("203.0.113.10", "Mozilla/5.0", "site_a")
	assert.NotEqual(t, h1, h4)
}
