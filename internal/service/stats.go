package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/pkg/database"
)

const dateLayout = "2006-01-02"

// StatsService maintains per-site daily stat buckets in Redis. Each bucket
// field is written with an atomic increment (HINCRBY / SADD), so concurrent
// invocations for the same site and day never lose updates.
type StatsService struct {
	redis     *database.Redis
	retention time.Duration
}

// NewStatsService creates a new stats service
func NewStatsService(redis *database.Redis, retention time.Duration) *StatsService {
	return &StatsService{redis: redis, retention: retention}
}

// VisitorHash derives the anonymous visitor identifier for one site from the
// client IP and user agent. The site id is mixed in so the same browser
// yields unrelated hashes across sites.
func VisitorHash(ip, userAgent, siteID string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent + "|" + siteID))
	return hex.EncodeToString(sum[:16])
}

func bucketKey(siteID, date string) string {
	return fmt.Sprintf("stats:%s:%s", siteID, date)
}

// Record appends one pageview to the bucket for (siteID, today): increments
// the pageview count, adds the visitor to the day's set, and bumps the
// per-path and (when present) per-referrer counters. The retention TTL is
// refreshed on every write.
func (s *StatsService) Record(ctx context.Context, siteID, visitorHash, path, referrer string) error {
	date := time.Now().UTC().Format(dateLayout)
	key := bucketKey(siteID, date)

	if path == "" {
		path = "/"
	}

	pipe := s.redis.Client.Pipeline()
	pipe.HIncrBy(ctx, key, "pageviews", 1)
	pipe.SAdd(ctx, key+":visitors", visitorHash)
	pipe.HIncrBy(ctx, key+":pages", path, 1)
	if referrer != "" {
		pipe.HIncrBy(ctx, key+":referrers", referrer, 1)
	}
	pipe.Expire(ctx, key, s.retention)
	pipe.Expire(ctx, key+":visitors", s.retention)
	pipe.Expire(ctx, key+":pages", s.retention)
	if referrer != "" {
		pipe.Expire(ctx, key+":referrers", s.retention)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record pageview: %w", err)
	}

	return nil
}

// RecordEvent counts a custom event under an event-style key in the day's
// page map, so events roll up through the same aggregation path.
func (s *StatsService) RecordEvent(ctx context.Context, siteID, visitorHash, category, action string) error {
	name := category
	if action != "" {
		name = category + ":" + action
	}
	if name == "" {
		name = "event"
	}
	return s.Record(ctx, siteID, visitorHash, "event:"+name, "")
}

// Summary folds the buckets for every calendar date in the inclusive range
// into totals plus the per-day list. Missing days read as zero; a start after
// end yields an empty day list and zero totals, never an error.
func (s *StatsService) Summary(ctx context.Context, siteID string, start, end time.Time) (*domain.StatsSummary, error) {
	dates := DatesInRange(start, end)

	daily := make([]domain.DayStats, 0, len(dates))
	for _, date := range dates {
		day, err := s.readDay(ctx, siteID, date)
		if err != nil {
			return nil, err
		}
		daily = append(daily, day)
	}

	summary := MergeDaily(daily)
	return &summary, nil
}

func (s *StatsService) readDay(ctx context.Context, siteID, date string) (domain.DayStats, error) {
	key := bucketKey(siteID, date)

	pipe := s.redis.Client.Pipeline()
	pageviews := pipe.HGet(ctx, key, "pageviews")
	visitors := pipe.SCard(ctx, key+":visitors")
	pages := pipe.HGetAll(ctx, key+":pages")
	referrers := pipe.HGetAll(ctx, key+":referrers")

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.DayStats{}, fmt.Errorf("failed to read stats for %s: %w", date, err)
	}

	day := domain.DayStats{
		Date:      date,
		Pages:     map[string]int64{},
		Referrers: map[string]int64{},
	}

	if raw, err := pageviews.Result(); err == nil {
		day.Pageviews, _ = strconv.ParseInt(raw, 10, 64)
	}
	day.UniqueVisitors = visitors.Val()
	for path, raw := range pages.Val() {
		n, _ := strconv.ParseInt(raw, 10, 64)
		day.Pages[path] = n
	}
	for ref, raw := range referrers.Val() {
		n, _ := strconv.ParseInt(raw, 10, 64)
		day.Referrers[ref] = n
	}

	return day, nil
}

// DatesInRange enumerates every calendar date from start to end inclusive,
// formatted as YYYY-MM-DD. Returns an empty slice when start is after end.
func DatesInRange(start, end time.Time) []string {
	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates
}

// MergeDaily folds per-day buckets into range totals: pageviews and
// day-level unique counts are summed (uniques are not deduplicated across
// days), and the page/referrer maps are merged by summing counts per key.
func MergeDaily(daily []domain.DayStats) domain.StatsSummary {
	summary := domain.StatsSummary{
		Pages:     map[string]int64{},
		Referrers: map[string]int64{},
		Daily:     daily,
	}
	if summary.Daily == nil {
		summary.Daily = []domain.DayStats{}
	}

	for _, day := range daily {
		summary.Pageviews += day.Pageviews
		summary.UniqueVisitors += day.UniqueVisitors
		for path, count := range day.Pages {
			summary.Pages[path] += count
		}
		for ref, count := range day.Referrers {
			summary.Referrers[ref] += count
		}
	}

	return summary
}

// PeriodRange resolves a period preset (24h, 7d, 30d, 90d, 365d) to a date
// range ending now. Unknown presets fall back to 7d.
func PeriodRange(period string, now time.Time) (time.Time, time.Time) {
	days := 7
	switch period {
	case "24h":
		days = 1
	case "7d":
		days = 7
	case "30d":
		days = 30
	case "90d":
		days = 90
	case "365d":
		days = 365
	}
	return now.AddDate(0, 0, -days), now
}
