package acceptance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ztas-io/analytics-api/internal/dto"
)

func (s *Suite) trackEvent(siteID, origin, userAgent string, req dto.TrackRequest) *http.Response {
	req.SiteID = siteID

	payload, err := json.Marshal(req)
	s.Require().NoError(err)

	httpReq, err := http.NewRequest(http.MethodPost, s.BaseURL+"/api/track", bytes.NewReader(payload))
	s.Require().NoError(err)
	httpReq.Header.Set("Content-Type", "application/json")
	if origin != "" {
		httpReq.Header.Set("Origin", origin)
	}
	if userAgent != "" {
		httpReq.Header.Set("User-Agent", userAgent)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) getStats(token, siteID, query string) (int, statsSummary) {
	resp := s.doJSON(http.MethodGet, "/api/stats?siteId="+siteID+query, token, nil)
	defer resp.Body.Close()

	var summary statsSummary
	if resp.StatusCode == http.StatusOK {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&summary))
	}
	return resp.StatusCode, summary
}

type statsSummary struct {
	Pageviews      int64            `json:"pageviews"`
	UniqueVisitors int64            `json:"uniqueVisitors"`
	Pages          map[string]int64 `json:"pages"`
	Referrers      map[string]int64 `json:"referrers"`
	Daily          []struct {
		Date      string `json:"date"`
		Pageviews int64  `json:"pageviews"`
	} `json:"daily"`
}

func (s *Suite) TestTrack_CountsPageviewsAndUniques() {
	token := s.registerUser("stats@example.com")
	siteID := s.createSite(token, "example.com")

	agents := []string{"agent-one", "agent-two", "agent-three"}
	for i := 0; i < 5; i++ {
		resp := s.trackEvent(siteID, "https://example.com", agents[i%3], dto.TrackRequest{
			Path:     "/pricing",
			Referrer: "google.com",
		})
		s.Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	status, summary := s.getStats(token, siteID, "&period=24h")
	s.Equal(http.StatusOK, status)
	s.Equal(int64(5), summary.Pageviews)
	s.Equal(int64(3), summary.UniqueVisitors)
	s.Equal(int64(5), summary.Pages["/pricing"])
	s.Equal(int64(5), summary.Referrers["google.com"])
}

func (s *Suite) TestStats_SevenDayRollup() {
	token := s.registerUser("rollup@example.com")
	siteID := s.createSite(token, "rollup.example.com")

	// Seed one pageview per day across the last week, straight into the
	// daily buckets the aggregator reads.
	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		key := fmt.Sprintf("stats:%s:%s", siteID, date)
		s.Require().NoError(s.Redis.Client.HIncrBy(ctx, key, "pageviews", 1).Err())
		s.Require().NoError(s.Redis.Client.SAdd(ctx, key+":visitors", "visitor-"+date).Err())
		s.Require().NoError(s.Redis.Client.HIncrBy(ctx, key+":pages", "/", 1).Err())
	}

	status, summary := s.getStats(token, siteID, "&period=7d")
	s.Equal(http.StatusOK, status)
	s.Equal(int64(7), summary.Pageviews)
	// One distinct visitor per day sums additively across the range.
	s.Equal(int64(7), summary.UniqueVisitors)
	s.Equal(int64(7), summary.Pages["/"])
}

func (s *Suite) TestStats_StartAfterEndIsEmpty() {
	token := s.registerUser("empty@example.com")
	siteID := s.createSite(token, "empty.example.com")

	status, summary := s.getStats(token, siteID, "&startDate=2025-03-10&endDate=2025-03-01")
	s.Equal(http.StatusOK, status)
	s.Zero(summary.Pageviews)
	s.Zero(summary.UniqueVisitors)
	s.Empty(summary.Daily)
}

func (s *Suite) TestStats_OtherUsersSiteForbidden() {
	ownerToken := s.registerUser("owner@example.com")
	siteID := s.createSite(ownerToken, "owned.example.com")

	intruderToken := s.registerUser("intruder@example.com")
	status, _ := s.getStats(intruderToken, siteID, "&period=7d")
	s.Equal(http.StatusForbidden, status)
}

func (s *Suite) TestTrack_OriginValidation() {
	token := s.registerUser("origins@example.com")
	siteID := s.createSite(token, "example.com")

	// www variant of the registered domain is accepted.
	resp := s.trackEvent(siteID, "https://www.example.com", "ua", dto.TrackRequest{Path: "/"})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Foreign origin is rejected.
	resp = s.trackEvent(siteID, "https://evil.com", "ua", dto.TrackRequest{Path: "/"})
	s.Equal(http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Non-browser clients send no Origin and are accepted.
	resp = s.trackEvent(siteID, "", "ua", dto.TrackRequest{Path: "/"})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *Suite) TestTrack_UnknownSite() {
	resp := s.trackEvent("site_does_not_exist", "", "ua", dto.TrackRequest{Path: "/"})
	defer resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestTrack_CustomEvent() {
	token := s.registerUser("events@example.com")
	siteID := s.createSite(token, "events.example.com")

	resp := s.trackEvent(siteID, "", "ua", dto.TrackRequest{
		Type:     "event",
		Category: "signup",
		Action:   "click",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	status, summary := s.getStats(token, siteID, "&period=24h")
	s.Equal(http.StatusOK, status)
	s.Equal(int64(1), summary.Pageviews)
	s.Equal(int64(1), summary.Pages["event:signup:click"])
}

func (s *Suite) TestTrack_Preflight() {
	req, err := http.NewRequest(http.MethodOptions, s.BaseURL+"/api/track", nil)
	s.Require().NoError(err)
	req.Header.Set("Origin", "https://anything.example")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.Equal("*", resp.Header.Get("Access-Control-Allow-Origin"))
}
