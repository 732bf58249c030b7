package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/ztas-io/analytics-api/internal/dto"
)

func (s *Suite) TestSites_UpdateOwnershipAndNickname() {
	ownerToken := s.registerUser("siteowner@example.com")
	siteID := s.createSite(ownerToken, "mysite.example.com")

	otherToken := s.registerUser("sitethief@example.com")
	nickname := "not yours"
	resp := s.postJSON("/api/sites/update", otherToken, dto.UpdateSiteRequest{
		SiteID:   siteID,
		Nickname: &nickname,
	})
	s.Equal(http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	mine := "My main site"
	resp = s.postJSON("/api/sites/update", ownerToken, dto.UpdateSiteRequest{
		SiteID:   siteID,
		Domain:   "https://Renamed.Example.com",
		Nickname: &mine,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var site struct {
		Domain   string  `json:"domain"`
		Nickname *string `json:"nickname"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&site))
	resp.Body.Close()

	s.Equal("renamed.example.com", site.Domain)
	s.Require().NotNil(site.Nickname)
	s.Equal("My main site", *site.Nickname)

	// Empty nickname clears it.
	empty := ""
	resp = s.postJSON("/api/sites/update", ownerToken, dto.UpdateSiteRequest{
		SiteID:   siteID,
		Nickname: &empty,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&site))
	resp.Body.Close()
	s.Nil(site.Nickname)
}

func (s *Suite) TestHealth() {
	resp, err := http.Get(s.BaseURL + "/api/health")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal("pass", body.Status)
}

func (s *Suite) TestMetricsEndpoint() {
	resp, err := http.Get(s.BaseURL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
}
