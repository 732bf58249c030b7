package acceptance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// noRedirectClient surfaces the 302s the OAuth flow answers with.
var noRedirectClient = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func (s *Suite) seedOAuthState(stateID, provider string) {
	record := map[string]any{
		"csrf":       "test-csrf-nonce",
		"plan":       "pro",
		"provider":   provider,
		"created_at": time.Now(),
	}
	payload, err := json.Marshal(record)
	s.Require().NoError(err)

	err = s.Redis.Client.Set(context.Background(), "oauth:state:"+stateID, payload, 10*time.Minute).Err()
	s.Require().NoError(err)
}

func (s *Suite) callbackLocation(provider, query string) string {
	resp, err := noRedirectClient.Get(s.BaseURL + "/api/auth/callback/" + provider + query)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

func (s *Suite) TestOAuthCallback_StateConsumedOnce() {
	s.seedOAuthState("state-replay", "github")

	// First use consumes the state. The code exchange then fails against
	// the fake provider credentials, which is a different failure than an
	// invalid state.
	first := s.callbackLocation("github", "?code=fake-code&state=state-replay")
	s.Contains(first, "/login/?error=")
	s.NotContains(first, url.QueryEscape("expired"))

	// Replay with the identical state must fail validation.
	second := s.callbackLocation("github", "?code=fake-code&state=state-replay")
	s.Contains(second, url.QueryEscape("Login session expired"))
}

func (s *Suite) TestOAuthCallback_ProviderMismatchBurnsState() {
	s.seedOAuthState("state-mismatch", "google")

	loc := s.callbackLocation("github", "?code=fake-code&state=state-mismatch")
	s.Contains(loc, url.QueryEscape("does not match this provider"))

	// The mismatched attempt still consumed the state.
	replay := s.callbackLocation("google", "?code=fake-code&state=state-mismatch")
	s.Contains(replay, url.QueryEscape("Login session expired"))
}

func (s *Suite) TestOAuthCallback_OrderedFailures() {
	s.Contains(s.callbackLocation("github", "?error=access_denied"),
		url.QueryEscape("cancelled or denied"))

	s.Contains(s.callbackLocation("github", "?state=whatever"),
		url.QueryEscape("Missing authorization code"))

	s.Contains(s.callbackLocation("github", "?code=fake-code"),
		url.QueryEscape("Missing state parameter"))

	s.Contains(s.callbackLocation("github", "?code=fake-code&state=never-issued"),
		url.QueryEscape("Login session expired"))
}

func (s *Suite) TestOAuthBegin_RedirectsToProvider() {
	resp, err := noRedirectClient.Get(s.BaseURL + "/api/auth/github?plan=starter")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	s.Require().NoError(err)
	s.Equal("github.com", loc.Host)

	stateID := loc.Query().Get("state")
	s.Require().NotEmpty(stateID)

	// The state record is in place with the selected plan.
	payload, err := s.Redis.Client.Get(context.Background(), "oauth:state:"+stateID).Result()
	s.Require().NoError(err)

	var record struct {
		Plan     string `json:"plan"`
		Provider string `json:"provider"`
	}
	s.Require().NoError(json.Unmarshal([]byte(payload), &record))
	s.Equal("starter", record.Plan)
	s.Equal("github", record.Provider)
}

func (s *Suite) TestOAuthBegin_UnconfiguredProvider() {
	// Google credentials are absent from the test config.
	resp, err := noRedirectClient.Get(s.BaseURL + "/api/auth/google")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusFound, resp.StatusCode)
	s.Contains(resp.Header.Get("Location"), url.QueryEscape("not available"))
}
