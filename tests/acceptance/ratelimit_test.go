package acceptance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/service"
)

func (s *Suite) TestRegisterRateLimit_AdmitsExactlyTheLimit() {
	// Test config allows 5 registrations per window per client.
	for i := 0; i < 5; i++ {
		resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
			Email:    fmt.Sprintf("burst-%d@example.com", i),
			Password: "Password123",
		})
		s.Equal(http.StatusCreated, resp.StatusCode, "request %d should be admitted", i+1)
		resp.Body.Close()
	}

	resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "burst-over@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
	s.NotEmpty(resp.Header.Get("X-RateLimit-Retry-After"))
	s.Equal("0", resp.Header.Get("X-RateLimit-Remaining"))

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("RATE_LIMITED", errResp.Code)
}

func (s *Suite) TestRateLimit_CountsRejectedInputs() {
	// Malformed attempts burn budget too; the limiter runs before the
	// handler ever sees the body.
	for i := 0; i < 5; i++ {
		resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
			Email:    "not-an-email",
			Password: "x",
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	}

	resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "valid@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
}

func (s *Suite) TestRateLimit_AdmitsAgainAfterWindow() {
	for i := 0; i < 5; i++ {
		resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
			Email:    fmt.Sprintf("window-%d@example.com", i),
			Password: "Password123",
		})
		s.Equal(http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "window-over@example.com",
		Password: "Password123",
	})
	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()

	// Expire the counter instead of waiting a minute for the window.
	ctx := context.Background()
	keys, err := s.Redis.Client.Keys(ctx, "ratelimit:register:*").Result()
	s.Require().NoError(err)
	s.Require().NotEmpty(keys)
	s.Require().NoError(s.Redis.Client.Del(ctx, keys...).Err())

	resp = s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "window-fresh@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusCreated, resp.StatusCode)
	s.Equal("4", resp.Header.Get("X-RateLimit-Remaining"))
}

func (s *Suite) TestRateLimit_KeysUseHashedClient() {
	resp := s.postJSON("/api/auth/login", "", dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Password123",
	})
	resp.Body.Close()

	keys, err := s.Redis.Client.Keys(context.Background(), "ratelimit:login:*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)

	// The suffix is the caller's address hashed exactly once.
	hashed := map[string]bool{
		"ratelimit:login:" + service.ClientKey("127.0.0.1"): true,
		"ratelimit:login:" + service.ClientKey("::1"):       true,
	}
	s.True(hashed[keys[0]], "unexpected limiter key %s", keys[0])
}

func (s *Suite) TestRateLimit_HeadersCountDown() {
	resp := s.postJSON("/api/auth/login", "", dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal("10", resp.Header.Get("X-RateLimit-Limit"))
	s.Equal("9", resp.Header.Get("X-RateLimit-Remaining"))
}
