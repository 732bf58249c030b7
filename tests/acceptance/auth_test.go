package acceptance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ztas-io/analytics-api/internal/dto"
)

func (s *Suite) TestRegister_Success() {
	resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "test@example.com",
		Password: "Password123",
		Plan:     "starter",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))

	s.True(authResp.Success)
	s.NotEmpty(authResp.Token)
	s.Equal("test@example.com", authResp.User.Email)
	s.Equal("starter", authResp.User.Plan)
	s.NotEmpty(authResp.User.ID)
	s.NotEmpty(authResp.User.TrialEndsAt)
}

func (s *Suite) TestRegister_DuplicateEmail() {
	resp1 := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "duplicate@example.com",
		Password: "Password123",
	})
	resp1.Body.Close()
	s.Equal(http.StatusCreated, resp1.StatusCode)

	resp2 := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "duplicate@example.com",
		Password: "Password123",
	})
	defer resp2.Body.Close()

	s.Equal(http.StatusConflict, resp2.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp2.Body).Decode(&errResp))
	s.Equal("CONFLICT", errResp.Code)
}

func (s *Suite) TestRegister_WeakPassword() {
	resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "weak@example.com",
		Password: "alllowercase",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("VALIDATION_ERROR", errResp.Code)
}

func (s *Suite) TestRegister_WithInitialSite() {
	token := ""
	resp := s.postJSON("/api/auth/register", "", dto.RegisterRequest{
		Email:    "withsite@example.com",
		Password: "Password123",
		Domain:   "https://Example.com/",
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))
	token = authResp.Token

	listResp := s.doJSON(http.MethodGet, "/api/sites/list", token, nil)
	defer listResp.Body.Close()
	s.Equal(http.StatusOK, listResp.StatusCode)

	var list struct {
		Sites []struct {
			Domain string `json:"domain"`
		} `json:"sites"`
	}
	s.Require().NoError(json.NewDecoder(listResp.Body).Decode(&list))
	s.Require().Len(list.Sites, 1)
	s.Equal("example.com", list.Sites[0].Domain)
}

func (s *Suite) TestLogin_WrongPassword() {
	s.registerUser("login@example.com")

	resp := s.postJSON("/api/auth/login", "", dto.LoginRequest{
		Email:    "login@example.com",
		Password: "WrongPassword1",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("UNAUTHORIZED", errResp.Code)
}

func (s *Suite) TestLogin_Success() {
	s.registerUser("happy@example.com")

	resp := s.postJSON("/api/auth/login", "", dto.LoginRequest{
		Email:    "happy@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))
	s.NotEmpty(authResp.Token)
}

func (s *Suite) TestUserStatus_Trial() {
	token := s.registerUser("trial@example.com")

	resp := s.doJSON(http.MethodGet, "/api/user/status", token, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var status struct {
		Status    string `json:"status"`
		CanAccess bool   `json:"canAccess"`
		DaysLeft  int    `json:"daysLeft"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	s.Equal("trial", status.Status)
	s.True(status.CanAccess)
	s.Equal(14, status.DaysLeft)
}

func (s *Suite) TestUserStatus_RequiresToken() {
	resp := s.doJSON(http.MethodGet, "/api/user/status", "", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestPasswordReset_FullFlow() {
	s.registerUser("reset@example.com")

	// The token normally travels through the email pipeline; seed it at the
	// storage layer the way the issuing service does.
	rawToken := "acceptance-test-reset-token-value"
	sum := sha256.Sum256([]byte(rawToken))
	tokenHash := hex.EncodeToString(sum[:])

	_, err := s.Postgres.DB.Exec(
		`INSERT INTO password_reset_tokens (token_hash, email, expires_at) VALUES ($1, $2, $3)`,
		tokenHash, "reset@example.com", time.Now().Add(time.Hour),
	)
	s.Require().NoError(err)

	verifyResp := s.doJSON(http.MethodGet, "/api/auth/verify-reset-token?token="+rawToken, "", nil)
	defer verifyResp.Body.Close()
	s.Equal(http.StatusOK, verifyResp.StatusCode)

	resetResp := s.postJSON("/api/auth/reset", "", dto.ResetPasswordRequest{
		Token:    rawToken,
		Password: "NewPassword456",
	})
	defer resetResp.Body.Close()
	s.Equal(http.StatusOK, resetResp.StatusCode)

	// The token is single use.
	replayResp := s.postJSON("/api/auth/reset", "", dto.ResetPasswordRequest{
		Token:    rawToken,
		Password: "AnotherPassword789",
	})
	defer replayResp.Body.Close()
	s.Equal(http.StatusBadRequest, replayResp.StatusCode)

	oldResp := s.postJSON("/api/auth/login", "", dto.LoginRequest{
		Email:    "reset@example.com",
		Password: "Password123",
	})
	defer oldResp.Body.Close()
	s.Equal(http.StatusUnauthorized, oldResp.StatusCode)

	newResp := s.postJSON("/api/auth/login", "", dto.LoginRequest{
		Email:    "reset@example.com",
		Password: "NewPassword456",
	})
	defer newResp.Body.Close()
	s.Equal(http.StatusOK, newResp.StatusCode)
}

func (s *Suite) TestForgotPassword_NoEnumeration() {
	s.registerUser("known@example.com")

	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		resp := s.postJSON("/api/auth/forgot", "", dto.ForgotPasswordRequest{Email: email})
		s.Equal(http.StatusOK, resp.StatusCode)

		var body dto.SuccessResponse
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		s.True(body.Success)
	}
}
