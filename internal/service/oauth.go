package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/ztas-io/analytics-api/internal/config"
	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/internal/repository"
	"github.com/ztas-io/analytics-api/internal/utils"
	"github.com/ztas-io/analytics-api/pkg/database"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
	googleoauth "golang.org/x/oauth2/google"
)

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
	googleUserURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// oauthService implements the one-time-state authorization flow for GitHub
// and Google.
type oauthService struct {
	redis       *database.Redis
	users       repository.UserRepository
	jwtManager  *utils.JWTManager
	providers   map[string]*oauth2.Config
	stateTTL    time.Duration
	trialPeriod time.Duration
}

// providerUser is the normalized identity returned by a provider.
type providerUser struct {
	Email      string
	ProviderID string
	Name       string
}

// NewOAuthService creates a new OAuth service
func NewOAuthService(
	redis *database.Redis,
	users repository.UserRepository,
	jwtManager *utils.JWTManager,
	cfg config.OAuthConfig,
	trialPeriod time.Duration,
) OAuthService {
	providers := map[string]*oauth2.Config{}

	if cfg.GitHubClientID != "" {
		providers["github"] = &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     githuboauth.Endpoint,
			RedirectURL:  cfg.RedirectBase + "/api/auth/callback/github",
			Scopes:       []string{"user:email"},
		}
	}

	if cfg.GoogleClientID != "" {
		providers["google"] = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     googleoauth.Endpoint,
			RedirectURL:  cfg.RedirectBase + "/api/auth/callback/google",
			Scopes:       []string{"email", "profile"},
		}
	}

	return &oauthService{
		redis:       redis,
		users:       users,
		jwtManager:  jwtManager,
		providers:   providers,
		stateTTL:    cfg.StateTTL.Duration,
		trialPeriod: trialPeriod,
	}
}

func stateKey(id string) string {
	return "oauth:state:" + id
}

// Begin issues a random state identifier, stores the state record with a
// bounded TTL, and returns the provider authorization URL carrying the
// identifier.
func (s *oauthService) Begin(ctx context.Context, provider, plan string) (string, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	if !domain.ValidPlan(plan) {
		plan = domain.PlanPro
	}

	stateID := uuid.New().String()
	record := domain.OAuthState{
		CSRF:      uuid.New().String(),
		Plan:      plan,
		Provider:  provider,
		CreatedAt: time.Now(),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal oauth state: %w", err)
	}

	if err := s.redis.Client.Set(ctx, stateKey(stateID), payload, s.stateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	return cfg.AuthCodeURL(stateID), nil
}

// ConsumeState atomically looks up and invalidates a state record. GETDEL is
// a single round trip, so two concurrent callbacks carrying the same state
// cannot both succeed; any miss (expired, already used, forged) is
// ErrStateInvalid. A state issued for another provider fails with
// ErrProviderMismatch and is still burned.
func (s *oauthService) ConsumeState(ctx context.Context, provider, stateID string) (*domain.OAuthState, error) {
	payload, err := s.redis.Client.GetDel(ctx, stateKey(stateID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateInvalid
		}
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}

	var record domain.OAuthState
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth state: %w", err)
	}

	if record.Provider != provider {
		return nil, ErrProviderMismatch
	}

	return &record, nil
}

// Callback completes the flow after a successful state consumption: code
// exchange, userinfo fetch, user upsert, session token issue.
func (s *oauthService) Callback(ctx context.Context, provider, code, plan string) (string, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	var identity *providerUser
	switch provider {
	case "github":
		identity, err = s.fetchGitHubUser(ctx, cfg, token)
	case "google":
		identity, err = s.fetchGoogleUser(ctx, cfg, token)
	default:
		return "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	if err != nil {
		return "", err
	}

	if identity.Email == "" {
		return "", ErrNoEmail
	}

	user, err := s.upsertUser(ctx, provider, plan, identity)
	if err != nil {
		return "", err
	}

	return s.jwtManager.Generate(user.ID, user.Email)
}

// upsertUser creates a fresh OAuth account, or attaches the provider
// identity to an existing account that does not have one yet.
func (s *oauthService) upsertUser(ctx context.Context, provider, plan string, identity *providerUser) (*domain.User, error) {
	email := utils.SanitizeEmail(identity.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if user.OAuthProvider == nil {
			if err := s.users.UpdateOAuthProvider(ctx, email, provider, identity.ProviderID); err != nil {
				return nil, fmt.Errorf("failed to attach oauth provider: %w", err)
			}
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !domain.ValidPlan(plan) {
		plan = domain.PlanPro
	}

	providerCopy := provider
	providerID := identity.ProviderID
	user = &domain.User{
		Email:           email,
		Name:            identity.Name,
		Plan:            plan,
		TrialEndsAt:     time.Now().Add(s.trialPeriod),
		OAuthProvider:   &providerCopy,
		OAuthProviderID: &providerID,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}

	return user, nil
}

func (s *oauthService) fetchGitHubUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*providerUser, error) {
	client := cfg.Client(ctx, token)

	var profile struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, githubUserURL, &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch github user: %w", err)
	}

	email := profile.Email
	if email == "" {
		// The profile email is absent when the user keeps it private; the
		// emails endpoint lists it with visibility flags.
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, githubEmailsURL, &emails); err != nil {
			return nil, fmt.Errorf("failed to fetch github emails: %w", err)
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}

	name := profile.Name
	if name == "" {
		name = profile.Login
	}

	return &providerUser{
		Email:      email,
		ProviderID: fmt.Sprintf("%d", profile.ID),
		Name:       name,
	}, nil
}

func (s *oauthService) fetchGoogleUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*providerUser, error) {
	client := cfg.Client(ctx, token)

	var profile struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, client, googleUserURL, &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch google user: %w", err)
	}

	return &providerUser{
		Email:      profile.Email,
		ProviderID: profile.ID,
		Name:       profile.Name,
	}, nil
}
