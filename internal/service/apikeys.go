package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/repository"
)

const (
	apiKeySecretPrefix = "zta_"
	apiKeyPrefixLen    = 12
)

type apiKeyService struct {
	keys repository.APIKeyRepository
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(keys repository.APIKeyRepository) APIKeyService {
	return &apiKeyService{keys: keys}
}

// newSecret returns the plaintext secret, its display prefix, and the hash
// that gets persisted.
func newSecret() (secret, prefix, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("failed to generate api key secret: %w", err)
	}

	secret = apiKeySecretPrefix + hex.EncodeToString(buf)
	prefix = secret[:apiKeyPrefixLen]
	sum := sha256.Sum256([]byte(secret))
	hash = hex.EncodeToString(sum[:])
	return secret, prefix, hash, nil
}

// Create mints a new key. The plaintext secret is returned once and never
// stored.
func (s *apiKeyService) Create(ctx context.Context, userID string, req *dto.CreateAPIKeyRequest) (*dto.APIKeyResponse, error) {
	name := req.Name
	if name == "" {
		name = "API Key"
	}

	secret, prefix, hash, err := newSecret()
	if err != nil {
		return nil, err
	}

	key := &domain.APIKey{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Prefix:      prefix,
		SecretHash:  hash,
		Permissions: domain.FilterPermissions(req.Permissions),
	}

	if err := s.keys.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}

	return &dto.APIKeyResponse{
		ID:          key.ID,
		Name:        key.Name,
		Prefix:      key.Prefix,
		Permissions: key.Permissions,
		Secret:      secret,
		Message:     "Save this key now. It will not be shown again.",
	}, nil
}

func (s *apiKeyService) List(ctx context.Context, userID string) ([]*domain.APIKey, error) {
	return s.keys.ListByUserID(ctx, userID)
}

func (s *apiKeyService) Rename(ctx context.Context, userID string, req *dto.RenameAPIKeyRequest) (*domain.APIKey, error) {
	return s.keys.Rename(ctx, req.KeyID, userID, req.Name)
}

func (s *apiKeyService) Revoke(ctx context.Context, userID, keyID string) error {
	return s.keys.Delete(ctx, keyID, userID)
}
