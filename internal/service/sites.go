package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/repository"
	"github.com/ztas-io/analytics-api/internal/utils"
)

type siteService struct {
	sites repository.SiteRepository
}

// NewSiteService creates a new site service
func NewSiteService(sites repository.SiteRepository) SiteService {
	return &siteService{sites: sites}
}

func newSiteID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate site id: %w", err)
	}
	return "site_" + hex.EncodeToString(buf), nil
}

func (s *siteService) Create(ctx context.Context, userID, siteDomain, nickname string) (*domain.Site, error) {
	normalized := utils.NormalizeDomain(siteDomain)
	if normalized == "" {
		return nil, fmt.Errorf("%w: domain is required", ErrValidation)
	}

	id, err := newSiteID()
	if err != nil {
		return nil, err
	}

	site := &domain.Site{
		ID:     id,
		UserID: userID,
		Domain: normalized,
	}
	if nickname != "" {
		site.Nickname = &nickname
	}

	if err := s.sites.Create(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	return site, nil
}

func (s *siteService) Get(ctx context.Context, siteID string) (*domain.Site, error) {
	return s.sites.GetByID(ctx, siteID)
}

func (s *siteService) List(ctx context.Context, userID string) ([]*domain.Site, error) {
	return s.sites.ListByUserID(ctx, userID)
}

// Update changes the domain and/or nickname of a site owned by userID. A nil
// nickname leaves the current one alone; an empty string clears it.
func (s *siteService) Update(ctx context.Context, userID string, req *dto.UpdateSiteRequest) (*domain.Site, error) {
	site, err := s.sites.GetByID(ctx, req.SiteID)
	if err != nil {
		return nil, err
	}
	if site.UserID != userID {
		return nil, ErrForbidden
	}

	if req.Domain != "" {
		normalized := utils.NormalizeDomain(req.Domain)
		if normalized == "" {
			return nil, fmt.Errorf("%w: domain must not be empty", ErrValidation)
		}
		site.Domain = normalized
	}

	if req.Nickname != nil {
		if *req.Nickname == "" {
			site.Nickname = nil
		} else {
			site.Nickname = req.Nickname
		}
	}

	if err := s.sites.Update(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to update site: %w", err)
	}

	return site, nil
}
