package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/cache"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/upstream"
)

// IdentityAPI is the part of the LMS REST client that resolves a token's owner
type IdentityAPI interface {
	GetCurrentUser(ctx context.Context, token string) (*models.UserProfile, error)
}

// IdentityService verifies bearer tokens the gateway cannot check itself.
type IdentityService interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

const tokenIdentityTTL = 5 * time.Minute

type identityService struct {
	api    IdentityAPI
	cache  cache.CacheService
	logger *slog.Logger
}

func NewIdentityService(api IdentityAPI, cacheService cache.CacheService, logger *slog.Logger) IdentityService {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &identityService{
		api:    api,
		cache:  cacheService,
		logger: logger,
	}
}

// VerifyToken returns the LMS user id behind token. A confirmed identity is
// cached under a digest of the token, never the token itself.
func (s *identityService) VerifyToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	sum := sha256.Sum256([]byte(token))
	key := cache.TokenKey(hex.EncodeToString(sum[:]))

	var user models.UserProfile
	if err := s.cache.Get(ctx, key, &user); err == nil && user.ID != "" {
		return user.ID.String(), nil
	} else if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Debug("Identity cache read failed", "error", err)
	}

	profile, err := s.api.GetCurrentUser(ctx, token)
	if err != nil {
		if upstream.IsUnauthorized(err) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("failed to verify token: %w", err)
	}
	if profile.ID == "" {
		return "", ErrUnauthorized
	}

	if err := s.cache.Set(ctx, key, profile, tokenIdentityTTL); err != nil {
		s.logger.Debug("Identity cache write failed", "error", err)
	}
	return profile.ID.String(), nil
}
