package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/cache"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/upstream"
)

// ProxyAPI is the part of the LMS REST client the pass-through endpoints need
type ProxyAPI interface {
	GetLeaderboard(ctx context.Context, token, groupID string) (json.RawMessage, error)
	ListReviews(ctx context.Context, token string, query url.Values) (json.RawMessage, error)
	Upload(ctx context.Context, token, path string, fields map[string]string, file upstream.UploadFile) (json.RawMessage, error)
}

type ProxyService interface {
	Leaderboard(ctx context.Context, token, userID, groupID string) (json.RawMessage, error)
	Reviews(ctx context.Context, token string, query url.Values) (json.RawMessage, error)
	Upload(ctx context.Context, token, kind string, fields map[string]string, filename string, content io.Reader) (json.RawMessage, error)
}

const leaderboardTTL = 30 * time.Second

// uploadTargets maps an upload kind to the LMS endpoint and form field.
var uploadTargets = map[string]struct{ path, field string }{
	models.UploadAvatar:     {"/users/me/avatar/", "avatar"},
	models.UploadAudio:      {"/uploads/audio/", "audio_file"},
	models.UploadImage:      {"/uploads/images/", "image"},
	models.UploadAttachment: {"/uploads/documents/", "file"},
}

// reviewParams are the query parameters forwarded to /reviews/.
var reviewParams = []string{"page", "page_size", "task", "mock", "student", "group", "status", "ordering"}

type proxyService struct {
	api    ProxyAPI
	cache  cache.CacheService
	logger *slog.Logger
}

func NewProxyService(api ProxyAPI, cacheService cache.CacheService, logger *slog.Logger) ProxyService {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &proxyService{
		api:    api,
		cache:  cacheService,
		logger: logger,
	}
}

// Leaderboard is cached briefly per user and group; the LMS recomputes it on
// every call and only answers for members of the group.
func (s *proxyService) Leaderboard(ctx context.Context, token, userID, groupID string) (json.RawMessage, error) {
	key := cache.LeaderboardKey(userID, groupID)

	var raw json.RawMessage
	if err := s.cache.Get(ctx, key, &raw); err == nil && len(raw) > 0 {
		return raw, nil
	} else if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Debug("Leaderboard cache read failed", "group_id", groupID, "error", err)
	}

	raw, err := s.api.GetLeaderboard(ctx, token, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, raw, leaderboardTTL); err != nil {
		s.logger.Debug("Leaderboard cache write failed", "group_id", groupID, "error", err)
	}
	return raw, nil
}

func (s *proxyService) Reviews(ctx context.Context, token string, query url.Values) (json.RawMessage, error) {
	forwarded := url.Values{}
	for _, p := range reviewParams {
		if v := query.Get(p); v != "" {
			forwarded.Set(p, v)
		}
	}
	return s.api.ListReviews(ctx, token, forwarded)
}

func (s *proxyService) Upload(ctx context.Context, token, kind string, fields map[string]string, filename string, content io.Reader) (json.RawMessage, error) {
	target, ok := uploadTargets[kind]
	if !ok {
		return nil, ErrUnknownUpload
	}

	s.logger.Info("Forwarding upload", "kind", kind, "filename", filename)
	return s.api.Upload(ctx, token, target.path, fields, upstream.UploadFile{
		Field:    target.field,
		Filename: filename,
		Content:  content,
	})
}
