package services

import (
	"context"

	"github.com/avolkovs/focuskeeper/internal/client/cache"
	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/client/remote"
	"github.com/avolkovs/focuskeeper/internal/logging"
)

// appVersionCacheId is the fixed cache key for the single version record.
const appVersionCacheId = "appVersion"

type VersionService interface {
	// Check returns the backend's version gate, falling back to the last
	// cached copy when the backend cannot be reached.
	Check(ctx context.Context) (*models.AppVersion, error)
}

type versionService struct {
	store   cache.Store
	backend remote.Backend
	log     logging.Logger
}

func NewVersionService(store cache.Store, backend remote.Backend, log logging.Logger) VersionService {
	if log == nil {
		log = logging.Nop()
	}
	return &versionService{store: store, backend: backend, log: log}
}

func (s *versionService) Check(ctx context.Context) (*models.AppVersion, error) {
	v, err := s.backend.FetchAppVersion(ctx)
	if err == nil {
		s.store.Save(ctx, appVersionCacheId, models.TypeAppVersion, v, false)
		return v, nil
	}

	var cached models.AppVersion
	if s.store.Fetch(ctx, appVersionCacheId, models.TypeAppVersion, &cached) {
		s.log.Warn(ctx, "version check failed, serving cached copy", "error", err)
		return &cached, nil
	}
	return nil, err
}
