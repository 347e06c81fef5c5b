package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BearBump/SyncBox/internal/cache/rediscache"
	"github.com/BearBump/SyncBox/internal/models"
)

const (
	defaultDownloadLimit = 100
	driversCacheTTL      = 30 * time.Second
)

type Repository interface {
	ListOrdersSince(ctx context.Context, since *time.Time, limit int) ([]*models.Order, error)
	ListDrivers(ctx context.Context, statuses []string, limit int) ([]models.DriverInfo, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Service — читающая сторона: выгрузка изменений на устройство и
// справка по водителям.
type Service struct {
	repo          Repository
	cache         Cache
	downloadLimit int
}

func New(repo Repository, cache Cache, downloadLimit int) *Service {
	if downloadLimit <= 0 {
		downloadLimit = defaultDownloadLimit
	}
	return &Service{repo: repo, cache: cache, downloadLimit: downloadLimit}
}

// OrdersSince отдаёт заказы, изменившиеся после водяного знака клиента.
// since == nil — полная выгрузка.
func (s *Service) OrdersSince(ctx context.Context, since *time.Time, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = s.downloadLimit
	}
	return s.repo.ListOrdersSince(ctx, since, limit)
}

// Drivers возвращает водителей в рейсе. Выборка без фильтра кэшируется:
// её дёргают и десктоп, и бот.
func (s *Service) Drivers(ctx context.Context, statuses []string, limit int) ([]models.DriverInfo, error) {
	cacheable := len(statuses) == 0 && s.cache != nil

	if cacheable {
		if raw, ok, err := s.cache.Get(ctx, rediscache.KeyDrivers); err != nil {
			slog.Warn("drivers cache get", "error", err.Error())
		} else if ok {
			var out []models.DriverInfo
			if err := json.Unmarshal(raw, &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := s.repo.ListDrivers(ctx, statuses, limit)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, rediscache.KeyDrivers, raw, driversCacheTTL); err != nil {
				slog.Warn("drivers cache set", "error", err.Error())
			}
		}
	}
	return out, nil
}
