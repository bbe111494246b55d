package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
)

// ErrInvalidSetting is returned when a stored setting cannot be parsed.
var ErrInvalidSetting = errors.New("invalid setting value")

// SettingStore persists key-value application settings.
type SettingStore interface {
	GetAll(ctx context.Context) ([]model.AppSetting, error)
	GetByKey(ctx context.Context, key string) (*model.AppSetting, error)
	Upsert(ctx context.Context, values map[string]string) error
}

// ThresholdReader supplies the current passing percentage.
type ThresholdReader interface {
	PassingPercentage(ctx context.Context) (float64, error)
}

// SettingService reads and writes application settings. Single keys are
// cached in Redis for ttl when a client is configured.
type SettingService struct {
	store SettingStore
	rdb   *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewSettingService creates a new SettingService. rdb may be nil.
func NewSettingService(store SettingStore, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *SettingService {
	return &SettingService{
		store: store,
		rdb:   rdb,
		ttl:   ttl,
		log:   log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) cacheEnabled() bool {
	return s.rdb != nil && s.ttl > 0
}

// GetAllSettings returns every stored setting as a map.
func (s *SettingService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.store.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}
	return model.SettingsMap(rows), nil
}

// GetPublicSettings returns the subset of settings exposed to candidates.
func (s *SettingService) GetPublicSettings(ctx context.Context) (map[string]string, error) {
	keys := model.PublicSettingKeys()
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		v, err := s.GetSettingByKey(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// UpdateSettings validates and writes settings, then drops their cache entries.
func (s *SettingService) UpdateSettings(ctx context.Context, settingsMap map[string]string) error {
	if v, ok := settingsMap[model.SettingMCQPassingPercentage]; ok {
		if _, err := parsePercentage(v); err != nil {
			return invalid(model.SettingMCQPassingPercentage, "must be a number between 0 and 100")
		}
	}

	if err := s.store.Upsert(ctx, settingsMap); err != nil {
		s.log.Error().Err(err).Msg("failed to update settings")
		return err
	}

	if s.cacheEnabled() {
		keys := make([]string, 0, len(settingsMap))
		for key := range settingsMap {
			keys = append(keys, config.CacheKey.SettingKey(key))
		}
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			s.log.Warn().Err(err).Msg("failed to invalidate settings cache")
		}
	}
	return nil
}

// GetSettingByKey returns a single setting value. It returns
// repository.ErrNotFound when the key is unset.
func (s *SettingService) GetSettingByKey(ctx context.Context, key string) (string, error) {
	cacheKey := config.CacheKey.SettingKey(key)
	if s.cacheEnabled() {
		val, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("settings cache read failed")
		}
	}

	setting, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return "", err
	}

	if s.cacheEnabled() {
		// Self-heal the cache for the next reader.
		if err := s.rdb.Set(ctx, cacheKey, setting.Value, s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("settings cache write failed")
		}
	}
	return setting.Value, nil
}

// PassingPercentage returns the configured passing threshold.
func (s *SettingService) PassingPercentage(ctx context.Context) (float64, error) {
	raw, err := s.GetSettingByKey(ctx, model.SettingMCQPassingPercentage)
	if err != nil {
		return 0, err
	}
	return parsePercentage(raw)
}

func parsePercentage(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, fmt.Errorf("%w: %q is not a percentage", ErrInvalidSetting, raw)
	}
	return v, nil
}

// resolveThreshold reads the passing threshold, falling back to fallback on
// any error. A missing setting is expected; anything else is logged as a warning.
func resolveThreshold(ctx context.Context, reader ThresholdReader, fallback float64, log zerolog.Logger) float64 {
	if reader == nil {
		return fallback
	}
	v, err := reader.PassingPercentage(ctx)
	if err == nil {
		return v
	}
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug().Float64("default", fallback).Msg("passing percentage not set, using default")
	} else {
		log.Warn().Err(err).Float64("default", fallback).Msg("failed to read passing percentage, using default")
	}
	return fallback
}
