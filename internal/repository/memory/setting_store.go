package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
)

// SettingStore is an in-memory key-value settings table.
type SettingStore struct {
	mu       sync.RWMutex
	settings map[string]model.AppSetting
}

// NewSettingStore returns a store seeded with initial.
func NewSettingStore(initial map[string]string) *SettingStore {
	s := &SettingStore{settings: make(map[string]model.AppSetting)}
	now := time.Now().UTC()
	for k, v := range initial {
		s.settings[k] = model.AppSetting{Key: k, Value: v, UpdatedAt: now}
	}
	return s
}

func (s *SettingStore) GetAll(_ context.Context) ([]model.AppSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AppSetting, 0, len(s.settings))
	for _, v := range s.settings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *SettingStore) GetByKey(_ context.Context, key string) (*model.AppSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (s *SettingStore) Upsert(_ context.Context, values map[string]string) error {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.settings[k] = model.AppSetting{Key: k, Value: v, UpdatedAt: now}
	}
	return nil
}
