package repository

import (
	"context"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/submission-portal/internal/model"
)

// SettingRepository stores the key-value app_settings table.
type SettingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(pool *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

const upsertSettingSQL = `
	INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

// GetAll returns every setting ordered by key.
func (r *SettingRepository) GetAll(ctx context.Context) ([]model.AppSetting, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at FROM app_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.AppSetting])
}

// Upsert writes every key atomically in a single batch. Keys are written in
// sorted order so concurrent updates lock rows in the same sequence.
func (r *SettingRepository) Upsert(ctx context.Context, values map[string]string) error {
	batch := &pgx.Batch{}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		batch.Queue(upsertSettingSQL, key, values[key])
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

// GetByKey returns ErrNotFound when the key is unset.
func (r *SettingRepository) GetByKey(ctx context.Context, key string) (*model.AppSetting, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at FROM app_settings WHERE key = $1`, key)
	if err != nil {
		return nil, err
	}
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByPos[model.AppSetting])
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}
