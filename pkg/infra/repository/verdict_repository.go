package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/infra/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CachedVerdict struct {
	Key       string `gorm:"primaryKey"`
	Payload   []byte
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CachedVerdict) TableName() string {
	return "cached_verdicts"
}

// VerdictRepository is the postgres cache.Store.
type VerdictRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ cache.Store = (*VerdictRepository)(nil)

func NewVerdictRepository(db *gorm.DB) *VerdictRepository {
	return &VerdictRepository{db: db, now: time.Now}
}

func (r *VerdictRepository) Get(ctx context.Context, key string) ([]byte, time.Duration, error) {
	var row CachedVerdict
	now := r.now()
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, cache.ErrCacheMiss
	}
	if err != nil {
		return nil, 0, err
	}
	var remaining time.Duration
	if row.ExpiresAt != nil {
		remaining = row.ExpiresAt.Sub(now)
	}
	return row.Payload, remaining, nil
}

func (r *VerdictRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	row := CachedVerdict{Key: key, Payload: value}
	if ttl > 0 {
		expiresAt := r.now().Add(ttl)
		row.ExpiresAt = &expiresAt
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

func (r *VerdictRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&CachedVerdict{}).Error
}

func (r *VerdictRepository) Clear(ctx context.Context, prefix string) (int, error) {
	res := r.db.WithContext(ctx).
		Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Delete(&CachedVerdict{})
	return int(res.RowsAffected), res.Error
}

// DeleteExpired is run periodically by the cache janitor.
func (r *VerdictRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", r.now()).
		Delete(&CachedVerdict{})
	return res.RowsAffected, res.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
