package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/backoffice/internal/models"
)

func (r *GormRepo) SaveToken(ctx context.Context, token *models.AccessToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

// TokenActive reports whether the token id is still issued and not expired.
func (r *GormRepo) TokenActive(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("jti = ? AND expires_at > ?", jti, time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) RevokeToken(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Where("jti = ?", jti).Delete(&models.AccessToken{}).Error
}

func (r *GormRepo) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.AccessToken{})
	return res.RowsAffected, res.Error
}
