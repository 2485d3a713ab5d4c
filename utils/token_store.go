// utils/token_store.go
package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Refresh tokens are allow-listed in redis by their jti. Logout and rotation
// delete the entry, which invalidates the token before its JWT expiry.

func refreshTokenKey(userID, jti string) string {
	return "refresh_token:" + userID + ":" + jti
}

func StoreRefreshToken(redis *redis.Client, userID, jti string, ttl time.Duration) error {
	return redis.Set(context.Background(), refreshTokenKey(userID, jti), "1", ttl).Err()
}

// IsRefreshTokenValid reports whether the jti is still allow-listed.
func IsRefreshTokenValid(redis *redis.Client, userID, jti string) (bool, error) {
	count, err := redis.Exists(context.Background(), refreshTokenKey(userID, jti)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func RevokeRefreshToken(redis *redis.Client, userID, jti string) error {
	return redis.Del(context.Background(), refreshTokenKey(userID, jti)).Err()
}

// RevokeAllRefreshTokens drops every allow-listed refresh token for the
// user. Password reset calls this to end all open sessions.
func RevokeAllRefreshTokens(redis *redis.Client, userID string) error {
	ctx := context.Background()
	keys, err := redis.Keys(ctx, refreshTokenKey(userID, "*")).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return redis.Del(ctx, keys...).Err()
}
