// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrTooManyOTPAttempts is returned once a user exhausts the hourly
// verification budget.
var ErrTooManyOTPAttempts = errors.New("too many OTP attempts")

const (
	otpAttemptLimit  = 5
	otpAttemptWindow = 1 * time.Hour
	passwordResetTTL = 15 * time.Minute
)

func GenerateSecureOTP() (string, error) {
	// Generate 6 random bytes
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	// Convert to base32 string
	return base32.StdEncoding.EncodeToString(bytes)[:6], nil
}

// ValidateOTPAttempts counts a verification attempt for the user and fails
// once the hourly limit is exceeded. The counter covers wrong and right
// guesses alike so a correct code on the 6th try is still rejected.
func ValidateOTPAttempts(userID string, redis *redis.Client) error {
	key := "otp_attempts:" + userID
	attempts, err := redis.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}

	// Set expiry if first attempt
	if attempts == 1 {
		redis.Expire(context.Background(), key, otpAttemptWindow)
	}

	if attempts > otpAttemptLimit {
		return ErrTooManyOTPAttempts
	}

	return nil
}

// ClearOTPAttempts resets the attempt counter after a successful
// verification so a fresh OTP starts with a full budget.
func ClearOTPAttempts(userID string, redis *redis.Client) {
	redis.Del(context.Background(), "otp_attempts:"+userID)
}

// StorePasswordResetCode keeps the reset code for 15 minutes. Requesting a
// new code overwrites the old one, so only the latest code works.
func StorePasswordResetCode(userID, code string, redisClient *redis.Client) error {
	return redisClient.Set(context.Background(), "password_reset:"+userID, code, passwordResetTTL).Err()
}

// GetPasswordResetCode returns the stored reset code, or "" when none is
// pending or the code has expired.
func GetPasswordResetCode(userID string, redisClient *redis.Client) (string, error) {
	code, err := redisClient.Get(context.Background(), "password_reset:"+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

// ClearPasswordResetCode removes the code once the reset completes.
func ClearPasswordResetCode(userID string, redisClient *redis.Client) {
	redisClient.Del(context.Background(), "password_reset:"+userID)
}
