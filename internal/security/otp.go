package security

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GenerateOTP returns a random numeric one-time passcode of the given
// length.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// OTPStore keeps one-time passcodes keyed by user ID with an expiry.
// Verify consumes the code on success.
type OTPStore interface {
	Save(ctx context.Context, userID, code string) error
	Verify(ctx context.Context, userID, code string) (bool, error)
}

func otpKey(userID string) string {
	return "otp:" + userID
}

// RedisOTPStore keeps codes in Redis with a TTL, sharing the same client
// as the presence store.
type RedisOTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisOTPStore(client *redis.Client, ttl time.Duration) *RedisOTPStore {
	return &RedisOTPStore{client: client, ttl: ttl}
}

var _ OTPStore = (*RedisOTPStore)(nil)

func (s *RedisOTPStore) Save(ctx context.Context, userID, code string) error {
	if err := s.client.Set(ctx, otpKey(userID), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Verify(ctx context.Context, userID, code string) (bool, error) {
	stored, err := s.client.Get(ctx, otpKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get otp: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}
	if err := s.client.Del(ctx, otpKey(userID)).Err(); err != nil {
		return false, fmt.Errorf("delete otp: %w", err)
	}
	return true, nil
}

// MemoryOTPStore keeps codes in process memory. It serves deployments
// without Redis and tests.
type MemoryOTPStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]memoryOTP
}

type memoryOTP struct {
	code      string
	expiresAt time.Time
}

func NewMemoryOTPStore(ttl time.Duration) *MemoryOTPStore {
	return &MemoryOTPStore{ttl: ttl, codes: make(map[string]memoryOTP)}
}

var _ OTPStore = (*MemoryOTPStore)(nil)

func (s *MemoryOTPStore) Save(ctx context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[userID] = memoryOTP{code: code, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryOTPStore) Verify(ctx context.Context, userID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.codes[userID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.codes, userID)
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) != 1 {
		return false, nil
	}
	delete(s.codes, userID)
	return true, nil
}
