package cryptox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher hashes and verifies passwords with bcrypt. The encoded
// hash carries its own cost and salt, so verification needs no config.
//
// bcrypt is CPU bound; at most `workers` hash or verify calls run at once,
// the rest wait for a slot or for their context to end.
type PasswordHasher struct {
	cost    int
	sem     *semaphore.Weighted
	observe func(time.Duration)
}

// HasherOption customizes a PasswordHasher.
type HasherOption func(*PasswordHasher)

// WithHashObserver registers a callback receiving the duration of each
// bcrypt computation (excluding time spent waiting for a worker).
func WithHashObserver(fn func(time.Duration)) HasherOption {
	return func(h *PasswordHasher) {
		if fn != nil {
			h.observe = fn
		}
	}
}

// NewPasswordHasher creates a hasher with the given bcrypt cost and worker
// pool size. Costs outside bcrypt's range fall back to bcrypt.DefaultCost;
// fewer than one worker means one.
func NewPasswordHasher(cost, workers int, opts ...HasherOption) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers < 1 {
		workers = 1
	}
	h := &PasswordHasher{
		cost:    cost,
		sem:     semaphore.NewWeighted(int64(workers)),
		observe: func(time.Duration) {},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Cost returns the bcrypt cost used for new hashes.
func (h *PasswordHasher) Cost() int { return h.cost }

// Hash returns the bcrypt encoding of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for hash worker: %w", err)
	}
	defer h.sem.Release(1)

	start := time.Now()
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	h.observe(time.Since(start))
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. A malformed hash, or a
// context that ends before a worker is free, yields false.
func (h *PasswordHasher) Verify(ctx context.Context, password, hash string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	h.observe(time.Since(start))
	return err == nil
}

// HashToken returns the hex sha256 of an opaque high-entropy token. Used to
// store emailed reset tokens without keeping the plaintext.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
