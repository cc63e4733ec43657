// Package passwords hashes and verifies user passwords with bcrypt.
//
// bcrypt is CPU bound, so concurrent calls are bounded by a weighted
// semaphore; callers waiting for a slot give up when their context ends.
package passwords

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordBytes is the longest input bcrypt hashes without truncation.
const MaxPasswordBytes = 72

var (
	// ErrEmptyPassword is returned by Hash for an empty plaintext.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrPasswordTooLong is returned by Hash for inputs over MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Hasher produces salted one-way password hashes.
type Hasher struct {
	cost  int
	slots *semaphore.Weighted
}

// NewHasher returns a Hasher using the given bcrypt cost and at most workers
// concurrent hash computations. Out of range values fall back to defaults.
func NewHasher(cost, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Hasher{cost: cost, slots: semaphore.NewWeighted(int64(workers))}
}

// Hash returns the bcrypt hash of plain. Two calls with the same input
// produce different hashes.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. A malformed hash, an empty or
// overlong input or a cancelled context all report false.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) bool {
	if plain == "" || hash == "" || len(plain) > MaxPasswordBytes {
		return false
	}
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Cost reports the bcrypt cost stored in hash.
func Cost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}
