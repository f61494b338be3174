package cryptox

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(opts ...HasherOption) *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost, 2, opts...)
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	hash, err := h.Hash(ctx, "Pw1!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"), "hash must embed algorithm and cost: %s", hash)

	assert.True(t, h.Verify(ctx, "Pw1!", hash))
	assert.False(t, h.Verify(ctx, "pw1!", hash))
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	h := newTestHasher()
	a, err := h.Hash(context.Background(), "same")
	require.NoError(t, err)
	b, err := h.Hash(context.Background(), "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_VerifyMalformedHash(t *testing.T) {
	h := newTestHasher()
	for _, bad := range []string{"", "plain", "$2a$04$short", "$argon2id$v=19$m=1,t=1,p=1$x$y"} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify(context.Background(), "pw", bad))
		})
	}
}

func TestPasswordHasher_EmptyPassword(t *testing.T) {
	_, err := newTestHasher().Hash(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestPasswordHasher_CostBounds(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(1, 1).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99, 1).Cost())
	assert.Equal(t, 5, NewPasswordHasher(5, 0).Cost())
}

func TestPasswordHasher_CancelledWhileWaiting(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1)
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, h.Verify(ctx, "pw", "$2a$04$whatever"))
}

func TestPasswordHasher_Concurrent(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 2)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := h.Hash(context.Background(), "pw")
			if err == nil && h.Verify(context.Background(), "pw", hash) {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(8), ok.Load())
}

func TestPasswordHasher_Observer(t *testing.T) {
	var calls atomic.Int32
	h := newTestHasher(WithHashObserver(func(d time.Duration) {
		calls.Add(1)
	}))

	hash, err := h.Hash(context.Background(), "pw")
	require.NoError(t, err)
	h.Verify(context.Background(), "pw", hash)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHashToken(t *testing.T) {
	a := HashToken("token")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("token"))
	assert.NotEqual(t, a, HashToken("token2"))
}
