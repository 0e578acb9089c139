package middleware

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(42), "запрос %d должен пройти", i+1)
	}
	assert.False(t, rl.Allow(42), "четвёртый запрос должен быть отклонён")
}

func TestRateLimiter_PerUser(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()

	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))
	// Лимит одного пользователя не задевает другого
	assert.True(t, rl.Allow(2))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	defer rl.Close()

	assert.True(t, rl.Allow(42))
	assert.False(t, rl.Allow(42))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow(42), "после окна лимит должен освободиться")
}

func TestRateLimiter_Concurrent(t *testing.T) {
	const limit = 10
	rl := NewRateLimiter(limit, time.Minute)
	defer rl.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(42) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Под гонкой пропускается ровно limit запросов
	assert.Equal(t, limit, allowed)
}

func TestRateLimiter_CloseIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Close()
	rl.Close()
}
