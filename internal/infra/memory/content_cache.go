package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/trivia"
	"golang.org/x/sync/singleflight"
)

// ContentCache caches the category catalog with a TTL to avoid hammering
// the trivia API; question batches always pass through because their order
// and option shuffle must be fresh per round.
type ContentCache struct {
	provider trivia.Provider
	ttl      time.Duration
	clock    func() time.Time
	sf       singleflight.Group
	rnd      *rand.Rand

	mu         sync.RWMutex
	categories []domain.Category
	expiresAt  time.Time
}

func NewContentCache(provider trivia.Provider, ttl time.Duration) *ContentCache {
	return &ContentCache{
		provider: provider,
		ttl:      ttl,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) Questions(ctx context.Context, difficulty domain.Difficulty, category *domain.Category, count int) ([]domain.Question, error) {
	return c.provider.Questions(ctx, difficulty, category, count)
}

func (c *ContentCache) Categories(ctx context.Context) ([]domain.Category, error) {
	now := c.clock()

	c.mu.RLock()
	if c.categories != nil && c.expiresAt.After(now) {
		cached := c.categories
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("categories", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.categories != nil && c.expiresAt.After(now) {
			cached := c.categories
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()

		categories, err := c.provider.Categories(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.categories = categories
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
