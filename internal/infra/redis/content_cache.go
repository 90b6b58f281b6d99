package redis

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/trivia"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const categoriesKey = "trivia:categories"

// ContentCache keeps the category catalog in a Redis hash (id → name) with
// a TTL so multiple server instances share one upstream fetch. Question
// batches pass through untouched.
type ContentCache struct {
	client   *redis.Client
	provider trivia.Provider
	ttl      time.Duration
	sf       singleflight.Group
	rnd      *rand.Rand
}

func NewContentCache(client *redis.Client, provider trivia.Provider, ttl time.Duration) *ContentCache {
	return &ContentCache{
		client:   client,
		provider: provider,
		ttl:      ttl,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) Questions(ctx context.Context, difficulty domain.Difficulty, category *domain.Category, count int) ([]domain.Question, error) {
	return c.provider.Questions(ctx, difficulty, category, count)
}

func (c *ContentCache) Categories(ctx context.Context) ([]domain.Category, error) {
	cached, err := c.client.HGetAll(ctx, categoriesKey).Result()
	if err == nil && len(cached) > 0 {
		return categoriesFromHash(cached), nil
	}

	result, err, _ := c.sf.Do(categoriesKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		cached, err := c.client.HGetAll(ctx, categoriesKey).Result()
		if err == nil && len(cached) > 0 {
			return categoriesFromHash(cached), nil
		}

		categories, err := c.provider.Categories(ctx)
		if err != nil {
			return nil, err
		}

		pipe := c.client.Pipeline()
		for _, cat := range categories {
			pipe.HSet(ctx, categoriesKey, strconv.Itoa(cat.ID), cat.Name)
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, categoriesKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func categoriesFromHash(raw map[string]string) []domain.Category {
	categories := make([]domain.Category, 0, len(raw))
	for idStr, name := range raw {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		categories = append(categories, domain.Category{ID: id, Name: name})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
