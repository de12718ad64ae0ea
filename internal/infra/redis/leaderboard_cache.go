package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"smartplay-service/internal/app"
	"smartplay-service/internal/domain"
)

// LeaderboardCache caches rendered leaderboards in Redis and falls back to
// the backing source on cache miss. Boards are stored as JSON blobs keyed by
// theme, with a jittered TTL so entries do not expire in lockstep.
type LeaderboardCache struct {
	client *redis.Client
	source app.LeaderboardSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, source app.LeaderboardSource, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Leaderboard(ctx context.Context, theme string) (domain.Leaderboard, error) {
	key := boardKey(theme)

	if board, ok := c.cached(ctx, key); ok {
		return board, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if board, ok := c.cached(ctx, key); ok {
			return board, nil
		}

		board, err := c.source.Leaderboard(ctx, theme)
		if err != nil {
			return domain.Leaderboard{}, err
		}

		if raw, err := json.Marshal(board); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return board, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// Details is not cached; detail rows change with every graded answer and the
// endpoint is read far less often than the board itself.
func (c *LeaderboardCache) Details(ctx context.Context, theme string) ([]domain.LeaderboardDetail, error) {
	return c.source.Details(ctx, theme)
}

// Invalidate drops the cached boards for the given themes.
func (c *LeaderboardCache) Invalidate(ctx context.Context, themes ...string) error {
	if len(themes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(themes))
	for _, theme := range themes {
		keys = append(keys, boardKey(theme))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *LeaderboardCache) cached(ctx context.Context, key string) (domain.Leaderboard, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Leaderboard{}, false
	}
	var board domain.Leaderboard
	if err := json.Unmarshal(raw, &board); err != nil {
		return domain.Leaderboard{}, false
	}
	return board, true
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func boardKey(theme string) string {
	if theme == "" {
		return "leaderboard:all"
	}
	return "leaderboard:" + theme
}
