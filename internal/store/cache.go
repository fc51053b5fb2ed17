package store

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/nhle/taskboard/internal/model"
)

// Cache wraps a Store with a Redis read-through copy of each user's board
// rows. Every write that can change the board evicts the copy, whether or
// not the write succeeded, so a reload after a failure reads storage.
type Cache struct {
	Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Store wrapper using the provided Redis client and TTL.
func NewCache(base Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("store.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{Store: base, redis: client, ttl: ttl}
}

// FetchBoardRows serves board rows from Redis when present.
func (c *Cache) FetchBoardRows(ctx context.Context, userID, boardID string) (BoardRows, error) {
	if rows, ok := c.load(ctx, userID, boardID); ok {
		return rows, nil
	}

	rows, err := c.Store.FetchBoardRows(ctx, userID, boardID)
	if err != nil {
		return BoardRows{}, err
	}

	c.store(ctx, userID, boardID, rows)
	return rows, nil
}

func (c *Cache) UpdateTaskPosition(ctx context.Context, userID string, p model.Position) error {
	defer c.evict(ctx, userID)
	return c.Store.UpdateTaskPosition(ctx, userID, p)
}

func (c *Cache) UpdateTaskPositions(ctx context.Context, userID string, ps []model.Position) error {
	defer c.evict(ctx, userID)
	return c.Store.UpdateTaskPositions(ctx, userID, ps)
}

func (c *Cache) CreateTask(ctx context.Context, userID string, t NewTask) (model.Task, error) {
	defer c.evict(ctx, userID)
	return c.Store.CreateTask(ctx, userID, t)
}

func (c *Cache) UpdateTask(ctx context.Context, userID, id string, patch model.TaskPatch) error {
	defer c.evict(ctx, userID)
	return c.Store.UpdateTask(ctx, userID, id, patch)
}

func (c *Cache) DeleteTask(ctx context.Context, userID, id string) error {
	defer c.evict(ctx, userID)
	return c.Store.DeleteTask(ctx, userID, id)
}

func (c *Cache) BulkUpdateTasks(ctx context.Context, userID string, ids []string, patch model.TaskPatch) error {
	defer c.evict(ctx, userID)
	return c.Store.BulkUpdateTasks(ctx, userID, ids, patch)
}

func (c *Cache) ArchiveTask(ctx context.Context, userID, id string) error {
	defer c.evict(ctx, userID)
	return c.Store.ArchiveTask(ctx, userID, id)
}

func (c *Cache) UnarchiveTask(ctx context.Context, userID, id string) error {
	defer c.evict(ctx, userID)
	return c.Store.UnarchiveTask(ctx, userID, id)
}

func (c *Cache) ArchiveCompletedBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	defer c.evict(ctx, userID)
	return c.Store.ArchiveCompletedBefore(ctx, userID, cutoff)
}

func (c *Cache) SetCategoryColor(ctx context.Context, userID, id, color string) error {
	defer c.evict(ctx, userID)
	return c.Store.SetCategoryColor(ctx, userID, id, color)
}

func (c *Cache) DeleteCategory(ctx context.Context, userID, id string) error {
	defer c.evict(ctx, userID)
	return c.Store.DeleteCategory(ctx, userID, id)
}

func (c *Cache) AddTaskTags(ctx context.Context, userID, taskID string, names []string) error {
	defer c.evict(ctx, userID)
	return c.Store.AddTaskTags(ctx, userID, taskID, names)
}

func (c *Cache) RemoveTaskTags(ctx context.Context, userID, taskID string, tagIDs []string) error {
	defer c.evict(ctx, userID)
	return c.Store.RemoveTaskTags(ctx, userID, taskID, tagIDs)
}

func (c *Cache) DeleteTag(ctx context.Context, userID, id string) error {
	defer c.evict(ctx, userID)
	return c.Store.DeleteTag(ctx, userID, id)
}

func (c *Cache) load(ctx context.Context, userID, boardID string) (BoardRows, bool) {
	if c.redis == nil {
		return BoardRows{}, false
	}
	key := boardCacheKey(userID)
	data, err := c.redis.HGet(ctx, key, boardID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return BoardRows{}, false
	}
	var rows BoardRows
	if err := sonic.Unmarshal(data, &rows); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return BoardRows{}, false
	}
	return rows, true
}

func (c *Cache) store(ctx context.Context, userID, boardID string, rows BoardRows) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(rows)
	if err != nil {
		return
	}
	key := boardCacheKey(userID)
	pipe := c.redis.TxPipeline()
	pipe.HSet(ctx, key, boardID, data)
	pipe.Expire(ctx, key, c.ttl)
	_, _ = pipe.Exec(ctx)
}

func (c *Cache) evict(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, boardCacheKey(userID)).Result()
}

func boardCacheKey(userID string) string {
	return "board:" + userID
}
