package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-events/internal/logger"
	"ms-events/internal/models"
)

const (
	allEventsKey  = "events:all"
	eventKeyPfx   = "event:"
	defaultTTLMin = 5
)

// Cache is a redis-backed read-through cache for event queries. Every
// failure is degraded to a miss or a warning; the cache never fails a
// request.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultTTLMin * time.Minute
	}
	return &Cache{Client: client, TTL: ttl, Logger: log}
}

// InitializeRedis builds the redis client and verifies the connection.
func InitializeRedis(addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		if log != nil {
			log.Error("CACHE", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		}
		return nil, err
	}

	if log != nil {
		log.Info("CACHE", fmt.Sprintf("Connected to Redis at %s for event caching", addr))
	}
	return client, nil
}

func (c *Cache) GetAll(ctx context.Context) ([]models.Event, bool) {
	raw, err := c.Client.Get(ctx, allEventsKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.warn(fmt.Sprintf("get %s: %v", allEventsKey, err))
		return nil, false
	}

	var events []models.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		c.warn(fmt.Sprintf("unmarshal %s: %v", allEventsKey, err))
		return nil, false
	}
	return events, true
}

func (c *Cache) GetByID(ctx context.Context, id string) (*models.Event, bool) {
	raw, err := c.Client.Get(ctx, eventKeyPfx+id).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.warn(fmt.Sprintf("get %s%s: %v", eventKeyPfx, id, err))
		return nil, false
	}

	var event models.Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		c.warn(fmt.Sprintf("unmarshal %s%s: %v", eventKeyPfx, id, err))
		return nil, false
	}
	return &event, true
}

func (c *Cache) SetAll(ctx context.Context, events []models.Event) {
	raw, err := json.Marshal(events)
	if err != nil {
		c.warn(fmt.Sprintf("marshal %s: %v", allEventsKey, err))
		return
	}
	if err := c.Client.Set(ctx, allEventsKey, raw, c.TTL).Err(); err != nil {
		c.warn(fmt.Sprintf("set %s: %v", allEventsKey, err))
	}
}

func (c *Cache) SetByID(ctx context.Context, event *models.Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		c.warn(fmt.Sprintf("marshal %s%s: %v", eventKeyPfx, event.ID, err))
		return
	}
	if err := c.Client.Set(ctx, eventKeyPfx+event.ID, raw, c.TTL).Err(); err != nil {
		c.warn(fmt.Sprintf("set %s%s: %v", eventKeyPfx, event.ID, err))
	}
}

func (c *Cache) InvalidateAll(ctx context.Context) {
	if err := c.Client.Del(ctx, allEventsKey).Err(); err != nil {
		c.warn(fmt.Sprintf("del %s: %v", allEventsKey, err))
	}
}

func (c *Cache) InvalidateByID(ctx context.Context, id string) {
	if err := c.Client.Del(ctx, eventKeyPfx+id).Err(); err != nil {
		c.warn(fmt.Sprintf("del %s%s: %v", eventKeyPfx, id, err))
	}
}

func (c *Cache) warn(message string) {
	if c.Logger != nil {
		c.Logger.Warn("CACHE", message)
	}
}
