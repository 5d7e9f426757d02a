package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uttree-health/platform/pkg/common/logger"
	"github.com/uttree-health/platform/pkg/common/models"
)

var ErrCacheMiss = errors.New("vector not cached")

// VectorCache keeps the latest embedding result per admission hot in Redis
// so downstream readers skip Postgres for recent runs.
type VectorCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVectorCache(client *redis.Client, ttl time.Duration) *VectorCache {
	return &VectorCache{client: client, ttl: ttl}
}

func cacheKey(admissionID int64) string {
	return fmt.Sprintf("uttree:vector:%d", admissionID)
}

func (c *VectorCache) Put(ctx context.Context, result models.AdmissionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	key := cacheKey(result.AdmissionID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching vector for admission %d: %w", result.AdmissionID, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"key":  key,
		"size": len(data),
	}).Debug("Cached admission vector")
	return nil
}

func (c *VectorCache) Get(ctx context.Context, admissionID int64) (models.AdmissionResult, error) {
	data, err := c.client.Get(ctx, cacheKey(admissionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.AdmissionResult{}, ErrCacheMiss
	}
	if err != nil {
		return models.AdmissionResult{}, err
	}

	var result models.AdmissionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return models.AdmissionResult{}, err
	}
	return result, nil
}
