// internal/store/batch_cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/models"
)

var ErrBatchNotFound = errors.New("match batch not found")

// MatchBatch is everything allocate-internships needs from a matching run.
type MatchBatch struct {
	ID          string                `json:"id"`
	Candidates  []models.Candidate    `json:"candidates"`
	Internships []models.Internship   `json:"internships"`
	Matches     []models.MatchRecord  `json:"matches"`
	Stats       allocation.MatchStats `json:"stats"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// BatchCache keeps match batches in Redis between the matching and
// allocation jobs of one process instance.
type BatchCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewBatchCache(client *redis.Client, prefix string, ttl time.Duration) *BatchCache {
	return &BatchCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *BatchCache) key(id string) string {
	return c.prefix + ":batch:" + id
}

// Save stores the batch under a fresh id when batch.ID is empty.
func (c *BatchCache) Save(ctx context.Context, batch *MatchBatch) (string, error) {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}
	if err := c.client.Set(ctx, c.key(batch.ID), data, c.ttl).Err(); err != nil {
		return "", fmt.Errorf("store batch %s: %w", batch.ID, err)
	}
	return batch.ID, nil
}

func (c *BatchCache) Load(ctx context.Context, id string) (*MatchBatch, error) {
	val, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", id, err)
	}

	var batch MatchBatch
	if err := json.Unmarshal(val, &batch); err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", id, err)
	}
	return &batch, nil
}

func (c *BatchCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
