// internal/store/quota_store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"internship-allocator/internal/allocation"
)

// QuotaStore holds runtime overrides of the quota table and boost weights.
// Absent keys mean the configured values apply.
type QuotaStore struct {
	client *redis.Client
	prefix string
}

func NewQuotaStore(client *redis.Client, prefix string) *QuotaStore {
	return &QuotaStore{client: client, prefix: prefix}
}

func (s *QuotaStore) quotaKey() string { return s.prefix + ":config:quota" }
func (s *QuotaStore) boostKey() string { return s.prefix + ":config:boosts" }

// Current returns the stored overrides, falling back per table.
func (s *QuotaStore) Current(ctx context.Context, quota allocation.Percentages, boosts allocation.BoostWeights) (allocation.Percentages, allocation.BoostWeights, error) {
	vals, err := s.client.MGet(ctx, s.quotaKey(), s.boostKey()).Result()
	if err != nil {
		return nil, allocation.BoostWeights{}, fmt.Errorf("load allocation config: %w", err)
	}

	if raw, ok := vals[0].(string); ok {
		var table map[string]float64
		if err := json.Unmarshal([]byte(raw), &table); err != nil {
			return nil, allocation.BoostWeights{}, fmt.Errorf("decode stored quota: %w", err)
		}
		if quota, err = allocation.ParsePercentages(table); err != nil {
			return nil, allocation.BoostWeights{}, err
		}
	}
	if raw, ok := vals[1].(string); ok {
		if err := json.Unmarshal([]byte(raw), &boosts); err != nil {
			return nil, allocation.BoostWeights{}, fmt.Errorf("decode stored boosts: %w", err)
		}
	}
	return quota, boosts, nil
}

// Save writes whichever of quota and boosts is non-nil in one MULTI block.
// Callers validate first.
func (s *QuotaStore) Save(ctx context.Context, quota allocation.Percentages, boosts *allocation.BoostWeights) error {
	if quota == nil && boosts == nil {
		return errors.New("nothing to save")
	}

	var quotaJSON, boostJSON []byte
	var err error
	if quota != nil {
		if quotaJSON, err = json.Marshal(quota); err != nil {
			return fmt.Errorf("encode quota: %w", err)
		}
	}
	if boosts != nil {
		if boostJSON, err = json.Marshal(boosts); err != nil {
			return fmt.Errorf("encode boosts: %w", err)
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if quotaJSON != nil {
			pipe.Set(ctx, s.quotaKey(), quotaJSON, 0)
		}
		if boostJSON != nil {
			pipe.Set(ctx, s.boostKey(), boostJSON, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store allocation config: %w", err)
	}
	return nil
}
