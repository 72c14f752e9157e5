package store

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/models"
)

func TestQuotaStore_FallsBackWhenEmpty(t *testing.T) {
	_, client := newMiniredis(t)
	store := NewQuotaStore(client, "test")

	quota, boosts, err := store.Current(context.Background(), allocation.DefaultPercentages(), allocation.DefaultBoostWeights())
	require.NoError(t, err)
	assert.Equal(t, allocation.DefaultPercentages(), quota)
	assert.Equal(t, allocation.DefaultBoostWeights(), boosts)
}

func TestQuotaStore_SaveIndependently(t *testing.T) {
	_, client := newMiniredis(t)
	store := NewQuotaStore(client, "test")
	ctx := context.Background()

	override := allocation.Percentages{models.QuotaGeneral: 0.6, models.QuotaSC: 0.4}
	require.NoError(t, store.Save(ctx, override, nil))

	quota, boosts, err := store.Current(ctx, allocation.DefaultPercentages(), allocation.DefaultBoostWeights())
	require.NoError(t, err)
	assert.Equal(t, override, quota)
	assert.Equal(t, allocation.DefaultBoostWeights(), boosts)

	newBoosts := allocation.BoostWeights{Rural: 0.1}
	require.NoError(t, store.Save(ctx, nil, &newBoosts))

	quota, boosts, err = store.Current(ctx, allocation.DefaultPercentages(), allocation.DefaultBoostWeights())
	require.NoError(t, err)
	assert.Equal(t, override, quota)
	assert.Equal(t, newBoosts, boosts)

	assert.Error(t, store.Save(ctx, nil, nil))
}

func TestQuotaStore_CorruptValue(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewQuotaStore(client, "test")
	require.NoError(t, mr.Set("test:config:quota", "{"))

	_, _, err := store.Current(context.Background(), allocation.DefaultPercentages(), allocation.DefaultBoostWeights())
	assert.ErrorContains(t, err, "decode stored quota")

	require.NoError(t, mr.Set("test:config:quota", `{"nri":1}`))
	_, _, err = store.Current(context.Background(), allocation.DefaultPercentages(), allocation.DefaultBoostWeights())
	assert.True(t, allocation.IsValidation(err))
}

func TestQuotaStore_RedisDown(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewQuotaStore(client, "test")

	mock.ExpectMGet("test:config:quota", "test:config:boosts").SetErr(errors.New("connection refused"))
	_, _, err := store.Current(context.Background(), allocation.DefaultPercentages(), allocation.DefaultBoostWeights())
	assert.ErrorContains(t, err, "load allocation config")
	assert.NoError(t, mock.ExpectationsWereMet())
}
