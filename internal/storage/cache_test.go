package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-insights/internal/analytics"
)

func testCache(t *testing.T) *ResultCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewResultCache(client)
}

func testResult() *analytics.Result {
	return &analytics.Result{
		RunID:            "run-123",
		AsOf:             time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CompletedAt:      time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC),
		TotalDeployments: 2,
		UniqueClients:    1,
		UniqueCampaigns:  1,
		MonthlyTrends: []*analytics.MonthlyTrend{
			{YearMonth: "2024-01", Channel: "EMAIL", Deployments: 2, UniqueClients: 1, TotalRevenue: 50},
		},
		TableErrors: map[string]error{},
	}
}

func TestResultCache_PublishAndRead(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Publish(ctx, testResult(), "summary text"))

	data, err := cache.Table(ctx, analytics.TableMonthlyTrends)
	require.NoError(t, err)

	var trends []*analytics.MonthlyTrend
	require.NoError(t, json.Unmarshal(data, &trends))
	require.Len(t, trends, 1)
	assert.Equal(t, "2024-01", trends[0].YearMonth)
	assert.Equal(t, "EMAIL", trends[0].Channel)

	meta, err := cache.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-123", meta.RunID)
	assert.Equal(t, 2, meta.TotalDeployments)
	assert.Equal(t, "summary text", meta.Summary)
	assert.Empty(t, meta.FailedTables)
}

func TestResultCache_FailedTableNotPublished(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	res := testResult()
	res.TableErrors[analytics.TableOptimalFrequency] = &analytics.IntegrityError{TacticID: "T1", Reason: "dup"}
	require.NoError(t, cache.Publish(ctx, res, ""))

	_, err := cache.Table(ctx, analytics.TableOptimalFrequency)
	assert.ErrorIs(t, err, ErrNoRun)

	meta, err := cache.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{analytics.TableOptimalFrequency}, meta.FailedTables)
}

func TestResultCache_NoRunYet(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	_, err := cache.Table(ctx, analytics.TableMonthlyTrends)
	assert.ErrorIs(t, err, ErrNoRun)

	_, err = cache.Meta(ctx)
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestResultCache_UnknownTable(t *testing.T) {
	cache := testCache(t)

	_, err := cache.Table(context.Background(), "secret_table")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}
