package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-insights/internal/analytics"
)

const keyPrefix = "insights:"

// ErrNoRun is returned when no pipeline run has been published yet.
var ErrNoRun = errors.New("no analytics run published")

// ErrTableNotFound is returned for a table name outside the published set.
var ErrTableNotFound = errors.New("unknown table")

// RunMeta describes the latest published run.
type RunMeta struct {
	RunID            string    `json:"run_id"`
	AsOf             time.Time `json:"as_of"`
	CompletedAt      time.Time `json:"completed_at"`
	TotalDeployments int       `json:"total_deployments"`
	UniqueClients    int       `json:"unique_clients"`
	UniqueCampaigns  int       `json:"unique_campaigns"`
	FailedTables     []string  `json:"failed_tables,omitempty"`
	Summary          string    `json:"summary"`
}

// ResultCache keeps the latest run's derived tables in Redis as JSON so
// the API server can serve them without re-running the pipeline.
type ResultCache struct {
	client *redis.Client
}

// NewResultCache creates a cache on an existing Redis client.
func NewResultCache(client *redis.Client) *ResultCache {
	return &ResultCache{client: client}
}

// Publish stores every successful table of the run plus run metadata. The
// write is not transactional; readers always see a complete table, and the
// meta key is written last so a half-published run is never advertised.
func (c *ResultCache) Publish(ctx context.Context, res *analytics.Result, summary string) error {
	tables := map[string]interface{}{
		analytics.TableContactFrequency:    res.ContactFrequency,
		analytics.TableCampaignPerformance: res.CampaignPerformance,
		analytics.TableFrequencyImpact:     res.FrequencyImpact,
		analytics.TableClientEngagement:    res.ClientEngagement,
		analytics.TableOptimalFrequency:    res.OptimalFrequency,
		analytics.TableMonthlyTrends:       res.MonthlyTrends,
	}

	for name, table := range tables {
		if _, failed := res.TableErrors[name]; failed {
			continue
		}
		data, err := json.Marshal(table)
		if err != nil {
			return fmt.Errorf("marshal table %s: %w", name, err)
		}
		if err := c.client.Set(ctx, keyPrefix+"table:"+name, data, 0).Err(); err != nil {
			return fmt.Errorf("cache table %s: %w", name, err)
		}
	}

	meta := RunMeta{
		RunID:            res.RunID,
		AsOf:             res.AsOf,
		CompletedAt:      res.CompletedAt,
		TotalDeployments: res.TotalDeployments,
		UniqueClients:    res.UniqueClients,
		UniqueCampaigns:  res.UniqueCampaigns,
		Summary:          summary,
	}
	for name := range res.TableErrors {
		meta.FailedTables = append(meta.FailedTables, name)
	}
	sort.Strings(meta.FailedTables)
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal run meta: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+"meta", data, 0).Err(); err != nil {
		return fmt.Errorf("cache run meta: %w", err)
	}
	return nil
}

// Table returns the raw JSON of a published table.
func (c *ResultCache) Table(ctx context.Context, name string) ([]byte, error) {
	known := false
	for _, t := range analytics.TableNames {
		if t == name {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	data, err := c.client.Get(ctx, keyPrefix+"table:"+name).Bytes()
	if err == redis.Nil {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	return data, nil
}

// Meta returns the latest run's metadata.
func (c *ResultCache) Meta(ctx context.Context) (*RunMeta, error) {
	data, err := c.client.Get(ctx, keyPrefix+"meta").Bytes()
	if err == redis.Nil {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("read run meta: %w", err)
	}
	meta := &RunMeta{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("decode run meta: %w", err)
	}
	return meta, nil
}
