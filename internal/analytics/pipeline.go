package analytics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campaign-insights/internal/deployment"
)

// Table names, as published to the sink, cache, and API.
const (
	TableContactFrequency    = "contact_frequency"
	TableCampaignPerformance = "campaign_performance"
	TableFrequencyImpact     = "frequency_impact"
	TableClientEngagement    = "client_engagement"
	TableOptimalFrequency    = "optimal_frequency"
	TableMonthlyTrends       = "monthly_trends"
)

// TableNames lists every derived table in publish order.
var TableNames = []string{
	TableContactFrequency,
	TableCampaignPerformance,
	TableFrequencyImpact,
	TableClientEngagement,
	TableOptimalFrequency,
	TableMonthlyTrends,
}

// Result is the output of one full pipeline run. A table with an entry in
// TableErrors is absent (nil/empty); sibling tables are still populated,
// since aggregators only share the immutable input batch.
type Result struct {
	RunID       string    `json:"run_id"`
	AsOf        time.Time `json:"as_of"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	TotalDeployments int `json:"total_deployments"`
	UniqueClients    int `json:"unique_clients"`
	UniqueCampaigns  int `json:"unique_campaigns"`

	ContactFrequency    []*ContactFrequencyRecord  `json:"contact_frequency,omitempty"`
	CampaignPerformance []*CampaignPerformance     `json:"campaign_performance,omitempty"`
	FrequencyImpact     []*FrequencyImpactBucket   `json:"frequency_impact,omitempty"`
	ClientEngagement    []*ClientEngagementProfile `json:"client_engagement,omitempty"`
	OptimalFrequency    []*OptimalFrequencyBucket  `json:"optimal_frequency,omitempty"`
	MonthlyTrends       []*MonthlyTrend            `json:"monthly_trends,omitempty"`

	TableErrors map[string]error `json:"-"`
}

// Partial reports whether any table failed.
func (r *Result) Partial() bool { return len(r.TableErrors) > 0 }

// Run executes the full analytics pipeline over an already-filtered batch.
//
// The batch is validated first: a field required for windowing that is
// absent from every record aborts the run with a SchemaError. After the
// window engine finishes, the five aggregate tables are computed
// concurrently; a failure in one (e.g. an IntegrityError in the
// optimal-frequency join) is recorded in Result.TableErrors without
// touching its siblings. Identical input always yields identical tables.
func Run(ctx context.Context, batch []*deployment.Record, params Params) (*Result, error) {
	params = params.withDefaults()

	if err := validateBatch(batch); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       uuid.New().String(),
		AsOf:        params.AsOf,
		StartedAt:   time.Now().UTC(),
		TableErrors: make(map[string]error),
	}
	countBatch(batch, res)

	windowed, windowErr := ContactFrequency(ctx, batch, params)
	if windowErr != nil {
		// The window engine only fails on cancellation; the tables built
		// from its output inherit the failure, the rest proceed.
		res.TableErrors[TableContactFrequency] = windowErr
	} else {
		res.ContactFrequency = windowed
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	runTable := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.Printf("[Pipeline] Table %s failed: %v", name, err)
				mu.Lock()
				res.TableErrors[name] = err
				mu.Unlock()
			}
		}()
	}

	runTable(TableCampaignPerformance, func() error {
		res.CampaignPerformance = CampaignPerformanceTable(batch)
		return nil
	})
	runTable(TableClientEngagement, func() error {
		res.ClientEngagement = ClientEngagementTable(batch, params.Weights, params.AsOf)
		return nil
	})
	runTable(TableMonthlyTrends, func() error {
		res.MonthlyTrends = MonthlyTrendTable(batch)
		return nil
	})
	if windowErr == nil {
		runTable(TableFrequencyImpact, func() error {
			table, err := FrequencyImpactTable(windowed, batch)
			if err != nil {
				return err
			}
			res.FrequencyImpact = table
			return nil
		})
		runTable(TableOptimalFrequency, func() error {
			table, err := OptimalFrequencyTable(windowed, batch, params.MinSampleSize)
			if err != nil {
				return err
			}
			res.OptimalFrequency = table
			return nil
		})
	} else {
		res.TableErrors[TableFrequencyImpact] = windowErr
		res.TableErrors[TableOptimalFrequency] = windowErr
	}
	wg.Wait()

	res.CompletedAt = time.Now().UTC()
	log.Printf("[Pipeline] Run %s: %d deployments, %d clients, %d campaigns, %d table errors",
		res.RunID, res.TotalDeployments, res.UniqueClients, res.UniqueCampaigns, len(res.TableErrors))
	return res, nil
}

// validateBatch enforces the input contract: client_id and deployment_date
// must be present on at least one record for windowing to be computable.
// An empty batch is valid and yields empty tables.
func validateBatch(batch []*deployment.Record) error {
	if len(batch) == 0 {
		return nil
	}
	hasClient, hasDate := false, false
	for _, rec := range batch {
		if rec.ClientID != "" {
			hasClient = true
		}
		if !rec.DeploymentDate.IsZero() {
			hasDate = true
		}
		if hasClient && hasDate {
			return nil
		}
	}
	if !hasClient {
		return &SchemaError{Field: "client_id"}
	}
	return &SchemaError{Field: "deployment_date"}
}

func countBatch(batch []*deployment.Record, res *Result) {
	clients := make(map[string]struct{})
	campaigns := make(map[string]struct{})
	for _, rec := range batch {
		clients[rec.ClientID] = struct{}{}
		campaigns[rec.CampaignID] = struct{}{}
	}
	res.TotalDeployments = len(batch)
	res.UniqueClients = len(clients)
	res.UniqueCampaigns = len(campaigns)
}
