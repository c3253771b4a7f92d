package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ignite/campaign-insights/internal/deployment"
)

func testParams() Params {
	return Params{AsOf: day("2024-06-01"), MinSampleSize: 2}
}

func TestRun_SchemaErrors(t *testing.T) {
	tests := []struct {
		name      string
		batch     []*deployment.Record
		wantField string
	}{
		{
			name: "missing client_id everywhere",
			batch: []*deployment.Record{
				{TacticID: "T1", DeploymentDate: day("2024-01-01")},
				{TacticID: "T2", DeploymentDate: day("2024-01-02")},
			},
			wantField: "client_id",
		},
		{
			name: "missing deployment_date everywhere",
			batch: []*deployment.Record{
				{TacticID: "T1", ClientID: "C1"},
			},
			wantField: "deployment_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.batch, testParams())
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if schemaErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", schemaErr.Field, tt.wantField)
			}
		})
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	res, err := Run(context.Background(), nil, testParams())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Partial() {
		t.Errorf("empty batch produced table errors: %v", res.TableErrors)
	}
	if res.TotalDeployments != 0 {
		t.Errorf("total_deployments = %d, want 0", res.TotalDeployments)
	}
}

func TestRun_AllTablesPopulated(t *testing.T) {
	batch := []*deployment.Record{
		rec("T1", "C1", "2024-01-01"),
		rec("T2", "C1", "2024-01-10"),
		rec("T3", "C2", "2024-02-01"),
	}
	batch[1].ResponseFlag = 1
	batch[1].Revenue = 25

	res, err := Run(context.Background(), batch, testParams())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Partial() {
		t.Fatalf("unexpected table errors: %v", res.TableErrors)
	}
	if len(res.ContactFrequency) != 3 {
		t.Errorf("contact_frequency rows = %d, want 3", len(res.ContactFrequency))
	}
	if len(res.CampaignPerformance) != 1 {
		t.Errorf("campaign_performance rows = %d, want 1", len(res.CampaignPerformance))
	}
	if len(res.ClientEngagement) != 2 {
		t.Errorf("client_engagement rows = %d, want 2", len(res.ClientEngagement))
	}
	if len(res.MonthlyTrends) != 2 {
		t.Errorf("monthly_trends rows = %d, want 2", len(res.MonthlyTrends))
	}
	if res.TotalDeployments != 3 || res.UniqueClients != 2 || res.UniqueCampaigns != 1 {
		t.Errorf("batch counts = %d/%d/%d", res.TotalDeployments, res.UniqueClients, res.UniqueCampaigns)
	}
	if res.RunID == "" {
		t.Error("run id not assigned")
	}
}

func TestRun_BrokenJoinDoesNotBlockSiblings(t *testing.T) {
	// A duplicated tactic ID breaks the frequency-driven joins but must
	// leave the batch-driven aggregates intact.
	batch := []*deployment.Record{
		rec("T1", "C1", "2024-01-01"),
		rec("T1", "C2", "2024-01-02"),
		rec("T2", "C3", "2024-01-03"),
	}

	res, err := Run(context.Background(), batch, testParams())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Partial() {
		t.Fatal("expected partial result")
	}
	for _, table := range []string{TableFrequencyImpact, TableOptimalFrequency} {
		tableErr, ok := res.TableErrors[table]
		if !ok {
			t.Errorf("table %s missing expected error", table)
			continue
		}
		var integrityErr *IntegrityError
		if !errors.As(tableErr, &integrityErr) {
			t.Errorf("table %s error = %v, want IntegrityError", table, tableErr)
		}
	}
	if len(res.CampaignPerformance) == 0 || len(res.ClientEngagement) == 0 || len(res.MonthlyTrends) == 0 {
		t.Error("independent aggregators were blocked by the broken join")
	}
	if res.FrequencyImpact != nil || res.OptimalFrequency != nil {
		t.Error("failed tables should be absent from the result")
	}
}

func TestRun_Idempotent(t *testing.T) {
	var batch []*deployment.Record
	for i, d := range []string{"2024-01-01", "2024-01-05", "2024-01-20", "2024-02-10"} {
		r := rec(string(rune('A'+i)), "C1", d)
		r.ResponseFlag = i % 2
		r.Revenue = float64(i * 7)
		batch = append(batch, r)
	}
	batch = append(batch, rec("Z", "C2", "2024-03-01"))

	first, err := Run(context.Background(), batch, testParams())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := Run(context.Background(), batch, testParams())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	// Run metadata differs; every table must not.
	first.RunID, second.RunID = "", ""
	first.StartedAt = second.StartedAt
	first.CompletedAt = second.CompletedAt

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("pipeline output not idempotent:\n%s\nvs\n%s", a, b)
	}
}
