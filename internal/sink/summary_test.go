package sink

import (
	"strings"
	"testing"

	"github.com/ignite/campaign-insights/internal/analytics"
)

func TestRenderSummary(t *testing.T) {
	res := testResult()
	rate := 12.5
	res.CampaignPerformance[0].ConversionRate = &rate
	res.OptimalFrequency = []*analytics.OptimalFrequencyBucket{
		{Channel: "EMAIL", ContactsLast30d: 2, SampleSize: 150, AvgRevenue: 9.5, ResponseRate: 0.12},
		{Channel: "SMS", ContactsLast30d: 1, SampleSize: 220, AvgRevenue: 14.0, ResponseRate: 0.08},
	}

	out := RenderSummary(res)

	for _, want := range []string{
		"Run ID: run-1",
		"Total Deployments: 2",
		"Spring Promo",
		"12.50% conversion",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}

	// Buckets ordered by avg revenue, highest first.
	if strings.Index(out, "SMS @ 1") > strings.Index(out, "EMAIL @ 2") {
		t.Error("optimal buckets not ordered by avg revenue")
	}
	if strings.Contains(out, "Partial results") {
		t.Error("clean run reported as partial")
	}
}

func TestRenderSummary_PartialRun(t *testing.T) {
	res := testResult()
	res.TableErrors[analytics.TableOptimalFrequency] = &analytics.IntegrityError{TacticID: "T1", Reason: "dup"}

	out := RenderSummary(res)
	if !strings.Contains(out, "Partial results") || !strings.Contains(out, analytics.TableOptimalFrequency) {
		t.Errorf("partial run not flagged:\n%s", out)
	}
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSummary(dir, testResult())
	if err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	if !strings.HasSuffix(path, "executive_summary.txt") {
		t.Errorf("unexpected path %s", path)
	}
}
