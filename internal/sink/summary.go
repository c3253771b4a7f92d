package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ignite/campaign-insights/internal/analytics"
)

// WriteSummary renders the executive summary text file: run metadata,
// overall rates, the top campaigns by conversion rate, and the top
// optimal-frequency buckets by average revenue. Returns the file path.
func WriteSummary(dir string, res *analytics.Result) (string, error) {
	path := filepath.Join(dir, "executive_summary.txt")
	if err := os.WriteFile(path, []byte(RenderSummary(res)), 0o644); err != nil {
		return "", fmt.Errorf("write executive summary: %w", err)
	}
	return path, nil
}

// RenderSummary builds the summary text for a completed run.
func RenderSummary(res *analytics.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Campaign Performance Executive Summary\n")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(&b, "Run ID: %s\n", res.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", res.CompletedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "As of: %s\n\n", res.AsOf.Format("2006-01-02"))

	fmt.Fprintf(&b, "Key Metrics:\n")
	fmt.Fprintf(&b, "- Total Deployments: %d\n", res.TotalDeployments)
	fmt.Fprintf(&b, "- Unique Clients: %d\n", res.UniqueClients)
	fmt.Fprintf(&b, "- Total Campaigns: %d\n", res.UniqueCampaigns)

	var responses, conversions, revenue float64
	for _, c := range res.CampaignPerformance {
		responses += float64(c.TotalResponses)
		conversions += float64(c.TotalConversions)
		revenue += c.TotalRevenue
	}
	if res.TotalDeployments > 0 {
		fmt.Fprintf(&b, "- Overall Response Rate: %.2f%%\n", responses/float64(res.TotalDeployments)*100)
		fmt.Fprintf(&b, "- Overall Conversion Rate: %.2f%%\n", conversions/float64(res.TotalDeployments)*100)
	}
	fmt.Fprintf(&b, "- Total Revenue: $%.2f\n\n", revenue)

	fmt.Fprintf(&b, "Top Performing Campaigns (by conversion rate):\n")
	for i, c := range topCampaigns(res.CampaignPerformance, 5) {
		rate := 0.0
		if c.ConversionRate != nil {
			rate = *c.ConversionRate
		}
		fmt.Fprintf(&b, "%d. %s [%s/%s] - %.2f%% conversion, %d deployments, $%.2f revenue\n",
			i+1, c.CampaignName, c.Channel, c.OfferType, rate, c.TotalDeployments, c.TotalRevenue)
	}

	fmt.Fprintf(&b, "\nOptimal Contact Frequency (by avg revenue):\n")
	for i, o := range topBuckets(res.OptimalFrequency, 10) {
		fmt.Fprintf(&b, "%d. %s @ %d contacts/30d - $%.2f avg revenue, %.2f%% response (n=%d)\n",
			i+1, o.Channel, o.ContactsLast30d, o.AvgRevenue, o.ResponseRate*100, o.SampleSize)
	}

	if res.Partial() {
		fmt.Fprintf(&b, "\nPartial results - failed tables:\n")
		names := make([]string, 0, len(res.TableErrors))
		for name := range res.TableErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %v\n", name, res.TableErrors[name])
		}
	}

	return b.String()
}

func topCampaigns(in []*analytics.CampaignPerformance, n int) []*analytics.CampaignPerformance {
	out := make([]*analytics.CampaignPerformance, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := 0.0, 0.0
		if out[i].ConversionRate != nil {
			ri = *out[i].ConversionRate
		}
		if out[j].ConversionRate != nil {
			rj = *out[j].ConversionRate
		}
		return ri > rj
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topBuckets(in []*analytics.OptimalFrequencyBucket, n int) []*analytics.OptimalFrequencyBucket {
	out := make([]*analytics.OptimalFrequencyBucket, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgRevenue > out[j].AvgRevenue })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
