package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ignite/campaign-insights/internal/analytics"
	"github.com/ignite/campaign-insights/internal/deployment"
)

// CSVWriter persists each derived table as a CSV file in a directory.
// Column order is fixed and undefined metrics render as "null", so two
// runs over the same batch produce byte-identical files.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a writer rooted at dir (created if missing).
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// WriteAll writes every populated table of the result. Tables with a
// recorded error are skipped. Returns the written file paths by table.
func (w *CSVWriter) WriteAll(res *analytics.Result, windows []int) (map[string]string, error) {
	paths := make(map[string]string)
	write := func(name string, rows [][]string) error {
		if _, failed := res.TableErrors[name]; failed {
			return nil
		}
		path := filepath.Join(w.dir, name+".csv")
		if err := writeCSV(path, rows); err != nil {
			return fmt.Errorf("write table %s: %w", name, err)
		}
		paths[name] = path
		return nil
	}

	if err := write(analytics.TableContactFrequency, contactFrequencyRows(res.ContactFrequency, windows)); err != nil {
		return paths, err
	}
	if err := write(analytics.TableCampaignPerformance, campaignRows(res.CampaignPerformance)); err != nil {
		return paths, err
	}
	if err := write(analytics.TableFrequencyImpact, frequencyRows(res.FrequencyImpact)); err != nil {
		return paths, err
	}
	if err := write(analytics.TableClientEngagement, engagementRows(res.ClientEngagement)); err != nil {
		return paths, err
	}
	if err := write(analytics.TableOptimalFrequency, optimalRows(res.OptimalFrequency)); err != nil {
		return paths, err
	}
	if err := write(analytics.TableMonthlyTrends, monthlyRows(res.MonthlyTrends)); err != nil {
		return paths, err
	}
	return paths, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func fdate(t time.Time) string { return t.Format(deployment.DateFormat) }

func ffloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func fnullable(v *float64) string {
	if v == nil {
		return "null"
	}
	return ffloat(*v)
}

func contactFrequencyRows(recs []*analytics.ContactFrequencyRecord, windows []int) [][]string {
	header := []string{"tactic_id", "client_id", "deployment_date", "days_since_last_contact", "contact_number"}
	for _, n := range windows {
		header = append(header, fmt.Sprintf("contacts_last_%dd", n))
	}
	rows := [][]string{header}
	for _, r := range recs {
		days := "null"
		if r.DaysSinceLastContact != nil {
			days = strconv.Itoa(*r.DaysSinceLastContact)
		}
		row := []string{r.TacticID, r.ClientID, fdate(r.DeploymentDate), days, strconv.Itoa(r.ContactNumber)}
		for _, n := range windows {
			row = append(row, strconv.Itoa(r.ContactsLast(n)))
		}
		rows = append(rows, row)
	}
	return rows
}

func campaignRows(recs []*analytics.CampaignPerformance) [][]string {
	rows := [][]string{{
		"campaign_id", "campaign_name", "channel", "offer_type",
		"total_deployments", "unique_clients", "total_responses", "total_conversions",
		"total_revenue", "avg_revenue_per_deployment",
		"response_rate", "conversion_rate", "response_to_conversion_rate",
		"avg_days_to_response", "avg_days_to_conversion",
	}}
	for _, r := range recs {
		rows = append(rows, []string{
			r.CampaignID, r.CampaignName, r.Channel, r.OfferType,
			strconv.Itoa(r.TotalDeployments), strconv.Itoa(r.UniqueClients),
			strconv.Itoa(r.TotalResponses), strconv.Itoa(r.TotalConversions),
			ffloat(r.TotalRevenue), fnullable(r.AvgRevenuePerDeployment),
			fnullable(r.ResponseRate), fnullable(r.ConversionRate), fnullable(r.ResponseToConversionRate),
			fnullable(r.AvgDaysToResponse), fnullable(r.AvgDaysToConversion),
		})
	}
	return rows
}

func frequencyRows(recs []*analytics.FrequencyImpactBucket) [][]string {
	rows := [][]string{{
		"contacts_last_30d", "deployments_count",
		"avg_response_rate", "avg_conversion_rate", "avg_revenue", "revenue_stddev",
	}}
	for _, r := range recs {
		rows = append(rows, []string{
			strconv.Itoa(r.ContactsLast30d), strconv.Itoa(r.DeploymentsCount),
			ffloat(r.AvgResponseRate), ffloat(r.AvgConversionRate),
			ffloat(r.AvgRevenue), fnullable(r.RevenueStddev),
		})
	}
	return rows
}

func engagementRows(recs []*analytics.ClientEngagementProfile) [][]string {
	rows := [][]string{{
		"client_id", "total_contacts", "total_responses", "total_conversions", "total_revenue",
		"first_contact_date", "last_contact_date", "response_rate", "conversion_rate",
		"days_since_last_contact", "customer_lifetime_days", "engagement_score",
	}}
	for _, r := range recs {
		rows = append(rows, []string{
			r.ClientID, strconv.Itoa(r.TotalContacts), strconv.Itoa(r.TotalResponses),
			strconv.Itoa(r.TotalConversions), ffloat(r.TotalRevenue),
			fdate(r.FirstContactDate), fdate(r.LastContactDate),
			ffloat(r.ResponseRate), ffloat(r.ConversionRate),
			strconv.Itoa(r.DaysSinceLastContact), strconv.Itoa(r.CustomerLifetimeDays),
			ffloat(r.EngagementScore),
		})
	}
	return rows
}

func optimalRows(recs []*analytics.OptimalFrequencyBucket) [][]string {
	rows := [][]string{{
		"channel", "contacts_last_30d", "sample_size",
		"response_rate", "conversion_rate", "avg_revenue", "revenue_std",
	}}
	for _, r := range recs {
		rows = append(rows, []string{
			r.Channel, strconv.Itoa(r.ContactsLast30d), strconv.Itoa(r.SampleSize),
			ffloat(r.ResponseRate), ffloat(r.ConversionRate),
			ffloat(r.AvgRevenue), fnullable(r.RevenueStd),
		})
	}
	return rows
}

func monthlyRows(recs []*analytics.MonthlyTrend) [][]string {
	rows := [][]string{{
		"year_month", "channel", "deployments", "unique_clients",
		"response_rate", "conversion_rate", "total_revenue",
	}}
	for _, r := range recs {
		rows = append(rows, []string{
			r.YearMonth, r.Channel, strconv.Itoa(r.Deployments), strconv.Itoa(r.UniqueClients),
			ffloat(r.ResponseRate), ffloat(r.ConversionRate), ffloat(r.TotalRevenue),
		})
	}
	return rows
}
