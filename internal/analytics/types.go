package analytics

import "time"

// ScoreWeights are the coefficients of the composite engagement score.
// They are configuration, not constants, so alternate weightings can be
// evaluated without code changes.
type ScoreWeights struct {
	ResponseRate      float64 `yaml:"response_rate" json:"response_rate"`
	ConversionRate    float64 `yaml:"conversion_rate" json:"conversion_rate"`
	RevenuePerContact float64 `yaml:"revenue_per_contact" json:"revenue_per_contact"`
}

// DefaultScoreWeights returns the production weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		ResponseRate:      0.3,
		ConversionRate:    0.5,
		RevenuePerContact: 0.2,
	}
}

// Params holds the tunable knobs of the analytics run. Zero values are
// filled in from DefaultParams by the pipeline.
type Params struct {
	// Windows are the rolling look-back windows, in days, computed per
	// contact. Order is preserved in the output.
	Windows []int

	// MinSampleSize is the significance gate for optimal-frequency
	// buckets; smaller buckets are silently dropped.
	MinSampleSize int

	// Weights are the engagement-score coefficients.
	Weights ScoreWeights

	// AsOf anchors "days since last contact" style recency metrics.
	AsOf time.Time

	// WindowWorkers bounds the per-client partition fan-out of the
	// window engine. <=1 disables parallelism.
	WindowWorkers int
}

// DefaultParams returns production defaults: 30/60/90-day windows, a
// 100-sample significance gate, and recency anchored at the current date.
func DefaultParams() Params {
	return Params{
		Windows:       []int{30, 60, 90},
		MinSampleSize: 100,
		Weights:       DefaultScoreWeights(),
		AsOf:          time.Now().UTC().Truncate(24 * time.Hour),
		WindowWorkers: 4,
	}
}

func (p Params) withDefaults() Params {
	def := DefaultParams()
	if len(p.Windows) == 0 {
		p.Windows = def.Windows
	}
	if p.MinSampleSize <= 0 {
		p.MinSampleSize = def.MinSampleSize
	}
	if p.Weights == (ScoreWeights{}) {
		p.Weights = def.Weights
	}
	if p.AsOf.IsZero() {
		p.AsOf = def.AsOf
	}
	if p.WindowWorkers <= 0 {
		p.WindowWorkers = def.WindowWorkers
	}
	return p
}

// ContactFrequencyRecord enriches one deployment with its position in the
// client's ordered contact history and rolling-window counts. WindowCounts
// is keyed by window size in days; each count excludes the contact itself.
type ContactFrequencyRecord struct {
	TacticID             string      `json:"tactic_id"`
	ClientID             string      `json:"client_id"`
	DeploymentDate       time.Time   `json:"deployment_date"`
	DaysSinceLastContact *int        `json:"days_since_last_contact"`
	ContactNumber        int         `json:"contact_number"`
	WindowCounts         map[int]int `json:"window_counts"`
}

// ContactsLast returns the rolling count for an N-day window, 0 when the
// window was not computed.
func (r *ContactFrequencyRecord) ContactsLast(days int) int {
	return r.WindowCounts[days]
}

// CampaignPerformance aggregates one (campaign, channel, offer type)
// group. Ratio fields are nil when their denominator is zero.
type CampaignPerformance struct {
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Channel      string `json:"channel"`
	OfferType    string `json:"offer_type"`

	TotalDeployments int     `json:"total_deployments"`
	UniqueClients    int     `json:"unique_clients"`
	TotalResponses   int     `json:"total_responses"`
	TotalConversions int     `json:"total_conversions"`
	TotalRevenue     float64 `json:"total_revenue"`

	AvgRevenuePerDeployment  *float64 `json:"avg_revenue_per_deployment"`
	ResponseRate             *float64 `json:"response_rate"`
	ConversionRate           *float64 `json:"conversion_rate"`
	ResponseToConversionRate *float64 `json:"response_to_conversion_rate"`
	AvgDaysToResponse        *float64 `json:"avg_days_to_response"`
	AvgDaysToConversion      *float64 `json:"avg_days_to_conversion"`
}

// FrequencyImpactBucket aggregates outcomes for one 30-day rolling-count
// value across all channels.
type FrequencyImpactBucket struct {
	ContactsLast30d   int      `json:"contacts_last_30d"`
	DeploymentsCount  int      `json:"deployments_count"`
	AvgResponseRate   float64  `json:"avg_response_rate"`
	AvgConversionRate float64  `json:"avg_conversion_rate"`
	AvgRevenue        float64  `json:"avg_revenue"`
	RevenueStddev     *float64 `json:"revenue_stddev"`
}

// ClientEngagementProfile summarizes one client's lifetime history.
type ClientEngagementProfile struct {
	ClientID string `json:"client_id"`

	TotalContacts    int     `json:"total_contacts"`
	TotalResponses   int     `json:"total_responses"`
	TotalConversions int     `json:"total_conversions"`
	TotalRevenue     float64 `json:"total_revenue"`

	FirstContactDate time.Time `json:"first_contact_date"`
	LastContactDate  time.Time `json:"last_contact_date"`

	ResponseRate         float64 `json:"response_rate"`
	ConversionRate       float64 `json:"conversion_rate"`
	DaysSinceLastContact int     `json:"days_since_last_contact"`
	CustomerLifetimeDays int     `json:"customer_lifetime_days"`
	EngagementScore      float64 `json:"engagement_score"`
}

// OptimalFrequencyBucket aggregates outcomes for one (channel, 30-day
// rolling count) pair. Only buckets meeting the significance gate survive.
type OptimalFrequencyBucket struct {
	Channel         string   `json:"channel"`
	ContactsLast30d int      `json:"contacts_last_30d"`
	SampleSize      int      `json:"sample_size"`
	ResponseRate    float64  `json:"response_rate"`
	ConversionRate  float64  `json:"conversion_rate"`
	AvgRevenue      float64  `json:"avg_revenue"`
	RevenueStd      *float64 `json:"revenue_std"`
}

// MonthlyTrend aggregates one (year-month, channel) pair.
type MonthlyTrend struct {
	YearMonth      string  `json:"year_month"`
	Channel        string  `json:"channel"`
	Deployments    int     `json:"deployments"`
	UniqueClients  int     `json:"unique_clients"`
	ResponseRate   float64 `json:"response_rate"`
	ConversionRate float64 `json:"conversion_rate"`
	TotalRevenue   float64 `json:"total_revenue"`
}

// daysBetween returns whole calendar days from a to b (negative when b
// precedes a). Dates are day-precision UTC values, so Sub is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

func floatPtr(v float64) *float64 { return &v }
