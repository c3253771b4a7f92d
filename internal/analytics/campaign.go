package analytics

import (
	"sort"

	"github.com/ignite/campaign-insights/internal/deployment"
)

type campaignKey struct {
	CampaignID   string
	CampaignName string
	Channel      string
	OfferType    string
}

type campaignAccum struct {
	deployments    int
	clients        map[string]struct{}
	responses      int
	conversions    int
	revenue        float64
	daysToResponse []float64
	daysToConvert  []float64
}

// CampaignPerformanceTable aggregates the batch by (campaign, channel,
// offer type). Every ratio with a zero denominator comes back nil rather
// than faulting; timing averages cover only rows where the outcome
// actually occurred and its date is present.
func CampaignPerformanceTable(batch []*deployment.Record) []*CampaignPerformance {
	groups := make(map[campaignKey]*campaignAccum)
	for _, rec := range batch {
		key := campaignKey{rec.CampaignID, rec.CampaignName, rec.Channel, rec.OfferType}
		acc := groups[key]
		if acc == nil {
			acc = &campaignAccum{clients: make(map[string]struct{})}
			groups[key] = acc
		}
		acc.deployments++
		acc.clients[rec.ClientID] = struct{}{}
		acc.responses += rec.ResponseFlag
		acc.conversions += rec.ConversionFlag
		acc.revenue += rec.Revenue
		if rec.ResponseFlag == 1 && rec.ResponseDate != nil {
			acc.daysToResponse = append(acc.daysToResponse, float64(daysBetween(rec.DeploymentDate, *rec.ResponseDate)))
		}
		if rec.ConversionFlag == 1 && rec.ConversionDate != nil {
			acc.daysToConvert = append(acc.daysToConvert, float64(daysBetween(rec.DeploymentDate, *rec.ConversionDate)))
		}
	}

	out := make([]*CampaignPerformance, 0, len(groups))
	for key, acc := range groups {
		cp := &CampaignPerformance{
			CampaignID:       key.CampaignID,
			CampaignName:     key.CampaignName,
			Channel:          key.Channel,
			OfferType:        key.OfferType,
			TotalDeployments: acc.deployments,
			UniqueClients:    len(acc.clients),
			TotalResponses:   acc.responses,
			TotalConversions: acc.conversions,
			TotalRevenue:     acc.revenue,
		}
		if acc.deployments > 0 {
			cp.AvgRevenuePerDeployment = floatPtr(acc.revenue / float64(acc.deployments))
			cp.ResponseRate = floatPtr(float64(acc.responses) / float64(acc.deployments) * 100)
			cp.ConversionRate = floatPtr(float64(acc.conversions) / float64(acc.deployments) * 100)
		}
		if acc.responses > 0 {
			cp.ResponseToConversionRate = floatPtr(float64(acc.conversions) / float64(acc.responses) * 100)
		}
		if avg, ok := mean(acc.daysToResponse); ok {
			cp.AvgDaysToResponse = floatPtr(avg)
		}
		if avg, ok := mean(acc.daysToConvert); ok {
			cp.AvgDaysToConversion = floatPtr(avg)
		}
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CampaignID != out[j].CampaignID {
			return out[i].CampaignID < out[j].CampaignID
		}
		if out[i].CampaignName != out[j].CampaignName {
			return out[i].CampaignName < out[j].CampaignName
		}
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].OfferType < out[j].OfferType
	})
	return out
}
