package analytics

import (
	"sort"
	"time"

	"github.com/ignite/campaign-insights/internal/deployment"
)

// ClientEngagementTable profiles every client in the batch: lifetime
// totals, recency against asOf, and the weighted engagement score.
// Rates here are fractions, not percentages, matching how the score
// weights were calibrated.
func ClientEngagementTable(batch []*deployment.Record, weights ScoreWeights, asOf time.Time) []*ClientEngagementProfile {
	profiles := make(map[string]*ClientEngagementProfile)
	for _, rec := range batch {
		p := profiles[rec.ClientID]
		if p == nil {
			p = &ClientEngagementProfile{
				ClientID:         rec.ClientID,
				FirstContactDate: rec.DeploymentDate,
				LastContactDate:  rec.DeploymentDate,
			}
			profiles[rec.ClientID] = p
		}
		p.TotalContacts++
		p.TotalResponses += rec.ResponseFlag
		p.TotalConversions += rec.ConversionFlag
		p.TotalRevenue += rec.Revenue
		if rec.DeploymentDate.Before(p.FirstContactDate) {
			p.FirstContactDate = rec.DeploymentDate
		}
		if rec.DeploymentDate.After(p.LastContactDate) {
			p.LastContactDate = rec.DeploymentDate
		}
	}

	out := make([]*ClientEngagementProfile, 0, len(profiles))
	for _, p := range profiles {
		// Every profiled client has at least one contact, but the
		// denominator is still guarded.
		if p.TotalContacts > 0 {
			contacts := float64(p.TotalContacts)
			p.ResponseRate = float64(p.TotalResponses) / contacts
			p.ConversionRate = float64(p.TotalConversions) / contacts
			p.EngagementScore = p.ResponseRate*weights.ResponseRate +
				p.ConversionRate*weights.ConversionRate +
				(p.TotalRevenue/contacts)*weights.RevenuePerContact
		}
		p.DaysSinceLastContact = daysBetween(p.LastContactDate, asOf)
		p.CustomerLifetimeDays = daysBetween(p.FirstContactDate, p.LastContactDate)
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}
