package analytics

import (
	"sort"

	"github.com/ignite/campaign-insights/internal/deployment"
)

type monthlyKey struct {
	YearMonth string
	Channel   string
}

type monthlyAccum struct {
	outcomeAccum
	clients map[string]struct{}
}

// MonthlyTrendTable aggregates the batch by calendar month and channel,
// ordered by (year-month, channel).
func MonthlyTrendTable(batch []*deployment.Record) []*MonthlyTrend {
	groups := make(map[monthlyKey]*monthlyAccum)
	for _, rec := range batch {
		key := monthlyKey{
			YearMonth: rec.DeploymentDate.Format("2006-01"),
			Channel:   rec.Channel,
		}
		acc := groups[key]
		if acc == nil {
			acc = &monthlyAccum{clients: make(map[string]struct{})}
			groups[key] = acc
		}
		acc.add(rec)
		acc.clients[rec.ClientID] = struct{}{}
	}

	out := make([]*MonthlyTrend, 0, len(groups))
	for key, acc := range groups {
		t := &MonthlyTrend{
			YearMonth:     key.YearMonth,
			Channel:       key.Channel,
			Deployments:   acc.count,
			UniqueClients: len(acc.clients),
		}
		t.ResponseRate, _ = mean(acc.responses)
		t.ConversionRate, _ = mean(acc.conversions)
		for _, v := range acc.revenue {
			t.TotalRevenue += v
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].YearMonth != out[j].YearMonth {
			return out[i].YearMonth < out[j].YearMonth
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}
