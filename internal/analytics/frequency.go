package analytics

import (
	"sort"

	"github.com/ignite/campaign-insights/internal/deployment"
)

type outcomeAccum struct {
	count       int
	responses   []float64
	conversions []float64
	revenue     []float64
}

func (a *outcomeAccum) add(rec *deployment.Record) {
	a.count++
	a.responses = append(a.responses, float64(rec.ResponseFlag))
	a.conversions = append(a.conversions, float64(rec.ConversionFlag))
	a.revenue = append(a.revenue, rec.Revenue)
}

// FrequencyImpactTable buckets the enriched history by the 30-day rolling
// count and averages outcomes per bucket. The window output and the source
// batch are parallel row sets joined by tactic ID; a missing or duplicate
// key is an IntegrityError since both sides derive from the same batch.
func FrequencyImpactTable(windowed []*ContactFrequencyRecord, batch []*deployment.Record) ([]*FrequencyImpactBucket, error) {
	byTactic, err := indexByTactic(batch)
	if err != nil {
		return nil, err
	}

	buckets := make(map[int]*outcomeAccum)
	for _, cf := range windowed {
		rec, ok := byTactic[cf.TacticID]
		if !ok {
			return nil, &IntegrityError{TacticID: cf.TacticID, Reason: "no source record for windowed row"}
		}
		key := cf.ContactsLast(30)
		acc := buckets[key]
		if acc == nil {
			acc = &outcomeAccum{}
			buckets[key] = acc
		}
		acc.add(rec)
	}

	out := make([]*FrequencyImpactBucket, 0, len(buckets))
	for contacts, acc := range buckets {
		b := &FrequencyImpactBucket{
			ContactsLast30d:  contacts,
			DeploymentsCount: acc.count,
		}
		b.AvgResponseRate, _ = mean(acc.responses)
		b.AvgConversionRate, _ = mean(acc.conversions)
		b.AvgRevenue, _ = mean(acc.revenue)
		if sd, ok := sampleStddev(acc.revenue); ok {
			b.RevenueStddev = floatPtr(sd)
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ContactsLast30d < out[j].ContactsLast30d
	})
	return out, nil
}

// indexByTactic builds the 1:1 lookup shared by the frequency-driven
// tables. Duplicate tactic IDs break the join contract.
func indexByTactic(batch []*deployment.Record) (map[string]*deployment.Record, error) {
	byTactic := make(map[string]*deployment.Record, len(batch))
	for _, rec := range batch {
		if _, dup := byTactic[rec.TacticID]; dup {
			return nil, &IntegrityError{TacticID: rec.TacticID, Reason: "duplicate tactic id in batch"}
		}
		byTactic[rec.TacticID] = rec
	}
	return byTactic, nil
}
