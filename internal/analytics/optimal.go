package analytics

import (
	"sort"

	"github.com/ignite/campaign-insights/internal/deployment"
)

type optimalKey struct {
	Channel  string
	Contacts int
}

// OptimalFrequencyTable joins the enriched history back to channel and
// outcome fields by tactic ID, buckets by (channel, 30-day rolling count),
// and keeps only buckets with at least minSampleSize observations. The
// gate is statistical significance, not data quality: small buckets are
// dropped silently.
func OptimalFrequencyTable(windowed []*ContactFrequencyRecord, batch []*deployment.Record, minSampleSize int) ([]*OptimalFrequencyBucket, error) {
	byTactic, err := indexByTactic(batch)
	if err != nil {
		return nil, err
	}

	buckets := make(map[optimalKey]*outcomeAccum)
	for _, cf := range windowed {
		rec, ok := byTactic[cf.TacticID]
		if !ok {
			return nil, &IntegrityError{TacticID: cf.TacticID, Reason: "no source record for windowed row"}
		}
		key := optimalKey{Channel: rec.Channel, Contacts: cf.ContactsLast(30)}
		acc := buckets[key]
		if acc == nil {
			acc = &outcomeAccum{}
			buckets[key] = acc
		}
		acc.add(rec)
	}

	out := make([]*OptimalFrequencyBucket, 0, len(buckets))
	for key, acc := range buckets {
		if acc.count < minSampleSize {
			continue
		}
		b := &OptimalFrequencyBucket{
			Channel:         key.Channel,
			ContactsLast30d: key.Contacts,
			SampleSize:      acc.count,
		}
		b.ResponseRate, _ = mean(acc.responses)
		b.ConversionRate, _ = mean(acc.conversions)
		b.AvgRevenue, _ = mean(acc.revenue)
		if sd, ok := sampleStddev(acc.revenue); ok {
			b.RevenueStd = floatPtr(sd)
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].ContactsLast30d < out[j].ContactsLast30d
	})
	return out, nil
}
