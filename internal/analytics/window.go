package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ignite/campaign-insights/internal/deployment"
	"github.com/ignite/campaign-insights/internal/worker"
)

// ContactFrequency is the temporal window engine: it partitions the batch
// by client, orders each partition by deployment date (ties broken by
// tactic ID so ordinals are deterministic), and computes recency deltas
// and rolling-window counts per contact.
//
// Windows are calendar-day ranges, not fixed-count lookbacks: every
// contact whose date falls in [current-N days, current] counts, including
// other contacts on the same day, and the contact itself is excluded.
//
// Output is globally ordered by (client_id, contact_number).
func ContactFrequency(ctx context.Context, batch []*deployment.Record, params Params) ([]*ContactFrequencyRecord, error) {
	params = params.withDefaults()

	partitions := make(map[string][]*deployment.Record)
	for _, rec := range batch {
		partitions[rec.ClientID] = append(partitions[rec.ClientID], rec)
	}

	clientIDs := make([]string, 0, len(partitions))
	for id := range partitions {
		clientIDs = append(clientIDs, id)
	}
	sort.Strings(clientIDs)

	// One output slice per partition; workers never touch each other's
	// slot, so the only synchronization needed is the results map write.
	var mu sync.Mutex
	results := make(map[string][]*ContactFrequencyRecord, len(partitions))

	pool := worker.NewPool(params.WindowWorkers)
	err := pool.Map(ctx, clientIDs, func(_ context.Context, clientID string) error {
		recs := windowPartition(partitions[clientID], params.Windows)
		mu.Lock()
		results[clientID] = recs
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*ContactFrequencyRecord, 0, len(batch))
	for _, clientID := range clientIDs {
		out = append(out, results[clientID]...)
	}
	return out, nil
}

// windowPartition computes the enriched history for a single client.
// Requires every record to share the same ClientID.
func windowPartition(recs []*deployment.Record, windows []int) []*ContactFrequencyRecord {
	ordered := make([]*deployment.Record, len(recs))
	copy(ordered, recs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DeploymentDate.Equal(ordered[j].DeploymentDate) {
			return ordered[i].DeploymentDate.Before(ordered[j].DeploymentDate)
		}
		return ordered[i].TacticID < ordered[j].TacticID
	})

	dates := make([]time.Time, len(ordered))
	for i, r := range ordered {
		dates[i] = r.DeploymentDate
	}

	out := make([]*ContactFrequencyRecord, len(ordered))
	for i, rec := range ordered {
		cf := &ContactFrequencyRecord{
			TacticID:       rec.TacticID,
			ClientID:       rec.ClientID,
			DeploymentDate: rec.DeploymentDate,
			ContactNumber:  i + 1,
			WindowCounts:   make(map[int]int, len(windows)),
		}
		if i > 0 {
			d := daysBetween(dates[i-1], dates[i])
			cf.DaysSinceLastContact = &d
		}

		// Upper bound: everything on the current calendar day counts,
		// including contacts ordered after this one.
		hi := sort.Search(len(dates), func(k int) bool {
			return dates[k].After(rec.DeploymentDate)
		})
		for _, n := range windows {
			cutoff := rec.DeploymentDate.AddDate(0, 0, -n)
			lo := sort.Search(len(dates), func(k int) bool {
				return !dates[k].Before(cutoff)
			})
			count := hi - lo - 1 // exclude the current contact
			if count < 0 {
				count = 0
			}
			cf.WindowCounts[n] = count
		}
		out[i] = cf
	}
	return out
}
