package analytics

import "github.com/montanaflynn/stats"

// mean returns the arithmetic mean and whether it is defined (non-empty
// input).
func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m, err := stats.Mean(values)
	if err != nil {
		return 0, false
	}
	return m, true
}

// sampleStddev returns the unbiased (n-1) standard deviation; undefined
// for fewer than two observations.
func sampleStddev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return 0, false
	}
	return sd, true
}
