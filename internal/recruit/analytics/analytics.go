// Package analytics derives recruiter dashboard metrics from fetched
// application lists. All functions are pure aggregation; nothing here is
// persisted.
package analytics

import (
	"sort"
	"time"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
)

// ResponseTimes summarizes how quickly the kingdom responds to applications.
type ResponseTimes struct {
	Responded int
	P50       time.Duration
	P90       time.Duration
}

// Conversion summarizes recruiter funnel rates.
type Conversion struct {
	Total        int
	Responded    int
	Accepted     int
	ResponseRate float64
	AcceptRate   float64
}

// WeekBucket counts applications applied within one ISO week.
type WeekBucket struct {
	Year  int
	Week  int
	Count int
}

// ResponseTimePercentiles computes p50/p90 applied-to-responded durations
// over applications that have a response timestamp.
func ResponseTimePercentiles(apps []application.Application) ResponseTimes {
	var durations []time.Duration
	for _, app := range apps {
		if app.RespondedAt == nil {
			continue
		}
		delta := app.RespondedAt.Sub(app.AppliedAt)
		if delta < 0 {
			delta = 0
		}
		durations = append(durations, delta)
	}
	if len(durations) == 0 {
		return ResponseTimes{}
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	return ResponseTimes{
		Responded: len(durations),
		P50:       percentile(durations, 50),
		P90:       percentile(durations, 90),
	}
}

// percentile uses nearest-rank on a sorted slice.
func percentile(sorted []time.Duration, pct int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (pct*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// ConversionRates computes responded/total and accepted/responded rates.
// Accepted counts applications whose decision was acceptance, including
// ones later reversed by cancel approval only if still accepted.
func ConversionRates(apps []application.Application) Conversion {
	conv := Conversion{Total: len(apps)}
	for _, app := range apps {
		if app.RespondedAt != nil {
			conv.Responded++
		}
		if app.Status == application.StatusAccepted {
			conv.Accepted++
		}
	}
	if conv.Total > 0 {
		conv.ResponseRate = float64(conv.Responded) / float64(conv.Total)
	}
	if conv.Responded > 0 {
		conv.AcceptRate = float64(conv.Accepted) / float64(conv.Responded)
	}
	return conv
}

// WeeklyBuckets counts applications per ISO week of applied_at, oldest week
// first.
func WeeklyBuckets(apps []application.Application) []WeekBucket {
	type key struct {
		year int
		week int
	}
	counts := make(map[key]int)
	for _, app := range apps {
		year, week := app.AppliedAt.UTC().ISOWeek()
		counts[key{year, week}]++
	}
	buckets := make([]WeekBucket, 0, len(counts))
	for k, count := range counts {
		buckets = append(buckets, WeekBucket{Year: k.year, Week: k.week, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		return buckets[i].Week < buckets[j].Week
	})
	return buckets
}

// StatusCounts tallies applications by status label.
func StatusCounts(apps []application.Application) map[string]int {
	counts := make(map[string]int)
	for _, app := range apps {
		counts[application.StatusLabel(app.Status)]++
	}
	return counts
}

// TotalUnread sums per-application unread message counts.
func TotalUnread(unread map[string]int) int {
	total := 0
	for _, count := range unread {
		total += count
	}
	return total
}
