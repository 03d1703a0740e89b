// internal/types/kpi_models.go
package types

import (
	"math"
	"time"
)

// --------------------------------------------
// Tag frequency
// --------------------------------------------
type TagStat struct {
	Tag    string             `json:"tag"`
	ByType map[TicketType]int `json:"by_type"`
	Total  int                `json:"total"`
}

// Reconciliation cross-checks tagged and untagged tickets against the
// tracked-type population. Tagged and Untagged are disjoint per type.
type Reconciliation struct {
	Tagged        map[TicketType]int `json:"tagged"`
	Untagged      map[TicketType]int `json:"untagged"`
	TicketsByType map[TicketType]int `json:"tickets_by_type"`
	TaggedTotal   int                `json:"tagged_total"`
	UntaggedTotal int                `json:"untagged_total"`
	TotalTickets  int                `json:"total_tickets"`
}

type TagReport struct {
	Prefix         string         `json:"prefix"`
	Tags           []TagStat      `json:"tags"`
	Reconciliation Reconciliation `json:"reconciliation"`
}

// --------------------------------------------
// Latency histograms
// --------------------------------------------
type LatencyBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type LatencyTable struct {
	Name          string          `json:"name"`
	Buckets       []LatencyBucket `json:"buckets"`
	WithoutMetric int             `json:"without_metric"`
}

// WithMetric is the number of tickets that landed in a bucket.
func (t LatencyTable) WithMetric() int {
	n := 0
	for _, b := range t.Buckets {
		n += b.Count
	}
	return n
}

// Total is bucketed tickets plus the "without metric" residual.
func (t LatencyTable) Total() int {
	return t.WithMetric() + t.WithoutMetric
}

// Share returns the bucket's share of bucketed tickets, as a whole percent.
func (t LatencyTable) Share(i int) int {
	with := t.WithMetric()
	if with == 0 || i < 0 || i >= len(t.Buckets) {
		return 0
	}
	return int(math.Round(float64(t.Buckets[i].Count) / float64(with) * 100))
}

// --------------------------------------------
// Satisfaction and distribution
// --------------------------------------------
type SatisfactionSummary struct {
	Good    int     `json:"good"`
	Bad     int     `json:"bad"`
	Percent float64 `json:"percent"`
}

type TypeDistribution struct {
	Counts  map[TicketType]int `json:"counts"`
	Total   int                `json:"total"`
	Unknown int                `json:"unknown"`
}

// Share returns the type's share of tracked tickets, as a whole percent.
func (d TypeDistribution) Share(t TicketType) int {
	if d.Total == 0 {
		return 0
	}
	return int(math.Round(float64(d.Counts[t]) / float64(d.Total) * 100))
}

type MonthlyStat struct {
	Month   string             `json:"month"` // YYYY-MM of ticket creation
	ByType  map[TicketType]int `json:"by_type"`
	Total   int                `json:"total"`
	Good    int                `json:"good"`
	Bad     int                `json:"bad"`
	Percent float64            `json:"percent"`
}

// Ratings is the number of good and bad ratings in the month.
func (m MonthlyStat) Ratings() int {
	return m.Good + m.Bad
}

// --------------------------------------------
// Run bookkeeping
// --------------------------------------------
type RunStatus string

const (
	// RunComplete: the listing reached end of stream.
	RunComplete RunStatus = "complete"
	// RunPartial: the listing aborted early, aggregates cover what was fetched.
	RunPartial RunStatus = "partial"
	// RunEmpty: no ticket fell in the window.
	RunEmpty RunStatus = "empty"
	// RunFailed: the listing aborted before its first page, nothing was read.
	RunFailed RunStatus = "failed"
)

type RunSummary struct {
	RunID             string        `json:"run_id"`
	Start             time.Time     `json:"start"`
	End               time.Time     `json:"end"`
	Status            RunStatus     `json:"status"`
	TicketsFetched    int           `json:"tickets_fetched"`
	TicketsSkipped    int           `json:"tickets_skipped"`
	DuplicatesDropped int           `json:"duplicates_dropped"`
	Pages             int           `json:"pages"`
	MetricGiveUps     int           `json:"metric_give_ups"`
	ListingError      string        `json:"listing_error,omitempty"`
	ResumeCursor      string        `json:"resume_cursor,omitempty"`
	Elapsed           time.Duration `json:"elapsed"`
}

// --------------------------------------------
// FINAL output handed to the report sink
// --------------------------------------------
type Report struct {
	Summary      RunSummary          `json:"summary"`
	Tags         TagReport           `json:"tags"`
	FirstReply   LatencyTable        `json:"first_reply"`
	Resolution   LatencyTable        `json:"resolution"`
	Satisfaction SatisfactionSummary `json:"satisfaction"`
	Types        TypeDistribution    `json:"types"`
	Monthly      []MonthlyStat       `json:"monthly"`
}
