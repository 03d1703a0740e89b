package aggregator

import "zendesk-kpi-go/internal/types"

// Bucket is a latency range with an inclusive upper bound in minutes.
// A negative bound means unbounded.
type Bucket struct {
	Label string
	Upper int
}

var FirstReplyBuckets = []Bucket{
	{"0-1h", 60},
	{"1-8h", 480},
	{"8-24h", 1440},
	{">24h", -1},
}

var ResolutionBuckets = []Bucket{
	{"0-5h", 300},
	{"5-24h", 1440},
	{"1-7j", 10080},
	{"7-30j", 43200},
	{">30j", -1},
}

// BucketIndex returns the index of the bucket minutes falls in.
func BucketIndex(buckets []Bucket, minutes int) int {
	for i, b := range buckets {
		if b.Upper < 0 || minutes <= b.Upper {
			return i
		}
	}
	return len(buckets) - 1
}

// LatencyHistogram accumulates one latency table. It is not safe for
// concurrent use: a single consumer feeds it.
type LatencyHistogram struct {
	buckets []Bucket
	counts  []int
	without int
	name    string
}

func NewLatencyHistogram(name string, buckets []Bucket) *LatencyHistogram {
	return &LatencyHistogram{name: name, buckets: buckets, counts: make([]int, len(buckets))}
}

// Add records one ticket. A nil value counts as "without metric".
func (h *LatencyHistogram) Add(minutes *int) {
	if minutes == nil {
		h.without++
		return
	}
	h.counts[BucketIndex(h.buckets, *minutes)]++
}

func (h *LatencyHistogram) Table() types.LatencyTable {
	t := types.LatencyTable{Name: h.name, WithoutMetric: h.without, Buckets: make([]types.LatencyBucket, len(h.buckets))}
	for i, b := range h.buckets {
		t.Buckets[i] = types.LatencyBucket{Label: b.Label, Count: h.counts[i]}
	}
	return t
}

// Latency builds both tables from already collected metrics. Every tracked
// ticket lands in one bucket or in "without metric"; other types are ignored.
func Latency(tickets []types.Ticket, metrics map[int64]types.MetricRecord) (types.LatencyTable, types.LatencyTable) {
	first := NewLatencyHistogram("first_reply", FirstReplyBuckets)
	resolution := NewLatencyHistogram("full_resolution", ResolutionBuckets)
	for _, t := range tickets {
		if !t.Type.IsTracked() {
			continue
		}
		m, ok := metrics[t.ID]
		if !ok {
			first.Add(nil)
			resolution.Add(nil)
			continue
		}
		first.Add(m.FirstReplyMinutes)
		resolution.Add(m.FullResolutionMinutes)
	}
	return first.Table(), resolution.Table()
}
