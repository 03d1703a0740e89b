// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"zendesk-kpi-go/internal/aggregator"
	"zendesk-kpi-go/internal/dataset"
	"zendesk-kpi-go/internal/types"
)

// MetricFetcher retrieves the timings of one ticket, retrying internally.
// A nil record with an error means the ticket has no metric.
type MetricFetcher interface {
	FetchMetric(ctx context.Context, ticketID int64) (*types.MetricRecord, error)
}

type Options struct {
	Workers       int
	ProgressEvery int
	Log           *logrus.Entry
}

// Enrichment is the joined outcome of the metric phase.
type Enrichment struct {
	Metrics    map[int64]types.MetricRecord
	FirstReply types.LatencyTable
	Resolution types.LatencyTable
	GiveUps    int
}

type result struct {
	id  int64
	rec *types.MetricRecord
	err error
}

// Enrich fetches the metrics of every ticket in set with a fixed number of
// workers. Workers only send results; this goroutine is the single point that
// touches the histograms, and it returns after every worker has finished.
func Enrich(ctx context.Context, f MetricFetcher, set dataset.TicketSet, opts Options) Enrichment {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "enrichment")

	ids := set.IDs()
	jobs := make(chan int64)
	results := make(chan result, workers)

	go func() {
		defer close(jobs)
		for _, id := range ids {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				rec, err := f.FetchMetric(ctx, id)
				results <- result{id: id, rec: rec, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	first := aggregator.NewLatencyHistogram("first_reply", aggregator.FirstReplyBuckets)
	resolution := aggregator.NewLatencyHistogram("full_resolution", aggregator.ResolutionBuckets)
	out := Enrichment{Metrics: make(map[int64]types.MetricRecord, len(ids))}
	seen := make(map[int64]bool, len(ids))
	done := 0

	for r := range results {
		done++
		if opts.ProgressEvery > 0 && (done%opts.ProgressEvery == 0 || done == len(ids)) {
			log.WithFields(logrus.Fields{"done": done, "total": len(ids)}).Info("metrics progress")
		}
		if seen[r.id] {
			continue
		}
		seen[r.id] = true

		if r.err != nil || r.rec == nil {
			out.GiveUps++
			if r.err != nil {
				log.WithField("ticket_id", r.id).WithField("error", r.err.Error()).Debug("no metric for ticket")
			}
		} else {
			out.Metrics[r.id] = *r.rec
		}

		t, ok := set.ByID[r.id]
		if !ok || !t.Type.IsTracked() {
			continue
		}
		if r.rec == nil {
			first.Add(nil)
			resolution.Add(nil)
			continue
		}
		first.Add(r.rec.FirstReplyMinutes)
		resolution.Add(r.rec.FullResolutionMinutes)
	}

	// Tickets never dispatched (cancelled run) still belong to "without metric".
	for _, t := range set.Tickets {
		if t.Type.IsTracked() && !seen[t.ID] {
			first.Add(nil)
			resolution.Add(nil)
		}
	}

	out.FirstReply = first.Table()
	out.Resolution = resolution.Table()
	log.WithFields(logrus.Fields{
		"tickets":  len(ids),
		"metrics":  len(out.Metrics),
		"give_ups": out.GiveUps,
	}).Info("metric enrichment finished")
	return out
}
