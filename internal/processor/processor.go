package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"zendesk-kpi-go/internal/aggregator"
	"zendesk-kpi-go/internal/config"
	"zendesk-kpi-go/internal/dataset"
	"zendesk-kpi-go/internal/logger"
	"zendesk-kpi-go/internal/pipeline"
	"zendesk-kpi-go/internal/report"
	"zendesk-kpi-go/internal/types"
	"zendesk-kpi-go/internal/zendesk"
)

// ErrListingFailed is returned when the listing failed before reading any
// page. The report is still written so its summary carries the cause.
var ErrListingFailed = errors.New("ticket listing failed")

// TicketSource produces the raw tickets of a window.
type TicketSource interface {
	FetchTickets(ctx context.Context, start, end time.Time) zendesk.Listing
}

// ReportSink persists the finished report.
type ReportSink func(path string, rep types.Report) error

type Options struct {
	Start         time.Time
	End           time.Time
	TagPrefix     string
	Workers       int
	ProgressEvery int
	OutputPath    string
}

// Processor runs one extraction: fetch, normalize, aggregate, enrich, report.
type Processor struct {
	Source  TicketSource
	Metrics pipeline.MetricFetcher
	Sink    ReportSink
	Log     *logger.Logger
}

// Result is the terminal state of a run. Status tells a complete run from a
// partial listing, an empty window or a listing that never got a page.
type Result struct {
	Status     types.RunStatus `json:"status"`
	Report     types.Report    `json:"report"`
	OutputPath string          `json:"output_path"`
	DurationMs int64           `json:"duration_ms"`
}

// New wires a Processor against the helpdesk described by cfg.
func New(cfg *config.Config, log *logger.Logger) *Processor {
	client := zendesk.NewClient(zendesk.Options{
		BaseURL:          cfg.BaseURL,
		Email:            cfg.Email,
		APIToken:         cfg.APIToken,
		RunID:            log.RunID(),
		ListTimeout:      cfg.ListTimeout,
		ListRetryAfter:   cfg.ListRetryAfter,
		MetricTimeout:    cfg.MetricTimeout,
		MetricRetryAfter: cfg.MetricRetryAfter,
		MetricBackoff:    cfg.MetricBackoff,
		MetricAttempts:   cfg.MetricAttempts,
		Log:              log.Entry,
	})
	return &Processor{Source: client, Metrics: client, Sink: report.Write, Log: log}
}

// OptionsFrom maps the loaded configuration onto run options.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Start:         cfg.Start,
		End:           cfg.End,
		TagPrefix:     cfg.TagPrefix,
		Workers:       cfg.MetricWorkers,
		ProgressEvery: cfg.ProgressEvery,
		OutputPath:    cfg.OutputPath,
	}
}

// Run executes the pipeline and hands the aggregates to the sink. It fails
// when the sink fails or when the listing could not read a single page;
// other upstream problems degrade the report instead.
func (p *Processor) Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	log := p.Log.Component("processor")
	log.WithFields(logrus.Fields{
		"start": opts.Start.Format(time.RFC3339),
		"end":   opts.End.Format(time.RFC3339),
	}).Info("loading tickets")

	listing := p.Source.FetchTickets(ctx, opts.Start, opts.End)
	set := dataset.Normalize(listing.Tickets)

	status := listingStatus(listing, len(set.Tickets))
	loaded := log.WithFields(logrus.Fields{
		"tickets":    len(set.Tickets),
		"tracked":    len(set.Tracked()),
		"duplicates": set.Duplicates,
		"skipped":    listing.Skipped,
		"pages":      listing.Pages,
		"status":     status,
	})
	if listing.Partial() {
		loaded.WithField("resume_cursor", listing.Cursor).
			WithField("error", listing.Err.Error()).
			Warn("tickets loaded, listing stopped early")
	} else {
		loaded.Info("tickets loaded")
	}

	tags := aggregator.Tags(set.Tickets, opts.TagPrefix)

	var enr pipeline.Enrichment
	if len(set.Tickets) > 0 {
		log.WithField("workers", opts.Workers).Info("fetching ticket metrics")
		enr = pipeline.Enrich(ctx, p.Metrics, set, pipeline.Options{
			Workers:       opts.Workers,
			ProgressEvery: opts.ProgressEvery,
			Log:           p.Log.Entry,
		})
	} else {
		enr.FirstReply, enr.Resolution = aggregator.Latency(nil, nil)
	}

	rep := types.Report{
		Tags:         tags,
		FirstReply:   enr.FirstReply,
		Resolution:   enr.Resolution,
		Satisfaction: aggregator.Satisfaction(set.Tickets),
		Types:        aggregator.TypeDistribution(set.Tickets),
		Monthly:      aggregator.Monthly(set.Tickets),
	}
	rep.Summary = types.RunSummary{
		RunID:             p.Log.RunID(),
		Start:             opts.Start,
		End:               opts.End,
		Status:            status,
		TicketsFetched:    len(listing.Tickets),
		TicketsSkipped:    listing.Skipped,
		DuplicatesDropped: set.Duplicates,
		Pages:             listing.Pages,
		MetricGiveUps:     enr.GiveUps,
		ResumeCursor:      listing.Cursor,
		Elapsed:           time.Since(start),
	}
	if listing.Err != nil {
		rep.Summary.ListingError = listing.Err.Error()
	}

	res := Result{Status: status, Report: rep, OutputPath: opts.OutputPath}
	if err := p.Sink(opts.OutputPath, rep); err != nil {
		res.DurationMs = time.Since(start).Milliseconds()
		return res, fmt.Errorf("write report: %w", err)
	}
	res.DurationMs = time.Since(start).Milliseconds()
	if status == types.RunFailed {
		return res, fmt.Errorf("%w: %v", ErrListingFailed, listing.Err)
	}

	log.WithFields(logrus.Fields{
		"output":       opts.OutputPath,
		"satisfaction": rep.Satisfaction.Percent,
		"duration_ms":  res.DurationMs,
	}).Info("report generated")
	return res, nil
}

// listingStatus classifies the listing outcome. A listing error outranks an
// empty window: zero tickets after a failure is not an empty period.
func listingStatus(l zendesk.Listing, tickets int) types.RunStatus {
	switch {
	case l.Partial() && l.Pages == 0:
		return types.RunFailed
	case l.Partial():
		return types.RunPartial
	case tickets == 0:
		return types.RunEmpty
	default:
		return types.RunComplete
	}
}
