package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"zendesk-kpi-go/internal/config"
	"zendesk-kpi-go/internal/logger"
	"zendesk-kpi-go/internal/processor"
	"zendesk-kpi-go/internal/types"
)

func main() {
	var over config.Overrides
	flag.StringVar(&over.EnvFile, "env", "", "env file with ZENDESK_* credentials (default .env)")
	flag.StringVar(&over.Start, "start", "", "window start, DD/MM/YYYY (default January 1 of this year)")
	flag.StringVar(&over.End, "end", "", "window end, DD/MM/YYYY inclusive (default now)")
	flag.StringVar(&over.Output, "out", "", "output workbook path")
	flag.Parse()

	log := logger.New().WithRun(logger.NewRunID())
	log.WithField("service", "zendesk-kpi-go").Info("starting extraction")

	cfg, err := config.Load(over, time.Now())
	if err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			fmt.Fprintln(os.Stderr, "configuration error:", err)
			fmt.Fprintln(os.Stderr, "set ZENDESK_SUBDOMAIN, ZENDESK_EMAIL and ZENDESK_API_TOKEN in the environment or a .env file")
		}
		log.WithError(err).Error("invalid configuration")
		os.Exit(2)
	}
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}
	log.WithField("start", cfg.Start.Format(config.DateLayout)).
		WithField("end", cfg.End.Format(config.DateLayout)).
		WithField("base_url", cfg.BaseURL).
		Info("extraction window")

	res, err := processor.New(cfg, log).Run(context.Background(), processor.OptionsFrom(cfg))
	if errors.Is(err, processor.ErrListingFailed) {
		log.WithError(err).WithField("output", res.OutputPath).Error("no ticket could be listed, check credentials and ZENDESK_BASE_URL")
		os.Exit(1)
	}
	if err != nil {
		log.WithError(err).Error("pipeline failed")
		os.Exit(1)
	}

	entry := log.WithField("status", res.Status).
		WithField("output", res.OutputPath).
		WithField("duration_ms", res.DurationMs)
	switch res.Status {
	case types.RunEmpty:
		entry.Warn("no ticket in the window, empty report generated")
	case types.RunPartial:
		entry.WithField("error", res.Report.Summary.ListingError).
			WithField("resume_cursor", res.Report.Summary.ResumeCursor).
			Warn("listing stopped early, report covers partial data")
	default:
		entry.Info("extraction finished")
	}
}
