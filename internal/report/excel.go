package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"zendesk-kpi-go/internal/types"
)

// Sheet names, in workbook order.
const (
	SheetTags           = "Tickets by Tag"
	SheetReconciliation = "Tag Reconciliation"
	SheetFirstReply     = "First Reply Time"
	SheetResolution     = "Full Resolution Time"
	SheetSatisfaction   = "Satisfaction"
	SheetTypes          = "Tickets by Type"
	SheetMonthly        = "Tickets by Month"
	SheetSummary        = "Run Summary"
)

// sheet appends rows one after the other and keeps the first error.
type sheet struct {
	f    *excelize.File
	name string
	row  int
	err  error
}

func (s *sheet) append(values ...any) {
	if s.err != nil {
		return
	}
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		s.err = err
		return
	}
	row := values
	s.err = s.f.SetSheetRow(s.name, cell, &row)
}

func (s *sheet) style(styleID, cols, fromRow, toRow int) {
	if s.err != nil || toRow < fromRow {
		return
	}
	first, err := excelize.CoordinatesToCellName(1, fromRow)
	if err != nil {
		s.err = err
		return
	}
	last, err := excelize.CoordinatesToCellName(cols, toRow)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(s.name, first, last, styleID)
}

// Write renders every KPI table of rep into a new workbook at path.
func Write(path string, rep types.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	center, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"}})
	if err != nil {
		return fmt.Errorf("center style: %w", err)
	}

	writers := []struct {
		name string
		fill func(*sheet)
	}{
		{SheetTags, func(s *sheet) { tagSheet(s, rep.Tags) }},
		{SheetReconciliation, func(s *sheet) { reconciliationSheet(s, rep.Tags.Reconciliation) }},
		{SheetFirstReply, func(s *sheet) { latencySheet(s, rep.FirstReply) }},
		{SheetResolution, func(s *sheet) { latencySheet(s, rep.Resolution) }},
		{SheetSatisfaction, func(s *sheet) { satisfactionSheet(s, rep.Satisfaction) }},
		{SheetTypes, func(s *sheet) { typeSheet(s, rep.Types) }},
		{SheetMonthly, func(s *sheet) { monthlySheet(s, rep.Monthly, center) }},
		{SheetSummary, func(s *sheet) { summarySheet(s, rep.Summary) }},
	}

	for i, w := range writers {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), w.name); err != nil {
				return fmt.Errorf("rename first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(w.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", w.name, err)
		}
		s := &sheet{f: f, name: w.name}
		w.fill(s)
		if s.err == nil {
			s.err = f.SetRowStyle(w.name, 1, 1, header)
		}
		if s.err == nil {
			s.err = f.SetColWidth(w.name, "A", "A", 28)
		}
		if s.err != nil {
			return fmt.Errorf("write sheet %s: %w", w.name, s.err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func tagSheet(s *sheet, tags types.TagReport) {
	head := []any{"Tag"}
	for _, tt := range types.TrackedTypes {
		head = append(head, string(tt))
	}
	s.append(append(head, "Total tickets")...)
	for _, st := range tags.Tags {
		row := []any{st.Tag}
		for _, tt := range types.TrackedTypes {
			row = append(row, st.ByType[tt])
		}
		s.append(append(row, st.Total)...)
	}
}

func reconciliationSheet(s *sheet, r types.Reconciliation) {
	s.append("Type", "Tagged tickets", "Untagged tickets", "Total tickets")
	for _, tt := range types.TrackedTypes {
		s.append(string(tt), r.Tagged[tt], r.Untagged[tt], r.TicketsByType[tt])
	}
	s.append("Total", r.TaggedTotal, r.UntaggedTotal, r.TotalTickets)
}

func latencySheet(s *sheet, t types.LatencyTable) {
	s.append("Delay", "% Tickets", "Tickets")
	for i, b := range t.Buckets {
		s.append(b.Label, fmt.Sprintf("%d%%", t.Share(i)), b.Count)
	}
	s.append("Without metric", "", t.WithoutMetric)
	s.append("Total", "", t.Total())
}

func satisfactionSheet(s *sheet, sat types.SatisfactionSummary) {
	s.append("Indicator", "Value")
	s.append("% Global satisfaction", fmt.Sprintf("%.1f%%", sat.Percent))
	s.append("Good ratings", sat.Good)
	s.append("Bad ratings", sat.Bad)
}

func typeSheet(s *sheet, d types.TypeDistribution) {
	s.append("Ticket type", "Tickets")
	for _, tt := range types.TrackedTypes {
		s.append(string(tt), fmt.Sprintf("%d (%d%%)", d.Counts[tt], d.Share(tt)))
	}
	s.append("Total", d.Total)
	s.append("Excluded (other types)", d.Unknown)
}

func monthlySheet(s *sheet, months []types.MonthlyStat, center int) {
	head := []any{"Month", "Incidents", "Questions", "Tasks", "Total tickets", "% Satisfaction", "Ratings"}
	s.append(head...)
	for _, m := range months {
		s.append(
			MonthLabel(m.Month),
			m.ByType[types.TypeIncident],
			m.ByType[types.TypeQuestion],
			m.ByType[types.TypeTask],
			m.Total,
			fmt.Sprintf("%.1f%%", m.Percent),
			m.Ratings(),
		)
	}
	s.style(center, len(head), 2, s.row)
}

func summarySheet(s *sheet, sum types.RunSummary) {
	s.append("Field", "Value")
	s.append("Run id", sum.RunID)
	s.append("Window start", sum.Start.Format(time.RFC3339))
	s.append("Window end", sum.End.Format(time.RFC3339))
	s.append("Listing status", string(sum.Status))
	s.append("Pages fetched", sum.Pages)
	s.append("Tickets fetched", sum.TicketsFetched)
	s.append("Tickets skipped (malformed)", sum.TicketsSkipped)
	s.append("Duplicates dropped", sum.DuplicatesDropped)
	s.append("Metric give-ups", sum.MetricGiveUps)
	if sum.ListingError != "" {
		s.append("Listing error", sum.ListingError)
		s.append("Resume cursor", sum.ResumeCursor)
	}
	s.append("Elapsed", sum.Elapsed.Round(time.Millisecond).String())
}

// MonthLabel turns a YYYY-MM key into "January 2025". Unparsable keys are
// returned unchanged.
func MonthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}
