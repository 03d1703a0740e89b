package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"zendesk-kpi-go/internal/types"
)

func sampleReport() types.Report {
	return types.Report{
		Summary: types.RunSummary{
			RunID:          "run-1",
			Start:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			End:            time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			Status:         types.RunComplete,
			TicketsFetched: 3,
			Elapsed:        1500 * time.Millisecond,
		},
		Tags: types.TagReport{
			Prefix: "com",
			Tags: []types.TagStat{
				{Tag: "com3", ByType: map[types.TicketType]int{types.TypeQuestion: 1}, Total: 1},
				{Tag: "com12", ByType: map[types.TicketType]int{types.TypeIncident: 1}, Total: 1},
			},
			Reconciliation: types.Reconciliation{
				Tagged:        map[types.TicketType]int{types.TypeIncident: 1, types.TypeQuestion: 1},
				Untagged:      map[types.TicketType]int{types.TypeTask: 1},
				TicketsByType: map[types.TicketType]int{types.TypeIncident: 1, types.TypeQuestion: 1, types.TypeTask: 1},
				TaggedTotal:   2, UntaggedTotal: 1, TotalTickets: 3,
			},
		},
		FirstReply: types.LatencyTable{Name: "first_reply", Buckets: []types.LatencyBucket{
			{Label: "0-1h", Count: 1}, {Label: "1-8h", Count: 1}, {Label: "8-24h"}, {Label: ">24h"},
		}, WithoutMetric: 1},
		Resolution: types.LatencyTable{Name: "full_resolution", Buckets: []types.LatencyBucket{
			{Label: "0-5h"}, {Label: "5-24h"}, {Label: "1-7j"}, {Label: "7-30j"}, {Label: ">30j"},
		}, WithoutMetric: 3},
		Satisfaction: types.SatisfactionSummary{Good: 2, Bad: 1, Percent: 66.7},
		Types: types.TypeDistribution{
			Counts: map[types.TicketType]int{types.TypeIncident: 1, types.TypeQuestion: 1, types.TypeTask: 1},
			Total:  3,
		},
		Monthly: []types.MonthlyStat{{
			Month:  "2025-01",
			ByType: map[types.TicketType]int{types.TypeIncident: 1, types.TypeQuestion: 1, types.TypeTask: 1},
			Total:  3, Good: 2, Bad: 1, Percent: 66.7,
		}},
	}
}

func TestWrite_AllSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.xlsx")
	require.NoError(t, Write(path, sampleReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SheetTags, SheetReconciliation, SheetFirstReply, SheetResolution,
		SheetSatisfaction, SheetTypes, SheetMonthly, SheetSummary,
	}, f.GetSheetList())

	rows, err := f.GetRows(SheetTags)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tag", "incident", "question", "task", "Total tickets"}, rows[0])
	assert.Equal(t, []string{"com3", "0", "1", "0", "1"}, rows[1])
	assert.Equal(t, []string{"com12", "1", "0", "0", "1"}, rows[2])

	rows, err = f.GetRows(SheetFirstReply)
	require.NoError(t, err)
	assert.Equal(t, []string{"0-1h", "50%", "1"}, rows[1])
	assert.Equal(t, []string{"Without metric", "", "1"}, rows[5])
	assert.Equal(t, []string{"Total", "", "3"}, rows[6])

	rows, err = f.GetRows(SheetReconciliation)
	require.NoError(t, err)
	assert.Equal(t, []string{"task", "0", "1", "1"}, rows[3])
	assert.Equal(t, []string{"Total", "2", "1", "3"}, rows[4])

	v, err := f.GetCellValue(SheetSatisfaction, "B2")
	require.NoError(t, err)
	assert.Equal(t, "66.7%", v)

	v, err = f.GetCellValue(SheetTypes, "B2")
	require.NoError(t, err)
	assert.Equal(t, "1 (33%)", v)

	rows, err = f.GetRows(SheetMonthly)
	require.NoError(t, err)
	assert.Equal(t, []string{"January 2025", "1", "1", "1", "3", "66.7%", "3"}, rows[1])
}

func TestWrite_EmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	rep := types.Report{
		FirstReply: types.LatencyTable{Buckets: []types.LatencyBucket{{Label: "0-1h"}}},
		Resolution: types.LatencyTable{Buckets: []types.LatencyBucket{{Label: "0-5h"}}},
		Summary:    types.RunSummary{Status: types.RunEmpty},
	}
	require.NoError(t, Write(path, rep))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetTags)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	v, err := f.GetCellValue(SheetSatisfaction, "B2")
	require.NoError(t, err)
	assert.Equal(t, "0.0%", v)

	v, err = f.GetCellValue(SheetFirstReply, "B2")
	require.NoError(t, err)
	assert.Equal(t, "0%", v)
}

func TestWrite_SummaryShowsListingError(t *testing.T) {
	rep := sampleReport()
	rep.Summary.Status = types.RunFailed
	rep.Summary.ListingError = "zendesk api error: status=401 body="
	rep.Summary.ResumeCursor = "https://acme.zendesk.com/api/v2/incremental/tickets.json?start_time=0"

	path := filepath.Join(t.TempDir(), "failed.xlsx")
	require.NoError(t, Write(path, rep))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Contains(t, rows, []string{"Listing status", "failed"})
	assert.Contains(t, rows, []string{"Listing error", rep.Summary.ListingError})
	assert.Contains(t, rows, []string{"Resume cursor", rep.Summary.ResumeCursor})
}

func TestWrite_BadPath(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "missing", "dir", "kpi.xlsx"), sampleReport())
	assert.Error(t, err)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "March 2024", MonthLabel("2024-03"))
	assert.Equal(t, "garbage", MonthLabel("garbage"))
}
