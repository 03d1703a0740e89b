package aggregator

import (
	"math"
	"sort"

	"zendesk-kpi-go/internal/types"
)

// Percent returns part/whole*100 rounded to one decimal, 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// Satisfaction counts good and bad ratings over every ticket, tracked type or
// not. Any other score, or no rating at all, stays out of the ratio.
func Satisfaction(tickets []types.Ticket) types.SatisfactionSummary {
	var s types.SatisfactionSummary
	for _, t := range tickets {
		if score := t.Score(); score.Rated() {
			if score == types.ScoreGood {
				s.Good++
			} else {
				s.Bad++
			}
		}
	}
	s.Percent = Percent(s.Good, s.Good+s.Bad)
	return s
}

// TypeDistribution counts tickets per tracked type; the rest is Unknown.
func TypeDistribution(tickets []types.Ticket) types.TypeDistribution {
	d := types.TypeDistribution{Counts: map[types.TicketType]int{}}
	for _, tt := range types.TrackedTypes {
		d.Counts[tt] = 0
	}
	for _, t := range tickets {
		if !t.Type.IsTracked() {
			d.Unknown++
			continue
		}
		d.Counts[t.Type]++
		d.Total++
	}
	return d
}

// MonthKey is the creation month of a ticket, YYYY-MM in UTC. Satisfaction is
// attributed to the same month as the ticket, not to the rating's own date.
func MonthKey(t types.Ticket) string {
	return t.CreatedAt.UTC().Format("2006-01")
}

// Monthly groups tracked-type tickets by creation month, oldest first.
func Monthly(tickets []types.Ticket) []types.MonthlyStat {
	byMonth := map[string]*types.MonthlyStat{}
	for _, t := range tickets {
		if !t.Type.IsTracked() {
			continue
		}
		key := MonthKey(t)
		m, ok := byMonth[key]
		if !ok {
			m = &types.MonthlyStat{Month: key, ByType: map[types.TicketType]int{}}
			for _, tt := range types.TrackedTypes {
				m.ByType[tt] = 0
			}
			byMonth[key] = m
		}
		m.ByType[t.Type]++
		m.Total++
		if score := t.Score(); score.Rated() {
			if score == types.ScoreGood {
				m.Good++
			} else {
				m.Bad++
			}
		}
	}

	out := make([]types.MonthlyStat, 0, len(byMonth))
	for _, m := range byMonth {
		m.Percent = Percent(m.Good, m.Ratings())
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
