package aggregator

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"zendesk-kpi-go/internal/types"
)

var tagNumber = regexp.MustCompile(`\d+`)

// Tags counts the tags starting with prefix on tracked-type tickets and
// reconciles tagged against untagged tickets per type.
func Tags(tickets []types.Ticket, prefix string) types.TagReport {
	stats := map[string]*types.TagStat{}
	tagged := map[types.TicketType]map[int64]bool{}
	byType := map[types.TicketType]int{}

	for _, t := range tickets {
		if !t.Type.IsTracked() {
			continue
		}
		byType[t.Type]++
		for _, tag := range t.Tags {
			if !strings.HasPrefix(tag, prefix) {
				continue
			}
			s, ok := stats[tag]
			if !ok {
				s = &types.TagStat{Tag: tag, ByType: map[types.TicketType]int{}}
				stats[tag] = s
			}
			s.ByType[t.Type]++
			s.Total++
			if tagged[t.Type] == nil {
				tagged[t.Type] = map[int64]bool{}
			}
			tagged[t.Type][t.ID] = true
		}
	}

	out := types.TagReport{Prefix: prefix, Tags: make([]types.TagStat, 0, len(stats))}
	for _, s := range stats {
		out.Tags = append(out.Tags, *s)
	}
	SortTags(out.Tags, prefix)

	rec := types.Reconciliation{
		Tagged:        map[types.TicketType]int{},
		Untagged:      map[types.TicketType]int{},
		TicketsByType: map[types.TicketType]int{},
	}
	for _, tt := range types.TrackedTypes {
		n := len(tagged[tt])
		rec.Tagged[tt] = n
		rec.Untagged[tt] = byType[tt] - n
		rec.TicketsByType[tt] = byType[tt]
		rec.TaggedTotal += n
		rec.UntaggedTotal += byType[tt] - n
		rec.TotalTickets += byType[tt]
	}
	out.Reconciliation = rec
	return out
}

// TagNumber extracts the first number after prefix in tag ("com12" is 12).
// Tags without one report false and sort after every numbered tag.
func TagNumber(tag, prefix string) (int, bool) {
	m := tagNumber.FindString(strings.TrimPrefix(tag, prefix))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return math.MaxInt, true
	}
	return n, true
}

// SortTags orders by numeric suffix, unnumbered tags last, ties by name.
func SortTags(tags []types.TagStat, prefix string) {
	sort.SliceStable(tags, func(i, j int) bool {
		ni, oki := TagNumber(tags[i].Tag, prefix)
		nj, okj := TagNumber(tags[j].Tag, prefix)
		if oki != okj {
			return oki
		}
		if oki && ni != nj {
			return ni < nj
		}
		return tags[i].Tag < tags[j].Tag
	})
}
