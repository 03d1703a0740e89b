package dataset

import "zendesk-kpi-go/internal/types"

// TicketSet is the normalized ticket population of one run.
type TicketSet struct {
	Tickets    []types.Ticket
	ByID       map[int64]types.Ticket
	Duplicates int
}

// FoldType maps problem onto incident and leaves every other value alone.
// Applying it twice is the same as applying it once.
func FoldType(t types.TicketType) types.TicketType {
	if t == types.TypeProblem {
		return types.TypeIncident
	}
	return t
}

// Normalize folds ticket types in place and indexes the tickets by id.
// The export can repeat a ticket that was updated between pages: the last
// copy wins and keeps the position of the first.
func Normalize(raw []types.Ticket) TicketSet {
	set := TicketSet{ByID: make(map[int64]types.Ticket, len(raw))}
	pos := make(map[int64]int, len(raw))

	for i := range raw {
		raw[i].Type = FoldType(raw[i].Type)
		t := raw[i]
		if at, ok := pos[t.ID]; ok {
			set.Tickets[at] = t
			set.Duplicates++
		} else {
			pos[t.ID] = len(set.Tickets)
			set.Tickets = append(set.Tickets, t)
		}
		set.ByID[t.ID] = t
	}
	return set
}

// IDs returns the ticket ids in ingestion order.
func (s TicketSet) IDs() []int64 {
	ids := make([]int64, len(s.Tickets))
	for i, t := range s.Tickets {
		ids[i] = t.ID
	}
	return ids
}

// Tracked returns the tickets whose type enters typed aggregates.
func (s TicketSet) Tracked() []types.Ticket {
	var out []types.Ticket
	for _, t := range s.Tickets {
		if t.Type.IsTracked() {
			out = append(out, t)
		}
	}
	return out
}
