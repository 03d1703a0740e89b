package types

import "time"

type TicketType string

const (
	TypeIncident TicketType = "incident"
	TypeQuestion TicketType = "question"
	TypeTask     TicketType = "task"
	TypeProblem  TicketType = "problem"
)

// TrackedTypes is the reporting order of the types that enter typed aggregates.
var TrackedTypes = []TicketType{TypeIncident, TypeQuestion, TypeTask}

// IsTracked reports whether t takes part in typed aggregates. Problem is not
// tracked on its own: it is folded into incident by the normalizer.
func (t TicketType) IsTracked() bool {
	switch t {
	case TypeIncident, TypeQuestion, TypeTask:
		return true
	}
	return false
}

type SatisfactionScore string

const (
	ScoreGood SatisfactionScore = "good"
	ScoreBad  SatisfactionScore = "bad"
)

// Rated reports whether the score counts toward satisfaction ratios.
func (s SatisfactionScore) Rated() bool {
	return s == ScoreGood || s == ScoreBad
}

type SatisfactionRating struct {
	Score     SatisfactionScore `json:"score"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
}

type Ticket struct {
	ID           int64               `json:"id"`
	Type         TicketType          `json:"type"`
	CreatedAt    time.Time           `json:"created_at"`
	Tags         []string            `json:"tags,omitempty"`
	Satisfaction *SatisfactionRating `json:"satisfaction_rating,omitempty"`
}

// Score returns the satisfaction score or "" when the ticket carries none.
func (t Ticket) Score() SatisfactionScore {
	if t.Satisfaction == nil {
		return ""
	}
	return t.Satisfaction.Score
}

// MetricRecord holds the per-ticket timings, in calendar minutes.
// A nil field means the helpdesk did not report that value.
type MetricRecord struct {
	TicketID              int64 `json:"ticket_id"`
	FirstReplyMinutes     *int  `json:"first_reply_minutes,omitempty"`
	FullResolutionMinutes *int  `json:"full_resolution_minutes,omitempty"`
}
