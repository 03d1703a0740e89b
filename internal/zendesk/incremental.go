package zendesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"zendesk-kpi-go/internal/types"
)

type ticketPage struct {
	Tickets     []json.RawMessage `json:"tickets"`
	NextPage    string            `json:"next_page"`
	AfterURL    string            `json:"after_url"`
	EndOfStream bool              `json:"end_of_stream"`
}

type ticketPayload struct {
	ID                 int64           `json:"id"`
	Type               *string         `json:"type"`
	CreatedAt          string          `json:"created_at"`
	Tags               []string        `json:"tags"`
	SatisfactionRating json.RawMessage `json:"satisfaction_rating"`
}

type satisfactionPayload struct {
	Score     string `json:"score"`
	CreatedAt string `json:"created_at"`
}

// Listing is what the incremental export produced. When the fetch aborted
// early Err is set and Cursor holds the page that failed, so an operator can
// resume from it; Tickets still holds everything accumulated before.
type Listing struct {
	Tickets []types.Ticket
	Pages   int
	Skipped int
	Cursor  string
	Err     error
}

// Partial reports whether the listing stopped before the end of stream.
func (l Listing) Partial() bool {
	return l.Err != nil
}

// FetchTickets walks the incremental export from start and keeps the tickets
// created within [start, end]. The API bounds only the lower side, the upper
// bound is enforced here.
func (c *Client) FetchTickets(ctx context.Context, start, end time.Time) Listing {
	first := fmt.Sprintf("%s/api/v2/incremental/tickets.json?start_time=%d", c.opts.BaseURL, start.Unix())
	return c.fetchTicketsFrom(ctx, first, start, end)
}

// fetchTicketsFrom walks the export starting at cursor. A 429 suspends the
// walk for the advised duration and retries the same page for as long as the
// server keeps asking. Any other failure ends the walk with partial results.
func (c *Client) fetchTicketsFrom(ctx context.Context, cursor string, start, end time.Time) Listing {
	log := c.log.WithField("phase", "listing")
	var out Listing
	seen := map[string]bool{}

	for cursor != "" {
		if seen[cursor] {
			log.WithField("cursor", cursor).Warn("cursor repeated, treating as end of stream")
			break
		}
		seen[cursor] = true

		page, err := c.fetchPage(ctx, cursor, log)
		if err != nil {
			log.WithField("cursor", cursor).WithField("error", err.Error()).Error("listing aborted, keeping partial results")
			out.Cursor = cursor
			out.Err = err
			return out
		}
		out.Pages++

		kept := 0
		for _, raw := range page.Tickets {
			t, err := decodeTicket(raw)
			if err != nil {
				out.Skipped++
				log.WithField("error", err.Error()).Warn("skipping undecodable ticket")
				continue
			}
			if t.CreatedAt.Before(start) || t.CreatedAt.After(end) {
				continue
			}
			out.Tickets = append(out.Tickets, t)
			kept++
		}
		log.WithFields(logrus.Fields{
			"page":     out.Pages,
			"received": len(page.Tickets),
			"kept":     kept,
			"total":    len(out.Tickets),
		}).Debug("page fetched")

		if page.EndOfStream {
			break
		}
		cursor = page.next()
	}
	return out
}

func (p ticketPage) next() string {
	if p.NextPage != "" {
		return p.NextPage
	}
	return p.AfterURL
}

func (c *Client) fetchPage(ctx context.Context, url string, log *logrus.Entry) (ticketPage, error) {
	var page ticketPage
	bo := newAdvisoryBackOff(c.opts.ListRetryAfter)

	op := func() error {
		page = ticketPage{}
		err := c.getJSON(ctx, url, c.opts.ListTimeout, &page)
		if err == nil {
			return nil
		}
		var rl *RateLimitError
		if errors.As(err, &rl) {
			bo.advise(rl.Wait(c.opts.ListRetryAfter))
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		log.WithField("wait", wait.String()).Warn("rate limit reached, pausing listing")
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return ticketPage{}, err
	}
	return page, nil
}

// decodeTicket validates one raw ticket object. Only the id and creation
// time are required; anything else that is missing or malformed is absent.
func decodeTicket(raw json.RawMessage) (types.Ticket, error) {
	var p ticketPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return types.Ticket{}, fmt.Errorf("decode ticket: %w", err)
	}
	if p.ID <= 0 {
		return types.Ticket{}, fmt.Errorf("ticket without id")
	}
	created, err := time.Parse(time.RFC3339, p.CreatedAt)
	if err != nil {
		return types.Ticket{}, fmt.Errorf("ticket %d: created_at: %w", p.ID, err)
	}

	t := types.Ticket{
		ID:        p.ID,
		CreatedAt: created.UTC(),
		Tags:      p.Tags,
	}
	if p.Type != nil {
		t.Type = types.TicketType(strings.ToLower(strings.TrimSpace(*p.Type)))
	}
	t.Satisfaction = decodeSatisfaction(p.SatisfactionRating)
	return t, nil
}

func decodeSatisfaction(raw json.RawMessage) *types.SatisfactionRating {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s satisfactionPayload
	if err := json.Unmarshal(raw, &s); err != nil || s.Score == "" {
		return nil
	}
	r := &types.SatisfactionRating{Score: types.SatisfactionScore(strings.ToLower(s.Score))}
	if at, err := time.Parse(time.RFC3339, s.CreatedAt); err == nil {
		at = at.UTC()
		r.CreatedAt = &at
	}
	return r
}
