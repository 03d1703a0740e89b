package zendesk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"zendesk-kpi-go/internal/types"
)

type minutesPayload struct {
	Calendar *int `json:"calendar"`
}

type metricEnvelope struct {
	TicketMetric *struct {
		TicketID                    int64           `json:"ticket_id"`
		ReplyTimeInMinutes          *minutesPayload `json:"reply_time_in_minutes"`
		FullResolutionTimeInMinutes *minutesPayload `json:"full_resolution_time_in_minutes"`
	} `json:"ticket_metric"`
}

func (m *minutesPayload) calendar() *int {
	if m == nil {
		return nil
	}
	return m.Calendar
}

// FetchMetric retrieves the timing metrics of one ticket. A 429 waits the
// advised duration, any other failure waits the fixed backoff; both retry the
// same ticket until the attempt budget is spent, then the last error is
// returned and the ticket has no metric.
func (c *Client) FetchMetric(ctx context.Context, ticketID int64) (*types.MetricRecord, error) {
	url := fmt.Sprintf("%s/api/v2/tickets/%d/metrics.json", c.opts.BaseURL, ticketID)
	log := c.log.WithFields(logrus.Fields{"phase": "metrics", "ticket_id": ticketID})

	var rec *types.MetricRecord
	attempt := 0
	bo := newAdvisoryBackOff(c.opts.MetricBackoff)
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.opts.MetricAttempts-1)), ctx)

	op := func() error {
		attempt++
		var env metricEnvelope
		err := c.getJSON(ctx, url, c.opts.MetricTimeout, &env)
		if err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) {
				bo.advise(rl.Wait(c.opts.MetricRetryAfter))
			}
			return err
		}
		rec = &types.MetricRecord{TicketID: ticketID}
		if env.TicketMetric != nil {
			rec.FirstReplyMinutes = env.TicketMetric.ReplyTimeInMinutes.calendar()
			rec.FullResolutionMinutes = env.TicketMetric.FullResolutionTimeInMinutes.calendar()
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		}).Debug("metric fetch failed, retrying")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, fmt.Errorf("ticket %d metrics after %d attempts: %w", ticketID, attempt, err)
	}
	return rec, nil
}
