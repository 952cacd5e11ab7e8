package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/pkg/log"
	"github.com/firelater/firelater/pkg/metrics"
)

/**
 * @file: service_dispatch.go
 * @description: notification hand-off to the dispatcher collaborator
 */

// ChannelExhausted marks the report sent to the incident collaborator
// when a run finishes all replays unacknowledged.
const ChannelExhausted = "escalation_exhausted"

// Notification is one dispatch request: a concrete user on a concrete
// channel for one fired escalation step.
type Notification struct {
	TenantId    string `json:"tenantId"`
	RunId       string `json:"runId"`
	IncidentRef string `json:"incidentRef"`
	StepNumber  int    `json:"stepNumber"`
	Channel     string `json:"channel"`
	UserId      string `json:"userId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	FiredAt     string `json:"firedAt"`
}

// IDispatcher delivers notifications. The engine only produces dispatch
// requests; actual delivery belongs to the collaborator behind it.
type IDispatcher interface {
	Dispatch(ctx context.Context, n *Notification) error
}

// HTTPDispatcher posts each notification to the configured dispatcher
// endpoint.
type HTTPDispatcher struct {
	client *resty.Client
}

func NewHTTPDispatcher(dispatchURL string) IDispatcher {
	client := resty.New().
		SetBaseURL(dispatchURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTPDispatcher{client: client}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, n *Notification) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(n).
		Post("/api/v1/notifications")
	if err != nil {
		metrics.NotificationsDispatchedTotal.WithLabelValues(n.Channel, "error").Inc()
		return errors.Wrap(err, "dispatch notification")
	}
	if resp.IsError() {
		metrics.NotificationsDispatchedTotal.WithLabelValues(n.Channel, "error").Inc()
		return errors.Errorf("dispatch notification: status %d", resp.StatusCode())
	}
	metrics.NotificationsDispatchedTotal.WithLabelValues(n.Channel, "ok").Inc()
	return nil
}

// LogDispatcher is used when no dispatcher endpoint is configured; it
// records the notification and succeeds. Useful in dev environments.
type LogDispatcher struct{}

func NewLogDispatcher() IDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Dispatch(_ context.Context, n *Notification) error {
	log.Infow("notification (no dispatcher configured)",
		"runId", n.RunId, "incidentRef", n.IncidentRef,
		"step", n.StepNumber, "channel", n.Channel, "userId", n.UserId)
	metrics.NotificationsDispatchedTotal.WithLabelValues(n.Channel, "ok").Inc()
	return nil
}

// NewDispatcher picks the http dispatcher when a url is configured.
func NewDispatcher(dispatchURL string) IDispatcher {
	if dispatchURL == "" {
		return NewLogDispatcher()
	}
	return NewHTTPDispatcher(dispatchURL)
}

// buildNotifications expands one fired step into per-user, per-channel
// dispatch requests.
func buildNotifications(tenantId string, run *model.EscalationRun, step *model.EscalationStep,
	users []*model.User, channels []string, firedAt time.Time) []*Notification {
	if len(channels) == 0 {
		channels = []string{"email"}
	}
	var out []*Notification
	for _, u := range users {
		for _, ch := range channels {
			out = append(out, &Notification{
				TenantId:    tenantId,
				RunId:       run.RunId,
				IncidentRef: run.IncidentRef,
				StepNumber:  step.StepNumber,
				Channel:     ch,
				UserId:      u.UserId,
				Username:    u.Username,
				Email:       u.Email,
				Phone:       u.Phone,
				FiredAt:     firedAt.UTC().Format(time.RFC3339),
			})
		}
	}
	return out
}
