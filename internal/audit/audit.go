// Package audit records authentication events (register, login) with the
// request origin attached. Sinks decide where events land; the default one
// writes through the structured logger.
package audit

import (
	"context"
	"time"

	"auth-api/internal/observability"
)

// Event is a single auditable action.
type Event struct {
	Time      time.Time `json:"time"`
	Action    string    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoopSink drops events.
type NoopSink struct{}

func (NoopSink) Emit(context.Context, Event) {}

// LogSink writes events to the structured logger, one line per event.
type LogSink struct {
	logger *observability.Logger
}

func NewLogSink(logger *observability.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, event Event) {
	s.logger.Info("audit", map[string]any{
		"time":       event.Time.UTC().Format(time.RFC3339Nano),
		"action":     event.Action,
		"user_id":    event.UserID,
		"email":      event.Email,
		"ip":         event.IP,
		"user_agent": event.UserAgent,
		"success":    event.Success,
		"reason":     event.Reason,
	})
}
