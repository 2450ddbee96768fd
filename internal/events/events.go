// Package events fans out assignment changes to other services over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subject suffixes, appended to the configured prefix.
const (
	SubjectPlanProposed  = "assignments.proposed"
	SubjectStatusChanged = "assignments.status"
)

// PlanProposed is published after an optimization run commits.
type PlanProposed struct {
	RunID       uuid.UUID `json:"runId"`
	Strategy    string    `json:"strategy"`
	Assigned    int       `json:"assigned"`
	Unassigned  int       `json:"unassigned"`
	Objective   float64   `json:"objective"`
	Fingerprint string    `json:"fingerprint"`
	At          time.Time `json:"at"`
}

// StatusChanged is published when a supervisor accepts or rejects an assignment.
type StatusChanged struct {
	AssignmentID int64     `json:"assignmentId"`
	WorkerID     string    `json:"workerId"`
	TaskID       int64     `json:"taskId"`
	Status       string    `json:"status"`
	At           time.Time `json:"at"`
}

// Publisher delivers events. Delivery is best-effort: callers log failures
// but never roll back committed work because of them.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
	Close()
}

// NATSPublisher publishes JSON events on core NATS subjects.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// Connect dials url and returns a publisher for subjects under prefix.
func Connect(url, prefix string, log *slog.Logger) (*NATSPublisher, error) {
	if log == nil {
		log = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("wmsopt-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSPublisher{nc: nc, prefix: prefix}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}
	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}
	return p.nc.Publish(full, data)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.nc.Drain()
}

// NopPublisher drops all events. It is used when no NATS URL is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() {}
