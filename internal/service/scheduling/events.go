package scheduling

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event types, also the middle part of the NATS subject.
const (
	EventSlotsGenerated = "slots.generated"
	EventSlotsChanged   = "slots.changed"
)

// Event is published after a schedule change has been committed.
type Event struct {
	Type            string      `json:"type"`
	FacilityID      int64       `json:"facility_id"`
	SlotIDs         []uuid.UUID `json:"slot_ids,omitempty"`
	Status          string      `json:"status,omitempty"`
	Requested       int         `json:"requested,omitempty"`
	AlreadyExisting int         `json:"already_existing,omitempty"`
	OccurredAt      time.Time   `json:"occurred_at"`
}

// Subject returns "<prefix>.<type>.<facilityID>".
func Subject(prefix, eventType string, facilityID int64) string {
	return prefix + "." + eventType + "." + strconv.FormatInt(facilityID, 10)
}

// SubjectWildcard matches every facility for eventType.
func SubjectWildcard(prefix, eventType string) string {
	return prefix + "." + eventType + ".*"
}

// Publisher delivers events. Delivery is best effort: the change is already
// committed when Publish is called.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type natsPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNatsPublisher publishes on nc, or drops events when nc is nil.
func NewNatsPublisher(nc *nats.Conn, prefix string) Publisher {
	if nc == nil {
		return NopPublisher{}
	}
	if prefix == "" {
		prefix = "fieldz"
	}
	return &natsPublisher{nc: nc, prefix: prefix}
}

func (p *natsPublisher) Publish(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.ErrorContext(ctx, "scheduling: encode event", "type", e.Type, "error", err)
		return
	}
	subject := Subject(p.prefix, e.Type, e.FacilityID)
	if err := p.nc.Publish(subject, data); err != nil {
		slog.WarnContext(ctx, "scheduling: publish event", "subject", subject, "error", err)
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
