package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/fieldz/fieldz_backend/config"
	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/internal/service/scheduling"
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg *config.Config
	NC  *nats.Conn `optional:"true"`
	DB  *repo.Client
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		return
	}
	var subs []*nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			subs, err = startNotificationWorker(p.NC, p.DB, p.Cfg.Nats.SubjectPrefix)
			return err
		},
		OnStop: func(ctx context.Context) error {
			// The connection itself is drained by ProvideNatsClient
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

// OwnerNotification is what the facility owner is told about a schedule
// change. Delivery channels (push, mail) consume it downstream.
type OwnerNotification struct {
	OwnerID    uuid.UUID
	FacilityID int64
	Facility   string
	Title      string
	Body       string
	At         time.Time
}

func startNotificationWorker(nc *nats.Conn, db *repo.Client, prefix string) ([]*nats.Subscription, error) {
	if prefix == "" {
		prefix = "fieldz"
	}

	var subs []*nats.Subscription
	for _, eventType := range []string{scheduling.EventSlotsGenerated, scheduling.EventSlotsChanged} {
		subject := scheduling.SubjectWildcard(prefix, eventType)
		sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			n, err := buildOwnerNotification(ctx, db, msg.Data)
			if err != nil {
				slog.Warn("notification_worker: dropped event", "subject", msg.Subject, "error", err)
				return
			}
			slog.Info("notification_worker: owner notified",
				"owner_id", n.OwnerID,
				"facility_id", n.FacilityID,
				"title", n.Title,
				"body", n.Body,
			)
		})
		if err != nil {
			slog.Error("notification_worker: subscribe failed", "subject", subject, "error", err)
			return subs, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}

	slog.Info("notification_worker: started", "prefix", prefix)
	return subs, nil
}

func buildOwnerNotification(ctx context.Context, db *repo.Client, data []byte) (*OwnerNotification, error) {
	var ev scheduling.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	f, err := db.Facility.Get(ctx, ev.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("load facility %d: %w", ev.FacilityID, err)
	}

	n := &OwnerNotification{
		OwnerID:    f.OwnerID,
		FacilityID: f.ID,
		Facility:   f.Name,
		At:         ev.OccurredAt,
	}
	switch ev.Type {
	case scheduling.EventSlotsGenerated:
		n.Title = "Recurring slots generated"
		n.Body = fmt.Sprintf("%s: %d of %d slots created, %d already existed",
			f.Name, len(ev.SlotIDs), ev.Requested, ev.AlreadyExisting)
	case scheduling.EventSlotsChanged:
		n.Title = "Slot updated"
		n.Body = fmt.Sprintf("%s: %d slot(s) now %s", f.Name, len(ev.SlotIDs), ev.Status)
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return n, nil
}
