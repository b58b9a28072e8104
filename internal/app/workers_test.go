package app

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/internal/repo/repotest"
	"github.com/fieldz/fieldz_backend/internal/service/scheduling"
)

func TestBuildOwnerNotification(t *testing.T) {
	client := repotest.Open(t)
	owner, f := repotest.Club(t, client, "club@example.com", "Terrain 1")
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		event     scheduling.Event
		wantTitle string
		wantBody  string
		wantErr   bool
	}{
		{
			name: "generated",
			event: scheduling.Event{
				Type: scheduling.EventSlotsGenerated, FacilityID: f.ID,
				SlotIDs: []uuid.UUID{uuid.New(), uuid.New()}, Requested: 3, AlreadyExisting: 1, OccurredAt: at,
			},
			wantTitle: "Recurring slots generated",
			wantBody:  "2 of 3 slots created, 1 already existed",
		},
		{
			name: "changed",
			event: scheduling.Event{
				Type: scheduling.EventSlotsChanged, FacilityID: f.ID,
				SlotIDs: []uuid.UUID{uuid.New()}, Status: "booked", OccurredAt: at,
			},
			wantTitle: "Slot updated",
			wantBody:  "1 slot(s) now booked",
		},
		{
			name:    "unknown facility",
			event:   scheduling.Event{Type: scheduling.EventSlotsChanged, FacilityID: f.ID + 100},
			wantErr: true,
		},
		{
			name:    "unknown type",
			event:   scheduling.Event{Type: "slots.exploded", FacilityID: f.ID},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatal(err)
			}
			n, err := buildOwnerNotification(context.Background(), client, data)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildOwnerNotification: %v", err)
			}
			if n.OwnerID != owner.ID || n.FacilityID != f.ID {
				t.Errorf("addressed to %v/%d, want %v/%d", n.OwnerID, n.FacilityID, owner.ID, f.ID)
			}
			if n.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", n.Title, tt.wantTitle)
			}
			if !strings.Contains(n.Body, tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", n.Body, tt.wantBody)
			}
			if !n.At.Equal(at) {
				t.Errorf("at = %v, want %v", n.At, at)
			}
		})
	}
}

func TestBuildOwnerNotificationRejectsGarbage(t *testing.T) {
	client := repotest.Open(t)
	if _, err := buildOwnerNotification(context.Background(), client, []byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
