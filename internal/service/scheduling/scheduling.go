package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/pkg/observability"
	"github.com/fieldz/fieldz_backend/pkg/recurrence"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateSlotRequest struct {
	StartsAt time.Time
	EndsAt   time.Time
	Price    int64
}

// RecurringRequest asks for one slot on every DayOfWeek between RangeStart
// and RangeEnd (both inclusive) of a facility.
type RecurringRequest struct {
	FacilityID      int64
	DayOfWeek       time.Weekday
	StartTime       recurrence.Clock
	DurationMinutes int
	Price           int64
	RangeStart      recurrence.Date
	RangeEnd        recurrence.Date
}

// GenerationReport summarizes a GenerateRecurring call. Requested is always
// Created + AlreadyExisting.
type GenerationReport struct {
	Requested       int
	Created         int
	AlreadyExisting int
	CreatedSlotIDs  []uuid.UUID
	ConflictDates   []recurrence.Date
}

type CalendarDay struct {
	Date  recurrence.Date
	Slots []*repo.Slot
}

// WeekCalendar is a Monday-based week of slots in the facility time zone.
type WeekCalendar struct {
	FacilityID int64
	WeekStart  recurrence.Date
	Days       [7]CalendarDay
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Slot management
	ListSlots(ctx context.Context, facilityID int64, from, to time.Time) ([]*repo.Slot, error)
	CreateSlot(ctx context.Context, facilityID int64, req CreateSlotRequest) (*repo.Slot, error)
	DeleteSlot(ctx context.Context, facilityID int64, slotID uuid.UUID) error
	UpdateSlotStatus(ctx context.Context, facilityID int64, slotID uuid.UUID, status repo.SlotStatus) (*repo.Slot, error)

	// Recurring generation
	GenerateRecurring(ctx context.Context, req RecurringRequest) (*GenerationReport, error)

	WeekCalendar(ctx context.Context, facilityID int64, day recurrence.Date) (*WeekCalendar, error)

	// Location is the time zone slots are materialized in.
	Location() *time.Location
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type Option func(*schedulingService)

func WithLocker(l Locker) Option {
	return func(s *schedulingService) { s.locker = l }
}

func WithPublisher(p Publisher) Option {
	return func(s *schedulingService) { s.pub = p }
}

func WithMetrics(m *observability.SchedulingMetrics) Option {
	return func(s *schedulingService) { s.metrics = m }
}

func WithLocation(loc *time.Location) Option {
	return func(s *schedulingService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLimits(lim recurrence.Limits) Option {
	return func(s *schedulingService) { s.limits = lim }
}

// DefaultMaxRangeDays caps a recurring request at about two years.
const DefaultMaxRangeDays = 731

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	db      *repo.Client
	locker  Locker
	pub     Publisher
	metrics *observability.SchedulingMetrics
	loc     *time.Location
	limits  recurrence.Limits
	now     func() time.Time
}

func New(db *repo.Client, opts ...Option) Service {
	s := &schedulingService{
		db:     db,
		locker: NewLocalLocker(5 * time.Second),
		pub:    NopPublisher{},
		loc:    time.UTC,
		limits: recurrence.Limits{MaxRangeDays: DefaultMaxRangeDays},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *schedulingService) Location() *time.Location { return s.loc }

func (s *schedulingService) ListSlots(ctx context.Context, facilityID int64, from, to time.Time) ([]*repo.Slot, error) {
	if !to.After(from) {
		return nil, ErrInvalidTimeRange
	}
	if _, err := s.db.Facility.Get(ctx, facilityID); err != nil {
		return nil, facilityErr(err)
	}
	slots, err := s.db.Slot.ListStartingBetween(ctx, facilityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return s.localize(slots), nil
}

func (s *schedulingService) CreateSlot(ctx context.Context, facilityID int64, req CreateSlotRequest) (*repo.Slot, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidTimeRange
	}
	if req.Price < 0 {
		return nil, recurrence.ErrInvalidPrice
	}

	var created *repo.Slot
	err := s.locked(ctx, facilityID, func(tx *repo.Tx) error {
		clash, err := tx.Slot.FindByFacilityAndRange(ctx, facilityID, req.StartsAt, req.EndsAt)
		if err != nil {
			return fmt.Errorf("%w: load slots: %w", ErrPersistence, err)
		}
		if len(clash) > 0 {
			return ErrOverlappingSlot
		}
		created, err = tx.Slot.Create(ctx, &repo.Slot{
			FacilityID: facilityID,
			StartsAt:   req.StartsAt,
			EndsAt:     req.EndsAt,
			Price:      req.Price,
			Status:     repo.SlotStatusFree,
		})
		if err != nil {
			return fmt.Errorf("%w: create slot: %w", ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pub.Publish(ctx, Event{
		Type:       EventSlotsChanged,
		FacilityID: facilityID,
		SlotIDs:    []uuid.UUID{created.ID},
		Status:     string(created.Status),
		OccurredAt: s.now().UTC(),
	})
	return s.localize([]*repo.Slot{created})[0], nil
}

func (s *schedulingService) DeleteSlot(ctx context.Context, facilityID int64, slotID uuid.UUID) error {
	err := s.locked(ctx, facilityID, func(tx *repo.Tx) error {
		slot, err := tx.Slot.Get(ctx, facilityID, slotID)
		if err != nil {
			return slotErr(err)
		}
		if slot.Status != repo.SlotStatusFree {
			return ErrSlotNotFree
		}
		if err := tx.Slot.Delete(ctx, facilityID, slotID); err != nil {
			return slotErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.pub.Publish(ctx, Event{
		Type:       EventSlotsChanged,
		FacilityID: facilityID,
		SlotIDs:    []uuid.UUID{slotID},
		Status:     "deleted",
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// transitions lists the statuses reachable from each status.
var transitions = map[repo.SlotStatus][]repo.SlotStatus{
	repo.SlotStatusFree:                {repo.SlotStatusBooked},
	repo.SlotStatusBooked:              {repo.SlotStatusConfirmed, repo.SlotStatusCancelledByPlayer, repo.SlotStatusCancelledByFacility},
	repo.SlotStatusConfirmed:           {repo.SlotStatusCancelledByPlayer, repo.SlotStatusCancelledByFacility},
	repo.SlotStatusCancelledByPlayer:   {repo.SlotStatusFree},
	repo.SlotStatusCancelledByFacility: {repo.SlotStatusFree},
}

// CanTransition reports whether a slot may move from one status to another.
func CanTransition(from, to repo.SlotStatus) bool {
	return slices.Contains(transitions[from], to)
}

func (s *schedulingService) UpdateSlotStatus(ctx context.Context, facilityID int64, slotID uuid.UUID, status repo.SlotStatus) (*repo.Slot, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var slot *repo.Slot
	err := s.locked(ctx, facilityID, func(tx *repo.Tx) error {
		var err error
		slot, err = tx.Slot.Get(ctx, facilityID, slotID)
		if err != nil {
			return slotErr(err)
		}
		if !CanTransition(slot.Status, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, slot.Status, status)
		}
		if err := tx.Slot.UpdateStatus(ctx, facilityID, slotID, status); err != nil {
			return slotErr(err)
		}
		slot.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pub.Publish(ctx, Event{
		Type:       EventSlotsChanged,
		FacilityID: facilityID,
		SlotIDs:    []uuid.UUID{slotID},
		Status:     string(status),
		OccurredAt: s.now().UTC(),
	})
	return s.localize([]*repo.Slot{slot})[0], nil
}

// GenerateRecurring materializes a weekly rule for one facility. Occurrences
// that collide with an existing slot, or with one created earlier in the same
// call, are skipped and reported. The inserts are all-or-nothing.
func (s *schedulingService) GenerateRecurring(ctx context.Context, req RecurringRequest) (*GenerationReport, error) {
	rule := recurrence.Rule{
		DayOfWeek:       req.DayOfWeek,
		Start:           req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		RangeStart:      req.RangeStart,
		RangeEnd:        req.RangeEnd,
		Location:        s.loc,
	}
	if err := recurrence.Validate(rule, s.limits); err != nil {
		return nil, err
	}

	started := time.Now()
	var report *GenerationReport
	err := s.locked(ctx, req.FacilityID, func(tx *repo.Tx) error {
		var existing []recurrence.Busy
		if w, ok := recurrence.Window(rule); ok {
			slots, err := tx.Slot.FindByFacilityAndRange(ctx, req.FacilityID, w.Start, w.End)
			if err != nil {
				return fmt.Errorf("%w: load existing slots: %w", ErrPersistence, err)
			}
			existing = busyFrom(slots)
		}

		plan, err := recurrence.Compute(rule, existing, s.limits)
		if err != nil {
			return err
		}

		r := &GenerationReport{
			Requested:       plan.Requested,
			AlreadyExisting: plan.AlreadyExisting(),
			CreatedSlotIDs:  make([]uuid.UUID, 0, len(plan.Accepted)),
		}
		for _, c := range plan.Accepted {
			slot, err := tx.Slot.Create(ctx, &repo.Slot{
				FacilityID: req.FacilityID,
				StartsAt:   c.Start,
				EndsAt:     c.End,
				Price:      rule.Price,
				Status:     repo.SlotStatusFree,
			})
			if err != nil {
				return fmt.Errorf("%w: insert slot on %s: %w", ErrPersistence, c.Date, err)
			}
			r.CreatedSlotIDs = append(r.CreatedSlotIDs, slot.ID)
		}
		r.Created = len(r.CreatedSlotIDs)
		for _, c := range plan.Conflicts {
			r.ConflictDates = append(r.ConflictDates, c.Date)
		}
		report = r
		return nil
	})

	took := time.Since(started)
	if err != nil {
		s.metrics.RecordRun(ctx, req.FacilityID, 0, 0, took, err)
		slog.ErrorContext(ctx, "scheduling: recurring generation failed",
			"facility_id", req.FacilityID,
			"day", recurrence.WeekdayName(req.DayOfWeek),
			"error", err,
		)
		return nil, err
	}
	s.metrics.RecordRun(ctx, req.FacilityID, report.Created, report.AlreadyExisting, took, nil)

	s.pub.Publish(ctx, Event{
		Type:            EventSlotsGenerated,
		FacilityID:      req.FacilityID,
		SlotIDs:         report.CreatedSlotIDs,
		Requested:       report.Requested,
		AlreadyExisting: report.AlreadyExisting,
		OccurredAt:      s.now().UTC(),
	})
	slog.InfoContext(ctx, "scheduling: recurring slots generated",
		"facility_id", req.FacilityID,
		"requested", report.Requested,
		"created", report.Created,
		"already_existing", report.AlreadyExisting,
	)
	return report, nil
}

func (s *schedulingService) WeekCalendar(ctx context.Context, facilityID int64, day recurrence.Date) (*WeekCalendar, error) {
	monday := day.AddDays(-((int(day.Weekday()) + 6) % 7))
	slots, err := s.ListSlots(ctx, facilityID, monday.In(s.loc), monday.AddDays(7).In(s.loc))
	if err != nil {
		return nil, err
	}

	cal := &WeekCalendar{FacilityID: facilityID, WeekStart: monday}
	for i := range cal.Days {
		cal.Days[i].Date = monday.AddDays(i)
		cal.Days[i].Slots = []*repo.Slot{}
	}
	for _, sl := range slots {
		i := monday.DaysUntil(recurrence.DateOf(sl.StartsAt))
		if i < 0 || i >= len(cal.Days) {
			continue
		}
		cal.Days[i].Slots = append(cal.Days[i].Slots, sl)
	}
	return cal, nil
}

// locked runs fn in a transaction while holding the facility lock. The
// facility row is read first so an unknown id fails before any write.
func (s *schedulingService) locked(ctx context.Context, facilityID int64, fn func(tx *repo.Tx) error) error {
	unlock, err := s.locker.Lock(ctx, facilityID)
	if err != nil {
		return err
	}
	defer unlock()

	err = repo.WithTx(ctx, s.db, func(tx *repo.Tx) error {
		if _, err := tx.Facility.GetForUpdate(ctx, facilityID); err != nil {
			return facilityErr(err)
		}
		return fn(tx)
	})
	if err != nil && !isDomainErr(err) {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return err
}

func (s *schedulingService) localize(slots []*repo.Slot) []*repo.Slot {
	for _, sl := range slots {
		sl.StartsAt = sl.StartsAt.In(s.loc)
		sl.EndsAt = sl.EndsAt.In(s.loc)
	}
	return slots
}

func busyFrom(slots []*repo.Slot) []recurrence.Busy {
	out := make([]recurrence.Busy, 0, len(slots))
	for _, sl := range slots {
		out = append(out, recurrence.Busy{
			Ref:      sl.ID.String(),
			Interval: recurrence.Interval{Start: sl.StartsAt, End: sl.EndsAt},
		})
	}
	return out
}

func facilityErr(err error) error {
	if repo.IsNotFound(err) {
		return ErrFacilityNotFound
	}
	return fmt.Errorf("%w: load facility: %w", ErrPersistence, err)
}

func slotErr(err error) error {
	if repo.IsNotFound(err) {
		return ErrSlotNotFound
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

var domainErrs = []error{
	ErrSlotNotFound, ErrSlotNotFree, ErrOverlappingSlot, ErrInvalidTimeRange,
	ErrInvalidStatus, ErrInvalidTransition, ErrFacilityNotFound, ErrPersistence,
	ErrScheduleBusy,
	recurrence.ErrInvalidRange, recurrence.ErrInvalidDuration, recurrence.ErrInvalidPrice,
	recurrence.ErrInvalidDay, recurrence.ErrInvalidStartTime, recurrence.ErrRangeTooLong,
}

func isDomainErr(err error) bool {
	for _, target := range domainErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
