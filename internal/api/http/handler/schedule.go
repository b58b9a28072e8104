package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/internal/api/http/middleware"
	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/internal/service/facility"
	"github.com/fieldz/fieldz_backend/internal/service/scheduling"
	"github.com/fieldz/fieldz_backend/pkg/recurrence"
)

// maxListWindow bounds the from/to window of a slot listing.
const maxListWindow = 93 * 24 * time.Hour

type ScheduleHandler struct {
	svc        scheduling.Service
	facilities facility.Service
}

func NewScheduleHandler(svc scheduling.Service, facilities facility.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, facilities: facilities}
}

// ---------------------------------------------------------------------------
// Slot listing
// ---------------------------------------------------------------------------

// GET /api/v1/facilities/:fid/slots?from=&to=
func (h *ScheduleHandler) ListSlots(c fiber.Ctx) error {
	fid, _ := middleware.FacilityIDFromFiber(c)
	loc := h.svc.Location()

	from := recurrence.DateOf(time.Now().In(loc)).In(loc)
	if v := c.Query("from"); v != "" {
		t, err := parseInstant(v, loc)
		if err != nil {
			return badRequest(c, "invalid from: use RFC 3339 or YYYY-MM-DD")
		}
		from = t
	}
	to := from.AddDate(0, 0, 7)
	if v := c.Query("to"); v != "" {
		t, err := parseInstant(v, loc)
		if err != nil {
			return badRequest(c, "invalid to: use RFC 3339 or YYYY-MM-DD")
		}
		to = t
	}
	if to.Sub(from) > maxListWindow {
		return badRequest(c, "from/to window is too wide")
	}

	slots, err := h.svc.ListSlots(c.Context(), fid, from, to)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, slots)
}

// GET /api/v1/facilities/:fid/calendar?week=YYYY-MM-DD
func (h *ScheduleHandler) Calendar(c fiber.Ctx) error {
	fid, _ := middleware.FacilityIDFromFiber(c)

	day := recurrence.DateOf(time.Now().In(h.svc.Location()))
	if v := c.Query("week"); v != "" {
		d, err := recurrence.ParseDate(v)
		if err != nil {
			return badRequest(c, "invalid week: use YYYY-MM-DD")
		}
		day = d
	}

	cal, err := h.svc.WeekCalendar(c.Context(), fid, day)
	if err != nil {
		return mapScheduleError(c, err)
	}

	days := make([]fiber.Map, 0, len(cal.Days))
	for _, d := range cal.Days {
		days = append(days, fiber.Map{
			"date":    d.Date.String(),
			"weekday": recurrence.WeekdayName(d.Date.Weekday()),
			"slots":   d.Slots,
		})
	}
	return ok(c, fiber.Map{
		"facility_id": cal.FacilityID,
		"week_start":  cal.WeekStart.String(),
		"days":        days,
	})
}

// ---------------------------------------------------------------------------
// Single slots
// ---------------------------------------------------------------------------

// POST /api/v1/facilities/:fid/creneaux
func (h *ScheduleHandler) CreateSlot(c fiber.Ctx) error {
	fid, _ := middleware.FacilityIDFromFiber(c)

	var body struct {
		StartsAt time.Time `json:"starts_at" validate:"required"`
		EndsAt   time.Time `json:"ends_at" validate:"required"`
		Price    float64   `json:"price"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	price, err := recurrence.PriceFromAmount(body.Price)
	if err != nil {
		return badRequest(c, err.Error())
	}

	slot, err := h.svc.CreateSlot(c.Context(), fid, scheduling.CreateSlotRequest{
		StartsAt: body.StartsAt,
		EndsAt:   body.EndsAt,
		Price:    price,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}
	return created(c, slot)
}

// DELETE /api/v1/facilities/:fid/creneaux/:id
func (h *ScheduleHandler) DeleteSlot(c fiber.Ctx) error {
	fid, _ := middleware.FacilityIDFromFiber(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid slot id")
	}

	if err := h.svc.DeleteSlot(c.Context(), fid, id); err != nil {
		return mapScheduleError(c, err)
	}
	return noContent(c)
}

// PATCH /api/v1/facilities/:fid/creneaux/:id/status
func (h *ScheduleHandler) UpdateStatus(c fiber.Ctx) error {
	fid, _ := middleware.FacilityIDFromFiber(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid slot id")
	}

	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	slot, err := h.svc.UpdateSlotStatus(c.Context(), fid, id, repo.SlotStatus(body.Status))
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, slot)
}

// ---------------------------------------------------------------------------
// Recurring generation
// ---------------------------------------------------------------------------

type recurrentBody struct {
	TerrainID     int64   `json:"terrainId" validate:"required,gt=0"`
	JourDeSemaine string  `json:"jourDeSemaine" validate:"required"`
	HeureDebut    string  `json:"heureDebut" validate:"required"`
	DureeMinutes  int     `json:"dureeMinutes"`
	DateDebut     string  `json:"dateDebut" validate:"required"`
	DateFin       string  `json:"dateFin" validate:"required"`
	Prix          float64 `json:"prix"`
}

func (b recurrentBody) request() (scheduling.RecurringRequest, error) {
	day, err := recurrence.ParseWeekday(b.JourDeSemaine)
	if err != nil {
		return scheduling.RecurringRequest{}, err
	}
	start, err := recurrence.ParseClock(b.HeureDebut)
	if err != nil {
		return scheduling.RecurringRequest{}, err
	}
	from, err := recurrence.ParseDate(b.DateDebut)
	if err != nil {
		return scheduling.RecurringRequest{}, fmt.Errorf("dateDebut: %w", err)
	}
	to, err := recurrence.ParseDate(b.DateFin)
	if err != nil {
		return scheduling.RecurringRequest{}, fmt.Errorf("dateFin: %w", err)
	}
	price, err := recurrence.PriceFromAmount(b.Prix)
	if err != nil {
		return scheduling.RecurringRequest{}, err
	}
	return scheduling.RecurringRequest{
		FacilityID:      b.TerrainID,
		DayOfWeek:       day,
		StartTime:       start,
		DurationMinutes: b.DureeMinutes,
		Price:           price,
		RangeStart:      from,
		RangeEnd:        to,
	}, nil
}

// POST /api/v1/creneaux/recurrent
//
// The response is not wrapped in "data": clients read the counters from the
// top level.
func (h *ScheduleHandler) GenerateRecurring(c fiber.Ctx) error {
	var body recurrentBody
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	req, err := body.request()
	if err != nil {
		return mapScheduleError(c, err)
	}

	sess, _ := middleware.SessionFromFiber(c)
	if err := middleware.EnsureFacilityOwner(c.Context(), h.facilities, sess, req.FacilityID); err != nil {
		return middleware.DenyFacility(c, err)
	}

	report, err := h.svc.GenerateRecurring(c.Context(), req)
	if err != nil {
		return mapScheduleError(c, err)
	}

	conflicts := make([]string, 0, len(report.ConflictDates))
	for _, d := range report.ConflictDates {
		conflicts = append(conflicts, d.String())
	}
	return c.JSON(fiber.Map{
		"message":        generationMessage(report),
		"totalDemandes":  report.Requested,
		"totalCrees":     report.Created,
		"dejaExistants":  report.AlreadyExisting,
		"creneauxCrees":  report.CreatedSlotIDs,
		"datesEnConflit": conflicts,
	})
}

func generationMessage(r *scheduling.GenerationReport) string {
	switch {
	case r.Requested == 0:
		return "Aucune date ne correspond au jour choisi dans cette période."
	case r.Created == 0:
		return fmt.Sprintf("Aucun créneau créé : les %d créneaux existent déjà.", r.AlreadyExisting)
	default:
		return fmt.Sprintf("%d créneau(x) créé(s), %d déjà existant(s).", r.Created, r.AlreadyExisting)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// parseInstant accepts RFC 3339 or a bare date, read as midnight in loc.
func parseInstant(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := recurrence.ParseDate(v)
	if err != nil {
		return time.Time{}, err
	}
	return d.In(loc), nil
}

func mapScheduleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, recurrence.ErrInvalidDate):
		return badRequest(c, err.Error())
	case errors.Is(err, recurrence.ErrInvalidRange):
		return badRequest(c, "end date must not be before start date")
	case errors.Is(err, recurrence.ErrInvalidDuration):
		return badRequest(c, "duration must be a positive number of minutes")
	case errors.Is(err, recurrence.ErrInvalidPrice):
		return badRequest(c, "price must be a non-negative number")
	case errors.Is(err, recurrence.ErrInvalidDay),
		errors.Is(err, recurrence.ErrInvalidStartTime),
		errors.Is(err, recurrence.ErrRangeTooLong),
		errors.Is(err, scheduling.ErrInvalidTimeRange),
		errors.Is(err, scheduling.ErrInvalidStatus):
		return badRequest(c, err.Error())
	case errors.Is(err, scheduling.ErrFacilityNotFound),
		errors.Is(err, scheduling.ErrSlotNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, scheduling.ErrOverlappingSlot),
		errors.Is(err, scheduling.ErrSlotNotFree),
		errors.Is(err, scheduling.ErrInvalidTransition):
		return conflict(c, err.Error())
	case errors.Is(err, scheduling.ErrScheduleBusy):
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		return internalError(c, err)
	}
}
