package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldz/fieldz_backend/config"
	"github.com/fieldz/fieldz_backend/internal/api/http/handler"
	"github.com/fieldz/fieldz_backend/internal/api/http/middleware"
	"github.com/fieldz/fieldz_backend/internal/api/http/router"
	"github.com/fieldz/fieldz_backend/internal/repo/repotest"
	"github.com/fieldz/fieldz_backend/internal/service/auth"
	"github.com/fieldz/fieldz_backend/internal/service/facility"
	"github.com/fieldz/fieldz_backend/internal/service/scheduling"
	"github.com/fieldz/fieldz_backend/internal/service/user"
	"github.com/fieldz/fieldz_backend/pkg/authorize"
	pasetotoken "github.com/fieldz/fieldz_backend/pkg/paseto"
	"github.com/fieldz/fieldz_backend/pkg/util/password"
)

var fastParams = password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	client := repotest.Open(t)

	keys := pasetotoken.NewLocalKeys()
	pm, err := pasetotoken.New(pasetotoken.Config{Mode: keys.Mode, Issuer: "fieldz", Audience: "fieldz-clients"}, keys)
	require.NoError(t, err)
	hasher := password.NewHasher(fastParams)

	enforcer, err := authorize.NewEnforcer(authorize.Config{})
	require.NoError(t, err)
	az, err := authorize.NewAuthorization(enforcer)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(context.Background(), az))

	r := router.NewRouter(router.Params{
		Cfg:           &config.Config{},
		Auth:          az,
		DB:            client,
		UserSvc:       user.New(client, hasher),
		AuthSvc:       auth.New(client, auth.NewMemorySessions(), pm, hasher),
		FacilitySvc:   facility.New(client),
		SchedulingSvc: scheduling.New(client, scheduling.WithLocation(time.UTC)),
	})

	app := fiber.New(fiber.Config{
		ErrorHandler:    handler.ErrorHandler,
		StructValidator: handler.NewStructValidator(),
	})
	app.Use(middleware.RequestID())
	r.Register(app)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "no data object in %v", body)
	return d
}

// signUp registers and logs in an account, returning its access token.
func signUp(t *testing.T, app *fiber.App, email, role string) string {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": email, "password": "correct horse", "full_name": "Test", "role": role,
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": email, "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, status, body)
	tok, _ := data(t, body)["access_token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func createFacility(t *testing.T, app *fiber.App, token, name string) int64 {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/v1/facilities", token, map[string]any{"name": name, "sport": "football"})
	require.Equal(t, http.StatusCreated, status, body)
	id, _ := data(t, body)["id"].(float64)
	require.NotZero(t, id)
	return int64(id)
}

func recurrent(fid int64, from, to string) map[string]any {
	return map[string]any{
		"terrainId":     fid,
		"jourDeSemaine": "MONDAY",
		"heureDebut":    "18:00",
		"dureeMinutes":  90,
		"dateDebut":     from,
		"dateFin":       to,
		"prix":          2500.5,
	}
}

func TestRecurrentEndpoint(t *testing.T) {
	app := newApp(t)
	club := signUp(t, app, "club@example.com", "club")
	fid := createFacility(t, app, club, "Terrain 1")

	// January 2024 has five Mondays
	status, body := call(t, app, http.MethodPost, "/api/v1/creneaux/recurrent", club, recurrent(fid, "2024-01-01", "2024-01-31"))
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 5, body["totalDemandes"])
	assert.EqualValues(t, 5, body["totalCrees"])
	assert.EqualValues(t, 0, body["dejaExistants"])
	assert.NotEmpty(t, body["message"])
	assert.Len(t, body["creneauxCrees"], 5)
	assert.Empty(t, body["datesEnConflit"])

	// same rule again: everything already exists
	status, body = call(t, app, http.MethodPost, "/api/v1/creneaux/recurrent", club, recurrent(fid, "2024-01-01", "2024-01-31"))
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 5, body["totalDemandes"])
	assert.EqualValues(t, 0, body["totalCrees"])
	assert.EqualValues(t, 5, body["dejaExistants"])
	assert.Equal(t, []any{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29"}, body["datesEnConflit"])

	// slots are visible to players
	player := signUp(t, app, "player@example.com", "player")
	status, body = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/facilities/%d/slots?from=2024-01-01&to=2024-02-01", fid), player, nil)
	require.Equal(t, http.StatusOK, status, body)
	slots, _ := body["data"].([]any)
	require.Len(t, slots, 5)
	first, _ := slots[0].(map[string]any)
	assert.EqualValues(t, 250050, first["price"])
	assert.Equal(t, "free", first["status"])

	status, body = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/facilities/%d/calendar?week=2024-01-10", fid), player, nil)
	require.Equal(t, http.StatusOK, status, body)
	cal := data(t, body)
	assert.Equal(t, "2024-01-08", cal["week_start"])
	days, _ := cal["days"].([]any)
	require.Len(t, days, 7)
	monday, _ := days[0].(map[string]any)
	assert.Equal(t, "MONDAY", monday["weekday"])
	assert.Len(t, monday["slots"], 1)
}

func TestRecurrentEndpointErrors(t *testing.T) {
	app := newApp(t)
	club := signUp(t, app, "club@example.com", "club")
	fid := createFacility(t, app, club, "Terrain 1")
	rival := signUp(t, app, "rival@example.com", "club")
	player := signUp(t, app, "player@example.com", "player")

	badDuration := recurrent(fid, "2024-01-01", "2024-01-31")
	badDuration["dureeMinutes"] = 0
	badPrice := recurrent(fid, "2024-01-01", "2024-01-31")
	badPrice["prix"] = -1
	badDay := recurrent(fid, "2024-01-01", "2024-01-31")
	badDay["jourDeSemaine"] = "FUNDAY"
	missing := recurrent(fid, "2024-01-01", "2024-01-31")
	delete(missing, "heureDebut")
	hugeDuration := recurrent(fid, "2024-01-01", "2024-01-31")
	hugeDuration["dureeMinutes"] = 200_000_000
	badDate := recurrent(fid, "2024-13-40", "2024-01-31")

	tests := []struct {
		name         string
		token        string
		body         map[string]any
		wantStatus   int
		wantRedirect string
	}{
		{"anonymous", "", recurrent(fid, "2024-01-01", "2024-01-31"), http.StatusUnauthorized, "/login"},
		{"player", player, recurrent(fid, "2024-01-01", "2024-01-31"), http.StatusForbidden, "/player"},
		{"other club", rival, recurrent(fid, "2024-01-01", "2024-01-31"), http.StatusForbidden, "/club"},
		{"unknown facility", club, recurrent(fid+100, "2024-01-01", "2024-01-31"), http.StatusNotFound, ""},
		{"end before start", club, recurrent(fid, "2024-02-01", "2024-01-01"), http.StatusBadRequest, ""},
		{"bad duration", club, badDuration, http.StatusBadRequest, ""},
		{"duration overflows", club, hugeDuration, http.StatusBadRequest, ""},
		{"malformed date", club, badDate, http.StatusBadRequest, ""},
		{"negative price", club, badPrice, http.StatusBadRequest, ""},
		{"bad day", club, badDay, http.StatusBadRequest, ""},
		{"missing field", club, missing, http.StatusBadRequest, ""},
		{"range too long", club, recurrent(fid, "2024-01-01", "2027-01-01"), http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, http.MethodPost, "/api/v1/creneaux/recurrent", tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, status, body)
			assert.NotEmpty(t, body["error"])
			if tt.wantRedirect != "" {
				assert.Equal(t, tt.wantRedirect, body["redirect"])
			}
		})
	}

	status, body := call(t, app, http.MethodPost, "/api/v1/creneaux/recurrent", club, badDate)
	require.Equal(t, http.StatusBadRequest, status, body)
	assert.Contains(t, body["error"], "dateDebut")
	assert.NotContains(t, body["error"], "end date")

	// nothing was created by any of the failed calls
	status, body = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/facilities/%d/slots?from=2024-01-01&to=2024-03-01", fid), club, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Empty(t, body["data"])
}

func TestSlotManagementRoutes(t *testing.T) {
	app := newApp(t)
	club := signUp(t, app, "club@example.com", "club")
	fid := createFacility(t, app, club, "Terrain 1")
	player := signUp(t, app, "player@example.com", "player")
	base := fmt.Sprintf("/api/v1/facilities/%d/creneaux", fid)

	slot := map[string]any{"starts_at": "2024-03-04T10:00:00Z", "ends_at": "2024-03-04T11:00:00Z", "price": 30}

	status, body := call(t, app, http.MethodPost, base, player, slot)
	assert.Equal(t, http.StatusForbidden, status, body)

	status, body = call(t, app, http.MethodPost, base, club, slot)
	require.Equal(t, http.StatusCreated, status, body)
	id, _ := data(t, body)["id"].(string)
	require.NotEmpty(t, id)

	overlapping := map[string]any{"starts_at": "2024-03-04T10:30:00Z", "ends_at": "2024-03-04T11:30:00Z", "price": 30}
	status, body = call(t, app, http.MethodPost, base, club, overlapping)
	assert.Equal(t, http.StatusConflict, status, body)

	status, body = call(t, app, http.MethodPatch, base+"/"+id+"/status", club, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, status, body)

	status, body = call(t, app, http.MethodPatch, base+"/"+id+"/status", club, map[string]any{"status": "booked"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "booked", data(t, body)["status"])

	status, body = call(t, app, http.MethodDelete, base+"/"+id, club, nil)
	assert.Equal(t, http.StatusConflict, status, body)

	status, body = call(t, app, http.MethodPatch, base+"/"+id+"/status", club, map[string]any{"status": "cancelled_by_facility"})
	require.Equal(t, http.StatusOK, status, body)
	status, body = call(t, app, http.MethodPatch, base+"/"+id+"/status", club, map[string]any{"status": "free"})
	require.Equal(t, http.StatusOK, status, body)

	status, _ = call(t, app, http.MethodDelete, base+"/"+id, club, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = call(t, app, http.MethodDelete, base+"/not-a-uuid", club, nil)
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, body = call(t, app, http.MethodGet, "/api/v1/facilities/abc/slots", club, nil)
	assert.Equal(t, http.StatusBadRequest, status, body)
}

func TestAuthRoutes(t *testing.T) {
	app := newApp(t)

	status, body := call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": "not-an-email", "password": "short", "role": "club",
	})
	require.Equal(t, http.StatusBadRequest, status, body)
	fields, _ := body["fields"].(map[string]any)
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "min", fields["password"])

	status, body = call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": "admin@example.com", "password": "correct horse", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, status, body)

	token := signUp(t, app, "club@example.com", "club")

	status, body = call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": "club@example.com", "password": "correct horse", "role": "club",
	})
	assert.Equal(t, http.StatusConflict, status, body)

	status, body = call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "club@example.com", "password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, status, body)
	assert.Equal(t, "/login", body["redirect"])

	status, body = call(t, app, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "club@example.com", data(t, body)["email"])

	status, _ = call(t, app, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = call(t, app, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status, body)
	assert.Equal(t, "/login", body["redirect"])
}

func TestHealthRoutes(t *testing.T) {
	app := newApp(t)
	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
