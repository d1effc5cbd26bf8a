package ginserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/app/clock"
	"fleetbook/internal/app/commands"
	availabilityapp "fleetbook/internal/app/handlers/availability"
	blocksapp "fleetbook/internal/app/handlers/blocks"
	reservationapp "fleetbook/internal/app/handlers/reservation"
	"fleetbook/internal/app/middleware"
	"fleetbook/internal/app/queries"
	"fleetbook/internal/domain/reservation"
	domainvehicle "fleetbook/internal/domain/vehicle"
	"fleetbook/internal/infra/config"
	"fleetbook/internal/infra/obs"
	"fleetbook/internal/infra/storage/memory"
)

const testHold = 30 * time.Minute

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	vehicles := memory.NewVehicleRepository()
	vehicles.Put(&domainvehicle.Vehicle{ID: "veh-1", ShopID: "shop-1"})
	reservations := memory.NewReservationRepository()
	blocks := memory.NewBlockRepository()
	factory := memory.Factory{
		VehicleRepo:     vehicles,
		ReservationRepo: reservations,
		OccupancyStore:  memory.NewOccupancyStore(reservations, blocks),
		BlockRepo:       blocks,
	}
	outboxStore := memory.NewOutbox()
	now := clock.Fixed(testNow)

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, reservationapp.CreateReservationCommand{}.Key(), &reservationapp.CreateReservationHandler{
		UoWFactory: factory, Outbox: outboxStore, Hold: testHold, Now: now,
	})
	commands.RegisterHandler(commandBus, reservationapp.TransitionReservationCommand{}.Key(), &reservationapp.TransitionReservationHandler{
		UoWFactory: factory, Outbox: outboxStore, Policy: reservation.CutoffPolicy(24 * time.Hour), Now: now,
	})
	commands.RegisterHandler(commandBus, blocksapp.BlockDatesCommand{}.Key(), &blocksapp.BlockDatesHandler{
		UoWFactory: factory, Outbox: outboxStore, Now: now,
	})
	commands.RegisterHandler(commandBus, blocksapp.UnblockDatesCommand{}.Key(), &blocksapp.UnblockDatesHandler{
		UoWFactory: factory, Outbox: outboxStore, Now: now,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: factory, Hold: testHold, Now: now,
	})
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityBatchQuery{}.Key(), &availabilityapp.CheckAvailabilityBatchHandler{
		UoWFactory: factory, Hold: testHold, Now: now,
	})
	queries.RegisterHandler(queryBus, reservationapp.ListReservationsQuery{}.Key(), &reservationapp.ListReservationsHandler{
		UoWFactory: factory,
	})
	queries.RegisterHandler(queryBus, blocksapp.ListBlocksQuery{}.Key(), &blocksapp.ListBlocksHandler{
		UoWFactory: factory,
	})

	commandBusMW := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusMW := middleware.ChainQueries(queryBus)

	cfg := config.Config{Env: "test", HTTPAddr: ":0"}
	server := NewServer(cfg, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Availability: AvailabilityHandler{Queries: queryBusMW},
		Reservation:  ReservationHandler{Commands: commandBusMW, Queries: queryBusMW},
		Blocks:       BlocksHandler{Commands: commandBusMW, Queries: queryBusMW},
	})
	return server.Handler
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func customer() map[string]string {
	return map[string]string{"X-User-ID": "cust-1", "X-User-Role": "customer"}
}

func shop() map[string]string {
	return map[string]string{"X-User-ID": "shop-1", "X-User-Role": "shop"}
}

func TestReservationFlow(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/reservations", map[string]any{
		"vehicle_id": "veh-1",
		"start":      "2026-06-10",
		"end":        "2026-06-15",
	}, customer())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ReservationID string `json:"reservation_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ReservationID)

	// Overlapping request is a conflict.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/reservations", map[string]any{
		"vehicle_id": "veh-1",
		"start":      "2026-06-12",
		"end":        "2026-06-20",
	}, customer())
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The availability snapshot reflects the pending hold.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/vehicles/veh-1/availability?start=2026-06-12&end=2026-06-20", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var avail struct {
		Available bool `json:"available"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&avail))
	assert.False(t, avail.Available)

	// Shop confirms, customer sees it in their list.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/reservations/"+created.ReservationID+"/transition", map[string]any{
		"target": "CONFIRMED",
	}, shop())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/v1/me/reservations", nil, customer())
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "CONFIRMED", list.Items[0].Status)
}

func TestReservationValidationAndStatuses(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		hdrs   map[string]string
		want   int
	}{
		{
			name: "inverted range", method: http.MethodPost, path: "/api/v1/reservations",
			body: map[string]any{"vehicle_id": "veh-1", "start": "2026-06-15", "end": "2026-06-10"},
			hdrs: customer(), want: http.StatusBadRequest,
		},
		{
			name: "bad date format", method: http.MethodPost, path: "/api/v1/reservations",
			body: map[string]any{"vehicle_id": "veh-1", "start": "June 10", "end": "2026-06-15"},
			hdrs: customer(), want: http.StatusBadRequest,
		},
		{
			name: "unknown vehicle", method: http.MethodPost, path: "/api/v1/reservations",
			body: map[string]any{"vehicle_id": "veh-404", "start": "2026-06-10", "end": "2026-06-15"},
			hdrs: customer(), want: http.StatusNotFound,
		},
		{
			name: "transition missing reservation", method: http.MethodPost, path: "/api/v1/reservations/none/transition",
			body: map[string]any{"target": "CANCELLED"},
			hdrs: shop(), want: http.StatusNotFound,
		},
		{
			name: "availability missing dates", method: http.MethodGet,
			path: "/api/v1/vehicles/veh-1/availability", hdrs: nil, want: http.StatusBadRequest,
		},
		{
			name: "batch without vehicles", method: http.MethodPost, path: "/api/v1/availability/batch",
			body: map[string]any{"start": "2026-06-10", "end": "2026-06-15"},
			hdrs: nil, want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, tt.method, tt.path, tt.body, tt.hdrs)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestReservationDepositGuardOverHTTP(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/reservations", map[string]any{
		"vehicle_id":       "veh-1",
		"start":            "2026-06-10",
		"end":              "2026-06-15",
		"deposit_required": true,
	}, customer())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ReservationID string `json:"reservation_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	// Customer may not confirm at all.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/reservations/"+created.ReservationID+"/transition", map[string]any{
		"target": "CONFIRMED", "deposit_paid": true,
	}, customer())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Shop confirm without the deposit is rejected as a business rule.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/reservations/"+created.ReservationID+"/transition", map[string]any{
		"target": "CONFIRMED",
	}, shop())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/reservations/"+created.ReservationID+"/transition", map[string]any{
		"target": "CONFIRMED", "deposit_paid": true,
	}, shop())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdempotentReservationReplay(t *testing.T) {
	h := newTestServer(t)

	hdrs := customer()
	hdrs["Idempotency-Key"] = "retry-1"
	body := map[string]any{"vehicle_id": "veh-1", "start": "2026-06-10", "end": "2026-06-15"}

	rec := doJSON(t, h, http.MethodPost, "/api/v1/reservations", body, hdrs)
	require.Equal(t, http.StatusCreated, rec.Code)
	var first struct {
		ReservationID string `json:"reservation_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))

	// Same key replays the recorded outcome instead of conflicting.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/reservations", body, hdrs)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var second struct {
		ReservationID string `json:"reservation_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.Equal(t, first.ReservationID, second.ReservationID)
}

func TestBlockEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/vehicles/veh-1/blocks", map[string]any{
		"dates":  []string{"2026-06-20", "2026-06-21"},
		"reason": "maintenance",
	}, shop())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Foreign shop is rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/vehicles/veh-1/blocks", map[string]any{
		"dates": []string{"2026-06-22"},
	}, map[string]string{"X-User-ID": "shop-other", "X-User-Role": "shop"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The blocked day defeats a reservation.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/reservations", map[string]any{
		"vehicle_id": "veh-1", "start": "2026-06-19", "end": "2026-06-21",
	}, customer())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/vehicles/veh-1/blocks?start=2026-06-01&end=2026-06-30", nil, shop())
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []struct {
			Day string `json:"day"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Items, 2)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/vehicles/veh-1/blocks", map[string]any{
		"dates": []string{"2026-06-20", "2026-06-21"},
	}, shop())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/reservations", map[string]any{
		"vehicle_id": "veh-1", "start": "2026-06-19", "end": "2026-06-21",
	}, customer())
	assert.Equal(t, http.StatusCreated, rec.Code)
}
