package api

import (
	"context"
	"encoding/json"
	"ev-charge-planner/internal/config"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/ports"
	"ev-charge-planner/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakePlanner struct {
	got   *services.PlanRequest
	res   *domain.PlanResult
	err   error
	block bool
}

func (f *fakePlanner) Plan(ctx context.Context, req services.PlanRequest) (*domain.PlanResult, error) {
	f.got = &req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.res, f.err
}

type fakeGeocoder struct {
	res ports.GeocodeResult
	err error
}

func (f *fakeGeocoder) Geocode(ctx context.Context, q string) (ports.GeocodeResult, error) {
	return f.res, f.err
}

func newTestRouter(p *fakePlanner, g *fakeGeocoder) http.Handler {
	cfg := config.Default()
	return NewRouter(p, g, cfg.Vehicle, cfg.HTTP.PlanTimeout, nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	if len(body) != 1 {
		t.Fatalf("error body must have a single field, got %v", body)
	}
	return body["error"]
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&fakePlanner{}, &fakeGeocoder{}), http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestGeocode(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		geocoder   *fakeGeocoder
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing query",
			target:     "/api/geocode?q=%20",
			geocoder:   &fakeGeocoder{},
			wantStatus: http.StatusBadRequest,
			wantError:  "q required",
		},
		{
			name:       "no match",
			target:     "/api/geocode?q=Atlantis",
			geocoder:   &fakeGeocoder{err: domain.NewError(domain.KindNotFound, "nominatim.Geocode", "not found", nil)},
			wantStatus: http.StatusNotFound,
			wantError:  "not found",
		},
		{
			name:       "upstream failure hides detail",
			target:     "/api/geocode?q=Paris",
			geocoder:   &fakeGeocoder{err: domain.NewError(domain.KindUpstreamUnavailable, "nominatim.Geocode", "upstream unavailable", nil)},
			wantStatus: http.StatusInternalServerError,
			wantError:  "server error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, newTestRouter(&fakePlanner{}, tc.geocoder), http.MethodGet, tc.target, "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := errorBody(t, rec); got != tc.wantError {
				t.Fatalf("error = %q, want %q", got, tc.wantError)
			}
		})
	}

	t.Run("match", func(t *testing.T) {
		g := &fakeGeocoder{res: ports.GeocodeResult{Location: domain.GeoPoint{Lat: 48.85, Lng: 2.35}, DisplayName: "Paris"}}
		rec := do(t, newTestRouter(&fakePlanner{}, g), http.MethodGet, "/api/geocode?q=Paris", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		want := `{"lat":48.85,"lng":2.35,"displayName":"Paris"}`
		if got := strings.TrimSpace(rec.Body.String()); got != want {
			t.Fatalf("body = %s, want %s", got, want)
		}
	})
}

func TestPlanValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing origin", `{"destination":{"lat":45,"lng":5}}`, "origin/destination required"},
		{"missing lng", `{"origin":{"lat":45},"destination":{"lat":45,"lng":5}}`, "origin/destination required"},
		{"out of range", `{"origin":{"lat":91,"lng":5},"destination":{"lat":45,"lng":5}}`, "origin/destination out of range"},
		{"unknown field", `{"origin":{"lat":45,"lng":5},"destination":{"lat":45,"lng":5},"speed":3}`, "invalid json body"},
		{"two objects", `{"origin":{"lat":45,"lng":5},"destination":{"lat":45,"lng":5}}{}`, "body must contain only one JSON object"},
		{"bad consumption", `{"origin":{"lat":45,"lng":5},"destination":{"lat":46,"lng":5},"cWhPerKm":0}`, "cWhPerKm must be > 0"},
		{"bad departure", `{"origin":{"lat":45,"lng":5},"destination":{"lat":46,"lng":5},"departAtISO":"tomorrow"}`, "departAtISO must be RFC3339"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakePlanner{}
			rec := do(t, newTestRouter(p, &fakeGeocoder{}), http.MethodPost, "/api/plan", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := errorBody(t, rec); got != tc.want {
				t.Fatalf("error = %q, want %q", got, tc.want)
			}
			if p.got != nil {
				t.Fatal("planner must not be called on invalid input")
			}
		})
	}
}

func TestPlanAppliesDefaultsAndAcceptsGeocodeShape(t *testing.T) {
	p := &fakePlanner{res: &domain.PlanResult{
		Route: &domain.Route{DistanceKm: 100, DurationMin: 60, EncodedGeometry: "abc"},
		Note:  services.NoteNoStopNeeded,
	}}

	body := `{"origin":{"lat":48.85,"lng":2.35,"displayName":"Paris"},"destination":{"lat":45.76,"lng":4.83,"displayName":"Lyon"},"departAtISO":"2026-03-10T09:00:00.000Z"}`
	rec := do(t, newTestRouter(p, &fakeGeocoder{}), http.MethodPost, "/api/plan", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	got := p.got
	if got.AutonomyKm != 120 || got.ConsumptionWhPerKm != 160 || got.TopUpKWh != 10 || got.ForceCharge {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.DepartAt == nil || !got.DepartAt.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("departure = %v", got.DepartAt)
	}

	want := `{"route":{"distanceKm":100,"durationMin":60,"polyline":"abc"},"recommendation":null,"note":"no stop needed"}`
	if s := strings.TrimSpace(rec.Body.String()); s != want {
		t.Fatalf("body = %s\nwant  %s", s, want)
	}
}

func TestPlanRendersRecommendation(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	start := time.Date(2026, 3, 10, 22, 0, 0, 0, paris)
	st := domain.NewChargeStation("42", "Aire", domain.GeoPoint{Lat: 45.5, Lng: 5.1}, []float64{22})

	p := &fakePlanner{res: &domain.PlanResult{
		Route: &domain.Route{DistanceKm: 150, DurationMin: 95, EncodedGeometry: "xyz"},
		Recommendation: &domain.Recommendation{
			Station:   st,
			StartAt:   start,
			EndAt:     start.Add(111*time.Minute + 30*time.Second),
			EnergyKWh: 18.4,
			PowerKw:   11,
			CostEUR:   3.31,
			Strategy:  domain.StrategyDeferredOffPeak,
			Mode:      domain.ModeNeeded,
		},
	}}

	rec := do(t, newTestRouter(p, &fakeGeocoder{}), http.MethodPost, "/api/plan",
		`{"origin":{"lat":45,"lng":5},"destination":{"lat":46.3,"lng":5},"autonomyKm":50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Recommendation map[string]any `json:"recommendation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	r := body.Recommendation
	if r["startISO"] != "2026-03-10T21:00:00.000Z" || r["endISO"] != "2026-03-10T22:51:30.000Z" {
		t.Errorf("times = %v / %v", r["startISO"], r["endISO"])
	}
	if r["reason"] != "offpeak" || r["mode"] != "needed" {
		t.Errorf("reason=%v mode=%v", r["reason"], r["mode"])
	}
	if r["kWhToCharge"] != 18.4 || r["estimatedCostEUR"] != 3.31 || r["powerKw"] != 11.0 {
		t.Errorf("numbers = %v", r)
	}

	station, _ := r["station"].(map[string]any)
	if station["id"] != "42" || station["type"] != "AC" || station["powerKw"] != 22.0 {
		t.Errorf("station = %v", station)
	}
	if p.got.AutonomyKm != 50 {
		t.Errorf("autonomyKm = %v, want 50", p.got.AutonomyKm)
	}
}

func TestPlanErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"route not found", domain.ErrRouteNotFound, http.StatusNotFound, "route not found"},
		{"no stations", domain.ErrNoStationsAvailable, http.StatusNotFound, "no charging stations found along route"},
		{"rate limited", domain.NewError(domain.KindRateLimited, "ocm", "upstream rate limited", nil), http.StatusTooManyRequests, "upstream rate limited"},
		{"upstream down", domain.NewError(domain.KindUpstreamUnavailable, "osrm", "upstream unavailable", nil), http.StatusInternalServerError, "server error"},
		{"unclassified", context.DeadlineExceeded, http.StatusInternalServerError, "server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakePlanner{err: tc.err}
			rec := do(t, newTestRouter(p, &fakeGeocoder{}), http.MethodPost, "/api/plan",
				`{"origin":{"lat":45,"lng":5},"destination":{"lat":46,"lng":5}}`)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := errorBody(t, rec); got != tc.wantError {
				t.Fatalf("error = %q, want %q", got, tc.wantError)
			}
		})
	}
}

func TestPlanDeadlineRendersServerError(t *testing.T) {
	p := &fakePlanner{block: true}
	h := NewRouter(p, &fakeGeocoder{}, config.Default().Vehicle, 20*time.Millisecond, nil)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- do(t, h, http.MethodPost, "/api/plan", `{"origin":{"lat":45,"lng":5},"destination":{"lat":46,"lng":5}}`)
	}()

	select {
	case rec := <-done:
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if got := errorBody(t, rec); got != "server error" {
			t.Fatalf("error = %q, want server error", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("plan deadline not applied")
	}
}

func TestRouterMethodsAndCORS(t *testing.T) {
	h := newTestRouter(&fakePlanner{}, &fakeGeocoder{})

	if rec := do(t, h, http.MethodGet, "/api/plan", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/plan status = %d, want 405", rec.Code)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/plan", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
}
