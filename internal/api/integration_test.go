package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/kentrehber/durak/internal/api"
	"github.com/kentrehber/durak/internal/catalog"
	"github.com/kentrehber/durak/internal/config"
	"github.com/kentrehber/durak/internal/location"
	"github.com/kentrehber/durak/internal/metrics"
	"github.com/kentrehber/durak/internal/models"
	"github.com/kentrehber/durak/internal/transit"
)

// ---------------------------------------------------------------------------
// Mock providers
// ---------------------------------------------------------------------------

// failingTransit wraps the real service but fails planning and nearest
// lookups with the configured errors.
type failingTransit struct {
	*transit.Service
	planErr    error
	nearestErr error
}

func (f *failingTransit) Plan(originID, destID string) ([]models.Route, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	return f.Service.Plan(originID, destID)
}

func (f *failingTransit) Nearest(lat, lng float64, limit int) (models.StopWithDistance, []models.StopWithDistance, error) {
	if f.nearestErr != nil {
		return models.StopWithDistance{}, nil, f.nearestErr
	}
	return f.Service.Nearest(lat, lng, limit)
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func testConfig() *config.Config {
	return &config.Config{
		CityCenterLat:      37.1591,
		CityCenterLng:      38.7969,
		FarThresholdKm:     50,
		DefaultRegion:      "Merkez",
		CORSAllowedOrigins: []string{"*"},
	}
}

func newService(t *testing.T, cat *catalog.Catalog, m *metrics.Collector) *transit.Service {
	t.Helper()
	svc := transit.NewService(cat, transit.NewSeededEstimator(5, transit.DefaultJitterBand), time.Minute, m)
	t.Cleanup(svc.Close)
	return svc
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cat := defaultCatalog(t)
	m := metrics.NewCollector()
	router := api.NewRouter(testConfig(), newService(t, cat, m), cat, m)
	return httptest.NewServer(router)
}

func newFailingServer(t *testing.T, planErr, nearestErr error) *httptest.Server {
	t.Helper()
	cat := defaultCatalog(t)
	m := metrics.NewCollector()
	provider := &failingTransit{Service: newService(t, cat, m), planErr: planErr, nearestErr: nearestErr}
	return httptest.NewServer(api.NewRouter(testConfig(), provider, cat, m))
}

func get(t *testing.T, server *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return m
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Errorf("status = %d, want %d", resp.StatusCode, want)
	}
}

func assertSuccess(t *testing.T, body map[string]any) {
	t.Helper()
	if body["success"] != true {
		t.Errorf("expected success=true, body: %v", body)
	}
}

func assertField(t *testing.T, body map[string]any, field string) {
	t.Helper()
	if _, ok := body[field]; !ok {
		t.Errorf("missing field %q in response: %v", field, body)
	}
}

func stopIDs(t *testing.T, items any) []string {
	t.Helper()
	list, ok := items.([]any)
	if !ok {
		t.Fatalf("expected array, got %T", items)
	}
	var ids []string
	for _, it := range list {
		obj, _ := it.(map[string]any)
		id, _ := obj["id"].(string)
		ids = append(ids, id)
	}
	return ids
}

// ---------------------------------------------------------------------------
// Health, root & metrics
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/health")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertField(t, body, "status")
	assertField(t, body, "uptime")

	if body["status"] != "OK" {
		t.Errorf("status = %v, want OK", body["status"])
	}
	if body["catalog_stops"] != float64(23) {
		t.Errorf("catalog_stops = %v, want 23", body["catalog_stops"])
	}
}

func TestHealthDegradedWithEmptyCatalog(t *testing.T) {
	cat, err := catalog.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.NewCollector()
	srv := httptest.NewServer(api.NewRouter(testConfig(), newService(t, cat, m), cat, m))
	defer srv.Close()

	resp := get(t, srv, "/health")
	assertStatus(t, resp, http.StatusServiceUnavailable)

	body := decodeBody(t, resp)
	if body["status"] != "DEGRADED" {
		t.Errorf("status = %v, want DEGRADED", body["status"])
	}
}

func TestAPIRoot(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/api")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertField(t, body, "endpoints")
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/nope")
	assertStatus(t, resp, http.StatusNotFound)

	body := decodeBody(t, resp)
	assertField(t, body, "error")
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/health")
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	get(t, srv, "/transit/routes?from=abide&to=osmanbey").Body.Close()

	resp := get(t, srv, "/metrics")
	assertStatus(t, resp, http.StatusOK)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"durak_catalog_stops 23",
		`durak_route_plans_total{result="direct"} 1`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

// ---------------------------------------------------------------------------
// Location endpoints
// ---------------------------------------------------------------------------

func TestRegions(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/regions")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertSuccess(t, body)

	regions, ok := body["regions"].([]any)
	if !ok || len(regions) != 5 {
		t.Fatalf("expected 5 regions, got %v", body["regions"])
	}
	if regions[0] != "Merkez" {
		t.Errorf("first region = %v, want Merkez", regions[0])
	}
}

func TestNearestStop(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/stops/nearest?lat=37.165461&lng=38.796836&limit=2")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertSuccess(t, body)
	assertField(t, body, "distance_from_center_km")

	nearest, _ := body["nearest"].(map[string]any)
	if nearest["id"] != "abide" {
		t.Errorf("nearest = %v, want abide", nearest["id"])
	}
	if ids := stopIDs(t, body["stops"]); len(ids) != 2 {
		t.Errorf("limit=2 but got %d stops", len(ids))
	}
	if body["far_from_center"] != false {
		t.Errorf("far_from_center = %v, want false", body["far_from_center"])
	}
	if _, ok := body["default_region"]; ok {
		t.Error("default_region should be absent when near")
	}
}

func TestNearestStopFarFromCenter(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	// Istanbul
	resp := get(t, srv, "/transit/stops/nearest?lat=41.0082&lng=28.9784")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["far_from_center"] != true {
		t.Errorf("far_from_center = %v, want true", body["far_from_center"])
	}
	if body["default_region"] != "Merkez" {
		t.Errorf("default_region = %v, want Merkez", body["default_region"])
	}
	if ids := stopIDs(t, body["stops"]); len(ids) != 3 {
		t.Errorf("default limit should be 3, got %d", len(ids))
	}
}

func TestNearestStopValidation(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing lat", "/transit/stops/nearest?lng=38.7", http.StatusBadRequest},
		{"bad lat", "/transit/stops/nearest?lat=abc&lng=38.7", http.StatusBadRequest},
		{"bad lng", "/transit/stops/nearest?lat=37.1&lng=xyz", http.StatusBadRequest},
		{"out of range", "/transit/stops/nearest?lat=91&lng=38.7", http.StatusBadRequest},
		{"limit clamped", "/transit/stops/nearest?lat=37.1&lng=38.7&limit=500", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, srv, tc.path)
			defer resp.Body.Close()
			assertStatus(t, resp, tc.status)
		})
	}
}

func TestNearestStopEmptyCatalog(t *testing.T) {
	srv := newFailingServer(t, nil, location.ErrEmptyCatalog)
	defer srv.Close()

	resp := get(t, srv, "/transit/stops/nearest?lat=37.1&lng=38.7")
	assertStatus(t, resp, http.StatusServiceUnavailable)

	body := decodeBody(t, resp)
	assertField(t, body, "error")
}

// ---------------------------------------------------------------------------
// Stop endpoints
// ---------------------------------------------------------------------------

func TestStopsSearch(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/stops?q=63&region=Merkez")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertSuccess(t, body)

	got := stopIDs(t, body["stops"])
	want := []string{"abide", "topcu_meydani", "urfacity"}
	if len(got) != len(want) {
		t.Fatalf("stops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stops[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestStopsSearchNoMatchIsEmptyArray(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/stops?q=zzz")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if stops, ok := body["stops"].([]any); !ok || len(stops) != 0 {
		t.Errorf("stops = %v, want []", body["stops"])
	}
}

func TestStopDetail(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/stops/osmanbey")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertSuccess(t, body)

	arrivals, ok := body["arrivals"].([]any)
	if !ok || len(arrivals) != 6 {
		t.Fatalf("expected 6 arrivals, got %v", body["arrivals"])
	}
	prev := 0.0
	for _, a := range arrivals {
		mins := a.(map[string]any)["minutes_away"].(float64)
		if mins < 1 {
			t.Errorf("minutes_away = %v, want >= 1", mins)
		}
		if mins < prev {
			t.Errorf("arrivals not sorted: %v after %v", mins, prev)
		}
		prev = mins
	}

	resp = get(t, srv, "/transit/stops/nope")
	defer resp.Body.Close()
	assertStatus(t, resp, http.StatusNotFound)
}

func TestFavorites(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/favorites?stops=abide,%20nope,otogar")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertSuccess(t, body)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	missing, _ := body["missing"].([]any)
	if len(missing) != 1 || missing[0] != "nope" {
		t.Errorf("missing = %v, want [nope]", body["missing"])
	}

	resp = get(t, srv, "/transit/favorites")
	defer resp.Body.Close()
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestLines(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/lines")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertSuccess(t, body)
	if body["count"] != float64(57) {
		t.Errorf("count = %v, want 57", body["count"])
	}
}

// ---------------------------------------------------------------------------
// Route planning
// ---------------------------------------------------------------------------

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/routes?from=abide&to=osmanbey")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertSuccess(t, body)
	assertField(t, body, "metadata")

	routes, ok := body["routes"].([]any)
	if !ok || len(routes) != 4 {
		t.Fatalf("expected 4 routes, got %v", body["routes"])
	}
	first := routes[0].(map[string]any)
	if first["kind"] != "direct" || first["line"] != "90" {
		t.Errorf("first route = %v, want direct 90", first)
	}

	meta := body["metadata"].(map[string]any)
	if meta["direct"] != float64(1) || meta["transfer"] != float64(3) {
		t.Errorf("metadata = %v, want 1 direct 3 transfer", meta)
	}
}

func TestRoutesStatusCodes(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing to", "/transit/routes?from=abide", http.StatusBadRequest},
		{"unknown origin", "/transit/routes?from=nope&to=abide", http.StatusNotFound},
		{"unknown destination", "/transit/routes?from=abide&to=nope", http.StatusNotFound},
		{"same stop", "/transit/routes?from=abide&to=abide", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, srv, tc.path)
			defer resp.Body.Close()
			assertStatus(t, resp, tc.status)
		})
	}
}

func TestRoutesSameStopMessage(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/routes?from=abide&to=abide")
	body := decodeBody(t, resp)

	assertField(t, body, "message")
	if routes, ok := body["routes"].([]any); !ok || len(routes) != 0 {
		t.Errorf("routes = %v, want []", body["routes"])
	}
}

func TestRoutesServiceError(t *testing.T) {
	srv := newFailingServer(t, errors.New("planner unavailable"), nil)
	defer srv.Close()

	resp := get(t, srv, "/transit/routes?from=abide&to=osmanbey")
	assertStatus(t, resp, http.StatusInternalServerError)

	body := decodeBody(t, resp)
	assertField(t, body, "error")
}

// ---------------------------------------------------------------------------
// GTFS-Realtime feed
// ---------------------------------------------------------------------------

func TestTripUpdatesFeed(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/feed/trip-updates")
	assertStatus(t, resp, http.StatusOK)
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/x-protobuf" {
		t.Errorf("Content-Type = %q", ct)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(raw, feed); err != nil {
		t.Fatalf("unmarshal feed: %v", err)
	}
	if n := len(feed.GetEntity()); n != 107 {
		t.Errorf("entities = %d, want 107", n)
	}
}

func TestTripUpdatesFeedJSON(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/transit/feed/trip-updates?format=json")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertField(t, body, "header")
	assertField(t, body, "entity")
}
