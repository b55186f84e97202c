package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blang/semver"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"

	"github.com/s0up4200/odp-liege/config"
	"github.com/s0up4200/odp-liege/filter"
	"github.com/s0up4200/odp-liege/liege"
)

func testGarages() []liege.Garage {
	return []liege.Garage{
		{
			Name:             "Cathédrale",
			Capacity:         null.IntFrom(456),
			ChargingStations: 4,
			Address:          "Rue Saint-Gilles 9, 4000",
			Provider:         "Interparking",
			Latitude:         50.6413,
			Longitude:        5.5686,
			UpdatedAt:        time.Date(2023, 5, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			Name:      "Saint-Léonard",
			Address:   "Quai Saint-Léonard 7, 4020",
			Latitude:  50.6500,
			Longitude: 5.5800,
		},
	}
}

func testSpots() []liege.DisabledParking {
	return []liege.DisabledParking{
		{SpotID: "aa01", Number: 1, Address: "Rue Léopold 12, 4000", Status: "active"},
		{SpotID: "bb02", Number: 2, Address: "Place du Marché, 4000", Status: "Active"},
		{SpotID: "cc03", Number: 1, Address: "Rue Féronstrée 30, 4000", Status: "inactive"},
		{SpotID: "aa01", Number: 1, Address: "Rue Léopold 12, 4000", Status: "active"},
		{SpotID: "dd04", Number: 3, Address: "Boulevard d'Avroy, 4000", Status: "active"},
	}
}

// fakeAPI serves canned records and counts calls
type fakeAPI struct {
	garages   []liege.Garage
	spots     []liege.DisabledParking
	err       error
	calls     int
	lastLimit int
}

func (f *fakeAPI) Garages(ctx context.Context, limit int) ([]liege.Garage, error) {
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.garages, nil
}

func (f *fakeAPI) DisabledParkings(ctx context.Context, limit int) ([]liege.DisabledParking, error) {
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.spots, nil
}

func (f *fakeAPI) Close() error { return nil }

func TestCountUniqueSpots(t *testing.T) {
	assert.Equal(t, 4, countUniqueSpots(testSpots()))
	assert.Equal(t, 0, countUniqueSpots(nil))
}

func TestSummarize(t *testing.T) {
	s := summarize(testGarages(), testSpots())

	assert.Equal(t, Summary{
		Garages:              2,
		GarageCapacity:       456,
		GaragesUnknownSize:   1,
		ChargingStations:     4,
		DisabledParkings:     5,
		UniqueDisabledSpots:  4,
		DisabledSpaces:       8,
		ActiveDisabledSpaces: 7,
	}, s)
}

func TestPrintGarages(t *testing.T) {
	var buf bytes.Buffer
	printGarages(&buf, testGarages())
	out := buf.String()

	assert.Contains(t, out, "• Cathédrale")
	assert.Contains(t, out, "Capacity: 456 (4 charging stations)")
	assert.Contains(t, out, "Capacity: unknown")
	assert.Contains(t, out, "Provider: Interparking")
	assert.Contains(t, out, "Updated: 2023-05-16")
	assert.True(t, strings.HasSuffix(out, "Total locations found: 2\n"))

	buf.Reset()
	printGarages(&buf, nil)
	assert.Equal(t, "No garages found.\n", buf.String())
}

func TestPrintDisabledParkings(t *testing.T) {
	var buf bytes.Buffer
	printDisabledParkings(&buf, testSpots())
	out := buf.String()

	assert.Contains(t, out, "• Rue Léopold 12, 4000 [aa01]")
	assert.Contains(t, out, "Total locations found: 5\n")
	assert.Contains(t, out, "Unique ID values: 4\n")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, summarize(testGarages(), testSpots()))
	out := buf.String()

	assert.Contains(t, out, "456 spaces (1 without data)")
	assert.Contains(t, out, "5 (4 unique)")
	assert.Contains(t, out, "8 (7 active)")
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LoggingConfig
		level zerolog.Level
	}{
		{"default", config.LoggingConfig{Level: "info", Format: "json"}, zerolog.InfoLevel},
		{"debug", config.LoggingConfig{Level: "DEBUG", Format: "json"}, zerolog.DebugLevel},
		{"warn console", config.LoggingConfig{Level: "warn", Format: "console"}, zerolog.WarnLevel},
		{"error", config.LoggingConfig{Level: "error"}, zerolog.ErrorLevel},
		{"unknown", config.LoggingConfig{Level: "verbose"}, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := setupLogger(tt.cfg, &buf)
			assert.Equal(t, tt.level, l.GetLevel())
		})
	}

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		l := setupLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
		l.Info().Str("dataset", "parkings-pmr").Msg("hello")
		assert.Contains(t, buf.String(), `"dataset":"parkings-pmr"`)
		assert.Contains(t, buf.String(), `"message":"hello"`)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "timeout",
			err:  fmt.Errorf("wrapped: %w", &liege.ConnectionError{Message: "t", Timeout: true}),
			want: http.StatusGatewayTimeout,
		},
		{
			name: "connection",
			err:  &liege.ConnectionError{Message: "c", StatusCode: 500},
			want: http.StatusBadGateway,
		},
		{
			name: "data",
			err:  &liege.DataError{Message: "d"},
			want: http.StatusBadGateway,
		},
		{
			name: "evaluation",
			err:  &filter.EvaluationError{Expression: "x", Reason: "boom"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "other",
			err:  errors.New("unexpected"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func newTestRouter(t *testing.T, api liege.API) http.Handler {
	t.Helper()
	m := filter.NewManager()
	require.NoError(t, m.RegisterFilters(map[string]string{
		"large":  "Capacity > 400",
		"active": "Active",
	}))
	return newRouter(api, m, 10, zerolog.Nop())
}

func TestRouter(t *testing.T) {
	api := &fakeAPI{garages: testGarages(), spots: testSpots()}
	router := newTestRouter(t, api)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   []string
		wantCalls  int
		wantLimit  int
	}{
		{
			name:       "health",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   []string{`"status":"ok"`},
		},
		{
			name:       "garages",
			path:       "/garages",
			wantStatus: http.StatusOK,
			wantBody:   []string{`"count":2`, `"capacity":null`},
			wantCalls:  1,
			wantLimit:  10,
		},
		{
			name:       "garages with filter",
			path:       "/garages?limit=3&filter=" + "ChargingStations%20%3E%200",
			wantStatus: http.StatusOK,
			wantBody:   []string{`"count":1`, "Cathédrale"},
			wantCalls:  1,
			wantLimit:  3,
		},
		{
			name:       "disabled parkings with preset",
			path:       "/disabled-parkings?preset=active",
			wantStatus: http.StatusOK,
			wantBody:   []string{`"count":4`},
			wantCalls:  1,
			wantLimit:  10,
		},
		{
			name:       "invalid limit",
			path:       "/garages?limit=abc",
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"limit must be an integer"},
		},
		{
			name:       "limit too large",
			path:       "/garages?limit=5000",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown preset",
			path:       "/garages?preset=missing",
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"preset 'missing' not found"},
		},
		{
			name:       "invalid expression",
			path:       "/garages?filter=Capacity%20%3E",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown route",
			path:       "/nope",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api.calls, api.lastLimit = 0, 0

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, s := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), s)
			}
			assert.Equal(t, tt.wantCalls, api.calls)
			if tt.wantCalls > 0 {
				assert.Equal(t, tt.wantLimit, api.lastLimit)
			}
		})
	}
}

func TestRouter_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"timeout", &liege.ConnectionError{Message: "timeout", Timeout: true}, http.StatusGatewayTimeout},
		{"connection", &liege.ConnectionError{Message: "down", StatusCode: 503}, http.StatusBadGateway},
		{"data", &liege.DataError{Message: "bad payload"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeAPI{err: tt.err})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/disabled-parkings", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestIsUpToDate(t *testing.T) {
	current := semver.MustParse("0.3.0")

	tests := []struct {
		latest  string
		want    bool
		wantErr bool
	}{
		{latest: "0.3.0", want: true},
		{latest: "v0.2.9", want: true},
		{latest: "0.4.0", want: false},
		{latest: "1.0.0-rc.1", want: false},
		{latest: "not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.latest, func(t *testing.T) {
			got, err := isUpToDate(current, tt.latest)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveLimit(t *testing.T) {
	oldLimit, oldCfg := limit, cfg
	t.Cleanup(func() { limit, cfg = oldLimit, oldCfg })

	limit, cfg = 0, nil
	assert.Equal(t, liege.DefaultLimit, effectiveLimit())

	cfg = &config.Config{Query: config.QueryConfig{Limit: 25}}
	assert.Equal(t, 25, effectiveLimit())

	limit = 3
	assert.Equal(t, 3, effectiveLimit())
}

func TestGaragesCommand(t *testing.T) {
	fixture, err := os.ReadFile(filepath.Join("..", "liege", "testdata", "garages.json"))
	require.NoError(t, err)

	var gotRows string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRows = r.URL.Query().Get("rows")
		w.Header().Set("Content-Type", "application/json")
		w.Write(fixture)
	}))
	defer server.Close()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`api:
  base_url: %s/api/records/1.0/
logging:
  level: error
  format: json
`, server.URL)), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"garages", "--config", cfgPath, "--limit", "3", "--filter", "Capacity > 400"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		limit, filterExpr, cfgFile = 0, "", ""
	})

	err = rootCmd.ExecuteContext(context.Background())
	require.NoError(t, closeApp())
	require.NoError(t, err)

	assert.Equal(t, "3", gotRows)
	assert.Contains(t, out.String(), "• Parking Cathédrale")
	assert.Contains(t, out.String(), "• Parking Guillemins")
	assert.NotContains(t, out.String(), "Médiacité")
	assert.Contains(t, out.String(), "Total locations found:")
	assert.Nil(t, client)
}
