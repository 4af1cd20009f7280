package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chargetracker-backend/internal/charging"
	"chargetracker-backend/internal/db"
	"chargetracker-backend/internal/metrics"
	"chargetracker-backend/internal/model"
	"chargetracker-backend/internal/store"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T, webpushOptions *webpush.Options) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	s := store.NewGormStore(gormDB)
	_, err = s.SyncStations(context.Background(), []store.FeedStation{
		{ID: "st-1", Name: "Belmont Forum", Latitude: -31.95, Longitude: 115.93, OpenNow: true, Docks: []store.FeedDock{
			{ID: "d1", ChargerType: model.ChargerType2},
			{ID: "d2", ChargerType: model.ChargerCCS2},
		}},
		{ID: "st-2", Name: "Perth CBD", Docks: []store.FeedDock{
			{ID: "d1", ChargerType: model.ChargerCHAdeMO},
		}},
	})
	require.NoError(t, err)

	m := metrics.New()
	svc := charging.NewService(s, nil, nil, m, zap.NewNop())
	router := NewRouter(svc, s, webpushOptions, m, zap.NewNop(), Options{
		JWTSecret:       testSecret,
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
	})
	return &testServer{t: t, router: router, db: gormDB}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (ts *testServer) do(method, path, user string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(ts.t, user))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Message)
	return body.Error
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStations(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodGet, "/api/stations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []charging.StationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Belmont Forum", list[0].Name)
	assert.Equal(t, 2, list[0].Summary.AvailableDocks)
	assert.True(t, list[0].Summary.IsAvailable)

	w = ts.do(http.MethodGet, "/api/stations/st-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view charging.StationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Len(t, view.Docks, 2)
	assert.Equal(t, 2, view.Summary.TotalDocks)

	w = ts.do(http.MethodGet, "/api/stations/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))

	w = ts.do(http.MethodGet, "/api/stations/st-1?status=broken", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", errorCode(t, w))
}

func TestCheckInLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	checkIn := "/api/stations/st-1/docks/d1/check-in"
	checkOut := "/api/stations/st-1/docks/d1/check-out"

	w := ts.do(http.MethodPost, checkIn, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Warm the cache, then make sure the check-in is visible right away.
	w = ts.do(http.MethodGet, "/api/stations/st-1?status=available", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, checkIn, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"stationId":"st-1","dockId":"d1","availableDocks":1,"totalDocks":2,"isAvailable":true}`, w.Body.String())

	w = ts.do(http.MethodGet, "/api/stations/st-1?status=available", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view charging.StationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Docks, 1)
	assert.Equal(t, "d2", view.Docks[0].ID)

	testCases := []struct {
		name   string
		path   string
		user   string
		status int
		code   string
	}{
		{"double check-in", "/api/stations/st-1/docks/d2/check-in", "alice", http.StatusConflict, "already_checked_in"},
		{"dock in use", checkIn, "bob", http.StatusConflict, "dock_unavailable"},
		{"not occupant", checkOut, "bob", http.StatusForbidden, "not_occupant"},
		{"unknown dock", "/api/stations/st-1/docks/d9/check-in", "bob", http.StatusNotFound, "not_found"},
		{"unknown station", "/api/stations/nope/docks/d1/check-in", "bob", http.StatusNotFound, "not_found"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, tc.path, tc.user, nil)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}

	w = ts.do(http.MethodGet, "/api/me/check-ins", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		CheckIns []store.ActiveCheckIn `json:"checkIns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine.CheckIns, 1)
	assert.Equal(t, "Belmont Forum", mine.CheckIns[0].StationName)

	w = ts.do(http.MethodPost, checkOut, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"availableDocks":2`)

	w = ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `chargetracker_checkins_total{result="success"} 1`)
	assert.Contains(t, w.Body.String(), `chargetracker_checkins_total{result="dock_unavailable"} 1`)
}

func TestReviews(t *testing.T) {
	ts := newTestServer(t, nil)
	path := "/api/stations/st-1/reviews"

	w := ts.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = ts.do(http.MethodPost, path, "", map[string]any{"rating": 4})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, path, "alice", map[string]any{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", errorCode(t, w))

	w = ts.do(http.MethodPost, path, "alice", map[string]any{"rating": "four"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/api/stations/missing/reviews", "alice", map[string]any{"rating": 4})
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, r := range []map[string]any{
		{"rating": 2, "comment": "Slow", "chargerType": "CCS 2", "waitTime": "20+ min", "chargeOutcome": "failed"},
		{"rating": 5, "comment": "Great"},
	} {
		w = ts.do(http.MethodPost, path, "alice", r)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	var submitted charging.SubmittedReview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))
	assert.Equal(t, 3.5, submitted.Rating)
	assert.Equal(t, int64(2), submitted.ReviewCount)

	w = ts.do(http.MethodGet, path+"?sort=rating", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reviews []model.Review
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviews))
	require.Len(t, reviews, 2, "the cached empty list was invalidated by the writes")
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, model.ChargerCCS2, reviews[1].ChargerTypeUsed)
	assert.Equal(t, model.WaitOver20, reviews[1].WaitTime)

	w = ts.do(http.MethodGet, path+"?sort=loudest", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/stations/st-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view charging.StationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 3.5, view.Summary.Rating)
	assert.Equal(t, int64(2), view.Summary.ReviewCount)
}

func TestSubscriptions(t *testing.T) {
	ts := newTestServer(t, nil)
	endpoint := "https://push.example.com/send/abc%3D%3D"
	query := "/api/subscriptions?endpoint=" + endpoint

	w := ts.do(http.MethodPut, "/api/subscriptions", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", errorCode(t, w))

	w = ts.do(http.MethodGet, "/api/subscriptions", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, query, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	put := map[string]any{
		"endpoint":            endpoint,
		"p256dh":              "key",
		"auth":                "secret",
		"subscribed_stations": []string{"st-2", "st-1", "unknown"},
	}
	w = ts.do(http.MethodPut, "/api/subscriptions", "", put)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(http.MethodGet, query, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_stations":["st-1","st-2"]}`, w.Body.String())

	put["subscribed_stations"] = []string{"st-2"}
	put["auth"] = "rotated"
	w = ts.do(http.MethodPut, "/api/subscriptions", "", put)
	require.Equal(t, http.StatusCreated, w.Code)
	w = ts.do(http.MethodGet, query, "", nil)
	assert.JSONEq(t, `{"subscribed_stations":["st-2"]}`, w.Body.String())

	var stored model.PushSubscription
	require.NoError(t, ts.db.First(&stored, "endpoint = ?", endpoint).Error)
	assert.Equal(t, "rotated", stored.Auth)

	w = ts.do(http.MethodDelete, "/api/subscriptions", "", map[string]string{"endpoint": endpoint})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(http.MethodGet, query, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var mappings int64
	require.NoError(t, ts.db.Table("subscription_station_mapping").Count(&mappings).Error)
	assert.Zero(t, mappings)
}

func TestVAPIDPublicKey(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/api/vapid_public_key", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ts = newTestServer(t, &webpush.Options{VAPIDPublicKey: "BPubKey"})
	w = ts.do(http.MethodGet, "/api/vapid_public_key", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"BPubKey"}`, w.Body.String())
}

func TestRawQueryParam(t *testing.T) {
	raw := url.Values{"a": {"1"}}.Encode() + "&endpoint=https://x/y%3D&b=2"
	v, ok := rawQueryParam(raw, "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https://x/y%3D", v)

	_, ok = rawQueryParam(raw, "missing")
	assert.False(t, ok)
}
