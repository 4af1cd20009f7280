package internal

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

	"chargetracker-backend/config"
	"chargetracker-backend/internal/api"
	"chargetracker-backend/internal/charging"
	"chargetracker-backend/internal/db"
	"chargetracker-backend/internal/feed"
	"chargetracker-backend/internal/metrics"
	"chargetracker-backend/internal/model"
	"chargetracker-backend/internal/notification"
	"chargetracker-backend/internal/store"
)

const jwtSecret = "integration-secret"

type feedServer struct {
	docks atomic.Value // []feed.ApiDock
}

func (f *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	var resp feed.ApiResponse
	resp.Data.Page = req.Page
	resp.Data.Total = 1
	if req.Page == 1 {
		st := feed.ApiStation{ID: "st-1", StationName: "Riverside Car Park", OpenNow: true}
		st.Coordinates.Latitude = -31.96
		st.Coordinates.Longitude = 115.86
		st.Docks = f.docks.Load().([]feed.ApiDock)
		resp.Data.Items = []feed.ApiStation{st}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func clientKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

// TestDockLifecycle drives a station from the feed through check-ins and a
// check-out, and verifies subscribers are pushed when a dock frees up.
func TestDockLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := zap.NewNop()

	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))

	pushes := make(chan *http.Request, 4)
	pushServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes <- r
		w.WriteHeader(http.StatusCreated)
	}))
	defer pushServer.Close()

	upstream := &feedServer{}
	upstream.docks.Store([]feed.ApiDock{
		{ID: "d1", ChargerType: "Type 2"},
		{ID: "d2", ChargerType: "CCS Combo 2"},
	})
	feedSrv := httptest.NewServer(upstream)
	defer feedSrv.Close()

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	webpushOptions := &webpush.Options{
		VAPIDPublicKey:  publicKey,
		VAPIDPrivateKey: privateKey,
		Subscriber:      "ops@example.com",
		TTL:             60,
	}

	appStore := store.NewGormStore(testDB)
	m := metrics.New()
	pool := notification.NewWorkerPool(2, 8, testDB, webpushOptions, m, log)
	pool.Start(ctx)
	svc := charging.NewService(appStore, nil, pool, m, log)

	feedSvc := feed.NewService(config.FeedConfig{Enabled: true, URL: feedSrv.URL, PageSize: 10}, appStore, svc, m, log)
	require.NoError(t, feedSvc.SyncOnce(ctx))

	router := api.NewRouter(svc, appStore, webpushOptions, m, log, api.Options{
		JWTSecret:       jwtSecret,
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
	})
	do := func(method, path, user string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if user != "" {
			req.Header.Set("Authorization", bearer(t, user))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	stationView := func() charging.StationView {
		w := do(http.MethodGet, "/api/stations/st-1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var v charging.StationView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
		return v
	}

	// --- Feed import ---
	v := stationView()
	assert.Equal(t, "Riverside Car Park", v.Name)
	require.Len(t, v.Docks, 2)
	assert.Equal(t, model.ChargerType2, v.Docks[0].ChargerType)
	assert.Equal(t, model.ChargerCCS2, v.Docks[1].ChargerType)
	assert.Equal(t, 2, v.Summary.AvailableDocks)

	// --- Subscribe ---
	p256dh, auth := clientKeys(t)
	w := do(http.MethodPut, "/api/subscriptions", "", map[string]any{
		"endpoint":            pushServer.URL + "/push/1",
		"p256dh":              p256dh,
		"auth":                auth,
		"subscribed_stations": []string{"st-1"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// --- Fill the station ---
	require.Equal(t, http.StatusOK, do(http.MethodPost, "/api/stations/st-1/docks/d1/check-in", "alice", nil).Code)
	require.Equal(t, http.StatusOK, do(http.MethodPost, "/api/stations/st-1/docks/d2/check-in", "bob", nil).Code)

	v = stationView()
	assert.Equal(t, 0, v.Summary.AvailableDocks)
	assert.False(t, v.Summary.IsAvailable)

	var st model.Station
	require.NoError(t, testDB.First(&st, "id = ?", "st-1").Error)
	assert.Equal(t, 0, st.AvailableDocks, "stored counter follows the dock model")

	// --- Resync while occupied: the feed drops d2, but it is in use ---
	upstream.docks.Store([]feed.ApiDock{{ID: "d1", ChargerType: "Type 2"}})
	require.NoError(t, feedSvc.SyncOnce(ctx))
	var docks []model.Dock
	require.NoError(t, testDB.Order("position").Find(&docks, "station_id = ?", "st-1").Error)
	require.Len(t, docks, 2, "occupied docks survive a resync")
	assert.Equal(t, model.DockInUse, docks[1].Status)
	assert.Equal(t, "bob", docks[1].OccupantID)

	// --- A dock frees up: subscribers are notified ---
	w = do(http.MethodPost, "/api/stations/st-1/docks/d2/check-out", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"availableDocks":1`)

	select {
	case r := <-pushes:
		assert.Equal(t, "/push/1", r.URL.Path)
		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		assert.Contains(t, r.Header.Get("Authorization"), "vapid")
	case <-time.After(5 * time.Second):
		t.Fatal("no push notification was delivered")
	}

	var history []model.CheckInHistory
	require.NoError(t, testDB.Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, "bob", history[0].UserID)
	assert.Equal(t, "d2", history[0].DockID)

	// --- The next resync prunes the freed dock the feed no longer lists ---
	require.NoError(t, feedSvc.SyncOnce(ctx))
	v = stationView()
	require.Len(t, v.Docks, 1)
	assert.Equal(t, "d1", v.Docks[0].ID)
	assert.Equal(t, model.DockInUse, v.Docks[0].Status)
	assert.Equal(t, 0, v.Summary.AvailableDocks)
	assert.Equal(t, 1, v.Summary.TotalDocks)

	w = do(http.MethodGet, "/api/me/check-ins", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dockId":"d1"`)
}
