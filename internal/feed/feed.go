// Package feed imports station and dock metadata from an upstream JSON feed.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"chargetracker-backend/config"
	"chargetracker-backend/internal/metrics"
	"chargetracker-backend/internal/store"
)

// Invalidator drops cached state for stations the feed rewrote.
type Invalidator interface {
	Evict(stationIDs ...string)
}

// Service periodically pulls the feed and hands it to the store.
type Service struct {
	cfg         config.FeedConfig
	store       store.Store
	invalidator Invalidator
	client      *http.Client
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewService creates and initializes a new feed service.
func NewService(cfg config.FeedConfig, s store.Store, inv Invalidator, m *metrics.Metrics, logger *zap.Logger) *Service {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.Warn("invalid feed proxy URL, not using a proxy", zap.String("proxy", cfg.HTTPProxy), zap.Error(err))
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		cfg:         cfg,
		store:       s,
		invalidator: inv,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		metrics: m,
		logger:  logger,
	}
}

// Run syncs once, then on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("station feed is disabled, not starting")
		return
	}
	s.logger.Info("starting station feed", zap.Duration("interval", s.cfg.Interval))

	s.syncAndLog(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("station feed shutting down")
			return
		case <-timer.C:
			s.syncAndLog(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) syncAndLog(ctx context.Context) {
	if err := s.SyncOnce(ctx); err != nil {
		s.logger.Error("station feed sync failed", zap.Error(err))
	}
}

// SyncOnce fetches every page of the feed and persists it. A failure after
// some pages were fetched still persists what was fetched.
func (s *Service) SyncOnce(ctx context.Context) (err error) {
	defer func() { s.metrics.FeedSync(metrics.Result(err)) }()

	var stations []store.FeedStation
	total := 1
	pageSize := s.cfg.PageSize
	var fetchErr error
	for page := 1; (page-1)*pageSize < total; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			fetchErr = fmt.Errorf("page %d: %w", page, err)
			break
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		for _, item := range resp.Data.Items {
			stations = append(stations, item.toFeedStation())
		}
		s.logger.Debug("fetched feed page", zap.Int("page", page), zap.Int("total", total), zap.Int("stations", len(stations)))
	}

	if fetchErr != nil && len(stations) == 0 {
		return fetchErr
	}
	if fetchErr != nil {
		s.logger.Warn("feed fetch incomplete, syncing partial result", zap.Error(fetchErr), zap.Int("stations", len(stations)))
	}
	if len(stations) == 0 {
		s.logger.Info("station feed returned no stations")
		return nil
	}

	synced, err := s.store.SyncStations(ctx, stations)
	if err != nil {
		return fmt.Errorf("sync stations: %w", err)
	}
	if s.invalidator != nil && len(synced) > 0 {
		s.invalidator.Evict(synced...)
	}
	s.logger.Info("station feed synced", zap.Int("stations", len(synced)))
	return fetchErr
}

func (s *Service) fetchPage(ctx context.Context, page int) (*ApiResponse, error) {
	jsonBody, err := json.Marshal(map[string]int{
		"page":     page,
		"pageSize": s.cfg.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp ApiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed response: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("feed returned non-zero application code %d: %s", apiResp.Code, apiResp.Message)
	}
	return &apiResp, nil
}
