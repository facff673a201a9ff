package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mdm-registry-backend/config"
	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/store"
)

// Applier folds one report into the registry.
type Applier interface {
	Apply(ctx context.Context, r Report) (*model.Device, error)
}

// pageResponse models one page of the upstream report feed.
type pageResponse struct {
	Code int `json:"code"`
	Data struct {
		Page     int      `json:"page"`
		PageSize int      `json:"pageSize"`
		Total    int      `json:"total"`
		Items    []Report `json:"items"`
	} `json:"data"`
}

// Poller periodically fetches reports from an upstream feed.
type Poller struct {
	cfg     config.TelemetryPollConfig
	applier Applier
	client  *http.Client
	logger  Logger
}

// NewPoller creates a poller. An invalid proxy URL is logged and ignored.
func NewPoller(cfg config.TelemetryPollConfig, applier Applier, logger Logger) *Poller {
	if logger == nil {
		logger = noopLogger{}
	}

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.Warn("invalid telemetry proxy url, polling without proxy", "proxy", cfg.HTTPProxy, "error", err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Poller{
		cfg:     cfg,
		applier: applier,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		logger: logger,
	}
}

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	if !p.cfg.Enabled {
		p.logger.Info("telemetry poller is disabled")
		return
	}
	p.logger.Info("starting telemetry poller", "url", p.cfg.URL, "interval", p.cfg.Interval)

	p.PollOnce(ctx)

	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("telemetry poller shutting down")
			return
		case <-timer.C:
			p.PollOnce(ctx)
			timer.Reset(p.cfg.Interval)
		}
	}
}

// PollOnce fetches every page of the feed and applies the reports. It
// returns the number of reports applied.
func (p *Poller) PollOnce(ctx context.Context) int {
	var reports []Report
	total := 1
	pageSize := p.cfg.PageSize
	for page := 1; (page-1)*pageSize < total; page++ {
		resp, err := p.fetchPage(ctx, page)
		if err != nil {
			p.logger.Error("telemetry page fetch failed", "page", page, "error", err)
			break
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		reports = append(reports, resp.Data.Items...)
	}

	applied := 0
	for _, r := range reports {
		_, err := p.applier.Apply(ctx, r)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, store.ErrNotFound):
			p.logger.Debug("telemetry for unknown device skipped", "uuid", r.UUID)
		default:
			p.logger.Warn("telemetry report not applied", "uuid", r.UUID, "error", err)
		}
	}
	p.logger.Info("telemetry poll finished", "fetched", len(reports), "applied", applied)
	return applied
}

func (p *Poller) fetchPage(ctx context.Context, page int) (*pageResponse, error) {
	body, err := json.Marshal(map[string]int{"page": page, "pageSize": p.cfg.PageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range p.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out pageResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed response: %w", err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("feed returned non-zero application code: %d", out.Code)
	}
	return &out, nil
}
