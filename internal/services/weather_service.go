package services

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/plantpal-backend/internal/clients/weather"
	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/types"
)

// WeatherService keeps a cached conditions snapshot refreshed in the
// background. Snapshot never blocks on the provider; staleness is judged by
// the scheduler against its TTL, so a provider outage just degrades scheduling
// to weather-unaware.
type WeatherService interface {
	Snapshot() *types.WeatherContext
	Refresh(ctx context.Context) error
	StartPolling(ctx context.Context, interval time.Duration)
}

type weatherService struct {
	log    *logger.Logger
	client weather.Client

	mu       sync.RWMutex
	snapshot *types.WeatherContext
}

func NewWeatherService(baseLog *logger.Logger, client weather.Client) WeatherService {
	return &weatherService{
		log:    baseLog.With("service", "WeatherService"),
		client: client,
	}
}

func (ws *weatherService) Snapshot() *types.WeatherContext {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.snapshot
}

func (ws *weatherService) Refresh(ctx context.Context) error {
	if ws.client == nil {
		return nil
	}
	snap, err := ws.client.Current(ctx)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	ws.snapshot = snap
	ws.mu.Unlock()
	ws.log.Debug("Weather snapshot refreshed",
		"temperature_c", snap.TemperatureC,
		"humidity", snap.Humidity,
		"raining", snap.IsRaining,
		"season", snap.Season)
	return nil
}

func (ws *weatherService) StartPolling(ctx context.Context, interval time.Duration) {
	if ws.client == nil {
		ws.log.Info("No weather client configured, scheduling runs weather-unaware")
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if err := ws.Refresh(ctx); err != nil {
		ws.log.Warn("Initial weather refresh failed", "error", err)
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ws.Refresh(ctx); err != nil {
					ws.log.Warn("Weather refresh failed, keeping previous snapshot", "error", err)
				}
			}
		}
	}()
}
