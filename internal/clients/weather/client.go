package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/types"
)

// Client fetches current conditions from the configured weather provider.
// The scheduler only ever sees the cached snapshot the weather service keeps;
// a provider outage degrades scheduling to weather-unaware, it never stops it.
type Client interface {
	Current(ctx context.Context) (*types.WeatherContext, error)
}

type client struct {
	log     *logger.Logger
	http    *http.Client
	baseURL string
	apiKey  string
	lat     string
	lon     string
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimSpace(os.Getenv("WEATHER_API_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing env var WEATHER_API_URL")
	}
	apiKey := strings.TrimSpace(os.Getenv("WEATHER_API_KEY"))
	lat := strings.TrimSpace(os.Getenv("WEATHER_LAT"))
	lon := strings.TrimSpace(os.Getenv("WEATHER_LON"))
	if lat == "" || lon == "" {
		return nil, fmt.Errorf("missing env vars WEATHER_LAT/WEATHER_LON")
	}

	return &client{
		log:     log.With("service", "WeatherClient"),
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		lat:     lat,
		lon:     lon,
	}, nil
}

type currentResponse struct {
	TemperatureC    float64 `json:"temperature_c"`
	Humidity        float64 `json:"humidity"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	IsRaining       bool    `json:"is_raining"`
	UVIndex         float64 `json:"uv_index"`
	WindSpeed       float64 `json:"wind_speed"`
}

func (c *client) Current(ctx context.Context) (*types.WeatherContext, error) {
	q := url.Values{}
	q.Set("lat", c.lat)
	q.Set("lon", c.lon)
	if c.apiKey != "" {
		q.Set("appid", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/current?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather provider returned %d", resp.StatusCode)
	}

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	now := time.Now().UTC()
	return &types.WeatherContext{
		TemperatureC:    body.TemperatureC,
		Humidity:        body.Humidity,
		PrecipitationMM: body.PrecipitationMM,
		IsRaining:       body.IsRaining,
		UVIndex:         body.UVIndex,
		WindSpeed:       body.WindSpeed,
		Season:          seasonFor(now),
		LastUpdated:     now,
	}, nil
}

// seasonFor maps the calendar month to a meteorological season, flipped for
// the southern hemisphere when WEATHER_HEMISPHERE=south.
func seasonFor(t time.Time) types.Season {
	south := strings.EqualFold(strings.TrimSpace(os.Getenv("WEATHER_HEMISPHERE")), "south")
	var s types.Season
	switch t.Month() {
	case time.March, time.April, time.May:
		s = types.SeasonSpring
	case time.June, time.July, time.August:
		s = types.SeasonSummer
	case time.September, time.October, time.November:
		s = types.SeasonFall
	default:
		s = types.SeasonWinter
	}
	if !south {
		return s
	}
	switch s {
	case types.SeasonSpring:
		return types.SeasonFall
	case types.SeasonSummer:
		return types.SeasonWinter
	case types.SeasonFall:
		return types.SeasonSpring
	default:
		return types.SeasonSummer
	}
}
