package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	mmPerInch      = 25.4
)

var (
	// ErrForecastUnavailable is returned when the provider cannot serve a
	// forecast (breaker open, empty payload).
	ErrForecastUnavailable = errors.New("forecast unavailable")
	ErrMissingAPIKey       = errors.New("weather API key not configured")
)

// Provider returns a daily forecast for a coordinate.
type Provider interface {
	DailyForecast(ctx context.Context, lat, lon float64) ([]DailyForecast, error)
}

// Client talks to the OpenWeatherMap 5 day / 3 hour forecast endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]DailyForecast]
	logger     *slog.Logger
}

// NewClient creates a forecast client with a 15s timeout and a circuit
// breaker that opens after 5 consecutive failures.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]DailyForecast](gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

// WithTimeout sets the HTTP timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

// DailyForecast fetches 3-hour intervals and aggregates them into days in
// the forecast location's timezone.
func (c *Client) DailyForecast(ctx context.Context, lat, lon float64) ([]DailyForecast, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	days, err := c.breaker.Execute(func() ([]DailyForecast, error) {
		return c.fetch(ctx, lat, lon)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
	}
	return days, err
}

type owmResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain struct {
			ThreeHour float64 `json:"3h"`
		} `json:"rain"`
		Snow struct {
			ThreeHour float64 `json:"3h"`
		} `json:"snow"`
	} `json:"list"`
	City struct {
		Timezone int `json:"timezone"` // offset from UTC in seconds
	} `json:"city"`
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) ([]DailyForecast, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("forecast request rejected", "status", resp.StatusCode)
		return nil, fmt.Errorf("forecast request: status %d: %s", resp.StatusCode, string(body))
	}

	var payload owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return parseForecast(payload)
}

func parseForecast(payload owmResponse) ([]DailyForecast, error) {
	if len(payload.List) == 0 {
		return nil, fmt.Errorf("%w: empty forecast list", ErrForecastUnavailable)
	}

	intervals := make([]Interval, 0, len(payload.List))
	for _, item := range payload.List {
		if item.Dt <= 0 {
			return nil, fmt.Errorf("decode forecast: invalid timestamp %d", item.Dt)
		}
		in := Interval{
			Time:          time.Unix(item.Dt, 0).UTC(),
			Temp:          item.Main.Temp,
			TempMin:       item.Main.TempMin,
			TempMax:       item.Main.TempMax,
			Humidity:      item.Main.Humidity,
			WindSpeed:     item.Wind.Speed,
			Precipitation: (item.Rain.ThreeHour + item.Snow.ThreeHour) / mmPerInch,
		}
		if len(item.Weather) > 0 {
			in.Condition = item.Weather[0].Main
		}
		intervals = append(intervals, in)
	}

	loc := time.FixedZone("site", payload.City.Timezone)
	return Aggregate(intervals, loc), nil
}
