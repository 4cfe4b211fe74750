// Package openmeteo turns Open-Meteo ensemble forecasts into probability
// samples for weather threshold markets. Each ensemble member contributes one
// sample; the estimator reads the spread as uncertainty.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

const (
	defaultBase  = "https://ensemble-api.open-meteo.com"
	ensemblePath = "/v1/ensemble"
	model        = "gfs_seamless"
)

// Coords is a city's location.
type Coords struct {
	Lat float64
	Lon float64
}

// DefaultCities covers the cities Polymarket runs daily temperature markets
// on. Keys are matched against lowercased market questions.
func DefaultCities() map[string]Coords {
	return map[string]Coords{
		"nyc":           {40.71, -74.01},
		"new york":      {40.71, -74.01},
		"los angeles":   {34.05, -118.24},
		"chicago":       {41.88, -87.63},
		"miami":         {25.76, -80.19},
		"austin":        {30.27, -97.74},
		"denver":        {39.74, -104.98},
		"seattle":       {47.61, -122.33},
		"philadelphia":  {39.95, -75.17},
		"phoenix":       {33.45, -112.07},
		"san francisco": {37.77, -122.42},
	}
}

// Client implements ports.ForecastProvider for weather markets.
type Client struct {
	http   *http.Client
	base   string
	cities map[string]Coords
	// matchOrder keeps city matching deterministic when names overlap.
	matchOrder []string
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewClient creates a client. An empty base uses the production API; a nil
// city map uses DefaultCities.
func NewClient(base string, cities map[string]Coords) *Client {
	if base == "" {
		base = defaultBase
	}
	if cities == nil {
		cities = DefaultCities()
	}
	order := make([]string, 0, len(cities))
	for name := range cities {
		order = append(order, name)
	}
	// Longest names first so "new york" beats "york".
	sort.Slice(order, func(i, j int) bool {
		if len(order[i]) != len(order[j]) {
			return len(order[i]) > len(order[j])
		}
		return order[i] < order[j]
	})

	return &Client{
		http:       &http.Client{Timeout: 15 * time.Second},
		base:       base,
		cities:     cities,
		matchOrder: order,
		limiter:    rate.NewLimiter(2, 2),
		now:        time.Now,
	}
}

// FetchSamples returns one daily-high sample per ensemble member for the
// market's city and resolution date. Non-weather markets and questions with
// no known city yield ErrInsufficientData.
func (c *Client) FetchSamples(ctx context.Context, m domain.Market) ([]domain.ForecastSample, error) {
	if m.Category != domain.CategoryWeather {
		return nil, fmt.Errorf("openmeteo.FetchSamples: category %s: %w", m.Category, domain.ErrInsufficientData)
	}
	city, coords, ok := c.matchCity(m.Question)
	if !ok {
		return nil, fmt.Errorf("openmeteo.FetchSamples: no known city in question: %w", domain.ErrInsufficientData)
	}

	targetDate := m.EndDate
	if targetDate.IsZero() {
		targetDate = c.now()
	}

	members, err := c.fetchMemberHighs(ctx, coords, targetDate.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("openmeteo.FetchSamples: %s: %w", city, err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("openmeteo.FetchSamples: empty ensemble for %s: %w", city, domain.ErrInsufficientData)
	}

	samples := make([]domain.ForecastSample, 0, len(members))
	for name, high := range members {
		samples = append(samples, domain.ForecastSample{
			Source: "open-meteo/" + name,
			Value:  high,
		})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Source < samples[j].Source })
	return samples, nil
}

func (c *Client) matchCity(question string) (string, Coords, bool) {
	q := strings.ToLower(question)
	for _, name := range c.matchOrder {
		if strings.Contains(q, name) {
			return name, c.cities[name], true
		}
	}
	return "", Coords{}, false
}

// ensembleResponse carries the hourly block with one temperature series per
// ensemble member; member series keys look like "temperature_2m_member01".
type ensembleResponse struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
}

// fetchMemberHighs returns each member's max temperature over the target date.
func (c *Client) fetchMemberHighs(ctx context.Context, coords Coords, date string) (map[string]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf(
		"%s%s?latitude=%.2f&longitude=%.2f&hourly=temperature_2m&models=%s&temperature_unit=fahrenheit&start_date=%s&end_date=%s",
		c.base, ensemblePath, coords.Lat, coords.Lon, model, date, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body ensembleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	highs := make(map[string]float64)
	for key, raw := range body.Hourly {
		if !strings.HasPrefix(key, "temperature_2m") {
			continue
		}
		// Members can have null hours near the forecast horizon.
		var series []*float64
		if err := json.Unmarshal(raw, &series); err != nil {
			continue
		}
		high, ok := maxOf(series)
		if !ok {
			continue
		}
		name := strings.TrimPrefix(key, "temperature_2m")
		name = strings.TrimPrefix(name, "_")
		if name == "" {
			name = "control"
		}
		highs[name] = high
	}
	return highs, nil
}

func maxOf(series []*float64) (float64, bool) {
	found := false
	high := 0.0
	for _, v := range series {
		if v == nil {
			continue
		}
		if !found || *v > high {
			high = *v
			found = true
		}
	}
	return high, found
}
