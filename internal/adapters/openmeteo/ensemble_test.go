package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

const ensembleFixture = `{
	"hourly": {
		"time": ["2026-08-28T00:00", "2026-08-28T01:00", "2026-08-28T02:00"],
		"temperature_2m": [70.1, 72.4, 71.0],
		"temperature_2m_member01": [69.5, 73.2, 70.8],
		"temperature_2m_member02": [68.0, null, 74.6],
		"temperature_2m_member03": [null, null, null]
	}
}`

func weatherMarket(question string) domain.Market {
	return domain.Market{
		ID:       "m1",
		Question: question,
		Category: domain.CategoryWeather,
		EndDate:  time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestFetchSamplesPerMember(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(ensembleFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	samples, err := c.FetchSamples(context.Background(), weatherMarket("Will the high temp in NYC exceed 75 on August 28?"))
	require.NoError(t, err)

	// Three series carry data; the all-null member is dropped.
	require.Len(t, samples, 3)
	bySource := map[string]float64{}
	for _, s := range samples {
		bySource[s.Source] = s.Value
	}
	assert.InDelta(t, 72.4, bySource["open-meteo/control"], 1e-9)
	assert.InDelta(t, 73.2, bySource["open-meteo/member01"], 1e-9)
	assert.InDelta(t, 74.6, bySource["open-meteo/member02"], 1e-9)

	assert.Contains(t, gotQuery, "latitude=40.71")
	assert.Contains(t, gotQuery, "temperature_unit=fahrenheit")
	assert.Contains(t, gotQuery, "start_date=2026-08-28")
}

func TestFetchSamplesUnknownCity(t *testing.T) {
	c := NewClient("http://unused", nil)
	_, err := c.FetchSamples(context.Background(), weatherMarket("Will the high temp in Reykjavik exceed 60?"))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestFetchSamplesNonWeatherCategory(t *testing.T) {
	c := NewClient("http://unused", nil)
	m := weatherMarket("Will Bitcoin hit 100k?")
	m.Category = domain.CategoryCrypto
	_, err := c.FetchSamples(context.Background(), m)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestFetchSamplesEmptyEnsemble(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {"time": []}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.FetchSamples(context.Background(), weatherMarket("Highest temperature in Chicago today?"))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestFetchSamplesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.FetchSamples(context.Background(), weatherMarket("Highest temperature in Miami today?"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInsufficientData)
}

func TestMatchCityPrefersLongerName(t *testing.T) {
	c := NewClient("http://unused", map[string]Coords{
		"york":     {0, 0},
		"new york": {40.71, -74.01},
	})
	name, coords, ok := c.matchCity("Will New York see a high above 80?")
	require.True(t, ok)
	assert.Equal(t, "new york", name)
	assert.InDelta(t, 40.71, coords.Lat, 1e-9)
}
