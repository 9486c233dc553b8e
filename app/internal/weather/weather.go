// Package weather proxies an OpenWeatherMap forecast into the chat
// interface. It is a stateless collaborator: nothing here touches the
// relay's core state.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"telemon/app/internal/cache"
)

// ForecastDays is how many days the summary covers.
const ForecastDays = 3

// CurrentConditions is the normalized "weather now" result.
type CurrentConditions struct {
	Temp        float64
	FeelsLike   float64
	Humidity    float64
	WindSpeed   float64
	Description string
}

// DaySummary is one day of the rolled-up forecast.
type DaySummary struct {
	Date        string
	Min         float64
	Max         float64
	Noon        float64
	Rain        float64
	Description string
}

// Client calls the OpenWeatherMap API.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	apiKey string
	city   string
	cache  *cache.Cache
}

// NewClient creates a weather client for the given city. responses may be
// nil to disable caching.
func NewClient(apiKey, city string, responses *cache.Cache) *Client {
	return &Client{
		BaseURL: "https://api.openweathermap.org",
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		city:    city,
		cache:   responses,
	}
}

// City returns the configured location name.
func (c *Client) City() string { return c.city }

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	q := url.Values{}
	q.Set("q", c.city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("weather upstream: http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches the current conditions.
func (c *Client) Current(ctx context.Context) (*CurrentConditions, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get("current"); ok {
			if cur, ok := v.(*CurrentConditions); ok {
				return cur, nil
			}
		}
	}

	var raw currentResponse
	if err := c.getJSON(ctx, "/data/2.5/weather", &raw); err != nil {
		return nil, err
	}

	out := &CurrentConditions{
		Temp:      raw.Main.Temp,
		FeelsLike: raw.Main.FeelsLike,
		Humidity:  raw.Main.Humidity,
		WindSpeed: raw.Wind.Speed,
	}
	if len(raw.Weather) > 0 {
		out.Description = raw.Weather[0].Description
	}

	if c.cache != nil {
		c.cache.Set("current", out)
	}
	return out, nil
}

type forecastResponse struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Rain struct {
			ThreeHour float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}

// Forecast fetches the 3-hourly forecast and rolls it up into at most
// ForecastDays daily summaries. The "noon" temperature falls back to the
// day's average when the 12:00 slot is missing.
func (c *Client) Forecast(ctx context.Context) ([]DaySummary, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get("forecast"); ok {
			if days, ok := v.([]DaySummary); ok {
				return days, nil
			}
		}
	}

	var raw forecastResponse
	if err := c.getJSON(ctx, "/data/2.5/forecast", &raw); err != nil {
		return nil, err
	}

	type dayAgg struct {
		temps []float64
		rain  float64
		noon  *float64
		desc  string
	}
	days := make(map[string]*dayAgg)
	var order []string

	for _, item := range raw.List {
		date, clock, found := strings.Cut(item.DtTxt, " ")
		if !found {
			continue
		}
		agg, ok := days[date]
		if !ok {
			agg = &dayAgg{}
			if len(item.Weather) > 0 {
				agg.desc = item.Weather[0].Description
			}
			days[date] = agg
			order = append(order, date)
		}
		agg.temps = append(agg.temps, item.Main.Temp)
		agg.rain += item.Rain.ThreeHour
		if strings.HasPrefix(clock, "12") {
			v := item.Main.Temp
			agg.noon = &v
		}
	}

	var out []DaySummary
	for _, date := range order {
		if len(out) == ForecastDays {
			break
		}
		agg := days[date]
		if len(agg.temps) == 0 {
			continue
		}
		min, max, sum := agg.temps[0], agg.temps[0], 0.0
		for _, t := range agg.temps {
			if t < min {
				min = t
			}
			if t > max {
				max = t
			}
			sum += t
		}
		noon := sum / float64(len(agg.temps))
		if agg.noon != nil {
			noon = *agg.noon
		}
		out = append(out, DaySummary{
			Date:        date,
			Min:         min,
			Max:         max,
			Noon:        noon,
			Rain:        agg.rain,
			Description: agg.desc,
		})
	}

	if c.cache != nil {
		c.cache.Set("forecast", out)
	}
	return out, nil
}

// FormatCurrent renders the current conditions for chat.
func FormatCurrent(c *CurrentConditions, city string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌤 Weather now (%s)\n\n", city)
	fmt.Fprintf(&b, "🌡 %.1f°C\n", c.Temp)
	fmt.Fprintf(&b, "🤍 Feels like: %.1f°C\n", c.FeelsLike)
	fmt.Fprintf(&b, "💧 Humidity: %.0f%%\n", c.Humidity)
	fmt.Fprintf(&b, "💨 Wind: %.1f m/s\n", c.WindSpeed)
	fmt.Fprintf(&b, "☁ %s", c.Description)
	return b.String()
}

// FormatForecast renders the daily summaries for chat.
func FormatForecast(days []DaySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌤 %d-day forecast\n\n", ForecastDays)
	for _, d := range days {
		fmt.Fprintf(&b, "📅 %s\n", d.Date)
		fmt.Fprintf(&b, "🌡 Min: %.1f°C\n", d.Min)
		fmt.Fprintf(&b, "🌡 Max: %.1f°C\n", d.Max)
		fmt.Fprintf(&b, "🌞 Daytime: %.1f°C\n", d.Noon)
		fmt.Fprintf(&b, "🌧 Rain: %.1f mm\n", d.Rain)
		fmt.Fprintf(&b, "☁ %s\n\n", d.Description)
	}
	return b.String()
}
