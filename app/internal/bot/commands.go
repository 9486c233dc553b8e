package bot

import (
	"context"
	"log"
	"strconv"
	"time"

	"telemon/app/internal/chart"
	"telemon/app/internal/weather"
)

// Button labels shown on the reply keyboards.
const (
	btnTemperature = "🌡 Temperature"
	btnHistory     = "📈 Day history"
	btnWeather     = "🌤 Weather"
	btnWeatherNow  = "Now"
	btnWeather3d   = "3 days"
	btnBack        = "Back"
)

const msgUpstreamDown = "Sorry, the weather service is unavailable right now 😢"

var mainKeyboard = &replyKeyboard{
	Keyboard:       [][]string{{btnTemperature}, {btnHistory}, {btnWeather}},
	ResizeKeyboard: true,
}

var weatherKeyboard = &replyKeyboard{
	Keyboard:       [][]string{{btnWeatherNow, btnWeather3d}, {btnBack}},
	ResizeKeyboard: true,
}

// handle routes one incoming message. Errors are logged; a chat that cannot
// be answered is never allowed to affect anything else.
func (b *Bot) handle(ctx context.Context, chatID int64, text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bot: handler panic recovered (chat %d): %v", chatID, r)
		}
	}()

	var err error
	switch text {
	case "/start", btnBack:
		b.registry.Add(chatID)
		err = b.sendMessage(ctx, chatID, "Hi 👋 I relay the sensor's readings. Pick an option below.", mainKeyboard)
	case btnTemperature:
		err = b.sendTemperature(ctx, chatID)
	case btnHistory:
		err = b.sendHistoryChart(ctx, chatID)
	case btnWeather:
		err = b.sendMessage(ctx, chatID, "Choose a forecast:", weatherKeyboard)
	case btnWeatherNow:
		err = b.sendWeatherNow(ctx, chatID)
	case btnWeather3d:
		err = b.sendWeatherForecast(ctx, chatID)
	default:
		// Unknown input gets the menu again rather than silence.
		err = b.sendMessage(ctx, chatID, "Pick an option below.", mainKeyboard)
	}
	if err != nil {
		log.Printf("bot: reply to chat %d failed: %v", chatID, err)
	}
}

func (b *Bot) sendTemperature(ctx context.Context, chatID int64) error {
	cur, ok := b.station.Current()
	if !ok {
		return b.sendMessage(ctx, chatID, "No data yet", nil)
	}

	text := "🕒 " + cur.Time.Format("15:04:05") + "\n" +
		"🌡 " + formatFloat(cur.Temp) + " °C\n" +
		"💧 " + formatFloat(cur.Hum) + " %\n" +
		"📈 " + formatFloat(cur.Pres) + " hPa\n\n" +
		b.station.StatusDescription(time.Now())
	return b.sendMessage(ctx, chatID, text, nil)
}

func (b *Bot) sendHistoryChart(ctx context.Context, chatID int64) error {
	snap := b.station.History()
	if len(snap) == 0 {
		return b.sendMessage(ctx, chatID, "History is empty", nil)
	}

	svg := chart.Temperature(snap, time.Now().In(b.station.Location()))
	return b.sendDocument(ctx, chatID, "temp_day.svg", svg)
}

func (b *Bot) sendWeatherNow(ctx context.Context, chatID int64) error {
	if b.weather == nil {
		return b.sendMessage(ctx, chatID, "Weather lookups are not configured", nil)
	}
	cur, err := b.weather.Current(ctx)
	if err != nil {
		log.Printf("bot: weather lookup failed: %v", err)
		return b.sendMessage(ctx, chatID, msgUpstreamDown, nil)
	}
	return b.sendMessage(ctx, chatID, weather.FormatCurrent(cur, b.weather.City()), nil)
}

func (b *Bot) sendWeatherForecast(ctx context.Context, chatID int64) error {
	if b.weather == nil {
		return b.sendMessage(ctx, chatID, "Weather lookups are not configured", nil)
	}
	days, err := b.weather.Forecast(ctx)
	if err != nil {
		log.Printf("bot: forecast lookup failed: %v", err)
		return b.sendMessage(ctx, chatID, msgUpstreamDown, nil)
	}
	return b.sendMessage(ctx, chatID, weather.FormatForecast(days), nil)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
