package models

import "time"

// Reading is one timestamped measurement triple pushed by the sensor.
// Immutable once created.
type Reading struct {
	Time time.Time `json:"time"`
	Temp float64   `json:"t"`
	Hum  float64   `json:"h"`
	Pres float64   `json:"p"`
}

// CurrentPayload is the JSON shape served by /api/current.
type CurrentPayload struct {
	Online  bool     `json:"online"`
	Status  string   `json:"status"`
	Reading *Reading `json:"reading,omitempty"`
}

// HistoryPayload is the JSON shape served by /api/history.
type HistoryPayload struct {
	Count    int       `json:"count"`
	Readings []Reading `json:"readings"`
}
