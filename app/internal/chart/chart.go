// Package chart renders the day's temperature history as an SVG image.
// Rendering is a pure function over a history snapshot; it never touches
// shared state.
package chart

import (
	"bytes"
	"fmt"
	"time"

	"telemon/app/internal/models"
)

const (
	width   = 800
	height  = 400
	padding = 40

	minTempC = -30.0
	maxTempC = 50.0
	hours    = 24
)

// ContentType is the MIME type of the rendered chart.
const ContentType = "image/svg+xml"

// Temperature renders a 24-hour temperature scatter chart ending at now.
// Readings outside the window are skipped.
func Temperature(readings []models.Reading, now time.Time) []byte {
	earliest := now.Add(-hours * time.Hour)

	tempToY := func(temp float64) int {
		if temp < minTempC {
			temp = minTempC
		}
		if temp > maxTempC {
			temp = maxTempC
		}
		plot := float64(height - 2*padding)
		return height - padding - int((temp-minTempC)/(maxTempC-minTempC)*plot)
	}
	timeToX := func(t time.Time) int {
		plot := float64(width - 2*padding)
		return padding + int(t.Sub(earliest).Hours()/hours*plot)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\">\n", width, height)
	buf.WriteString("<defs><circle id=\"d\" r=\"3\"/></defs>\n")
	fmt.Fprintf(&buf, "<rect width=\"%d\" height=\"%d\" fill=\"white\"/>\n", width, height)

	// Grid and axis labels
	buf.WriteString("<g stroke=\"#ddd\" stroke-width=\"1\">\n")
	for temp := minTempC; temp <= maxTempC; temp += 10 {
		y := tempToY(temp)
		fmt.Fprintf(&buf, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", padding, y, width-padding, y)
	}
	for i := 0; i <= hours; i += 4 {
		x := timeToX(earliest.Add(time.Duration(i) * time.Hour))
		fmt.Fprintf(&buf, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", x, padding, x, height-padding)
	}
	buf.WriteString("</g>\n")

	buf.WriteString("<g font-size=\"11\" fill=\"#555\">\n")
	for temp := minTempC; temp <= maxTempC; temp += 10 {
		fmt.Fprintf(&buf, "<text x=\"4\" y=\"%d\">%.0f°C</text>\n", tempToY(temp)+4, temp)
	}
	for i := 0; i <= hours; i += 4 {
		t := earliest.Add(time.Duration(i) * time.Hour)
		fmt.Fprintf(&buf, "<text x=\"%d\" y=\"%d\">%s</text>\n", timeToX(t)-14, height-padding+16, t.Format("15:04"))
	}
	buf.WriteString("</g>\n")

	// Data points
	buf.WriteString("<g fill=\"#1f77b4\">\n")
	for _, r := range readings {
		if r.Time.Before(earliest) || r.Time.After(now) {
			continue
		}
		fmt.Fprintf(&buf, "<use href=\"#d\" x=\"%d\" y=\"%d\"/>\n", timeToX(r.Time), tempToY(r.Temp))
	}
	buf.WriteString("</g>\n")

	buf.WriteString("</svg>")
	return buf.Bytes()
}
