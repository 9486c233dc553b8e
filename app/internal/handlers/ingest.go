package handlers

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"telemon/app/internal/ratelimit"
	"telemon/app/internal/station"
)

// HandleUpdate accepts one sensor push: /update?t=<float>&h=<float>&p=<float>.
// Any missing or non-numeric field rejects the push without touching state.
func HandleUpdate(st *station.Station, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if limiter != nil && !limiter.Allow(clientIP(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		q := r.URL.Query()
		t, errT := strconv.ParseFloat(q.Get("t"), 64)
		h, errH := strconv.ParseFloat(q.Get("h"), 64)
		p, errP := strconv.ParseFloat(q.Get("p"), 64)
		if errT != nil || errH != nil || errP != nil {
			http.Error(w, "BAD DATA", http.StatusBadRequest)
			return
		}

		if _, ok := st.Ingest(t, h, p, time.Now()); !ok {
			http.Error(w, "BAD DATA", http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// HandleHome is the root health check.
func HandleHome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Telemetry relay is running"))
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
