package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"telemon/app/internal/models"
	"telemon/app/internal/station"
)

// HandleCurrent returns the latest reading and the liveness status.
func HandleCurrent(st *station.Station) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		out := models.CurrentPayload{
			Online: st.Online(),
			Status: st.StatusDescription(now),
		}
		if cur, ok := st.Current(); ok {
			out.Reading = &cur
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// HandleHistory returns the retained history snapshot, oldest first.
func HandleHistory(st *station.Station) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := st.History()
		if snap == nil {
			snap = []models.Reading{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.HistoryPayload{
			Count:    len(snap),
			Readings: snap,
		})
	}
}
