package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/standings"
	"github.com/verte-zerg/peloton/internal/timeline"
)

const (
	defaultFrameWidth  = 1000
	defaultFrameHeight = 600
	maxFrameSize       = 10000
)

func handleHealth(tour *model.Tour) http.HandlerFunc {
	type result struct {
		Status string `json:"status"`
		Stages int    `json:"stages"`
		Riders int    `json:"riders"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, result{Status: "ok", Stages: len(tour.Stages), Riders: len(tour.Riders)})
	}
}

func handleStages(tour *model.Tour) http.HandlerFunc {
	type stageSummary struct {
		Ordinal     int    `json:"ordinal"`
		Index       string `json:"index"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Date        string `json:"date"`
		Riders      int    `json:"riders"`
		Leader      string `json:"leader"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]stageSummary, 0, len(tour.Stages))
		for _, st := range tour.Stages {
			leader, _ := standings.Leader(st)
			out = append(out, stageSummary{
				Ordinal:     st.Ordinal,
				Index:       st.Index,
				Description: st.Description,
				Type:        st.Type,
				Date:        st.Date,
				Riders:      len(st.Riders),
				Leader:      leader.Name,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleStage(tour *model.Tour) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid stage ordinal")
			return
		}
		for i := range tour.Stages {
			if tour.Stages[i].Ordinal == ordinal {
				writeJSON(w, http.StatusOK, tour.Stages[i])
				return
			}
		}
		writeError(w, http.StatusNotFound, "stage not found")
	}
}

func handleRiders(tour *model.Tour) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]model.RiderSummary, 0, len(tour.Riders))
		for _, rider := range tour.Riders {
			out = append(out, *rider)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		writeJSON(w, http.StatusOK, out)
	}
}

func handleFrame(anim model.Config, tour *model.Tour) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		at, err := floatParam(q.Get("at"), 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid at")
			return
		}
		width, err := floatParam(q.Get("width"), defaultFrameWidth)
		if err != nil || width <= 0 || width > maxFrameSize {
			writeError(w, http.StatusBadRequest, "invalid width")
			return
		}
		height, err := floatParam(q.Get("height"), defaultFrameHeight)
		if err != nil || height <= 0 || height > maxFrameSize {
			writeError(w, http.StatusBadRequest, "invalid height")
			return
		}

		margin := float64(anim.Margin)
		frame, err := timeline.FrameAt(tour, at, timeline.Viewport{
			WindowSeconds:  anim.WindowSeconds,
			PenaltySeconds: anim.PenaltySecs,
			MarginLeft:     margin,
			MarginRight:    width - margin,
			Top:            0,
			Bottom:         height,
		})
		switch {
		case errors.Is(err, timeline.ErrInvalidIndex):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, frame)
	}
}

func floatParam(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}
