package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/peloton/internal/model"
)

func addRoutes(r chi.Router, anim model.Config, tour *model.Tour) {
	r.Get("/healthz", handleHealth(tour))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stages", handleStages(tour))
		r.Get("/stages/{ordinal}", handleStage(tour))
		r.Get("/riders", handleRiders(tour))
		r.Get("/frame", handleFrame(anim, tour))
	})
}
