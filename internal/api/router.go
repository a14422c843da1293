package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-audio/internal/control"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/volume", func(r chi.Router) {
			r.Post("/up", s.handleCommand(control.ActionVolumeUp, false))
			r.Post("/down", s.handleCommand(control.ActionVolumeDown, false))
			r.Post("/set", s.handleCommand(control.ActionVolumeSet, true))
			r.Post("/change", s.handleCommand(control.ActionVolumeChange, true))
			r.Post("/toggleMute", s.handleCommand(control.ActionToggleMute, false))
			r.Post("/undo", s.handleCommand(control.ActionUndo, false))
		})

		r.Get("/device", s.handleGetDevice)
		r.Route("/device", func(r chi.Router) {
			r.Post("/next", s.handleCommand(control.ActionNext, false))
			r.Post("/previous", s.handleCommand(control.ActionPrevious, false))
			r.Post("/play", s.handleCommand(control.ActionPlay, false))
			r.Post("/pause", s.handleCommand(control.ActionPause, false))
			r.Post("/stop", s.handleCommand(control.ActionStop, false))
			r.Post("/tv", s.handleCommand(control.ActionAuxInput, false))
			r.Post("/auxInput", s.handleCommand(control.ActionAuxInput, false))
		})

		r.Get("/devices", s.handleListDevices)
		r.Get("/groups", s.handleListGroups)
		r.Post("/discovery", s.handleRediscover)
		r.Get("/audit", s.handleListCommandLog)

		r.Get("/ws", s.handleWebSocket)
	})

	if s.dashboard != nil {
		r.Handle("/*", s.dashboard)
	}

	return r
}
