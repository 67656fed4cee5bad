package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	Events     *EventHandler
	Snapshots  *SnapshotHandler
	Clients    *ClientHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := chi.NewRouter()

	for _, mw := range cfg.Middleware {
		if mw != nil {
			router.Use(mw)
		}
	}

	if cfg.Events != nil {
		router.Route("/events", func(r chi.Router) {
			r.Get("/", cfg.Events.List)
			r.Post("/", cfg.Events.Create)

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", cfg.Events.Get)
				r.Put("/", cfg.Events.Update)
				r.Delete("/", cfg.Events.Delete)
				r.Get("/lock", cfg.Events.LockInfo)
				r.Get("/overrides", cfg.Events.ListOverrides)

				if cfg.Snapshots != nil {
					r.Route("/versions", func(r chi.Router) {
						r.Get("/", cfg.Snapshots.List)
						r.Post("/", cfg.Snapshots.Create)
						r.Get("/{versionNumber}", cfg.Snapshots.Get)
					})
				}
			})
		})
	}

	if cfg.Clients != nil {
		router.Route("/clients", func(r chi.Router) {
			r.Get("/", cfg.Clients.List)
			r.Post("/", cfg.Clients.Create)
			r.Get("/{clientID}", cfg.Clients.Get)
		})
	}

	return router
}
