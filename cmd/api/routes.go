package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.RateLimiter)
	router.Use(app.Authenticate)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/signup", app.signup)
			r.Post("/login", app.login)
			r.Group(func(r chi.Router) {
				r.Use(app.requireSession)
				r.Post("/logout", app.logout)
				r.Get("/credentials", app.getCredentials)
				r.Put("/credentials", app.saveCredentials)
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(app.requireSession)
			r.Route("/movies", func(r chi.Router) {
				r.Get("/", app.listMovies)
				r.Post("/choice", app.chooseMovie)
				r.Post("/details", app.applyDetails)
			})
			r.Route("/metadata", func(r chi.Router) {
				r.Get("/search", app.searchCandidates)
				r.Post("/choice", app.chooseCandidate)
			})
			r.Route("/posters", func(r chi.Router) {
				r.Get("/", app.listPosters)
				r.Post("/choice", app.choosePoster)
			})
		})
	})
	return router
}
