package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/lecgen/internal/api"
	apiMiddleware "github.com/phrazzld/lecgen/internal/api/middleware"
)

// setupRouter creates the router with middleware and every API route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	api.Mount(r, api.Handlers{
		Jobs:    api.NewJobHandler(app.tracker, app.results, app.logger),
		Quizzes: api.NewQuizHandler(app.quizzes, app.logger),
		History: api.NewHistoryHandler(app.client, app.results, app.quizzes, app.logger),
		System:  api.NewSystemHandler(app.client, app.preferences, app.logger),
		PYQ:     api.NewPYQHandler(app.client, app.logger),
	})

	return r
}
