package api

import (
	"github.com/go-chi/chi/v5"
)

// Handlers groups the bridge API handlers.
type Handlers struct {
	Jobs    *JobHandler
	Quizzes *QuizHandler
	History *HistoryHandler
	System  *SystemHandler
	PYQ     *PYQHandler
}

// Mount registers every bridge route on r.
func Mount(r chi.Router, h Handlers) {
	r.Get("/health", h.System.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/preferences", h.System.GetPreferences)
		r.Put("/preferences", h.System.UpdatePreferences)
		r.Post("/pyq/analyze", h.PYQ.AnalyzePYQ)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/current", h.Jobs.GetCurrentJob)
			r.Delete("/current", h.Jobs.CancelJob)
			r.Post("/{kind}", h.Jobs.SubmitJob)
			r.Get("/{id}/result", h.Jobs.GetResult)
			r.Post("/{id}/translate", h.Jobs.TranslateResult)
			r.Get("/{id}/attempts", h.Quizzes.ListAttempts)
		})

		r.Route("/quizzes", func(r chi.Router) {
			r.Post("/", h.Quizzes.StartQuiz)
			r.Get("/{id}", h.Quizzes.GetQuiz)
			r.Delete("/{id}", h.Quizzes.EndQuiz)
			r.Post("/{id}/answer", h.Quizzes.AnswerQuestion)
			r.Post("/{id}/reveal", h.Quizzes.RevealAnswer)
			r.Post("/{id}/advance", h.Quizzes.AdvanceQuiz)
			r.Post("/{id}/retake", h.Quizzes.RetakeQuiz)
			r.Get("/{id}/score", h.Quizzes.GetScore)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.History.ListHistory)
			r.Delete("/{id}", h.History.DeleteHistory)
			r.Get("/{id}/download", h.History.DownloadHistory)
		})
	})
}
