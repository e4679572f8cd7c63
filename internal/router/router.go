package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"morningo-backend/internal/handlers"
)

func New(
	uploadHandler *handlers.UploadHandler,
	quizHandler *handlers.QuizHandler,
	geminiModel string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"ok":true,"model":%q}`, geminiModel)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.Upload)
		r.Post("/generate-quiz", quizHandler.GenerateFromText)
		r.Post("/generate-quiz-from-file", quizHandler.GenerateFromFile)
		r.Get("/quizzes", quizHandler.ListRecent)
	})

	return r
}
