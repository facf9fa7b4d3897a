package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance-kiosk/internal/web/handlers"
	"github.com/kozaktomas/attendance-kiosk/internal/web/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/web/static"
)

func (s *Server) setupRoutes() {
	sessionHandler := handlers.NewSessionHandler(s.deps.Machine)
	draftHandler := handlers.NewDraftHandler(s.deps.Drafts)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Roster)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Registration form
		r.Get("/draft", draftHandler.Get)
		r.Put("/draft", draftHandler.Put)
		r.Delete("/draft", draftHandler.Delete)

		// Capture session
		r.Post("/session", sessionHandler.Start)
		r.Get("/session", sessionHandler.Get)
		r.Delete("/session", sessionHandler.Close)
		r.Post("/session/capture", sessionHandler.Capture)
		r.Post("/session/retry", sessionHandler.Retry)
		r.Get("/session/events", sessionHandler.Events)
		r.Get("/thumbnail", sessionHandler.Thumbnail)

		// Roster
		r.Get("/attendance", attendanceHandler.List)
		r.Post("/attendance/refresh", attendanceHandler.Refresh)

		if s.deps.Journal != nil {
			r.Get("/history", handlers.NewHistoryHandler(s.deps.Journal).List)
		}
	})

	// Status page
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders())
		r.Handle("/*", http.FileServer(static.GetFileSystem()))
	})
}
