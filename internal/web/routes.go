package web

import (
	"github.com/crewmark/crewmark/internal/web/handlers"
	"github.com/crewmark/crewmark/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes() {
	maxUpload := int64(s.config.API.MaxUploadSize)
	expectedDim := s.config.ModelProfile(s.extractor.Model()).Dim

	recognizeHandler := handlers.NewRecognizeHandler(s.extractor, s.pipeline, maxUpload)
	enrollHandler := handlers.NewEnrollHandler(s.extractor, s.stores.Templates, s.stores.People, maxUpload, expectedDim)
	facesHandler := handlers.NewFacesHandler(s.stores.Templates)
	recordsHandler := handlers.NewRecordsHandler(s.stores.Records)
	eventsHandler := handlers.NewEventsHandler(s.stores.Events)
	peopleHandler := handlers.NewPeopleHandler(s.stores.People)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(s.config.API.Token))

			// Recognition
			r.Post("/recognize", recognizeHandler.ServeHTTP)

			// Enrollment
			r.Post("/faces/enroll", enrollHandler.ServeHTTP)
			r.Get("/faces/{personID}", facesHandler.Get)
			r.Delete("/faces/{personID}", facesHandler.Delete)

			// Attendance records
			r.Get("/records/recent", recordsHandler.Recent)
			r.Get("/records/today", recordsHandler.Today)
			r.Get("/records/stats", recordsHandler.Stats)

			// Reference data
			r.Get("/events", eventsHandler.List)
			r.Get("/people", peopleHandler.Search)
		})
	})
}
