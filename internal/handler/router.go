package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	chathandler "github.com/iroha-ai/backend/internal/handler/chat"
	personahandler "github.com/iroha-ai/backend/internal/handler/persona"
	sessionhandler "github.com/iroha-ai/backend/internal/handler/session"
	voicehandler "github.com/iroha-ai/backend/internal/handler/voice"
	wshandler "github.com/iroha-ai/backend/internal/handler/ws"
	"github.com/iroha-ai/backend/internal/middleware"
	"github.com/iroha-ai/backend/internal/model/persona"
	aiservice "github.com/iroha-ai/backend/internal/service/ai"
	chatstore "github.com/iroha-ai/backend/internal/service/chat"
	voiceservice "github.com/iroha-ai/backend/internal/service/voice"
	"github.com/iroha-ai/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. The voice service may be
// nil; its routes are simply not mounted then.
func NewRouter(personas *persona.Registry, store *chatstore.Store, aiSvc *aiservice.Service, voiceSvc *voiceservice.Service, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)

		personahandler.New(personas).RegisterRoutes(api)
		chathandler.New(aiSvc).RegisterRoutes(api)
		sessionhandler.New(store, personas, aiSvc).RegisterRoutes(api)
		wshandler.New(aiSvc, log).RegisterRoutes(api)

		if voiceSvc != nil {
			voicehandler.New(voiceSvc).RegisterRoutes(api)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Iroha backend is running",
	})
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}
