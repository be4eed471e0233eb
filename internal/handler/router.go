package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/handler/chat"
	interviewhandler "github.com/zhouzirui/interview-sim/backend/internal/handler/interview"
	"github.com/zhouzirui/interview-sim/backend/internal/handler/persona"
	"github.com/zhouzirui/interview-sim/backend/internal/handler/speech"
	middlewarePkg "github.com/zhouzirui/interview-sim/backend/internal/middleware"
	personaModel "github.com/zhouzirui/interview-sim/backend/internal/model/persona"
	interviewService "github.com/zhouzirui/interview-sim/backend/internal/service/interview"
	"github.com/zhouzirui/interview-sim/backend/internal/service/storage"
	"github.com/zhouzirui/interview-sim/backend/pkg/utils"
)

// Services is everything the router wires into handlers.
type Services struct {
	Personas  personaModel.Store
	Engine    *interviewService.Engine
	Interview interviewhandler.Deps

	// Synthesizer and Renderer enable the /speech routes when both are set.
	Synthesizer speech.Synthesizer
	Renderer    speech.Renderer

	// RecordingsDir is served under storage.RoutePrefix when set.
	RecordingsDir string
	PingInterval  time.Duration
	Connections   *chat.ConnectionManager
	Log           *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(svc.Log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if svc.RecordingsDir != "" {
		files := http.StripPrefix(storage.RoutePrefix, http.FileServer(http.Dir(svc.RecordingsDir)))
		r.Handle(storage.RoutePrefix+"/*", files)
	}

	wsHandler := chat.NewWebSocketHandler(svc.Engine, svc.Engine.Store(), chat.Options{
		PingInterval: svc.PingInterval,
		Manager:      svc.Connections,
		Log:          svc.Log,
	})

	r.Route("/interview", func(api chi.Router) {
		interviewhandler.New(svc.Interview).RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)
		persona.New(svc.Personas).RegisterRoutes(api)

		if svc.Synthesizer != nil && svc.Renderer != nil {
			speech.New(svc.Synthesizer, svc.Renderer, svc.Log).RegisterRoutes(api)
		}
	})

	return r
}
