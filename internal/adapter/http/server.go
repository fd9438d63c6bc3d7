package http

import (
	"context"
	"net/http"

	"github.com/soberano/soberano/internal/adapter/http/middleware"
)

type Deps struct {
	// Ctx bounds background work started by requests, such as video runs
	// and engine loads, which outlive the request itself.
	Ctx         context.Context
	Queue       ImageQueue
	Engine      EngineControl
	Video       VideoControl
	Downloads   DownloadSource
	Events      Subscriber
	MaxUploadMB int
	Version     string
	CSRFSecret  []byte
}

type Server struct {
	mux        *http.ServeMux
	handlers   *Handlers
	sseHandler *SSEHandler
	videoWS    *VideoSocket
	csrf       *middleware.CSRFProtection
}

func NewServer(d Deps) *Server {
	ctx := d.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	handlers := NewHandlers(ctx, d.Queue, d.Engine, d.Video, d.Downloads, d.MaxUploadMB, d.Version)

	s := &Server{
		mux:        http.NewServeMux(),
		handlers:   handlers,
		sseHandler: NewSSEHandler(d.Events, handlers),
		videoWS:    NewVideoSocket(d.Events, d.Video),
		csrf:       middleware.NewCSRFProtection(d.CSRFSecret),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handlers.Dashboard())

	s.mux.HandleFunc("POST /images", s.handlers.EnqueueImages())
	s.mux.HandleFunc("GET /images", s.handlers.ListImages())
	s.mux.HandleFunc("DELETE /images", s.handlers.ClearImages())
	s.mux.HandleFunc("GET /images/{id}/download", s.handlers.DownloadImage())
	s.mux.HandleFunc("DELETE /images/{id}", s.handlers.RemoveImage())

	s.mux.HandleFunc("GET /events", s.sseHandler.Events())

	s.mux.HandleFunc("GET /engine", s.handlers.EngineStatus())
	s.mux.HandleFunc("POST /engine/load", s.handlers.LoadEngine())
	s.mux.HandleFunc("POST /engine/retry", s.handlers.RetryEngine())

	s.mux.HandleFunc("POST /video", s.handlers.StartVideo())
	s.mux.HandleFunc("GET /video", s.handlers.VideoStatus())
	s.mux.HandleFunc("GET /video/ws", s.videoWS.Handle())

	s.mux.HandleFunc("GET /downloads/{token}", s.handlers.Download())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.SecurityHeaders(s.csrf.Middleware(s.mux)).ServeHTTP(w, r)
}
