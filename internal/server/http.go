// Package server assembles the HTTP router and owns server lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taskboard/backend/internal/auth"
	authhandler "taskboard/backend/internal/auth/handler"
	"taskboard/backend/internal/platform/web"
	"taskboard/backend/internal/server/middleware"
	taskhandler "taskboard/backend/internal/task/handler"
	teamhandler "taskboard/backend/internal/team/handler"
	userhandler "taskboard/backend/internal/user/handler"
)

// Deps holds everything the router needs.
type Deps struct {
	Asserter       auth.Asserter
	AuthHandler    *authhandler.Handler
	UserHandler    *userhandler.Handler
	TeamHandler    *teamhandler.Handler
	TaskHandler    *taskhandler.Handler
	AllowedOrigins []string
	Log            *zap.SugaredLogger
}

// NewRouter builds the full route tree. The health endpoint sits outside
// /api and skips authentication.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(middleware.Logging(d.Log))

	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Authenticate(d.Asserter))
	api.NotFoundHandler = http.HandlerFunc(handleNotFound)

	d.AuthHandler.Register(api)
	d.UserHandler.Register(api)
	d.TeamHandler.Register(api)
	d.TaskHandler.Register(api)

	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	web.Respond(w, http.StatusOK, map[string]string{"status": "OK"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	web.Message(w, http.StatusNotFound, "not found")
}

// Server wraps http.Server with a graceful shutdown.
type Server struct {
	srv *http.Server
	log *zap.SugaredLogger
}

func New(addr string, handler http.Handler, log *zap.SugaredLogger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start serves until the listener closes. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.log.Infow("http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
