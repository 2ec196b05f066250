// Package handler exposes register, login, logout, and the current-user
// endpoint over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taskboard/backend/internal/auth/service"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/platform/apperror"
	"taskboard/backend/internal/platform/authz"
	"taskboard/backend/internal/platform/web"
	"taskboard/backend/internal/policy/engine"
	"taskboard/backend/internal/server/middleware"
)

type Handler struct {
	svc      *service.AuthService
	eval     engine.Evaluator
	strategy string
	log      *zap.SugaredLogger
}

func New(svc *service.AuthService, eval engine.Evaluator, strategy string, log *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, eval: eval, strategy: strategy, log: log}
}

// Register mounts the auth routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/users/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/users/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/users/logout", h.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/users/me", h.handleMe).Methods(http.MethodGet)
}

type userView struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// registerRequest deliberately has no admin field; any admin flag in the
// body is discarded.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, h.log, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		web.Error(w, h.log, mapAuthErr(err))
		return
	}
	web.Respond(w, http.StatusCreated, userView{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, h.log, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		web.Error(w, h.log, mapAuthErr(err))
		return
	}
	user := userView{ID: res.User.ID, Email: res.User.Email, IsAdmin: res.User.IsAdmin}
	if h.strategy == config.StrategySession {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    res.Credential,
			Path:     "/",
			Expires:  res.ExpiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		web.Respond(w, http.StatusOK, map[string]interface{}{"user": user})
		return
	}
	web.Respond(w, http.StatusOK, map[string]interface{}{
		"token":      res.Credential,
		"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
		"user":       user,
	})
}

// handleLogout succeeds for any caller, identified or not. Revocation
// completes before the response is written.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), middleware.GetCredential(r.Context())); err != nil {
		web.Error(w, h.log, err)
		return
	}
	if h.strategy == config.StrategySession {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	web.Message(w, http.StatusOK, "logged out")
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, err := authz.Require(r.Context(), h.eval, engine.ActionUserMe, engine.Resource{})
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	web.Respond(w, http.StatusOK, userView{ID: claims.UserID, Email: claims.Email, IsAdmin: claims.IsAdmin})
}

func mapAuthErr(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return apperror.New(apperror.KindValidation, "invalid input").
			WithFields(map[string]string{"email": err.Error()})
	case errors.Is(err, service.ErrPasswordTooShort):
		return apperror.New(apperror.KindValidation, "invalid input").
			WithFields(map[string]string{"password": err.Error()})
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return apperror.New(apperror.KindConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		// 401 is reserved for missing or invalid identity assertions.
		return apperror.New(apperror.KindValidation, err.Error())
	default:
		return err
	}
}
