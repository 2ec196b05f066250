// Package handler exposes user listing and admin promotion over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taskboard/backend/internal/platform/apperror"
	"taskboard/backend/internal/platform/authz"
	"taskboard/backend/internal/platform/web"
	"taskboard/backend/internal/policy/engine"
	"taskboard/backend/internal/user/repository"
)

type Handler struct {
	users repository.Repository
	eval  engine.Evaluator
	log   *zap.SugaredLogger
}

func New(users repository.Repository, eval engine.Evaluator, log *zap.SugaredLogger) *Handler {
	return &Handler{users: users, eval: eval, log: log}
}

// Register mounts the user routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/users", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/promote", h.handlePromote).Methods(http.MethodPost)
}

type userView struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionUserList, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	users, err := h.users.List(r.Context())
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin})
	}
	web.Respond(w, http.StatusOK, views)
}

func (h *Handler) handlePromote(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionUserPromote, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		web.Error(w, h.log, apperror.New(apperror.KindValidation, "invalid user id"))
		return
	}
	found, err := h.users.SetAdmin(r.Context(), id, true)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	if !found {
		web.Error(w, h.log, apperror.New(apperror.KindNotFound, "user not found"))
		return
	}
	u, err := h.users.GetByID(r.Context(), id)
	if err != nil || u == nil {
		web.Error(w, h.log, err)
		return
	}
	web.Respond(w, http.StatusOK, userView{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin})
}
