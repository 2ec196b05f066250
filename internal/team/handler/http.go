// Package handler exposes team CRUD and membership roster management
// over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taskboard/backend/internal/db"
	membershiprepo "taskboard/backend/internal/membership/repository"
	"taskboard/backend/internal/platform/apperror"
	"taskboard/backend/internal/platform/authz"
	"taskboard/backend/internal/platform/web"
	"taskboard/backend/internal/policy/engine"
	"taskboard/backend/internal/server/middleware"
	"taskboard/backend/internal/team/domain"
	teamrepo "taskboard/backend/internal/team/repository"
)

type Handler struct {
	teams   teamrepo.Repository
	members membershiprepo.Repository
	eval    engine.Evaluator
	log     *zap.SugaredLogger
}

func New(teams teamrepo.Repository, members membershiprepo.Repository, eval engine.Evaluator, log *zap.SugaredLogger) *Handler {
	return &Handler{teams: teams, members: members, eval: eval, log: log}
}

// Register mounts the team and membership routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/teams", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/teams", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/teams/{id}", h.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/teams/{id}", h.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/teams/{id}/members", h.handleListMembers).Methods(http.MethodGet)
	r.HandleFunc("/teams/{id}/members", h.handleAddMembers).Methods(http.MethodPost)
	r.HandleFunc("/teams/{id}/members/{userId}", h.handleRemoveMember).Methods(http.MethodDelete)
}

type teamView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CreatorID    int64  `json:"creator_id"`
	CreatorEmail string `json:"creator_email"`
}

func toTeamView(t *domain.Team) teamView {
	return teamView{ID: t.ID, Name: t.Name, CreatorID: t.CreatorID, CreatorEmail: t.CreatorEmail}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	claims, err := authz.Require(r.Context(), h.eval, engine.ActionTeamList, engine.Resource{})
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	var teams []domain.Team
	if claims.IsAdmin {
		teams, err = h.teams.ListAll(r.Context())
	} else {
		teams, err = h.teams.ListForUser(r.Context(), claims.UserID)
	}
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	views := make([]teamView, 0, len(teams))
	for i := range teams {
		views = append(views, toTeamView(&teams[i]))
	}
	web.Respond(w, http.StatusOK, views)
}

type createTeamRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims, err := authz.Require(r.Context(), h.eval, engine.ActionTeamCreate, engine.Resource{})
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	var req createTeamRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, h.log, err)
		return
	}
	team := &domain.Team{Name: req.Name, CreatorID: claims.UserID}
	if err := team.Validate(); err != nil {
		web.Error(w, h.log, apperror.Wrap(apperror.KindValidation, err.Error(), err))
		return
	}
	id, err := h.teams.Create(r.Context(), team)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	team.ID = id
	team.CreatorEmail = claims.Email
	web.Respond(w, http.StatusCreated, toTeamView(team))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionTeamUpdate, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	id, ok := pathID(w, h.log, r, "id")
	if !ok {
		return
	}
	var req createTeamRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, h.log, err)
		return
	}
	if req.Name == "" {
		web.Error(w, h.log, apperror.New(apperror.KindValidation, "name is required"))
		return
	}
	found, err := h.teams.Update(r.Context(), id, req.Name)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	if !found {
		web.Error(w, h.log, apperror.New(apperror.KindNotFound, "team not found"))
		return
	}
	team, err := h.teams.GetByID(r.Context(), id)
	if err != nil || team == nil {
		web.Error(w, h.log, err)
		return
	}
	web.Respond(w, http.StatusOK, toTeamView(team))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionTeamDelete, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	id, ok := pathID(w, h.log, r, "id")
	if !ok {
		return
	}
	found, err := h.teams.Delete(r.Context(), id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	if !found {
		web.Error(w, h.log, apperror.New(apperror.KindNotFound, "team not found"))
		return
	}
	web.Message(w, http.StatusOK, "team deleted")
}

type memberView struct {
	UserID int64  `json:"user_id"`
	TeamID int64  `json:"team_id"`
	Email  string `json:"email"`
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, h.log, r, "id")
	if !ok {
		return
	}
	res, err := h.membershipResource(r, id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionTeamMembersList, res); err != nil {
		web.Error(w, h.log, err)
		return
	}
	team, err := h.teams.GetByID(r.Context(), id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	if team == nil {
		web.Error(w, h.log, apperror.New(apperror.KindNotFound, "team not found"))
		return
	}
	members, err := h.members.ListByTeam(r.Context(), id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{UserID: m.UserID, TeamID: m.TeamID, Email: m.UserEmail})
	}
	web.Respond(w, http.StatusOK, views)
}

type addMembersRequest struct {
	UserIDs []int64 `json:"userIds"`
}

func (h *Handler) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionTeamMembersAdd, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	id, ok := pathID(w, h.log, r, "id")
	if !ok {
		return
	}
	var req addMembersRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, h.log, err)
		return
	}
	if len(req.UserIDs) == 0 {
		web.Error(w, h.log, apperror.New(apperror.KindValidation, "userIds must not be empty"))
		return
	}
	if err := h.members.AddMembers(r.Context(), id, req.UserIDs); err != nil {
		switch {
		case db.IsUniqueViolation(err):
			web.Error(w, h.log, apperror.Wrap(apperror.KindConflict, "user is already a member", err))
		case db.IsForeignKeyViolation(err):
			web.Error(w, h.log, apperror.Wrap(apperror.KindDependency, "unknown team or user", err))
		default:
			web.Error(w, h.log, err)
		}
		return
	}
	web.Message(w, http.StatusCreated, "members added")
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionTeamMembersRemove, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	teamID, ok := pathID(w, h.log, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, h.log, r, "userId")
	if !ok {
		return
	}
	found, err := h.members.Remove(r.Context(), teamID, userID)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	if !found {
		web.Error(w, h.log, apperror.New(apperror.KindNotFound, "membership not found"))
		return
	}
	web.Message(w, http.StatusOK, "member removed")
}

// membershipResource reports whether the caller created or belongs to the
// team, for the policy's member-visibility rule. Admins skip the lookups.
func (h *Handler) membershipResource(r *http.Request, teamID int64) (engine.Resource, error) {
	claims := middleware.GetIdentity(r.Context())
	if claims == nil || claims.IsAdmin {
		return engine.Resource{}, nil
	}
	team, err := h.teams.GetByID(r.Context(), teamID)
	if err != nil {
		return engine.Resource{}, err
	}
	if team != nil && team.CreatorID == claims.UserID {
		return engine.Resource{IsMember: true}, nil
	}
	m, err := h.members.Get(r.Context(), teamID, claims.UserID)
	if err != nil {
		return engine.Resource{}, err
	}
	return engine.Resource{IsMember: m != nil}, nil
}

func pathID(w http.ResponseWriter, log *zap.SugaredLogger, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		web.Error(w, log, apperror.New(apperror.KindValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}
