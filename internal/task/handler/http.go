// Package handler exposes task CRUD over HTTP. Reads are scoped by role;
// writes are admin only.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taskboard/backend/internal/db"
	"taskboard/backend/internal/platform/apperror"
	"taskboard/backend/internal/platform/authz"
	"taskboard/backend/internal/platform/web"
	"taskboard/backend/internal/policy/engine"
	"taskboard/backend/internal/task/domain"
	taskrepo "taskboard/backend/internal/task/repository"
)

const dateLayout = "2006-01-02"

type Handler struct {
	tasks taskrepo.Repository
	eval  engine.Evaluator
	log   *zap.SugaredLogger
}

func New(tasks taskrepo.Repository, eval engine.Evaluator, log *zap.SugaredLogger) *Handler {
	return &Handler{tasks: tasks, eval: eval, log: log}
}

// Register mounts the task routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/tasks", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/tasks", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", h.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/tasks/{id}", h.handleDelete).Methods(http.MethodDelete)
}

type taskView struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	DueDate       *string `json:"due_date"`
	TeamID        int64   `json:"team_id"`
	TeamName      string  `json:"team_name"`
	AssignedTo    *int64  `json:"assigned_to"`
	AssigneeEmail *string `json:"assignee_email"`
}

func toTaskView(t *domain.Task) taskView {
	v := taskView{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		TeamID:        t.TeamID,
		TeamName:      t.TeamName,
		AssignedTo:    t.AssignedTo,
		AssigneeEmail: t.AssigneeEmail,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(dateLayout)
		v.DueDate = &d
	}
	return v
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	claims, err := authz.Require(r.Context(), h.eval, engine.ActionTaskList, engine.Resource{})
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	var teamID *int64
	if raw := r.URL.Query().Get("team_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			web.Error(w, h.log, apperror.New(apperror.KindValidation, "invalid team_id"))
			return
		}
		teamID = &id
	}
	var tasks []domain.Task
	if claims.IsAdmin {
		if teamID != nil {
			tasks, err = h.tasks.ListByTeam(r.Context(), *teamID)
		} else {
			tasks, err = h.tasks.ListAll(r.Context())
		}
	} else {
		// Members only ever see their own assignments, with or without
		// the team filter.
		tasks, err = h.tasks.ListForAssignee(r.Context(), claims.UserID, teamID)
	}
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	views := make([]taskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, toTaskView(&tasks[i]))
	}
	web.Respond(w, http.StatusOK, views)
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	TeamID      int64  `json:"team_id"`
	AssignedTo  *int64 `json:"assigned_to"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionTaskCreate, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	var req createTaskRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, h.log, err)
		return
	}
	task := &domain.Task{
		Title:       req.Title,
		Description: req.Description,
		TeamID:      req.TeamID,
		AssignedTo:  req.AssignedTo,
	}
	if req.DueDate != "" {
		d, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			web.Error(w, h.log, apperror.New(apperror.KindValidation, "due_date must be YYYY-MM-DD"))
			return
		}
		task.DueDate = &d
	}
	if err := task.Validate(); err != nil {
		web.Error(w, h.log, apperror.Wrap(apperror.KindValidation, err.Error(), err))
		return
	}
	id, err := h.tasks.Create(r.Context(), task)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			web.Error(w, h.log, apperror.Wrap(apperror.KindDependency, "unknown team or assignee", err))
			return
		}
		web.Error(w, h.log, err)
		return
	}
	created, err := h.tasks.GetByID(r.Context(), id)
	if err != nil || created == nil {
		web.Error(w, h.log, err)
		return
	}
	web.Respond(w, http.StatusCreated, toTaskView(created))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionTaskUpdate, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		web.Error(w, h.log, apperror.New(apperror.KindValidation, "invalid task id"))
		return
	}
	patch, err := decodePatch(r)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	found, err := h.tasks.Update(r.Context(), id, patch)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			web.Error(w, h.log, apperror.Wrap(apperror.KindDependency, "unknown assignee", err))
			return
		}
		web.Error(w, h.log, err)
		return
	}
	if !found {
		web.Error(w, h.log, apperror.New(apperror.KindNotFound, "task not found"))
		return
	}
	updated, err := h.tasks.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		web.Error(w, h.log, err)
		return
	}
	web.Respond(w, http.StatusOK, toTaskView(updated))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.Require(r.Context(), h.eval, engine.ActionTaskDelete, engine.Resource{}); err != nil {
		web.Error(w, h.log, err)
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		web.Error(w, h.log, apperror.New(apperror.KindValidation, "invalid task id"))
		return
	}
	found, err := h.tasks.Delete(r.Context(), id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}
	if !found {
		web.Error(w, h.log, apperror.New(apperror.KindNotFound, "task not found"))
		return
	}
	web.Message(w, http.StatusOK, "task deleted")
}

// decodePatch reads a partial update body. Absent fields stay untouched;
// explicit nulls clear due_date and assigned_to.
func decodePatch(r *http.Request) (*domain.Patch, error) {
	var raw map[string]json.RawMessage
	if err := web.Decode(r, &raw); err != nil {
		return nil, err
	}
	patch := &domain.Patch{}
	if v, ok := raw["title"]; ok {
		var title string
		if err := json.Unmarshal(v, &title); err != nil || title == "" {
			return nil, apperror.New(apperror.KindValidation, "title must be a non-empty string")
		}
		patch.Title = &title
	}
	if v, ok := raw["description"]; ok {
		var description string
		if err := json.Unmarshal(v, &description); err != nil {
			return nil, apperror.New(apperror.KindValidation, "description must be a string")
		}
		patch.Description = &description
	}
	if v, ok := raw["due_date"]; ok {
		if string(v) == "null" {
			patch.ClearDueDate = true
		} else {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, apperror.New(apperror.KindValidation, "due_date must be YYYY-MM-DD")
			}
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				return nil, apperror.New(apperror.KindValidation, "due_date must be YYYY-MM-DD")
			}
			patch.DueDate = &d
		}
	}
	if v, ok := raw["assigned_to"]; ok {
		if string(v) == "null" {
			patch.ClearAssignee = true
		} else {
			var userID int64
			if err := json.Unmarshal(v, &userID); err != nil {
				return nil, apperror.New(apperror.KindValidation, "assigned_to must be a user id")
			}
			patch.AssignedTo = &userID
		}
	}
	return patch, nil
}
