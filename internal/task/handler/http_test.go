package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/policy/engine"
	"taskboard/backend/internal/server/middleware"
	"taskboard/backend/internal/task/domain"
)

type mockTaskRepo struct {
	tasks  map[int64]*domain.Task
	nextID int64
	// knownTeams drives foreign key behavior on create.
	knownTeams map[int64]bool
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[int64]*domain.Task), nextID: 1, knownTeams: map[int64]bool{1: true, 2: true}}
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) (int64, error) {
	if !m.knownTeams[t.TeamID] {
		return 0, &pgconn.PgError{Code: "23503"}
	}
	id := m.nextID
	m.nextID++
	cp := *t
	cp.ID = id
	cp.TeamName = "team"
	m.tasks[id] = &cp
	return id, nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, id int64, p *domain.Patch) (bool, error) {
	t, ok := m.tasks[id]
	if !ok {
		return false, nil
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.ClearAssignee {
		t.AssignedTo = nil
	} else if p.AssignedTo != nil {
		t.AssignedTo = p.AssignedTo
	}
	return true, nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.tasks[id]; !ok {
		return false, nil
	}
	delete(m.tasks, id)
	return true, nil
}

func (m *mockTaskRepo) ListAll(ctx context.Context) ([]domain.Task, error) {
	var out []domain.Task
	for id := int64(1); id < m.nextID; id++ {
		if t, ok := m.tasks[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTaskRepo) ListForAssignee(ctx context.Context, userID int64, teamID *int64) ([]domain.Task, error) {
	var out []domain.Task
	for id := int64(1); id < m.nextID; id++ {
		t, ok := m.tasks[id]
		if !ok || t.AssignedTo == nil || *t.AssignedTo != userID {
			continue
		}
		if teamID != nil && t.TeamID != *teamID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTaskRepo) ListByTeam(ctx context.Context, teamID int64) ([]domain.Task, error) {
	var out []domain.Task
	for id := int64(1); id < m.nextID; id++ {
		if t, ok := m.tasks[id]; ok && t.TeamID == teamID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func newRouter(t *testing.T, repo *mockTaskRepo) *mux.Router {
	t.Helper()
	eval, err := engine.NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	h := New(repo, eval, zap.NewNop().Sugar())
	r := mux.NewRouter()
	h.Register(r.PathPrefix("/api").Subrouter())
	return r
}

func withClaims(req *http.Request, claims *auth.Claims) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), claims))
}

var (
	adminClaims  = &auth.Claims{UserID: 1, Email: "admin@example.com", IsAdmin: true}
	memberClaims = &auth.Claims{UserID: 2, Email: "member@example.com"}
)

func seedTask(repo *mockTaskRepo, title string, teamID int64, assignedTo *int64) int64 {
	id := repo.nextID
	repo.nextID++
	repo.tasks[id] = &domain.Task{ID: id, Title: title, TeamID: teamID, TeamName: "team", AssignedTo: assignedTo}
	return id
}

func int64p(v int64) *int64 { return &v }

func TestHandleCreateTask(t *testing.T) {
	repo := newMockTaskRepo()
	r := newRouter(t, repo)

	body := `{"title":"ship it","description":"v1","due_date":"2026-09-15","team_id":1,"assigned_to":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(req, adminClaims))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got taskView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Title != "ship it" || got.TeamID != 1 || got.DueDate == nil || *got.DueDate != "2026-09-15" {
		t.Errorf("got %+v", got)
	}
}

func TestHandleCreateTask_Validation(t *testing.T) {
	repo := newMockTaskRepo()
	r := newRouter(t, repo)
	testCases := []struct {
		name string
		body string
	}{
		{"missing title", `{"team_id":1}`},
		{"missing team", `{"title":"x"}`},
		{"bad due date", `{"title":"x","team_id":1,"due_date":"15/09/2026"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, withClaims(req, adminClaims))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleCreateTask_UnknownTeam(t *testing.T) {
	repo := newMockTaskRepo()
	r := newRouter(t, repo)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"x","team_id":99}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(req, adminClaims))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestHandleCreateTask_MemberForbidden(t *testing.T) {
	repo := newMockTaskRepo()
	r := newRouter(t, repo)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"x","team_id":1}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(req, memberClaims))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if len(repo.tasks) != 0 {
		t.Error("no task should be created")
	}
}

func TestHandleListTasks_Scoping(t *testing.T) {
	repo := newMockTaskRepo()
	seedTask(repo, "mine-1", 1, int64p(2))
	seedTask(repo, "mine-2", 2, int64p(2))
	seedTask(repo, "someone-elses", 1, int64p(3))
	seedTask(repo, "unassigned", 1, nil)
	r := newRouter(t, repo)

	// Member sees only their assignments.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), memberClaims))
	var got []taskView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("member sees %d tasks, want 2", len(got))
	}

	// Member with team filter.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/api/tasks?team_id=2", nil), memberClaims))
	got = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].Title != "mine-2" {
		t.Errorf("got %+v", got)
	}

	// Admin sees everything.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), adminClaims))
	got = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("admin sees %d tasks, want 4", len(got))
	}

	// Admin with team filter.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/api/tasks?team_id=1", nil), adminClaims))
	got = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("admin sees %d tasks in team 1, want 3", len(got))
	}
}

func TestHandleListTasks_BadTeamID(t *testing.T) {
	r := newRouter(t, newMockTaskRepo())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/api/tasks?team_id=abc", nil), adminClaims))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUpdateTask_Partial(t *testing.T) {
	repo := newMockTaskRepo()
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	id := seedTask(repo, "original", 1, int64p(2))
	repo.tasks[id].DueDate = &due
	repo.tasks[id].Description = "keep me"
	r := newRouter(t, repo)

	req := httptest.NewRequest(http.MethodPut, "/api/tasks/1", strings.NewReader(`{"title":"renamed"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(req, adminClaims))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := repo.tasks[id]
	if got.Title != "renamed" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Description != "keep me" || got.DueDate == nil || got.AssignedTo == nil {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestHandleUpdateTask_ExplicitNulls(t *testing.T) {
	repo := newMockTaskRepo()
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	id := seedTask(repo, "task", 1, int64p(2))
	repo.tasks[id].DueDate = &due
	r := newRouter(t, repo)

	req := httptest.NewRequest(http.MethodPut, "/api/tasks/1", strings.NewReader(`{"due_date":null,"assigned_to":null}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(req, adminClaims))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := repo.tasks[id]
	if got.DueDate != nil || got.AssignedTo != nil {
		t.Errorf("fields should be cleared: %+v", got)
	}
}

func TestHandleUpdateTask_EmptyTitleRejected(t *testing.T) {
	repo := newMockTaskRepo()
	seedTask(repo, "task", 1, nil)
	r := newRouter(t, repo)
	req := httptest.NewRequest(http.MethodPut, "/api/tasks/1", strings.NewReader(`{"title":""}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(req, adminClaims))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUpdateTask_NotFound(t *testing.T) {
	r := newRouter(t, newMockTaskRepo())
	req := httptest.NewRequest(http.MethodPut, "/api/tasks/42", strings.NewReader(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(req, adminClaims))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDeleteTask(t *testing.T) {
	repo := newMockTaskRepo()
	seedTask(repo, "doomed", 1, nil)
	r := newRouter(t, repo)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodDelete, "/api/tasks/1", nil), adminClaims))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(repo.tasks) != 0 {
		t.Error("task should be gone")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodDelete, "/api/tasks/1", nil), adminClaims))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTaskWrites_MemberForbiddenRegardlessOfPayload(t *testing.T) {
	repo := newMockTaskRepo()
	seedTask(repo, "task", 1, nil)
	r := newRouter(t, repo)
	requests := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"valid","team_id":1}`)),
		httptest.NewRequest(http.MethodPut, "/api/tasks/1", strings.NewReader(`{"title":"valid"}`)),
		httptest.NewRequest(http.MethodDelete, "/api/tasks/1", nil),
	}
	for _, req := range requests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, withClaims(req, memberClaims))
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: status = %d, want 403", req.Method, req.URL.Path, rec.Code)
		}
	}
}
