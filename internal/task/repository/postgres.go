package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskboard/backend/internal/task/domain"
)

const taskSelect = `
	SELECT t.id, t.title, t.description, t.due_date, t.team_id, t.assigned_to,
	       tm.name AS team_name, u.email AS assignee_email
	FROM tasks t
	JOIN teams tm ON tm.id = t.team_id
	LEFT JOIN users u ON u.id = t.assigned_to`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a task repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the task and returns the id assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Task) (int64, error) {
	var description sql.NullString
	if t.Description != "" {
		description = sql.NullString{String: t.Description, Valid: true}
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, due_date, team_id, assigned_to)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.Title, description, t.DueDate, t.TeamID, t.AssignedTo).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID returns the task for id with its team name and assignee email,
// or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// Update applies the patch, touching only the columns the patch names.
// Returns false if no such task exists.
func (r *PostgresRepository) Update(ctx context.Context, id int64, p *domain.Patch) (bool, error) {
	if p.Empty() {
		// Nothing to change; report whether the row exists.
		t, err := r.GetByID(ctx, id)
		return t != nil, err
	}

	var sets []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if p.Title != nil {
		sets = append(sets, "title = "+arg(*p.Title))
	}
	if p.Description != nil {
		sets = append(sets, "description = "+arg(*p.Description))
	}
	switch {
	case p.ClearDueDate:
		sets = append(sets, "due_date = NULL")
	case p.DueDate != nil:
		sets = append(sets, "due_date = "+arg(*p.DueDate))
	}
	switch {
	case p.ClearAssignee:
		sets = append(sets, "assigned_to = NULL")
	case p.AssignedTo != nil:
		sets = append(sets, "assigned_to = "+arg(*p.AssignedTo))
	}

	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = %s",
		strings.Join(sets, ", "), arg(id))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the task. Returns false if no such task exists.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAll returns every task, ordered by id.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, taskSelect+` ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListForAssignee returns the user's assigned tasks, narrowed to one team
// when teamID is non-nil, ordered by id.
func (r *PostgresRepository) ListForAssignee(ctx context.Context, userID int64, teamID *int64) ([]domain.Task, error) {
	query := taskSelect + ` WHERE t.assigned_to = $1`
	args := []interface{}{userID}
	if teamID != nil {
		query += ` AND t.team_id = $2`
		args = append(args, *teamID)
	}
	query += ` ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListByTeam returns the team's tasks, ordered by id.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, taskSelect+` WHERE t.team_id = $1 ORDER BY t.id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var description sql.NullString
	var dueDate sql.NullTime
	var assignedTo sql.NullInt64
	var assigneeEmail sql.NullString
	err := row.Scan(&t.ID, &t.Title, &description, &dueDate, &t.TeamID, &assignedTo,
		&t.TeamName, &assigneeEmail)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if assignedTo.Valid {
		v := assignedTo.Int64
		t.AssignedTo = &v
	}
	if assigneeEmail.Valid {
		e := assigneeEmail.String
		t.AssigneeEmail = &e
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
