package repository

import (
	"context"
	"database/sql"
	"errors"

	"taskboard/backend/internal/team/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a team repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the team and returns the id assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Team) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO teams (name, creator_id) VALUES ($1, $2) RETURNING id`,
		t.Name, t.CreatorID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID returns the team for id with the creator's email, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.name, t.creator_id, u.email
		 FROM teams t JOIN users u ON u.id = t.creator_id
		 WHERE t.id = $1`, id)
	var t domain.Team
	err := row.Scan(&t.ID, &t.Name, &t.CreatorID, &t.CreatorEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Update renames the team. Returns false if no such team exists.
func (r *PostgresRepository) Update(ctx context.Context, id int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE teams SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the team's memberships, its tasks, and the team row in
// one transaction. A failure at any step rolls back the whole delete.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memberships WHERE team_id = $1`, id); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE team_id = $1`, id); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAll returns every team with its creator's email, ordered by id.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.creator_id, u.email
		 FROM teams t JOIN users u ON u.id = t.creator_id
		 ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

// ListForUser returns teams the user created or is a member of, ordered by id.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT t.id, t.name, t.creator_id, u.email
		 FROM teams t
		 JOIN users u ON u.id = t.creator_id
		 LEFT JOIN memberships m ON m.team_id = t.id
		 WHERE t.creator_id = $1 OR m.user_id = $1
		 ORDER BY t.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

func scanTeams(rows *sql.Rows) ([]domain.Team, error) {
	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatorID, &t.CreatorEmail); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
