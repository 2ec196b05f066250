package repository

import (
	"context"
	"database/sql"
	"errors"

	"taskboard/backend/internal/membership/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// AddMembers inserts one membership row per user id inside a transaction.
// Any failed insert rolls back the whole batch.
func (r *PostgresRepository) AddMembers(ctx context.Context, teamID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO memberships (user_id, team_id) VALUES ($1, $2)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, userID := range userIDs {
		if _, err := stmt.ExecContext(ctx, userID, teamID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Remove deletes the membership. Returns false if it did not exist.
func (r *PostgresRepository) Remove(ctx context.Context, teamID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByTeam returns the team's memberships with each member's email.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID int64) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.user_id, m.team_id, u.email
		 FROM memberships m JOIN users u ON u.id = m.user_id
		 WHERE m.team_id = $1
		 ORDER BY m.user_id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.UserID, &m.TeamID, &m.UserEmail); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Get returns the membership, or nil if the user is not a member.
func (r *PostgresRepository) Get(ctx context.Context, teamID, userID int64) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, team_id FROM memberships WHERE team_id = $1 AND user_id = $2`,
		teamID, userID)
	var m domain.Membership
	err := row.Scan(&m.UserID, &m.TeamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
