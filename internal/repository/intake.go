package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/noblesavage/site/internal/model"
)

// Common errors for intake repository operations.
var (
	ErrIntakeNotFound = errors.New("intake not found")
	ErrIntakeExists   = errors.New("intake already exists")
)

// MaxListLimit caps ListIntakes page size.
const MaxListLimit = 100

const intakeColumns = `id, roles, role_other, main_goals, main_goal_other, tones, formats, format_other, created_at`

// CreateIntake inserts a new intake into the database.
func (r *Repository) CreateIntake(ctx context.Context, intake *model.Intake) error {
	query := `
		INSERT INTO intakes (` + intakeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		intake.ID,
		pq.Array(nonNil(intake.Roles)),
		intake.RoleOther,
		pq.Array(nonNil(intake.MainGoals)),
		intake.MainGoalOther,
		pq.Array(nonNil(intake.Tones)),
		pq.Array(nonNil(intake.Formats)),
		intake.FormatOther,
		intake.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrIntakeExists
		}
		return fmt.Errorf("failed to create intake: %w", err)
	}

	return nil
}

// GetIntakeByID retrieves an intake by its customer identifier.
func (r *Repository) GetIntakeByID(ctx context.Context, id string) (*model.Intake, error) {
	query := `
		SELECT ` + intakeColumns + `
		FROM intakes
		WHERE id = $1
	`

	return scanIntake(r.pool.QueryRow(ctx, query, id))
}

// ListIntakes returns the most recent intakes, newest first.
func (r *Repository) ListIntakes(ctx context.Context, limit int) ([]*model.Intake, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `
		SELECT ` + intakeColumns + `
		FROM intakes
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list intakes: %w", err)
	}
	defer rows.Close()

	var intakes []*model.Intake
	for rows.Next() {
		intake, err := scanIntake(rows)
		if err != nil {
			return nil, err
		}
		intakes = append(intakes, intake)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intakes: %w", err)
	}

	return intakes, nil
}

// scanIntake scans a single row into an Intake model.
// pgx.Rows satisfies pgx.Row, so list queries share it.
func scanIntake(row pgx.Row) (*model.Intake, error) {
	var intake model.Intake

	err := row.Scan(
		&intake.ID,
		pq.Array(&intake.Roles),
		&intake.RoleOther,
		pq.Array(&intake.MainGoals),
		&intake.MainGoalOther,
		pq.Array(&intake.Tones),
		pq.Array(&intake.Formats),
		&intake.FormatOther,
		&intake.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntakeNotFound
		}
		return nil, fmt.Errorf("failed to scan intake: %w", err)
	}

	return &intake, nil
}

// isUniqueViolation checks for PostgreSQL error code 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
