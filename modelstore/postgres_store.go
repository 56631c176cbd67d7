package modelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const artifactColumns = `id, name, version, feature_names, coefficients, intercept, active, created_at`

// PostgresArtifactStore implements ArtifactStore backed by PostgreSQL
type PostgresArtifactStore struct {
	db *sql.DB
}

// NewPostgresArtifactStore creates a PostgreSQL-backed ArtifactStore
func NewPostgresArtifactStore(db *sql.DB) *PostgresArtifactStore {
	return &PostgresArtifactStore{db: db}
}

// Add inserts a new artifact version inside a transaction
func (s *PostgresArtifactStore) Add(ctx context.Context, a *Artifact) error {
	if err := ValidateArtifact(a); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if a.Active {
		if _, err := tx.ExecContext(ctx, `
			UPDATE model_artifacts SET active = false WHERE name = $1 AND active
		`, a.Name); err != nil {
			return fmt.Errorf("failed to deactivate artifacts: %w", err)
		}
	}

	id := uuid.New()
	createdAt := time.Now().UTC()

	var version int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO model_artifacts (`+artifactColumns+`)
		SELECT $1::uuid, $2::text, COALESCE(MAX(version), 0) + 1, $3::text[], $4::float8[], $5::float8, $6::boolean, $7::timestamptz
		FROM model_artifacts
		WHERE name = $2
		RETURNING version
	`, id, a.Name, pq.Array(a.FeatureNames), pq.Array(a.Coefficients), a.Intercept, a.Active, createdAt).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifact: %w", err)
	}

	a.ID = id
	a.Version = version
	a.CreatedAt = createdAt
	return nil
}

// Get retrieves an artifact by ID
func (s *PostgresArtifactStore) Get(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+artifactColumns+`
		FROM model_artifacts
		WHERE id = $1
	`, id)

	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %s: %w", id, ErrArtifactNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return a, nil
}

// GetActive retrieves the active version of name
func (s *PostgresArtifactStore) GetActive(ctx context.Context, name string) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+artifactColumns+`
		FROM model_artifacts
		WHERE name = $1 AND active
	`, name)

	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no active artifact named %s: %w", name, ErrArtifactNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active artifact: %w", err)
	}
	return a, nil
}

// List returns every artifact ordered by name and version
func (s *PostgresArtifactStore) List(ctx context.Context) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+artifactColumns+`
		FROM model_artifacts
		ORDER BY name ASC, version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifacts: %w", err)
	}

	return artifacts, nil
}

// Activate makes id the only active version of its name
func (s *PostgresArtifactStore) Activate(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, `
		SELECT name FROM model_artifacts WHERE id = $1 FOR UPDATE
	`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("artifact %s: %w", id, ErrArtifactNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get artifact: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE model_artifacts SET active = false WHERE name = $1 AND active AND id <> $2
	`, name, id); err != nil {
		return fmt.Errorf("failed to deactivate artifacts: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE model_artifacts SET active = true WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("failed to activate artifact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*Artifact, error) {
	var a Artifact
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Version,
		pq.Array(&a.FeatureNames),
		pq.Array(&a.Coefficients),
		&a.Intercept,
		&a.Active,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
