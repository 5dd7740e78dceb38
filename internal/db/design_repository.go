package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/shipyard/internal/game/design"
)

// DesignRepository stores saved designs keyed by their content fingerprint.
type DesignRepository struct {
	pool *pgxpool.Pool
}

// NewDesignRepository creates a new DesignRepository.
func NewDesignRepository(pool *pgxpool.Pool) *DesignRepository {
	return &DesignRepository{pool: pool}
}

// DesignRow is a library entry without its body.
type DesignRow struct {
	Fingerprint string
	Name        string
	Class       string
	Theme       string
	Components  int
	UpdatedAt   time.Time
}

// Save upserts a design and returns its fingerprint. Saving identical content under a new
// name renames the entry.
func (r *DesignRepository) Save(ctx context.Context, d *design.SavedDesign) (string, error) {
	body, err := d.Marshal()
	if err != nil {
		return "", err
	}
	fp := d.Fingerprint()
	_, err = r.pool.Exec(ctx,
		`INSERT INTO designs (fingerprint, name, class, theme, components, body)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (fingerprint) DO UPDATE SET
		  name = $2, theme = $4, body = $6, updated_at = NOW()`,
		fp, d.Name, d.Class, d.Theme, d.ComponentCount(), string(body),
	)
	if err != nil {
		return "", fmt.Errorf("saving design %q: %w", d.Name, err)
	}
	return fp, nil
}

// Get loads a design by fingerprint. Returns nil, nil if it does not exist.
func (r *DesignRepository) Get(ctx context.Context, fingerprint string) (*design.SavedDesign, error) {
	var body string
	err := r.pool.QueryRow(ctx,
		`SELECT body FROM designs WHERE fingerprint = $1`, fingerprint,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying design %s: %w", fingerprint, err)
	}

	d, err := design.ParseSavedDesign([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decoding design %s: %w", fingerprint, err)
	}
	return d, nil
}

// List returns the library, optionally filtered by class, newest first.
func (r *DesignRepository) List(ctx context.Context, class string) ([]DesignRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT fingerprint, name, class, theme, components, updated_at
		 FROM designs
		 WHERE $1 = '' OR class = $1
		 ORDER BY updated_at DESC, name`, class)
	if err != nil {
		return nil, fmt.Errorf("query designs: %w", err)
	}
	defer rows.Close()

	var result []DesignRow
	for rows.Next() {
		var row DesignRow
		if err := rows.Scan(&row.Fingerprint, &row.Name, &row.Class, &row.Theme,
			&row.Components, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating design rows: %w", err)
	}
	return result, nil
}

// Delete removes a design. Deleting a missing design is not an error.
func (r *DesignRepository) Delete(ctx context.Context, fingerprint string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM designs WHERE fingerprint = $1`, fingerprint); err != nil {
		return fmt.Errorf("deleting design %s: %w", fingerprint, err)
	}
	return nil
}
