package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// upsertPositionSQL keys a position by (user, company, title), the same
// role identity the interview merge uses. The conflict target carries no
// nullable columns: a role re-extracted before its dates are known must
// hit the same row. Optional fields fill in on conflict; a known value
// wins over a later extraction.
const upsertPositionSQL = `
	INSERT INTO positions (user_id, session_id, company, title, location, start_date, end_date)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	ON CONFLICT (user_id, company, title)
	DO UPDATE SET location   = COALESCE(positions.location, EXCLUDED.location),
	              start_date = COALESCE(positions.start_date, EXCLUDED.start_date),
	              end_date   = COALESCE(positions.end_date, EXCLUDED.end_date)
	RETURNING id`

// UpsertPosition stores one position for a user and returns its ID.
// Re-extracting a role the user already has updates its optional fields.
func (db *DB) UpsertPosition(ctx context.Context, p *Position) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx, upsertPositionSQL,
		p.UserID, p.SessionID, p.Company, p.Title, p.Location, p.StartDate, p.EndDate,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert position: %w", err)
	}
	return id, nil
}

// ListPositions retrieves a user's positions in extraction order.
func (db *DB) ListPositions(ctx context.Context, userID uuid.UUID) ([]Position, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, session_id, company, title, COALESCE(location, ''),
		        start_date, end_date, created_at
		 FROM positions WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.UserID, &p.SessionID, &p.Company, &p.Title,
			&p.Location, &p.StartDate, &p.EndDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// InsertBullet stores one bullet under a position. The embedding may be
// empty; when present it is stored in the pgvector column in the
// bracketed text form.
func (db *DB) InsertBullet(ctx context.Context, b *Bullet, embedding []float32) (uuid.UUID, error) {
	var id uuid.UUID
	var vec interface{}
	if len(embedding) > 0 {
		vec = ToPgVector(embedding)
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO bullets (position_id, text, category, hard_skills, soft_skills,
		                      metric_value, metric_type, assumptions, draft, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		b.PositionID, b.Text, b.Category, b.HardSkills, b.SoftSkills,
		b.MetricValue, b.MetricType, b.Assumptions, b.Draft, vec,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert bullet: %w", err)
	}
	return id, nil
}

// ListBullets retrieves a position's bullets in extraction order.
func (db *DB) ListBullets(ctx context.Context, positionID uuid.UUID) ([]Bullet, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, position_id, text, COALESCE(category, ''), hard_skills, soft_skills,
		        COALESCE(metric_value, ''), COALESCE(metric_type, ''),
		        COALESCE(assumptions, ''), draft, created_at
		 FROM bullets WHERE position_id = $1 ORDER BY created_at ASC`,
		positionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bullets: %w", err)
	}
	defer rows.Close()

	var bullets []Bullet
	for rows.Next() {
		var b Bullet
		if err := rows.Scan(&b.ID, &b.PositionID, &b.Text, &b.Category, &b.HardSkills,
			&b.SoftSkills, &b.MetricValue, &b.MetricType, &b.Assumptions, &b.Draft,
			&b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bullet: %w", err)
		}
		bullets = append(bullets, b)
	}
	return bullets, nil
}

// UpdateBulletText updates a bullet's text and skills after user review.
func (db *DB) UpdateBulletText(ctx context.Context, bulletID uuid.UUID, text string, hardSkills, softSkills []string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE bullets SET text = $1, hard_skills = $2, soft_skills = $3 WHERE id = $4`,
		text, StringArray(hardSkills), StringArray(softSkills), bulletID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bullet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bullet not found: %s", bulletID)
	}
	return nil
}

// DeleteBullet removes a bullet.
func (db *DB) DeleteBullet(ctx context.Context, bulletID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM bullets WHERE id = $1`, bulletID)
	if err != nil {
		return fmt.Errorf("failed to delete bullet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bullet not found: %s", bulletID)
	}
	return nil
}

// FinalizeSessionBullets flips draft bullets to final for every position
// extracted in the given session. Returns the number of bullets affected.
func (db *DB) FinalizeSessionBullets(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE bullets SET draft = FALSE
		 WHERE draft AND position_id IN (SELECT id FROM positions WHERE session_id = $1)`,
		sessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to finalize bullets: %w", err)
	}
	return result.RowsAffected(), nil
}

// SearchBullets returns the user's nearest bullets to the query
// embedding, closest first. Bullets without embeddings are skipped.
func (db *DB) SearchBullets(ctx context.Context, userID uuid.UUID, embedding []float32, limit int) ([]BulletMatch, error) {
	if limit == 0 {
		limit = 10
	}

	rows, err := db.pool.Query(ctx,
		`SELECT b.id, b.position_id, b.text, COALESCE(b.category, ''), b.hard_skills,
		        b.soft_skills, COALESCE(b.metric_value, ''), COALESCE(b.metric_type, ''),
		        COALESCE(b.assumptions, ''), b.draft, b.created_at,
		        b.embedding <-> $1 AS distance
		 FROM bullets b
		 JOIN positions p ON p.id = b.position_id
		 WHERE p.user_id = $2 AND b.embedding IS NOT NULL
		 ORDER BY distance ASC LIMIT $3`,
		ToPgVector(embedding), userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search bullets: %w", err)
	}
	defer rows.Close()

	var matches []BulletMatch
	for rows.Next() {
		var m BulletMatch
		if err := rows.Scan(&m.ID, &m.PositionID, &m.Text, &m.Category, &m.HardSkills,
			&m.SoftSkills, &m.MetricValue, &m.MetricType, &m.Assumptions, &m.Draft,
			&m.CreatedAt, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan bullet match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// GetBulletPosition retrieves the position owning a bullet, or nil when
// the bullet does not exist. Used for ownership checks.
func (db *DB) GetBulletPosition(ctx context.Context, bulletID uuid.UUID) (*Position, error) {
	var p Position
	err := db.pool.QueryRow(ctx,
		`SELECT p.id, p.user_id, p.session_id, p.company, p.title, COALESCE(p.location, ''),
		        p.start_date, p.end_date, p.created_at
		 FROM positions p
		 JOIN bullets b ON b.position_id = p.id
		 WHERE b.id = $1`,
		bulletID,
	).Scan(&p.ID, &p.UserID, &p.SessionID, &p.Company, &p.Title, &p.Location,
		&p.StartDate, &p.EndDate, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bullet position: %w", err)
	}
	return &p, nil
}

// GetPosition retrieves one position, or nil when it does not exist.
func (db *DB) GetPosition(ctx context.Context, positionID uuid.UUID) (*Position, error) {
	var p Position
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, session_id, company, title, COALESCE(location, ''),
		        start_date, end_date, created_at
		 FROM positions WHERE id = $1`,
		positionID,
	).Scan(&p.ID, &p.UserID, &p.SessionID, &p.Company, &p.Title, &p.Location,
		&p.StartDate, &p.EndDate, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &p, nil
}
