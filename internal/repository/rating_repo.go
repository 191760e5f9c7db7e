package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"chargesure/internal/models"
)

// RatingValue is a thumb vote on a charger.
type RatingValue string

const (
	RatingUp   RatingValue = "up"
	RatingDown RatingValue = "down"
)

// RatingRepository stores per-user charger votes and keeps the aggregate
// score on the charger row current.
type RatingRepository struct {
	db *sql.DB
}

// NewRatingRepository returns repository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Rate records a vote with toggle semantics: a repeated identical vote
// removes the rating, a different vote replaces it. Returns whether a vote
// remains after the call.
func (r *RatingRepository) Rate(ctx context.Context, chargerID, userRef string, value RatingValue) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM chargers WHERE charger_id = $1`, chargerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, models.ErrChargerNotFound
	}
	if err != nil {
		return false, err
	}

	var (
		ratingID string
		current  string
	)
	err = r.db.QueryRowContext(ctx, `
		SELECT id, rating FROM charger_ratings
		WHERE charger_id = $1 AND user_ref = $2
	`, chargerID, userRef).Scan(&ratingID, &current)

	voted := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO charger_ratings (id, charger_id, user_ref, rating, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
		`, uuid.NewString(), chargerID, userRef, string(value))
	case err != nil:
		return false, err
	case RatingValue(current) == value:
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM charger_ratings WHERE id = $1`, ratingID)
		voted = false
	default:
		_, err = r.db.ExecContext(ctx, `
			UPDATE charger_ratings SET rating = $2, updated_at = NOW() WHERE id = $1
		`, ratingID, string(value))
	}
	if err != nil {
		return false, err
	}

	if err := r.refreshAggregate(ctx, chargerID); err != nil {
		return voted, err
	}
	return voted, nil
}

// refreshAggregate recomputes the 0-10 rating score and vote count stored on
// the charger row. No votes resets both to zero, which readers treat as
// "unrated".
func (r *RatingRepository) refreshAggregate(ctx context.Context, chargerID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE chargers SET
			rating_count = agg.total,
			rating_score = CASE WHEN agg.total = 0 THEN 0
				ELSE ROUND(10.0 * agg.ups / agg.total, 1) END
		FROM (
			SELECT COUNT(*) AS total,
			       COUNT(*) FILTER (WHERE rating = 'up') AS ups
			FROM charger_ratings
			WHERE charger_id = $1
		) AS agg
		WHERE chargers.charger_id = $1
	`, chargerID)
	return err
}

// UserRating returns the user's current vote for a charger, "" when absent.
func (r *RatingRepository) UserRating(ctx context.Context, chargerID, userRef string) (RatingValue, error) {
	var current string
	err := r.db.QueryRowContext(ctx, `
		SELECT rating FROM charger_ratings
		WHERE charger_id = $1 AND user_ref = $2
	`, chargerID, userRef).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return RatingValue(current), nil
}
