// source: reviews.sql

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const createReview = `-- name: CreateReview :exec
INSERT INTO reviews (review_id, payload, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
`

type CreateReviewParams struct {
	ReviewID  uuid.UUID       `json:"review_id"`
	Payload   json.RawMessage `json:"payload"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) error {
	_, err := q.db.ExecContext(ctx, createReview,
		arg.ReviewID,
		arg.Payload,
		arg.Status,
		arg.CreatedAt,
	)
	return err
}

const getReviewByID = `-- name: GetReviewByID :one
SELECT review_id, payload, status, client_id, attempts, reason, created_at, updated_at
FROM reviews
WHERE review_id = $1
`

func (q *Queries) GetReviewByID(ctx context.Context, reviewID uuid.UUID) (Review, error) {
	row := q.db.QueryRowContext(ctx, getReviewByID, reviewID)
	var i Review
	err := row.Scan(
		&i.ReviewID,
		&i.Payload,
		&i.Status,
		&i.ClientID,
		&i.Attempts,
		&i.Reason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateReviewStatus = `-- name: UpdateReviewStatus :execrows
UPDATE reviews
SET status = $2,
    client_id = $3,
    attempts = GREATEST(attempts, $4),
    reason = $5,
    updated_at = $6
WHERE review_id = $1
`

type UpdateReviewStatusParams struct {
	ReviewID  uuid.UUID      `json:"review_id"`
	Status    string         `json:"status"`
	ClientID  sql.NullString `json:"client_id"`
	Attempts  int32          `json:"attempts"`
	Reason    sql.NullString `json:"reason"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (q *Queries) UpdateReviewStatus(ctx context.Context, arg UpdateReviewStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateReviewStatus,
		arg.ReviewID,
		arg.Status,
		arg.ClientID,
		arg.Attempts,
		arg.Reason,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
