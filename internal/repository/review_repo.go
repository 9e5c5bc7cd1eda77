package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"review-hub/internal/database"
	"review-hub/internal/domain"

	"github.com/google/uuid"
)

// ReviewRepository реализует хранение статусов ревью в PostgreSQL.
type ReviewRepository struct {
	db      *sql.DB
	queries *database.Queries
}

// NewReviewRepository создает новый экземпляр ReviewRepository.
func NewReviewRepository(db *sql.DB, queries *database.Queries) domain.ReviewRepository {
	return &ReviewRepository{
		db:      db,
		queries: queries,
	}
}

// Create сохраняет новое ревью в статусе pending.
func (r *ReviewRepository) Create(ctx context.Context, record *domain.ReviewRecord) error {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.ErrInvalidReviewID
	}

	err = r.queries.CreateReview(ctx, database.CreateReviewParams{
		ReviewID:  id,
		Payload:   record.Payload,
		Status:    string(record.Status),
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// UpdateStatus записывает текущий статус ревью.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, change domain.StatusChange) error {
	id, err := uuid.Parse(change.ReviewID)
	if err != nil {
		return domain.ErrInvalidReviewID
	}

	rows, err := r.queries.UpdateReviewStatus(ctx, database.UpdateReviewStatusParams{
		ReviewID:  id,
		Status:    string(change.Status),
		ClientID:  nullString(change.ClientID),
		Attempts:  int32(change.Attempts),
		Reason:    nullString(change.Reason),
		UpdatedAt: change.At,
	})
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}
	if rows == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// GetByID возвращает ревью по ID.
func (r *ReviewRepository) GetByID(ctx context.Context, reviewID string) (*domain.ReviewRecord, error) {
	id, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, domain.ErrInvalidReviewID
	}

	dbReview, err := r.queries.GetReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &domain.ReviewRecord{
		ID:        dbReview.ReviewID.String(),
		Payload:   dbReview.Payload,
		Status:    domain.ReviewStatus(dbReview.Status),
		ClientID:  dbReview.ClientID.String,
		Attempts:  int(dbReview.Attempts),
		CreatedAt: dbReview.CreatedAt,
		UpdatedAt: dbReview.UpdatedAt,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
