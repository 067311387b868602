package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-delivery/internal/domain"
)

var ErrFeedbackAlreadyExists = errors.New("order already has feedback")

// FeedbackRepository defines the interface for feedback data access
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	ExistsByOrderID(ctx context.Context, orderID int64) (bool, error)
	ListByMerchant(ctx context.Context, merchantID int64, page, pageSize int) ([]*domain.Feedback, int, error)
	StatsByMerchant(ctx context.Context, merchantID int64) (domain.FeedbackStats, error)
	WithTx(tx *sql.Tx) FeedbackRepository
}

type feedbackRepository struct {
	db DBTX
}

// NewFeedbackRepository creates a new instance of FeedbackRepository
func NewFeedbackRepository(db DBTX) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) WithTx(tx *sql.Tx) FeedbackRepository {
	if tx == nil {
		return r
	}
	return &feedbackRepository{db: tx}
}

// Create stores a feedback. The unique order_id constraint backs the
// one-feedback-per-order rule under concurrent submissions.
func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	query := `
		INSERT INTO feedbacks (order_id, customer_id, merchant_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		feedback.OrderID,
		feedback.CustomerID,
		feedback.MerchantID,
		feedback.Rating,
		feedback.Comment,
	).Scan(&feedback.ID, &feedback.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "feedbacks_order_id_key") {
			return ErrFeedbackAlreadyExists
		}
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	return nil
}

func (r *feedbackRepository) ExistsByOrderID(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM feedbacks WHERE order_id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check feedback: %w", err)
	}
	return exists, nil
}

// ListByMerchant lists a merchant's feedback newest first with customer names
func (r *feedbackRepository) ListByMerchant(ctx context.Context, merchantID int64, page, pageSize int) ([]*domain.Feedback, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedbacks WHERE merchant_id = $1`, merchantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count feedbacks: %w", err)
	}

	query := `
		SELECT f.id, f.order_id, f.customer_id, c.name, f.merchant_id, f.rating, f.comment, f.created_at
		FROM feedbacks f
		JOIN customers c ON c.id = f.customer_id
		WHERE f.merchant_id = $1
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, merchantID, pageSize, offset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedbacks: %w", err)
	}
	defer rows.Close()

	feedbacks := []*domain.Feedback{}
	for rows.Next() {
		feedback := &domain.Feedback{}
		err := rows.Scan(
			&feedback.ID,
			&feedback.OrderID,
			&feedback.CustomerID,
			&feedback.CustomerName,
			&feedback.MerchantID,
			&feedback.Rating,
			&feedback.Comment,
			&feedback.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedbacks = append(feedbacks, feedback)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating feedbacks: %w", err)
	}

	return feedbacks, total, nil
}

func (r *feedbackRepository) StatsByMerchant(ctx context.Context, merchantID int64) (domain.FeedbackStats, error) {
	query := `
		SELECT COALESCE(AVG(rating)::float8, 0), COUNT(*)
		FROM feedbacks
		WHERE merchant_id = $1
	`

	var stats domain.FeedbackStats
	if err := r.db.QueryRowContext(ctx, query, merchantID).Scan(&stats.AverageRating, &stats.TotalRatings); err != nil {
		return domain.FeedbackStats{}, fmt.Errorf("failed to compute feedback stats: %w", err)
	}
	return stats, nil
}
