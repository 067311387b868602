package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-delivery/internal/apperror"
	"food-delivery/internal/database"
	"food-delivery/internal/domain"
	"food-delivery/internal/repository"

	"go.uber.org/zap"
)

// FeedbackService handles post-delivery ratings.
type FeedbackService interface {
	CreateFeedback(ctx context.Context, identity domain.Identity, orderID int64, rating int, comment string) (*domain.Feedback, error)
	ListMerchantFeedback(ctx context.Context, identity domain.Identity, page PageRequest) (domain.Page[*domain.Feedback], error)
	MerchantFeedbackStats(ctx context.Context, identity domain.Identity) (domain.FeedbackStats, error)
}

type feedbackService struct {
	tx        database.TxRunner
	feedbacks repository.FeedbackRepository
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	merchants repository.MerchantRepository
	logger    *zap.Logger
}

func NewFeedbackService(
	tx database.TxRunner,
	feedbacks repository.FeedbackRepository,
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	merchants repository.MerchantRepository,
	logger *zap.Logger,
) FeedbackService {
	return &feedbackService{
		tx:        tx,
		feedbacks: feedbacks,
		orders:    orders,
		customers: customers,
		merchants: merchants,
		logger:    logger,
	}
}

// CreateFeedback rates a delivered order. Each order accepts one feedback.
func (s *feedbackService) CreateFeedback(ctx context.Context, identity domain.Identity, orderID int64, rating int, comment string) (*domain.Feedback, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, apperror.Validation("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}

	var feedback *domain.Feedback
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		feedbacks := s.feedbacks.WithTx(tx)

		order, err := findOrder(ctx, s.orders.WithTx(tx), orderID)
		if err != nil {
			return err
		}

		customer, err := customerFor(ctx, s.customers.WithTx(tx), identity)
		if err != nil {
			return err
		}
		if order.CustomerID != customer.ID {
			return apperror.BusinessRule("order does not belong to customer")
		}
		if order.Status != domain.OrderStatusDelivered {
			return apperror.BusinessRule("only delivered orders may be rated")
		}

		exists, err := feedbacks.ExistsByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperror.BusinessRule("order already rated")
		}

		feedback = &domain.Feedback{
			OrderID:      order.ID,
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			MerchantID:   order.MerchantID,
			Rating:       rating,
			Comment:      comment,
		}
		if err := feedbacks.Create(ctx, feedback); err != nil {
			if errors.Is(err, repository.ErrFeedbackAlreadyExists) {
				return apperror.BusinessRule("order already rated")
			}
			return fmt.Errorf("failed to create feedback: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Feedback created",
		zap.Int64("order_id", orderID),
		zap.Int("rating", rating),
	)
	return feedback, nil
}

func (s *feedbackService) ListMerchantFeedback(ctx context.Context, identity domain.Identity, page PageRequest) (domain.Page[*domain.Feedback], error) {
	page = page.Normalize()

	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return domain.Page[*domain.Feedback]{}, err
	}

	feedbacks, total, err := s.feedbacks.ListByMerchant(ctx, merchant.ID, page.Page, page.Size)
	if err != nil {
		return domain.Page[*domain.Feedback]{}, fmt.Errorf("failed to list feedback: %w", err)
	}
	return domain.NewPage(feedbacks, page.Page, page.Size, total), nil
}

func (s *feedbackService) MerchantFeedbackStats(ctx context.Context, identity domain.Identity) (domain.FeedbackStats, error) {
	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return domain.FeedbackStats{}, err
	}

	stats, err := s.feedbacks.StatsByMerchant(ctx, merchant.ID)
	if err != nil {
		return domain.FeedbackStats{}, fmt.Errorf("failed to load feedback stats: %w", err)
	}
	return stats, nil
}
