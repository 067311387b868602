package service

import (
	"context"
	"errors"
	"fmt"

	"food-delivery/internal/apperror"
	"food-delivery/internal/domain"
	"food-delivery/internal/repository"
)

func customerFor(ctx context.Context, customers repository.CustomerRepository, identity domain.Identity) (*domain.Customer, error) {
	customer, err := customers.FindByUserID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, apperror.NotFound("customer not found")
		}
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}
	return customer, nil
}

func merchantFor(ctx context.Context, merchants repository.MerchantRepository, identity domain.Identity) (*domain.Merchant, error) {
	merchant, err := merchants.FindByUserID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrMerchantNotFound) {
			return nil, apperror.NotFound("merchant not found")
		}
		return nil, fmt.Errorf("failed to resolve merchant: %w", err)
	}
	return merchant, nil
}

func findOrder(ctx context.Context, orders repository.OrderRepository, id int64) (*domain.Order, error) {
	order, err := orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.NotFound("order %d not found", id)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func errorKind(err error) string {
	if typed := apperror.As(err); typed != nil {
		return string(typed.Kind())
	}
	return string(apperror.KindInternal)
}
