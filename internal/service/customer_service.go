package service

import (
	"context"
	"errors"
	"fmt"

	"food-delivery/internal/apperror"
	"food-delivery/internal/domain"
	"food-delivery/internal/repository"

	"go.uber.org/zap"
)

// ProfileInput holds the customer fields a customer may change. The tax id
// is fixed at registration.
type ProfileInput struct {
	Name      string
	Phone     string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// CustomerService exposes the calling customer's profile.
type CustomerService interface {
	GetProfile(ctx context.Context, identity domain.Identity) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, identity domain.Identity, input ProfileInput) (*domain.Customer, error)
}

type customerService struct {
	customers repository.CustomerRepository
	logger    *zap.Logger
}

func NewCustomerService(customers repository.CustomerRepository, logger *zap.Logger) CustomerService {
	return &customerService{customers: customers, logger: logger}
}

func (s *customerService) GetProfile(ctx context.Context, identity domain.Identity) (*domain.Customer, error) {
	return customerFor(ctx, s.customers, identity)
}

func (s *customerService) UpdateProfile(ctx context.Context, identity domain.Identity, input ProfileInput) (*domain.Customer, error) {
	customer, err := customerFor(ctx, s.customers, identity)
	if err != nil {
		return nil, err
	}

	customer.Name = input.Name
	customer.Phone = input.Phone
	customer.Address = input.Address
	customer.Latitude = input.Latitude
	customer.Longitude = input.Longitude

	if err := s.customers.Update(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, apperror.NotFound("customer not found")
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	s.logger.Info("Customer profile updated", zap.Int64("customer_id", customer.ID))
	return customer, nil
}
