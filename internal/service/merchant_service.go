package service

import (
	"context"

	"food-delivery/internal/domain"
	"food-delivery/internal/repository"
)

// MerchantService exposes the calling merchant's profile.
type MerchantService interface {
	GetProfile(ctx context.Context, identity domain.Identity) (*domain.Merchant, error)
}

type merchantService struct {
	merchants repository.MerchantRepository
}

func NewMerchantService(merchants repository.MerchantRepository) MerchantService {
	return &merchantService{merchants: merchants}
}

// GetProfile returns the merchant owned by the caller, active or not.
func (s *merchantService) GetProfile(ctx context.Context, identity domain.Identity) (*domain.Merchant, error) {
	return merchantFor(ctx, s.merchants, identity)
}
