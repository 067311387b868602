package service

import (
	"context"
	"errors"
	"fmt"

	"food-delivery/internal/apperror"
	"food-delivery/internal/domain"
	"food-delivery/internal/repository"
)

// CatalogService is the unauthenticated storefront.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListMerchants(ctx context.Context, categoryID *int64, page PageRequest) (domain.Page[*domain.Merchant], error)
	GetMerchant(ctx context.Context, merchantID int64) (*domain.Merchant, error)
	ListMerchantProducts(ctx context.Context, merchantID int64, page PageRequest) (domain.Page[*domain.Product], error)
	SearchProducts(ctx context.Context, term string, page PageRequest) (domain.Page[*domain.Product], error)
}

type catalogService struct {
	categories repository.CategoryRepository
	merchants  repository.MerchantRepository
	products   repository.ProductRepository
}

func NewCatalogService(
	categories repository.CategoryRepository,
	merchants repository.MerchantRepository,
	products repository.ProductRepository,
) CatalogService {
	return &catalogService{
		categories: categories,
		merchants:  merchants,
		products:   products,
	}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}

func (s *catalogService) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperror.NotFound("category %q not found", slug)
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	return category, nil
}

func (s *catalogService) ListMerchants(ctx context.Context, categoryID *int64, page PageRequest) (domain.Page[*domain.Merchant], error) {
	page = page.Normalize()

	merchants, total, err := s.merchants.ListActive(ctx, categoryID, page.Page, page.Size)
	if err != nil {
		return domain.Page[*domain.Merchant]{}, fmt.Errorf("failed to list merchants: %w", err)
	}
	return domain.NewPage(merchants, page.Page, page.Size, total), nil
}

// GetMerchant returns an active merchant. Inactive merchants are reported as
// missing.
func (s *catalogService) GetMerchant(ctx context.Context, merchantID int64) (*domain.Merchant, error) {
	merchant, err := s.merchants.FindByID(ctx, merchantID)
	if err != nil {
		if errors.Is(err, repository.ErrMerchantNotFound) {
			return nil, apperror.NotFound("merchant %d not found", merchantID)
		}
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}
	if !merchant.Active {
		return nil, apperror.NotFound("merchant %d not found", merchantID)
	}
	return merchant, nil
}

func (s *catalogService) ListMerchantProducts(ctx context.Context, merchantID int64, page PageRequest) (domain.Page[*domain.Product], error) {
	page = page.Normalize()

	if _, err := s.GetMerchant(ctx, merchantID); err != nil {
		return domain.Page[*domain.Product]{}, err
	}

	filter := repository.ProductFilter{MerchantID: &merchantID, ActiveOnly: true}
	products, total, err := s.products.List(ctx, filter, page.Page, page.Size)
	if err != nil {
		return domain.Page[*domain.Product]{}, fmt.Errorf("failed to list products: %w", err)
	}
	return domain.NewPage(products, page.Page, page.Size, total), nil
}

func (s *catalogService) SearchProducts(ctx context.Context, term string, page PageRequest) (domain.Page[*domain.Product], error) {
	page = page.Normalize()

	products, total, err := s.products.Search(ctx, term, page.Page, page.Size)
	if err != nil {
		return domain.Page[*domain.Product]{}, fmt.Errorf("failed to search products: %w", err)
	}
	return domain.NewPage(products, page.Page, page.Size, total), nil
}
