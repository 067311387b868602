package service

import (
	"context"
	"errors"
	"fmt"

	"food-delivery/internal/apperror"
	"food-delivery/internal/domain"
	"food-delivery/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductInput holds the editable attributes of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Stock       *int
	CategoryID  *int64
}

// ProductListOptions selects the ordering of a merchant's catalog listing.
type ProductListOptions struct {
	SortBy    string
	SortOrder repository.SortOrder
}

// ProductService manages a merchant's own catalog
type ProductService interface {
	ListMerchantProducts(ctx context.Context, identity domain.Identity, opts ProductListOptions, page PageRequest) (domain.Page[*domain.Product], error)
	GetMerchantProduct(ctx context.Context, identity domain.Identity, productID int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, identity domain.Identity, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, identity domain.Identity, productID int64, input ProductInput) (*domain.Product, error)
	DeactivateProduct(ctx context.Context, identity domain.Identity, productID int64) error
	ToggleActive(ctx context.Context, identity domain.Identity, productID int64) (*domain.Product, error)
	SetStock(ctx context.Context, identity domain.Identity, productID int64, stock *int) (*domain.Product, error)
	LowStock(ctx context.Context, identity domain.Identity) ([]*domain.Product, error)
	Stats(ctx context.Context, identity domain.Identity) (domain.ProductStats, error)
}

type productService struct {
	products          repository.ProductRepository
	merchants         repository.MerchantRepository
	categories        repository.CategoryRepository
	lowStockThreshold int
	logger            *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	merchants repository.MerchantRepository,
	categories repository.CategoryRepository,
	lowStockThreshold int,
	logger *zap.Logger,
) ProductService {
	return &productService{
		products:          products,
		merchants:         merchants,
		categories:        categories,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

func (s *productService) ListMerchantProducts(ctx context.Context, identity domain.Identity, opts ProductListOptions, page PageRequest) (domain.Page[*domain.Product], error) {
	page = page.Normalize()

	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return domain.Page[*domain.Product]{}, err
	}

	filter := repository.ProductFilter{
		MerchantID: &merchant.ID,
		SortBy:     opts.SortBy,
		SortOrder:  opts.SortOrder,
	}
	products, total, err := s.products.List(ctx, filter, page.Page, page.Size)
	if err != nil {
		return domain.Page[*domain.Product]{}, fmt.Errorf("failed to list products: %w", err)
	}
	return domain.NewPage(products, page.Page, page.Size, total), nil
}

func (s *productService) GetMerchantProduct(ctx context.Context, identity domain.Identity, productID int64) (*domain.Product, error) {
	_, product, err := s.ownedProduct(ctx, identity, productID)
	return product, err
}

// CreateProduct adds an active product to the caller's catalog
func (s *productService) CreateProduct(ctx context.Context, identity domain.Identity, input ProductInput) (*domain.Product, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		MerchantID:  merchant.ID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Active:      true,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("merchant_id", merchant.ID),
	)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, identity domain.Identity, productID int64, input ProductInput) (*domain.Product, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	_, product, err := s.ownedProduct(ctx, identity, productID)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.ImageURL = input.ImageURL
	product.Stock = input.Stock
	product.CategoryID = input.CategoryID

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.NotFound("product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeactivateProduct is the soft delete: the product stays referenced by past
// orders but leaves the public catalog.
func (s *productService) DeactivateProduct(ctx context.Context, identity domain.Identity, productID int64) error {
	if _, _, err := s.ownedProduct(ctx, identity, productID); err != nil {
		return err
	}
	if err := s.setActive(ctx, productID, false); err != nil {
		return err
	}

	s.logger.Info("Product deactivated", zap.Int64("product_id", productID))
	return nil
}

func (s *productService) ToggleActive(ctx context.Context, identity domain.Identity, productID int64) (*domain.Product, error) {
	_, product, err := s.ownedProduct(ctx, identity, productID)
	if err != nil {
		return nil, err
	}
	if err := s.setActive(ctx, productID, !product.Active); err != nil {
		return nil, err
	}
	product.Active = !product.Active
	return product, nil
}

// SetStock replaces the stock level; nil switches tracking off.
func (s *productService) SetStock(ctx context.Context, identity domain.Identity, productID int64, stock *int) (*domain.Product, error) {
	if stock != nil && *stock < 0 {
		return nil, apperror.Validation("stock cannot be negative")
	}

	_, product, err := s.ownedProduct(ctx, identity, productID)
	if err != nil {
		return nil, err
	}
	if err := s.products.SetStock(ctx, productID, stock); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.NotFound("product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}
	product.Stock = stock
	return product, nil
}

func (s *productService) LowStock(ctx context.Context, identity domain.Identity) ([]*domain.Product, error) {
	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return nil, err
	}

	products, err := s.products.LowStock(ctx, merchant.ID, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

func (s *productService) Stats(ctx context.Context, identity domain.Identity) (domain.ProductStats, error) {
	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return domain.ProductStats{}, err
	}

	stats, err := s.products.Stats(ctx, merchant.ID, s.lowStockThreshold)
	if err != nil {
		return domain.ProductStats{}, fmt.Errorf("failed to load product stats: %w", err)
	}
	return stats, nil
}

func (s *productService) validate(ctx context.Context, input ProductInput) error {
	if !input.Price.IsPositive() {
		return apperror.Validation("price must be greater than zero")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return apperror.Validation("stock cannot be negative")
	}
	if input.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return apperror.BusinessRule("category %d not found", *input.CategoryID)
			}
			return fmt.Errorf("failed to load category: %w", err)
		}
	}
	return nil
}

// ownedProduct loads a product and checks it belongs to the calling merchant.
func (s *productService) ownedProduct(ctx context.Context, identity domain.Identity, productID int64) (*domain.Merchant, *domain.Product, error) {
	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return nil, nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, nil, apperror.NotFound("product %d not found", productID)
		}
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.MerchantID != merchant.ID {
		return nil, nil, apperror.BusinessRule("product does not belong to merchant")
	}
	return merchant, product, nil
}

func (s *productService) setActive(ctx context.Context, productID int64, active bool) error {
	if err := s.products.SetActive(ctx, productID, active); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return apperror.NotFound("product %d not found", productID)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}
