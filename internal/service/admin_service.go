package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"food-delivery/internal/apperror"
	"food-delivery/internal/domain"
	"food-delivery/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CategoryInput describes a new category.
type CategoryInput struct {
	Name        string
	Slug        string
	Icon        string
	Description string
}

// AdminService holds the platform administration operations.
type AdminService interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error)
	PlatformStats(ctx context.Context) (domain.PlatformStats, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	ListMerchants(ctx context.Context, page PageRequest) (domain.Page[*domain.Merchant], error)
}

type adminService struct {
	categories repository.CategoryRepository
	merchants  repository.MerchantRepository
	stats      repository.StatsRepository
	logger     *zap.Logger
}

func NewAdminService(
	categories repository.CategoryRepository,
	merchants repository.MerchantRepository,
	stats repository.StatsRepository,
	logger *zap.Logger,
) AdminService {
	return &adminService{categories: categories, merchants: merchants, stats: stats, logger: logger}
}

// CreateCategory stores an active category. The slug is derived from the
// name when not given.
func (s *adminService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(input.Name)
	}
	if slug == "" {
		return nil, apperror.Validation("category name must contain letters or digits")
	}

	category := &domain.Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Icon:        input.Icon,
		Description: input.Description,
		Active:      true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, apperror.Conflict("category %q already exists", category.Name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("Category created", zap.Int64("category_id", category.ID), zap.String("slug", slug))
	return category, nil
}

func (s *adminService) PlatformStats(ctx context.Context) (domain.PlatformStats, error) {
	stats, err := s.stats.Platform(ctx)
	if err != nil {
		return domain.PlatformStats{}, fmt.Errorf("failed to load platform stats: %w", err)
	}
	return stats, nil
}

// ListCategories returns every category, inactive ones included.
func (s *adminService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ListMerchants pages through every merchant, inactive ones included.
func (s *adminService) ListMerchants(ctx context.Context, page PageRequest) (domain.Page[*domain.Merchant], error) {
	page = page.Normalize()

	merchants, total, err := s.merchants.ListAll(ctx, page.Page, page.Size)
	if err != nil {
		return domain.Page[*domain.Merchant]{}, fmt.Errorf("failed to list merchants: %w", err)
	}
	return domain.NewPage(merchants, page.Page, page.Size, total), nil
}

// Slugify lowercases s, drops accents and joins alphanumeric runs with '-'.
func Slugify(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
