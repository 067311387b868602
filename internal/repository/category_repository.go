package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-delivery/internal/domain"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name or slug already exists")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	ListActive(ctx context.Context) ([]*domain.Category, error)
	ListAll(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, slug, icon, description, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		category.Name,
		category.Slug,
		category.Icon,
		category.Description,
		category.Active,
	).Scan(&category.ID, &category.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// ListActive retrieves all active categories
func (r *categoryRepository) ListActive(ctx context.Context) ([]*domain.Category, error) {
	return r.list(ctx, `
		SELECT id, name, slug, icon, description, active, created_at
		FROM categories
		WHERE active = TRUE
		ORDER BY name ASC
	`)
}

// ListAll retrieves every category, inactive ones included
func (r *categoryRepository) ListAll(ctx context.Context) ([]*domain.Category, error) {
	return r.list(ctx, `
		SELECT id, name, slug, icon, description, active, created_at
		FROM categories
		ORDER BY name ASC
	`)
}

func (r *categoryRepository) list(ctx context.Context, query string) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindByID retrieves a category by ID
func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, icon, description, active, created_at
		FROM categories
		WHERE id = $1
	`
	return scanCategory(r.db.QueryRowContext(ctx, query, id))
}

// FindBySlug retrieves a category by its URL slug
func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, icon, description, active, created_at
		FROM categories
		WHERE slug = $1
	`
	return scanCategory(r.db.QueryRowContext(ctx, query, slug))
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	category := &domain.Category{}
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Icon,
		&category.Description,
		&category.Active,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return category, nil
}
