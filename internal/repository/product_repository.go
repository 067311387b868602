package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"food-delivery/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	MerchantID *int64
	ActiveOnly bool
	SortBy     string
	SortOrder  SortOrder
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]*domain.Product, int, error)
	Search(ctx context.Context, term string, page, pageSize int) ([]*domain.Product, int, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetStock(ctx context.Context, id int64, stock *int) error
	DecrementStock(ctx context.Context, id int64, quantity int) error
	LowStock(ctx context.Context, merchantID int64, threshold int) ([]*domain.Product, error)
	Stats(ctx context.Context, merchantID int64, threshold int) (domain.ProductStats, error)
	WithTx(tx *sql.Tx) ProductRepository
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *sql.Tx) ProductRepository {
	if tx == nil {
		return r
	}
	return &productRepository{db: tx}
}

const productColumns = `p.id, p.merchant_id, p.name, p.description, p.price, p.image_url, p.active,
		p.stock, p.category_id, p.created_at, p.updated_at`

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (merchant_id, name, description, price, image_url, active, stock, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.MerchantID,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Active,
		product.Stock,
		product.CategoryID,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates the editable attributes of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, image_url = $5,
		    stock = $6, category_id = $7
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Stock,
		product.CategoryID,
	).Scan(&product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves products with optional merchant filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"stock":      true,
	}

	sortBy := filter.SortBy
	if !validSortFields[sortBy] {
		sortBy = "name"
	}

	sortOrder := filter.SortOrder
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderAsc
	}

	conditions := []string{}
	args := []any{}
	if filter.MerchantID != nil {
		args = append(args, *filter.MerchantID)
		conditions = append(conditions, fmt.Sprintf("p.merchant_id = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "p.active = TRUE")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM products p " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		%s
		ORDER BY p.%s %s, p.id ASC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset(page, pageSize))

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Search finds active products of active merchants by name or description
func (r *productRepository) Search(ctx context.Context, term string, page, pageSize int) ([]*domain.Product, int, error) {
	if strings.TrimSpace(term) == "" {
		return r.List(ctx, ProductFilter{ActiveOnly: true}, page, pageSize)
	}

	pattern := "%" + strings.TrimSpace(term) + "%"
	where := `
		WHERE p.active = TRUE AND m.active = TRUE
		  AND (p.name ILIKE $1 OR p.description ILIKE $1)
	`

	var total int
	countQuery := `SELECT COUNT(*) FROM products p JOIN merchants m ON m.id = p.merchant_id ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	query := `SELECT ` + productColumns + `
		FROM products p
		JOIN merchants m ON m.id = p.merchant_id
		` + where + `
		ORDER BY p.name ASC, p.id ASC
		LIMIT $2 OFFSET $3
	`

	products, err := r.queryProducts(ctx, query, pattern, pageSize, offset(page, pageSize))
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.execOne(ctx, `UPDATE products SET active = $2 WHERE id = $1`, id, active)
}

// SetStock replaces the stock level. A nil stock stops tracking.
func (r *productRepository) SetStock(ctx context.Context, id int64, stock *int) error {
	return r.execOne(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, stock)
}

// DecrementStock atomically removes quantity units from a tracked product.
// It returns ErrInsufficientStock when the product does not track stock or
// holds fewer than quantity units.
func (r *productRepository) DecrementStock(ctx context.Context, id int64, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock IS NOT NULL AND stock >= $2
	`

	result, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrInsufficientStock
	}

	return nil
}

// LowStock lists tracked products of a merchant whose stock is below threshold
func (r *productRepository) LowStock(ctx context.Context, merchantID int64, threshold int) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.merchant_id = $1 AND p.stock IS NOT NULL AND p.stock < $2
		ORDER BY p.stock ASC, p.name ASC
	`
	return r.queryProducts(ctx, query, merchantID, threshold)
}

func (r *productRepository) Stats(ctx context.Context, merchantID int64, threshold int) (domain.ProductStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE active),
		       COUNT(*) FILTER (WHERE stock IS NOT NULL AND stock < $2)
		FROM products
		WHERE merchant_id = $1
	`

	var stats domain.ProductStats
	err := r.db.QueryRowContext(ctx, query, merchantID, threshold).Scan(&stats.Total, &stats.Active, &stats.LowStock)
	if err != nil {
		return domain.ProductStats{}, fmt.Errorf("failed to compute product stats: %w", err)
	}
	return stats, nil
}

func (r *productRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.MerchantID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.ImageURL,
		&product.Active,
		&product.Stock,
		&product.CategoryID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}
