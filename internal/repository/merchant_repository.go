package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-delivery/internal/domain"
)

var (
	ErrMerchantNotFound      = errors.New("merchant not found")
	ErrMerchantAlreadyExists = errors.New("merchant with this tax id already exists")
)

// MerchantRepository defines the interface for merchant data access
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	FindByID(ctx context.Context, id int64) (*domain.Merchant, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Merchant, error)
	ListActive(ctx context.Context, categoryID *int64, page, pageSize int) ([]*domain.Merchant, int, error)
	ListAll(ctx context.Context, page, pageSize int) ([]*domain.Merchant, int, error)
	WithTx(tx *sql.Tx) MerchantRepository
}

type merchantRepository struct {
	db DBTX
}

// NewMerchantRepository creates a new instance of MerchantRepository
func NewMerchantRepository(db DBTX) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) WithTx(tx *sql.Tx) MerchantRepository {
	if tx == nil {
		return r
	}
	return &merchantRepository{db: tx}
}

const merchantColumns = `id, user_id, trade_name, tax_id, phone, address, latitude, longitude,
		category_id, logo_url, description, active, created_at, updated_at`

func (r *merchantRepository) Create(ctx context.Context, merchant *domain.Merchant) error {
	query := `
		INSERT INTO merchants (user_id, trade_name, tax_id, phone, address, latitude, longitude,
			category_id, logo_url, description, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		merchant.UserID,
		merchant.TradeName,
		merchant.TaxID,
		merchant.Phone,
		merchant.Address,
		merchant.Latitude,
		merchant.Longitude,
		merchant.CategoryID,
		merchant.LogoURL,
		merchant.Description,
		merchant.Active,
	).Scan(&merchant.ID, &merchant.CreatedAt, &merchant.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "merchants_tax_id_key") {
			return ErrMerchantAlreadyExists
		}
		return fmt.Errorf("failed to create merchant: %w", err)
	}

	return nil
}

func (r *merchantRepository) FindByID(ctx context.Context, id int64) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`
	return scanMerchant(r.db.QueryRowContext(ctx, query, id))
}

func (r *merchantRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE user_id = $1`
	return scanMerchant(r.db.QueryRowContext(ctx, query, userID))
}

// ListActive lists active merchants, optionally restricted to one category
func (r *merchantRepository) ListActive(ctx context.Context, categoryID *int64, page, pageSize int) ([]*domain.Merchant, int, error) {
	where := "WHERE active = TRUE"
	args := []any{}
	if categoryID != nil {
		where += " AND category_id = $1"
		args = append(args, *categoryID)
	}
	return r.list(ctx, where, args, page, pageSize)
}

// ListAll lists every merchant, inactive ones included
func (r *merchantRepository) ListAll(ctx context.Context, page, pageSize int) ([]*domain.Merchant, int, error) {
	return r.list(ctx, "", nil, page, pageSize)
}

func (r *merchantRepository) list(ctx context.Context, where string, args []any, page, pageSize int) ([]*domain.Merchant, int, error) {

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM merchants "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count merchants: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM merchants
		%s
		ORDER BY trade_name ASC
		LIMIT $%d OFFSET $%d
	`, merchantColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset(page, pageSize))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list merchants: %w", err)
	}
	defer rows.Close()

	merchants := []*domain.Merchant{}
	for rows.Next() {
		merchant, err := scanMerchant(rows)
		if err != nil {
			return nil, 0, err
		}
		merchants = append(merchants, merchant)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating merchants: %w", err)
	}

	return merchants, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMerchant(row rowScanner) (*domain.Merchant, error) {
	merchant := &domain.Merchant{}
	err := row.Scan(
		&merchant.ID,
		&merchant.UserID,
		&merchant.TradeName,
		&merchant.TaxID,
		&merchant.Phone,
		&merchant.Address,
		&merchant.Latitude,
		&merchant.Longitude,
		&merchant.CategoryID,
		&merchant.LogoURL,
		&merchant.Description,
		&merchant.Active,
		&merchant.CreatedAt,
		&merchant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to scan merchant: %w", err)
	}
	return merchant, nil
}
