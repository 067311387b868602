package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-delivery/internal/domain"
)

var (
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrCustomerAlreadyExists = errors.New("customer with this tax id already exists")
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Customer, error)
	WithTx(tx *sql.Tx) CustomerRepository
}

type customerRepository struct {
	db DBTX
}

// NewCustomerRepository creates a new instance of CustomerRepository
func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) WithTx(tx *sql.Tx) CustomerRepository {
	if tx == nil {
		return r
	}
	return &customerRepository{db: tx}
}

const customerColumns = `id, user_id, name, tax_id, phone, address, latitude, longitude, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (user_id, name, tax_id, phone, address, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		customer.UserID,
		customer.Name,
		customer.TaxID,
		customer.Phone,
		customer.Address,
		customer.Latitude,
		customer.Longitude,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "customers_tax_id_key") {
			return ErrCustomerAlreadyExists
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// Update replaces the editable profile fields
func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, phone = $3, address = $4, latitude = $5, longitude = $6
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		customer.ID,
		customer.Name,
		customer.Phone,
		customer.Address,
		customer.Latitude,
		customer.Longitude,
	).Scan(&customer.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return nil
}

func (r *customerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *customerRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE user_id = $1`
	return r.findOne(ctx, query, userID)
}

func (r *customerRepository) findOne(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	customer := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&customer.ID,
		&customer.UserID,
		&customer.Name,
		&customer.TaxID,
		&customer.Phone,
		&customer.Address,
		&customer.Latitude,
		&customer.Longitude,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	return customer, nil
}
