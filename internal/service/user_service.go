package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"food-delivery/internal/apperror"
	"food-delivery/internal/config"
	"food-delivery/internal/database"
	"food-delivery/internal/domain"
	"food-delivery/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt hashing
const BcryptCost = 10

var (
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")
	ErrInvalidToken       = apperror.Unauthorized("invalid token")
	ErrTokenExpired       = apperror.Unauthorized("token has expired")
	ErrAccountDisabled    = apperror.Forbidden("account is disabled")
)

// RegisterCustomerInput is the sign-up payload of a customer account.
type RegisterCustomerInput struct {
	Email     string
	Password  string
	Name      string
	TaxID     string
	Phone     string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// RegisterMerchantInput is the sign-up payload of a merchant account.
type RegisterMerchantInput struct {
	Email       string
	Password    string
	TradeName   string
	TaxID       string
	Phone       string
	Address     string
	Latitude    *float64
	Longitude   *float64
	CategoryID  *int64
	LogoURL     string
	Description string
}

// AuthResult is returned by every operation that issues tokens.
type AuthResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *domain.User `json:"user"`
}

// Account is the authenticated user with its role profile.
type Account struct {
	User     *domain.User     `json:"user"`
	Customer *domain.Customer `json:"customer,omitempty"`
	Merchant *domain.Merchant `json:"merchant,omitempty"`
}

// UserService defines the interface for identity business logic
type UserService interface {
	RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (*AuthResult, error)
	RegisterMerchant(ctx context.Context, input RegisterMerchantInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	ValidateToken(tokenString string) (*Claims, error)
	Me(ctx context.Context, identity domain.Identity) (*Account, error)
	Deactivate(ctx context.Context, identity domain.Identity) error
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type userService struct {
	tx               database.TxRunner
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	customerRepo     repository.CustomerRepository
	merchantRepo     repository.MerchantRepository
	categoryRepo     repository.CategoryRepository
	jwt              config.JWTConfig
	logger           *zap.Logger
}

// NewUserService creates a new instance of UserService
func NewUserService(
	tx database.TxRunner,
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	customerRepo repository.CustomerRepository,
	merchantRepo repository.MerchantRepository,
	categoryRepo repository.CategoryRepository,
	jwtConfig config.JWTConfig,
	logger *zap.Logger,
) UserService {
	return &userService{
		tx:               tx,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		customerRepo:     customerRepo,
		merchantRepo:     merchantRepo,
		categoryRepo:     categoryRepo,
		jwt:              jwtConfig,
		logger:           logger,
	}
}

// RegisterCustomer creates the login account and the customer profile together
func (s *userService) RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (*AuthResult, error) {
	var user *domain.User
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		user, err = s.createUser(ctx, tx, input.Email, input.Password, domain.RoleCustomer)
		if err != nil {
			return err
		}

		customer := &domain.Customer{
			UserID:    user.ID,
			Name:      input.Name,
			TaxID:     input.TaxID,
			Phone:     input.Phone,
			Address:   input.Address,
			Latitude:  input.Latitude,
			Longitude: input.Longitude,
		}
		if err := s.customerRepo.WithTx(tx).Create(ctx, customer); err != nil {
			if errors.Is(err, repository.ErrCustomerAlreadyExists) {
				return apperror.Conflict("tax id already in use")
			}
			return fmt.Errorf("failed to create customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer registered", zap.Int64("user_id", user.ID))
	return s.issueTokens(ctx, user)
}

// RegisterMerchant creates the login account and the merchant profile together
func (s *userService) RegisterMerchant(ctx context.Context, input RegisterMerchantInput) (*AuthResult, error) {
	var user *domain.User
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if input.CategoryID != nil {
			if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
				if errors.Is(err, repository.ErrCategoryNotFound) {
					return apperror.BusinessRule("category %d not found", *input.CategoryID)
				}
				return fmt.Errorf("failed to load category: %w", err)
			}
		}

		var err error
		user, err = s.createUser(ctx, tx, input.Email, input.Password, domain.RoleMerchant)
		if err != nil {
			return err
		}

		merchant := &domain.Merchant{
			UserID:      user.ID,
			TradeName:   input.TradeName,
			TaxID:       input.TaxID,
			Phone:       input.Phone,
			Address:     input.Address,
			Latitude:    input.Latitude,
			Longitude:   input.Longitude,
			CategoryID:  input.CategoryID,
			LogoURL:     input.LogoURL,
			Description: input.Description,
			Active:      true,
		}
		if err := s.merchantRepo.WithTx(tx).Create(ctx, merchant); err != nil {
			if errors.Is(err, repository.ErrMerchantAlreadyExists) {
				return apperror.Conflict("tax id already in use")
			}
			return fmt.Errorf("failed to create merchant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Merchant registered", zap.Int64("user_id", user.ID))
	return s.issueTokens(ctx, user)
}

func (s *userService) createUser(ctx context.Context, tx *sql.Tx, email, password string, role domain.Role) (*domain.User, error) {
	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
		Active:       true,
	}

	if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, apperror.Conflict("email already in use")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns JWT tokens
func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(ctx, user)
}

// Logout invalidates the refresh token
func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// Token doesn't exist, consider it already logged out
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RefreshToken rotates a valid refresh token into a new token pair
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (*AuthResult, error) {
	refreshToken, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenRevoked) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, refreshToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	if err := s.refreshTokenRepo.Revoke(ctx, refreshTokenString); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwt.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, apperror.Wrap(apperror.KindUnauthorized, err, "invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Me returns the calling user with its customer or merchant profile
func (s *userService) Me(ctx context.Context, identity domain.Identity) (*Account, error) {
	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	account := &Account{User: user}
	switch user.Role {
	case domain.RoleCustomer:
		if account.Customer, err = customerFor(ctx, s.customerRepo, identity); err != nil {
			return nil, err
		}
	case domain.RoleMerchant:
		if account.Merchant, err = merchantFor(ctx, s.merchantRepo, identity); err != nil {
			return nil, err
		}
	}
	return account, nil
}

// Deactivate disables the caller's account and revokes its refresh tokens.
// Access tokens already issued stay valid until they expire.
func (s *userService) Deactivate(ctx context.Context, identity domain.Identity) error {
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.userRepo.WithTx(tx).SetActive(ctx, identity.UserID, false); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperror.NotFound("user not found")
			}
			return fmt.Errorf("failed to deactivate user: %w", err)
		}
		if err := s.refreshTokenRepo.WithTx(tx).RevokeAllForUser(ctx, identity.UserID); err != nil {
			return fmt.Errorf("failed to revoke refresh tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Account deactivated", zap.Int64("user_id", identity.UserID))
	return nil
}

func (s *userService) issueTokens(ctx context.Context, user *domain.User) (*AuthResult, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
		User:         user,
	}, nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// generateAccessToken signs an HS256 token carrying user id, email and role
func (s *userService) generateAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: strconv.FormatInt(user.ID, 10),
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.AccessTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwt.Secret))
}

// generateRefreshToken generates a refresh token and stores it in the database
func (s *userService) generateRefreshToken(ctx context.Context, user *domain.User) (string, error) {
	refreshToken := &domain.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.jwt.RefreshTTL()),
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", err
	}

	return refreshToken.Token, nil
}
