package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"food-delivery/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	IdentityKey contextKey = "identity"
)

// AuthMiddleware validates JWT tokens and extracts user claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if !token.Valid {
				logger.Debug("Invalid token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			identity, err := identityFromClaims(claims)
			if err != nil {
				logger.Warn("Rejected token claims", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, strconv.FormatInt(identity.UserID, 10))
			ctx = context.WithValue(ctx, UserRoleKey, string(identity.Role))
			ctx = context.WithValue(ctx, IdentityKey, identity)

			logger.Debug("User authenticated",
				zap.Int64("user_id", identity.UserID),
				zap.String("role", string(identity.Role)),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromClaims(claims jwt.MapClaims) (domain.Identity, error) {
	rawID, ok := claims["user_id"].(string)
	if !ok {
		return domain.Identity{}, errors.New("missing user_id claim")
	}
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return domain.Identity{}, errors.New("malformed user_id claim")
	}

	rawRole, ok := claims["role"].(string)
	if !ok {
		return domain.Identity{}, errors.New("missing role claim")
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return domain.Identity{}, err
	}

	email, _ := claims["email"].(string)
	return domain.Identity{UserID: userID, Email: email, Role: role}, nil
}

// WithIdentity stores an authenticated caller in ctx.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, strconv.FormatInt(identity.UserID, 10))
	ctx = context.WithValue(ctx, UserRoleKey, string(identity.Role))
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity returns the caller resolved by AuthMiddleware
func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
