package usecase

import (
	"context"
	"errors"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/internal/service/jwt"
	"github.com/clientpulse/clientpulse/pkg/apperror"
)

// PasswordVerifier checks an operator password against its stored hash
type PasswordVerifier interface {
	VerifyPassword(password, hash string) (bool, error)
}

// TokenIssuer issues operator access tokens
type TokenIssuer interface {
	GenerateToken(claims jwt.Claims) (string, error)
}

// AuthUseCase authenticates operators for the review API
type AuthUseCase struct {
	operatorRepo ports.OperatorRepository
	passwords    PasswordVerifier
	tokens       TokenIssuer
	log          logger.Logger
}

// NewAuthUseCase creates an auth use case
func NewAuthUseCase(
	operatorRepo ports.OperatorRepository,
	passwords PasswordVerifier,
	tokens TokenIssuer,
	log logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		operatorRepo: operatorRepo,
		passwords:    passwords,
		tokens:       tokens,
		log:          log,
	}
}

// Login verifies the credentials and returns a signed access token. Unknown
// usernames and wrong passwords produce the same error so the endpoint does
// not leak which operators exist.
func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", apperror.NewValidationFailure("username and password are required", nil)
	}

	operator, err := uc.operatorRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrOperatorNotFound) {
			uc.log.Warn(ctx, "login attempt for unknown operator", map[string]interface{}{
				"username": username,
			})
			return "", apperror.NewUnauthorized("invalid credentials")
		}
		return "", apperror.NewPersistenceFailure("failed to look up operator", err)
	}

	ok, err := uc.passwords.VerifyPassword(password, operator.PasswordHash)
	if err != nil {
		return "", apperror.NewInternal("failed to verify password", err)
	}
	if !ok {
		uc.log.Warn(ctx, "login attempt with wrong password", map[string]interface{}{
			"username": username,
		})
		return "", apperror.NewUnauthorized("invalid credentials")
	}

	token, err := uc.tokens.GenerateToken(jwt.Claims{
		OperatorID: operator.ID,
		Username:   operator.Username,
	})
	if err != nil {
		return "", apperror.NewInternal("failed to issue token", err)
	}

	uc.log.Info(ctx, "operator logged in", map[string]interface{}{
		"username": username,
	})
	return token, nil
}
