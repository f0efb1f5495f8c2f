package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/identity"
	"github.com/pau-bookit/bookit-api/internal/models"
)

// AuthService issues sessions and resolves bearer tokens through the configured provider.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Authenticate(ctx context.Context, token string) (models.User, error)
	ProviderName() string
}

type authService struct {
	provider  identity.Provider
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService wraps an identity provider.
func NewAuthService(provider identity.Provider, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		provider:  provider,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	session, err := s.provider.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		s.logger.Info().Err(err).Str("provider", s.provider.Name()).Msg("login rejected")
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Str("user_id", session.User.ID).Str("role", string(session.User.Role)).Msg("login succeeded")
	return dto.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserResponse(session.User),
	}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.User{}, identity.ErrInvalidToken
	}
	return s.provider.Resolve(ctx, token)
}

func (s *authService) ProviderName() string {
	return s.provider.Name()
}
