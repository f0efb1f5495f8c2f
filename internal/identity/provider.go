package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pau-bookit/bookit-api/internal/models"
)

var (
	// ErrInvalidToken is returned when a bearer token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials is returned when a login does not match a known user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveUser is returned when the user exists but is disabled.
	ErrInactiveUser = errors.New("user is inactive")
	// ErrLoginUnsupported is returned by providers that only verify tokens issued elsewhere.
	ErrLoginUnsupported = errors.New("login is handled by the identity service")
)

// Provider names.
const (
	ProviderJWT = "jwt"
	ProviderDev = "dev"
)

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Provider resolves the acting user. The strategy is chosen once at startup.
type Provider interface {
	Name() string
	Login(ctx context.Context, email, password string) (Session, error)
	Resolve(ctx context.Context, token string) (models.User, error)
}

// New builds the named provider.
func New(name string, codec *TokenCodec, devUsers []DevUser) (Provider, error) {
	switch name {
	case ProviderJWT:
		return NewJWTProvider(codec), nil
	case ProviderDev:
		return NewDevProvider(codec, devUsers)
	}
	return nil, fmt.Errorf("unknown identity provider %q", name)
}

type jwtProvider struct {
	codec *TokenCodec
}

// NewJWTProvider verifies tokens issued by the campus identity service.
func NewJWTProvider(codec *TokenCodec) Provider {
	return &jwtProvider{codec: codec}
}

func (p *jwtProvider) Name() string {
	return ProviderJWT
}

func (p *jwtProvider) Login(context.Context, string, string) (Session, error) {
	return Session{}, ErrLoginUnsupported
}

func (p *jwtProvider) Resolve(_ context.Context, token string) (models.User, error) {
	return p.codec.Parse(token)
}
