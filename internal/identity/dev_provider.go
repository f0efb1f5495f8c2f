package identity

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// DevUser is a directory entry for the development provider.
type DevUser struct {
	User     models.User
	Password string
}

// DefaultDevUsers is the directory used when no other is supplied.
func DefaultDevUsers() []DevUser {
	return []DevUser{
		{User: models.User{ID: "admin-1", Name: "Bookit Admin", Email: "admin@pau.edu.ng", Role: models.RoleAdmin, Active: true}, Password: "admin123"},
		{User: models.User{ID: "student-1", Name: "Ada Student", Email: "student@pau.edu.ng", Role: models.RoleStudent, Active: true}, Password: "student123"},
		{User: models.User{ID: "faculty-1", Name: "Dr. Faculty", Email: "faculty@pau.edu.ng", Role: models.RoleFaculty, Active: true}, Password: "faculty123"},
		{User: models.User{ID: "facility-1", Name: "Facility Desk", Email: "facility@pau.edu.ng", Role: models.RoleFacility, Active: true}, Password: "facility123"},
	}
}

type devAccount struct {
	user models.User
	hash []byte
}

type devProvider struct {
	codec    *TokenCodec
	accounts map[string]devAccount
	byID     map[string]models.User
}

// NewDevProvider authenticates against a fixed in-memory directory and signs its own tokens.
func NewDevProvider(codec *TokenCodec, users []DevUser) (Provider, error) {
	return newDevProvider(codec, users, bcrypt.DefaultCost)
}

func newDevProvider(codec *TokenCodec, users []DevUser, cost int) (Provider, error) {
	if len(users) == 0 {
		users = DefaultDevUsers()
	}

	p := &devProvider{
		codec:    codec,
		accounts: make(map[string]devAccount, len(users)),
		byID:     make(map[string]models.User, len(users)),
	}
	for _, entry := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(entry.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", entry.User.Email, err)
		}
		email := strings.ToLower(strings.TrimSpace(entry.User.Email))
		p.accounts[email] = devAccount{user: entry.User, hash: hash}
		p.byID[entry.User.ID] = entry.User
	}
	return p, nil
}

func (p *devProvider) Name() string {
	return ProviderDev
}

func (p *devProvider) Login(_ context.Context, email, password string) (Session, error) {
	account, ok := p.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.hash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !account.user.Active {
		return Session{}, ErrInactiveUser
	}

	token, expiresAt, err := p.codec.Issue(account.user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: account.user}, nil
}

func (p *devProvider) Resolve(_ context.Context, token string) (models.User, error) {
	claimed, err := p.codec.Parse(token)
	if err != nil {
		return models.User{}, err
	}
	user, ok := p.byID[claimed.ID]
	if !ok {
		return models.User{}, ErrInvalidToken
	}
	if !user.Active {
		return models.User{}, ErrInactiveUser
	}
	return user, nil
}
