package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"handmade/internal/domain"
	"handmade/internal/repos"
	"handmade/internal/validate"
)

type AuthService struct {
	Users *repos.UserRepo
}

type Registration struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
}

// Register creates a customer or vendor account. Admins are never self-registered.
func (s *AuthService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	email, ok := validate.Email(r.Email)
	if !ok {
		return nil, invalid("email is not valid")
	}
	if !validate.Password(r.Password) {
		return nil, invalid("password needs 8+ characters with upper, lower, digit and symbol")
	}
	name, ok := validate.Name(r.DisplayName)
	if !ok {
		return nil, invalid("display name must be 1..40 characters")
	}
	phone, ok := validate.Phone(r.Phone)
	if !ok {
		return nil, invalid("phone number is not valid")
	}
	role, ok := validate.Role(r.Role)
	if !ok {
		return nil, invalid("role must be customer or vendor")
	}

	if _, err := s.Users.ByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{ID: "u-" + uuid.NewString(), Email: email, DisplayName: name, Phone: phone, Hash: string(hash), Role: role}
	if err := s.Users.Create(u); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "create user")
	}
	return s.Users.ByID(u.ID)
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
