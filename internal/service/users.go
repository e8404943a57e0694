package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/echoshop/internal/events"
	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/repo"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/hash"
	"github.com/Skotchmaster/echoshop/pkg/logging"
	"github.com/Skotchmaster/echoshop/pkg/tokens"
)

const minPasswordLen = 6

type UserService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Events events.Publisher
}

type Session struct {
	User  *models.User
	Token *tokens.Issued
}

func AuthUser(u *models.User, token string) transport.AuthUser {
	return transport.AuthUser{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
		Image:   u.Image,
		Token:   token,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateIdentity(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return fail(ErrValidation, "Name is required")
	}
	if email == "" {
		return fail(ErrValidation, "Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fail(ErrValidation, "Email is invalid")
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < minPasswordLen {
		return fail(ErrValidation, "Password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "user.register")

	email := normalizeEmail(req.Email)
	if err := validateIdentity(req.Name, email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Name: strings.TrimSpace(req.Name), Email: email, PasswordHash: pwHash}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fail(ErrConflict, "User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publish(ctx, "user_registered", user)
	return s.session(user)
}

func (s *UserService) Login(ctx context.Context, req transport.LoginRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fail(ErrValidation, "Email and password are required")
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrUnauthorized, "Invalid email or password")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return nil, fail(ErrUnauthorized, "Invalid email or password")
	}

	s.publish(ctx, "user_logged_in", user)
	return s.session(user)
}

func (s *UserService) session(user *models.User) (*Session, error) {
	issued, err := s.Tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: issued}, nil
}

// Logout revokes the token id carried by claims. Revoking twice is harmless.
func (s *UserService) Logout(ctx context.Context, claims *tokens.SessionClaims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return fail(ErrUnauthorized, "Not authorized, token failed")
	}
	expiresAt := claims.ExpiresAt
	if expiresAt == nil {
		return fail(ErrUnauthorized, "Not authorized, token failed")
	}
	if err := s.Repo.RevokeToken(ctx, claims.ID, userID, expiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "User not found")
	}
	return u, err
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req transport.ProfileRequest) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	name, email := u.Name, u.Email
	if strings.TrimSpace(req.Name) != "" {
		name = strings.TrimSpace(req.Name)
	}
	if e := normalizeEmail(req.Email); e != "" {
		email = e
	}
	if err := validateIdentity(name, email); err != nil {
		return nil, err
	}
	u.Name, u.Email = name, email
	if req.Image != "" {
		u.Image = req.Image
	}
	if req.Password != "" {
		if err := validatePassword(req.Password); err != nil {
			return nil, err
		}
		pwHash, err := hash.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = pwHash
	}

	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.publish(ctx, "user_updated", u)
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req transport.AdminUserRequest) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if err := validateIdentity(req.Name, email); err != nil {
		return nil, err
	}
	u.Name = strings.TrimSpace(req.Name)
	u.Email = email
	u.IsAdmin = req.IsAdmin

	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.publish(ctx, "user_updated", u)
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return fail(ErrValidation, "Cannot delete yourself")
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrNotFound, "User not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.publish(ctx, "user_deleted", &models.User{ID: id})
	return nil
}

func (s *UserService) save(ctx context.Context, u *models.User) error {
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return fail(ErrConflict, "User already exists")
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, typ string, u *models.User) {
	events.Publish(ctx, s.Events, logging.FromContext(ctx), events.TopicUsers, u.ID.String(), map[string]any{
		"type":   typ,
		"userID": u.ID,
	})
}
