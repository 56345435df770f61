package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	r "github.com/fjod/go_bookstore/orders-service/internal/repository"
)

const (
	minPasswordLength = 6
	maxPasswordBytes  = 72
	maxBioLength      = 200
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type Registration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

type ProfileUpdate struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AccountService struct {
	users      r.UserRepository
	tokens     TokenIssuer
	logger     *zap.Logger
	bcryptCost int
	newID      func() string
}

type AccountOption func(*AccountService)

// WithBcryptCost lowers the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) AccountOption {
	return func(s *AccountService) { s.bcryptCost = cost }
}

func NewAccountService(users r.UserRepository, tokens TokenIssuer, logger *zap.Logger, opts ...AccountOption) *AccountService {
	s := &AccountService{
		users:      users,
		tokens:     tokens,
		logger:     logger.Named("accounts"),
		bcryptCost: bcrypt.DefaultCost,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AccountService) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	user := &domain.User{
		ID:        s.newID(),
		Name:      strings.TrimSpace(reg.Name),
		Email:     normalizeEmail(reg.Email),
		Phone:     strings.TrimSpace(reg.Phone),
		Address:   strings.TrimSpace(reg.Address),
		Bio:       reg.Bio,
		AvatarURL: strings.TrimSpace(reg.AvatarURL),
	}
	if user.AvatarURL == "" {
		user.AvatarURL = domain.DefaultAvatarURL
	}

	v := &validator{}
	validateProfile(v, user)
	if v.require("email", user.Email) && !emailPattern.MatchString(user.Email) {
		v.fail("email", "Please enter a valid email address.")
	}
	if v.require("password", reg.Password) {
		switch {
		case len(reg.Password) < minPasswordLength:
			v.fail("password", fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
		case len(reg.Password) > maxPasswordBytes:
			v.fail("password", fmt.Sprintf("Password must be at most %d bytes.", maxPasswordBytes))
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, r.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return s.authResult(user)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, r.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.authResult(user)
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, r.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateProfile replaces the editable fields. Email and password are kept.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*domain.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(upd.Name)
	user.Phone = strings.TrimSpace(upd.Phone)
	user.Address = strings.TrimSpace(upd.Address)
	user.Bio = upd.Bio
	user.AvatarURL = strings.TrimSpace(upd.AvatarURL)
	if user.AvatarURL == "" {
		user.AvatarURL = domain.DefaultAvatarURL
	}

	v := &validator{}
	validateProfile(v, user)
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, r.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *AccountService) authResult(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func validateProfile(v *validator, user *domain.User) {
	if v.require("name", user.Name) && !namePattern.MatchString(user.Name) {
		v.fail("name", "Name may only contain letters and spaces.")
	}
	if user.Phone != "" && !phonePattern.MatchString(user.Phone) {
		v.fail("phone", "Please enter a 10 digit phone number.")
	}
	if utf8.RuneCountInString(user.Bio) > maxBioLength {
		v.fail("bio", fmt.Sprintf("Bio must be at most %d characters.", maxBioLength))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
