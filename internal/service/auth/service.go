// Package auth registers and authenticates users. Passwords are bcrypt hashed; sessions
// are HS256 JWTs whose id is persisted so logout can revoke them.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/access"
	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session is an authenticated user together with its bearer token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// ProfileInput holds optional profile changes; nil fields are left unchanged.
type ProfileInput struct {
	Username *string
	Email    *string
	Password *string
}

// Service handles register/login/profile flows.
type Service struct {
	users  userrepo.Repository
	tokens *tokenManager
	logger *zap.Logger
}

func New(users userrepo.Repository, tokens tokenrepo.Repository, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:  users,
		tokens: newTokenManager(tokens, []byte(secret), ttl),
		logger: logger.Named("auth_service"),
	}
}

// Register creates a user account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, domain.InvalidArgument("Username, email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.InvalidArgument("Please provide a valid email")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindInternal, Message: "Failed to register user", Err: err}
	}

	u, err := s.users.Create(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, &domain.Error{Kind: domain.KindConflict, Message: "User already exists with this email or username", Err: err}
		}
		return nil, domain.StoreError(err, "Failed to register user")
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return s.startSession(ctx, u)
}

// Login accepts either the username or the email as login.
func (s *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.Unauthenticated("Invalid credentials")
	}
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthenticated("Invalid credentials")
		}
		return nil, domain.StoreError(err, "Failed to log in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthenticated("Invalid credentials")
	}
	return s.startSession(ctx, u)
}

func (s *Service) startSession(ctx context.Context, u *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return nil, domain.StoreError(err, "Failed to issue token")
	}
	return &Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate validates a bearer token and loads its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Validate(ctx, token)
	if err != nil {
		if !errors.Is(err, errInvalidToken) {
			return nil, domain.StoreError(err, "Failed to authenticate")
		}
		return nil, domain.Unauthenticated("Not authorized, token failed")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthenticated("Not authorized, user not found")
		}
		return nil, domain.StoreError(err, "Failed to load user")
	}
	return u, nil
}

// Logout revokes the session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		if errors.Is(err, errInvalidToken) || errors.Is(err, domain.ErrNotFound) {
			return domain.Unauthenticated("Not authorized, token failed")
		}
		return domain.StoreError(err, "Failed to log out")
	}
	return nil
}

// PurgeExpired removes sessions past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx)
}

func (s *Service) Profile(ctx context.Context, p access.Principal) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, domain.StoreError(err, "User not found")
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, p access.Principal, in ProfileInput) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, domain.StoreError(err, "User not found")
	}

	if in.Username != nil {
		if v := strings.TrimSpace(*in.Username); v != "" {
			u.Username = v
		}
	}
	if in.Email != nil {
		if v := strings.ToLower(strings.TrimSpace(*in.Email)); v != "" {
			if !emailPattern.MatchString(v) {
				return nil, domain.InvalidArgument("Please provide a valid email")
			}
			u.Email = v
		}
	}
	if in.Password != nil && *in.Password != "" {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, &domain.Error{Kind: domain.KindInternal, Message: "Failed to update profile", Err: err}
		}
		u.PasswordHash = string(hashed)
	}

	updated, err := s.users.Update(ctx, *u)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, &domain.Error{Kind: domain.KindConflict, Message: "Username or email already in use", Err: err}
		}
		return nil, domain.StoreError(err, "Failed to update profile")
	}
	return updated, nil
}

func validatePassword(p string) error {
	if len(p) < minPasswordLength {
		return domain.InvalidArgument("Password must be at least 6 characters")
	}
	return nil
}
