package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/docvault/document-service/internal/core/access"
	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 80
	maxEmailLength    = 120
	minPasswordLength = 6
)

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login and identity resolution.
type AuthService struct {
	users     ports.UserRepository
	blobs     ports.BlobStore
	revoker   ports.TokenRevoker
	jwtSecret []byte
	tokenTTL  time.Duration
	log       zerolog.Logger

	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(
	users ports.UserRepository,
	blobs ports.BlobStore,
	revoker ports.TokenRevoker,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if revoker == nil {
		revoker = noopRevoker{}
	}
	return &AuthService{
		users:      users,
		blobs:      blobs,
		revoker:    revoker,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		log:        log,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*ports.AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, domain.Errorf(domain.ErrValidation, "username, email and password are required")
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLength {
		return nil, domain.Errorf(domain.ErrValidation, "username must be at least %d characters long", minUsernameLength)
	} else if n > maxUsernameLength {
		return nil, domain.Errorf(domain.ErrValidation, "username must be at most %d characters long", maxUsernameLength)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, domain.Errorf(domain.ErrValidation, "password must be at least %d characters long", minPasswordLength)
	}
	if !strings.Contains(email, "@") || utf8.RuneCountInString(email) > maxEmailLength {
		return nil, domain.Errorf(domain.ErrValidation, "invalid email format")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.issueToken(created)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return &ports.AuthResult{Token: token, User: created}, nil
}

// Login accepts a username or an email. Unknown users and wrong passwords
// produce the same error after the same amount of bcrypt work.
func (s *AuthService) Login(ctx context.Context, login, password string) (*ports.AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.Errorf(domain.ErrValidation, "username and password are required")
	}

	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.timingGuardHash(), []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, domain.ErrTokenMalformed
	}

	if claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("jti", claims.ID).Msg("revocation check failed, accepting token")
		} else if revoked {
			return nil, domain.ErrTokenRevoked
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrIdentityGone
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return user, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, caller *domain.User) (*domain.User, error) {
	if caller == nil {
		return nil, domain.ErrTokenMissing
	}
	return s.users.FindByID(ctx, caller.ID)
}

func (s *AuthService) ListUsers(ctx context.Context, caller *domain.User) ([]*domain.User, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// DeleteUser removes a user with every document it owns. Blobs are removed
// after the rows are gone; a blob that cannot be removed is only logged.
func (s *AuthService) DeleteUser(ctx context.Context, caller *domain.User, id int64) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}

	paths, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	for _, p := range paths {
		if err := s.blobs.Delete(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("blob", p).Int64("user_id", id).Msg("failed to remove blob of deleted user")
		}
	}

	s.log.Info().Int64("user_id", id).Int("documents", len(paths)).Int64("by", caller.ID).Msg("user deleted")
	return nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parseToken(raw string) (*tokenClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrTokenMissing
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenMalformed
	}
	return claims, nil
}

func (s *AuthService) timingGuardHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-guard"), s.bcryptCost)
	})
	return s.dummyHash
}

type noopRevoker struct{}

func (noopRevoker) Revoke(context.Context, string, time.Duration) error { return nil }

func (noopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }
