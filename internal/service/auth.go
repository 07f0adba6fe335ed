package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/quillhq/quill/internal/auth"
	"github.com/quillhq/quill/internal/cache"
	"github.com/quillhq/quill/internal/metrics"
	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store"
)

// Auth errors.
var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// SessionCache caches resolved access tokens. *cache.Cache implements it.
type SessionCache interface {
	GetSession(ctx context.Context, cacheKey string) (*cache.Session, error)
	SetSession(ctx context.Context, cacheKey string, s *cache.Session, now time.Time) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// AuthConfig tunes AuthService.
type AuthConfig struct {
	TokenTTL time.Duration
	// Hasher defaults to auth.DefaultParams.
	Hasher *auth.Hasher
}

// AuthService handles registration, login and token resolution.
type AuthService struct {
	users    store.UserStore
	sessions SessionCache
	hasher   *auth.Hasher
	tokenTTL time.Duration
	logger   *slog.Logger
	metrics  metrics.Recorder
	now      func() time.Time

	// dummyHash keeps failed logins for unknown emails as slow as wrong passwords.
	dummyHash string
}

// NewAuthService creates a new AuthService. sessions may be nil.
func NewAuthService(users store.UserStore, sessions SessionCache, cfg AuthConfig, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	dummy, _ := hasher.Hash("dummy-password")

	return &AuthService{
		users:     users,
		sessions:  sessions,
		hasher:    hasher,
		tokenTTL:  ttl,
		logger:    logger.With("component", "auth"),
		metrics:   recorder,
		now:       func() time.Time { return time.Now().UTC() },
		dummyHash: dummy,
	}
}

// Register creates an account with a hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             ulid.Make().String(),
		Email:          email,
		HashedPassword: hashed,
		CreatedAt:      s.now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks an email/password pair.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates and issues a new access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.AccessToken, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.IssueToken(ctx, user)
}

// IssueToken creates and stores an access token for user.
func (s *AuthService) IssueToken(ctx context.Context, user *model.User) (*model.AccessToken, error) {
	raw, err := auth.GenerateAccessToken()
	if err != nil {
		return nil, err
	}

	token := &model.AccessToken{
		Token:          raw,
		UserID:         user.ID,
		ExpirationDate: s.now().Add(s.tokenTTL),
	}
	if err := s.users.CreateAccessToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}

	return token, nil
}

// ResolveToken returns the user owning a valid token.
// Results are cached; the cache never outlives the token.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	if err := auth.ValidateTokenFormat(token); err != nil {
		return nil, ErrInvalidToken
	}

	now := s.now()
	key := auth.TokenDigest(token)

	if s.sessions != nil {
		cached, err := s.sessions.GetSession(ctx, key)
		if err != nil {
			s.logger.Warn("session cache lookup failed", "error", err)
		}
		if cached != nil && now.Before(cached.ExpiresAt) {
			return &model.User{ID: cached.UserID, Email: cached.Email, CreatedAt: cached.CreatedAt}, nil
		}
	}

	accessToken, err := s.users.GetAccessToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, accessToken.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if s.sessions != nil {
		session := &cache.Session{
			UserID:    user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
			ExpiresAt: accessToken.ExpirationDate,
		}
		if err := s.sessions.SetSession(ctx, key, session, now); err != nil {
			s.logger.Warn("session cache write failed", "error", err)
		}
	}

	return user, nil
}

// UpdateEmail changes the user's email. Every cached session of the user
// is dropped so all of their tokens see the change at once.
func (s *AuthService) UpdateEmail(ctx context.Context, userID, email string) (*model.User, error) {
	user, err := s.users.UpdateUserEmail(ctx, userID, email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			return nil, ErrEmailExists
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to update email: %w", err)
	}

	if s.sessions != nil {
		if err := s.sessions.DeleteUserSessions(ctx, userID); err != nil {
			s.logger.Warn("session cache invalidation failed", "error", err)
		}
	}

	return user, nil
}

// PruneExpiredTokens deletes tokens that have expired.
func (s *AuthService) PruneExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.users.DeleteExpiredAccessTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune tokens: %w", err)
	}
	s.metrics.AddTokensPruned(n)
	return n, nil
}

// TokenTTL returns the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
