package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/homehaven/marketplace-api/internal/core/domain"
	"github.com/homehaven/marketplace-api/internal/core/ports"
)

const defaultRefreshTTL = 7 * 24 * time.Hour

// sessionService implements the session lifecycle: register, login,
// refresh with mandatory rotation, and best-effort logout.
type sessionService struct {
	users      ports.UserRepository
	tokens     ports.RefreshTokenRepository
	hasher     *PasswordHasher
	signer     *TokenSigner
	throttle   ports.LoginThrottle
	refreshTTL time.Duration
	log        zerolog.Logger

	// dummyHash is compared against when the email is unknown, so the
	// not-found and wrong-password paths cost roughly the same.
	dummyHash string
}

// NewSessionService wires the session core. throttle may be nil to disable
// login throttling.
func NewSessionService(
	users ports.UserRepository,
	tokens ports.RefreshTokenRepository,
	hasher *PasswordHasher,
	signer *TokenSigner,
	throttle ports.LoginThrottle,
	refreshTTL time.Duration,
	log zerolog.Logger,
) ports.SessionService {
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	dummy, err := hasher.Hash("homehaven-dummy-password")
	if err != nil {
		// hasher only fails on empty/oversized input; neither applies here.
		panic(fmt.Sprintf("session: dummy hash: %v", err))
	}
	return &sessionService{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		signer:     signer,
		throttle:   throttle,
		refreshTTL: refreshTTL,
		log:        log,
		dummyHash:  dummy,
	}
}

func (s *sessionService) Register(ctx context.Context, email, password, fullName string, role domain.Role) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if ok := s.throttleAllow(ctx, email); !ok {
		return nil, domain.ErrTooManyLoginAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Burn a bcrypt comparison so an unknown email takes about as long
		// as a wrong password.
		s.hasher.Verify(password, s.dummyHash)
		s.throttleFailure(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.throttleFailure(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}
	s.throttleReset(ctx, email)

	return s.openSession(ctx, user)
}

func (s *sessionService) Refresh(ctx context.Context, rawRefreshToken string) (*ports.LoginResult, error) {
	if rawRefreshToken == "" {
		return nil, domain.ErrRefreshTokenMissing
	}

	record, err := s.tokens.Consume(ctx, rawRefreshToken)
	switch {
	case errors.Is(err, domain.ErrRefreshTokenNotFound), errors.Is(err, domain.ErrRefreshTokenExpired):
		// Collapsed on purpose: clients must not learn whether the token
		// ever existed.
		return nil, domain.ErrInvalidRefreshToken
	case err != nil:
		return nil, err
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

func (s *sessionService) Logout(ctx context.Context, rawRefreshToken string) {
	if rawRefreshToken == "" {
		return
	}
	if err := s.tokens.Revoke(ctx, rawRefreshToken); err != nil {
		// Logout never surfaces store errors; the cookie is cleared
		// regardless and the record expires on its own.
		s.log.Warn().Err(err).Msg("logout: refresh token revoke failed")
	}
}

func (s *sessionService) LogoutAll(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// openSession issues the access token and a fresh refresh record. Used by
// both login (new session) and refresh (rotation: the old record is already
// consumed by the time this runs).
func (s *sessionService) openSession(ctx context.Context, user *domain.User) (*ports.LoginResult, error) {
	access, expiresAt, err := s.signer.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.tokens.Create(ctx, user.ID, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &ports.LoginResult{
		AccessToken:     access,
		AccessExpiresAt: expiresAt,
		RefreshToken:    refresh,
		User:            user,
	}, nil
}

// The throttle is advisory: when its backing store is unreachable we log
// and fail open rather than locking every user out.

func (s *sessionService) throttleAllow(ctx context.Context, key string) bool {
	if s.throttle == nil {
		return true
	}
	ok, err := s.throttle.Allow(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		return true
	}
	return ok
}

func (s *sessionService) throttleFailure(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("login throttle record failed")
	}
}

func (s *sessionService) throttleReset(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("login throttle reset failed")
	}
}
