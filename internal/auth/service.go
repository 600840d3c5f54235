package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"auth-api/internal/attempt"
	"auth-api/internal/audit"
)

// ErrUserNotFound is internal to the package; login collapses it into
// ErrInvalidCredentials so callers cannot tell which field was wrong.
var ErrUserNotFound = errors.New("user not found")

// UserStore is the persistent credential store. Create must be atomic with
// respect to the uniqueness check (a unique index on the normalized email)
// and report duplicates as ErrDuplicateUser.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, user User) error
}

// Hasher is the password-hashing primitive.
type Hasher interface {
	Hash(secret string) (string, error)
	Compare(secret, hash string) bool
}

// BcryptHasher is the production Hasher.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h BcryptHasher) Compare(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// Service orchestrates registration and login: lookup, hash comparison,
// attempt accounting, token issuance, audit.
type Service struct {
	store      UserStore
	attempts   attempt.Store
	tokens     *TokenManager
	hasher     Hasher
	sink       audit.Sink
	blockedIPs map[string]struct{}
}

func NewService(store UserStore, attempts attempt.Store, tokens *TokenManager, hasher Hasher, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.NoopSink{}
	}

	return &Service{
		store:      store,
		attempts:   attempts,
		tokens:     tokens,
		hasher:     hasher,
		sink:       sink,
		blockedIPs: map[string]struct{}{},
	}
}

// WithBlockedIPs installs the static origin blocklist. Blocked origins are
// denied before any attempt accounting happens.
func (s *Service) WithBlockedIPs(ips []string) *Service {
	for _, ip := range ips {
		s.blockedIPs[ip] = struct{}{}
	}
	return s
}

// Tokens exposes the token manager for middleware wiring.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// RegisterInput carries the already-validated registration fields.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     Role
}

// Register hashes the secret and persists a new credential record. The
// email is case-normalized; duplicates surface as ErrDuplicateUser.
func (s *Service) Register(ctx context.Context, input RegisterInput, origin Origin) (PublicUser, error) {
	email := NormalizeEmail(input.Email)

	role := input.Role
	if role == "" {
		role = RoleUser
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return PublicUser{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return PublicUser{}, fmt.Errorf("generate user id: %w", err)
	}

	now := time.Now().UTC()
	user := User{
		ID:           id.String(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		s.audit(ctx, "register", "", email, origin, false, auditReason(err))
		return PublicUser{}, err
	}

	s.audit(ctx, "register", user.ID, email, origin, true, "")
	return user.Public(), nil
}

// Login verifies credentials and issues a token. Unknown identifier and
// wrong secret produce the identical ErrInvalidCredentials; both count as
// failed attempts against the identifier.
func (s *Service) Login(ctx context.Context, email, password string, origin Origin) (LoginResult, error) {
	email = NormalizeEmail(email)

	if _, blocked := s.blockedIPs[origin.IP]; blocked {
		s.audit(ctx, "login", "", email, origin, false, "ip_blocked")
		return LoginResult{}, ErrIPBlocked
	}

	decision, err := s.attempts.Check(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if !decision.Allowed {
		s.audit(ctx, "login", "", email, origin, false, "account_locked")
		return LoginResult{}, AccountLockedError(decision.RetryAfter)
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, s.failLogin(ctx, email, origin, "user_not_found")
		}
		return LoginResult{}, err
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		return LoginResult{}, s.failLogin(ctx, email, origin, "password_mismatch")
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		return LoginResult{}, err
	}

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	s.audit(ctx, "login", user.ID, email, origin, true, "")
	return LoginResult{Token: token, User: user.Public()}, nil
}

// GetUser loads the public record for a verified token subject.
func (s *Service) GetUser(ctx context.Context, id string) (PublicUser, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return PublicUser{}, ErrInvalidSession
		}
		return PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *Service) failLogin(ctx context.Context, email string, origin Origin, reason string) error {
	s.audit(ctx, "login", "", email, origin, false, reason)

	locked, err := s.attempts.RecordFailure(ctx, email)
	if err != nil {
		return err
	}
	if locked {
		decision, err := s.attempts.Check(ctx, email)
		if err == nil && !decision.Allowed {
			return AccountLockedError(decision.RetryAfter)
		}
	}
	return ErrInvalidCredentials
}

func (s *Service) audit(ctx context.Context, action, userID, email string, origin Origin, success bool, reason string) {
	s.sink.Emit(ctx, audit.Event{
		Time:      time.Now().UTC(),
		Action:    action,
		UserID:    userID,
		Email:     email,
		IP:        origin.IP,
		UserAgent: origin.UserAgent,
		Success:   success,
		Reason:    reason,
	})
}

func auditReason(err error) string {
	if errors.Is(err, ErrDuplicateUser) {
		return "duplicate_user"
	}
	return "store_error"
}

// NormalizeEmail is the canonical identifier form: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
