package auth

import (
	"context"
	"errors"
	"time"

	ledger "gridmarket/internal/ledger/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitialConsumerCredit is the prepaid balance granted on registration.
var InitialConsumerCredit = decimal.NewFromInt(1000)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Service registers accounts and issues tokens. The signing secret is
// injected; nothing here reads process-wide state.
type Service struct {
	users    UserRepository
	accounts ledger.AccountRepository
	secret   []byte
	clock    Clock
}

// NewService constructs the service.
func NewService(users UserRepository, accounts ledger.AccountRepository, secret []byte, clock Clock) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth service: nil user repository")
	}
	if accounts == nil {
		return nil, errors.New("auth service: nil account repository")
	}
	if len(secret) == 0 {
		return nil, ErrMisconfiguration
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{users: users, accounts: accounts, secret: secret, clock: clock}, nil
}

// Register creates an account. Consumers start with the initial prepaid
// credit; everyone else starts at zero.
func (s *Service) Register(ctx context.Context, email, password, name, role string) (string, error) {
	normalized, ok := NormalizeRole(role)
	if !ok || normalized == RoleAdmin {
		return "", ErrInvalidRole
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	now := s.clock.Now()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         normalized,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	balance := decimal.Zero
	if normalized == RoleConsumer {
		balance = InitialConsumerCredit
	}
	err = s.accounts.Create(ctx, &ledger.Account{
		UserID:    user.ID,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Login verifies credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return SignJWT(user, s.secret, s.clock.Now())
}
