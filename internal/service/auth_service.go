package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"authd/internal/cache"
	apperrors "authd/internal/errors"
	"authd/internal/mailer"
	"authd/internal/model"
	"authd/internal/password"
	"authd/internal/repository"
	"authd/internal/token"
)

const accountCacheTTL = 5 * time.Minute

// AuthService is the account lifecycle: absent -> unconfirmed -> confirmed.
type AuthService interface {
	// Register creates an unconfirmed account, or overwrites the password of
	// an existing unconfirmed one. A confirmed email is rejected outright.
	// On success a confirmation token is handed to the mailer.
	Register(ctx context.Context, email, plainPassword string) error
	// Confirm flips the account behind a confirmation token to confirmed.
	// Calling it again with the same token stays a success.
	Confirm(ctx context.Context, confirmationToken string) error
	// Login checks the password of a confirmed account and issues a session token.
	Login(ctx context.Context, email, plainPassword string) (string, error)
	// Authenticate resolves a session token back to its account.
	Authenticate(ctx context.Context, sessionToken string) (*model.Account, error)
}

type authService struct {
	accounts repository.AccountRepository
	tokens   *token.Service
	mail     mailer.Mailer
	cache    *cache.Client
}

// NewAuthService creates the account lifecycle service.
func NewAuthService(accounts repository.AccountRepository, tokens *token.Service, mail mailer.Mailer, cache *cache.Client) AuthService {
	return &authService{
		accounts: accounts,
		tokens:   tokens,
		mail:     mail,
		cache:    cache,
	}
}

func cacheKey(email string) string {
	return "account:" + email
}

// Register implements the register transition of the state machine. The
// branch on current state runs under a row lock so two concurrent
// registrations of one email cannot interleave.
func (s *authService) Register(ctx context.Context, email, plainPassword string) error {
	// bcrypt is slow; hash before taking the row lock
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.accounts.WithTransaction(ctx, func(ctx context.Context, repo repository.AccountRepository) error {
		account, err := repo.FindByEmailForUpdate(ctx, email)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return repo.Create(ctx, &model.Account{
				Email:        email,
				PasswordHash: hash,
			})
		case err != nil:
			return fmt.Errorf("find account: %w", err)
		case account.Confirmed:
			return apperrors.ErrAlreadyRegistered
		default:
			// still proving ownership: let the caller retry with a new password
			account.PasswordHash = hash
			return repo.Update(ctx, account)
		}
	})
	if err != nil {
		return err
	}
	s.cache.Delete(ctx, cacheKey(email))

	confirmationToken, err := s.tokens.IssueConfirmation(email)
	if err != nil {
		return fmt.Errorf("issue confirmation token: %w", err)
	}
	s.mail.SendConfirmation(email, confirmationToken)
	return nil
}

// Confirm verifies the token and marks the account confirmed. A bad
// signature and an unknown email produce the same error so responses never
// reveal whether an address is registered.
func (s *authService) Confirm(ctx context.Context, confirmationToken string) error {
	email, err := s.tokens.VerifyConfirmation(confirmationToken)
	if err != nil {
		return apperrors.ErrInvalidLink
	}

	err = s.accounts.WithTransaction(ctx, func(ctx context.Context, repo repository.AccountRepository) error {
		account, err := repo.FindByEmailForUpdate(ctx, email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidLink
		}
		if err != nil {
			return fmt.Errorf("find account: %w", err)
		}
		if account.Confirmed {
			return nil
		}
		account.Confirmed = true
		return repo.Update(ctx, account)
	})
	if err != nil {
		return err
	}
	s.cache.Delete(ctx, cacheKey(email))
	return nil
}

// Login verifies credentials against a confirmed account. Unknown email,
// unconfirmed email and wrong password all collapse to ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, plainPassword string) (string, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return "", apperrors.ErrInvalidCredentials
	}
	if !account.Confirmed || !password.Verify(plainPassword, account.PasswordHash) {
		return "", apperrors.ErrInvalidCredentials
	}

	sessionToken, err := s.tokens.IssueSession(email)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	return sessionToken, nil
}

// Authenticate verifies the session token and resolves the account behind
// it, read-through cached. Invalid and expired tokens and missing accounts
// all collapse to ErrUnauthenticated.
func (s *authService) Authenticate(ctx context.Context, sessionToken string) (*model.Account, error) {
	email, err := s.tokens.VerifySession(sessionToken)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	var cached model.Account
	if s.cache.GetJSON(ctx, cacheKey(email), &cached) {
		return &cached, nil
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}
	s.cache.SetJSON(ctx, cacheKey(email), account, accountCacheTTL)
	return account, nil
}
