package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "authd/internal/errors"
	"authd/internal/model"
	"authd/internal/password"
	"authd/internal/repository"
	"authd/internal/token"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmailForUpdate(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

// WithTransaction runs the callback against the mock itself so the branch
// under test actually executes.
func (m *MockAccountRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.AccountRepository) error) error {
	args := m.Called(ctx, mock.Anything)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// MockMailer records the confirmation tokens handed to it.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendConfirmation(email, confirmationToken string) {
	m.Called(email, confirmationToken)
}

func newTestService(repo repository.AccountRepository, mail *MockMailer) (AuthService, *token.Service) {
	tokens := token.NewService("testsecretkey", 10*time.Minute)
	return NewAuthService(repo, tokens, mail, nil), tokens
}

func TestRegisterCreatesUnconfirmedAccount(t *testing.T) {
	repo := new(MockAccountRepository)
	mail := new(MockMailer)
	svc, _ := newTestService(repo, mail)

	repo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	repo.On("FindByEmailForUpdate", mock.Anything, "test.abc@test.test").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(account *model.Account) bool {
		return account.Email == "test.abc@test.test" &&
			!account.Confirmed &&
			account.PasswordHash != "" &&
			account.PasswordHash != "hunter22" &&
			password.Verify("hunter22", account.PasswordHash)
	})).Return(nil)
	mail.On("SendConfirmation", "test.abc@test.test", mock.AnythingOfType("string")).Return()

	err := svc.Register(context.Background(), "test.abc@test.test", "hunter22")
	assert.NoError(t, err)

	repo.AssertExpectations(t)
	mail.AssertExpectations(t)
}

func TestRegisterOverwritesPasswordWhileUnconfirmed(t *testing.T) {
	repo := new(MockAccountRepository)
	mail := new(MockMailer)
	svc, _ := newTestService(repo, mail)

	oldHash, err := password.Hash("old-password")
	assert.NoError(t, err)
	account := &model.Account{Email: "test.abc@test.test", PasswordHash: oldHash, Confirmed: false}

	repo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	repo.On("FindByEmailForUpdate", mock.Anything, "test.abc@test.test").Return(account, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(updated *model.Account) bool {
		return !updated.Confirmed &&
			password.Verify("new-password", updated.PasswordHash) &&
			!password.Verify("old-password", updated.PasswordHash)
	})).Return(nil)
	mail.On("SendConfirmation", "test.abc@test.test", mock.AnythingOfType("string")).Return()

	err = svc.Register(context.Background(), "test.abc@test.test", "new-password")
	assert.NoError(t, err)

	repo.AssertExpectations(t)
	mail.AssertExpectations(t)
}

func TestRegisterRejectsConfirmedAccount(t *testing.T) {
	repo := new(MockAccountRepository)
	mail := new(MockMailer)
	svc, _ := newTestService(repo, mail)

	account := &model.Account{Email: "test.abc@test.test", PasswordHash: "whatever", Confirmed: true}

	repo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	repo.On("FindByEmailForUpdate", mock.Anything, "test.abc@test.test").Return(account, nil)

	err := svc.Register(context.Background(), "test.abc@test.test", "another-password")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)

	// no mutation and no fresh confirmation link
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mail.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything)
}

func TestConfirmSetsConfirmedFlag(t *testing.T) {
	repo := new(MockAccountRepository)
	mail := new(MockMailer)
	svc, tokens := newTestService(repo, mail)

	confirmationToken, err := tokens.IssueConfirmation("test.abc@test.test")
	assert.NoError(t, err)

	account := &model.Account{Email: "test.abc@test.test", Confirmed: false}
	repo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	repo.On("FindByEmailForUpdate", mock.Anything, "test.abc@test.test").Return(account, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(updated *model.Account) bool {
		return updated.Confirmed
	})).Return(nil)

	err = svc.Confirm(context.Background(), confirmationToken)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestConfirmIsIdempotent(t *testing.T) {
	repo := new(MockAccountRepository)
	mail := new(MockMailer)
	svc, tokens := newTestService(repo, mail)

	confirmationToken, err := tokens.IssueConfirmation("test.abc@test.test")
	assert.NoError(t, err)

	account := &model.Account{Email: "test.abc@test.test", Confirmed: true}
	repo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	repo.On("FindByEmailForUpdate", mock.Anything, "test.abc@test.test").Return(account, nil)

	err = svc.Confirm(context.Background(), confirmationToken)
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestConfirmInvalidLink(t *testing.T) {
	repo := new(MockAccountRepository)
	mail := new(MockMailer)
	svc, tokens := newTestService(repo, mail)

	orphanToken, err := tokens.IssueConfirmation("nobody@test.test")
	assert.NoError(t, err)

	repo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	repo.On("FindByEmailForUpdate", mock.Anything, "nobody@test.test").Return(nil, gorm.ErrRecordNotFound)

	tests := []struct {
		name  string
		token string
	}{
		{name: "malformed token", token: "emailtoken"},
		{name: "empty token", token: ""},
		{name: "valid token for an unknown email", token: orphanToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// forged and unknown-email tokens are indistinguishable to the caller
			err := svc.Confirm(context.Background(), tt.token)
			assert.ErrorIs(t, err, apperrors.ErrInvalidLink)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := password.Hash("hunter22")
	assert.NoError(t, err)

	tests := []struct {
		name    string
		account *model.Account
		findErr error
		pass    string
		wantErr error
	}{
		{
			name:    "confirmed account with matching password",
			account: &model.Account{Email: "test.abc@test.test", PasswordHash: hash, Confirmed: true},
			pass:    "hunter22",
		},
		{
			name:    "unknown email",
			findErr: gorm.ErrRecordNotFound,
			pass:    "hunter22",
			wantErr: apperrors.ErrInvalidCredentials,
		},
		{
			name:    "unconfirmed account with matching password",
			account: &model.Account{Email: "test.abc@test.test", PasswordHash: hash, Confirmed: false},
			pass:    "hunter22",
			wantErr: apperrors.ErrInvalidCredentials,
		},
		{
			name:    "wrong password",
			account: &model.Account{Email: "test.abc@test.test", PasswordHash: hash, Confirmed: true},
			pass:    "wrong",
			wantErr: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAccountRepository)
			mail := new(MockMailer)
			svc, tokens := newTestService(repo, mail)

			if tt.account != nil {
				repo.On("FindByEmail", mock.Anything, "test.abc@test.test").Return(tt.account, nil)
			} else {
				repo.On("FindByEmail", mock.Anything, "test.abc@test.test").Return(nil, tt.findErr)
			}

			sessionToken, err := svc.Login(context.Background(), "test.abc@test.test", tt.pass)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, sessionToken)
				return
			}

			assert.NoError(t, err)
			email, err := tokens.VerifySession(sessionToken)
			assert.NoError(t, err)
			assert.Equal(t, "test.abc@test.test", email)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	repo := new(MockAccountRepository)
	mail := new(MockMailer)
	svc, tokens := newTestService(repo, mail)

	account := &model.Account{Email: "test.abc@test.test", Confirmed: true}
	repo.On("FindByEmail", mock.Anything, "test.abc@test.test").Return(account, nil)

	sessionToken, err := tokens.IssueSession("test.abc@test.test")
	assert.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), sessionToken)
	assert.NoError(t, err)
	assert.Equal(t, "test.abc@test.test", got.Email)
}

func TestAuthenticateFailures(t *testing.T) {
	expiredTokens := token.NewService("testsecretkey", -time.Second)
	staleToken, err := expiredTokens.IssueSession("test.abc@test.test")
	assert.NoError(t, err)

	repo := new(MockAccountRepository)
	mail := new(MockMailer)
	svc, tokens := newTestService(repo, mail)

	orphanToken, err := tokens.IssueSession("gone@test.test")
	assert.NoError(t, err)
	repo.On("FindByEmail", mock.Anything, "gone@test.test").Return(nil, gorm.ErrRecordNotFound)

	confirmationToken, err := tokens.IssueConfirmation("test.abc@test.test")
	assert.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "tokentoken"},
		{name: "expired token", token: staleToken},
		{name: "confirmation token used as session", token: confirmationToken},
		{name: "valid token for a vanished account", token: orphanToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(context.Background(), tt.token)
			assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
			assert.Nil(t, got)
		})
	}
}
