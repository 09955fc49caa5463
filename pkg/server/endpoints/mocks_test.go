package endpoints

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/keycustody/pkg/audit"
	"github.com/doodlesbykumbi/keycustody/pkg/keys"
)

func TestMain(m *testing.M) {
	audit.DefaultLogger.SetWriter(io.Discard)
	os.Exit(m.Run())
}

// MockAccountService implements AccountService for testing using testify/mock
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, username, password string) (int64, error) {
	args := m.Called(username, password)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountService) Authenticate(ctx context.Context, username, password string) (int64, error) {
	args := m.Called(username, password)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenIssuer implements TokenIssuer for testing using testify/mock
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(username string) (string, error) {
	args := m.Called(username)
	return args.String(0), args.Error(1)
}

// MockKeyService implements KeyService for testing using testify/mock
type MockKeyService struct {
	mock.Mock
}

func (m *MockKeyService) Generate(ctx context.Context, ownerID int64) (*keys.Generated, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keys.Generated), args.Error(1)
}

func (m *MockKeyService) Encrypt(ctx context.Context, ownerID, keyID int64, plaintext string) (string, error) {
	args := m.Called(ownerID, keyID, plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockKeyService) Decrypt(ctx context.Context, ownerID, keyID int64, ciphertext string) (string, error) {
	args := m.Called(ownerID, keyID, ciphertext)
	return args.String(0), args.Error(1)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func (m *MockHealthStore) CheckConnectivity(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}
