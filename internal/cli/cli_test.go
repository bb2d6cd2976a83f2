package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Promote(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAdminService) Demote(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAdminService) CreateAdmin(ctx context.Context, email, name, password string) (*domain.User, error) {
	args := m.Called(ctx, email, name, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func run(t *testing.T, admin *MockAdminService, password PasswordFunc, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr, Deps{Admin: admin, Password: password})
	return code, stdout.String(), stderr.String()
}

func TestRunUsage(t *testing.T) {
	admin := new(MockAdminService)
	for _, args := range [][]string{nil, {"promote"}, {"demote", "a@x.com", "extra"}, {"create", "a@x.com"}, {"delete", "a@x.com"}} {
		code, _, stderr := run(t, admin, nil, args...)
		assert.Equal(t, ExitUsage, code, "args %v", args)
		assert.Contains(t, stderr, "usage:")
	}
	admin.AssertNotCalled(t, "Promote", mock.Anything, mock.Anything)
}

func TestRunPromoteAndDemote(t *testing.T) {
	admin := new(MockAdminService)
	admin.On("Promote", mock.Anything, "a@x.com").Return(&domain.User{Email: "a@x.com", Role: domain.RoleAdmin}, nil)
	admin.On("Demote", mock.Anything, "a@x.com").Return(&domain.User{Email: "a@x.com", Role: domain.RoleUser}, nil)

	code, stdout, _ := run(t, admin, nil, "promote", "a@x.com")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "a@x.com is now ADMIN\n", stdout)

	code, stdout, _ = run(t, admin, nil, "demote", "a@x.com")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "a@x.com is now USER\n", stdout)
}

func TestRunUnknownEmail(t *testing.T) {
	admin := new(MockAdminService)
	admin.On("Promote", mock.Anything, "ghost@x.com").Return(nil, domain.ErrNotFound)

	code, stdout, stderr := run(t, admin, nil, "promote", "ghost@x.com")
	assert.Equal(t, ExitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "no account with email ghost@x.com")
}

func TestRunCreate(t *testing.T) {
	admin := new(MockAdminService)
	admin.On("CreateAdmin", mock.Anything, "root@x.com", "Root User", "long-enough").
		Return(&domain.User{ID: "u-9", Email: "root@x.com", Role: domain.RoleAdmin}, nil)
	password := func() (string, error) { return "long-enough", nil }

	code, stdout, _ := run(t, admin, password, "create", "root@x.com", "Root", "User")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "created ADMIN root@x.com (u-9)")
}

func TestRunCreateFailures(t *testing.T) {
	admin := new(MockAdminService)
	admin.On("CreateAdmin", mock.Anything, "taken@x.com", "Ada", "long-enough").Return(nil, domain.ErrEmailTaken)
	admin.On("CreateAdmin", mock.Anything, "new@x.com", "Ada", "long-enough").Return(nil, domain.Invalid("password", "too short"))
	password := func() (string, error) { return "long-enough", nil }

	code, _, stderr := run(t, admin, password, "create", "taken@x.com", "Ada")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "already registered")

	code, _, stderr = run(t, admin, password, "create", "new@x.com", "Ada")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "invalid password")

	noTTY := func() (string, error) { return "", errors.New("not a terminal") }
	code, _, stderr = run(t, admin, noTTY, "create", "x@x.com", "Ada")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "not a terminal")
}

func TestPromptPasswordPrefersEnv(t *testing.T) {
	t.Setenv(PasswordEnv, "from-env-pw")
	var w bytes.Buffer
	pw, err := PromptPassword(&w)()
	require.NoError(t, err)
	assert.Equal(t, "from-env-pw", pw)
	assert.Empty(t, w.String())
}

func TestPromptPasswordReadsTerminal(t *testing.T) {
	t.Setenv(PasswordEnv, "")
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) { return []byte("typed-secret"), nil }

	var w bytes.Buffer
	pw, err := PromptPassword(&w)()
	require.NoError(t, err)
	assert.Equal(t, "typed-secret", pw)
	assert.Contains(t, w.String(), "Password: ")
}

func TestPreflight(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, done := Preflight([]string{"help"}, &stdout, &stderr)
	assert.True(t, done)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stdout.String(), "cbtadmin create <email> <name>")

	_, done = Preflight([]string{"create", "a@x.com", "Ada"}, &stdout, &stderr)
	assert.False(t, done)
}
