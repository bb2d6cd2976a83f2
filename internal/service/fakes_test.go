package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/events"
)

// memoryUsers is an in-memory credential store with the same per-row atomicity as the SQL one.
type memoryUsers struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: make(map[string]*domain.User)}
}

func (m *memoryUsers) findEmail(email string) *domain.User {
	for _, u := range m.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findEmail(user.Email) != nil {
		return domain.ErrEmailTaken
	}
	m.nextID++
	user.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID)
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = clone(user)
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(u), nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findEmail(email)
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return clone(u), nil
}

func (m *memoryUsers) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.AvatarStyle != nil {
		u.AvatarStyle = update.AvatarStyle
	}
	if update.AvatarSeed != nil {
		u.AvatarSeed = update.AvatarSeed
	}
	if update.AvatarKey != nil {
		u.AvatarKey = update.AvatarKey
	}
	return clone(u), nil
}

func (m *memoryUsers) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiresAt
	return nil
}

func (m *memoryUsers) validToken(token string, now time.Time) *domain.User {
	for _, u := range m.byID {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			return u
		}
	}
	return nil
}

func (m *memoryUsers) GetByValidResetToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.validToken(token, now)
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return clone(u), nil
}

func (m *memoryUsers) ConsumeResetToken(_ context.Context, token string, now time.Time, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.validToken(token, now)
	if u == nil {
		return nil, domain.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return clone(u), nil
}

func (m *memoryUsers) SetRoleByEmail(_ context.Context, email string, role domain.Role) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findEmail(email)
	if u == nil {
		return nil, domain.ErrNotFound
	}
	u.Role = role
	return clone(u), nil
}

func (m *memoryUsers) UpsertExternal(ctx context.Context, email, name, provider string) (*domain.User, error) {
	m.mu.Lock()
	if u := m.findEmail(email); u != nil {
		if u.AuthProvider == nil {
			u.AuthProvider = &provider
		}
		m.mu.Unlock()
		return clone(u), nil
	}
	m.mu.Unlock()
	user := &domain.User{Email: email, Name: name, AuthProvider: &provider}
	if err := m.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func testHasher() auth.Hasher {
	return auth.NewBcryptHasher(bcrypt.MinCost)
}

// recordingDispatcher captures published events on top of the real dispatcher.
type recordingDispatcher struct {
	events.Dispatcher
	mu     sync.Mutex
	events []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher()}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.events = append(d.events, event)
	d.mu.Unlock()
	return d.Dispatcher.Publish(ctx, event)
}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type MockPracticeTestRepository struct {
	mock.Mock
}

func (m *MockPracticeTestRepository) Create(ctx context.Context, test *domain.PracticeTest) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockPracticeTestRepository) Update(ctx context.Context, test *domain.PracticeTest) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockPracticeTestRepository) GetByID(ctx context.Context, id string) (*domain.PracticeTest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PracticeTest), args.Error(1)
}

func (m *MockPracticeTestRepository) List(ctx context.Context, filter domain.PracticeTestFilter) ([]domain.PracticeTest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PracticeTest), args.Error(1)
}

func (m *MockPracticeTestRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAcademicRepository struct {
	mock.Mock
}

func (m *MockAcademicRepository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Department), args.Error(1)
}

func (m *MockAcademicRepository) ListLevels(ctx context.Context) ([]domain.Level, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Level), args.Error(1)
}

func ptr[T any](v T) *T {
	return &v
}
