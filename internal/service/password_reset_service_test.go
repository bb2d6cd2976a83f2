package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/events"
)

type resetFixture struct {
	auth       authFixture
	resets     *PasswordResetService
	dispatcher *recordingDispatcher
	now        time.Time
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	af := newAuthFixture(t)
	dispatcher := newRecordingDispatcher()
	f := &resetFixture{auth: af, dispatcher: dispatcher, now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	f.resets = NewPasswordResetService(af.users, testHasher(), dispatcher, time.Hour, nil)
	f.resets.now = func() time.Time { return f.now }
	return f
}

func (f *resetFixture) issuedToken(t *testing.T) string {
	t.Helper()
	requested := f.dispatcher.ofType(events.EventPasswordResetRequested)
	require.NotEmpty(t, requested)
	payload, ok := requested[len(requested)-1].Payload.(events.PasswordResetRequestedPayload)
	require.True(t, ok)
	return payload.Token
}

func TestResetScenarioChangesPassword(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	_, err := f.auth.svc.Register(ctx, "A", "a@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
	token := f.issuedToken(t)

	stored, err := f.auth.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenExpiry)
	assert.Equal(t, f.now.Add(time.Hour), *stored.ResetTokenExpiry)

	require.NoError(t, f.resets.CompleteReset(ctx, token, "secret2"))

	_, err = f.auth.svc.Login(ctx, "a@x.com", "secret2")
	assert.NoError(t, err)
	_, err = f.auth.svc.Login(ctx, "a@x.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	after, err := f.auth.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, after.ResetToken)
	assert.Nil(t, after.ResetTokenExpiry)
	assert.Len(t, f.dispatcher.ofType(events.EventPasswordResetCompleted), 1)
}

func TestResetTokenIsSingleUse(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	_, err := f.auth.svc.Register(ctx, "A", "a@x.com", "secret1-long")
	require.NoError(t, err)
	require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
	token := f.issuedToken(t)

	require.NoError(t, f.resets.CompleteReset(ctx, token, "secret2-long"))
	err = f.resets.CompleteReset(ctx, token, "secret3-long")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

	_, err = f.auth.svc.Login(ctx, "a@x.com", "secret2-long")
	assert.NoError(t, err)
}

func TestResetTokenConcurrentCompletionConsumesOnce(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	_, err := f.auth.svc.Register(ctx, "A", "a@x.com", "secret1-long")
	require.NoError(t, err)
	require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
	token := f.issuedToken(t)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.resets.CompleteReset(ctx, token, "secret2-long")
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
	}
	assert.Equal(t, 1, ok)
}

func TestResetTokenExpired(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	_, err := f.auth.svc.Register(ctx, "A", "a@x.com", "secret1-long")
	require.NoError(t, err)
	require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
	token := f.issuedToken(t)

	f.now = f.now.Add(time.Hour + time.Second)
	err = f.resets.CompleteReset(ctx, token, "secret2-long")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

	_, err = f.auth.svc.Login(ctx, "a@x.com", "secret1-long")
	assert.NoError(t, err)
}

func TestRequestResetUnknownEmailIsSilent(t *testing.T) {
	f := newResetFixture(t)

	assert.NoError(t, f.resets.RequestReset(context.Background(), "nobody@x.com"))
	assert.NoError(t, f.resets.RequestReset(context.Background(), "   "))
	assert.Empty(t, f.dispatcher.ofType(events.EventPasswordResetRequested))
}

func TestRequestResetSurvivesDeliveryFailure(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	_, err := f.auth.svc.Register(ctx, "A", "a@x.com", "secret1-long")
	require.NoError(t, err)
	f.dispatcher.Subscribe(events.EventPasswordResetRequested, func(context.Context, events.Event) error {
		return errors.New("smtp down")
	})

	assert.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
	assert.NoError(t, f.resets.CompleteReset(ctx, f.issuedToken(t), "secret2-long"))
}

func TestCompleteResetValidation(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.resets.CompleteReset(ctx, "", "secret2-long"), domain.ErrInvalidOrExpiredToken)
	assert.ErrorIs(t, f.resets.CompleteReset(ctx, "unknown", "secret2-long"), domain.ErrInvalidOrExpiredToken)
	assert.ErrorIs(t, f.resets.CompleteReset(ctx, "unknown", ""), domain.ErrValidation)
}
