package flow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftkart/identity/internal/models"
)

// fakeBackend emulates the identity API for step machine tests. Each
// endpoint can be overridden; the defaults succeed.
type fakeBackend struct {
	mux       *http.ServeMux
	sendCalls atomic.Int64

	sendStatus   int
	verifyStatus int
	verifyUser   string
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		mux:        http.NewServeMux(),
		verifyUser: `{"id":"u1","name":"Asha","phoneNumber":"+919876543210","role":"user"}`,
	}
	b.mux.HandleFunc("POST /user/auth/phone/send-code", func(w http.ResponseWriter, r *http.Request) {
		b.sendCalls.Add(1)
		if b.sendStatus != 0 {
			jsonError(w, b.sendStatus, "too many code requests")
			return
		}
		w.Write([]byte(`{}`))
	})
	b.mux.HandleFunc("POST /user/auth/phone/verify-code", func(w http.ResponseWriter, r *http.Request) {
		if b.verifyStatus != 0 {
			jsonError(w, b.verifyStatus, "invalid verification code")
			return
		}
		w.Write([]byte(`{"user":` + b.verifyUser + `}`))
	})
	b.mux.HandleFunc("POST /user/auth/phone/register", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":` + b.verifyUser + `}`))
	})
	return b
}

func newTestSession(t *testing.T, b *fakeBackend, mode models.Mode, opts ...SessionOption) (*Session, *SessionStore) {
	t.Helper()
	srv := httptest.NewServer(b.mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, models.ActorUser)
	require.NoError(t, err)

	store := NewSessionStore()
	s, err := NewSession(client, store, mode, models.ChannelPhone, opts...)
	require.NoError(t, err)
	return s, store
}

func TestSession_LoginHappyPath(t *testing.T) {
	b := newFakeBackend()
	s, store := newTestSession(t, b, models.ModeLogin)

	assert.Equal(t, StepCollectIdentifier, s.Step())
	assert.False(t, s.CanGoBack())

	require.NoError(t, s.SubmitIdentifier(context.Background(), "98765 43210"))
	assert.Equal(t, StepCollectCode, s.Step())
	assert.Equal(t, "+919876543210", s.Identifier())
	assert.True(t, s.CanGoBack())

	require.NoError(t, s.SubmitCode(context.Background(), "123456"))
	assert.Equal(t, StepDone, s.Step())
	assert.True(t, s.Done())
	assert.Equal(t, "/", s.Landing())

	require.True(t, store.Authenticated())
	assert.Equal(t, "Asha", store.Current().Name)
}

func TestSession_InvalidIdentifierNeverReachesNetwork(t *testing.T) {
	b := newFakeBackend()
	s, _ := newTestSession(t, b, models.ModeLogin)

	err := s.SubmitIdentifier(context.Background(), "123")
	assert.ErrorIs(t, err, models.ErrInvalidIdentifier)
	assert.Equal(t, StepCollectIdentifier, s.Step())
	assert.NotEmpty(t, s.ErrorMessage())
	assert.Zero(t, b.sendCalls.Load())
}

func TestSession_RateLimitedStaysAtIdentifierStep(t *testing.T) {
	b := newFakeBackend()
	b.sendStatus = http.StatusTooManyRequests
	s, _ := newTestSession(t, b, models.ModeLogin)

	err := s.SubmitIdentifier(context.Background(), "9876543210")
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Equal(t, StepCollectIdentifier, s.Step())
	assert.Contains(t, s.ErrorMessage(), "too many")
}

func TestSession_WrongCodeOverlaysError(t *testing.T) {
	b := newFakeBackend()
	s, _ := newTestSession(t, b, models.ModeLogin)
	require.NoError(t, s.SubmitIdentifier(context.Background(), "9876543210"))

	b.verifyStatus = http.StatusBadRequest
	err := s.SubmitCode(context.Background(), "000000")
	assert.ErrorIs(t, err, models.ErrInvalidCode)
	assert.Equal(t, StepCollectCode, s.Step())
	assert.False(t, s.Verified())

	// retry from the same step after the backend accepts
	b.verifyStatus = 0
	require.NoError(t, s.SubmitCode(context.Background(), "123456"))
	assert.True(t, s.Done())
	assert.Empty(t, s.ErrorMessage())
}

func TestSession_TerminalAfterVerify(t *testing.T) {
	b := newFakeBackend()
	s, _ := newTestSession(t, b, models.ModeLogin)
	require.NoError(t, s.SubmitIdentifier(context.Background(), "9876543210"))
	require.NoError(t, s.SubmitCode(context.Background(), "123456"))

	err := s.SubmitCode(context.Background(), "123456")
	assert.ErrorIs(t, err, models.ErrSessionTerminal)
}

func TestSession_SignupRequiresProfile(t *testing.T) {
	b := newFakeBackend()
	s, store := newTestSession(t, b, models.ModeSignup)

	require.NoError(t, s.SubmitIdentifier(context.Background(), "9876543210"))
	require.NoError(t, s.SubmitCode(context.Background(), "123456"))

	// verified but not done until the profile is submitted
	assert.True(t, s.Verified())
	assert.Equal(t, StepCollectProfile, s.Step())
	assert.False(t, store.Authenticated())

	require.NoError(t, s.SubmitProfile(context.Background(), models.Profile{Name: "Asha", Gender: "female"}))
	assert.True(t, s.Done())
	assert.True(t, store.Authenticated())
	assert.Equal(t, "/", s.Landing())
}

func TestSession_AdminLandsOnAdmin(t *testing.T) {
	b := newFakeBackend()
	b.verifyUser = `{"id":"a1","name":"Ravi","phoneNumber":"+919876543210","role":"admin"}`
	s, _ := newTestSession(t, b, models.ModeLogin)

	require.NoError(t, s.SubmitIdentifier(context.Background(), "9876543210"))
	require.NoError(t, s.SubmitCode(context.Background(), "123456"))
	assert.Equal(t, "/admin", s.Landing())
}

func TestSession_VerifyModeInvokesCompletion(t *testing.T) {
	b := newFakeBackend()

	var gotIdentifier, gotCode string
	s, store := newTestSession(t, b, models.ModeVerify, WithCompletion(func(identifier, code string) {
		gotIdentifier = identifier
		gotCode = code
	}))

	require.NoError(t, s.SubmitIdentifier(context.Background(), "9876543210"))
	require.NoError(t, s.SubmitCode(context.Background(), "123456"))

	assert.True(t, s.Done())
	assert.Equal(t, "+919876543210", gotIdentifier)
	assert.Equal(t, "123456", gotCode)
	// verify mode never authenticates
	assert.False(t, store.Authenticated())
	assert.Empty(t, s.Landing())
}

func TestSession_BackPreservesIdentifier(t *testing.T) {
	b := newFakeBackend()
	s, _ := newTestSession(t, b, models.ModeSignup)

	require.NoError(t, s.SubmitIdentifier(context.Background(), "9876543210"))
	require.NoError(t, s.Back())
	assert.Equal(t, StepCollectIdentifier, s.Step())
	assert.Equal(t, "+919876543210", s.Identifier())

	err := s.Back()
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestSession_BackFromProfile(t *testing.T) {
	b := newFakeBackend()
	s, _ := newTestSession(t, b, models.ModeSignup)

	require.NoError(t, s.SubmitIdentifier(context.Background(), "9876543210"))
	require.NoError(t, s.SubmitCode(context.Background(), "123456"))
	require.Equal(t, StepCollectProfile, s.Step())

	require.NoError(t, s.Back())
	assert.Equal(t, StepCollectCode, s.Step())
	// the session stays terminal for code submission
	assert.ErrorIs(t, s.SubmitCode(context.Background(), "123456"), models.ErrSessionTerminal)
}

func TestSession_InitialIdentifierStartsAtCodeStep(t *testing.T) {
	b := newFakeBackend()
	s, _ := newTestSession(t, b, models.ModeVerify, WithInitialIdentifier("98765 43210"))

	assert.Equal(t, StepCollectCode, s.Step())
	assert.Equal(t, "+919876543210", s.Identifier())
	assert.False(t, s.CanGoBack())
	assert.ErrorIs(t, s.Back(), models.ErrInvalidTransition)

	require.NoError(t, s.RequestCodeForInitial(context.Background()))
	assert.Equal(t, int64(1), b.sendCalls.Load())
}

func TestSession_InitialIdentifierInvalid(t *testing.T) {
	client, err := NewClient("http://localhost:0", models.ActorUser)
	require.NoError(t, err)

	_, err = NewSession(client, NewSessionStore(), models.ModeVerify, models.ChannelPhone, WithInitialIdentifier("123"))
	assert.ErrorIs(t, err, models.ErrInvalidIdentifier)
}

func TestSession_RejectedResubmitLeavesInFlightRequestAlive(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	b := newFakeBackend()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/auth/phone/send-code", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
			t.Error("in-flight request was cancelled by the rejected resubmit")
		}
		w.Write([]byte(`{}`))
	})
	b.mux = mux

	s, _ := newTestSession(t, b, models.ModeLogin)

	first := make(chan error, 1)
	go func() {
		first <- s.SubmitIdentifier(context.Background(), "9876543210")
	}()
	<-started

	// second submission while the first is in flight is rejected without
	// disturbing the first
	err := s.SubmitIdentifier(context.Background(), "9876543210")
	assert.ErrorIs(t, err, models.ErrRequestInFlight)

	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, StepCollectCode, s.Step())
	assert.Empty(t, s.ErrorMessage())
}

func TestSession_SubmitOutOfOrder(t *testing.T) {
	b := newFakeBackend()
	s, _ := newTestSession(t, b, models.ModeLogin)

	err := s.SubmitCode(context.Background(), "123456")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	err = s.SubmitProfile(context.Background(), models.Profile{Name: "Asha"})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}
