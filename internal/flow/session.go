package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/craftkart/identity/internal/models"
	"github.com/craftkart/identity/internal/utils"
)

// Step is the verification flow's current position.
type Step int

const (
	StepCollectIdentifier Step = iota
	StepCollectCode
	StepCollectProfile
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepCollectIdentifier:
		return "COLLECT_IDENTIFIER"
	case StepCollectCode:
		return "COLLECT_CODE"
	case StepCollectProfile:
		return "COLLECT_PROFILE"
	case StepDone:
		return "DONE"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Session is one verification attempt: a forward-only step machine over
// an identifier, a code and (for signup) a profile. It lives only in
// memory; abandoning it loses nothing but the user's typed input.
//
// Steps only advance, except via Back which moves exactly one step
// backward and clears the code. A session that confirmed a code is
// terminal for code submission. Request failures overlay an error message
// on the current step; the user retries from where they are.
type Session struct {
	mu      sync.Mutex
	client  *Client
	adapter *Adapter
	mode    models.Mode
	channel models.Channel

	step      Step
	startStep Step

	identifier string
	code       string
	verified   bool
	errMsg     string

	user    *models.User
	landing string

	// cancel aborts the in-flight request on Close
	cancel context.CancelFunc
}

// SessionOption configures a new session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	initialIdentifier string
	onVerified        Completion
}

// WithInitialIdentifier starts the session at the code step with a
// pre-supplied raw identifier, e.g. an enquiry flow reusing a previously
// collected phone number. The identifier is normalized and a code is NOT
// requested automatically; call RequestCodeForInitial for that.
func WithInitialIdentifier(raw string) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.initialIdentifier = raw
	}
}

// WithCompletion sets the verify-mode completion callback.
func WithCompletion(fn Completion) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.onVerified = fn
	}
}

// NewSession creates a verification session. Sessions are never shared
// across modes; start a new one for each attempt.
func NewSession(client *Client, store *SessionStore, mode models.Mode, channel models.Channel, opts ...SessionOption) (*Session, error) {
	cfg := &sessionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Session{
		client:    client,
		adapter:   NewAdapter(store, cfg.onVerified),
		mode:      mode,
		channel:   channel,
		step:      StepCollectIdentifier,
		startStep: StepCollectIdentifier,
	}

	if cfg.initialIdentifier != "" {
		identifier, err := utils.NormalizeIdentifier(channel, cfg.initialIdentifier)
		if err != nil {
			return nil, err
		}
		s.identifier = identifier
		s.step = StepCollectCode
		s.startStep = StepCollectCode
	}

	return s, nil
}

// Mode returns the session's mode.
func (s *Session) Mode() models.Mode { return s.mode }

// Channel returns the session's identifier channel.
func (s *Session) Channel() models.Channel { return s.channel }

// Step returns the current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Identifier returns the normalized identifier collected so far.
func (s *Session) Identifier() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identifier
}

// Verified reports whether the backend has confirmed the code.
func (s *Session) Verified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified
}

// Done reports terminal success.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step == StepDone
}

// User returns the authenticated user after terminal login/signup success.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Landing returns the role-appropriate landing path after terminal
// login/signup success.
func (s *Session) Landing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.landing
}

// ErrorMessage returns the current error overlay, empty when none.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearError dismisses the error overlay.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// Busy reports whether a request is in flight; the triggering control
// should be disabled while true.
func (s *Session) Busy() bool {
	return s.client.Busy()
}

// CanGoBack reports whether a Back control should be shown: there must
// be a prior step to return to.
func (s *Session) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.step {
	case StepCollectCode:
		return s.startStep == StepCollectIdentifier
	case StepCollectProfile:
		return true
	}
	return false
}

// Back moves exactly one step backward, clearing the code and any error.
// The previously entered identifier is preserved for re-edit.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepCollectCode:
		if s.startStep == StepCollectCode {
			return fmt.Errorf("%w: no prior step", models.ErrInvalidTransition)
		}
		s.step = StepCollectIdentifier
	case StepCollectProfile:
		s.step = StepCollectCode
	default:
		return fmt.Errorf("%w: cannot go back from %s", models.ErrInvalidTransition, s.step)
	}

	s.code = ""
	s.errMsg = ""
	return nil
}

// send runs one client request under the single-outstanding-request
// guard. The client slot is reserved before anything else, so a
// submission issued while another is in flight is rejected without
// touching the live request. Once the slot is held, the previous
// request's context has necessarily completed and can be released.
func (s *Session) send(ctx context.Context, fn func(context.Context) error) error {
	if !s.client.acquire() {
		return models.ErrRequestInFlight
	}
	defer s.client.release()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	return fn(reqCtx)
}

// SubmitIdentifier validates and normalizes the raw identifier, requests
// a code for it, and advances to the code step. Normalization failures
// never reach the network.
func (s *Session) SubmitIdentifier(ctx context.Context, raw string) error {
	s.mu.Lock()
	if s.step != StepCollectIdentifier {
		s.mu.Unlock()
		return fmt.Errorf("%w: expected %s, at %s", models.ErrInvalidTransition, StepCollectIdentifier, s.step)
	}
	s.mu.Unlock()

	identifier, err := utils.NormalizeIdentifier(s.channel, raw)
	if err != nil {
		s.setError(err)
		return err
	}

	err = s.send(ctx, func(reqCtx context.Context) error {
		return s.client.requestCode(reqCtx, s.channel, s.mode, identifier)
	})
	if err != nil {
		if errors.Is(err, models.ErrRequestInFlight) {
			return err
		}
		s.setError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identifier = identifier
	s.step = StepCollectCode
	s.errMsg = ""
	return nil
}

// RequestCodeForInitial dispatches a code for a pre-supplied identifier
// (a session started at the code step).
func (s *Session) RequestCodeForInitial(ctx context.Context) error {
	s.mu.Lock()
	if s.step != StepCollectCode || s.identifier == "" {
		s.mu.Unlock()
		return fmt.Errorf("%w: no pre-supplied identifier", models.ErrInvalidTransition)
	}
	identifier := s.identifier
	s.mu.Unlock()

	err := s.send(ctx, func(reqCtx context.Context) error {
		return s.client.requestCode(reqCtx, s.channel, s.mode, identifier)
	})
	if err != nil {
		if errors.Is(err, models.ErrRequestInFlight) {
			return err
		}
		s.setError(err)
		return err
	}

	s.ClearError()
	return nil
}

// SubmitCode submits the entered code for confirmation. On success the
// session becomes terminal for code submission: signup advances to the
// profile step, login installs the returned user and yields a landing
// path, verify invokes the completion callback.
func (s *Session) SubmitCode(ctx context.Context, code string) error {
	s.mu.Lock()
	if s.verified {
		s.mu.Unlock()
		return models.ErrSessionTerminal
	}
	if s.step != StepCollectCode {
		s.mu.Unlock()
		return fmt.Errorf("%w: expected %s, at %s", models.ErrInvalidTransition, StepCollectCode, s.step)
	}
	identifier := s.identifier
	s.mu.Unlock()

	var user *models.User
	err := s.send(ctx, func(reqCtx context.Context) error {
		var verifyErr error
		user, verifyErr = s.client.verifyCode(reqCtx, s.channel, s.mode, identifier, code)
		return verifyErr
	})
	if err != nil {
		if errors.Is(err, models.ErrRequestInFlight) {
			return err
		}
		s.setError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	s.verified = true
	s.errMsg = ""

	switch s.mode {
	case models.ModeSignup:
		s.step = StepCollectProfile
	case models.ModeVerify:
		s.step = StepDone
		s.adapter.completeVerify(identifier, code)
	default: // login
		s.step = StepDone
		s.user = user
		s.landing = s.adapter.completeAuth(user)
	}
	return nil
}

// SubmitProfile completes a signup with the collected profile.
func (s *Session) SubmitProfile(ctx context.Context, profile models.Profile) error {
	s.mu.Lock()
	if s.step != StepCollectProfile {
		s.mu.Unlock()
		return fmt.Errorf("%w: expected %s, at %s", models.ErrInvalidTransition, StepCollectProfile, s.step)
	}
	identifier := s.identifier
	s.mu.Unlock()

	var user *models.User
	err := s.send(ctx, func(reqCtx context.Context) error {
		var signupErr error
		user, signupErr = s.client.completeSignup(reqCtx, s.channel, identifier, profile)
		return signupErr
	})
	if err != nil {
		if errors.Is(err, models.ErrRequestInFlight) {
			return err
		}
		s.setError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = StepDone
	s.errMsg = ""
	s.user = user
	s.landing = s.adapter.completeAuth(user)
	return nil
}

// Close cancels any in-flight request. Call when the enclosing UI
// unmounts or the user cancels the flow.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = err.Error()
}
