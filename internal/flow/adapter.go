package flow

import "github.com/craftkart/identity/internal/models"

// Completion is invoked on terminal success in verify mode, handing the
// confirmed identifier and code back to the embedding flow (for example a
// product enquiry form confirming a phone number).
type Completion func(identifier, code string)

// Adapter resolves what terminal success means for a session: login and
// signup install the user into the session store and yield a landing
// path; verify hands control back to the caller instead of navigating.
type Adapter struct {
	store      *SessionStore
	onVerified Completion
}

// NewAdapter creates an adapter over the given store. onVerified may be
// nil when no session will run in verify mode.
func NewAdapter(store *SessionStore, onVerified Completion) *Adapter {
	return &Adapter{store: store, onVerified: onVerified}
}

// LandingPath returns the role-appropriate location after auth success.
func (a *Adapter) LandingPath(user *models.User) string {
	if user != nil && user.IsBackOffice() {
		return "/admin"
	}
	return "/"
}

// completeAuth installs the user and returns the landing path.
func (a *Adapter) completeAuth(user *models.User) string {
	if a.store != nil {
		a.store.Set(user)
	}
	return a.LandingPath(user)
}

// completeVerify invokes the caller's completion callback.
func (a *Adapter) completeVerify(identifier, code string) {
	if a.onVerified != nil {
		a.onVerified(identifier, code)
	}
}
