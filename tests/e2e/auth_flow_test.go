package e2e_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/craftkart/identity/internal/flow"
	"github.com/craftkart/identity/internal/models"
	testconfig "github.com/craftkart/identity/tests/config"
)

// TestSignupLoginRoundTrip walks the full signup flow against a running
// backend, then logs the same account in. Requires TEST_BASE_URL and a
// backend whose delivery gateway accepts TEST_VERIFICATION_CODE.
func TestSignupLoginRoundTrip(t *testing.T) {
	baseURL := getBaseURL(t)
	cfg := testconfig.LoadTestConfig()
	code := cfg.TestCode
	if code == "" {
		t.Skip("TEST_VERIFICATION_CODE not set, skipping flow E2E test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// unique-ish email so reruns do not collide on the signup precondition
	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())

	client, err := flow.NewClient(baseURL, models.ActorUser)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	store := flow.NewSessionStore()

	session, err := flow.NewSession(client, store, models.ModeSignup, models.ChannelEmail)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	defer session.Close()

	if err := session.SubmitIdentifier(ctx, email); err != nil {
		t.Fatalf("Failed to request code: %v", err)
	}
	if err := session.SubmitCode(ctx, code); err != nil {
		t.Fatalf("Failed to verify code: %v", err)
	}
	if session.Step() != flow.StepCollectProfile {
		t.Fatalf("Expected profile step, got %v", session.Step())
	}

	profile := models.Profile{Name: "E2E Shopper", Password: "e2e-secret", Gender: "other"}
	if err := session.SubmitProfile(ctx, profile); err != nil {
		t.Fatalf("Failed to complete signup: %v", err)
	}
	if !session.Done() {
		t.Fatal("Expected session to be done after signup")
	}
	if !store.Authenticated() {
		t.Fatal("Expected store to hold the new user")
	}
	if got := session.Landing(); got != "/" {
		t.Errorf("Expected landing '/', got %q", got)
	}

	// password login with the just-created credentials
	user, err := client.CompleteLogin(ctx, email, "e2e-secret")
	if err != nil {
		t.Fatalf("Password login failed: %v", err)
	}
	if user.Email != email {
		t.Errorf("Expected email %q, got %q", email, user.Email)
	}
}

// TestSendCodeLoginPrecondition checks that login for an unknown account
// is rejected before any code is dispatched.
func TestSendCodeLoginPrecondition(t *testing.T) {
	baseURL := getBaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := flow.NewClient(baseURL, models.ActorUser)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	session, err := flow.NewSession(client, flow.NewSessionStore(), models.ModeLogin, models.ChannelEmail)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	defer session.Close()

	err = session.SubmitIdentifier(ctx, fmt.Sprintf("nobody-%d@example.com", time.Now().UnixNano()))
	if !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
	if session.Step() != flow.StepCollectIdentifier {
		t.Errorf("Expected session to stay at identifier step, got %v", session.Step())
	}
}
