package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/craftkart/identity/internal/models"
)

// ErrNetwork marks transport-level failures. They are surfaced as a
// generic retry message; no automatic retry is performed.
var ErrNetwork = errors.New("network error, try again")

// APIError is a non-2xx response whose status did not map onto one of the
// shared sentinel errors. Message is the server's message, verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Client issues the verification flow's HTTP calls against one actor's
// endpoint set. A cookie jar carries the session cookie the server sets
// on terminal success. At most one request is outstanding at a time;
// concurrent calls fail with models.ErrRequestInFlight.
type Client struct {
	baseURL    string
	actor      models.ActorKind
	httpClient *http.Client

	mu   sync.Mutex
	busy bool
}

// NewClient creates a flow client for the given backend and actor.
func NewClient(baseURL string, actor models.ActorKind) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		actor:   actor,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Actor returns the actor whose endpoint set this client addresses.
func (c *Client) Actor() models.ActorKind {
	return c.actor
}

func (c *Client) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Client) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
}

// Busy reports whether a request is currently outstanding. UIs disable
// the triggering control while this is true.
func (c *Client) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// post sends one JSON request and decodes a 2xx body into out. Non-2xx
// responses come back as *APIError; transport failures as ErrNetwork.
func (c *Client) post(ctx context.Context, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + c.actor.Prefix() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// wrapStatus maps an *APIError onto a sentinel according to the
// operation's status table, keeping the server's message.
func wrapStatus(err error, statuses map[int]error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if sentinel, ok := statuses[apiErr.Status]; ok {
		return fmt.Errorf("%w: %s", sentinel, apiErr.Error())
	}
	return apiErr
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

// RequestCode asks the backend to deliver a one-time code to the
// identifier. The identifier must already be normalized. Repeated calls
// each trigger a new code, subject to rate limiting.
func (c *Client) RequestCode(ctx context.Context, channel models.Channel, mode models.Mode, identifier string) error {
	if !c.acquire() {
		return models.ErrRequestInFlight
	}
	defer c.release()
	return c.requestCode(ctx, channel, mode, identifier)
}

func (c *Client) requestCode(ctx context.Context, channel models.Channel, mode models.Mode, identifier string) error {
	body := models.SendCodeRequest{}
	if channel == models.ChannelEmail {
		body.Email = identifier
	} else {
		body.PhoneNumber = identifier
	}

	err := c.post(ctx, "/auth/"+string(channel)+"/send-code", url.Values{"action": {string(mode)}}, body, nil)
	if err != nil {
		return wrapStatus(err, map[int]error{
			http.StatusBadRequest:      models.ErrInvalidIdentifier,
			http.StatusNotFound:        models.ErrAccountNotFound,
			http.StatusConflict:        models.ErrAlreadyRegistered,
			http.StatusTooManyRequests: models.ErrRateLimited,
		})
	}
	return nil
}

// VerifyCode submits a code for confirmation. The server is authoritative
// on correctness; the client does not validate the code value locally.
// In login mode a confirmed code returns the authenticated user.
func (c *Client) VerifyCode(ctx context.Context, channel models.Channel, mode models.Mode, identifier, code string) (*models.User, error) {
	if !c.acquire() {
		return nil, models.ErrRequestInFlight
	}
	defer c.release()
	return c.verifyCode(ctx, channel, mode, identifier, code)
}

func (c *Client) verifyCode(ctx context.Context, channel models.Channel, mode models.Mode, identifier, code string) (*models.User, error) {
	body := models.VerifyCodeRequest{Code: code}
	if channel == models.ChannelEmail {
		body.Email = identifier
	} else {
		body.PhoneNumber = identifier
	}

	var envelope userEnvelope
	err := c.post(ctx, "/auth/"+string(channel)+"/verify-code", url.Values{"action": {string(mode)}}, body, &envelope)
	if err != nil {
		return nil, wrapStatus(err, map[int]error{
			http.StatusBadRequest: models.ErrInvalidCode,
			http.StatusGone:       models.ErrCodeExpired,
			http.StatusNotFound:   models.ErrAccountNotFound,
		})
	}
	return envelope.User, nil
}

// CompleteSignup registers the account for a verified identifier.
func (c *Client) CompleteSignup(ctx context.Context, channel models.Channel, identifier string, profile models.Profile) (*models.User, error) {
	if !c.acquire() {
		return nil, models.ErrRequestInFlight
	}
	defer c.release()
	return c.completeSignup(ctx, channel, identifier, profile)
}

func (c *Client) completeSignup(ctx context.Context, channel models.Channel, identifier string, profile models.Profile) (*models.User, error) {
	body := models.RegisterRequest{
		Name:     profile.Name,
		Password: profile.Password,
		Gender:   profile.Gender,
	}
	if channel == models.ChannelEmail {
		body.Email = identifier
	} else {
		body.PhoneNumber = identifier
	}

	var envelope userEnvelope
	err := c.post(ctx, "/auth/"+string(channel)+"/register", nil, body, &envelope)
	if err != nil {
		return nil, wrapStatus(err, map[int]error{
			http.StatusForbidden: models.ErrNotVerified,
			http.StatusConflict:  models.ErrAlreadyRegistered,
		})
	}
	return envelope.User, nil
}

// CompleteLogin authenticates with email and password. This is an
// independent credential check; it does not consume the OTP verification.
func (c *Client) CompleteLogin(ctx context.Context, email, password string) (*models.User, error) {
	if !c.acquire() {
		return nil, models.ErrRequestInFlight
	}
	defer c.release()

	var envelope userEnvelope
	err := c.post(ctx, "/login", nil, models.LoginRequest{Email: email, Password: password}, &envelope)
	if err != nil {
		return nil, wrapStatus(err, map[int]error{
			http.StatusUnauthorized: models.ErrInvalidCredentials,
			http.StatusNotFound:     models.ErrAccountNotFound,
		})
	}
	return envelope.User, nil
}
