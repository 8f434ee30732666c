package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Subtask ids named by the onboarding flow.
const (
	subtaskIdentifier    = "LoginEnterUserIdentifierSSO"
	subtaskAltIdentifier = "LoginEnterAlternateIdentifierSubtask"
	subtaskPassword      = "LoginEnterPassword"
	subtaskDuplication   = "AccountDuplicationCheck"
)

var (
	// ErrUnsupportedChallenge is returned when the platform asks for a login step the flow cannot answer.
	ErrUnsupportedChallenge = errors.New("unsupported login challenge")
	// ErrMissingCSRF is returned when the login roundtrips did not leave a ct0 cookie behind.
	ErrMissingCSRF = errors.New("ct0 cookie missing after login")
)

// LoginState enumerates the steps of the login state machine.
type LoginState int

const (
	Unauthenticated LoginState = iota
	GuestTokenAcquired
	FlowInitiated
	IdentifierSubmitted
	PasswordSubmitted
	Authenticated
	UnsupportedChallenge
)

func (s LoginState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case GuestTokenAcquired:
		return "guest_token_acquired"
	case FlowInitiated:
		return "flow_initiated"
	case IdentifierSubmitted:
		return "identifier_submitted"
	case PasswordSubmitted:
		return "password_submitted"
	case Authenticated:
		return "authenticated"
	case UnsupportedChallenge:
		return "unsupported_challenge"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition exists from s.
func (s LoginState) Terminal() bool {
	return s == Authenticated || s == UnsupportedChallenge
}

// AuthError wraps any failure of the login flow. It is always fatal.
type AuthError struct {
	State LoginState // state the flow was in when it failed
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed at %s: %v", e.State, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Credentials identify the operator account.
type Credentials struct {
	Username string
	Password string
}

type flowResponse struct {
	FlowToken string `json:"flow_token"`
	Subtasks  []struct {
		SubtaskID string `json:"subtask_id"`
	} `json:"subtasks"`
}

func (r flowResponse) nextSubtask() string {
	if len(r.Subtasks) == 0 {
		return ""
	}
	return r.Subtasks[0].SubtaskID
}

type loginFlow struct {
	client     *Client
	creds      Credentials
	state      LoginState
	guestToken string
	flowToken  string
	subtask    string
	csrf       string
	onStep     func(from, to LoginState)
}

// Login runs the onboarding flow to completion and returns an authenticated session.
// Any failure is returned as *AuthError; the flow is never retried.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	flow := &loginFlow{client: c, creds: creds, state: Unauthenticated}
	flow.onStep = func(from, to LoginState) {
		c.log.Debug().Stringer("from", from).Stringer("to", to).Msg("login transition")
	}
	if err := flow.run(ctx); err != nil {
		return nil, err
	}
	return &Session{client: c, csrf: flow.csrf}, nil
}

func (f *loginFlow) run(ctx context.Context) error {
	for !f.state.Terminal() {
		from := f.state
		next, err := f.step(ctx)
		if err != nil {
			return &AuthError{State: from, Err: err}
		}
		f.state = next
		if f.onStep != nil {
			f.onStep(from, next)
		}
	}
	if f.state == UnsupportedChallenge {
		return &AuthError{State: UnsupportedChallenge, Err: fmt.Errorf("%w: %s", ErrUnsupportedChallenge, f.subtask)}
	}
	return nil
}

// step performs the single roundtrip owed by the current state and returns the next state.
func (f *loginFlow) step(ctx context.Context) (LoginState, error) {
	switch f.state {
	case Unauthenticated:
		var out struct {
			GuestToken string `json:"guest_token"`
		}
		if err := f.post(ctx, f.client.apiBase+"/1.1/guest/activate.json", nil, &out, "guest token"); err != nil {
			return f.state, err
		}
		if out.GuestToken == "" {
			return f.state, errors.New("guest token missing from response")
		}
		f.guestToken = out.GuestToken
		return GuestTokenAcquired, nil

	case GuestTokenAcquired:
		var start flowResponse
		if err := f.post(ctx, f.client.apiBase+"/1.1/onboarding/task.json?flow_name=login", nil, &start, "start login flow"); err != nil {
			return f.state, err
		}
		var next flowResponse
		if err := f.post(ctx, f.taskURL(), map[string]any{"flow_token": start.FlowToken}, &next, "continue login flow"); err != nil {
			return f.state, err
		}
		if err := f.advance(next); err != nil {
			return f.state, err
		}
		return FlowInitiated, nil

	case FlowInitiated:
		payload := f.subtaskInput(map[string]any{
			"subtask_id": subtaskIdentifier,
			"settings_list": map[string]any{
				"setting_responses": []map[string]any{{
					"key":           "user_identifier",
					"response_data": map[string]any{"text_data": map[string]any{"result": f.creds.Username}},
				}},
				"link": "next_link",
			},
		})
		var out flowResponse
		if err := f.post(ctx, f.taskURL(), payload, &out, "submit identifier"); err != nil {
			return f.state, err
		}
		if err := f.advance(out); err != nil {
			return f.state, err
		}
		return IdentifierSubmitted, nil

	case IdentifierSubmitted:
		switch f.subtask {
		case subtaskPassword, "":
		default:
			// LoginEnterAlternateIdentifierSubtask and any other challenge end here.
			return UnsupportedChallenge, nil
		}
		payload := f.subtaskInput(map[string]any{
			"subtask_id":     subtaskPassword,
			"enter_password": map[string]any{"password": f.creds.Password, "link": "next_link"},
		})
		var out flowResponse
		if err := f.post(ctx, f.taskURL(), payload, &out, "submit password"); err != nil {
			return f.state, err
		}
		if err := f.advance(out); err != nil {
			return f.state, err
		}
		return PasswordSubmitted, nil

	case PasswordSubmitted:
		payload := f.subtaskInput(map[string]any{
			"subtask_id":              subtaskDuplication,
			"check_logged_in_account": map[string]any{"link": "AccountDuplicationCheck_false"},
		})
		if err := f.post(ctx, f.taskURL(), payload, nil, "account duplication check"); err != nil {
			return f.state, err
		}
		csrf, err := f.csrfToken()
		if err != nil {
			return f.state, err
		}
		f.csrf = csrf
		return Authenticated, nil
	}
	return f.state, fmt.Errorf("no transition from %s", f.state)
}

func (f *loginFlow) advance(resp flowResponse) error {
	if resp.FlowToken == "" {
		return errors.New("flow token missing from response")
	}
	f.flowToken = resp.FlowToken
	f.subtask = resp.nextSubtask()
	return nil
}

func (f *loginFlow) taskURL() string {
	return f.client.apiBase + "/1.1/onboarding/task.json"
}

func (f *loginFlow) subtaskInput(input map[string]any) map[string]any {
	return map[string]any{
		"flow_token":     f.flowToken,
		"subtask_inputs": []map[string]any{input},
	}
}

func (f *loginFlow) post(ctx context.Context, endpoint string, payload any, out any, op string) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("%s: encode payload: %w", op, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	f.client.baseHeaders(req.Header)
	if f.guestToken != "" {
		req.Header.Set("X-Guest-Token", f.guestToken)
	}
	return f.client.send(req, op, out)
}

func (f *loginFlow) csrfToken() (string, error) {
	u, err := url.Parse(f.client.webBase)
	if err != nil {
		return "", fmt.Errorf("parse web base: %w", err)
	}
	for _, cookie := range f.client.jar.Cookies(u) {
		if cookie.Name == "ct0" && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", ErrMissingCSRF
}
