package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/autherr"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/logging"
)

// ErrNotSignedIn is returned by calls that need an authenticated session
// (document writes, profile updates) when there is none.
var ErrNotSignedIn = errors.New("identity: not signed in")

// ErrDocumentNotFound is returned by GetDocument for a missing document.
var ErrDocumentNotFound = errors.New("identity: document not found")

// RESTClient talks to an identity-toolkit style JSON backend: account
// endpoints under /accounts:<action> and a document store under /documents.
// Sign-out is client-side (token discard), matching the backend's stateless
// token model.
type RESTClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      logging.Logger

	mu           sync.Mutex
	idToken      string
	refreshToken string
	session      *Session
	feed         *sessionFeed
}

func NewRESTClient(endpoint, apiKey string, timeout time.Duration, log logging.Logger) *RESTClient {
	if log == nil {
		log = logging.Noop()
	}
	return &RESTClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		log:      log.With("component", "identity"),
		feed:     newSessionFeed(),
	}
}

type tokenResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
}

func (c *RESTClient) SignIn(ctx context.Context, identifier, secret string) (*Session, error) {
	var resp tokenResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             identifier,
		"password":          secret,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return c.adoptTokens(ctx, &resp), nil
}

func (c *RESTClient) SignUp(ctx context.Context, identifier, secret string) (*Session, error) {
	var resp tokenResponse
	err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             identifier,
		"password":          secret,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return c.adoptTokens(ctx, &resp), nil
}

// SignOut discards the tokens and fires the session feed with nil. It cannot
// fail: there is nothing to revoke server-side.
func (c *RESTClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.idToken = ""
	c.refreshToken = ""
	c.session = nil
	cbs := c.feed.snapshot()
	c.mu.Unlock()

	c.log.Info(ctx, "signed out")
	for _, cb := range cbs {
		cb(nil)
	}
	return nil
}

func (c *RESTClient) SendPasswordReset(ctx context.Context, identifier string) error {
	err := c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       identifier,
	}, nil)
	if err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

func (c *RESTClient) OnSessionChange(cb func(*Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	remove := c.feed.subscribe(cb)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		remove()
	}
}

func (c *RESTClient) CurrentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *RESTClient) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	url := fmt.Sprintf("%s/documents/%s/%s?key=%s", c.endpoint, collection, id, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, autherr.Wrap(autherr.CodeUnknown, err)
	}
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, autherr.Wrap(autherr.CodeNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrDocumentNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, c.decodeError(res)
	}

	var fields map[string]any
	if err := json.NewDecoder(res.Body).Decode(&fields); err != nil {
		return nil, autherr.Wrap(autherr.CodeUnknown, err)
	}
	return fields, nil
}

func (c *RESTClient) SetDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	c.mu.Lock()
	token := c.idToken
	c.mu.Unlock()
	if token == "" {
		return ErrNotSignedIn
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return autherr.Wrap(autherr.CodeUnknown, err)
	}

	url := fmt.Sprintf("%s/documents/%s/%s?key=%s", c.endpoint, collection, id, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return autherr.Wrap(autherr.CodeUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return autherr.Wrap(autherr.CodeNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		return c.decodeError(res)
	}
	return nil
}

func (c *RESTClient) UpdateDisplayName(ctx context.Context, name string) error {
	c.mu.Lock()
	token := c.idToken
	c.mu.Unlock()
	if token == "" {
		return ErrNotSignedIn
	}

	err := c.post(ctx, "accounts:update", map[string]any{
		"idToken":           token,
		"displayName":       name,
		"returnSecureToken": false,
	}, nil)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}

	c.mu.Lock()
	if c.session != nil {
		c.session.DisplayName = name
	}
	c.mu.Unlock()
	return nil
}

// adoptTokens stores the tokens, derives the session snapshot from the
// response and the ID-token claims, and fires the session feed.
func (c *RESTClient) adoptTokens(ctx context.Context, resp *tokenResponse) *Session {
	session := &Session{
		UID:         resp.LocalID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
	}
	mergeClaims(session, resp.IDToken)

	c.mu.Lock()
	c.idToken = resp.IDToken
	c.refreshToken = resp.RefreshToken
	c.session = session
	cbs := c.feed.snapshot()
	c.mu.Unlock()

	c.log.Info(ctx, "session established", "uid", session.UID)
	snapshot := *session
	for _, cb := range cbs {
		cb(&snapshot)
	}
	out := *session
	return &out
}

// mergeClaims fills session fields from the ID token. The token arrived over
// TLS from the issuer itself, so an unverified parse is enough here; there is
// no signing key on the device to verify against.
func mergeClaims(session *Session, idToken string) {
	if idToken == "" {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return
	}
	if session.UID == "" {
		if sub, _ := claims["sub"].(string); sub != "" {
			session.UID = sub
		}
	}
	if session.Email == "" {
		if email, _ := claims["email"].(string); email != "" {
			session.Email = email
		}
	}
	if name, _ := claims["name"].(string); name != "" && session.DisplayName == "" {
		session.DisplayName = name
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		session.EmailVerified = verified
	}
}

func (c *RESTClient) authorize(req *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.idToken)
	}
}

// post issues a JSON POST to an accounts action and decodes the response into
// out (skipped when out is nil).
func (c *RESTClient) post(ctx context.Context, action string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return autherr.Wrap(autherr.CodeUnknown, err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", c.endpoint, action, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return autherr.Wrap(autherr.CodeUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return autherr.Wrap(autherr.CodeNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return c.decodeError(res)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return autherr.Wrap(autherr.CodeUnknown, err)
	}
	return nil
}

type backendError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *RESTClient) decodeError(res *http.Response) error {
	var be backendError
	if err := json.NewDecoder(res.Body).Decode(&be); err != nil || be.Error.Message == "" {
		if res.StatusCode >= http.StatusInternalServerError {
			return autherr.Newf(autherr.CodeNetwork, "backend unavailable (status %d)", res.StatusCode)
		}
		return autherr.Newf(autherr.CodeUnknown, "unexpected backend status %d", res.StatusCode)
	}
	return mapBackendCode(be.Error.Message)
}

// mapBackendCode translates the backend's string error codes into the
// taxonomy. Unknown codes degrade to CodeUnknown with a generic message.
func mapBackendCode(code string) error {
	switch {
	case code == "EMAIL_NOT_FOUND":
		return autherr.New(autherr.CodeAccountNotFound)
	case code == "INVALID_PASSWORD", code == "INVALID_LOGIN_CREDENTIALS":
		return autherr.New(autherr.CodeInvalidCredentials)
	case code == "USER_DISABLED":
		return autherr.New(autherr.CodeAccountDisabled)
	case code == "EMAIL_EXISTS":
		return autherr.New(autherr.CodeAccountExists)
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return autherr.New(autherr.CodeWeakSecret)
	case code == "TOO_MANY_ATTEMPTS_TRY_LATER":
		return autherr.New(autherr.CodeRateLimited)
	case code == "OPERATION_NOT_ALLOWED":
		return autherr.New(autherr.CodeOperationNotAllowed)
	case code == "INVALID_EMAIL", code == "MISSING_PASSWORD", code == "MISSING_EMAIL":
		return autherr.New(autherr.CodeInvalidInput)
	default:
		return autherr.Newf(autherr.CodeUnknown, "backend error: %s", code)
	}
}
