package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/autherr"
)

const minSecretLength = 6

// MemoryClient is an in-process identity backend. It backs unit tests and the
// demo CLI's offline mode with the same observable semantics as the REST
// client: taxonomy errors, a session-change feed, bcrypt-checked secrets.
type MemoryClient struct {
	mu       sync.Mutex
	accounts map[string]*memoryAccount
	docs     map[string]map[string]any
	session  *Session
	feed     *sessionFeed

	// Disabled lists identifiers that behave like administratively
	// disabled accounts.
	disabled map[string]bool
}

type memoryAccount struct {
	uid        string
	email      string
	secretHash []byte
	name       string
	verified   bool
	createdAt  time.Time
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		accounts: make(map[string]*memoryAccount),
		docs:     make(map[string]map[string]any),
		disabled: make(map[string]bool),
		feed:     newSessionFeed(),
	}
}

// DisableAccount marks an identifier as administratively disabled.
func (c *MemoryClient) DisableAccount(identifier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled[identifier] = true
}

func (c *MemoryClient) SignIn(ctx context.Context, identifier, secret string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, autherr.Wrap(autherr.CodeNetwork, err)
	}
	if identifier == "" || secret == "" {
		return nil, autherr.New(autherr.CodeInvalidInput)
	}

	c.mu.Lock()
	acct, ok := c.accounts[identifier]
	isDisabled := c.disabled[identifier]
	c.mu.Unlock()

	if !ok {
		return nil, autherr.New(autherr.CodeAccountNotFound)
	}
	if isDisabled {
		return nil, autherr.New(autherr.CodeAccountDisabled)
	}
	if err := bcrypt.CompareHashAndPassword(acct.secretHash, []byte(secret)); err != nil {
		return nil, autherr.New(autherr.CodeInvalidCredentials)
	}

	return c.establish(acct), nil
}

func (c *MemoryClient) SignUp(ctx context.Context, identifier, secret string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, autherr.Wrap(autherr.CodeNetwork, err)
	}
	if identifier == "" || secret == "" {
		return nil, autherr.New(autherr.CodeInvalidInput)
	}
	if len(secret) < minSecretLength {
		return nil, autherr.New(autherr.CodeWeakSecret)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		return nil, autherr.Wrap(autherr.CodeUnknown, err)
	}

	c.mu.Lock()
	if _, exists := c.accounts[identifier]; exists {
		c.mu.Unlock()
		return nil, autherr.New(autherr.CodeAccountExists)
	}
	acct := &memoryAccount{
		uid:        uuid.NewString(),
		email:      identifier,
		secretHash: hash,
		createdAt:  time.Now().UTC(),
	}
	c.accounts[identifier] = acct
	c.mu.Unlock()

	return c.establish(acct), nil
}

func (c *MemoryClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.session = nil
	cbs := c.feed.snapshot()
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(nil)
	}
	return nil
}

func (c *MemoryClient) SendPasswordReset(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return autherr.Wrap(autherr.CodeNetwork, err)
	}
	c.mu.Lock()
	_, ok := c.accounts[identifier]
	c.mu.Unlock()
	if !ok {
		return autherr.New(autherr.CodeAccountNotFound)
	}
	return nil
}

func (c *MemoryClient) OnSessionChange(cb func(*Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	remove := c.feed.subscribe(cb)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		remove()
	}
}

func (c *MemoryClient) CurrentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *MemoryClient) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, autherr.Wrap(autherr.CodeNetwork, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[collection+"/"+id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

func (c *MemoryClient) SetDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return autherr.Wrap(autherr.CodeNetwork, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ErrNotSignedIn
	}
	doc := c.docs[collection+"/"+id]
	if doc == nil {
		doc = make(map[string]any)
		c.docs[collection+"/"+id] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (c *MemoryClient) UpdateDisplayName(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return autherr.Wrap(autherr.CodeNetwork, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ErrNotSignedIn
	}
	if acct, ok := c.accounts[c.session.Email]; ok {
		acct.name = name
	}
	c.session.DisplayName = name
	return nil
}

// ChangeSecret rewrites an account's secret out-of-band, simulating a
// password change made on another device. Test helper.
func (c *MemoryClient) ChangeSecret(identifier, newSecret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newSecret), bcrypt.MinCost)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	acct, ok := c.accounts[identifier]
	if !ok {
		return errors.New("no such account")
	}
	acct.secretHash = hash
	return nil
}

func (c *MemoryClient) establish(acct *memoryAccount) *Session {
	session := &Session{
		UID:           acct.uid,
		Email:         acct.email,
		DisplayName:   acct.name,
		EmailVerified: acct.verified,
		CreatedAt:     acct.createdAt,
	}

	c.mu.Lock()
	c.session = session
	cbs := c.feed.snapshot()
	c.mu.Unlock()

	snapshot := *session
	for _, cb := range cbs {
		cb(&snapshot)
	}
	out := *session
	return &out
}

var _ Client = (*MemoryClient)(nil)
var _ Client = (*RESTClient)(nil)
