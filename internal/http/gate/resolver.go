package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hirelane/hirelane-identity/internal/session"
)

// ErrNotSignedIn is returned by HTTPResolver when the identity endpoint answers 401.
var ErrNotSignedIn = errors.New("gate: not signed in")

// SessionValidator is the part of session.Manager the gate needs.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (session.Identity, error)
}

// SessionResolver resolves roles in process through the session manager.
type SessionResolver struct {
	sessions SessionValidator
}

// NewSessionResolver constructs a SessionResolver.
func NewSessionResolver(sessions SessionValidator) *SessionResolver {
	return &SessionResolver{sessions: sessions}
}

// Resolve implements Resolver.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (Principal, error) {
	identity, err := r.sessions.Validate(ctx, token)
	if err != nil {
		return Principal{}, err
	}
	return Principal{Email: identity.OwnerEmail, Role: identity.Role}, nil
}

// HTTPResolver resolves roles by calling the identity endpoint with the session cookie.
type HTTPResolver struct {
	url        string
	cookieName string
	client     *http.Client
}

// NewHTTPResolver constructs an HTTPResolver for GET url.
func NewHTTPResolver(url, cookieName string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		url:        url,
		cookieName: cookieName,
		client:     &http.Client{Timeout: timeout},
	}
}

// meResponse is the identity endpoint body.
type meResponse struct {
	User struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

// Resolve implements Resolver. Any non-2xx status is an error.
func (r *HTTPResolver) Resolve(ctx context.Context, token string) (Principal, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if errReq != nil {
		return Principal{}, errReq
	}
	req.AddCookie(&http.Cookie{Name: r.cookieName, Value: token})
	req.Header.Set("Accept", "application/json")

	resp, errDo := r.client.Do(req)
	if errDo != nil {
		return Principal{}, fmt.Errorf("gate: identity request: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return Principal{}, ErrNotSignedIn
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Principal{}, fmt.Errorf("gate: identity endpoint returned %d", resp.StatusCode)
	}

	var body meResponse
	if errDecode := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); errDecode != nil {
		return Principal{}, fmt.Errorf("gate: decode identity: %w", errDecode)
	}
	role := strings.TrimSpace(body.User.Role)
	if role == "" {
		return Principal{}, errors.New("gate: identity without role")
	}
	return Principal{Email: body.User.Email, Role: role}, nil
}
