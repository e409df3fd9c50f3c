// Package session issues, validates and revokes admin dashboard sessions.
// Only the SHA-256 of a session token is persisted.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirelane/hirelane-identity/internal/config"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/security"
	"github.com/hirelane/hirelane-identity/internal/util"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Validation failures. All of them mean "not signed in" to the caller.
var (
	ErrInvalid = errors.New("session: invalid")
	ErrRevoked = errors.New("session: revoked")
	ErrExpired = errors.New("session: expired")
)

// ClientInfo describes the client that signed in.
type ClientInfo struct {
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
}

// Issued is a new session. Token is the plaintext cookie value and is never stored.
type Issued struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// Identity is the admin behind a valid session.
type Identity struct {
	SessionID  string
	OwnerEmail string
	Role       string
	ExpiresAt  time.Time
}

// Summary describes an active session for listing.
type Summary struct {
	ID             string     `json:"id"`
	OwnerEmail     string     `json:"owner_email"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	Client         ClientInfo `json:"client"`
}

// Manager implements the session lifecycle over a Repository.
type Manager struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewManager constructs a Manager. A non-positive ttl falls back to seven days.
func NewManager(repo Repository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	return &Manager{
		repo: repo,
		ttl:  ttl,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the session lifetime, used for the cookie max-age.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session for ownerEmail and returns its plaintext token.
func (m *Manager) Issue(ctx context.Context, ownerEmail string, info ClientInfo) (Issued, error) {
	owner := normalizeEmail(ownerEmail)
	if owner == "" {
		return Issued{}, fmt.Errorf("%w: owner email is required", ErrInvalid)
	}
	token, errToken := security.GenerateSessionToken()
	if errToken != nil {
		return Issued{}, errToken
	}
	clientInfo, errMarshal := json.Marshal(info)
	if errMarshal != nil {
		return Issued{}, errMarshal
	}

	now := m.now()
	row := &models.AdminSession{
		ID:             uuid.NewString(),
		OwnerEmail:     owner,
		TokenHash:      security.HashSecret(token),
		ExpiresAt:      now.Add(m.ttl),
		LastActivityAt: now,
		ClientInfo:     datatypes.JSON(clientInfo),
	}
	if errCreate := m.repo.Create(ctx, row); errCreate != nil {
		return Issued{}, fmt.Errorf("session: create: %w", errCreate)
	}
	log.WithFields(log.Fields{
		"session_id": row.ID,
		"owner":      util.MaskIdentifier(owner),
	}).Info("session: issued")
	return Issued{Token: token, SessionID: row.ID, ExpiresAt: row.ExpiresAt}, nil
}

// Validate resolves token to the identity behind it.
func (m *Manager) Validate(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalid
	}
	row, errGet := m.repo.GetByTokenHash(ctx, security.HashSecret(token))
	if errGet != nil {
		if errors.Is(errGet, ErrSessionNotFound) {
			return Identity{}, ErrInvalid
		}
		return Identity{}, fmt.Errorf("session: lookup: %w", errGet)
	}
	if row.RevokedAt != nil {
		return Identity{}, ErrRevoked
	}
	now := m.now()
	if now.After(row.ExpiresAt) {
		return Identity{}, ErrExpired
	}

	admin, errAdmin := m.repo.FindAdmin(ctx, row.OwnerEmail)
	if errAdmin != nil {
		if errors.Is(errAdmin, ErrAdminNotFound) {
			return Identity{}, ErrInvalid
		}
		return Identity{}, fmt.Errorf("session: load admin: %w", errAdmin)
	}
	if !admin.Active {
		return Identity{}, ErrInvalid
	}

	if errTouch := m.repo.Touch(ctx, row.ID, now); errTouch != nil {
		log.WithError(errTouch).WithField("session_id", row.ID).Warn("session: update last activity failed")
	}
	return Identity{
		SessionID:  row.ID,
		OwnerEmail: row.OwnerEmail,
		Role:       admin.Role,
		ExpiresAt:  row.ExpiresAt,
	}, nil
}

// Revoke ends the session behind token. Unknown and already revoked tokens are not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if errRevoke := m.repo.RevokeByTokenHash(ctx, security.HashSecret(token), m.now()); errRevoke != nil {
		return fmt.Errorf("session: revoke: %w", errRevoke)
	}
	return nil
}

// List returns the active sessions of ownerEmail.
func (m *Manager) List(ctx context.Context, ownerEmail string) ([]Summary, error) {
	rows, errList := m.repo.ListActive(ctx, normalizeEmail(ownerEmail), m.now())
	if errList != nil {
		return nil, fmt.Errorf("session: list: %w", errList)
	}
	out := make([]Summary, 0, len(rows))
	for i := range rows {
		out = append(out, toSummary(&rows[i]))
	}
	return out, nil
}

// Lookup returns the session with id.
func (m *Manager) Lookup(ctx context.Context, id string) (Summary, error) {
	row, errGet := m.repo.GetByID(ctx, strings.TrimSpace(id))
	if errGet != nil {
		return Summary{}, errGet
	}
	return toSummary(row), nil
}

// RevokeByID revokes a session administratively.
func (m *Manager) RevokeByID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if _, errGet := m.repo.GetByID(ctx, id); errGet != nil {
		return errGet
	}
	if errRevoke := m.repo.RevokeByID(ctx, id, m.now()); errRevoke != nil {
		return fmt.Errorf("session: revoke by id: %w", errRevoke)
	}
	log.WithField("session_id", id).Info("session: revoked")
	return nil
}

// RevokeAllForOwner revokes every active session of ownerEmail and returns how many were revoked.
func (m *Manager) RevokeAllForOwner(ctx context.Context, ownerEmail string) (int64, error) {
	n, errRevoke := m.repo.RevokeAllForOwner(ctx, normalizeEmail(ownerEmail), m.now())
	if errRevoke != nil {
		return 0, fmt.Errorf("session: revoke all: %w", errRevoke)
	}
	return n, nil
}

func toSummary(row *models.AdminSession) Summary {
	var info ClientInfo
	if len(row.ClientInfo) > 0 {
		if errUnmarshal := json.Unmarshal(row.ClientInfo, &info); errUnmarshal != nil {
			log.WithError(errUnmarshal).WithField("session_id", row.ID).Debug("session: bad client info")
		}
	}
	return Summary{
		ID:             row.ID,
		OwnerEmail:     row.OwnerEmail,
		CreatedAt:      row.CreatedAt,
		LastActivityAt: row.LastActivityAt,
		ExpiresAt:      row.ExpiresAt,
		RevokedAt:      row.RevokedAt,
		Client:         info,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
