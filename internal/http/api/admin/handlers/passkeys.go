package handlers

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/hirelane/hirelane-identity/internal/config"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/security"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	ceremonyTTL         = 5 * time.Minute
	ceremonyRedisPrefix = "webauthn:ceremony:"
)

var errPasskeyRejected = errors.New("passkey assertion rejected")

// ceremonyStore keeps in-flight WebAuthn ceremonies. Take removes the entry it returns.
type ceremonyStore interface {
	Put(ctx context.Context, key string, data webauthn.SessionData) error
	Take(ctx context.Context, key string) (webauthn.SessionData, bool, error)
}

// ceremonyExpiry returns when a stored ceremony stops being usable.
func ceremonyExpiry(data webauthn.SessionData, now time.Time) time.Time {
	if !data.Expires.IsZero() {
		return data.Expires
	}
	return now.Add(ceremonyTTL)
}

type ceremonyEntry struct {
	data    webauthn.SessionData
	expires time.Time
}

// memoryCeremonyStore serves single-instance deployments.
type memoryCeremonyStore struct {
	mu    sync.Mutex
	items map[string]ceremonyEntry
	now   func() time.Time
}

func newMemoryCeremonyStore() *memoryCeremonyStore {
	return &memoryCeremonyStore{items: make(map[string]ceremonyEntry), now: time.Now}
}

func (s *memoryCeremonyStore) Put(_ context.Context, key string, data webauthn.SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, entry := range s.items {
		if now.After(entry.expires) {
			delete(s.items, k)
		}
	}
	s.items[key] = ceremonyEntry{data: data, expires: ceremonyExpiry(data, now)}
	return nil
}

func (s *memoryCeremonyStore) Take(_ context.Context, key string) (webauthn.SessionData, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[key]
	if !ok {
		return webauthn.SessionData{}, false, nil
	}
	delete(s.items, key)
	if s.now().After(entry.expires) {
		return webauthn.SessionData{}, false, nil
	}
	return entry.data, true, nil
}

// redisCeremonyStore shares ceremonies between instances.
type redisCeremonyStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

func (s *redisCeremonyStore) Put(ctx context.Context, key string, data webauthn.SessionData) error {
	payload, errMarshal := json.Marshal(data)
	if errMarshal != nil {
		return errMarshal
	}
	ttl := ceremonyExpiry(data, s.now()).Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, ceremonyRedisPrefix+key, payload, ttl).Err()
}

func (s *redisCeremonyStore) Take(ctx context.Context, key string) (webauthn.SessionData, bool, error) {
	payload, errGet := s.client.GetDel(ctx, ceremonyRedisPrefix+key).Bytes()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return webauthn.SessionData{}, false, nil
		}
		return webauthn.SessionData{}, false, errGet
	}
	var data webauthn.SessionData
	if errUnmarshal := json.Unmarshal(payload, &data); errUnmarshal != nil {
		return webauthn.SessionData{}, false, errUnmarshal
	}
	return data, true, nil
}

// Passkeys runs the WebAuthn ceremonies behind passkey sign in.
type Passkeys struct {
	cfg   config.WebAuthnConfig
	store ceremonyStore
}

// NewPasskeys constructs Passkeys. Ceremonies live in redis when a client is given.
func NewPasskeys(cfg config.WebAuthnConfig, redisClient redis.UniversalClient) *Passkeys {
	p := &Passkeys{cfg: cfg}
	if redisClient != nil {
		p.store = &redisCeremonyStore{client: redisClient, now: time.Now}
	} else {
		p.store = newMemoryCeremonyStore()
	}
	return p
}

// relyingParty is rebuilt per ceremony so WEB_AUTHN_* settings apply without a restart.
func (p *Passkeys) relyingParty() (*webauthn.WebAuthn, error) {
	return security.NewWebAuthn(p.cfg)
}

func registrationCeremonyKey(adminID uint64) string {
	return fmt.Sprintf("register:%d", adminID)
}

func loginCeremonyKey(challenge string) string {
	return "login:" + challenge
}

// verifyAssertion checks a discoverable login assertion made for admin.
func (p *Passkeys) verifyAssertion(ctx context.Context, admin *models.Admin, raw json.RawMessage) (*webauthn.Credential, error) {
	rp, errRP := p.relyingParty()
	if errRP != nil {
		return nil, errRP
	}
	parsed, errParse := protocol.ParseCredentialRequestResponseBytes(raw)
	if errParse != nil {
		return nil, fmt.Errorf("%w: %v", errPasskeyRejected, errParse)
	}
	ceremony, ok, errTake := p.store.Take(ctx, loginCeremonyKey(parsed.Response.CollectedClientData.Challenge))
	if errTake != nil {
		return nil, errTake
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown or expired challenge", errPasskeyRejected)
	}

	user := newAdminWebAuthnUser(admin)
	credential, errValidate := rp.ValidateDiscoverableLogin(func(_, userHandle []byte) (webauthn.User, error) {
		if !bytes.Equal(userHandle, user.WebAuthnID()) {
			return nil, errors.New("passkey belongs to another account")
		}
		return user, nil
	}, ceremony, parsed)
	if errValidate != nil {
		return nil, fmt.Errorf("%w: %v", errPasskeyRejected, errValidate)
	}
	return credential, nil
}

// writePasskeyUnavailable answers 503 when the relying party cannot be built.
func writePasskeyUnavailable(c *gin.Context, err error) {
	if !errors.Is(err, security.ErrPasskeysDisabled) {
		log.WithError(err).Error("passkeys: relying party config invalid")
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "passkeys not configured"})
}

// adminWebAuthnUser adapts an admin to webauthn.User.
type adminWebAuthnUser struct {
	id          uint64
	email       string
	credentials []webauthn.Credential
}

func (u adminWebAuthnUser) WebAuthnID() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u.id)
	return buf
}

func (u adminWebAuthnUser) WebAuthnName() string { return u.email }

func (u adminWebAuthnUser) WebAuthnDisplayName() string { return u.email }

func (u adminWebAuthnUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

func newAdminWebAuthnUser(admin *models.Admin) adminWebAuthnUser {
	user := adminWebAuthnUser{id: admin.ID, email: admin.Email}
	if !hasPasskey(admin) {
		return user
	}
	var signCount uint32
	if admin.PasskeySignCount != nil {
		signCount = *admin.PasskeySignCount
	}
	flags := webauthn.CredentialFlags{}
	if admin.PasskeyBackupEligible != nil {
		flags.BackupEligible = *admin.PasskeyBackupEligible
	}
	if admin.PasskeyBackupState != nil {
		flags.BackupState = *admin.PasskeyBackupState
	}
	user.credentials = []webauthn.Credential{{
		ID:            admin.PasskeyID,
		PublicKey:     admin.PasskeyPublicKey,
		Flags:         flags,
		Authenticator: webauthn.Authenticator{SignCount: signCount},
	}}
	return user
}

func hasPasskey(admin *models.Admin) bool {
	return len(admin.PasskeyID) > 0 && len(admin.PasskeyPublicKey) > 0
}

// passkeyCounterColumns records the counter and backup flags reported by the authenticator.
func passkeyCounterColumns(credential *webauthn.Credential) map[string]any {
	return map[string]any{
		"passkey_sign_count":      credential.Authenticator.SignCount,
		"passkey_backup_eligible": credential.Flags.BackupEligible,
		"passkey_backup_state":    credential.Flags.BackupState,
	}
}

// hasPayload reports whether raw carries a JSON value other than null.
func hasPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
