package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	redisclient "github.com/angelmondragon/canteen-coupons/pkg/redis"
)

// ErrNoSession is returned when an access id has no live session.
var ErrNoSession = errors.New("session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Account identifies who a session belongs to.
type Account struct {
	Kind enums.PrincipalKind
	ID   int64
}

func (a Account) String() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.ID)
}

func parseAccount(raw string) (Account, error) {
	kind, id, ok := strings.Cut(raw, ":")
	if !ok {
		return Account{}, fmt.Errorf("malformed session value %q", raw)
	}
	parsedKind, err := enums.ParsePrincipalKind(kind)
	if err != nil {
		return Account{}, err
	}
	parsedID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Account{}, fmt.Errorf("malformed session account id %q", id)
	}
	return Account{Kind: parsedKind, ID: parsedID}, nil
}

// Manager tracks server-side sessions keyed by the access token's jti so a
// logout revokes the token before it expires.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	Lookup(ctx context.Context, accessID string) (Account, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: client, keyer: client, ttl: ttl}, nil
}

// Create registers a new session for account and returns its access id.
func (m *Manager) Create(ctx context.Context, account Account) (string, error) {
	if _, err := enums.ParsePrincipalKind(string(account.Kind)); err != nil {
		return "", err
	}
	if account.ID <= 0 {
		return "", fmt.Errorf("account id is required")
	}
	accessID := NewAccessID()
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), account.String(), m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return accessID, nil
}

// Lookup returns the account bound to accessID, or ErrNoSession.
func (m *Manager) Lookup(ctx context.Context, accessID string) (Account, error) {
	if strings.TrimSpace(accessID) == "" {
		return Account{}, ErrNoSession
	}
	raw, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return Account{}, ErrNoSession
		}
		return Account{}, err
	}
	return parseAccount(raw)
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}
