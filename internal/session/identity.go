package session

import (
	"context"
	"fmt"
)

// IdentityStore persists the handful of small string values that let a
// client rejoin a quiz after a disconnect or restart. Implementations live
// in internal/infra.
type IdentityStore interface {
	// Load returns the stored value and whether it was present.
	Load(ctx context.Context, name string) (string, bool, error)
	// Store writes one value, replacing any previous one.
	Store(ctx context.Context, name, value string) error
}

// Storage keys. Kept as the camelCase names the browser client used so a
// store shared with it keeps working.
const (
	keyClientID   = "clientId"
	keyQuizID     = "quizId"
	keyPlayerName = "playerName"
	keyRole       = "role"
)

// RoleKind discriminates the three client roles.
type RoleKind int

const (
	RoleRegistrant RoleKind = iota
	RolePlayer
	RoleHost
)

func (k RoleKind) String() string {
	switch k {
	case RolePlayer:
		return "player"
	case RoleHost:
		return "host"
	default:
		return "registrant"
	}
}

// Role is the client's role in the quiz. Observe only applies to hosts: an
// observing host sees everything but controls nothing.
type Role struct {
	Kind    RoleKind
	Observe bool
}

// Identity is the persisted client identity. ClientID and QuizID together
// are what the connect command re-sends on every (re)join.
type Identity struct {
	ClientID   string
	QuizID     string
	PlayerName string
	Role       Role
}

// Complete reports whether the identity suffices to connect to a quiz.
func (id Identity) Complete() bool {
	return id.ClientID != "" && id.QuizID != ""
}

// LoadIdentity rehydrates a previously saved identity. A store with no
// saved values yields the zero identity and no error.
func LoadIdentity(ctx context.Context, store IdentityStore) (Identity, error) {
	var id Identity
	var err error
	if id.ClientID, _, err = loadValue(ctx, store, keyClientID); err != nil {
		return Identity{}, err
	}
	if id.QuizID, _, err = loadValue(ctx, store, keyQuizID); err != nil {
		return Identity{}, err
	}
	if id.PlayerName, _, err = loadValue(ctx, store, keyPlayerName); err != nil {
		return Identity{}, err
	}
	role, _, err := loadValue(ctx, store, keyRole)
	if err != nil {
		return Identity{}, err
	}
	switch role {
	case "player":
		id.Role = Role{Kind: RolePlayer}
	case "host":
		id.Role = Role{Kind: RoleHost}
	case "observer":
		id.Role = Role{Kind: RoleHost, Observe: true}
	}
	return id, nil
}

// Save persists the identity. It is called before any state transition
// that depends on the identity being recoverable.
func (id Identity) Save(ctx context.Context, store IdentityStore) error {
	roleValue := id.Role.Kind.String()
	if id.Role.Kind == RoleHost && id.Role.Observe {
		roleValue = "observer"
	}
	values := map[string]string{
		keyClientID:   id.ClientID,
		keyQuizID:     id.QuizID,
		keyPlayerName: id.PlayerName,
		keyRole:       roleValue,
	}
	for name, value := range values {
		if err := store.Store(ctx, name, value); err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
	}
	return nil
}

// ClearIdentity wipes the persisted identity, resetting the client to
// anonymous on next start.
func ClearIdentity(ctx context.Context, store IdentityStore) error {
	for _, name := range []string{keyClientID, keyQuizID, keyPlayerName, keyRole} {
		if err := store.Store(ctx, name, ""); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	return nil
}

func loadValue(ctx context.Context, store IdentityStore, name string) (string, bool, error) {
	value, ok, err := store.Load(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", name, err)
	}
	return value, ok, nil
}
