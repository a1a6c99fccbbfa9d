// Package session holds the per-client login flag and the credential check
// used by the login form.
//
// The flag is a plain marker in durable slot storage. It is set by a
// successful login, removed by logout and never expires on its own.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpalmerr/tcup/internal/slot"
	"golang.org/x/crypto/bcrypt"
)

// flagValue is stored under the flag key of a logged-in client.
const flagValue = "true"

// Flags reads and writes the login flag of browser clients.
type Flags struct {
	slots slot.Store
}

// NewFlags creates a [Flags] backed by slots.
func NewFlags(slots slot.Store) *Flags {
	return &Flags{slots: slots}
}

// Key returns the slot key of clientID's login flag.
func Key(clientID string) string {
	return "client/" + clientID + "/isLogin"
}

// LoggedIn reports whether clientID has the login flag set.
func (f *Flags) LoggedIn(ctx context.Context, clientID string) (bool, error) {
	if clientID == "" {
		return false, nil
	}
	v, err := f.slots.Get(ctx, Key(clientID))
	if errors.Is(err, slot.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: read flag: %w", err)
	}
	return string(v) == flagValue, nil
}

// SetLoggedIn sets the login flag of clientID.
func (f *Flags) SetLoggedIn(ctx context.Context, clientID string) error {
	if clientID == "" {
		return errors.New("session: empty client id")
	}
	if err := f.slots.Set(ctx, Key(clientID), []byte(flagValue)); err != nil {
		return fmt.Errorf("session: write flag: %w", err)
	}
	return nil
}

// Clear removes the login flag of clientID.
func (f *Flags) Clear(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	if err := f.slots.Delete(ctx, Key(clientID)); err != nil {
		return fmt.Errorf("session: clear flag: %w", err)
	}
	return nil
}

// Users checks usernames against bcrypt password hashes.
type Users struct {
	hashes map[string]string
}

// NewUsers creates a [Users] from a username to bcrypt-hash map.
func NewUsers(hashes map[string]string) *Users {
	cp := make(map[string]string, len(hashes))
	for k, v := range hashes {
		cp[k] = v
	}
	return &Users{hashes: cp}
}

// Authenticate reports whether password matches the stored hash of username.
func (u *Users) Authenticate(username, password string) bool {
	hash, ok := u.hashes[username]
	if !ok {
		// compare anyway so unknown users cost the same as wrong passwords
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword returns a bcrypt hash suitable for [NewUsers].
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("session: hash password: %w", err)
	}
	return string(b), nil
}

// dummyHash is any valid bcrypt hash; only its cost matters.
const dummyHash = "$2a$10$tgo2gAgGgTbTzydKAQQFeeuVZ.UOHwiNuB56S2FkYV44CIRv7IXZu"
