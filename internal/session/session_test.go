package session

import (
	"context"
	"errors"
	"testing"

	"github.com/jpalmerr/tcup/internal/slot"
	"golang.org/x/crypto/bcrypt"
)

type brokenSlots struct {
	slot.Store
}

func (brokenSlots) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestFlags_Lifecycle(t *testing.T) {
	ctx := context.Background()
	flags := NewFlags(slot.NewMemoryStore())

	if ok, err := flags.LoggedIn(ctx, "c1"); ok || err != nil {
		t.Fatalf("LoggedIn() = %v, %v; want false, nil", ok, err)
	}

	if err := flags.SetLoggedIn(ctx, "c1"); err != nil {
		t.Fatalf("SetLoggedIn() error = %v", err)
	}
	if ok, _ := flags.LoggedIn(ctx, "c1"); !ok {
		t.Error("LoggedIn() = false after SetLoggedIn")
	}
	if ok, _ := flags.LoggedIn(ctx, "c2"); ok {
		t.Error("flag leaked to another client")
	}

	if err := flags.Clear(ctx, "c1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if ok, _ := flags.LoggedIn(ctx, "c1"); ok {
		t.Error("LoggedIn() = true after Clear")
	}
}

func TestFlags_EmptyClientID(t *testing.T) {
	ctx := context.Background()
	flags := NewFlags(slot.NewMemoryStore())

	if ok, err := flags.LoggedIn(ctx, ""); ok || err != nil {
		t.Errorf("LoggedIn(\"\") = %v, %v", ok, err)
	}
	if err := flags.SetLoggedIn(ctx, ""); err == nil {
		t.Error("SetLoggedIn(\"\") expected error")
	}
	if err := flags.Clear(ctx, ""); err != nil {
		t.Errorf("Clear(\"\") error = %v", err)
	}
}

func TestFlags_OtherValueIsNotLoggedIn(t *testing.T) {
	ctx := context.Background()
	slots := slot.NewMemoryStore()
	_ = slots.Set(ctx, Key("c1"), []byte("false"))

	if ok, _ := NewFlags(slots).LoggedIn(ctx, "c1"); ok {
		t.Error("LoggedIn() = true for value \"false\"")
	}
}

func TestFlags_ReadError(t *testing.T) {
	flags := NewFlags(brokenSlots{slot.NewMemoryStore()})

	ok, err := flags.LoggedIn(context.Background(), "c1")
	if ok {
		t.Error("LoggedIn() = true on read error")
	}
	if err == nil {
		t.Error("LoggedIn() expected error")
	}
}

func TestUsers_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := NewUsers(map[string]string{"admin": string(hash)})

	tests := []struct {
		name     string
		user     string
		password string
		want     bool
	}{
		{name: "valid", user: "admin", password: "admin123", want: true},
		{name: "wrong password", user: "admin", password: "nope", want: false},
		{name: "unknown user", user: "root", password: "admin123", want: false},
		{name: "empty", user: "", password: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := users.Authenticate(tt.user, tt.password); got != tt.want {
				t.Errorf("Authenticate(%q, %q) = %v, want %v", tt.user, tt.password, got, tt.want)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !NewUsers(map[string]string{"u": hash}).Authenticate("u", "s3cret") {
		t.Error("hash does not verify")
	}
}
