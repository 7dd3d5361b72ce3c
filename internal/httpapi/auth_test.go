package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"salepoint/backend/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPIN(_ context.Context, username string, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.PIN = pin
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPIN(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				PIN:       "4826",
				Role:      "admin",
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, store)
	_, err := manager.Login(domain.LoginRequest{
		Username: "admin",
		PIN:      "4826",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].PIN == "4826" {
		t.Fatalf("expected pin to be upgraded from plain text")
	}
	if !strings.HasPrefix(users[0].PIN, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", users[0].PIN)
	}
	if store.updates == 0 {
		t.Fatalf("expected upgrade to write back to the store")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)

	token, err := manager.sign("admin", "admin", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	actor, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)

	token, err := manager.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := manager.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenFromDifferentSecretRejected(t *testing.T) {
	issuer := NewAuthManager("secret-one", time.Hour, nil)
	verifier := NewAuthManager("secret-two", time.Hour, nil)

	token, err := issuer.sign("admin", "admin", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	store := &userStoreStub{}
	manager := NewAuthManager("test-secret", time.Hour, store)

	cashier, err := manager.CreateCashier(context.Background(), domain.CashierCreateRequest{
		Username: "karim",
		PIN:      "5731",
	})
	if err != nil {
		t.Fatalf("create cashier failed: %v", err)
	}

	store.mu.Lock()
	user := store.users[cashier.Username]
	user.Active = false
	store.users[cashier.Username] = user
	store.mu.Unlock()

	if _, err := manager.Login(domain.LoginRequest{Username: "karim", PIN: "5731"}); err == nil {
		t.Fatalf("expected inactive account login to fail")
	}
}

func TestCreateCashierValidation(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, &userStoreStub{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CashierCreateRequest
	}{
		{"short username", domain.CashierCreateRequest{Username: "ab", PIN: "5731"}},
		{"short pin", domain.CashierCreateRequest{Username: "karim", PIN: "12"}},
		{"non-digit pin", domain.CashierCreateRequest{Username: "karim", PIN: "12ab"}},
	}
	for _, tc := range cases {
		if _, err := manager.CreateCashier(ctx, tc.req); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	if _, err := manager.CreateCashier(ctx, domain.CashierCreateRequest{Username: "karim", PIN: "5731"}); err != nil {
		t.Fatalf("valid cashier rejected: %v", err)
	}
	if _, err := manager.CreateCashier(ctx, domain.CashierCreateRequest{Username: "karim", PIN: "9999"}); err == nil {
		t.Fatalf("expected duplicate username to be rejected")
	}
}
