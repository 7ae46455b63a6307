package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/access"
	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byID map[string]domain.User
	seq  int
	err  error
}

type memoryTokenRepo struct {
	tokens map[string]tokenrepo.Token
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[string]domain.User)}
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokenRepo) Create(_ context.Context, token tokenrepo.Token) error {
	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := t
	return &clone, nil
}

func (r *memoryTokenRepo) Delete(_ context.Context, token string) error {
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memoryTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, t := range r.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) taken(u domain.User) bool {
	for id, other := range r.byID {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) || strings.EqualFold(other.Username, u.Username) {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.taken(u) {
		return nil, domain.ErrAlreadyExists
	}
	r.seq++
	u.ID = "user-" + string(rune('0'+r.seq))
	r.byID[u.ID] = u
	clone := u
	return &clone, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) Update(_ context.Context, u domain.User) (*domain.User, error) {
	if r.taken(u) {
		return nil, domain.ErrAlreadyExists
	}
	r.byID[u.ID] = u
	clone := u
	return &clone, nil
}

func newTestService() (*Service, *memoryRepo, *memoryTokenRepo) {
	users := newMemoryRepo()
	tokens := newMemoryTokenRepo()
	return New(users, tokens, "test-secret", time.Hour, nil), users, tokens
}

func mustRegister(t *testing.T, svc *Service, username, email string) *Session {
	t.Helper()
	s, err := svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return s
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"missing username", RegisterInput{Email: "a@b.co", Password: "secret1"}},
		{"bad email", RegisterInput{Username: "a", Email: "not-an-email", Password: "secret1"}},
		{"short password", RegisterInput{Username: "a", Email: "a@b.co", Password: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			if domain.KindOf(err) != domain.KindInvalidArgument {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestRegister_HashesAndIssuesToken(t *testing.T) {
	svc, users, tokens := newTestService()
	s := mustRegister(t, svc, "alice", "Alice@Example.com")

	stored := users.byID[s.User.ID]
	if stored.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", stored.Email)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Fatalf("password not hashed")
	}
	if stored.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %q", stored.Role)
	}
	if s.Token == "" || len(tokens.tokens) != 1 {
		t.Fatalf("expected one persisted session, got %d", len(tokens.tokens))
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newTestService()
	mustRegister(t, svc, "alice", "alice@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ALICE", Email: "other@example.com", Password: "secret1"})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	reg := mustRegister(t, svc, "alice", "alice@example.com")
	ctx := context.Background()

	for _, login := range []string{"alice", "ALICE@example.com"} {
		s, err := svc.Login(ctx, login, "secret1")
		if err != nil {
			t.Fatalf("login %q: %v", login, err)
		}
		if s.User.ID != reg.User.ID {
			t.Fatalf("unexpected user %+v", s.User)
		}
	}

	for _, tc := range []struct{ login, password string }{{"alice", "wrong"}, {"nobody", "secret1"}, {"", ""}} {
		_, err := svc.Login(ctx, tc.login, tc.password)
		var derr *domain.Error
		if !errors.As(err, &derr) || derr.Kind != domain.KindUnauthenticated || derr.Message != "Invalid credentials" {
			t.Fatalf("login %q: expected invalid credentials, got %v", tc.login, err)
		}
	}
}

func TestLogin_StoreUnavailable(t *testing.T) {
	svc, users, _ := newTestService()
	users.err = domain.ErrUnavailable

	_, err := svc.Login(context.Background(), "alice", "secret1")
	if domain.KindOf(err) != domain.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService()
	s := mustRegister(t, svc, "alice", "alice@example.com")
	ctx := context.Background()

	u, err := svc.Authenticate(ctx, s.Token)
	if err != nil || u.ID != s.User.ID {
		t.Fatalf("authenticate: %+v %v", u, err)
	}

	other := New(newMemoryRepo(), newMemoryTokenRepo(), "other-secret", time.Hour, nil)
	if _, err := other.Authenticate(ctx, s.Token); domain.KindOf(err) != domain.KindUnauthenticated {
		t.Fatalf("expected signature mismatch to fail, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "garbage"); domain.KindOf(err) != domain.KindUnauthenticated {
		t.Fatalf("expected malformed token to fail, got %v", err)
	}
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	svc, _, tokens := newTestService()
	s := mustRegister(t, svc, "alice", "alice@example.com")

	svc.tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.Authenticate(context.Background(), s.Token); domain.KindOf(err) != domain.KindUnauthenticated {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	n, err := svc.PurgeExpired(context.Background())
	if err != nil || n != 1 || len(tokens.tokens) != 0 {
		t.Fatalf("purge: n=%d err=%v remaining=%d", n, err, len(tokens.tokens))
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	svc, _, _ := newTestService()
	s := mustRegister(t, svc, "alice", "alice@example.com")
	ctx := context.Background()

	if err := svc.Logout(ctx, s.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, s.Token); domain.KindOf(err) != domain.KindUnauthenticated {
		t.Fatalf("expected revoked token to fail, got %v", err)
	}
	if err := svc.Logout(ctx, s.Token); domain.KindOf(err) != domain.KindUnauthenticated {
		t.Fatalf("expected second logout to fail, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService()
	alice := mustRegister(t, svc, "alice", "alice@example.com")
	mustRegister(t, svc, "bob", "bob@example.com")
	ctx := context.Background()
	me := access.Principal{UserID: alice.User.ID}

	name := "alicia"
	password := "newsecret"
	updated, err := svc.UpdateProfile(ctx, me, ProfileInput{Username: &name, Password: &password})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Username != "alicia" || updated.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", updated)
	}
	if _, err := svc.Login(ctx, "alicia", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	taken := "bob@example.com"
	if _, err := svc.UpdateProfile(ctx, me, ProfileInput{Email: &taken}); domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	short := "123"
	if _, err := svc.UpdateProfile(ctx, me, ProfileInput{Password: &short}); domain.KindOf(err) != domain.KindInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := svc.Profile(ctx, access.Principal{UserID: "missing"}); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
