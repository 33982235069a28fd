package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"chargebook/backend/services/auth-service/internal/models"
	"chargebook/backend/services/auth-service/internal/password"
	"chargebook/backend/services/auth-service/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  []*models.User
	nextID int64
	err    error
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now().UTC()
	cp := *user
	f.users = append(f.users, &cp)
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) Exists(_ context.Context, email, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func newTestService(repo UserRepository) (*AuthService, *TokenService) {
	tokens := NewTokenService("test-secret", time.Hour)
	return NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), tokens, zap.NewNop()), tokens
}

func TestSignupCreatesUserWithDefaultRole(t *testing.T) {
	repo := &fakeUserRepo{}
	svc, _ := newTestService(repo)

	user, err := svc.Signup(context.Background(), "  Ada@Example.com ", "ada", "hunter22")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.ID != 1 || user.Email != "ada@example.com" || user.Role != models.RoleUser {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "hunter22" || !strings.HasPrefix(user.PasswordHash, "$2") {
		t.Fatalf("password not hashed: %q", user.PasswordHash)
	}
}

func TestSignupRejectsDuplicates(t *testing.T) {
	repo := &fakeUserRepo{}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "ada@example.com", "ada", "hunter22"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Signup(ctx, "ada@example.com", "other", "hunter22"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate email: got %v", err)
	}
	if _, err := svc.Signup(ctx, "grace@example.com", "ada", "hunter22"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate username: got %v", err)
	}
}

func TestSignupMapsUniqueViolation(t *testing.T) {
	repo := &fakeUserRepo{err: repository.ErrUserExists}
	svc, _ := newTestService(repo)
	if _, err := svc.Signup(context.Background(), "ada@example.com", "ada", "pw"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("got %v", err)
	}
}

func TestSignupRequiresFields(t *testing.T) {
	svc, _ := newTestService(&fakeUserRepo{})
	if _, err := svc.Signup(context.Background(), "ada@example.com", " ", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("got %v", err)
	}
}

func TestLoginIssuesToken(t *testing.T) {
	repo := &fakeUserRepo{}
	svc, tokens := newTestService(repo)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "ada@example.com", "ada", "hunter22"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	token, user, err := svc.Login(ctx, "ADA@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := tokens.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != models.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &fakeUserRepo{}
	svc, _ := newTestService(repo)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "ada@example.com", "ada", "hunter22"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}
}
