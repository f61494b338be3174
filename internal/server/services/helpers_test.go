package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

type sentMessage struct {
	to, subject, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{to: to, subject: subject, body: body})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *recordingNotifier) last() sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingMetrics struct {
	mu  sync.Mutex
	ops []string
}

func (m *recordingMetrics) ObserveOperation(op, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op+"="+outcome)
}

type fixture struct {
	svc      *AuthService
	repos    *repomanager.MemoryRepositoryManager
	notifier *recordingNotifier
	clock    *testClock
	cfg      *config.Config
}

func sequentialCodes() func() (string, error) {
	var (
		mu sync.Mutex
		n  int
	)
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("code-%d", n), nil
	}
}

func newFixture(t *testing.T, tweak func(*config.Config), opts ...Option) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	if tweak != nil {
		tweak(cfg)
	}

	f := &fixture{
		repos:    repomanager.NewMemoryRepositoryManager(),
		notifier: &recordingNotifier{},
		clock:    &testClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		cfg:      cfg,
	}

	opts = append([]Option{WithClock(f.clock.now), WithCodeGenerator(sequentialCodes())}, opts...)
	svc, err := NewAuthService(
		f.repos,
		cfg,
		cryptox.NewPasswordHasher(cfg.BcryptCost, 4),
		auth.NewTokenService([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		f.notifier,
		logging.Nop{},
		opts...,
	)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) claimsFor(t *testing.T, identifier, password string) *auth.Claims {
	t.Helper()
	res, err := f.svc.Login(context.Background(), identifier, password)
	if err != nil {
		t.Fatalf("login %s: %v", identifier, err)
	}
	claims, err := f.svc.VerifyToken(res.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	return claims
}

func resetTokenFrom(body string) string {
	_, token, _ := strings.Cut(body, "token=")
	return strings.TrimSpace(token)
}

// withRepos returns a second service over f's clock, config and notifier
// that stores through m.
func (f *fixture) withRepos(t *testing.T, m repomanager.RepositoryManager) *AuthService {
	t.Helper()
	svc, err := NewAuthService(
		m,
		f.cfg,
		cryptox.NewPasswordHasher(f.cfg.BcryptCost, 4),
		auth.NewTokenService([]byte(f.cfg.SecretKey), f.cfg.AccessTokenValidityDuration),
		f.notifier,
		logging.Nop{},
		WithClock(f.clock.now),
	)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

// interleavedRepos runs before ahead of every identity write other than
// Create, simulating a concurrent request landing first.
type interleavedRepos struct {
	*repomanager.MemoryRepositoryManager
	before func(ctx context.Context)
}

func (m *interleavedRepos) Users(db dbx.DBTX) usersrepo.Repository {
	return interleavedUsers{Repository: m.MemoryRepositoryManager.Users(db), before: m.before}
}

type interleavedUsers struct {
	usersrepo.Repository
	before func(ctx context.Context)
}

func (u interleavedUsers) Save(ctx context.Context, user *models.User) error {
	u.before(ctx)
	return u.Repository.Save(ctx, user)
}

func (u interleavedUsers) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	u.before(ctx)
	return u.Repository.UpdatePasswordHash(ctx, id, hash)
}

func (u interleavedUsers) AddRole(ctx context.Context, id int64, role models.Role) error {
	u.before(ctx)
	return u.Repository.AddRole(ctx, id, role)
}
