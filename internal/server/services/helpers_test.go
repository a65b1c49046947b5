package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/logging"
	"github.com/dmitrijs2005/gophcoach/internal/server/auth"
	"github.com/dmitrijs2005/gophcoach/internal/server/metrics"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

const testSystemPrompt = "You are a concise coach."

func newStore(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	db, dialect, err := dbx.Open(ctx, "file:svc_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := repomanager.New(dialect)
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx, db))
	return db, m
}

func seedUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, 0)`, id, id+"@example.com", id)
	require.NoError(t, err)
}

func newTestHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(auth.HashParams{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService([]byte("test-secret"), 24*time.Hour)
	require.NoError(t, err)
	return ts
}

type fakeGateway struct {
	mu    sync.Mutex
	calls [][]models.Turn
	fn    func(ctx context.Context, turns []models.Turn) (string, error)
}

func (g *fakeGateway) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, append([]models.Turn(nil), turns...))
	g.mu.Unlock()
	return g.fn(ctx, turns)
}

func (g *fakeGateway) Calls() [][]models.Turn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][]models.Turn(nil), g.calls...)
}

func echoGateway() *fakeGateway {
	return &fakeGateway{fn: func(_ context.Context, turns []models.Turn) (string, error) {
		return "re: " + turns[len(turns)-1].Content, nil
	}}
}

// flakyMessages fails Append for one role and delegates everything else.
type flakyMessages struct {
	messages.Repository
	failRole models.Role
	listErr  error
}

func (f *flakyMessages) Append(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m.Role == f.failRole {
		return nil, errors.New("db error: disk I/O error")
	}
	return f.Repository.Append(ctx, m)
}

func (f *flakyMessages) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Repository.ListByUser(ctx, userID, limit)
}

type flakyManager struct {
	repomanager.RepositoryManager
	failRole models.Role
	listErr  error
}

func (m *flakyManager) Messages(db dbx.DBTX) messages.Repository {
	return &flakyMessages{Repository: m.RepositoryManager.Messages(db), failRole: m.failRole, listErr: m.listErr}
}

func newChat(db dbx.DBTX, m repomanager.RepositoryManager, gw CompletionGateway, ccfg ContextConfig) (*ChatService, *metrics.Metrics) {
	if ccfg.SystemPrompt == "" {
		ccfg.SystemPrompt = testSystemPrompt
	}
	mtr := metrics.New()
	asm := NewContextAssembler(db, m, ccfg, nil)
	return NewChatService(db, m, asm, gw, ChatConfig{HistoryLimit: 50, MaxMessageChars: 4000}, logging.Nop(), mtr), mtr
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(b)
}
