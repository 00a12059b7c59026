package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mangapost/app/auth"
	"mangapost/app/models"
	"mangapost/app/notifier"
	"mangapost/app/repositories/mock"
	"mangapost/app/services"
	"mangapost/app/store"
	"mangapost/app/views"

	"github.com/stretchr/testify/require"
)

const testAdminSecret = "s3cret-admin"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// callLog records repository and notifier calls in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type recordingRepo struct {
	*mock.PostRepository
	log *callLog
}

func (r *recordingRepo) Create(ctx context.Context, post *models.Post) error {
	r.log.add("create")
	return r.PostRepository.Create(ctx, post)
}

type fakeNotifier struct {
	log *callLog
	err error
}

func (n *fakeNotifier) Publish(_ context.Context, post *models.Post, caption string) (notifier.Receipt, error) {
	n.log.add("notify")
	if n.err != nil {
		return notifier.Receipt{}, n.err
	}
	return notifier.Receipt{MessageID: post.ID, ChannelURL: "https://t.me/hi0anime"}, nil
}

type testEnv struct {
	log      *callLog
	repo     *recordingRepo
	notifier *fakeNotifier
	service  *services.PublishService
	guard    *auth.Guard
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{log: &callLog{}, now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	env.repo = &recordingRepo{PostRepository: mock.NewPostRepository(), log: env.log}
	env.notifier = &fakeNotifier{log: env.log}
	env.service = services.NewPublishService(env.repo, env.notifier, discard)
	env.guard = auth.NewGuard(store.NewMemoryStore(), []byte("test-signing-key"), discard,
		auth.WithClock(func() time.Time { return env.now }))
	return env
}

// login sets up the admin password and returns a valid session cookie.
func (env *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	_, token, err := env.guard.Setup(context.Background(), "hunter22", "hunter22")
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (env *testEnv) postController(t *testing.T) *PostController {
	t.Helper()
	templates, err := views.Load()
	require.NoError(t, err)
	return NewPostController(env.service, env.guard, templates, "https://t.me/hi0anime")
}

func jsonRequest(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

var errTelegramDown = errors.New("telegram api error: Bad Request: chat not found")
