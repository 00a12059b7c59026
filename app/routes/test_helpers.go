package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"mangapost/app/auth"
	"mangapost/app/models"
	"mangapost/app/notifier"
	"mangapost/app/repositories"
	"mangapost/app/services"
	"mangapost/app/store"
	"mangapost/app/views"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

const testAdminSecret = "route-secret"

func setupTestDB(t *testing.T) *badger.DB {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type testApp struct {
	router *mux.Router
	repo   *repositories.BadgerPostRepository
	guard  *auth.Guard
	sent   *countingNotifier
}

type countingNotifier struct {
	notifier.Notifier
	calls int
}

func (c *countingNotifier) Publish(ctx context.Context, post *models.Post, caption string) (notifier.Receipt, error) {
	c.calls++
	return c.Notifier.Publish(ctx, post, caption)
}

// setupTestRouter wires the full stack over an in-memory badger database.
func setupTestRouter(t *testing.T, db *badger.DB) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := repositories.NewBadgerPostRepository(db)
	n := &countingNotifier{Notifier: notifier.NewLogProvider("@hi0anime", logger)}
	guard := auth.NewGuard(store.NewBadgerStore(db), []byte("route-signing-key"), logger, auth.WithTTL(time.Hour))

	templates, err := views.Load()
	require.NoError(t, err)

	router := SetupRoutes(Deps{
		Publisher:     services.NewPublishService(repo, n, logger),
		Guard:         guard,
		Templates:     templates,
		Logger:        logger,
		AdminPassword: testAdminSecret,
		ChannelURL:    notifier.ChannelURL("@hi0anime"),
	})

	return &testApp{router: router, repo: repo, guard: guard, sent: n}
}

func (a *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()
	_, token, err := a.guard.Setup(context.Background(), "password1", "password1")
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}
