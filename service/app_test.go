package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangapost/app/notifier"
	"mangapost/app/repositories"
	"mangapost/app/repositories/mock"
	"mangapost/app/store"
	"mangapost/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig(addr string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Addr: addr},
		Auth: config.AuthConfig{
			AdminPassword: "hunter2",
			SessionSecret: []byte("test-secret"),
			SessionTTL:    time.Hour,
		},
		Storage:  config.StorageConfig{Type: config.StorageMemory},
		Notifier: config.NotifierConfig{Type: config.NotifierLog, ChannelID: "@hi0anime"},
	}
}

func TestOpenBackends(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		b, err := openBackends(context.Background(), config.StorageConfig{Type: config.StorageMemory}, testLogger())
		require.NoError(t, err)
		defer b.closer()

		assert.IsType(t, &mock.PostRepository{}, b.posts)
		assert.IsType(t, &store.MemoryStore{}, b.kv)
	})

	t.Run("badger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "badger")
		b, err := openBackends(context.Background(), config.StorageConfig{Type: config.StorageBadger, BadgerPath: path}, testLogger())
		require.NoError(t, err)
		defer b.closer()

		assert.IsType(t, &repositories.BadgerPostRepository{}, b.posts)
		assert.IsType(t, &store.BadgerStore{}, b.kv)
		assert.DirExists(t, path)
	})

	t.Run("postgres unreachable", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := openBackends(ctx, config.StorageConfig{
			Type:                    config.StoragePostgres,
			PostgresDSN:             "postgres://nobody@127.0.0.1:1/none?connect_timeout=1",
			PostgresConnectAttempts: 1,
		}, testLogger())
		assert.Error(t, err)
	})
}

func TestNewNotifier(t *testing.T) {
	n, err := newNotifier(config.NotifierConfig{Type: config.NotifierLog, ChannelID: "@x"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &notifier.LogProvider{}, n)

	n, err = newNotifier(config.NotifierConfig{Type: config.NotifierTelegram, BotToken: "1:t", ChannelID: "@x"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &notifier.TelegramProvider{}, n)

	_, err = newNotifier(config.NotifierConfig{Type: config.NotifierTelegram, ChannelID: "@x"}, testLogger())
	assert.ErrorIs(t, err, notifier.ErrTelegram)
}

func TestNewHandler(t *testing.T) {
	cfg := memoryConfig(":0")
	b, err := openBackends(context.Background(), cfg.Storage, testLogger())
	require.NoError(t, err)
	defer b.closer()

	handler, err := newHandler(cfg, b, testLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/api/posts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRunAppServer(t *testing.T) {
	t.Run("graceful shutdown", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- RunAppServer(ctx, memoryConfig("127.0.0.1:0"), testLogger())
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(shutdownTimeout + time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("listen error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		err := RunAppServer(ctx, memoryConfig("not-an-address"), testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http server")
	})
}
