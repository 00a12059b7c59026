package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mangapost/app/models"
	"mangapost/app/repositories"
	"mangapost/app/repositories/postgres"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "title", "description", "tags", "cover_image",
	"destination_url", "is_adult", "created_at", "notified", "notified_at",
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *postgres.PostRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, postgres.NewPostRepository(mock)
}

func TestPostRepository_EnsureSchema(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS posts").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Create(t *testing.T) {
	mock, repo := newMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	post := &models.Post{
		Title:          "Solo Leveling",
		Description:    "Hunter rises",
		CoverImage:     "https://img.example/c.jpg",
		DestinationURL: "https://read.example/solo",
		CreatedAt:      created,
	}

	mock.ExpectQuery(`INSERT INTO posts .* RETURNING id`).
		WithArgs("Solo Leveling", "Hunter rises", []string{}, "https://img.example/c.jpg",
			"https://read.example/solo", false, created).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	require.NoError(t, repo.Create(context.Background(), post))
	assert.Equal(t, int64(7), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CreateError(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.Post{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID(t *testing.T) {
	mock, repo := newMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	notifiedAt := created.Add(time.Minute)

	mock.ExpectQuery(`SELECT .* FROM posts WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			int64(3), "Berserk", "Dark fantasy", []string{"Seinen", "Dark Fantasy"},
			"https://img.example/b.jpg", "https://read.example/berserk", true, created, true, &notifiedAt,
		))

	post, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), post.ID)
	assert.Equal(t, "Berserk", post.Title)
	assert.Equal(t, []string{"Seinen", "Dark Fantasy"}, post.Tags)
	assert.True(t, post.IsAdult)
	assert.True(t, post.Notified)
	require.NotNil(t, post.NotifiedAt)
	assert.Equal(t, notifiedAt, *post.NotifiedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByIDNotFound(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(`SELECT .* FROM posts WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List(t *testing.T) {
	mock, repo := newMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM posts ORDER BY id DESC`).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(2), "B", "b", []string{}, "https://img/b", "https://read/b", false, created, false, nil).
			AddRow(int64(1), "A", "a", []string{"x"}, "https://img/a", "https://read/a", false, created, true, &created))

	posts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, int64(2), posts[0].ID)
	assert.Nil(t, posts[0].NotifiedAt)
	assert.Equal(t, int64(1), posts[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListEmpty(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(`SELECT .* FROM posts ORDER BY id DESC`).
		WillReturnRows(pgxmock.NewRows(columns))

	posts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_MarkNotified(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 5, 0, 0, time.UTC)

	t.Run("updates row", func(t *testing.T) {
		mock, repo := newMock(t)
		mock.ExpectExec(`UPDATE posts SET notified = \$1, notified_at = \$2 WHERE id = \$3`).
			WithArgs(true, at, int64(4)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.MarkNotified(context.Background(), 4, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock, repo := newMock(t)
		mock.ExpectExec(`UPDATE posts`).
			WithArgs(true, at, int64(5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.MarkNotified(context.Background(), 5, at)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepository_Clear(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectExec(`DELETE FROM posts`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, repo.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var _ repositories.PostRepository = (*postgres.PostRepository)(nil)
