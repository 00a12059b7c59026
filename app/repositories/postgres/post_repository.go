// Package postgres stores posts in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mangapost/app/models"
	"mangapost/app/repositories"

	sq "github.com/Masterminds/squirrel"
	"github.com/codeGROOVE-dev/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	PostsTableName = "posts"

	PostIDColumn             = "id"
	PostTitleColumn          = "title"
	PostDescriptionColumn    = "description"
	PostTagsColumn           = "tags"
	PostCoverImageColumn     = "cover_image"
	PostDestinationURLColumn = "destination_url"
	PostIsAdultColumn        = "is_adult"
	PostCreatedAtColumn      = "created_at"
	PostNotifiedColumn       = "notified"
	PostNotifiedAtColumn     = "notified_at"
)

const schema = `CREATE TABLE IF NOT EXISTS posts (
	id              BIGSERIAL PRIMARY KEY,
	title           TEXT        NOT NULL,
	description     TEXT        NOT NULL,
	tags            TEXT[]      NOT NULL DEFAULT '{}',
	cover_image     TEXT        NOT NULL,
	destination_url TEXT        NOT NULL,
	is_adult        BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	notified        BOOLEAN     NOT NULL DEFAULT FALSE,
	notified_at     TIMESTAMPTZ
)`

var ErrBuildingQuery = errors.New("error building sql-query")

var postColumns = []string{
	PostIDColumn,
	PostTitleColumn,
	PostDescriptionColumn,
	PostTagsColumn,
	PostCoverImageColumn,
	PostDestinationURLColumn,
	PostIsAdultColumn,
	PostCreatedAtColumn,
	PostNotifiedColumn,
	PostNotifiedAtColumn,
}

// DB is the part of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connect opens a pool and waits until the server answers a ping.
func Connect(ctx context.Context, dsn string, attempts uint, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	err = retry.Do(
		func() error {
			return pool.Ping(ctx)
		},
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Postgres not reachable yet, retrying", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// PostRepository implements repositories.PostRepository on PostgreSQL.
type PostRepository struct {
	db DB
}

func NewPostRepository(db DB) *PostRepository {
	return &PostRepository{db: db}
}

// EnsureSchema creates the posts table when missing.
func (r *PostRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}

	query, args, err := sq.
		Insert(PostsTableName).
		Columns(
			PostTitleColumn,
			PostDescriptionColumn,
			PostTagsColumn,
			PostCoverImageColumn,
			PostDestinationURLColumn,
			PostIsAdultColumn,
			PostCreatedAtColumn,
		).
		Values(post.Title, post.Description, tags, post.CoverImage, post.DestinationURL, post.IsAdult, post.CreatedAt).
		Suffix("RETURNING " + PostIDColumn).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&post.ID); err != nil {
		return fmt.Errorf("exec error creating post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query, args, err := sq.
		Select(postColumns...).
		From(PostsTableName).
		Where(sq.Eq{PostIDColumn: id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	post, err := scanPost(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("exec select post by id: %w", err)
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	query, args, err := sq.
		Select(postColumns...).
		From(PostsTableName).
		OrderBy(fmt.Sprintf("%s DESC", PostIDColumn)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec error selecting posts: %w", err)
	}
	defer rows.Close()

	out := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostRepository) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	query, args, err := sq.
		Update(PostsTableName).
		Set(PostNotifiedColumn, true).
		Set(PostNotifiedAtColumn, at).
		Where(sq.Eq{PostIDColumn: id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error marking post notified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Clear(ctx context.Context) error {
	query, args, err := sq.Delete(PostsTableName).PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error clearing posts: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Tags,
		&p.CoverImage,
		&p.DestinationURL,
		&p.IsAdult,
		&p.CreatedAt,
		&p.Notified,
		&p.NotifiedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
