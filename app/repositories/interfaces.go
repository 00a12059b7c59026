package repositories

import (
	"context"
	"errors"
	"time"

	"mangapost/app/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// PostRepository defines the interface for post data access
//
//go:generate mockgen -source=interfaces.go -destination=../services/post_repository_mock_test.go -package=services
type PostRepository interface {
	// Create inserts post and assigns its ID.
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	// List returns every post, newest first.
	List(ctx context.Context) ([]*models.Post, error)
	MarkNotified(ctx context.Context, id int64, at time.Time) error
	// Clear deletes all posts. IDs are not reused afterwards.
	Clear(ctx context.Context) error
}
