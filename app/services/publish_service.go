// Package services holds the publish workflow: authorize, validate, save, notify.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mangapost/app/auth"
	"mangapost/app/caption"
	"mangapost/app/models"
	"mangapost/app/notifier"
	"mangapost/app/repositories"
)

// Authorizer decides whether the caller may publish.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context) error

func (f AuthorizerFunc) Authorize(ctx context.Context) error {
	return f(ctx)
}

// SecretAuthorizer accepts the caller when submitted equals the configured admin secret.
func SecretAuthorizer(submitted, configured string) Authorizer {
	return AuthorizerFunc(func(context.Context) error {
		if !auth.Verify(submitted, configured) {
			return errors.New("admin secret mismatch")
		}
		return nil
	})
}

// PublishRequest is the post metadata collected by the dashboard form.
type PublishRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"` // nil when absent; empty is allowed
	CoverImage     string   `json:"coverImage"`
	DestinationURL string   `json:"destUrl"`
	IsAdult        bool     `json:"isAdult"`
}

// Result reports how far a publish request got.
type Result struct {
	Post    *models.Post     `json:"post,omitempty"`
	Receipt notifier.Receipt `json:"receipt"`
	State   State            `json:"state"`
	Trace   []State          `json:"trace"`
}

// PublishService saves posts and relays them to the channel.
type PublishService struct {
	repo     repositories.PostRepository
	notifier notifier.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewPublishService creates a new PublishService.
func NewPublishService(repo repositories.PostRepository, n notifier.Notifier, logger *slog.Logger) *PublishService {
	return &PublishService{
		repo:     repo,
		notifier: n,
		logger:   logger,
		now:      time.Now,
	}
}

// advance moves res to next and logs the step. Illegal transitions panic.
func (s *PublishService) advance(ctx context.Context, res *Result, next State) {
	if !res.State.CanTransition(next) {
		panic(fmt.Sprintf("publish: illegal transition %s -> %s", res.State, next))
	}
	res.State = next
	res.Trace = append(res.Trace, next)
	s.logger.DebugContext(ctx, "Publish state changed", "state", next.String())
}

// Publish authorizes the caller, validates and saves the post, then sends it to
// the channel. A failed notification leaves the saved post in place with
// Notified=false; use Resend to retry it.
func (s *PublishService) Publish(ctx context.Context, req PublishRequest, authz Authorizer) (*Result, error) {
	res := &Result{State: Idle, Trace: []State{Idle}}

	s.advance(ctx, res, Authenticating)
	if authz == nil {
		s.advance(ctx, res, Rejected)
		return res, fmt.Errorf("%w: no authorizer", ErrAuth)
	}
	if err := authz.Authorize(ctx); err != nil {
		s.advance(ctx, res, Rejected)
		s.logger.WarnContext(ctx, "Publish rejected", "error", err)
		return res, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	s.advance(ctx, res, Authorized)

	s.advance(ctx, res, Submitting)
	if req.Tags == nil {
		s.advance(ctx, res, Failed)
		return res, fmt.Errorf("%w: tags are required", ErrValidation)
	}
	post := &models.Post{
		Title:          req.Title,
		Description:    req.Description,
		Tags:           req.Tags,
		CoverImage:     req.CoverImage,
		DestinationURL: req.DestinationURL,
		IsAdult:        req.IsAdult,
		CreatedAt:      s.now().UTC(),
	}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		s.advance(ctx, res, Failed)
		return res, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.advance(ctx, res, Failed)
		s.logger.ErrorContext(ctx, "Failed to save post", "title", post.Title, "error", err)
		return res, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	res.Post = post
	s.advance(ctx, res, Saved)
	s.logger.InfoContext(ctx, "Post saved", "post_id", post.ID, "title", post.Title)

	s.advance(ctx, res, Notifying)
	receipt, err := s.notify(ctx, post)
	if err != nil {
		s.advance(ctx, res, Failed)
		return res, err
	}
	res.Receipt = receipt
	s.advance(ctx, res, Done)
	return res, nil
}

// Resend sends a saved post that never reached the channel.
func (s *PublishService) Resend(ctx context.Context, id int64) (*Result, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if post.Notified {
		return nil, ErrAlreadyNotified
	}

	res := &Result{Post: post, State: Saved, Trace: []State{Saved}}
	s.advance(ctx, res, Notifying)
	receipt, err := s.notify(ctx, post)
	if err != nil {
		s.advance(ctx, res, Failed)
		return res, err
	}
	res.Receipt = receipt
	s.advance(ctx, res, Done)
	return res, nil
}

func (s *PublishService) notify(ctx context.Context, post *models.Post) (notifier.Receipt, error) {
	receipt, err := s.notifier.Publish(ctx, post, caption.ForPost(post))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to notify channel", "post_id", post.ID, "error", err)
		return notifier.Receipt{}, fmt.Errorf("%w: %v", ErrNotification, err)
	}

	at := s.now().UTC()
	if err := s.repo.MarkNotified(ctx, post.ID, at); err != nil {
		// Delivered but unmarked: logged, not returned.
		s.logger.ErrorContext(ctx, "Failed to mark post notified", "post_id", post.ID, "error", err)
	} else {
		post.MarkNotified(at)
	}

	s.logger.InfoContext(ctx, "Post sent to channel",
		"post_id", post.ID,
		"message_id", receipt.MessageID)
	return receipt, nil
}

// List returns saved posts, newest first.
func (s *PublishService) List(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return posts, nil
}

// Clear deletes every saved post.
func (s *PublishService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.logger.InfoContext(ctx, "All posts cleared")
	return nil
}
