// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillhq/quill/internal/metrics"
	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store"
)

// Service errors.
var (
	ErrPostNotFound = errors.New("post not found")
)

// PostService handles post and comment business logic.
type PostService struct {
	store   store.PostStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(st store.PostStore, recorder metrics.Recorder) *PostService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PostService{
		store:   st,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreatePostInput defines input for creating a post.
type CreatePostInput struct {
	Title           string
	Content         string
	PublicationDate *time.Time
}

// CreateCommentInput defines input for commenting on a post.
type CreateCommentInput struct {
	PostID          string
	Content         string
	PublicationDate *time.Time
}

// List returns a page of posts ordered by publication date, newest first.
func (s *PostService) List(ctx context.Context, page model.Pagination) ([]*model.Post, error) {
	posts, err := s.store.ListPosts(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Get returns a post with its comments and counts the view.
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	if err := s.store.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	return s.find(ctx, id)
}

func (s *PostService) find(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// Create stores a new post. The publication date defaults to now.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*model.Post, error) {
	post := &model.Post{
		Title:           input.Title,
		Content:         input.Content,
		PublicationDate: s.dateOrNow(input.PublicationDate),
		Comments:        []*model.Comment{},
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.metrics.IncPostCreated()
	return post, nil
}

// Update applies a partial update. An empty update returns the post unchanged.
func (s *PostService) Update(ctx context.Context, id string, update model.PostUpdate) (*model.Post, error) {
	if update.IsEmpty() {
		return s.find(ctx, id)
	}

	post, err := s.store.UpdatePost(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.metrics.IncPostUpdated()
	return post, nil
}

// Delete removes a post together with its comments.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePost(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.metrics.IncPostDeleted()
	return nil
}

// AddComment attaches a comment to an existing post.
func (s *PostService) AddComment(ctx context.Context, input CreateCommentInput) (*model.Comment, error) {
	comment := &model.Comment{
		PostID:          input.PostID,
		Content:         input.Content,
		PublicationDate: s.dateOrNow(input.PublicationDate),
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.metrics.IncCommentCreated()
	return comment, nil
}

// CommentOnPost adds a comment and returns the post with all its comments.
func (s *PostService) CommentOnPost(ctx context.Context, input CreateCommentInput) (*model.Post, error) {
	if _, err := s.AddComment(ctx, input); err != nil {
		return nil, err
	}
	return s.find(ctx, input.PostID)
}

// Ping checks the backing store.
func (s *PostService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *PostService) dateOrNow(t *time.Time) time.Time {
	if t == nil {
		return s.now()
	}
	return t.UTC()
}
