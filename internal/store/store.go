// Package store defines the persistence contracts shared by the SQL and
// document backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/quillhq/quill/internal/model"
)

// Common errors returned by every backend.
var (
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("email already exists")
)

// PostStore persists posts and their comments.
//
// Post and comment IDs are opaque strings. An ID that the backend cannot
// parse is reported as ErrNotFound.
type PostStore interface {
	ListPosts(ctx context.Context, page model.Pagination) ([]*model.Post, error)
	// GetPost returns the post with its comments, oldest first.
	GetPost(ctx context.Context, id string) (*model.Post, error)
	CreatePost(ctx context.Context, post *model.Post) error
	UpdatePost(ctx context.Context, id string, update model.PostUpdate) (*model.Post, error)
	// DeletePost removes the post and its comments.
	DeletePost(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	// CreateComment returns ErrNotFound when comment.PostID does not exist.
	CreateComment(ctx context.Context, comment *model.Comment) error
	Ping(ctx context.Context) error
}

// UserStore persists accounts and their access tokens.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserEmail(ctx context.Context, id, email string) (*model.User, error)
	CreateAccessToken(ctx context.Context, token *model.AccessToken) error
	// GetAccessToken returns ErrNotFound for unknown tokens and for tokens
	// expired at now.
	GetAccessToken(ctx context.Context, token string, now time.Time) (*model.AccessToken, error)
	// DeleteExpiredAccessTokens removes tokens expired at now and returns how many.
	DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}
